package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/nao1215/phishscan/internal/capture"
	"github.com/nao1215/phishscan/internal/model"
)

// stdinSource reads a snapshot from standard input.
const stdinSource = "-"

// errNotSnapshot is returned for snapshot files that are not JSON.
var errNotSnapshot = errors.New("not a JSON snapshot")

// isPageURL reports whether a target is a page to capture rather than a
// snapshot file.
func isPageURL(target string) bool {
	lower := strings.ToLower(target)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// readTargetList reads one target per line. Blank lines and lines starting
// with '#' are skipped.
func readTargetList(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided list path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open target list: %w", err)
	}
	defer f.Close()

	var targets []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read target list: %w", err)
	}

	return targets, nil
}

// snapshotLoader turns targets into snapshots.
type snapshotLoader struct {
	capturer *capture.Capturer
	stdin    io.Reader
}

// load returns the snapshot of one target: a captured page for URLs, the
// decoded file otherwise, or standard input for "-".
func (l *snapshotLoader) load(ctx context.Context, target string) (model.Snapshot, error) {
	if isPageURL(target) {
		if l.capturer == nil {
			return model.Snapshot{}, fmt.Errorf("cannot capture %s: page capture is disabled", target)
		}
		return l.capturer.Capture(ctx, target)
	}

	var (
		data []byte
		err  error
	)
	if target == stdinSource {
		data, err = io.ReadAll(l.stdin)
	} else {
		data, err = os.ReadFile(target) //nolint:gosec // User-provided snapshot path is intentional
	}
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("failed to read snapshot %s: %w", target, err)
	}

	if !gjson.ValidBytes(data) {
		return model.Snapshot{}, fmt.Errorf("%s: %w", target, errNotSnapshot)
	}
	return model.DecodeSnapshot(data), nil
}
