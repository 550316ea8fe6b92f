package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nao1215/phishscan/internal/model"
)

// NewExtractCmd creates the extract command.
func NewExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [snapshot-file]",
		Short: "Print the feature record of a page snapshot",
		Long: `Extract runs the feature engine on a page snapshot and prints the
resulting feature record as JSON, exactly as it would be sent to the
classifier. No network request is made.

The snapshot is read from the given file, or from standard input when no
file is given. --url overrides the snapshot URL, which is handy for trying
how the URL features react to a different address.

Examples:
  # Print the features of a saved snapshot
  phishscan extract snapshot.json

  # Read the snapshot from standard input
  cat snapshot.json | phishscan extract

  # Try another URL against the same page content
  phishscan extract snapshot.json --url https://paypal.secure-login.xyz/`,
		Args: cobra.MaximumNArgs(1),
		RunE: runExtractCmd,
	}

	cmd.Flags().String("url", "", "Override the snapshot URL")
	cmd.Flags().Bool("compact", false, "Print the record on one line")

	return cmd
}

func runExtractCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	source := stdinSource
	if len(args) == 1 {
		source = args[0]
	}

	loader := &snapshotLoader{stdin: cmd.InOrStdin()}
	snap, err := loader.load(cmd.Context(), source)
	if err != nil {
		return err
	}

	pageURL, err := cmd.Flags().GetString("url")
	if err != nil {
		return err
	}
	if pageURL != "" {
		snap.URL = pageURL
	}

	compact, err := cmd.Flags().GetBool("compact")
	if err != nil {
		return err
	}

	rec := cfg.Settings.NewEngine().Extract(snap)
	return writeFeatureRecord(cmd.OutOrStdout(), rec, compact)
}

// writeFeatureRecord prints the record as a JSON object in field order.
func writeFeatureRecord(w io.Writer, rec model.FeatureRecord, compact bool) error {
	var (
		data []byte
		err  error
	)
	if compact {
		data, err = json.Marshal(rec)
	} else {
		data, err = json.MarshalIndent(rec, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode feature record: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
