package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

// phishingSnapshot is a snapshot as the browser extension sends it.
const phishingSnapshot = `{
  "url": "http://paypa1-secure.login.example.com/signin?next=%2Faccount",
  "hostname": "paypa1-secure.login.example.com",
  "domText": "Sign in to your PayPal account. Enter your password.",
  "htmlContent": "<html><head><title>PayPal Login</title></head><body><form action=\"http://collector.example.net/post\"><input type=\"password\"></form></body></html>",
  "title": "PayPal Login",
  "favicon": ""
}`

// fakeClassifier serves the analyze endpoint with a fixed verdict and counts
// the requests it receives.
type fakeClassifier struct {
	*httptest.Server
	requests atomic.Int64
}

func newFakeClassifier(t *testing.T, verdict string) *fakeClassifier {
	t.Helper()

	fc := &fakeClassifier{}
	fc.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/analyze" {
			http.NotFound(w, r)
			return
		}
		fc.requests.Add(1)
		_, _ = io.Copy(io.Discard, r.Body) //nolint:errcheck

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{
  "prediction": %q,
  "top_shap_features": {
    "IsHTTPS": {"shap_value": 0.52, "explanation": "The page is not served over HTTPS"},
    "NoOfSubDomain": {"shap_value": 0.21, "explanation": "The host has many subdomains"}
  }
}`, verdict)
	}))
	t.Cleanup(fc.Close)

	return fc
}

// writeTestConfig writes a configuration file pointing at classifierURL.
func writeTestConfig(t *testing.T, classifierURL string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".phishscan")
	content := fmt.Sprintf("classifier:\n  url: %q\n  timeout: 5s\n", classifierURL)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// writeTestFile writes content to name in a temporary directory.
func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// executeRoot runs the root command with args and returns its output.
func executeRoot(t *testing.T, stdin io.Reader, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if stdin != nil {
		cmd.SetIn(stdin)
	}

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
