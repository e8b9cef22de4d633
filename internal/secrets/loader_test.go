package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	keyFile := filepath.Join(dir, "key")
	if err := os.WriteFile(keyFile, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}
	emptyFile := filepath.Join(dir, "empty")
	if err := os.WriteFile(emptyFile, []byte(" \n"), 0o600); err != nil {
		t.Fatalf("write empty file: %v", err)
	}

	t.Setenv("SKILLGAP_TEST_KEY", " from-env ")
	t.Setenv("SKILLGAP_TEST_EMPTY", "")

	tests := []struct {
		name      string
		src       Source
		expect    string
		errSubstr string
	}{
		{name: "file wins", src: Source{File: keyFile, Value: "inline", Env: "SKILLGAP_TEST_KEY"}, expect: "from-file"},
		{name: "inline value", src: Source{Value: " inline ", Env: "SKILLGAP_TEST_KEY"}, expect: "inline"},
		{name: "environment", src: Source{Env: "SKILLGAP_TEST_KEY"}, expect: "from-env"},
		{name: "empty environment", src: Source{Name: "gemini api key", Env: "SKILLGAP_TEST_EMPTY"}, errSubstr: "gemini api key is not configured"},
		{name: "missing file", src: Source{File: filepath.Join(dir, "missing")}, errSubstr: "reading secret from file"},
		{name: "empty file", src: Source{Name: "token", File: emptyFile}, errSubstr: "token file"},
		{name: "nothing configured", src: Source{}, errSubstr: "secret is not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if tt.errSubstr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.errSubstr) {
					t.Fatalf("expected error containing %q, got %v", tt.errSubstr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}
