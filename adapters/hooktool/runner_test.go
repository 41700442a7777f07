package hooktool

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTool(t *testing.T, dir, name, script string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatal(err)
	}
}

func TestExecRunner(t *testing.T) {
	dir := t.TempDir()
	writeTool(t, dir, "is-leader", "echo true\n")
	writeTool(t, dir, "status-set", "echo \"cannot set $1\" >&2\nexit 2\n")

	r := &ExecRunner{Dir: dir}
	out, err := r.Run(context.Background(), "is-leader", "--format=json")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.TrimSpace(string(out)) != "true" {
		t.Errorf("stdout = %q", out)
	}

	_, err = r.Run(context.Background(), "status-set", "active", "Ready")
	if err == nil || !strings.Contains(err.Error(), "cannot set active") {
		t.Errorf("expected stderr in error, got %v", err)
	}

	leader, err := New(WithRunner(r)).IsLeader(context.Background())
	if err != nil || !leader {
		t.Errorf("IsLeader through exec = %v, %v", leader, err)
	}
}
