package main

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"up", "down", "steps", "version"} {
		if _, _, err := root.Find([]string{name}); err != nil {
			t.Errorf("subcommand %q missing: %v", name, err)
		}
	}
}

func TestUp_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	os.Unsetenv("DATABASE_URL")

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"up"})
	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Fatalf("Execute() error = %v, want DATABASE_URL error", err)
	}
}

func TestSteps_RejectsNonInteger(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"steps", "two"})
	if err := root.Execute(); err == nil || !strings.Contains(err.Error(), "not an integer") {
		t.Fatalf("Execute() error = %v, want integer error", err)
	}
}
