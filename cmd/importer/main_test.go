package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeCSV(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDryRunReportsKinds(t *testing.T) {
	dir := t.TempDir()
	products := writeCSV(t, dir, "products.csv", "name,price,category\nKiwi,120,fruits\n")
	categories := writeCSV(t, dir, "categories.csv", "id,name,icon\nfruits,Fruits,🍎\n")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--dry-run", categories, products})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, categories+": categories") || !strings.Contains(got, products+": products") {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestDryRunRejectsUnknownFile(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "junk.csv", "foo,bar\n1,2\n")

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--dry-run", path})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected error for unrecognised header")
	}
}

func TestRequiresFile(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected error without arguments")
	}
}
