package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseFlags_OnlySetFlagsOverride(t *testing.T) {
	f, err := parseFlags([]string{"--threads", "64", "--no-scan", "--format", "json", "--oui-db", "/tmp/oui.txt"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}

	want := map[string]any{
		"sweep.concurrency": 64,
		"sweep.skip":        true,
		"output.format":     "json",
		"oui.database":      "/tmp/oui.txt",
	}
	if len(f.overrides) != len(want) {
		t.Fatalf("overrides = %v, want %v", f.overrides, want)
	}
	for k, v := range want {
		if f.overrides[k] != v {
			t.Errorf("overrides[%q] = %v, want %v", k, f.overrides[k], v)
		}
	}
}

func TestParseFlags_ConcurrencyAlias(t *testing.T) {
	f, err := parseFlags([]string{"--concurrency", "5"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}
	if got := f.overrides["sweep.concurrency"]; got != 5 {
		t.Errorf("sweep.concurrency = %v, want 5", got)
	}
}

func TestParseFlags_Verbose(t *testing.T) {
	f, err := parseFlags([]string{"--verbose", "--out", "scan.txt"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}
	if got := f.overrides["log.level"]; got != "debug" {
		t.Errorf("log.level = %v, want debug", got)
	}
	if got := f.overrides["output.path"]; got != "scan.txt" {
		t.Errorf("output.path = %v, want scan.txt", got)
	}
}

func TestRun_ExitCodes(t *testing.T) {
	badConfig := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(badConfig, []byte("sweep: [\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		args       []string
		want       int
		wantStdout string
		wantStderr string
	}{
		{name: "version", args: []string{"--version"}, want: exitOK, wantStdout: "NetScope "},
		{name: "help", args: []string{"-h"}, want: exitOK},
		{name: "unknown flag", args: []string{"--bogus"}, want: exitUsage, wantStderr: "bogus"},
		{name: "positional argument", args: []string{"eth0"}, want: exitUsage, wantStderr: "unexpected arguments"},
		{name: "zero threads", args: []string{"--threads", "0"}, want: exitUsage, wantStderr: "sweep.concurrency"},
		{name: "unknown format", args: []string{"--format", "xml"}, want: exitUsage, wantStderr: "output.format"},
		{name: "unknown probe", args: []string{"--probe", "arp"}, want: exitUsage, wantStderr: "probe.method"},
		{name: "missing config", args: []string{"--config", "/nonexistent/netscope.yaml"}, want: exitUsage},
		{name: "malformed config", args: []string{"--config", badConfig}, want: exitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if got := run(tt.args, &stdout, &stderr); got != tt.want {
				t.Fatalf("run(%v) = %d, want %d (stderr: %s)", tt.args, got, tt.want, stderr.String())
			}
			if tt.wantStdout != "" && !strings.Contains(stdout.String(), tt.wantStdout) {
				t.Errorf("stdout = %q, want it to contain %q", stdout.String(), tt.wantStdout)
			}
			if tt.wantStderr != "" && !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want it to contain %q", stderr.String(), tt.wantStderr)
			}
		})
	}
}

type closeFailer struct {
	bytes.Buffer
	err error
}

func (c *closeFailer) Close() error { return c.err }

func stubCreateFile(t *testing.T, wc io.WriteCloser) {
	t.Helper()
	orig := createFile
	createFile = func(string) (io.WriteCloser, error) { return wc, nil }
	t.Cleanup(func() { createFile = orig })
}

func TestWriteTo_Stdout(t *testing.T) {
	var stdout bytes.Buffer
	err := writeTo("", &stdout, func(w io.Writer) error {
		_, err := io.WriteString(w, "report\n")
		return err
	})
	if err != nil {
		t.Fatalf("writeTo() error = %v", err)
	}
	if stdout.String() != "report\n" {
		t.Errorf("stdout = %q, want %q", stdout.String(), "report\n")
	}
}

func TestWriteTo_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	var stdout bytes.Buffer
	err := writeTo(path, &stdout, func(w io.Writer) error {
		_, err := io.WriteString(w, "report\n")
		return err
	})
	if err != nil {
		t.Fatalf("writeTo() error = %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "report\n" {
		t.Errorf("file = %q, want %q", got, "report\n")
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout = %q, want empty", stdout.String())
	}
}

func TestWriteTo_CloseErrorPropagates(t *testing.T) {
	errDisk := errors.New("disk full")
	stubCreateFile(t, &closeFailer{err: errDisk})

	err := writeTo("report.txt", io.Discard, func(w io.Writer) error { return nil })
	if !errors.Is(err, errDisk) {
		t.Fatalf("writeTo() error = %v, want %v", err, errDisk)
	}
}

func TestWriteTo_WriteErrorWinsOverCloseError(t *testing.T) {
	errWrite := errors.New("short write")
	stubCreateFile(t, &closeFailer{err: errors.New("disk full")})

	err := writeTo("report.txt", io.Discard, func(w io.Writer) error { return errWrite })
	if !errors.Is(err, errWrite) {
		t.Fatalf("writeTo() error = %v, want %v", err, errWrite)
	}
}

func TestWriteTo_OpenError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "report.txt")
	called := false
	err := writeTo(path, io.Discard, func(io.Writer) error {
		called = true
		return nil
	})
	if err == nil || !strings.Contains(err.Error(), "open output") {
		t.Fatalf("writeTo() error = %v, want open output error", err)
	}
	if called {
		t.Error("writer callback ran after open failure")
	}
}
