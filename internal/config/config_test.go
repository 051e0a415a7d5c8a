package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseRequiresInputAndOutput(t *testing.T) {
	if _, err := Parse([]string{}); err == nil {
		t.Fatal("expected an error with no -input/-output")
	}
	if _, err := Parse([]string{"-input", "a.bin"}); err == nil {
		t.Fatal("expected an error with no -output")
	}
}

func TestParseVersionSkipsRequiredFlags(t *testing.T) {
	cfg, err := Parse([]string{"-version"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !cfg.Version {
		t.Fatal("expected Version = true")
	}
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]string{"-input", "a.bin", "-output", "out/"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Parser != "juliet" {
		t.Fatalf("Parser = %q, want juliet", cfg.Parser)
	}
	if cfg.PartitionOrphanKey != "ORPHAN_DATA" {
		t.Fatalf("PartitionOrphanKey = %q, want ORPHAN_DATA", cfg.PartitionOrphanKey)
	}
}

func TestParseFileOverlayFillsUnsetFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"parser": "tango", "clean": true}`), 0o640); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := Parse([]string{"-input", "a.bin", "-output", "out/", "-config", path})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Parser != "tango" {
		t.Fatalf("Parser = %q, want tango (from file overlay)", cfg.Parser)
	}
	if !cfg.Clean {
		t.Fatal("expected Clean = true (from file overlay)")
	}
}

func TestParseFileOverlayNeverOverridesExplicitFlag(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"parser": "tango"}`), 0o640); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := Parse([]string{"-input", "a.bin", "-output", "out/", "-parser", "mikelima", "-config", path})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Parser != "mikelima" {
		t.Fatalf("Parser = %q, want mikelima (explicit flag wins)", cfg.Parser)
	}
}

func TestParseFileOverlayRejectsUnknownField(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"not_a_real_field": true}`), 0o640); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	if _, err := Parse([]string{"-input", "a.bin", "-output", "out/", "-config", path}); err == nil {
		t.Fatal("expected an error for an unknown config field")
	}
}

func TestParseFileOverlayRejectsBadEnum(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"parser": "not-a-real-parser"}`), 0o640); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	if _, err := Parse([]string{"-input", "a.bin", "-output", "out/", "-config", path}); err == nil {
		t.Fatal("expected an error for an invalid parser enum value")
	}
}
