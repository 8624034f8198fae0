package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadDotEnv_LoadsValuesAndIgnoresNoise(t *testing.T) {
	t.Setenv("A", "")
	t.Setenv("B", "")
	t.Setenv("C", "")
	t.Setenv("D", "")

	path := writeFile(t, ".env", `
# comment

A=one
export B=two
C="three # not a comment"
D=four # trailing comment
`)

	n, err := loadDotEnv(path)
	if err != nil {
		t.Fatalf("loadDotEnv: %v", err)
	}
	if n != 4 {
		t.Fatalf("loaded %d variables, want 4", n)
	}

	for key, want := range map[string]string{"A": "one", "B": "two", "C": "three # not a comment", "D": "four"} {
		if got := os.Getenv(key); got != want {
			t.Fatalf("%s=%q, want %q", key, got, want)
		}
	}
}

func TestLoadDotEnv_DoesNotOverwriteExistingEnv(t *testing.T) {
	t.Setenv("KEEP", "already")

	path := writeFile(t, ".env", "KEEP=fromfile\n")
	n, err := loadDotEnv(path)
	if err != nil {
		t.Fatalf("loadDotEnv: %v", err)
	}
	if n != 0 {
		t.Fatalf("loaded %d variables, want 0", n)
	}
	if got := os.Getenv("KEEP"); got != "already" {
		t.Fatalf("KEEP=%q, want %q", got, "already")
	}
}

func TestLoadDotEnv_StripsSingleQuotes(t *testing.T) {
	t.Setenv("Q", "")

	path := writeFile(t, ".env", "Q='hello world'\n")
	if _, err := loadDotEnv(path); err != nil {
		t.Fatalf("loadDotEnv: %v", err)
	}
	if got := os.Getenv("Q"); got != "hello world" {
		t.Fatalf("Q=%q, want %q", got, "hello world")
	}
}

func TestLoadDotEnv_MissingFileIsNotAnError(t *testing.T) {
	n, err := loadDotEnv(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil || n != 0 {
		t.Fatalf("loadDotEnv on missing file = (%d, %v), want (0, nil)", n, err)
	}
}

func TestLoadDotEnv_RejectsKeyWithSpaces(t *testing.T) {
	path := writeFile(t, ".env", "BAD KEY=value\n")
	if _, err := loadDotEnv(path); err == nil {
		t.Fatalf("expected error for key with spaces")
	}
}
