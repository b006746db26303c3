package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCredentialsFlagsWin(t *testing.T) {
	t.Setenv(EnvUser, "env-user")
	t.Setenv(EnvPass, "env-pass")

	creds := LoadCredentials(filepath.Join(t.TempDir(), "absent.env"), "flag-user", "flag-pass")
	if creds.Username != "flag-user" || creds.Password != "flag-pass" {
		t.Fatalf("flags must win: %+v", creds)
	}
}

func TestLoadCredentialsEnvBeatsEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envFile, []byte("SLSK_USER=file-user\nSLSK_PASS=file-pass\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvUser, "env-user")
	t.Setenv(EnvPass, "")

	creds := LoadCredentials(envFile, "", "")
	if creds.Username != "env-user" {
		t.Fatalf("environment must beat the env file: %+v", creds)
	}
}

func TestLoadCredentialsFallsBackToEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envFile, []byte("SLSK_USER=file-user\nSLSK_PASS=file-pass\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// t.Setenv registers the restore; unset so the file value is consulted.
	t.Setenv(EnvUser, "placeholder")
	t.Setenv(EnvPass, "placeholder")
	if err := os.Unsetenv(EnvUser); err != nil {
		t.Fatal(err)
	}
	if err := os.Unsetenv(EnvPass); err != nil {
		t.Fatal(err)
	}

	creds := LoadCredentials(envFile, "", "")
	if creds.Username != "file-user" || creds.Password != "file-pass" {
		t.Fatalf("env file fallback failed: %+v", creds)
	}
}

func TestLoadCredentialsMissingEnvFileIsFine(t *testing.T) {
	t.Setenv(EnvUser, "placeholder")
	t.Setenv(EnvPass, "placeholder")
	if err := os.Unsetenv(EnvUser); err != nil {
		t.Fatal(err)
	}
	if err := os.Unsetenv(EnvPass); err != nil {
		t.Fatal(err)
	}

	creds := LoadCredentials(filepath.Join(t.TempDir(), "nope.env"), "", "")
	if creds.Username != "" || creds.Password != "" {
		t.Fatalf("expected empty credentials, got %+v", creds)
	}
}
