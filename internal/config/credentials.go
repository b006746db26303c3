// Package config resolves the peer-network credentials a run needs.
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvUser = "SLSK_USER"
	EnvPass = "SLSK_PASS"

	defaultEnvFile = ".env"
)

type Credentials struct {
	Username string
	Password string
}

// LoadCredentials resolves credentials in order: explicit flags, process
// environment, then an env file. A missing env file is fine; secrets on the
// command line are a choice, not a requirement.
func LoadCredentials(envFile, flagUser, flagPass string) Credentials {
	if strings.TrimSpace(envFile) == "" {
		envFile = defaultEnvFile
	}
	// godotenv never overrides variables already set in the environment,
	// which is exactly the precedence we want.
	_ = godotenv.Load(envFile)

	return Credentials{
		Username: firstNonEmpty(flagUser, os.Getenv(EnvUser)),
		Password: firstNonEmpty(flagPass, os.Getenv(EnvPass)),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
