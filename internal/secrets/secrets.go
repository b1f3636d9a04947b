// Package secrets resolves credentials from files, config values or the environment.
package secrets

import (
	"fmt"
	"os"
	"strings"
)

const maskKeep = 4

// Source describes where a secret may come from. The first non-empty
// location wins, in the order File, Value, Env.
type Source struct {
	// Name is used in error messages.
	Name string
	// File points to a file holding the secret.
	File string
	// Value is an inline secret from configuration or flags.
	Value string
	// Env is the name of an environment variable holding the secret.
	Env string
}

// Load returns the trimmed secret. An unreadable or empty file is an error
// and does not fall through to the other locations.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	if file := strings.TrimSpace(src.File); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		secret := strings.TrimSpace(string(data))
		if secret == "" {
			return "", fmt.Errorf("%s file %q is empty", name, file)
		}
		return secret, nil
	}

	if secret := strings.TrimSpace(src.Value); secret != "" {
		return secret, nil
	}

	if env := strings.TrimSpace(src.Env); env != "" {
		if secret := strings.TrimSpace(os.Getenv(env)); secret != "" {
			return secret, nil
		}
		return "", fmt.Errorf("%s is not configured (%s is empty)", name, env)
	}

	return "", fmt.Errorf("%s is not configured", name)
}

// Mask hides everything but the last characters of a secret for logging.
func Mask(secret string) string {
	if len(secret) <= maskKeep*2 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", len(secret)-maskKeep) + secret[len(secret)-maskKeep:]
}
