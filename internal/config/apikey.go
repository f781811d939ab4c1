package config

import (
	"fmt"
	"os"
)

// ResolveAPIKey returns the credential for a provider. source selects where
// to look: "env" reads envVar, "config" uses the inline api_key value, and
// "keyring" resolves through the environment (OS keychains are not wired).
// An empty source prefers the inline value and falls back to the
// environment, so a minimal config works without naming a source.
func ResolveAPIKey(source, configValue, envVar string) (string, error) {
	switch source {
	case "":
		if configValue != "" {
			return configValue, nil
		}
		return envValue(envVar)
	case "env", "keyring":
		return envValue(envVar)
	case "config":
		if configValue == "" {
			return "", fmt.Errorf("api_key_source is %q but api_key is empty", source)
		}
		return configValue, nil
	default:
		return "", fmt.Errorf("unsupported api_key_source %q (want env, config, or keyring)", source)
	}
}

func envValue(envVar string) (string, error) {
	if envVar == "" {
		return "", fmt.Errorf("no environment variable named for the API key")
	}
	v := os.Getenv(envVar)
	if v == "" {
		return "", fmt.Errorf("environment variable %s is empty", envVar)
	}
	return v, nil
}
