package main

import (
	"testing"

	"github.com/docpipe/docpipe/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestVersionString(t *testing.T) {
	assert.Contains(t, versionString(), "docpipe dev")
}

func TestGithubToken(t *testing.T) {
	cfg := config.DefaultConfig()

	cfg.GitHub.Token = "inline-token"
	assert.Equal(t, "inline-token", githubToken(cfg))

	cfg.GitHub.Token = ""
	cfg.GitHub.TokenSource = "env"
	t.Setenv("GITHUB_TOKEN", "env-token")
	assert.Equal(t, "env-token", githubToken(cfg))

	cfg.GitHub.TokenSource = "MY_GH_TOKEN"
	t.Setenv("MY_GH_TOKEN", "custom-token")
	assert.Equal(t, "custom-token", githubToken(cfg))
}
