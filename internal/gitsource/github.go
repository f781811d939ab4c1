package gitsource

import (
	"context"
	"fmt"

	"github.com/google/go-github/v68/github"
)

// RepoInfo is the subset of GitHub repository metadata attached to the
// output bundle when documenting a cloned repository.
type RepoInfo struct {
	FullName      string `json:"fullName"`
	Description   string `json:"description,omitempty"`
	DefaultBranch string `json:"defaultBranch,omitempty"`
	Language      string `json:"language,omitempty"`
	Stars         int    `json:"stars"`
}

// FetchRepoInfo looks the repository up on the GitHub API. token may be
// empty for public repos.
func FetchRepoInfo(ctx context.Context, token, owner, repo string) (*RepoInfo, error) {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}

	r, _, err := client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("fetching %s/%s metadata: %w", owner, repo, err)
	}
	return &RepoInfo{
		FullName:      r.GetFullName(),
		Description:   r.GetDescription(),
		DefaultBranch: r.GetDefaultBranch(),
		Language:      r.GetLanguage(),
		Stars:         r.GetStargazersCount(),
	}, nil
}
