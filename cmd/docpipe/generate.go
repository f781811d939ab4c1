// cmd/docpipe/generate.go
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/docpipe/docpipe/internal/approval"
	"github.com/docpipe/docpipe/internal/audit"
	"github.com/docpipe/docpipe/internal/config"
	"github.com/docpipe/docpipe/internal/gate"
	"github.com/docpipe/docpipe/internal/generate"
	"github.com/docpipe/docpipe/internal/gitsource"
	"github.com/docpipe/docpipe/internal/pipeline"
	"github.com/docpipe/docpipe/internal/provider"
	"github.com/docpipe/docpipe/internal/store"

	// Register providers via init() side effects.
	_ "github.com/docpipe/docpipe/internal/provider/anthropic"
	_ "github.com/docpipe/docpipe/internal/provider/ollama"
	_ "github.com/docpipe/docpipe/internal/provider/openai"
)

func generateCmd() *cobra.Command {
	var (
		outputFlag    string
		gitFlag       string
		approveFlag   bool
		thresholdFlag float64
		retriesFlag   int
	)

	cmd := &cobra.Command{
		Use:   "generate [path]",
		Short: "Generate documentation for a source tree",
		Long: `Scan a source tree (or a git URL with --git), extract its structure, and
generate quality-gated documentation: architecture, API reference, examples,
and a getting-started guide.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("threshold") {
				cfg.Pipeline.QualityThreshold = thresholdFlag
			}
			if cmd.Flags().Changed("max-retries") {
				cfg.Pipeline.MaxRetries = retriesFlag
			}
			if outputFlag != "" {
				cfg.Output.Dir = outputFlag
			}

			ctx := cmd.Context()

			var repoInfo *gitsource.RepoInfo
			if gitFlag != "" {
				cloned, cleanup, err := gitsource.Clone(ctx, gitFlag)
				if err != nil {
					return err
				}
				defer cleanup()
				dir = cloned

				if owner, repo, ok := gitsource.ParseGitHubRepo(gitFlag); ok {
					repoInfo, err = gitsource.FetchRepoInfo(ctx, githubToken(cfg), owner, repo)
					if err != nil {
						log.Printf("docpipe: WARNING: github metadata: %v", err)
					}
				}
			}

			p, err := provider.NewProvider(cfg)
			if err != nil {
				return fmt.Errorf("creating provider: %w", err)
			}
			llm := generate.NewCollaborator(p, generate.CollaboratorOptions{
				Model:             cfg.Provider.Model,
				Timeout:           time.Duration(cfg.Pipeline.StageTimeoutSecs) * time.Second,
				RequestsPerMinute: cfg.Pipeline.RequestsPerMinute,
			})

			s, err := store.Open(cfg.Store.Path)
			if err != nil {
				return fmt.Errorf("opening store: %w", err)
			}
			defer s.Close()

			var sink audit.Sink = audit.NopSink{}
			if cfg.Audit.PostgresDSN != "" {
				pg, err := audit.NewPostgresSink(ctx, cfg.Audit.PostgresDSN)
				if err != nil {
					log.Printf("docpipe: WARNING: audit sink unavailable: %v", err)
				} else {
					sink = pg
					defer pg.Close(ctx)
				}
			}

			var approver pipeline.Approver
			if approveFlag && approval.Interactive() {
				approver = &approval.TerminalReviewer{}
			}

			orch := pipeline.New(pipeline.Options{
				Store:        s,
				Collaborator: llm,
				Evaluator:    gate.NewEvaluator(llm),
				Config:       cfg.Pipeline,
				Approver:     approver,
				Audit:        sink,
				OutputDir:    cfg.Output.Dir,
			})

			res, err := orch.Run(ctx, dir)
			if err != nil {
				return err
			}

			if repoInfo != nil {
				fmt.Printf("Source: %s (%d stars)\n", repoInfo.FullName, repoInfo.Stars)
			}
			fmt.Printf("Run %s finished: %s (score %.1f/10)\n", res.RunID, res.State, res.Evaluation.Score)
			fmt.Printf("Documentation written to %s\n", res.OutputDir)
			if res.State == gate.StateRejected {
				fmt.Println("The document stayed below the quality threshold; review it before publishing.")
				for _, reason := range res.Evaluation.Reasons {
					fmt.Printf("- %s\n", reason)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outputFlag, "output", "", "output directory (default from config)")
	cmd.Flags().StringVar(&gitFlag, "git", "", "clone and document a git URL instead of a local path")
	cmd.Flags().BoolVar(&approveFlag, "approve", false, "review the document interactively before saving")
	cmd.Flags().Float64Var(&thresholdFlag, "threshold", 7.0, "minimum accepted evaluation score")
	cmd.Flags().IntVar(&retriesFlag, "max-retries", 2, "generation retries after a failed evaluation")

	return cmd
}

// githubToken resolves the GitHub API token from config or environment.
func githubToken(cfg *config.Config) string {
	if cfg.GitHub.Token != "" {
		return cfg.GitHub.Token
	}
	if cfg.GitHub.TokenSource == "" || cfg.GitHub.TokenSource == "env" {
		return os.Getenv("GITHUB_TOKEN")
	}
	return os.Getenv(cfg.GitHub.TokenSource)
}
