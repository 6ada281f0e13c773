package main

import (
	"fmt"

	"github.com/jonathan/resume-editor/internal/config"
	"github.com/spf13/cobra"
)

// rootOptions holds the persistent flags shared by every subcommand
type rootOptions struct {
	configPath string
	flags      config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "resume_editor",
		Short: "Edit resume sections with version history and tailoring",
		Long: `resume_editor edits the sections of a resume one at a time. Every section keeps
its version history: tailoring runs and restores create new versions, and any
previous version can be viewed or restored.

Resumes live either in a local JSON document (--document) or in PostgreSQL (--db-url).
Configuration can be loaded from a JSON or YAML file using --config and from the environment
(.env is read if present). Command-line flags override both.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Path to a JSON or YAML config file (values can be overridden by other flags)")
	pf.StringVarP(&opts.flags.Document, "document", "d", "", "Path to a local resume document (mutually exclusive with --db-url)")
	pf.StringVar(&opts.flags.DatabaseURL, "db-url", "", "PostgreSQL connection URL (defaults to DATABASE_URL env var)")
	pf.StringVarP(&opts.flags.ResumeID, "resume", "r", "", "Resume ID (required with --db-url)")
	pf.StringVar(&opts.flags.RedisAddr, "redis-addr", "", "Redis address for version notifications (defaults to REDIS_ADDR env var)")
	pf.StringVar(&opts.flags.BackendURL, "backend-url", "", "Tailoring backend URL (defaults to TAILOR_BACKEND_URL env var)")
	pf.StringVar(&opts.flags.Transport, "transport", "", "Progress transport: sse or websocket")
	pf.StringVar(&opts.flags.Token, "token", "", "Session token (defaults to RESUME_EDITOR_TOKEN env var)")
	pf.StringVar(&opts.flags.StreamIdleTimeout, "idle-timeout", "", "Fail a tailoring run after this long without progress (0 disables)")
	pf.BoolVarP(&opts.flags.Verbose, "verbose", "v", false, "Print detailed debug information")
	pf.BoolVar(&opts.flags.Strict, "strict", false, "Panic on refused editor actions (development)")

	cmd.AddCommand(
		newShowCmd(opts),
		newHistoryCmd(opts),
		newViewCmd(opts),
		newEditCmd(opts),
		newRestoreCmd(opts),
		newReorderCmd(opts),
		newMoveSectionCmd(opts),
		newCustomCmd(opts),
		newTailorCmd(opts),
		newWatchCmd(opts),
		newProjectsCmd(opts),
		newNewCmd(opts),
	)
	return cmd
}

// resolve merges flags over the config file over the environment
func (o *rootOptions) resolve() (config.Config, error) {
	cfg := o.flags
	if o.configPath != "" {
		loaded, err := config.LoadConfig(o.configPath)
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to load config: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return config.Config{}, err
		}
		cfg = cfg.MergeWithDefaults(*loaded)
	}
	cfg = cfg.MergeWithDefaults(config.FromEnv())

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
