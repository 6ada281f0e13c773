package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/jonathan/resume-editor/internal/progress"
	"github.com/jonathan/resume-editor/internal/tailor"
	"github.com/jonathan/resume-editor/internal/types"
	"github.com/spf13/cobra"
)

func newTailorCmd(opts *rootOptions) *cobra.Command {
	var (
		req      tailor.Request
		jobFile  string
		showAll  bool
		sections []string
	)
	cmd := &cobra.Command{
		Use:   "tailor",
		Short: "Tailor the resume to a job posting and record the results as new versions",
		Long: `Starts a tailoring run on the backend and follows its progress. Each section the
backend updates becomes a new version, so the previous content stays in history.
Editing is refused while the run is in progress. Interrupting the command fails the run.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if jobFile != "" {
				data, err := os.ReadFile(jobFile)
				if err != nil {
					return fmt.Errorf("failed to read job file: %w", err)
				}
				req.JobDescription = strings.TrimSpace(string(data))
			}
			for _, key := range sections {
				req.Sections = append(req.Sections, types.SectionKey(key))
			}
			if err := req.Validate(); err != nil {
				return fmt.Errorf("either --job or --job-url must be provided")
			}

			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()
			if a.cfg.BackendURL == "" {
				return fmt.Errorf("TAILOR_BACKEND_URL environment variable or --backend-url flag is required")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			onMessage := func(msg types.ProgressMessage, displayed bool) {
				if displayed || showAll {
					a.printer.PrintMessage(msg)
				}
			}
			ws, err := a.workspace(ctx, onMessage)
			if err != nil {
				return err
			}

			client := tailor.NewClient(a.cfg.BackendURL, a.cfg.Token, tailor.Transport(a.cfg.Transport))
			stream, err := client.Start(ctx, ws.ResumeID(), req)
			if err != nil {
				return err
			}

			state, runErr := ws.RunTailoring(ctx, stream)
			// Versions recorded before a failure are kept
			if err := a.persist(); err != nil {
				return err
			}
			if a.cfg.Verbose {
				a.printer.PrintProgress(ws.Progress())
			}
			if runErr != nil {
				return runErr
			}
			if state != progress.StateSucceeded {
				final, _ := ws.Progress().Final()
				return fmt.Errorf("tailoring failed: %s", final.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&jobFile, "job", "j", "", "Path to job posting text file (mutually exclusive with --job-url)")
	cmd.Flags().StringVar(&req.JobURL, "job-url", "", "URL of the job posting (mutually exclusive with --job)")
	cmd.Flags().StringVarP(&req.Company, "company", "c", "", "Company name")
	cmd.Flags().StringSliceVar(&sections, "sections", nil, "Limit tailoring to these sections (default: all)")
	cmd.Flags().BoolVar(&showAll, "all", false, "Print every progress message, including setup and background steps")
	cmd.MarkFlagsMutuallyExclusive("job", "job-url")
	return cmd
}

