package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/resume-editor/internal/editor"
	"github.com/jonathan/resume-editor/internal/session"
	"github.com/spf13/cobra"
)

func newProjectsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List the resumes owned by the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()
			if a.session == nil {
				return fmt.Errorf("%w: RESUME_EDITOR_TOKEN environment variable or --token flag is required", session.ErrNoSession)
			}

			resumes, err := editor.ListProjects(cmd.Context(), a.store, a.session)
			if err != nil {
				return err
			}
			a.printer.PrintProjects(resumes)
			return nil
		},
	}
}

func newNewCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "new <title>",
		Short: "Create an empty resume",
		Long:  "With --document the resume is written to a new local file; with --db-url it is owned by the signed-in user.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.memory != nil && a.resumeID != uuid.Nil {
				return fmt.Errorf("document %s already exists", a.cfg.Document)
			}

			owner := uuid.Nil
			if a.session != nil {
				if current, ok := a.session.Current(); ok {
					owner = current.UserID
				}
			}
			if owner == uuid.Nil && a.database != nil {
				return fmt.Errorf("%w: a session token is required to create a resume in the database", session.ErrNoSession)
			}

			doc, err := a.store.CreateResume(cmd.Context(), owner, args[0])
			if err != nil {
				return err
			}
			a.resumeID = doc.ID
			if err := a.persist(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Created resume %s (%s)\n", doc.ID, doc.Title)
			return nil
		},
	}
}
