package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonathan/resume-editor/internal/editor"
	"github.com/jonathan/resume-editor/internal/types"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// withWorkspace opens the workspace for fn and writes a local document back when mutates is set
func withWorkspace(cmd *cobra.Command, opts *rootOptions, mutates bool, fn func(ctx context.Context, a *app, ws *editor.Workspace) error) error {
	a, err := openApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	ws, err := a.workspace(cmd.Context(), nil)
	if err != nil {
		return err
	}
	if err := fn(cmd.Context(), a, ws); err != nil {
		return err
	}
	if mutates {
		return a.persist()
	}
	return nil
}

// Output formats for display models
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func (a *app) printModels(models []*editor.DisplayModel, format string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(models)
	case formatYAML:
		data, err := yaml.Marshal(models)
		if err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		_, err = a.out.Write(data)
		return err
	case formatText, "":
		for _, m := range models {
			a.printer.PrintSection(m)
		}
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// addOutputFlags registers --output and its --json shorthand
func addOutputFlags(cmd *cobra.Command, format *string) {
	cmd.Flags().StringVarP(format, "output", "o", formatText, "Output format: text, json or yaml")
	cmd.Flags().Bool("json", false, "Shorthand for --output json")
}

// outputFormat resolves --output, letting --json override it
func outputFormat(cmd *cobra.Command, format string) string {
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return formatJSON
	}
	return format
}

// printSection renders one section after a command changed it
func (a *app) printSection(ctx context.Context, c editor.Controller) error {
	model, err := c.View(ctx)
	if err != nil {
		return err
	}
	a.printer.PrintSection(model)
	return nil
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show [section]",
		Short: "Show the resume, or one section, at its current version",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd, opts, false, func(ctx context.Context, a *app, ws *editor.Workspace) error {
				if len(args) == 0 {
					models, err := ws.Views(ctx)
					if err != nil {
						return err
					}
					return a.printModels(models, outputFormat(cmd, format))
				}
				c, err := ws.Section(ctx, types.SectionKey(args[0]))
				if err != nil {
					return err
				}
				model, err := c.View(ctx)
				if err != nil {
					return err
				}
				return a.printModels([]*editor.DisplayModel{model}, outputFormat(cmd, format))
			})
		},
	}
	addOutputFlags(cmd, &format)
	return cmd
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history <section>",
		Short: "List the stored versions of a section",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd, opts, false, func(ctx context.Context, a *app, ws *editor.Workspace) error {
				key := types.SectionKey(args[0])
				history, err := a.store.GetHistory(ctx, ws.ResumeID(), key)
				if err != nil {
					return err
				}
				a.printer.PrintHistory(key, history)
				return nil
			})
		},
	}
}

func newViewCmd(opts *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "view <section> <version>",
		Short: "Show a section as it was at a previous version",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := parseIndex("version", args[1])
			if err != nil {
				return err
			}
			return withWorkspace(cmd, opts, false, func(ctx context.Context, a *app, ws *editor.Workspace) error {
				c, err := ws.Section(ctx, types.SectionKey(args[0]))
				if err != nil {
					return err
				}
				if err := c.SelectVersion(ctx, version); err != nil {
					return err
				}
				model, err := c.View(ctx)
				if err != nil {
					return err
				}
				return a.printModels([]*editor.DisplayModel{model}, outputFormat(cmd, format))
			})
		},
	}
	addOutputFlags(cmd, &format)
	return cmd
}

func newRestoreCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <section> <version>",
		Short: "Make a previous version of a section current",
		Long:  "Restoring keeps the replaced value in history, so a restore can itself be undone.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := parseIndex("version", args[1])
			if err != nil {
				return err
			}
			return withWorkspace(cmd, opts, true, func(ctx context.Context, a *app, ws *editor.Workspace) error {
				c, err := ws.Section(ctx, types.SectionKey(args[0]))
				if err != nil {
					return err
				}
				if err := c.Restore(ctx, version); err != nil {
					return err
				}
				return a.printSection(ctx, c)
			})
		},
	}
}

func newReorderCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <section> <from> <to>",
		Short: "Move one entry of a list section",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseIndex("from", args[1])
			if err != nil {
				return err
			}
			to, err := parseIndex("to", args[2])
			if err != nil {
				return err
			}
			return withWorkspace(cmd, opts, true, func(ctx context.Context, a *app, ws *editor.Workspace) error {
				c, err := ws.Section(ctx, types.SectionKey(args[0]))
				if err != nil {
					return err
				}
				if err := c.Reorder(ctx, from, to); err != nil {
					return err
				}
				return a.printSection(ctx, c)
			})
		},
	}
}
