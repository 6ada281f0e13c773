package main

import (
	"context"
	"fmt"

	"github.com/jonathan/resume-editor/internal/editor"
	"github.com/jonathan/resume-editor/internal/types"
	"github.com/spf13/cobra"
)

func newMoveSectionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "move-section <from> <to>",
		Short: "Change the position of a section in the resume",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseIndex("from", args[0])
			if err != nil {
				return err
			}
			to, err := parseIndex("to", args[1])
			if err != nil {
				return err
			}
			return withWorkspace(cmd, opts, true, func(ctx context.Context, a *app, ws *editor.Workspace) error {
				order, err := ws.MoveSection(ctx, from, to)
				if err != nil {
					return err
				}
				for i, key := range order {
					fmt.Fprintf(a.out, "%d. %s\n", i, key)
				}
				return nil
			})
		},
	}
}

func newCustomCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "custom",
		Short: "Add or remove user-defined sections",
	}
	cmd.AddCommand(newCustomAddCmd(opts), newCustomRemoveCmd(opts))
	return cmd
}

func newCustomAddCmd(opts *rootOptions) *cobra.Command {
	var contentType string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a custom section at the end of the resume",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tmpl, err := types.NewCustomTemplate(types.Variant(contentType))
			if err != nil {
				return err
			}
			return withWorkspace(cmd, opts, true, func(ctx context.Context, a *app, ws *editor.Workspace) error {
				key, err := ws.AddCustomSection(ctx, args[0], tmpl)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Added section %q as %s\n", args[0], key)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&contentType, "type", "t", string(types.VariantList), "Content type: text, list or simple_list")
	return cmd
}

func newCustomRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <section>",
		Short: "Delete a custom section and its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd, opts, true, func(ctx context.Context, a *app, ws *editor.Workspace) error {
				if err := ws.RemoveCustomSection(ctx, types.SectionKey(args[0])); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Removed section %s\n", args[0])
				return nil
			})
		},
	}
}
