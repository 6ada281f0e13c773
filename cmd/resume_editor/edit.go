package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/resume-editor/internal/editor"
	"github.com/jonathan/resume-editor/internal/types"
	"github.com/spf13/cobra"
)

// editRequest is everything one edit invocation changes, applied in field order
type editRequest struct {
	add          bool
	remove       int
	addBullet    []string
	removeBullet []string
	sets         []string
}

func (r editRequest) empty() bool {
	return !r.add && r.remove < 0 && len(r.addBullet) == 0 && len(r.removeBullet) == 0 && len(r.sets) == 0
}

func newEditCmd(opts *rootOptions) *cobra.Command {
	req := editRequest{}
	cmd := &cobra.Command{
		Use:   "edit <section>",
		Short: "Edit the current version of a section",
		Long: `Opens the section for editing, applies the requested changes to an edit buffer and
commits them as the section's current value. Nothing is saved if any change is rejected.

Field addresses:
  content              text sections
  email                structured sections (any field name)
  2                    entry 2 of a simple list
  2.company            field of entry 2 of a list section
  2.bullets            all bullets of entry 2, as a JSON array: '2.bullets=["a","b"]'
  2.bullets.0          one bullet of entry 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.empty() {
				return fmt.Errorf("nothing to edit: use --set, --add, --remove, --add-bullet or --remove-bullet")
			}
			return withWorkspace(cmd, opts, true, func(ctx context.Context, a *app, ws *editor.Workspace) error {
				c, err := ws.Section(ctx, types.SectionKey(args[0]))
				if err != nil {
					return err
				}
				if err := applyEdit(ctx, ws, c, req); err != nil {
					return err
				}
				return a.printSection(ctx, c)
			})
		},
	}

	cmd.Flags().StringArrayVar(&req.sets, "set", nil, "Set a field: ADDR=VALUE (repeatable)")
	cmd.Flags().BoolVar(&req.add, "add", false, "Append an empty entry to a list section")
	cmd.Flags().IntVar(&req.remove, "remove", -1, "Remove the entry at this index")
	cmd.Flags().StringArrayVar(&req.addBullet, "add-bullet", nil, "Append a bullet: ITEM=TEXT (repeatable)")
	cmd.Flags().StringArrayVar(&req.removeBullet, "remove-bullet", nil, "Remove a bullet: ITEM.BULLET (repeatable)")
	return cmd
}

// applyEdit runs one edit session on c; any failure discards the buffer
func applyEdit(ctx context.Context, ws *editor.Workspace, c editor.Controller, req editRequest) (err error) {
	if err := c.BeginEdit(ctx); err != nil {
		return err
	}
	defer func() {
		if err != nil {
			c.Discard()
		}
	}()

	if err := applyEntryChanges(ctx, ws, c, req); err != nil {
		return err
	}
	for _, assignment := range req.sets {
		if err := applyAssignment(ctx, ws, c, assignment); err != nil {
			return err
		}
	}
	_, err = c.Commit(ctx)
	return err
}

// applyEntryChanges adds and removes entries and bullets of list sections
func applyEntryChanges(ctx context.Context, ws *editor.Workspace, c editor.Controller, req editRequest) error {
	if !req.add && req.remove < 0 && len(req.addBullet) == 0 && len(req.removeBullet) == 0 {
		return nil
	}
	switch c.Variant() {
	case types.VariantList:
		e, err := ws.List(ctx, c.Key())
		if err != nil {
			return err
		}
		return e.Update(func(items []types.Item) ([]types.Item, error) {
			var err error
			if req.remove >= 0 {
				if items, err = editor.RemoveItem(items, req.remove); err != nil {
					return nil, err
				}
			}
			if req.add {
				items = editor.AddItem(items, types.Item{Bullets: []string{""}})
			}
			for _, spec := range req.addBullet {
				addr, text, ok := strings.Cut(spec, "=")
				if !ok || addr == "" {
					return nil, fmt.Errorf("invalid --add-bullet %q: expected ITEM=TEXT", spec)
				}
				i, err := parseIndex("item", addr)
				if err != nil {
					return nil, err
				}
				if items, err = editor.AddBullet(items, i, text); err != nil {
					return nil, err
				}
			}
			for _, spec := range req.removeBullet {
				i, b, ok := parseBulletAddr(bulletSpec(spec))
				if !ok {
					return nil, fmt.Errorf("invalid --remove-bullet %q: expected ITEM.BULLET", spec)
				}
				if items, err = editor.RemoveBullet(items, i, b); err != nil {
					return nil, err
				}
			}
			return items, nil
		})
	case types.VariantSimpleList:
		if len(req.addBullet) > 0 || len(req.removeBullet) > 0 {
			return fmt.Errorf("section %s has no bullets", c.Key())
		}
		e, err := ws.SimpleList(ctx, c.Key())
		if err != nil {
			return err
		}
		return e.Update(func(ss []string) ([]string, error) {
			var err error
			if req.remove >= 0 {
				if ss, err = editor.RemoveString(ss, req.remove); err != nil {
					return nil, err
				}
			}
			if req.add {
				ss = editor.AddString(ss, "")
			}
			return ss, nil
		})
	default:
		return fmt.Errorf("section %s is a %s section and has no entries", c.Key(), c.Variant())
	}
}

// applyAssignment sets one field; "N.bullets.B" goes through the bullet helpers
func applyAssignment(ctx context.Context, ws *editor.Workspace, c editor.Controller, assignment string) error {
	addrText, value, err := parseAssignment(assignment)
	if err != nil {
		return err
	}

	if i, b, ok := parseBulletAddr(addrText); ok && c.Variant() == types.VariantList {
		text, isText := value.(string)
		if !isText {
			return fmt.Errorf("bullet %s takes a single string", addrText)
		}
		e, err := ws.List(ctx, c.Key())
		if err != nil {
			return err
		}
		return e.Update(func(items []types.Item) ([]types.Item, error) {
			return editor.SetBullet(items, i, b, text)
		})
	}

	addr, err := parseFieldAddr(addrText)
	if err != nil {
		return err
	}
	return c.SetField(addr, value)
}

// bulletSpec expands "ITEM.BULLET" to the "ITEM.bullets.BULLET" address form
func bulletSpec(spec string) string {
	item, bullet, ok := strings.Cut(spec, ".")
	if !ok {
		return spec
	}
	return item + ".bullets." + bullet
}
