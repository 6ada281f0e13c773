package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/jonathan/resume-editor/internal/config"
	"github.com/jonathan/resume-editor/internal/db"
	"github.com/jonathan/resume-editor/internal/editor"
	"github.com/jonathan/resume-editor/internal/notify"
	"github.com/jonathan/resume-editor/internal/observability"
	"github.com/jonathan/resume-editor/internal/progress"
	"github.com/jonathan/resume-editor/internal/session"
	"github.com/jonathan/resume-editor/internal/store"
	"github.com/jonathan/resume-editor/internal/types"
	"github.com/spf13/cobra"
)

// app is the wiring behind one command invocation
type app struct {
	cfg     config.Config
	out     io.Writer
	printer *observability.Printer

	store    store.DocumentStore
	memory   *store.Memory // local mode only
	database *db.DB
	bus      notify.Bus
	session  *session.Provider
	resumeID uuid.UUID

	ws *editor.Workspace
}

// openApp resolves configuration and connects the document store, the
// notification bus and, when a token is configured, the session
func openApp(cmd *cobra.Command, opts *rootOptions) (*app, error) {
	ctx := cmd.Context()
	cfg, err := opts.resolve()
	if err != nil {
		return nil, err
	}

	if cfg.Verbose {
		log.SetOutput(cmd.ErrOrStderr())
	} else {
		log.SetOutput(io.Discard)
	}

	a := &app{
		cfg:     cfg,
		out:     cmd.OutOrStdout(),
		printer: observability.NewPrinter(cmd.OutOrStdout()),
	}

	if cfg.RedisAddr != "" {
		bus, err := notify.NewRedis(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, err
		}
		a.bus = bus
	} else {
		a.bus = notify.NewLocal()
	}

	if err := a.openStore(ctx); err != nil {
		a.Close()
		return nil, err
	}

	if cfg.Token != "" {
		jwtCfg, err := config.NewJWTConfig()
		if err != nil {
			a.Close()
			return nil, err
		}
		a.session = session.NewProvider(session.NewTokenService(jwtCfg))
		if _, err := a.session.Init(cfg.Token); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	switch {
	case a.cfg.Document != "":
		a.memory = store.NewMemory(a.bus)
		a.store = a.memory
		if _, err := os.Stat(a.cfg.Document); errors.Is(err, os.ErrNotExist) {
			// resume_editor new creates it
			return nil
		}
		id, err := a.memory.LoadFile(a.cfg.Document)
		if err != nil {
			return err
		}
		if a.cfg.ResumeID != "" && a.cfg.ResumeID != id.String() {
			return fmt.Errorf("document %s holds resume %s, not %s", a.cfg.Document, id, a.cfg.ResumeID)
		}
		a.resumeID = id
	case a.cfg.DatabaseURL != "":
		database, err := db.Connect(ctx, a.cfg.DatabaseURL, a.bus)
		if err != nil {
			return err
		}
		a.database = database
		a.store = database
		if err := database.Migrate(ctx); err != nil {
			return err
		}
		if a.cfg.ResumeID != "" {
			id, err := uuid.Parse(a.cfg.ResumeID)
			if err != nil {
				return fmt.Errorf("invalid resume ID: %w", err)
			}
			a.resumeID = id
		}
	default:
		return fmt.Errorf("either --document or --db-url must be provided")
	}
	return nil
}

// workspace opens the editor workspace on the selected resume
func (a *app) workspace(ctx context.Context, onMessage func(msg types.ProgressMessage, displayed bool)) (*editor.Workspace, error) {
	if a.resumeID == uuid.Nil {
		if a.memory != nil {
			return nil, fmt.Errorf("document %s does not exist; create it with 'resume_editor new'", a.cfg.Document)
		}
		return nil, fmt.Errorf("--resume is required with --db-url")
	}
	idle, err := a.cfg.IdleTimeout()
	if err != nil {
		return nil, err
	}

	deps := editor.Deps{Store: a.store, Bus: a.bus}
	if a.session != nil {
		deps.Session = a.session
	}
	ws, err := editor.NewWorkspace(ctx, a.resumeID, deps, editor.Options{
		Strict: a.cfg.Strict,
		Progress: progress.Options{
			IdleTimeout: idle,
			OnMessage:   onMessage,
		},
	})
	if err != nil {
		return nil, err
	}
	a.ws = ws
	return ws, nil
}

// persist writes the local document back after a mutation
func (a *app) persist() error {
	if a.memory == nil || a.resumeID == uuid.Nil {
		return nil
	}
	return a.memory.SaveFile(a.cfg.Document, a.resumeID)
}

// Close releases everything openApp acquired
func (a *app) Close() {
	if a.ws != nil {
		_ = a.ws.Close()
	}
	if a.session != nil {
		a.session.Teardown()
	}
	if a.database != nil {
		a.database.Close()
	}
	if a.bus != nil {
		_ = a.bus.Close()
	}
}
