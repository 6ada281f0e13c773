package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print sections as other sessions advance their versions",
		Long: `Subscribes to version notifications for the resume and prints each section whose
current version advances, for example while a tailoring run started elsewhere
records its results. With --document the file itself is watched for changes made
by other processes; with --db-url, --redis-addr is required. Stop with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()
			if a.memory == nil && a.cfg.RedisAddr == "" {
				return fmt.Errorf("REDIS_ADDR environment variable or --redis-addr flag is required with --db-url")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			ws, err := a.workspace(ctx, nil)
			if err != nil {
				return err
			}
			events, cancel, err := a.bus.Subscribe(ctx, ws.ResumeID())
			if err != nil {
				return err
			}
			defer cancel()

			if a.memory != nil {
				done, err := a.memory.WatchFile(ctx, a.cfg.Document)
				if err != nil {
					return err
				}
				defer func() {
					stop()
					<-done
				}()
			}

			fmt.Fprintf(a.out, "Watching resume %s\n", ws.ResumeID())
			for {
				select {
				case <-ctx.Done():
					return nil
				case ev, ok := <-events:
					if !ok {
						return nil
					}
					fmt.Fprintf(a.out, "%s: %s is now v%d (%s)\n",
						ev.At.Format("15:04:05"), ev.Section, ev.Version, ev.Reason)
					c, err := ws.Section(ctx, ev.Section)
					if err != nil {
						fmt.Fprintf(a.out, "  cannot show %s: %v\n", ev.Section, err)
						continue
					}
					if err := a.printSection(ctx, c); err != nil {
						fmt.Fprintf(a.out, "  cannot show %s: %v\n", ev.Section, err)
					}
				}
			}
		},
	}
}
