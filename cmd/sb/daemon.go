package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/zulandar/switchboard/internal/dashboard"
	"github.com/zulandar/switchboard/internal/registry"
)

func newDaemonCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the Switchboard daemon (status API, config watcher, maintenance)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, sb, err := buildSwitchboard(configPath)
			if err != nil {
				return err
			}
			log := daemonLogger(cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sched := cron.New()
			_, err = sched.AddFunc(fmt.Sprintf("@every %s", cfg.Maintenance.SweepInterval.Std()), func() {
				if n := sb.SweepDedup(); n > 0 {
					log.Debug().Int("evicted", n).Msg("dedup sweep")
				}
			})
			if err != nil {
				return fmt.Errorf("schedule dedup sweep: %w", err)
			}
			_, err = sched.AddFunc("@hourly", func() {
				n, err := sb.PruneInbox()
				if err != nil {
					log.Error().Err(err).Msg("inbox prune failed")
					return
				}
				if n > 0 {
					log.Info().Int64("pruned", n).Msg("inbox prune")
				}
			})
			if err != nil {
				return fmt.Errorf("schedule inbox prune: %w", err)
			}
			sched.Start()
			defer sched.Stop()

			// Hot-reload endpoint definitions when the config file changes.
			watcher := registry.NewWatcher(configPath, sb.Registry(), log)
			go func() {
				if err := watcher.Run(ctx); err != nil {
					log.Error().Err(err).Msg("config watcher stopped")
				}
			}()

			log.Info().
				Int("endpoints", len(sb.Registry().List())).
				Int("port", cfg.Dashboard.Port).
				Dur("dedup_ttl", sb.DedupTTL()).
				Msg("daemon starting")

			return dashboard.Start(ctx, dashboard.StartOpts{
				Switchboard: sb,
				Port:        cfg.Dashboard.Port,
				Out:         cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Switchboard config file")
	return cmd
}
