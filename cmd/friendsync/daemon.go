package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/friendsync/friendsync/internal/daemon"
	"github.com/friendsync/friendsync/internal/dashboard"
	"github.com/friendsync/friendsync/internal/logging"
)

// watcherQuietWindow is how long after a pass completes that store file
// events are still attributed to that pass's own writes.
const watcherQuietWindow = 2 * time.Second

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the auto-sync daemon until interrupted",
	Long: `Keep the local store in sync in the background.

The daemon:
  1. Runs one sync pass immediately
  2. Repeats the pass on the configured interval (FRIENDSYNC_SYNC_INTERVAL)
  3. Watches the data directory so external store writes trigger a refresh
  4. Optionally serves the WebSocket dashboard (FRIENDSYNC_DASHBOARD_ADDR)

Stop with Ctrl+C; an in-flight pass is allowed to finish.`,
	Run: func(cmd *cobra.Command, args []string) {
		userID, _ := cmd.Flags().GetInt64("user")
		if userID <= 0 {
			fatalf("--user is required")
		}

		st := openStore()
		defer st.Close()
		s := newSyncer(st)

		logWriter := logging.Writer(cfg.LogFile)

		auto := daemon.NewAutoSync(s, userID, &daemon.Config{
			Interval: cfg.SyncInterval,
			Logger:   logging.New("daemon", logWriter),
		})

		// Dashboard is opt-in: it only starts when an address is
		// configured.
		var srv *dashboard.Server
		var handler *dashboard.Handler
		if cfg.DashboardAddr != "" {
			srv = dashboard.NewServer(&dashboard.Config{
				Addr:   cfg.DashboardAddr,
				Logger: logging.New("dashboard", logWriter),
			})
			if err := srv.Start(); err != nil {
				fatalf("failed to start dashboard: %v", err)
			}
			defer srv.Stop()

			handler = dashboard.NewHandler(srv, st, logging.New("dashboard", logWriter))
			auto.OnPassComplete = func(d time.Duration, passErr error) {
				handler.OnSyncComplete(userID, d, passErr)
			}
			fmt.Printf("Dashboard: ws://%s/ws\n", srv.Addr())
		}

		watcher, err := daemon.NewStoreWatcher()
		if err != nil {
			fatalf("failed to create store watcher: %v", err)
		}
		if err := watcher.Start(cfg.DataDir); err != nil {
			// The data directory may not exist until the first store
			// write; the daemon still works without the watcher.
			fmt.Fprintf(os.Stderr, "Warning: store watcher disabled: %v\n", err)
			watcher = nil
		}

		auto.Start()
		defer auto.Stop()

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		fmt.Printf("Auto-sync running for user %d every %s. Press Ctrl+C to stop...\n",
			userID, cfg.SyncInterval)

		if watcher != nil {
			go func() {
				// Sync passes write the store files themselves, so only
				// trigger on events that land while the loop is idle and
				// outside the quiet window after a pass. That leaves
				// genuinely external writes (another process, the seed
				// command) as the only source of refreshes.
				for ev := range watcher.Events() {
					if handler != nil {
						handler.OnStoreChanged(ev)
					}
					auto.TriggerIfIdle(watcherQuietWindow)
				}
			}()
			defer watcher.Stop()
		}

		<-ctx.Done()
		fmt.Println("\nShutting down...")
	},
}

func init() {
	daemonCmd.Flags().Int64P("user", "u", 0, "User id to sync")
	rootCmd.AddCommand(daemonCmd)
}
