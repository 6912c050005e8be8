package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/friendsync/friendsync/internal/config"
	"github.com/friendsync/friendsync/internal/logging"
	"github.com/friendsync/friendsync/internal/store"
	"github.com/friendsync/friendsync/internal/syncer"
	"github.com/friendsync/friendsync/internal/ui"
)

// cfg is loaded once before any command runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "friendsync",
	Short: "Local-first client core for the FriendSync social calendar",
	Long: `friendsync manages the local FriendSync data store and keeps it in
sync with the remote API.

The store lives in the data directory (FRIENDSYNC_DATA_DIR, default
~/.friendsync) as an embedded SQLite database, falling back to a
single-document JSON store on platforms without SQLite support.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	},
}

// fatalf prints a styled error to stderr and exits.
func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", ui.RenderError("Error:"), fmt.Sprintf(format, args...))
	os.Exit(1)
}

// openStore builds the local store from the loaded configuration.
func openStore() *store.Store {
	return store.New(store.Config{
		DataDir:       cfg.DataDir,
		ForceFallback: cfg.ForceFallback,
	}, logging.New("store", logging.Writer(cfg.LogFile)))
}

// newSyncer builds the sync engine over st.
func newSyncer(st *store.Store) syncer.Syncer {
	client := syncer.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout, logging.New("api", logging.Writer(cfg.LogFile)))
	if cfg.APIToken != "" {
		client.SetToken(cfg.APIToken)
	}
	return syncer.New(st, client, logging.New("sync", logging.Writer(cfg.LogFile)))
}
