package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/friendsync/friendsync/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one sync pass against the remote API",
	Long: `Fetch the user's remote state and reconcile it into the local store.

One pass pulls six resources (profile, events, friends, rsvps,
notifications, preferences) concurrently and applies each with its
reconciliation policy. A failing endpoint degrades that resource to its
empty default; the rest still apply.`,
	Run: func(cmd *cobra.Command, args []string) {
		userID, _ := cmd.Flags().GetInt64("user")
		if userID <= 0 {
			fatalf("--user is required")
		}

		st := openStore()
		defer st.Close()
		s := newSyncer(st)

		fmt.Printf("%s Syncing user %d from %s...\n", ui.RenderAccent("~"), userID, cfg.APIBaseURL)
		start := time.Now()

		if err := s.FullSync(context.Background(), userID); err != nil {
			fatalf("sync failed: %v", err)
		}

		elapsed := time.Since(start)
		counts, _ := st.Counts(context.Background())

		fmt.Printf("%s Sync complete in %v\n", ui.RenderPass("ok"), elapsed.Round(time.Millisecond))
		fmt.Printf("   Engine: %s\n", st.Status().Mode)
		fmt.Printf("   Events: %d\n", counts["events"])
		fmt.Printf("   Friendships: %d\n", counts["friends"])
		fmt.Printf("   RSVPs: %d\n", counts["rsvps"])
		fmt.Printf("   Notifications: %d\n", counts["notifications"])
	},
}

func init() {
	syncCmd.Flags().Int64P("user", "u", 0, "User id to sync")
	rootCmd.AddCommand(syncCmd)
}
