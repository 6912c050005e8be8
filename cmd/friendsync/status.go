package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/friendsync/friendsync/internal/schema"
	"github.com/friendsync/friendsync/internal/store"
	"github.com/friendsync/friendsync/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show local store status",
	Long: `Display the state of the local store.

Shows:
  - Data directory and database file size
  - Active engine (sqlite or document fallback)
  - Row counts per table`,
	Run: func(cmd *cobra.Command, args []string) {
		st := openStore()
		defer st.Close()

		counts, err := st.Counts(context.Background())
		if err != nil {
			fatalf("failed to read store: %v", err)
		}
		status := st.Status()

		fmt.Printf("\n%s FriendSync Store Status\n\n", ui.RenderAccent("*"))
		fmt.Printf("Data dir: %s\n", ui.RenderDim(cfg.DataDir))
		fmt.Printf("Engine: %s\n", status.Mode)

		if status.Mode == store.ModeSQLite {
			dbPath := filepath.Join(cfg.DataDir, store.DBFileName)
			if info, err := os.Stat(dbPath); err == nil {
				fmt.Printf("Database: %s (%s)\n", ui.RenderDim(dbPath), formatSize(info.Size()))
			}
		}

		fmt.Println()
		for _, table := range schema.Tables {
			fmt.Printf("%-15s %d\n", table, counts[table])
		}
		fmt.Println()
	},
}

func formatSize(size int64) string {
	switch {
	case size > 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))
	case size > 1024:
		return fmt.Sprintf("%.1f KB", float64(size)/1024)
	default:
		return fmt.Sprintf("%d bytes", size)
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
