package main

import (
	"context"
	"fmt"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/friendsync/friendsync/internal/schema"
	"github.com/friendsync/friendsync/internal/ui"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Work with local events",
}

var eventAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an event or free-time block to the local store",
	Long: `Create an event directly in the local store.

Times accept natural language as well as RFC 3339:

  friendsync event add --user 1 --title "Board games" --start "friday at 7pm" --end "friday at 10pm"
  friendsync event add --user 1 --free --start "tomorrow at 9am" --end "tomorrow at noon"

Note that a locally created event is lost on the next sync pass unless
the server also knows about it; this command is a development utility.`,
	Run: func(cmd *cobra.Command, args []string) {
		userID, _ := cmd.Flags().GetInt64("user")
		title, _ := cmd.Flags().GetString("title")
		desc, _ := cmd.Flags().GetString("description")
		startStr, _ := cmd.Flags().GetString("start")
		endStr, _ := cmd.Flags().GetString("end")
		free, _ := cmd.Flags().GetBool("free")
		recur, _ := cmd.Flags().GetString("recur")

		if userID <= 0 {
			fatalf("--user is required")
		}
		if startStr == "" {
			fatalf("--start is required")
		}

		start, err := parseTime(startStr)
		if err != nil {
			fatalf("invalid --start: %v", err)
		}
		var end time.Time
		if endStr != "" {
			if end, err = parseTime(endStr); err != nil {
				fatalf("invalid --end: %v", err)
			}
		}

		recurrence, err := parseRecurrence(recur)
		if err != nil {
			fatalf("%v", err)
		}

		ev := &schema.Event{
			UserID:      userID,
			Title:       title,
			Description: desc,
			StartTime:   start,
			EndTime:     end,
			IsEvent:     !free,
			Recurring:   recurrence,
		}
		ev.SetDefaults()
		if err := ev.Validate(); err != nil {
			fatalf("%v", err)
		}

		st := openStore()
		defer st.Close()

		var id int64
		if free {
			id, err = st.AddFreeTime(context.Background(), ev)
		} else {
			id, err = st.CreateEvent(context.Background(), ev)
		}
		if err != nil {
			fatalf("failed to create event: %v", err)
		}

		kind := "event"
		if free {
			kind = "free-time block"
		}
		fmt.Printf("%s Created %s %s (%s)\n", ui.RenderPass("ok"), kind,
			ui.RenderAccent(fmt.Sprintf("#%d", id)), start.Format(time.RFC1123))
	},
}

// parseTime accepts RFC 3339 first, then natural language relative to
// now ("friday at 7pm", "tomorrow at noon").
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	r, err := w.Parse(s, time.Now())
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %q: %w", s, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("unrecognized time %q", s)
	}
	return r.Time, nil
}

func parseRecurrence(s string) (schema.Recurrence, error) {
	switch s {
	case "", "none":
		return schema.RecurNone, nil
	case "daily":
		return schema.RecurDaily, nil
	case "weekly":
		return schema.RecurWeekly, nil
	case "monthly":
		return schema.RecurMonthly, nil
	default:
		return 0, fmt.Errorf("invalid recurrence %q (none, daily, weekly, monthly)", s)
	}
}

func init() {
	eventAddCmd.Flags().Int64P("user", "u", 0, "Owning user id")
	eventAddCmd.Flags().StringP("title", "t", "", "Event title (required unless --free)")
	eventAddCmd.Flags().StringP("description", "d", "", "Event description")
	eventAddCmd.Flags().String("start", "", "Start time (RFC 3339 or natural language)")
	eventAddCmd.Flags().String("end", "", "End time (RFC 3339 or natural language)")
	eventAddCmd.Flags().Bool("free", false, "Create a free-time block instead of an event")
	eventAddCmd.Flags().String("recur", "none", "Recurrence: none, daily, weekly, monthly")

	eventCmd.AddCommand(eventAddCmd)
	rootCmd.AddCommand(eventCmd)
}
