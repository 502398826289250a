package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pulsekit-dev/pulsekit/pkg/tracker"
)

func newSendCmd() *cobra.Command {
	var (
		endpoint string
		project  string
		count    int
		name     string
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Fire test events at a collection endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			t := tracker.New(tracker.Config{
				ProjectID:      project,
				Endpoint:       endpoint,
				Debug:          true,
				BatchSize:      count + 1, // deliver everything in one final batch
				OfflineStorage: tracker.Bool(false),
			})
			t.Init()
			if t.SessionID() == "" {
				return fmt.Errorf("tracker failed to initialize")
			}

			for i := 0; i < count; i++ {
				t.Track(name, map[string]any{"seq": i, "sentAt": time.Now().UnixMilli()})
			}
			t.Close()

			fmt.Printf("sent %d %q events to %s\n", count, name, endpoint)
			return nil
		},
	}
	cmd.Flags().StringVar(&endpoint, "endpoint", "http://localhost:8080/v1/events", "collection endpoint")
	cmd.Flags().StringVar(&project, "project", "dev", "project id")
	cmd.Flags().IntVar(&count, "count", 5, "number of events to send")
	cmd.Flags().StringVar(&name, "name", "test_event", "event name")
	return cmd
}
