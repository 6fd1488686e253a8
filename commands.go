package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hkipo-research/hkipo/handlers"
	"github.com/hkipo-research/hkipo/shared"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// --- Fetch Commands ---

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch IPO data as JSON",
}

var fetchListCmd = &cobra.Command{
	Use:   "list",
	Short: "Offerings currently open for subscription",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ipos, err := currentApp().upcoming.FetchUpcoming(cmd.Context())
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), map[string]interface{}{"ipos": ipos})
	},
}

var fetchDetailCmd = &cobra.Command{
	Use:   "detail [code]",
	Short: "Prospectus details of one offering",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		detail, err := currentApp().details.FetchDetail(cmd.Context(), strings.TrimSpace(args[0]))
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), detail)
	},
}

var fetchAHCmd = &cobra.Command{
	Use:   "ah [code]",
	Short: "A+H premium of a dual-listed offering",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		comparison, err := currentApp().ah.CompareAH(cmd.Context(), strings.TrimSpace(args[0]))
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), comparison)
	},
}

var fetchCalendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Open offerings grouped by subscription deadline",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rounds, err := currentApp().calendar.FetchCalendar(cmd.Context())
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), map[string]interface{}{"rounds": rounds})
	},
}

var fetchHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Recently listed offerings with first-day performance",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		if !cmd.Flags().Changed("limit") {
			limit = cfg.HistoryLimit
		}
		records, err := currentApp().history.FetchHistory(cmd.Context(), limit)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), map[string]interface{}{"ipos": records})
	},
}

func init() {
	fetchHistoryCmd.Flags().Int("limit", 50, "maximum number of records")

	fetchCmd.AddCommand(fetchListCmd)
	fetchCmd.AddCommand(fetchDetailCmd)
	fetchCmd.AddCommand(fetchAHCmd)
	fetchCmd.AddCommand(fetchCalendarCmd)
	fetchCmd.AddCommand(fetchHistoryCmd)
}

// --- Sentiment Commands ---

var sentimentCmd = &cobra.Command{
	Use:   "sentiment",
	Short: "Market sentiment: index move and sponsor track records",
}

var vhsiCmd = &cobra.Command{
	Use:   "vhsi",
	Short: "Today's Hang Seng Index move and its interpretation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		snapshot, err := currentApp().market.FetchIndexSnapshot(cmd.Context(), cfg.IndexTicker)
		if err != nil {
			return err
		}
		if asJSON(cmd) {
			return writeJSON(cmd.OutOrStdout(), snapshot)
		}
		writeSnapshotText(cmd.OutOrStdout(), snapshot)
		return nil
	},
}

var sponsorCmd = &cobra.Command{
	Use:   "sponsor",
	Short: "Sponsor ranking by first-day performance",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sponsors, err := currentApp().sponsors.FetchSponsorSummary(cmd.Context())
		if err != nil {
			return err
		}
		if asJSON(cmd) {
			return writeJSON(cmd.OutOrStdout(), sponsors)
		}
		writeSponsorTable(cmd.OutOrStdout(), sponsors, sponsorTableRows)
		return nil
	},
}

var sponsorSearchCmd = &cobra.Command{
	Use:   "sponsor-search",
	Short: "Track record of one sponsor",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		name = strings.TrimSpace(name)
		if name == "" {
			return fmt.Errorf("--name required for sponsor-search")
		}

		record, err := currentApp().sponsors.SearchSponsor(cmd.Context(), name)
		if err != nil {
			if shared.IsLookupMiss(err) {
				return fmt.Errorf("未找到保荐人: %s", name)
			}
			return err
		}
		if asJSON(cmd) {
			return writeJSON(cmd.OutOrStdout(), record)
		}
		writeSponsorText(cmd.OutOrStdout(), record)
		return nil
	},
}

func init() {
	sentimentCmd.PersistentFlags().Bool("json", false, "output as JSON")
	sponsorSearchCmd.Flags().StringP("name", "n", "", "sponsor name to search")

	sentimentCmd.AddCommand(vhsiCmd)
	sentimentCmd.AddCommand(sponsorCmd)
	sentimentCmd.AddCommand(sponsorSearchCmd)
}

// --- Tweets Command ---

var tweetsCmd = &cobra.Command{
	Use:   "tweets [name]",
	Short: "Most engaged social-media posts about an offering",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topic := strings.TrimSpace(args[0])
		limit, _ := cmd.Flags().GetInt("limit")
		if !cmd.Flags().Changed("limit") {
			limit = cfg.TweetLimit
		}

		posts, err := currentApp().sentiment.SearchPosts(cmd.Context(), topic, limit)
		if err != nil {
			return err
		}
		if len(posts) == 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "No tweets found for: %s\n", topic)
			return nil
		}
		if asJSON(cmd) {
			return writeJSON(cmd.OutOrStdout(), posts)
		}
		writePostsText(cmd.OutOrStdout(), posts)
		return nil
	},
}

func init() {
	tweetsCmd.Flags().IntP("limit", "l", 5, "maximum number of posts")
	tweetsCmd.Flags().Bool("json", false, "output as JSON")
}

// --- Serve Command ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the data as a JSON HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetString("port")
		if port == "" {
			port = cfg.ServerPort
		}

		server := handlers.NewApp(currentApp().handlers(), os.Stderr)

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-stop
			logrus.Info("Shutting down server")
			if err := server.Shutdown(); err != nil {
				logrus.WithError(err).Error("Server shutdown failed")
			}
		}()

		logrus.WithField("port", port).Info("Server starting")
		if err := server.Listen(":" + port); err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("port", "", "listen port (default from config)")
}

func asJSON(cmd *cobra.Command) bool {
	value, _ := cmd.Flags().GetBool("json")
	return value
}
