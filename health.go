package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// healthProbe checks one upstream and returns a short summary on success
type healthProbe struct {
	label string
	run   func(ctx context.Context) (string, error)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that every upstream source is reachable and parseable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		passed, total := runHealthChecks(cmd.Context(), cmd.OutOrStdout(), healthProbes(currentApp()))
		if passed < total {
			return fmt.Errorf("%d of %d health checks failed", total-passed, total)
		}
		return nil
	},
}

func healthProbes(a *application) []healthProbe {
	return []healthProbe{
		{
			label: "Upcoming IPO list",
			run: func(ctx context.Context) (string, error) {
				ipos, err := a.upcoming.FetchUpcoming(ctx)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("%d IPOs", len(ipos)), nil
			},
		},
		{
			label: "Listing history",
			run: func(ctx context.Context) (string, error) {
				records, err := a.history.FetchHistory(ctx, 0)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("%d records", len(records)), nil
			},
		},
		{
			label: "Sponsor ranking",
			run: func(ctx context.Context) (string, error) {
				sponsors, err := a.sponsors.FetchSponsorSummary(ctx)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("%d sponsors", len(sponsors)), nil
			},
		},
		{
			label: "Index quote",
			run: func(ctx context.Context) (string, error) {
				snapshot, err := a.market.FetchIndexSnapshot(ctx, a.cfg.IndexTicker)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("%s %.2f", snapshot.Index, snapshot.Price), nil
			},
		},
		{
			label: "Search utility",
			run: func(ctx context.Context) (string, error) {
				if !a.search.Available() {
					return "", fmt.Errorf("script not found at %s", a.cfg.SearchScript)
				}
				return "installed", nil
			},
		},
	}
}

// runHealthChecks runs every probe in order and prints one line per probe
func runHealthChecks(ctx context.Context, w io.Writer, probes []healthProbe) (int, int) {
	fmt.Fprintf(w, "hkipo health check - %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintln(w, strings.Repeat("=", 50))

	passed := 0
	for _, probe := range probes {
		summary, err := probe.run(ctx)
		if err != nil {
			fmt.Fprintf(w, "%-20s FAILED (%v)\n", probe.label+":", err)
			continue
		}
		fmt.Fprintf(w, "%-20s OK (%s)\n", probe.label+":", summary)
		passed++
	}

	fmt.Fprintln(w, strings.Repeat("-", 50))
	total := len(probes)
	percent := 0.0
	if total > 0 {
		percent = float64(passed) / float64(total) * 100
	}
	switch {
	case passed == total:
		fmt.Fprintf(w, "SYSTEM HEALTHY: %d/%d checks passed (%.0f%%)\n", passed, total, percent)
	case passed >= total/2:
		fmt.Fprintf(w, "SYSTEM DEGRADED: %d/%d checks passed (%.0f%%)\n", passed, total, percent)
	default:
		fmt.Fprintf(w, "SYSTEM UNHEALTHY: %d/%d checks passed (%.0f%%)\n", passed, total, percent)
	}
	return passed, total
}
