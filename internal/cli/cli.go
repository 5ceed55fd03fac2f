package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pairbench/internal/config"
	"pairbench/internal/loadtest"
	"pairbench/internal/stats"
)

func PrintHeader(cfg *config.Config) {
	fmt.Printf("\n🚀 STARTING PAIRBENCH COMPARISON\n")
	fmt.Printf("======================================================================\n")
	fmt.Printf("Backend A   : %s (%s)\n", cfg.BackendA.Name, cfg.BackendA.Driver)
	fmt.Printf("Backend B   : %s (%s)\n", cfg.BackendB.Name, cfg.BackendB.Driver)
	fmt.Printf("Targets     : %s\n", strings.Join(cfg.Targets, ", "))
	fmt.Printf("User counts : %v\n", cfg.UserCounts)
	fmt.Printf("Query       : %s\n", cfg.QueryType)
	if cfg.Duration > 0 {
		fmt.Printf("Duration    : %s per scenario\n", cfg.Duration)
	} else {
		fmt.Printf("Duration    : single query per user\n")
	}
	fmt.Printf("======================================================================\n\n")
}

// WatchProgress consumes live snapshots and redraws a single status
// line until ctx is cancelled. Runs in its own goroutine.
func WatchProgress(ctx context.Context, updates loadtest.SnapshotChan) {
	for {
		select {
		case <-ctx.Done():
			fmt.Print("\r" + strings.Repeat(" ", 110) + "\r")
			return
		case s, ok := <-updates:
			if !ok {
				return
			}
			printSnapshot(s)
		}
	}
}

func printSnapshot(s loadtest.Snapshot) {
	pct := 0.0
	if s.Total > 0 {
		pct = s.Elapsed.Seconds() / s.Total.Seconds()
		if pct > 1.0 {
			pct = 1.0
		}
	}
	fmt.Printf("\r%s %3.0f%% | %s @ %d users | %s: %d ok / %d err | %s: %d ok / %d err",
		progressBar(pct, 20), pct*100,
		s.Target, s.Users,
		label(s.A), s.A.Success, s.A.Fail,
		label(s.B), s.B.Success, s.B.Fail,
	)
}

func label(v stats.View) string {
	if v.Backend == "" {
		return "A"
	}
	return v.Backend
}

func progressBar(pct float64, width int) string {
	filled := int(pct * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("-", width-filled) + "]"
}

// PrintReport renders the final per-target comparison to the console.
func PrintReport(r *loadtest.Report) {
	fmt.Printf("\n\n📊 COMPARISON RESULTS: %s\n", r.Target)
	fmt.Printf("======================================================================\n")
	fmt.Printf("Run        : %s\n", r.ID)
	fmt.Printf("Backends   : %s vs %s\n", r.BackendA, r.BackendB)
	fmt.Printf("Query      : %s\n", r.Query.Type)
	fmt.Printf("Total time : %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Second))

	for _, e := range r.Entries {
		fmt.Printf("\n⚡ %d concurrent users\n", e.Spec.Users)
		if e.Skipped() {
			fmt.Printf("   ⏭️  skipped: %s\n", e.Err)
			continue
		}
		printSummaryPair(r.BackendA, e.A, r.BackendB, e.B)
	}
	fmt.Printf("======================================================================\n")
}

func printSummaryPair(nameA string, a loadtest.Summary, nameB string, b loadtest.Summary) {
	rows := []struct {
		label  string
		va, vb string
	}{
		{"queries", fmt.Sprintf("%d", a.TotalQueries), fmt.Sprintf("%d", b.TotalQueries)},
		{"success", fmt.Sprintf("%.1f%%", a.SuccessRate*100), fmt.Sprintf("%.1f%%", b.SuccessRate*100)},
		{"avg", fmtMs(a.Avg), fmtMs(b.Avg)},
		{"median", fmtMs(a.Median), fmtMs(b.Median)},
		{"p95", fmtMs(a.P95), fmtMs(b.P95)},
		{"p99", fmtMs(a.P99), fmtMs(b.P99)},
		{"max", fmtMs(a.Max), fmtMs(b.Max)},
		{"QPS", fmt.Sprintf("%.2f", a.ThroughputQPS), fmt.Sprintf("%.2f", b.ThroughputQPS)},
		{"records", fmt.Sprintf("%d", a.TotalRecords), fmt.Sprintf("%d", b.TotalRecords)},
	}

	fmt.Printf("   %-10s %18s %18s\n", "", nameA, nameB)
	for _, row := range rows {
		fmt.Printf("   %-10s %18s %18s\n", row.label, row.va, row.vb)
	}
	for _, errs := range []struct {
		name string
		list []string
	}{{nameA, a.Errors}, {nameB, b.Errors}} {
		if len(errs.list) > 0 {
			fmt.Printf("   ❌ %s errors: %s\n", errs.name, strings.Join(errs.list, "; "))
		}
	}
}

func fmtMs(d time.Duration) string {
	return fmt.Sprintf("%.2fms", float64(d.Microseconds())/1000.0)
}
