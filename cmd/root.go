package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"pairbench/internal/banner"
	"pairbench/internal/cli"
	"pairbench/internal/config"
	"pairbench/internal/executor"
	"pairbench/internal/loadtest"
	"pairbench/internal/logger"
	"pairbench/internal/metrics"
	"pairbench/internal/report"
	"pairbench/internal/storage"
	"pairbench/internal/tui"
)

var (
	cfgFile string
	useTUI  bool

	// CLI flag overrides
	flagTargets   []string
	flagUsers     []int
	flagDuration  time.Duration
	flagQuery     string
	flagStatement string
	flagOut       string
)

var rootCmd = &cobra.Command{
	Use:   "pairbench",
	Short: "PairBench - Concurrent Database Comparison Tool",
	Long: `
PairBench drives synthetic concurrent read workloads against two
database backends at once and produces comparable latency, throughput
and error statistics per user-count scenario.

Backends, targets and scenario matrices are configured via YAML
($HOME/.pairbench.yaml or --config), PAIRBENCH_* env vars, or flags.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runComparison(cmd)
	},
}

func Execute() {
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		fmt.Println(banner.GetString())
		cmd.Usage()
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pairbench.yaml)")

	rootCmd.Flags().BoolVar(&useTUI, "tui", false, "Show the live TUI instead of plain console output")
	rootCmd.Flags().StringSliceVarP(&flagTargets, "target", "t", nil, "Target bucket/collection (repeatable)")
	rootCmd.Flags().IntSliceVarP(&flagUsers, "users", "U", nil, "Concurrent user counts (e.g. 10,50,100)")
	rootCmd.Flags().DurationVarP(&flagDuration, "duration", "d", 0, "Per-scenario duration (0 = one query per user)")
	rootCmd.Flags().StringVarP(&flagQuery, "query", "q", "", "Query type: count | select_all | select_paginated | custom")
	rootCmd.Flags().StringVar(&flagStatement, "statement", "", "Statement for --query custom")
	rootCmd.Flags().StringVarP(&flagOut, "out", "o", "", "Output directory for report artifacts")

	rootCmd.AddCommand(historyCmd)
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("target") {
		cfg.Targets = flagTargets
	}
	if cmd.Flags().Changed("users") {
		cfg.UserCounts = flagUsers
	}
	if cmd.Flags().Changed("duration") {
		cfg.Duration = flagDuration
	}
	if cmd.Flags().Changed("query") {
		cfg.QueryType = flagQuery
	}
	if cmd.Flags().Changed("statement") {
		cfg.Statement = flagStatement
	}
	if cmd.Flags().Changed("out") {
		cfg.OutDir = flagOut
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runComparison(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}

	log := logger.New("pairbench", level)
	if useTUI {
		// The TUI owns the terminal; logs go to a file instead.
		if err := os.MkdirAll(cfg.OutDir, 0755); err != nil {
			return err
		}
		f, err := os.OpenFile(filepath.Join(cfg.OutDir, "pairbench.log"),
			os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		log = logger.NewWithWriter(f, "pairbench", level)
	}

	var reporter loadtest.MetricsReporter = loadtest.NoopMetrics{}
	if cfg.MetricsAddr != "" {
		prom := metrics.NewPrometheus()
		if err := prom.Serve(cfg.MetricsAddr); err != nil {
			return fmt.Errorf("metrics endpoint: %w", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			prom.Stop(ctx)
		}()
		reporter = prom
		log.Info("metrics endpoint up", "addr", cfg.MetricsAddr)
	}

	store, err := storage.NewStore()
	if err != nil {
		log.Warn("run history unavailable", "error", err)
		store = nil
	} else {
		defer store.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	updates := make(loadtest.SnapshotChan, 100)

	if useTUI {
		return runWithTUI(ctx, stop, cfg, log, reporter, store, updates)
	}
	return runHeadless(ctx, cfg, log, reporter, store, updates)
}

func runHeadless(ctx context.Context, cfg *config.Config, log *slog.Logger,
	reporter loadtest.MetricsReporter, store *storage.Store, updates loadtest.SnapshotChan) error {

	fmt.Println(banner.GetString())
	cli.PrintHeader(cfg)

	watchCtx, stopWatch := context.WithCancel(ctx)
	go cli.WatchProgress(watchCtx, updates)

	reports, err := runAllTargets(ctx, cfg, log, reporter, store, updates)
	stopWatch()
	time.Sleep(50 * time.Millisecond) // let the progress line clear

	for _, r := range reports {
		cli.PrintReport(r)
	}
	if err != nil {
		return fmt.Errorf("comparison aborted: %w", err)
	}
	fmt.Printf("\n✅ Reports saved to %s/\n", cfg.OutDir)
	return nil
}

func runWithTUI(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, log *slog.Logger,
	reporter loadtest.MetricsReporter, store *storage.Store, updates loadtest.SnapshotChan) error {

	m := tui.NewModel(cfg.BackendA.Name, cfg.BackendB.Name, updates)
	p := tea.NewProgram(m, tea.WithAltScreen())

	errCh := make(chan error, 1)
	go func() {
		reports, err := runAllTargets(ctx, cfg, log, reporter, store, updates)
		errCh <- err
		p.Send(tui.DoneMsg{Reports: reports})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		waitRunDone(errCh, 5*time.Second)
		return fmt.Errorf("tui: %w", err)
	}
	cancel()
	return waitRunDone(errCh, 5*time.Second)
}

// waitRunDone collects the engine goroutine's result so in-flight
// artifact writes complete before the process exits. The timeout
// guards against an executor that never observes cancellation.
func waitRunDone(errCh <-chan error, timeout time.Duration) error {
	select {
	case err := <-errCh:
		return err
	case <-time.After(timeout):
		return nil
	}
}

// runAllTargets executes the full comparison matrix for every target,
// writing artifacts and history as each target completes.
func runAllTargets(ctx context.Context, cfg *config.Config, log *slog.Logger,
	reporter loadtest.MetricsReporter, store *storage.Store,
	updates loadtest.SnapshotChan) ([]*loadtest.Report, error) {

	qt, err := loadtest.ParseQueryType(cfg.QueryType)
	if err != nil {
		return nil, err
	}
	query := loadtest.Query{Type: qt, Statement: cfg.Statement}

	maxUsers := 0
	for _, n := range cfg.UserCounts {
		if n > maxUsers {
			maxUsers = n
		}
	}

	var reports []*loadtest.Report
	for _, target := range cfg.Targets {
		r, err := runTarget(ctx, cfg, log, reporter, store, updates, target, query, maxUsers)
		if r != nil {
			reports = append(reports, r)
		}
		if err != nil {
			return reports, err
		}
	}
	return reports, nil
}

func runTarget(ctx context.Context, cfg *config.Config, log *slog.Logger,
	reporter loadtest.MetricsReporter, store *storage.Store, updates loadtest.SnapshotChan,
	target string, query loadtest.Query, maxUsers int) (*loadtest.Report, error) {

	provA, err := executor.New(cfg.BackendA, target, maxUsers)
	if err != nil {
		return nil, fmt.Errorf("backend %s: %w", cfg.BackendA.Name, err)
	}
	defer executor.Shutdown(provA)

	provB, err := executor.New(cfg.BackendB, target, maxUsers)
	if err != nil {
		return nil, fmt.Errorf("backend %s: %w", cfg.BackendB.Name, err)
	}
	defer executor.Shutdown(provB)

	a := loadtest.BackendTarget{Name: cfg.BackendA.Name, Provider: provA}
	b := loadtest.BackendTarget{Name: cfg.BackendB.Name, Provider: provB}

	runner := loadtest.NewScenarioRunner(log, reporter, updates)
	archiver := report.NewSampleArchiver(cfg.OutDir, target)

	engine := loadtest.NewEngine(loadtest.EngineConfig{
		Target:       target,
		UserCounts:   cfg.UserCounts,
		Query:        query,
		Duration:     cfg.Duration,
		ThinkTime:    cfg.ThinkTime,
		SettleDelay:  cfg.SettleDelay,
		SetupRetries: cfg.SetupRetries,
		SetupBackoff: cfg.SetupBackoff,
	}, a, b, runner, log).WithSampleSink(archiver.Sink())

	rep, runErr := engine.Run(ctx)
	if rep == nil {
		return nil, runErr
	}

	if err := report.WriteReport(rep, cfg.ReportPath(target, "_report.json")); err != nil {
		log.Error("write json report", "target", target, "error", err)
	}
	if err := report.WriteHTML(rep, cfg.ReportPath(target, "_report.html")); err != nil {
		log.Error("write html report", "target", target, "error", err)
	}
	if err := archiver.Flush(); err != nil {
		log.Error("write sample archives", "target", target, "error", err)
	}
	if store != nil {
		if err := store.Save(storage.NewHistoryItem(rep)); err != nil {
			log.Warn("save run history", "error", err)
		}
	}
	return rep, runErr
}
