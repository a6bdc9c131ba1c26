/*
main.go - Command-line analysis runner

PURPOSE:
  Runs one analysis pass over a punch export from the shell, prints the
  report, and optionally writes the CSV. Also exposes ledger maintenance
  (reset one employee, reset everything).

COMMAND-LINE FLAGS:
  -input     Punch export path ({YYYYMM}[-{YYYYMM}]-{name}-出勤資料.txt)
  -csv       CSV output path (default: next to the input)
  -mode      incremental (default) or full
  -dry-run   Evaluate without writing the ledger
  -state     Ledger state file override
  -reset     Employee name to forget, then exit
  -reset-all Forget every employee, then exit

EXAMPLES:
  # Analyze one export
  ./analyze -input=./202507-王小明-出勤資料.txt

  # Re-check everything, read-only
  ./analyze -input=./202507-王小明-出勤資料.txt -mode=full -dry-run

  # Start over for one employee
  ./analyze -reset=王小明

CANCELLATION:
  Ctrl-C aborts between days; a cancelled run commits nothing.

SEE ALSO:
  - analyzer/service.go: The pipeline this drives
  - cmd/server/main.go: The HTTP surface over the same pipeline
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fhr/attendance-engine/analyzer"
	"github.com/fhr/attendance-engine/config"
	"github.com/fhr/attendance-engine/holiday"
	"github.com/fhr/attendance-engine/ledger"
	"github.com/fhr/attendance-engine/logging"
	"github.com/fhr/attendance-engine/store/statefile"
)

func main() {
	input := flag.String("input", "", "punch export path")
	csvPath := flag.String("csv", "", "CSV output path (default: next to the input)")
	mode := flag.String("mode", "incremental", "incremental or full")
	dryRun := flag.Bool("dry-run", false, "evaluate without writing the ledger")
	reset := flag.String("reset", "", "employee to forget, then exit")
	resetAll := flag.Bool("reset-all", false, "forget every employee, then exit")
	statePath := flag.String("state", "", "ledger state file (default: FHR_STATE_FILE or attendance_state.json)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration error:", err)
		os.Exit(1)
	}
	if *statePath != "" {
		cfg.State.File = *statePath
	}
	log := logging.New("fhr-analyze", cfg.Environment)

	rules, err := cfg.Rules.PolicyRules()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid rule overrides")
	}

	store := statefile.New(cfg.State.File, log)
	l := ledger.New(store, log)
	gov := holiday.NewGovClient(holiday.GovOptions{
		MaxRetries:  cfg.Holiday.APIMaxRetries,
		BackoffBase: cfg.Holiday.APIBackoff,
		MaxBackoff:  cfg.Holiday.APIMaxBackoff,
	}, log)
	service := analyzer.NewService(
		analyzer.NewEngine(l, rules, log),
		l,
		holiday.NewService(gov, log),
		log,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch {
	case *reset != "":
		if err := service.Reset(ctx, *reset); err != nil {
			log.Fatal().Err(err).Msg("reset failed")
		}
		fmt.Printf("forgot state for %s\n", *reset)
		return
	case *resetAll:
		if err := service.ResetAll(ctx); err != nil {
			log.Fatal().Err(err).Msg("reset failed")
		}
		fmt.Println("forgot all state")
		return
	case *input == "":
		flag.Usage()
		os.Exit(2)
	}

	out := *csvPath
	if out == "" {
		out = strings.TrimSuffix(*input, filepath.Ext(*input)) + ".csv"
	}

	started := time.Now()
	res, err := service.Run(ctx, analyzer.Options{
		InputPath: *input,
		CSVPath:   out,
		Mode:      analyzer.Mode(*mode),
		DryRun:    *dryRun,
		Progress: func(stage analyzer.Stage) {
			log.Info().Str("stage", string(stage)).Msg("pipeline stage")
		},
		OnDay: func(date time.Time, index, total int) {
			fmt.Printf("\r  evaluating %s (%d/%d)", date.Format("2006-01-02"), index, total)
			if index == total {
				fmt.Println()
			}
		},
	})
	if err != nil {
		if errors.Is(err, analyzer.ErrCancelled) {
			fmt.Fprintln(os.Stderr, "cancelled, nothing committed")
			os.Exit(130)
		}
		log.Fatal().Err(err).Msg("analysis failed")
	}

	fmt.Println(res.Report)
	fmt.Printf("csv written to %s (%.1fs)\n", res.CSVPath, time.Since(started).Seconds())
	if res.Pass.LedgerErr != nil {
		fmt.Fprintln(os.Stderr, "warning: state not persisted:", res.Pass.LedgerErr)
		os.Exit(1)
	}
}
