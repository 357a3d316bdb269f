package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/pevans/noticeharvest/archive"
	"github.com/pevans/noticeharvest/config"
)

func printRunsUsage() {
	fmt.Println("noticectl runs -- Inspect archived harvest runs")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  noticectl runs <action> [arguments]")
	fmt.Println()
	fmt.Println("Actions:")
	fmt.Println("  list       List recent runs")
	fmt.Println("  show       Show one run and its notices")
	fmt.Println("  latest     Show the most recent run")
	fmt.Println("  help       Show this help message")
}

func handleRunsCommand(action string, cfg *config.Config, args []string) {
	if action == "help" || action == "--help" || action == "-h" {
		printRunsUsage()
		return
	}

	if cfg.ArchiveDSN == "" {
		fmt.Fprintf(os.Stderr, "Error: no run archive configured (set NOTICEHARVEST_ARCHIVE_DSN)\n")
		os.Exit(1)
	}

	store, err := archive.NewStore(cfg.ArchiveDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open run archive: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	switch action {
	case "list":
		handleRunsList(store, args)
	case "show":
		handleRunsShow(store, args)
	case "latest":
		run, err := store.LatestRun()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to get latest run: %v\n", err)
			os.Exit(1)
		}
		printRunDetail(os.Stdout, run)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown runs command: %s\n\n", action)
		printRunsUsage()
		os.Exit(1)
	}
}

func handleRunsList(store *archive.Store, args []string) {
	// Parse flags for list command
	fs := flag.NewFlagSet("runs list", flag.ExitOnError)
	limit := fs.Int("limit", 20, "Maximum number of runs to show")
	format := fs.String("format", "table", "Output format: table, json or compact")
	fs.Parse(args)

	runs, err := store.ListRuns(*limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to list runs: %v\n", err)
		os.Exit(1)
	}

	switch *format {
	case "table":
		printRunsTable(os.Stdout, runs)
	case "json":
		if err := printRunsJSON(os.Stdout, runs); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "compact":
		printRunsCompact(os.Stdout, runs)
	default:
		fmt.Fprintf(os.Stderr, "Error: --format must be 'table', 'json' or 'compact'\n")
		os.Exit(1)
	}
}

func handleRunsShow(store *archive.Store, args []string) {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Error: run ID is required\n")
		fmt.Fprintf(os.Stderr, "Usage: noticectl runs show <run-id>\n")
		os.Exit(1)
	}

	// Parse UUID
	id, err := uuid.Parse(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid run ID: %v\n", err)
		os.Exit(1)
	}

	run, err := store.GetRun(id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to get run: %v\n", err)
		os.Exit(1)
	}

	printRunDetail(os.Stdout, run)
}
