package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pevans/noticeharvest/config"
	"github.com/pevans/noticeharvest/notice"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Get subcommand
	subcommand := os.Args[1]

	switch subcommand {
	case "notices":
		handleNotices(cfg, os.Args[2:])
	case "runs":
		if len(os.Args) < 3 {
			printRunsUsage()
			os.Exit(1)
		}
		handleRunsCommand(os.Args[2], cfg, os.Args[3:])
	case "config":
		printConfig(os.Stdout, cfg)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command: %s\n\n", subcommand)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("noticectl - Inspect harvested forum notices")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  noticectl <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  notices    Show the current harvest result")
	fmt.Println("  runs       Inspect archived harvest runs")
	fmt.Println("  config     Show the resolved configuration")
	fmt.Println("  help       Show this help message")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  NOTICEHARVEST_CONFIG       Path to config file (default: ~/.noticeharvest/config.yaml)")
	fmt.Println("  NOTICEHARVEST_OUTPUT       Path to harvest result (default: notices.json)")
	fmt.Println("  NOTICEHARVEST_ARCHIVE_DSN  Path to run archive database (default: none)")
}

func handleNotices(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("notices", flag.ExitOnError)
	format := fs.String("format", "table", "Output format: table or json")
	fs.Parse(args)

	result, err := notice.ReadFile(cfg.ResultPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	switch *format {
	case "json":
		if err := notice.Encode(os.Stdout, result); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "table":
		printNoticesTable(os.Stdout, result)
	default:
		fmt.Fprintf(os.Stderr, "Error: --format must be 'table' or 'json'\n")
		os.Exit(1)
	}
}
