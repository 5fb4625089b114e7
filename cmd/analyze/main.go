// analyze prints aggregate statistics over a honeypot event log.
//
// Usage: analyze [logfile] [--top N] [--output text|json|yaml] [--geoip dbip-country.csv]
package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/l3montree-dev/lowpot/packages/analysis"
	"github.com/l3montree-dev/lowpot/packages/dbip"
	"github.com/spf13/cobra"
)

const defaultLogFile = "honeypot.log"

// errNotFound has already been reported to the user.
var errNotFound = errors.New("log file not found")

func newRootCmd() *cobra.Command {
	var (
		topN   int
		output string
		geoip  string
	)
	cmd := &cobra.Command{
		Use:   "analyze [logfile]",
		Short: "Summarize honeypot attempts",
		Long: `analyze reads a honeypot event log (one JSON object per line) and prints
the number of attempts by service, the most active source addresses and the
attempts per hour of day. Lines that are not valid JSON are skipped.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultLogFile
			if len(args) == 1 {
				path = args[0]
			}
			opts := analysis.Options{TopN: topN}
			if geoip != "" {
				lookup, err := dbip.NewIpToCountry(geoip)
				if err != nil {
					return fmt.Errorf("could not load geoip database: %w", err)
				}
				opts.Country = lookup
			}
			return analyze(cmd.OutOrStdout(), path, output, opts)
		},
	}
	cmd.Flags().IntVar(&topN, "top", analysis.DefaultTopN, "number of source addresses to list")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, json, yaml")
	cmd.Flags().StringVar(&geoip, "geoip", "", "db-ip country CSV used to add a by-country table")
	return cmd
}

func analyze(w io.Writer, path, output string, opts analysis.Options) error {
	log, err := analysis.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(w, "Log file %s not found!\n", path)
		return errNotFound
	}
	if err != nil {
		return err
	}
	if len(log.Records) == 0 {
		fmt.Fprintln(w, "No log entries found!")
		return nil
	}
	report := analysis.Aggregate(log.Records, opts)
	report.Skipped = log.Skipped
	return analysis.Write(w, output, report, opts.TopN)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errNotFound) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
