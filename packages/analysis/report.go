package analysis

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/l3montree-dev/lowpot/packages/types"
	"gopkg.in/yaml.v3"
)

var (
	headingColor = color.New(color.FgCyan, color.Bold)
	totalColor   = color.New(color.FgGreen, color.Bold)
)

// WriteText prints the report in the console layout.
func WriteText(w io.Writer, report types.Report, topN int) error {
	switch {
	case topN == 0:
		topN = DefaultTopN
	case topN < 0:
		// negative lists every address
		topN = len(report.TopIPs)
	}
	var b strings.Builder

	totalColor.Fprintf(&b, "Total attempts: %d", report.Total)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("-", 40) + "\n")

	headingColor.Fprint(&b, "Attempts by service:")
	b.WriteString("\n")
	for _, s := range report.Services {
		fmt.Fprintf(&b, "  %s: %d\n", s.Service, s.Count)
	}
	b.WriteString("\n")

	headingColor.Fprintf(&b, "Top %d attacking IPs:", topN)
	b.WriteString("\n")
	for _, ip := range report.TopIPs {
		if ip.Country != "" {
			fmt.Fprintf(&b, "  %s (%s): %d attempts\n", ip.IP, ip.Country, ip.Count)
			continue
		}
		fmt.Fprintf(&b, "  %s: %d attempts\n", ip.IP, ip.Count)
	}
	b.WriteString("\n")

	headingColor.Fprint(&b, "Attempts by hour:")
	b.WriteString("\n")
	for _, h := range report.Hours {
		fmt.Fprintf(&b, "  %02d:00 - %d attempts\n", h.Hour, h.Count)
	}

	if report.Countries != nil {
		b.WriteString("\n")
		headingColor.Fprint(&b, "Attempts by country:")
		b.WriteString("\n")
		for _, c := range report.Countries {
			fmt.Fprintf(&b, "  %s: %d\n", c.Country, c.Count)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func WriteJSON(w io.Writer, report types.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func WriteYAML(w io.Writer, report types.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return err
	}
	return enc.Close()
}

// Write renders report in format, one of text, json or yaml.
func Write(w io.Writer, format string, report types.Report, topN int) error {
	switch strings.ToLower(format) {
	case "", "text", "table":
		return WriteText(w, report, topN)
	case "json":
		return WriteJSON(w, report)
	case "yaml", "yml":
		return WriteYAML(w, report)
	}
	return fmt.Errorf("unsupported output format %q", format)
}
