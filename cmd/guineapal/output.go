package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/guineapal/pkg/types"
)

// emit prints v as indented JSON under --json and calls text otherwise.
func (c *cli) emit(cmd *cobra.Command, v any, text func(w io.Writer)) error {
	w := cmd.OutOrStdout()
	if c.flags.jsonMode {
		return printJSON(w, v)
	}
	text(w)
	return nil
}

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// printTable prints rows under header, trimming trailing padding from each
// line.
func printTable(w io.Writer, header []string, rows [][]string) {
	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()

	for _, line := range strings.Split(strings.TrimRight(sb.String(), "\n"), "\n") {
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}

// truncate shortens s to n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func grams(w float64) string {
	return humanize.FormatFloat("#,###.#", w) + " g"
}

// relative renders t against now, e.g. "3 days ago".
func relative(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}

// dayLabel renders a calendar date with its distance from today.
func dayLabel(d types.Date, now time.Time) string {
	switch n := d.DaysUntil(now); {
	case n == 0:
		return d.String() + " (today)"
	case n == 1:
		return d.String() + " (tomorrow)"
	case n == -1:
		return d.String() + " (yesterday)"
	default:
		return fmt.Sprintf("%s (%s)", d, relative(d.Time, types.NewDate(now).Time))
	}
}

// parseDay parses s as YYYY-MM-DD, defaulting to today when empty.
func parseDay(s string, now time.Time) (types.Date, error) {
	if strings.TrimSpace(s) == "" {
		return types.NewDate(now), nil
	}
	return types.ParseDate(s)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
