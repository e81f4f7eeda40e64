package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Ho-DucThanh/Client-LMS-sub000/internal/recommend"
	"github.com/Ho-DucThanh/Client-LMS-sub000/internal/service"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorDim    = "\033[2m"
	colorBold   = "\033[1m"
)

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorGreen, "✓ "+msg))
}

func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorRed, "✗ "+msg))
}

func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorYellow, "⚠ "+msg))
}

func printStatus(label string, format string, args ...any) {
	val := fmt.Sprintf(format, args...)
	l := colorize(colorBold, label+":")
	fmt.Fprintf(os.Stderr, "  %s %s\n", l, val)
}

func printStep(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorCyan, "→ "+msg))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatPrice(p *float64) string {
	switch {
	case p == nil:
		return "-"
	case *p == 0:
		return "free"
	default:
		return fmt.Sprintf("%.2f", *p)
	}
}

func formatRating(r *float64) string {
	if r == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f★", *r)
}

// courseLine renders a course as one line: id, title, then whatever detail
// is known.
func courseLine(c service.Course) string {
	var meta []string
	if c.Instructor != "" {
		meta = append(meta, c.Instructor)
	}
	if c.Category != "" {
		meta = append(meta, c.Category)
	}
	if c.Level != "" {
		meta = append(meta, c.Level)
	}
	meta = append(meta, formatPrice(c.Price), formatRating(c.Rating))
	return fmt.Sprintf("%s %s %s",
		colorize(colorBold, fmt.Sprintf("#%d", c.ID)),
		c.Title,
		colorize(colorDim, "("+strings.Join(meta, ", ")+")"))
}

func printGroups(w io.Writer, groups []recommend.StageGroup, inPath func(int64) bool) {
	for _, g := range groups {
		fmt.Fprintln(w, colorize(colorCyan, string(g.Stage)))
		if len(g.Courses) == 0 {
			fmt.Fprintln(w, colorize(colorDim, "  (none)"))
			continue
		}
		for _, c := range g.Courses {
			mark := " "
			if inPath(c.ID) {
				mark = colorize(colorGreen, "✓")
			}
			fmt.Fprintf(w, " %s %s\n", mark, courseLine(c))
			if c.Rationale != "" {
				fmt.Fprintf(w, "     %s\n", c.Rationale)
			}
		}
	}
}
