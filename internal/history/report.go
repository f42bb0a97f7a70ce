package history

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
)

const reportTimeFormat = "2006-01-02 15:04:05"

// noMarginStyle removes glamour's document margins.
const noMarginStyle = `{
	"document": {
		"margin": 0,
		"block_prefix": "",
		"block_suffix": ""
	}
}`

// Markdown renders runs as a markdown table. Runs with an entry in results
// also get a section listing each task.
func Markdown(runs []Run, results map[string][]TaskResult) string {
	var b strings.Builder
	b.WriteString("# Run history\n\n")
	if len(runs) == 0 {
		b.WriteString("No runs recorded yet.\n")
		return b.String()
	}

	b.WriteString("| Run | Started | Outcome | Completed | Failed | Pending | Workers | Duration |\n")
	b.WriteString("|---|---|---|---|---|---|---|---|\n")
	for _, run := range runs {
		fmt.Fprintf(&b, "| %s | %s | %s | %d/%d | %d | %d | %d | %s |\n",
			shortID(run.ID),
			run.StartedAt.Local().Format(reportTimeFormat),
			run.Outcome,
			run.Stats.Completed, run.Stats.Total,
			run.Stats.Errored,
			run.Stats.Pending,
			run.Workers,
			formatDuration(run),
		)
	}

	for _, run := range runs {
		res, ok := results[run.ID]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "\n## %s (%s)\n\n", shortID(run.ID), run.Outcome)
		if run.Manifest != "" {
			fmt.Fprintf(&b, "Manifest: `%s`\n\n", run.Manifest)
		}
		if len(res) == 0 {
			b.WriteString("No tasks finished.\n")
			continue
		}
		for _, r := range res {
			if r.Status == StatusError {
				fmt.Fprintf(&b, "- ✗ **%s**: %s\n", r.Name, r.Message)
				continue
			}
			fmt.Fprintf(&b, "- ✓ %s in %dms\n", r.Name, r.Elapsed.Milliseconds())
		}
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatDuration(run Run) string {
	if !run.Finished() {
		return "-"
	}
	return run.Duration().Round(time.Millisecond).String()
}

// RenderReport styles markdown for the terminal. Plain output uses glamour's
// notty style so no escape sequences are emitted.
func RenderReport(markdown string, width int, plain bool) (string, error) {
	style := glamour.WithAutoStyle()
	if plain {
		style = glamour.WithStandardStyle("notty")
	}
	r, err := glamour.NewTermRenderer(
		style,
		glamour.WithStylesFromJSONBytes([]byte(noMarginStyle)),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("creating markdown renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("rendering history: %w", err)
	}
	return out, nil
}
