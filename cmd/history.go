package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/haul/internal/history"
)

var (
	historyLimit int
	historyRun   string
	historyPlain bool
	historyWidth int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent runs",
	Long: `Show recent runs recorded in the history database.

Examples:
  # The ten most recent runs
  haul history

  # Task results for one run (a prefix of its ID is enough)
  haul history --run 0f8fad5b`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of runs to show")
	historyCmd.Flags().StringVarP(&historyRun, "run", "r", "", "show task results for the run with this ID or ID prefix")
	historyCmd.Flags().BoolVar(&historyPlain, "plain", false, "render without colour")
	historyCmd.Flags().IntVar(&historyWidth, "width", 100, "wrap width")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	db, err := history.NewDB(cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	md, err := historyMarkdown(db.RunRepository(), historyLimit, historyRun)
	if err != nil {
		return err
	}

	out, err := history.RenderReport(md, historyWidth, historyPlain || !isTerminal(cmd.OutOrStdout()))
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), out)
	return err
}

// historyMarkdown lists recent runs, with task details for the run matching
// prefix when one is given.
func historyMarkdown(repo history.RunRepository, limit int, prefix string) (string, error) {
	runs, err := repo.Recent(limit)
	if err != nil {
		return "", err
	}
	if prefix == "" {
		return history.Markdown(runs, nil), nil
	}

	run, err := findRun(repo, runs, prefix)
	if err != nil {
		return "", err
	}
	results, err := repo.Results(run.ID)
	if err != nil {
		return "", err
	}
	return history.Markdown([]history.Run{*run}, map[string][]history.TaskResult{run.ID: results}), nil
}

func findRun(repo history.RunRepository, recent []history.Run, prefix string) (*history.Run, error) {
	if run, err := repo.Get(prefix); err == nil {
		return run, nil
	}
	var match *history.Run
	for i := range recent {
		if len(recent[i].ID) >= len(prefix) && recent[i].ID[:len(prefix)] == prefix {
			if match != nil {
				return nil, fmt.Errorf("run prefix %q is ambiguous", prefix)
			}
			match = &recent[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %s", history.ErrRunNotFound, prefix)
	}
	return match, nil
}
