package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/zjrosen/haul/internal/config"
	"github.com/zjrosen/haul/internal/engine"
	"github.com/zjrosen/haul/internal/flags"
	"github.com/zjrosen/haul/internal/history"
	"github.com/zjrosen/haul/internal/log"
	"github.com/zjrosen/haul/internal/task"
	"github.com/zjrosen/haul/internal/tracing"
	"github.com/zjrosen/haul/internal/watcher"
)

var (
	watchFlag bool
	runFlags  *pflag.FlagSet
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Install the packages in a manifest",
	Long: `Install every package in a manifest using a fixed pool of workers.

Tasks with a url are downloaded; tasks without one are simulated by their
size. Without --manifest the built-in package list is installed.

Examples:
  # Install the built-in package list
  haul run

  # Four workers, failed workers keep taking tasks
  haul run -m packages.yaml -w 4 --error-policy refeed

  # Re-run whenever the manifest is saved
  haul run -m packages.yaml --watch

  # One line per event, for logs and CI
  haul run -m packages.yaml --plain`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runRun,
}

// addRunFlags adds the run flags to cmd. Every command shares one flag set
// so the viper bindings hold whichever command was invoked.
func addRunFlags(cmd *cobra.Command) {
	if runFlags == nil {
		runFlags = pflag.NewFlagSet("run", pflag.ContinueOnError)
		runFlags.StringP("manifest", "m", "", "YAML manifest of tasks (default: built-in package list)")
		runFlags.IntP("workers", "w", 0, "number of concurrent workers (default 2)")
		runFlags.String("error-policy", "", "after a failed task: leave-idle or refeed")
		runFlags.Bool("plain", false, "print one line per event instead of the live view")
		runFlags.BoolVar(&watchFlag, "watch", false, "re-run whenever the manifest changes")

		_ = viper.BindPFlag("manifest", runFlags.Lookup("manifest"))
		_ = viper.BindPFlag("workers", runFlags.Lookup("workers"))
		_ = viper.BindPFlag("error_policy", runFlags.Lookup("error-policy"))
		_ = viper.BindPFlag("plain", runFlags.Lookup("plain"))
	}
	cmd.Flags().AddFlagSet(runFlags)
}

func init() {
	addRunFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if watchFlag && cfg.Manifest == "" {
		return errors.New("--watch needs a manifest (--manifest or manifest: in the config)")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := newRunner(cfg, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	r.plain = cfg.Plain || !isTerminal(cmd.OutOrStdout())

	registry := flags.New(cfg.Flags)

	provider, err := tracing.NewProvider(tracingConfig(cfg, registry))
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() { _ = provider.Shutdown(context.Background()) }()
	r.tracer = provider.Tracer()

	if registry.Enabled(flags.FlagRunHistory) {
		db, err := history.NewDB(cfg.History.Path)
		if err != nil {
			// History is a side record; the run goes ahead without it.
			log.ErrorErr(log.CatHistory, "History unavailable", err, "path", cfg.History.Path)
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: run history disabled: %v\n", err)
		} else {
			defer func() { _ = db.Close() }()
			r.runs = db.RunRepository()
		}
	}

	if watchFlag {
		return r.watch(ctx)
	}

	tasks, err := loadTasks(cfg.Manifest)
	if err != nil {
		return err
	}
	result, err := r.runOnce(ctx, tasks)
	if err != nil {
		return err
	}
	return resultError(result)
}

// tracingConfig applies defaults the config file leaves to runtime, and the
// trace-tasks flag, which records spans without exporting them.
func tracingConfig(c config.Config, registry *flags.Registry) tracing.Config {
	t := c.Tracing
	if !t.Enabled && registry.Enabled(flags.FlagTraceTasks) {
		t.Enabled = true
		t.Exporter = tracing.ExporterNone
	}
	if t.Exporter == tracing.ExporterFile && t.FilePath == "" {
		t.FilePath = config.DefaultTracePath()
	}
	return t
}

func loadTasks(manifest string) ([]task.Task, error) {
	if manifest == "" {
		return task.DefaultPackages(), nil
	}
	tasks, err := task.LoadManifest(manifest)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", manifest, err)
	}
	return tasks, nil
}

// watch runs the manifest, then again after every change, until ctx ends.
// A failed run is reported and waits for the next change.
func (r *runner) watch(ctx context.Context) error {
	w, err := watcher.New(watcher.DefaultConfig(r.manifest))
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	changes, err := w.Start()
	if err != nil {
		return err
	}

	for {
		if err := r.watchRun(ctx); err != nil {
			_, _ = fmt.Fprintf(r.errOut, "Error: %v\n", err)
		}
		_, _ = fmt.Fprintf(r.out, "Watching %s for changes (ctrl+c to stop)\n", r.manifest)

		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			log.Info(log.CatWatch, "Manifest changed, starting a new run", "path", r.manifest)
		}
	}
}

func (r *runner) watchRun(ctx context.Context) error {
	tasks, err := loadTasks(r.manifest)
	if err != nil {
		return err
	}
	result, err := r.runOnce(ctx, tasks)
	if err != nil {
		return err
	}
	if result.Outcome == engine.OutcomeQuit {
		return nil
	}
	return resultError(result)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
