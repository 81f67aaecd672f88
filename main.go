package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/harrisonrobin/gitlab-gantt/pkg/auth"
	"github.com/harrisonrobin/gitlab-gantt/pkg/collect"
	"github.com/harrisonrobin/gitlab-gantt/pkg/config"
	"github.com/harrisonrobin/gitlab-gantt/pkg/gantt"
	"github.com/harrisonrobin/gitlab-gantt/pkg/gitlab"
	"github.com/harrisonrobin/gitlab-gantt/pkg/logging"
	"github.com/harrisonrobin/gitlab-gantt/pkg/schedule"
)

const defaultOutput = "gantt.html"

type options struct {
	configPath string
	output     string
	verbose    bool
	title      string
	now        string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, diagnostic(err))
		os.Exit(1)
	}
}

// diagnostic is the message printed for a fatal error. Configuration and
// group lookup failures lead with a fixed headline.
func diagnostic(err error) string {
	switch {
	case errors.Is(err, config.ErrIncomplete):
		return "Missing or incomplete configuration file\nError: " + err.Error()
	case errors.Is(err, collect.ErrGroupNotFound):
		return "Group not found or API permissions missing\nError: " + err.Error()
	default:
		return "Error: " + err.Error()
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "gitlab-gantt",
		Short: "Make a Gantt chart out of GitLab milestones",
		Long: `gitlab-gantt reads the active milestones of a GitLab group and of its
projects, together with the open issues of every project milestone, and
writes them as a Gantt chart to a standalone HTML file.

Milestones without a start date start when they were created; milestones
without a due date end one year from now. Issues with a due date take the
day before it, the others take the day they were created (or the milestone
start, if later).`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, cmd.Flags().Changed("config"), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", config.DefaultFile, "configuration file path")
	f.StringVarP(&opts.output, "output", "o", defaultOutput, "HTML output file path")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "print the task table before rendering")
	f.StringVar(&opts.title, "title", "", "chart title (default: full path of the group)")
	f.StringVar(&opts.now, "now", "", "reference day as YYYY-MM-DD (default: today)")
	return cmd
}

func run(ctx context.Context, opts *options, explicitConfig bool, stdout, stderr io.Writer) error {
	logging.Init(stderr, opts.verbose)
	defer logging.TrackTime(time.Now(), "gantt")

	now := time.Now()
	if opts.now != "" {
		d, err := schedule.ParseDay(opts.now)
		if err != nil {
			return fmt.Errorf("invalid --now: %w", err)
		}
		now = d
	}
	// Milestones without a due date end here.
	endOfTime := schedule.EndOfTime(now)

	path := config.Locate(opts.configPath, explicitConfig)
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	slog.Debug("configuration loaded", "path", path, "instance", cfg.Instance, "group", cfg.Group)

	httpClient, err := auth.GetClient(ctx, cfg.Token)
	if err != nil {
		return err
	}
	client, err := gitlab.NewClient(cfg.Instance, cfg.Token, httpClient)
	if err != nil {
		return err
	}

	user, err := client.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("authentication against %s failed: %w", cfg.Instance, err)
	}
	slog.Debug("authenticated", "user", user.Username)

	group, err := collect.ResolveGroup(ctx, client, cfg.Group)
	if err != nil {
		return err
	}
	slog.Info("building chart", "group", group.FullPath, "end_of_time", endOfTime.Format(gitlab.DateLayout))

	tl, err := collect.Build(ctx, client, group, endOfTime)
	if err != nil {
		return err
	}
	tasks := tl.Tasks()

	if opts.verbose {
		fmt.Fprintln(stdout, gantt.FormatTable(tasks))
	}

	title := opts.title
	if title == "" {
		title = group.FullPath
	}
	n, err := gantt.WriteFile(opts.output, tasks, gantt.Options{
		Title:     title,
		Today:     now,
		Generated: time.Now(),
	})
	if err != nil {
		return err
	}
	slog.Info("chart written", "path", opts.output, "tasks", len(tasks), "size", humanize.Bytes(uint64(n)))
	return nil
}
