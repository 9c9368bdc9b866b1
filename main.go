package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hayatoa/threads-auto-post-gs/domain/repository"
	"github.com/hayatoa/threads-auto-post-gs/infrastructure/clients/threads"
	"github.com/hayatoa/threads-auto-post-gs/infrastructure/configuration"
	"github.com/hayatoa/threads-auto-post-gs/infrastructure/googlesheet"
	"github.com/hayatoa/threads-auto-post-gs/infrastructure/logger"
	httpHandler "github.com/hayatoa/threads-auto-post-gs/interfaces/http"
	"github.com/hayatoa/threads-auto-post-gs/server"
	"github.com/hayatoa/threads-auto-post-gs/usecase"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type options struct {
	mode        string
	intervalMin int
	maxPerRun   int
	window      string
	timeStr     string
	times       string
	jitterMin   int
	statusAddr  string
}

// usageError marks configuration/parameter problems that terminate the
// process with exit code 2 and a usage message on stderr.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func main() {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:           "threads-auto-post-gs",
		Short:         "Post spreadsheet rows to the Threads API on a schedule",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}

	rootCmd.Flags().StringVar(&opts.mode, "mode", "batch", "batch | schedule | daily_window | daily_at | daily_multi_at")
	rootCmd.Flags().IntVar(&opts.intervalMin, "interval-min", 120, "minutes between firings (schedule mode)")
	rootCmd.Flags().IntVar(&opts.maxPerRun, "max-per-run", 0, "max rows processed per batch invocation (0 = unbounded)")
	rootCmd.Flags().StringVar(&opts.window, "window", "", "HH:MM-HH:MM daily window (daily_window mode)")
	rootCmd.Flags().StringVar(&opts.timeStr, "time", "", "HH:MM daily time (daily_at mode)")
	rootCmd.Flags().StringVar(&opts.times, "times", "", "comma-separated HH:MM list (daily_multi_at mode)")
	rootCmd.Flags().IntVar(&opts.jitterMin, "jitter-min", 30, "jitter in minutes around daily times")
	rootCmd.Flags().StringVar(&opts.statusAddr, "status-addr", "", "listen address for the status HTTP server (empty = disabled)")

	if err := rootCmd.Execute(); err != nil {
		var ue *usageError
		if errors.As(err, &ue) {
			fmt.Fprintln(os.Stderr, ue.msg)
			_ = rootCmd.Usage()
			os.Exit(2)
		}
		logger.GetLogger().WithField("error", err).Error("Run failed")
		os.Exit(1)
	}
}

// splitTimes turns "09:00, 21:30" into its non-empty entries.
func splitTimes(csv string) []string {
	var out []string
	for _, t := range strings.Split(csv, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func validateMode(opts *options) ([]string, error) {
	switch opts.mode {
	case "batch", "schedule":
		return nil, nil
	case "daily_window":
		if opts.window == "" {
			return nil, &usageError{msg: "Please set --window HH:MM-HH:MM"}
		}
		return nil, nil
	case "daily_at":
		if opts.timeStr == "" {
			return nil, &usageError{msg: "Please set --time HH:MM"}
		}
		return nil, nil
	case "daily_multi_at":
		times := splitTimes(opts.times)
		if len(times) == 0 {
			return nil, &usageError{msg: "Please set --times as comma-separated HH:MM"}
		}
		return times, nil
	default:
		return nil, &usageError{msg: fmt.Sprintf("unknown --mode %q", opts.mode)}
	}
}

func run(opts *options) error {
	// Env files are loaded before config validation; OS env keeps
	// precedence over both files.
	configuration.LoadEnvFromFile("config.env", ".env")
	configuration.LoadConfig()
	cfg := &configuration.C

	times, err := validateMode(opts)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return &usageError{msg: err.Error()}
	}
	loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		return &usageError{msg: fmt.Sprintf("invalid TIMEZONE %q: %v", cfg.Scheduler.Timezone, err)}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	threadsClient := threads.NewThreadsClient(&threads.Config{
		UserID:      cfg.Threads.UserID,
		AccessToken: cfg.Threads.AccessToken,
		APIBase:     cfg.Threads.APIBase,
	})
	openStore := func(ctx context.Context) (repository.IRowStore, error) {
		return googlesheet.NewSheetStore(ctx, &googlesheet.Config{
			SpreadsheetURL:  cfg.Sheet.URL,
			Tab:             cfg.Sheet.Tab,
			CredentialsFile: cfg.Sheet.CredentialsFile,
			Location:        loc,
		})
	}

	tracker := usecase.NewRunTracker(opts.mode, cfg.Scheduler.Timezone)
	postUsecase := usecase.NewPostUsecase(openStore, threadsClient, tracker, os.Stdout)
	scheduleUsecase := usecase.NewScheduleUsecase(postUsecase, loc, tracker)

	statusAddr := opts.statusAddr
	if statusAddr == "" {
		statusAddr = cfg.App.StatusAddr
	}
	if statusAddr != "" {
		router := server.InitiateRouter(httpHandler.NewStatusHandler(tracker))
		httpServer := &http.Server{Addr: statusAddr, Handler: router}
		logger.GetLogger().WithField("addr", statusAddr).Info("Starting status server")
		g.Go(func() error {
			if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			return httpServer.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		// Batch mode finishes on its own; cancel so the status server
		// (if any) shuts down with it.
		defer cancel()
		switch opts.mode {
		case "batch":
			return postUsecase.RunBatch(ctx, opts.maxPerRun)
		case "schedule":
			return scheduleUsecase.RunInterval(ctx, opts.intervalMin)
		case "daily_window":
			return scheduleUsecase.RunDailyWindow(ctx, opts.window)
		case "daily_at":
			return scheduleUsecase.RunDailyAt(ctx, opts.timeStr, opts.jitterMin)
		default:
			return scheduleUsecase.RunDailyMultiAt(ctx, times, opts.jitterMin)
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.GetLogger().Info("Shutdown complete")
	return nil
}
