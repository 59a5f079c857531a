package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"avrec/internal/bootstrap"
	"avrec/internal/platform/config"
	apperrors "avrec/internal/platform/errors"
	"avrec/internal/platform/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type globalFlags struct {
	dataDir    string
	configPath string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "avrec",
		Short:         "Audio & video recorder",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runTUI(flags)
		},
	}
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory (default "+config.DefaultDataDir()+")")
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default <data-dir>/config.yaml)")

	root.AddCommand(newTUICmd(flags))
	root.AddCommand(newRecordCmd(flags))
	root.AddCommand(newListCmd(flags))
	root.AddCommand(newDownloadCmd(flags))
	root.AddCommand(newDoctorCmd(flags))
	return root
}

func loadApp(ctx context.Context, flags *globalFlags) (*bootstrap.App, error) {
	cfg, err := config.New(flags.dataDir, flags.configPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Errorw("startup failed", "error", err)
		_ = logger.Sync()
		return nil, err
	}
	return app, nil
}

func runTUI(flags *globalFlags) error {
	app, err := loadApp(context.Background(), flags)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()
	return bootstrap.RunTUI(app)
}

func newTUICmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the recorder terminal UI",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runTUI(flags)
		},
	}
}

func newRecordCmd(flags *globalFlags) *cobra.Command {
	var mode string
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record until the duration elapses or Ctrl-C",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := loadApp(ctx, flags)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			if err := app.CaptureCLI.SetMode(ctx, mode); err != nil {
				return err
			}
			started, err := app.CaptureCLI.Start(ctx)
			if errors.Is(err, context.Canceled) {
				return fmt.Errorf("recording cancelled before capture began: %w", err)
			}
			if err != nil {
				return fmt.Errorf("%s: %w", apperrors.Message(err), err)
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "recording %s (%s), press Ctrl-C to stop\n", started.Mode, started.SessionID)

			var timeout <-chan time.Time
			if duration > 0 {
				timer := time.NewTimer(duration)
				defer timer.Stop()
				timeout = timer.C
			}
			select {
			case <-ctx.Done():
			case <-timeout:
			}

			// The signal context is spent by now; finalization runs on a fresh one.
			stopped, err := app.CaptureCLI.Stop(context.Background())
			if err != nil {
				return err
			}
			if err := app.CaptureCLI.Wait(context.Background()); err != nil {
				return err
			}
			snap := app.CaptureCLI.Snapshot(context.Background())
			if snap.Err != nil {
				return fmt.Errorf("%s: %w", snap.ErrorMessage, snap.Err)
			}
			if snap.Last == nil {
				return fmt.Errorf("recording produced no output")
			}
			_, _ = fmt.Fprintf(out, "stopped %s after %ds\n%s\n", stopped.Mode, stopped.ElapsedSeconds, snap.Last.Handle)
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "audio", "capture mode: audio|video")
	cmd.Flags().DurationVar(&duration, "duration", 0, "stop automatically after this long (0 waits for Ctrl-C)")
	return cmd
}

func newListCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved recordings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			items, err := app.RecordingsCLI.Enumerate(cmd.Context())
			if err != nil {
				return err
			}
			if len(items) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No previous recordings.")
				return nil
			}
			for i, rec := range items {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%s\n", i+1, rec.Type, rec.Date, rec.URL)
			}
			return nil
		},
	}
}

func newDownloadCmd(flags *globalFlags) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "download <index>",
		Short: "Save the n-th listed recording to the download directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("index must be a number: %w", apperrors.ErrInvalidInput)
			}
			app, err := loadApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			items, err := app.RecordingsCLI.Enumerate(cmd.Context())
			if err != nil {
				return err
			}
			if index < 1 || index > len(items) {
				return fmt.Errorf("no recording #%d (have %d): %w", index, len(items), apperrors.ErrNotFound)
			}
			rec := items[index-1]
			if mode == "" {
				mode = rec.Type
			}
			out, err := app.CaptureCLI.Download(cmd.Context(), rec.URL, mode)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%d bytes)\n", out.Path, out.Bytes)
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "file name mode: audio|video (default: the recording's own type)")
	return cmd
}

func newDoctorCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the capture backend is usable",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			if err := app.CaptureCLI.Check(cmd.Context()); err != nil {
				return fmt.Errorf("capture backend unavailable: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "capture backend ok")
			return nil
		},
	}
}
