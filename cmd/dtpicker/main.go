package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"dtpicker/internal/capture"
	"dtpicker/internal/config"
	appLog "dtpicker/internal/log"
	"dtpicker/internal/telegram"
	"dtpicker/internal/web"
)

const appVersion = "0.1.0"

func main() {
	root := &cobra.Command{
		Use:           "dtpicker",
		Short:         "Date/time picker server, Telegram front end and tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       appVersion,
	}
	root.SetVersionTemplate("dtpicker v{{.Version}}\n")
	root.AddCommand(newServeCmd(), newLayoutCmd(), newCaptureCmd())

	err := root.Execute()
	appLog.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// signalContext is canceled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			appLog.Info("signal received, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

func newServeCmd() *cobra.Command {
	var (
		configPath   string
		listen       string
		withTelegram bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the picker page and API (and optionally the Telegram bot)",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := config.Load(configPath)
			if err != nil {
				appLog.Error("failed to load config", err, "config_path", configPath)
				return err
			}
			appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

			// CLI --listen overrides config file listen if provided.
			if listen != "" {
				conf.Listen = listen
			}
			if withTelegram {
				conf.Telegram.Enabled = true
				if err := conf.Validate(); err != nil {
					return err
				}
			}

			appLog.Info("effective config",
				"listen", conf.Listen,
				"log_level", conf.LogLevel,
				"session_ttl", conf.SessionTTL.Std().String(),
				"sweep_schedule", conf.SweepSchedule,
				"picker_count", len(conf.Pickers),
				"telegram", conf.Telegram.Enabled,
			)

			ctx, cancel := signalContext()
			defer cancel()

			errCh := make(chan error, 2)
			running := 1
			go func() { errCh <- web.StartServer(ctx, conf) }()
			if conf.Telegram.Enabled {
				running++
				go func() { errCh <- telegram.Start(ctx, conf) }()
			}

			// The first failure stops everything.
			var firstErr error
			for i := 0; i < running; i++ {
				if err := <-errCh; err != nil && firstErr == nil {
					firstErr = err
					cancel()
				}
			}
			appLog.Info("dtpicker exiting")
			return firstErr
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "/etc/dtpicker/config.yaml", "Path to config file")
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")
	cmd.Flags().BoolVar(&withTelegram, "telegram", false, "Also run the Telegram bot (token from config)")
	return cmd
}

func newCaptureCmd() *cobra.Command {
	var opts capture.CaptureOptions
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Open a picker in headless Chromium, measure its placement and screenshot it",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			res, err := capture.CapturePopover(ctx, opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "anchor:    %+v\n", res.Geometry.Anchor)
			fmt.Fprintf(out, "popover:   %+v\n", res.Geometry.Popover)
			fmt.Fprintf(out, "viewport:  %+v\n", res.Geometry.Viewport)
			fmt.Fprintf(out, "rendered:  %s\n", res.Vertical)
			fmt.Fprintf(out, "computed:  %s (left offset %g)\n", res.Placement.Vertical, res.Placement.LeftOffset)
			if opts.OutputPath != "" {
				fmt.Fprintf(out, "screenshot: %s\n", opts.OutputPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.URL, "url", "http://127.0.0.1:8080/", "Page to open")
	cmd.Flags().StringVar(&opts.Anchor, "anchor", "", "Id of the input to click")
	cmd.Flags().StringVar(&opts.OutputPath, "out", "", "PNG output path (empty: measure only)")
	cmd.Flags().IntVar(&opts.Width, "width", capture.DefaultWidth, "Viewport width")
	cmd.Flags().IntVar(&opts.Height, "height", capture.DefaultHeight, "Viewport height")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", capture.DefaultTimeoutSec*time.Second, "Overall timeout")
	_ = cmd.MarkFlagRequired("anchor")
	return cmd
}
