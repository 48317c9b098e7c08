package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	studyassistant "automindmap/agents/study-assistant"
	"automindmap/agents/study-assistant/api"
	"automindmap/agents/study-assistant/youtube"
	"automindmap/internal/models"
	"automindmap/shared/ai"
	"automindmap/shared/config"
	"automindmap/shared/email"
	"automindmap/shared/monitoring"
	"automindmap/shared/scheduler"
	"automindmap/shared/storage"

	"github.com/spf13/cobra"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "automindmap",
		Short: "AI study assistant for YouTube videos and study notes",
		Long: `AutoMindMap turns YouTube videos into study summaries, explains selected
text in simpler terms and runs tutoring chats backed by Gemini.

Configuration is read from config.yaml (or CONFIG_FILE), .env and the environment.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newServeCmd(), newSummarizeCmd(), newExplainCmd(), newAuthorizeCmd())
	return rootCmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the maintenance scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := setup(ctx)
			if err != nil {
				return err
			}
			defer app.close()

			sched := scheduler.New(app.cfg, app.store, app.monitor, app.logger)
			if err := sched.RunOnce(ctx); err != nil {
				app.logger.Warn("initial maintenance run failed", "error", err)
			}
			go func() {
				if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
					app.logger.Error("scheduler stopped", "error", err)
				}
			}()

			mailer := email.NewSender(app.cfg.Email)
			if !mailer.Enabled() {
				app.logger.Info("SMTP not configured; password reset by email is disabled")
			}

			server := api.NewServer(app.cfg, app.store, app.assistant, mailer, app.monitor, app.logger)
			return server.Run(ctx)
		},
	}
}

func newSummarizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summarize <youtube-url>",
		Short: "Print a study summary of a YouTube video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close()

			sum, err := app.assistant.CreateSummary(cmd.Context(), "", args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n\n%s\n", sum.Title, sum.VideoDuration, sum.Summary)
			return nil
		},
	}
}

func newExplainCmd() *cobra.Command {
	var mode, style, duration, coverage string

	cmd := &cobra.Command{
		Use:   "explain [flags] <text>",
		Short: "Explain a piece of text in simpler terms",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close()

			text, err := app.assistant.ExplainText(cmd.Context(), models.ExplanationRequest{
				Text:         strings.Join(args, " "),
				Mode:         models.Mode(mode),
				Style:        models.Style(style),
				DurationHint: duration,
				CoverageHint: coverage,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "medium", "Length: short, medium, long or comprehensive")
	cmd.Flags().StringVar(&style, "style", "standard", "Voice: standard, teacher, expert or accessible")
	cmd.Flags().StringVar(&duration, "duration", "", "Narration length for comprehensive mode, e.g. \"3 minutes\"")
	cmd.Flags().StringVar(&coverage, "coverage", "", "What comprehensive mode must cover")
	return cmd
}

func newAuthorizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "authorize",
		Short: "Authorize YouTube caption access and store the OAuth token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			return youtube.Authorize(cmd.Context(), cfg.YouTube, cmd.OutOrStdout())
		},
	}
}

// app holds the wired dependencies shared by the commands.
type app struct {
	cfg       *config.Config
	store     *storage.Store
	monitor   *monitoring.Monitor
	assistant *studyassistant.Assistant
	logger    *slog.Logger
}

func setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := newLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	store, err := storage.Open(ctx, cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	client, err := ai.NewClient(ctx, cfg.AI)
	if err != nil {
		store.Close()
		return nil, err
	}
	gen := ai.NewGenerator(client, cfg.AI, logger)
	tutor := ai.NewTutor(gen, cfg.AI.ChatModel, cfg.AI.MaxAttempts, logger)

	resolver, err := youtube.NewResolver(ctx, cfg.YouTube, store, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	monitor := monitoring.NewMonitor(logger)
	return &app{
		cfg:       cfg,
		store:     store,
		monitor:   monitor,
		assistant: studyassistant.New(store, resolver, tutor, monitor, logger),
		logger:    logger,
	}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close database", "error", err)
	}
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
