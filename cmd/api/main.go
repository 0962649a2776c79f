package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/InternConnect/internal/auth"
	"github.com/justsurfingit/InternConnect/internal/config"
	"github.com/justsurfingit/InternConnect/internal/database"
	"github.com/justsurfingit/InternConnect/internal/handlers"
	"github.com/justsurfingit/InternConnect/internal/logging"
	"github.com/justsurfingit/InternConnect/internal/mailer"
	"github.com/justsurfingit/InternConnect/internal/ratelimit"
	"github.com/justsurfingit/InternConnect/internal/services"
	"github.com/justsurfingit/InternConnect/internal/storage"
	"github.com/spf13/cobra"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

var cfgFile string

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "internconnect",
		Short:        "InternConnect job board and applicant tracker",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "optional YAML config file")
	cmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	serve := newServeCmd()
	serve.Flags().Int("port", 8080, "HTTP listen port")

	cmd.AddCommand(serve, newMigrateCmd(), newCreateAdminCmd(), newGmailAuthCmd())
	return cmd
}

// loadConfig reads the configuration and sets up logging for every command.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(cmd.Flags(), cfgFile)
	if err != nil {
		return cfg, err
	}
	logging.Setup(cfg.Log.Level)
	return cfg, nil
}

// openDatabase connects and migrates.
func openDatabase(cfg config.Config) (*gorm.DB, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the background workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	// 1. Database Connection
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	// 2. Rate limiter: shared through Redis when configured
	var limiter ratelimit.Limiter = ratelimit.NewMemory()
	if cfg.Redis.URL != "" {
		client, err := ratelimit.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			logging.L.Warn("⚠️ Redis unavailable, using in-memory rate limits", "error", err)
		} else {
			defer client.Close()
			limiter = ratelimit.NewRedis(client)
			logging.L.Info("✅ Redis rate limiter connected")
		}
	}

	// 3. Object storage
	store, files, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if closer, ok := store.(io.Closer); ok {
		defer closer.Close()
	}

	// 4. Core services
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	llmService, err := services.NewLLMService(ctx, cfg.AI.GeminiAPIKey, cfg.AI.ChatModel, cfg.AI.EmbeddingModel)
	if err != nil {
		if !errors.Is(err, services.ErrAIUnavailable) {
			return err
		}
		logging.L.Warn("⚠️ GEMINI_API_KEY not set, AI features disabled")
	}

	// 5. Gmail integration
	emailService := services.NewEmailService(db, newMailer(ctx, cfg))

	employers := services.NewEmployerService(db, store, cfg.Storage.URLTTL)
	students := services.NewStudentService(db, store, llmService, cfg.Storage.URLTTL)
	interviews := services.NewInterviewService(db, emailService)
	matcher := services.NewMatcherService(db, llmService)
	admin := services.NewAdminService(db, employers, emailService)

	// 6. Background workers
	emailService.StartWatcher(ctx, cfg.Workers.ReminderInterval, cfg.Workers.ReminderLead)
	if llmService != nil {
		matcher.StartRefresher(ctx, cfg.Workers.MatchInterval)
	}

	// 7. Router
	gin.SetMode(gin.ReleaseMode)
	router := handlers.NewRouter(handlers.Dependencies{
		DB:             db,
		Tokens:         tokens,
		Limiter:        limiter,
		Files:          files,
		CORSOrigins:    cfg.HTTP.CORSOrigins,
		CookieSecure:   cfg.Auth.CookieSecure,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		LLM:            llmService,
		Auth:           services.NewAuthService(db, tokens),
		Students:       students,
		Employers:      employers,
		Jobs:           services.NewJobService(db, llmService),
		Applications:   services.NewApplicationService(db, store, llmService, emailService, cfg.Storage.URLTTL),
		Interviews:     interviews,
		Matcher:        matcher,
		Admin:          admin,
		Posts:          services.NewPostService(db),
		Dashboards: &services.DashboardService{
			DB:         db,
			Students:   students,
			Employers:  employers,
			Interviews: interviews,
			Matcher:    matcher,
			Admin:      admin,
		},
	})

	// 8. Serve until interrupted, then drain
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logging.L.Info("🚀 Server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logging.L.Info("Shutting down", "timeout", shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStore picks the storage backend. files is only set for local disk,
// whose signed URLs are served by the API itself.
func openStore(ctx context.Context, cfg config.Config) (storage.Store, *storage.Local, error) {
	if cfg.Storage.Backend == "gcs" {
		store, err := storage.NewGCS(ctx, cfg.Storage.Bucket, cfg.Storage.CredentialsFile)
		if err != nil {
			return nil, nil, err
		}
		logging.L.Info("✅ Using Google Cloud Storage", "bucket", cfg.Storage.Bucket)
		return store, nil, nil
	}
	key := cfg.Storage.SigningKey
	if key == "" {
		key = cfg.Auth.JWTSecret
	}
	local, err := storage.NewLocal(cfg.Storage.LocalDir, cfg.PublicBaseURL, key)
	if err != nil {
		return nil, nil, err
	}
	logging.L.Info("Using local file storage", "dir", cfg.Storage.LocalDir)
	return local, local, nil
}

// newMailer connects Gmail when a token is available and logs mail otherwise.
func newMailer(ctx context.Context, cfg config.Config) mailer.Mailer {
	logging.L.Info("Initializing Gmail Client...")
	httpClient, err := auth.GmailClient(ctx, cfg.Mail.CredentialsFile, cfg.Mail.TokenFile)
	if err != nil {
		logging.L.Warn("⚠️ Gmail not configured, emails will only be logged", "error", err)
		return mailer.LogMailer{}
	}
	gmailService, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		logging.L.Warn("⚠️ Failed to create Gmail Service", "error", err)
		return mailer.LogMailer{}
	}
	logging.L.Info("✅ Gmail Service connected successfully.")
	return mailer.NewGmail(gmailService, cfg.Mail.Sender)
}
