package admin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/axon-labs/axon/internal/api/handlers"
	"github.com/axon-labs/axon/internal/config"
	"github.com/axon-labs/axon/internal/database"
	"github.com/axon-labs/axon/internal/domain"
	"github.com/axon-labs/axon/internal/jobs"
	"github.com/axon-labs/axon/internal/llm"
	"github.com/axon-labs/axon/internal/rag"
	"github.com/axon-labs/axon/internal/repository"
	"github.com/axon-labs/axon/internal/server"
	"github.com/axon-labs/axon/internal/service"
	"github.com/axon-labs/axon/internal/storage"
	"github.com/axon-labs/axon/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the axon API server and the enrichment worker",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")
	cmd.Flags().Bool("no-worker", false, "Do not start the background enrichment worker")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.SentryDSN != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	itemRepo := repository.NewItemRepository(pool)
	jobRepo := repository.NewEnrichmentJobRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	apiKeyRepo := repository.NewAPIKeyRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	uuidGen := &service.DefaultUUIDGenerator{}
	authSvc := service.NewAuthService(userRepo, apiKeyRepo, uuidGen)

	if cfg.InitUserEmail != "" {
		if err := bootstrapInitialUser(ctx, cfg, authSvc); err != nil {
			return fmt.Errorf("failed to bootstrap initial user: %w", err)
		}
	}

	completionClient := llm.NewCompletionClient(llm.CompletionConfig{
		GroqAPIKey:    cfg.GroqAPIKey,
		GroqBaseURL:   cfg.GroqBaseURL,
		GroqModel:     cfg.GroqModel,
		GeminiAPIKey:  cfg.GeminiAPIKey,
		GeminiBaseURL: cfg.GeminiBase,
		GeminiModel:   cfg.GeminiModel,
		CallTimeout:   cfg.LLMTimeout,
	})

	ragEngine := rag.NewEngine(rag.NewContextEngine(itemRepo), completionClient)

	var embedder jobs.Embedder
	if cfg.HasEmbeddings() {
		embeddingClient, err := llm.NewEmbeddingClient(llm.EmbeddingConfig{APIKey: cfg.OpenAIAPIKey})
		if err != nil {
			return fmt.Errorf("failed to create embedding client: %w", err)
		}
		embedder = embeddingClient
		log.Println("embedding generation enabled")
	}

	var enrichmentWorker *jobs.Worker
	noWorker, _ := cmd.Flags().GetBool("no-worker")
	if !noWorker {
		processor := jobs.NewEnrichmentWorker(jobRepo, itemRepo, ragEngine, embedder)
		enrichmentWorker = jobs.NewWorker(processor, cfg.WorkerPollInterval)
		go enrichmentWorker.Start(ctx)
		log.Println("enrichment worker started")
	}

	itemSvc := service.NewItemService(itemRepo, jobRepo, txRunner)

	var attachmentHandler *handlers.AttachmentHandler
	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)

		attachmentSvc := service.NewAttachmentService(attachmentRepo, itemRepo, &S3StorageAdapter{client: s3Client})
		attachmentHandler = handlers.NewAttachmentHandler(attachmentSvc)
	} else {
		attachmentHandler = handlers.NewAttachmentHandler(&NoOpAttachmentService{})
	}

	routerCfg := server.RouterConfig{
		AuthValidator:     authSvc,
		ItemHandler:       handlers.NewItemHandler(itemSvc),
		AssistHandler:     handlers.NewAssistHandler(ragEngine, itemSvc),
		AttachmentHandler: attachmentHandler,
		AuthHandler:       handlers.NewAuthHandler(authSvc),
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if enrichmentWorker != nil {
		enrichmentWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

type S3StorageAdapter struct {
	client *storage.S3Client
}

func (a *S3StorageAdapter) GenerateUploadURL(ctx context.Context, key string, contentType string) (string, error) {
	return a.client.GenerateUploadURL(ctx, key, contentType)
}

func (a *S3StorageAdapter) GenerateDownloadURL(ctx context.Context, key string) (string, error) {
	return a.client.GenerateDownloadURL(ctx, key)
}

func (a *S3StorageAdapter) DeleteObject(ctx context.Context, key string) error {
	return a.client.DeleteObject(ctx, key)
}

func (a *S3StorageAdapter) HeadObject(ctx context.Context, key string) (*service.ObjectMetadata, error) {
	meta, err := a.client.HeadObject(ctx, key)
	if err != nil {
		return nil, err
	}
	return &service.ObjectMetadata{
		ContentLength: meta.ContentLength,
		ContentType:   meta.ContentType,
		ETag:          meta.ETag,
	}, nil
}

type NoOpAttachmentService struct{}

var errAttachmentsNotConfigured = fmt.Errorf("attachment service not configured: S3_ENDPOINT required")

func (s *NoOpAttachmentService) InitUpload(ctx context.Context, input service.InitUploadInput) (*service.InitUploadResult, error) {
	return nil, errAttachmentsNotConfigured
}

func (s *NoOpAttachmentService) CompleteUpload(ctx context.Context, input service.CompleteUploadInput) (*domain.Attachment, error) {
	return nil, errAttachmentsNotConfigured
}

func (s *NoOpAttachmentService) GetDownloadURL(ctx context.Context, userID, attachmentID string) (string, error) {
	return "", errAttachmentsNotConfigured
}

func (s *NoOpAttachmentService) ListByItem(ctx context.Context, userID, itemID string) ([]*domain.Attachment, error) {
	return nil, errAttachmentsNotConfigured
}

func (s *NoOpAttachmentService) Delete(ctx context.Context, userID, attachmentID string) error {
	return errAttachmentsNotConfigured
}

func bootstrapInitialUser(ctx context.Context, cfg *config.Config, authSvc *service.AuthService) error {
	user, err := authSvc.GetUserByEmail(ctx, cfg.InitUserEmail)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return fmt.Errorf("failed to check existing user: %w", err)
	}

	if user == nil {
		user, err = authSvc.CreateUser(ctx, cfg.InitUserEmail, "")
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		log.Printf("bootstrap: created user '%s' (id: %s)", user.Email, user.ID)
	} else {
		log.Printf("bootstrap: user '%s' already exists (id: %s)", user.Email, user.ID)
	}

	if cfg.InitAPIKey != "" {
		if !service.IsValidAPIToken(cfg.InitAPIKey) {
			return fmt.Errorf("invalid AXON_INIT_API_KEY format (expected 'axn_<64 hex chars>')")
		}

		if _, err := authSvc.ValidateAPIKey(ctx, cfg.InitAPIKey); err == nil {
			log.Println("bootstrap: API key already exists")
			return nil
		}

		if err := authSvc.CreateAPIKeyWithToken(ctx, user.ID, "bootstrap", cfg.InitAPIKey); err != nil {
			return fmt.Errorf("failed to create API key: %w", err)
		}
		log.Println("bootstrap: created API key")
	}

	return nil
}

func runMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
