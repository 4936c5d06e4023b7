package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/docmanager/internal/config"
	"github.com/iliyamo/docmanager/internal/database"
	"github.com/iliyamo/docmanager/internal/handler"
	"github.com/iliyamo/docmanager/internal/logging"
	"github.com/iliyamo/docmanager/internal/queue"
	"github.com/iliyamo/docmanager/internal/repository"
	"github.com/iliyamo/docmanager/internal/router"
	"github.com/iliyamo/docmanager/internal/service"
	"github.com/iliyamo/docmanager/internal/storage"
	"github.com/iliyamo/docmanager/internal/utils"
)

func main() {
	config.LoadDotEnv()
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg config.Config, logger *logging.SlogLogger) error {
	users, docs, closeStore, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	files, err := openFileStore(ctx, cfg)
	if err != nil {
		return err
	}

	tokens, err := utils.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.TokenTTL, nil)
	if err != nil {
		return err
	}

	var events service.EventPublisher = queue.NopPublisher{}
	if cfg.EventsEnabled {
		events = queue.NewAMQPPublisher(cfg.AMQPURL)
	}

	authSvc := service.NewAuthService(users, tokens, cfg.BcryptCost, logger.With("component", "auth"))
	userSvc := service.NewUserService(users, logger.With("component", "users"))
	docSvc := service.NewDocumentService(docs, files, events, logger.With("component", "documents"))

	seedAdmin(ctx, authSvc, logger)

	// A nil Scripter disables rate limiting; never pass a typed nil client.
	var limiter redis.Scripter
	if rdb, err := config.NewRedisClient(ctx, config.LoadRedisConfig()); err != nil {
		logger.Warn(ctx, "redis unavailable, rate limiting disabled", "err", err)
	} else {
		defer rdb.Close()
		limiter = rdb
	}

	e := router.New(router.Deps{
		Auth:        handler.NewAuthHandler(authSvc, userSvc),
		Users:       handler.NewUserHandler(userSvc),
		Documents:   handler.NewDocumentHandler(docSvc, files, cfg.MaxUploadBytes, logger.With("component", "upload")),
		Authn:       authSvc,
		RateLimit:   config.LoadRateLimitConfig(),
		Redis:       limiter,
		CORSOrigins: cfg.CORSOrigins,
		Log:         logger,
	})

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "listening", "addr", addr, "env", cfg.Env, "store", cfg.StoreDriver, "storage", cfg.StorageDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func openStores(ctx context.Context, cfg config.Config, logger logging.Logger) (service.UserStore, service.DocumentStore, func(), error) {
	if cfg.StoreDriver == config.StoreMemory {
		logger.Warn(ctx, "using in-memory store, data is lost on restart")
		users := repository.NewMemoryUserRepo()
		return users, repository.NewMemoryDocumentRepo(users), func() {}, nil
	}

	d := cfg.Database
	db, err := database.Open(ctx, database.DSN(d.User, d.Pass, d.Host, d.Port, d.Name))
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.Migrate {
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, nil, err
		}
		logger.Info(ctx, "migrations applied")
	}
	return repository.NewUserRepo(db), repository.NewDocumentRepo(db), func() { _ = db.Close() }, nil
}

func openFileStore(ctx context.Context, cfg config.Config) (storage.FileStore, error) {
	if cfg.StorageDriver == config.StorageS3 {
		return storage.NewS3Store(ctx, cfg.S3Region, cfg.S3Bucket, cfg.S3Prefix)
	}
	return storage.NewLocalStore(cfg.UploadDir)
}

// seedAdmin creates the bootstrap admin when SEED_ADMIN_EMAIL and
// SEED_ADMIN_PASSWORD are set.  Failure is logged, not fatal.
func seedAdmin(ctx context.Context, auth *service.AuthService, logger logging.Logger) {
	seed := config.LoadSeedConfig()
	if seed.Email == "" || seed.Password == "" {
		return
	}
	u, created, err := auth.EnsureAdmin(ctx, service.RegisterInput{Email: seed.Email, Password: seed.Password, Name: seed.Name})
	if err != nil {
		logger.Error(ctx, "seed admin failed", "err", err)
		return
	}
	if created {
		logger.Info(ctx, "seed admin created", "user_id", u.ID)
	}
}
