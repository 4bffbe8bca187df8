// Package server wires the blog server together: configuration, logging, the
// database and its migrations, cover storage, the HTTP API and the gRPC
// health endpoint. It handles OS signals and shuts everything down gracefully.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gopherblog/internal/logging"
	"github.com/dmitrijs2005/gopherblog/internal/server/auth"
	"github.com/dmitrijs2005/gopherblog/internal/server/config"
	"github.com/dmitrijs2005/gopherblog/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gopherblog/internal/server/rest"
	"github.com/dmitrijs2005/gopherblog/internal/server/services"
	"github.com/dmitrijs2005/gopherblog/internal/server/storage"
	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"

	gs "github.com/dmitrijs2005/gopherblog/internal/server/grpc"
)

var (
	openDB = func(dsn string) (*sql.DB, error) {
		return sql.Open("pgx", dsn)
	}

	newRepositoryManager = repomanager.NewPostgresRepositoryManager

	logOutput io.Writer = os.Stdout
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	storage     storage.Storage
	userService *services.UserService
	postService *services.PostService
	gate        *auth.Gate
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(c.LogBackend, c.LogLevel, logOutput)
	if err != nil {
		return nil, err
	}

	tokens, err := auth.NewTokenService([]byte(c.SecretKey), c.TokenValidityDuration)
	if err != nil {
		return nil, err
	}

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := newRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	st, err := newStorage(ctx, c)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		storage:     st,
		userService: services.NewUserService(db, rm, auth.NewBcryptHasher(), tokens, logger.With("module", "users")),
		postService: services.NewPostService(db, rm, st, logger.With("module", "posts")),
		gate:        auth.NewGate(tokens),
	}, nil
}

func newStorage(ctx context.Context, c *config.Config) (storage.Storage, error) {
	switch c.StorageBackend {
	case config.StorageS3:
		return storage.NewS3Storage(ctx, storage.S3Config{
			Region:       c.S3Region,
			RootUser:     c.S3RootUser,
			RootPassword: c.S3RootPassword,
			BaseEndpoint: c.S3BaseEndpoint,
			Bucket:       c.S3Bucket,
		})
	case config.StorageLocal:
		return storage.NewLocalStorage(c.UploadDir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
}

// Handler returns the HTTP API.
func (app *App) Handler() *gin.Engine {
	h := rest.NewHandlers(app.userService, app.postService, app.config.MaxUploadSize)
	return rest.NewRouter(h, app.gate, app.storage, app.logger, rest.RouterConfig{
		AllowedOrigins: app.config.AllowedOrigins(),
		RequestTimeout: app.config.RequestTimeout,
	})
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := rest.NewHTTPServer(app.config.HTTPAddr, app.Handler(), app.logger, app.config.RequestTimeout)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHealthServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewHealthServer(app.config.HealthAddrGRPC, app.logger, app.db.PingContext)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is canceled, a signal arrives or a server fails.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.config.HealthAddrGRPC != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startHealthServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
