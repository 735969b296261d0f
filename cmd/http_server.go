package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/hospital-management/internal"
	"github.com/frahmantamala/hospital-management/internal/accounts"
	accountsPostgres "github.com/frahmantamala/hospital-management/internal/accounts/postgres"
	"github.com/frahmantamala/hospital-management/internal/auth"
	authPostgres "github.com/frahmantamala/hospital-management/internal/auth/postgres"
	"github.com/frahmantamala/hospital-management/internal/cache"
	"github.com/frahmantamala/hospital-management/internal/emergency"
	emergencyPostgres "github.com/frahmantamala/hospital-management/internal/emergency/postgres"
	"github.com/frahmantamala/hospital-management/internal/notification"
	"github.com/frahmantamala/hospital-management/internal/rbac"
	rbacPostgres "github.com/frahmantamala/hospital-management/internal/rbac/postgres"
	"github.com/frahmantamala/hospital-management/internal/transport/rest"
	"github.com/frahmantamala/hospital-management/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config      *internal.Config
	DB          *sqlx.DB
	Redis       redis.UniversalClient
	Router      *chi.Mux
	AuthService *auth.Service
	Logger      *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := deps.Redis.Close(); err != nil {
			slog.Error("Redis close error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"))
	appLogger := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// gorm rides on the sqlx pool so both share one set of connections
	gormDB, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: db.DB}), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     config.Redis.Addr,
		Password: config.Redis.Password,
		DB:       config.Redis.DB,
	})
	revocationStore := cache.NewRevocationStore(redisClient)

	// repositories
	accountsRepo := accountsPostgres.NewRepository(gormDB)
	rbacRepo := rbacPostgres.NewRepository(gormDB)
	tokenRepo := authPostgres.NewTokenRepository(gormDB)
	otpRepo := authPostgres.NewOTPRepository(gormDB)
	lockRepo := authPostgres.NewLockRepository(gormDB)
	emergencyRepo := emergencyPostgres.NewRepository(gormDB)

	// services
	accountsService := accounts.NewService(accountsRepo, appLogger, config.Security.BCryptCost)
	rbacService := rbac.NewService(rbacRepo, appLogger)

	generator := auth.NewJWTGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)
	tokenService := auth.NewTokenService(generator, tokenRepo, revocationStore)
	otpService := auth.NewOTPService(otpRepo, config.Security.OTPExpiry, config.Security.OTPResetExpiry, config.Security.OTPMaxAttempts)
	lockPolicy := auth.NewLockPolicy(lockRepo, config.Security.LockoutThreshold, config.Security.LockoutDuration)

	var mailer auth.Mailer
	if config.Email.Host != "" {
		mailer = notification.NewSMTPMailer(config.Email)
	} else {
		slog.Warn("email host not configured, one-time codes will be logged instead of sent")
		mailer = notification.NewLogMailer()
	}

	authService := auth.NewService(accountsRepo, accountsService, tokenService, otpService, lockPolicy, rbacService, mailer)
	emergencyService := emergency.NewService(emergencyRepo, accountsRepo)

	// handlers
	authHandler := auth.NewHandler(authService)
	accountsHandler := accounts.NewHandler(accountsService, authService)
	rbacHandler := rbac.NewHandler(rbacService)
	emergencyHandler := emergency.NewHandler(emergencyService)

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, db.DB, revocationStore, authService, authHandler, accountsHandler, rbacHandler, emergencyHandler, appLogger)

	return &Dependencies{
		Config:      config,
		Logger:      appLogger,
		DB:          db,
		Redis:       redisClient,
		Router:      router,
		AuthService: authService,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
