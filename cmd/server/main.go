package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"github.com/libertas-alpha/auth-service/internal/handlers"
	"github.com/libertas-alpha/auth-service/internal/jwt"
	"github.com/libertas-alpha/auth-service/internal/logger"
	"github.com/libertas-alpha/auth-service/internal/mailer"
	"github.com/libertas-alpha/auth-service/internal/middlewares"
	"github.com/libertas-alpha/auth-service/internal/migrations"
	"github.com/libertas-alpha/auth-service/internal/repositories"
	"github.com/libertas-alpha/auth-service/internal/services"
	"github.com/libertas-alpha/auth-service/internal/token"
	"github.com/libertas-alpha/auth-service/internal/wallet"

	_ "github.com/jackc/pgx/v5/stdlib"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the service
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

// @title auth-service API
// @version 1.0.0
// @description Registration, email confirmation, login, and password reset with per-user Ethereum wallets
// @host localhost:8080
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	printBuildInfo()
	configPath := parseFlags()

	appHost, appPort, logLevel,
		databaseURL, pgMaxOpenConns, pgMaxIdleConns,
		jwtSecret, jwtExpSecond,
		serverURL, clientURL,
		smtpHost, smtpPort, emailUser, emailPass, emailFrom,
		walletEncKey,
		err := parseConfig(configPath)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	if err := run(context.Background(),
		appHost, appPort, logLevel,
		databaseURL, pgMaxOpenConns, pgMaxIdleConns,
		jwtSecret, jwtExpSecond,
		serverURL, clientURL,
		smtpHost, smtpPort, emailUser, emailPass, emailFrom,
		walletEncKey,
	); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
}

// printBuildInfo prints the build version, commit hash, and build date.
func printBuildInfo() {
	fmt.Printf("Starting service version %s, commit %s, build %s\n", buildVersion, buildCommit, buildDate)
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

// parseConfig loads environment variables from a file and returns all
// application, database, JWT, email, and wallet configuration.
func parseConfig(path string) (
	appHost, appPort, logLevel string,
	databaseURL string, pgMaxOpenConns, pgMaxIdleConns int,
	jwtSecret string, jwtExpSecond int,
	serverURL, clientURL string,
	smtpHost string, smtpPort int, emailUser, emailPass, emailFrom string,
	walletEncKey string,
	err error,
) {
	_ = godotenv.Load(path)

	getEnv := func(key, defaultValue string) string {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			return val
		}
		return defaultValue
	}

	// Application config
	appHost = getEnv("APP_HOST", "localhost")
	appPort = getEnv("APP_PORT", "8080")
	logLevel = getEnv("APP_LOG_LEVEL", "info")

	// PostgreSQL config: DATABASE_URL wins, otherwise composed from parts
	databaseURL = getEnv("DATABASE_URL", "")
	if databaseURL == "" {
		databaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			getEnv("POSTGRES_USER", "user"),
			getEnv("POSTGRES_PASSWORD", "password"),
			getEnv("POSTGRES_HOST", "localhost"),
			getEnv("POSTGRES_PORT", "5432"),
			getEnv("POSTGRES_DB", "auth"),
		)
	}
	if pgMaxOpenConns, err = strconv.Atoi(getEnv("POSTGRES_MAX_OPEN_CONNS", "16")); err != nil {
		return
	}
	if pgMaxIdleConns, err = strconv.Atoi(getEnv("POSTGRES_MAX_IDLE_CONNS", "8")); err != nil {
		return
	}

	// JWT config
	jwtSecret = getEnv("JWT_SECRET", "my_super_secret_key")
	if jwtExpSecond, err = strconv.Atoi(getEnv("JWT_EXP_SECOND", "3600")); err != nil {
		return
	}

	// URLs used in emailed links
	serverURL = getEnv("SERVER_URL", fmt.Sprintf("http://%s:%s", appHost, appPort))
	clientURL = getEnv("CLIENT_URL", "http://localhost:3000")

	// SMTP config
	smtpHost = getEnv("SMTP_HOST", "smtp.gmail.com")
	if smtpPort, err = strconv.Atoi(getEnv("SMTP_PORT", "587")); err != nil {
		return
	}
	emailUser = getEnv("EMAIL_USER", "")
	emailPass = getEnv("EMAIL_PASS", "")
	emailFrom = getEnv("EMAIL_FROM", emailUser)

	// Wallet key custody
	walletEncKey = getEnv("WALLET_ENC_KEY", "")

	return
}

// run initializes the logger, database, and HTTP server. It applies
// migrations, sets up routes and middleware, and handles graceful shutdown.
func run(ctx context.Context,
	appHost, appPort, logLevel string,
	databaseURL string, pgMaxOpenConns, pgMaxIdleConns int,
	jwtSecret string, jwtExpSecond int,
	serverURL, clientURL string,
	smtpHost string, smtpPort int, emailUser, emailPass, emailFrom string,
	walletEncKey string,
) error {
	// Initialize logger
	log, err := logger.New(logLevel)
	if err != nil {
		fmt.Println("failed to initialize logger:", err)
		return err
	}
	defer log.Sync()
	log.Infof("Logger initialized with level %s", logLevel)

	// Connect to PostgreSQL
	db, err := sqlx.ConnectContext(ctx, "pgx", databaseURL)
	if err != nil {
		log.Errorw("PostgreSQL connection error", "err", err)
		return err
	}
	defer db.Close()
	db.SetMaxOpenConns(pgMaxOpenConns)
	db.SetMaxIdleConns(pgMaxIdleConns)
	if err := db.PingContext(ctx); err != nil {
		log.Errorw("PostgreSQL ping failed", "err", err)
		return err
	}

	// Apply migrations
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.Up(db.DB, "."); err != nil {
		log.Errorw("migrations failed", "err", err)
		return err
	}
	log.Info("Migrations applied")

	// Wallet key custody
	crypter, err := wallet.NewCrypter(walletEncKey)
	if err != nil {
		log.Errorw("invalid WALLET_ENC_KEY", "err", err)
		return err
	}

	// Initialize JWT service
	jwtSvc := jwt.New(jwtSecret, time.Duration(jwtExpSecond)*time.Second)

	// Initialize mailer
	mail := mailer.New(smtpHost, smtpPort, emailUser, emailPass, emailFrom, serverURL, clientURL, log)

	// Initialize repositories
	userReadRepo := repositories.NewUserReadRepository(db, log)
	userWriteRepo := repositories.NewUserWriteRepository(db, log)
	txRunner := repositories.NewTxRunner(db)

	// Initialize services
	authService := services.NewAuthService(
		userReadRepo, userWriteRepo, txRunner,
		jwtSvc, token.NewGenerator(), wallet.NewGenerator(), crypter, mail,
		log,
	)

	// Initialize handlers
	registerHandler := handlers.NewRegisterHandler(authService, log)
	loginHandler := handlers.NewLoginHandler(authService, log)
	confirmEmailHandler := handlers.NewConfirmEmailHandler(authService, clientURL, log)
	forgotPasswordHandler := handlers.NewForgotPasswordHandler(authService, log)
	resetPasswordHandler := handlers.NewResetPasswordHandler(authService, log)
	meHandler := handlers.NewMeHandler(authService, log)
	walletHandler := handlers.NewWalletHandler(authService, log)

	// Setup router
	r := chi.NewRouter()
	r.Use(middlewares.RecoverMiddleware(log))
	r.Use(middlewares.LoggingMiddleware(log))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeJSONMessage(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeJSONMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"status":"ok"}`)
	})

	// Public routes
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", registerHandler)
		r.Post("/login", loginHandler)
		r.Get("/confirm-email", confirmEmailHandler)
		r.Post("/forgot-password", forgotPasswordHandler)
		r.Post("/reset-password", resetPasswordHandler)

		// Protected routes with JWT middleware
		r.Group(func(r chi.Router) {
			r.Use(middlewares.AuthMiddleware(jwtSvc, log))
			r.Get("/me", meHandler)
			r.Get("/wallet", walletHandler)
		})
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://%s:%s/swagger/doc.json", appHost, appPort)),
	))

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", appHost, appPort),
		Handler: r,
	}

	// Graceful shutdown
	errChan := make(chan error, 1)
	ctxShutdown, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	go func() {
		log.Infof("HTTP server listening on %s:%s", appHost, appPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	select {
	case <-ctxShutdown.Done():
		log.Info("Shutdown signal received, stopping HTTP server...")
	case serveErr := <-errChan:
		return serveErr
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("HTTP server shutdown error", "error", err)
	}

	log.Info("HTTP server stopped gracefully")
	return nil
}

func writeJSONMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"message":%q}`, message)
}
