package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"donate-and-notify/internal/auth"
	"donate-and-notify/internal/config"
	"donate-and-notify/internal/migrations"
	"donate-and-notify/internal/modules/content"
	"donate-and-notify/internal/modules/donation"
	"donate-and-notify/pkg/copygen"
	"donate-and-notify/pkg/mailer"
	"donate-and-notify/pkg/payment"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pressly/goose/v3"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := runMigrations(ctx, cfg.DatabaseURL); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	m, err := newMailer(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to build mailer: %v", err)
	}

	gateway := payment.NewStripeGateway(cfg.StripeAPIKey, cfg.StripeWebhookSecret, cfg.ClientOrigin)
	generator := copygen.NewAnthropicGenerator(cfg.AnthropicAPIKey)
	contentService := content.NewService(cfg.CMSBaseURL, cfg.CMSAPIToken)
	authService := auth.NewService(cfg.JWTSecret, cfg.AdminPasswordHash)

	donationRepo := donation.NewRepository(pool)
	donationService := donation.NewService(donationRepo, gateway, generator, m, contentService, cfg.DefaultCurrency, logger)
	donationHandler := donation.NewHandler(donationService, authService)
	contentHandler := content.NewHandler(contentService)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.ClientOrigin},
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))

	public := e.Group("")
	admin := e.Group("/admin", authService.Middleware())
	donationHandler.RegisterRoutes(public, admin)
	contentHandler.RegisterRoutes(public)

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server stopped: %v", err)
	}
}

// runMigrations brings the schema up to date from the embedded SQL files.
// goose needs a database/sql handle, so it gets its own short-lived
// connection via the pgx stdlib driver.
func runMigrations(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("up: %w", err)
	}
	return nil
}

// newMailer selects the email transport from config. SES is the default;
// SMTP covers self-hosted relays and local testing.
func newMailer(ctx context.Context, cfg *config.Config) (mailer.MailerInterface, error) {
	switch cfg.MailProvider {
	case "smtp":
		return mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.EmailFrom), nil
	case "ses":
		return mailer.NewSESMailer(ctx, cfg.AWSRegion, cfg.EmailFrom)
	default:
		return nil, fmt.Errorf("unknown MAIL_PROVIDER %q (want ses or smtp)", cfg.MailProvider)
	}
}
