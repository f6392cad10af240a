package app

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/joho/godotenv"
	"github.com/zetahub/kryptonite/internal/cache"
	"github.com/zetahub/kryptonite/internal/config"
	"github.com/zetahub/kryptonite/internal/env"
	"github.com/zetahub/kryptonite/internal/errHandler"
	"github.com/zetahub/kryptonite/internal/file"
	"github.com/zetahub/kryptonite/internal/helper"
	"github.com/zetahub/kryptonite/internal/repository"
	seeders "github.com/zetahub/kryptonite/internal/seeder"
	"github.com/zetahub/kryptonite/internal/session"
	"github.com/zetahub/kryptonite/internal/smtp"
	"github.com/zetahub/kryptonite/internal/stream"
)

// Essential services and resources are exposed to the application
// this makes it possible for methods to have access to these items when they need them
type Application struct {
	Config       config.Config
	DB           repository.Database
	Logger       *slog.Logger
	Mailer       *smtp.Mailer
	WG           sync.WaitGroup
	errorHandler *errHandler.ErrorRepository
	Helper       *helper.HelperRepository
	Kafka        *stream.KafkaStream
	Session      session.Store
	FileUploader *file.FileUploader
}

func NewApplication(logger *slog.Logger) (*Application, error) {
	if err := godotenv.Load(); err != nil {
		logger.Error("Error loading .env file", "error", err)
	}

	var cfg config.Config

	// config values are loaded from the .env file
	// Default values are provided for these items and these should strictly be values for development mode only
	// make sure no production-level value is exposed as default value here
	cfg.BaseURL = env.GetString("BASE_URL", "http://localhost:4444")
	cfg.HttpPort = env.GetInt("HTTP_PORT", 4444)

	cfg.Db.Dsn = env.GetString("DB_DSN", "user:pass@localhost:5432/db")
	cfg.Db.Automigrate = env.GetBool("DB_AUTOMIGRATE", true)

	cfg.Jwt.SecretKey = env.GetString("JWT_SECRET_KEY", "ajf5nx3qmp6zquevllxocxqvyz42ypuo")

	// server errors won't be sent via email if the NOTIFICATIONS_EMAIL wasn't set in the .env file
	cfg.Notifications.Email = env.GetString("NOTIFICATIONS_EMAIL", "")

	cfg.Smtp.Host = env.GetString("SMTP_HOST", "example.smtp.host")
	cfg.Smtp.Port = env.GetInt("SMTP_PORT", 25)
	cfg.Smtp.Username = env.GetString("SMTP_USERNAME", "example_username")
	cfg.Smtp.Password = env.GetString("SMTP_PASSWORD", "pa55word")
	cfg.Smtp.From = env.GetString("SMTP_FROM", "ZetaHub <no_reply@zetahub.example.org>")

	cfg.RedisServer = env.GetString("REDIS_SERVER", "localhost:6379")
	cfg.KafkaServers = env.GetString("KAFKA_SERVERS", "localhost:9092")

	cfg.FileUploader.ApiKey = env.GetString("CLOUDINARY_API_KEY", "")
	cfg.FileUploader.CloudName = env.GetString("CLOUDINARY_CLOUD_NAME", "")
	cfg.FileUploader.ApiSecret = env.GetString("CLOUDINARY_API_SECRET", "")
	cfg.FileUploader.AllowedTypes = env.GetStrings("ALLOWED_IMAGE_EXTENSIONS", []string{"jpg", "jpeg", "png", "gif"})
	cfg.FileUploader.MaxFileSize = int64(env.GetInt("MAX_FILE_SIZE", 2*1024*1024))

	cfg.Admin.OverridePhrase = env.GetString("ADMIN_OVERRIDE_PHRASE", "")
	cfg.Admin.SeedEmail = env.GetString("ADMIN_SEED_EMAIL", "")
	cfg.Admin.SeedPassword = env.GetString("ADMIN_SEED_PASSWORD", "")

	db, err := repository.New(cfg.Db.Dsn, cfg.Db.Automigrate)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	seeders.New(db, &cfg).Run()

	mailer, err := smtp.NewMailer(cfg.Smtp.Host, cfg.Smtp.Port, cfg.Smtp.Username, cfg.Smtp.Password, cfg.Smtp.From)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mailer: %w", err)
	}

	app := &Application{
		Config: cfg,
		DB:     db,
		Logger: logger,
		Mailer: mailer,
	}

	app.Helper = helper.New(&cfg.BaseURL, &app.WG, logger)

	app.errorHandler = errHandler.New(cfg.Notifications.Email, mailer, logger, app.Helper)

	app.Kafka = stream.New(cfg.KafkaServers)

	app.Session = session.NewRedisStore(cache.New(cfg.RedisServer, 0))

	app.FileUploader = file.New(
		cfg.FileUploader.CloudName,
		cfg.FileUploader.ApiKey,
		cfg.FileUploader.ApiSecret,
		cfg.FileUploader.AllowedTypes,
		cfg.FileUploader.MaxFileSize,
	)

	return app, nil
}
