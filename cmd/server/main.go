// @title                       Creator Onboarding API
// @version                     1.0
// @description                 Signup, email verification, onboarding and admin review of creator profiles.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/mora-creators/onboarding/internal/api"
	"github.com/mora-creators/onboarding/internal/api/handler"
	"github.com/mora-creators/onboarding/internal/api/metrics"
	"github.com/mora-creators/onboarding/internal/core/domain"
	"github.com/mora-creators/onboarding/internal/core/service"
	mongostore "github.com/mora-creators/onboarding/internal/infrastructure/db/mongo"
	redisstore "github.com/mora-creators/onboarding/internal/infrastructure/db/redis"
	"github.com/mora-creators/onboarding/internal/infrastructure/identity"
	"github.com/mora-creators/onboarding/internal/infrastructure/mail"
	blobstore "github.com/mora-creators/onboarding/internal/infrastructure/storage/minio"
	"github.com/mora-creators/onboarding/internal/pkg/config"
	"github.com/mora-creators/onboarding/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	cfg := config.Load()
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.IsDevelopment(), Service: "onboarding"})

	mongoClient, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("mongodb disconnect failed")
		}
	}()
	if err := mongostore.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("failed to create indexes")
	}

	rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer rdb.Close()

	minioCfg := blobstore.Config{
		Endpoint:  cfg.Minio.Endpoint,
		AccessKey: cfg.Minio.AccessKey,
		SecretKey: cfg.Minio.SecretKey,
		UseSSL:    cfg.Minio.UseSSL,
		PublicURL: cfg.Minio.PublicURL,
		// Avatar links are stored unsigned on the profile.
		PublicBuckets: []string{cfg.Minio.AvatarsBucket},
	}
	mc, err := blobstore.Connect(minioCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create minio client")
	}
	blobs, err := blobstore.NewClient(ctx, mc, minioCfg, cfg.Minio.DocumentsBucket, cfg.Minio.AvatarsBucket)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize blob store")
	}

	// --- Identity ---
	idp := identity.NewProvider(
		mongostore.NewAccountRepository(db),
		redisstore.NewSessionStore(rdb, log),
		identity.Config{
			JWTSecret:       cfg.Auth.JWTSecret,
			SessionTTL:      cfg.Auth.SessionTTL,
			VerificationTTL: cfg.Auth.VerificationTTL,
			PublicBaseURL:   cfg.Auth.PublicBaseURL,
			AdminEmails:     cfg.Auth.AdminEmails,
			BcryptCost:      cfg.Auth.BcryptCost,
		},
		logger.Component("identity"),
	)

	// --- Mail ---
	mailer := mail.NewDispatcher(cfg.SMTP.Workers, newSender(cfg.SMTP, log), logger.Component("mail"))
	mailer.OnResult = func(err error) {
		result := "sent"
		if err != nil {
			result = "failed"
		}
		metrics.MailDeliveriesTotal.WithLabelValues(result).Inc()
	}
	mailCtx, stopMail := context.WithCancel(context.Background())
	mailer.Start(mailCtx)

	// --- Services ---
	profiles := mongostore.NewProfileRepository(db)
	documents := mongostore.NewDocumentRepository(db)

	signupSvc := service.NewSignupService(idp, profiles, mailer, logger.Component("signup"))
	onboardingSvc := service.NewOnboardingService(
		profiles,
		documents,
		blobs,
		redisstore.NewFlowStore(rdb),
		redisstore.NewStagingStore(rdb),
		redisstore.NewSubmitGuard(rdb),
		service.OnboardingConfig{
			Policy:          domain.StepPolicy{RequireIDImages: cfg.Onboarding.RequireIDImages},
			DocumentsBucket: cfg.Minio.DocumentsBucket,
			AvatarsBucket:   cfg.Minio.AvatarsBucket,
			MaxUploadBytes:  cfg.Onboarding.MaxUploadBytes,
			ReviewCountdown: cfg.Onboarding.ReviewCountdown,
		},
		logger.Component("onboarding"),
	)
	reviewSvc := service.NewReviewService(profiles, documents, blobs, cfg.Minio.DocumentsBucket, cfg.Onboarding.SignedURLTTL, logger.Component("review"))

	var origins []string
	if !cfg.IsDevelopment() && cfg.Auth.PublicBaseURL != "" {
		origins = []string{cfg.Auth.PublicBaseURL}
	}

	e := api.NewRouter(api.Deps{
		Signup:         signupSvc,
		Onboarding:     onboardingSvc,
		Review:         reviewSvc,
		Sessions:       service.NewSessionClient(idp, log),
		RedirectDelay:  cfg.Onboarding.RedirectDelay,
		AllowedOrigins: origins,
		Health: map[string]handler.Pinger{
			"mongodb": handler.PingFunc(func(ctx context.Context) error {
				return db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
			}),
			"redis": handler.PingFunc(func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			}),
			"minio": blobs,
		},
		Log: log,
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting http server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("received interruption signal, shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}
	wg.Wait()

	stopMail()
	mailer.Wait()
	log.Info().Msg("shutdown complete")
}

func newSender(cfg config.SMTPConfig, log zerolog.Logger) mail.Sender {
	if cfg.Host == "" {
		log.Warn().Msg("SMTP_HOST not set, verification emails will only be logged")
		return mail.NewLogSender(log)
	}
	return mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
	})
}
