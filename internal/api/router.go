package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/mora-creators/onboarding/docs"
	"github.com/mora-creators/onboarding/internal/api/handler"
	"github.com/mora-creators/onboarding/internal/api/middleware"
	"github.com/mora-creators/onboarding/internal/core/domain"
	"github.com/mora-creators/onboarding/internal/core/ports"
	"github.com/mora-creators/onboarding/internal/core/service"
)

// Deps are the collaborators the HTTP API is built from.
type Deps struct {
	Signup     ports.SignupService
	Onboarding ports.OnboardingService
	Review     ports.ReviewService
	Sessions   *service.SessionClient

	// RedirectDelay is how long the verify page shows the verified state.
	RedirectDelay  time.Duration
	AllowedOrigins []string
	Health         map[string]handler.Pinger
	Log            zerolog.Logger

	// Registry receives the HTTP request metrics. Nil means the default
	// Prometheus registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(promConfig(d.Registry)))

	authHandler := handler.NewAuthHandler(d.Signup)
	onboardingHandler := handler.NewOnboardingHandler(d.Onboarding)
	reviewHandler := handler.NewReviewHandler(d.Review)
	verifyHandler := handler.NewVerifyHandler(d.Sessions, d.RedirectDelay, d.AllowedOrigins, d.Log)
	healthHandler := handler.NewHealthHandler(d.Health)

	auth := middleware.Auth(d.Sessions)
	optionalAuth := middleware.OptionalAuth(d.Sessions, d.Log)
	verified := middleware.RequireVerifiedEmail()

	v1 := e.Group("/v1")

	// --- Auth ---
	v1.POST("/auth/signup", authHandler.Signup)
	v1.POST("/auth/login", authHandler.Login)
	v1.POST("/auth/logout", authHandler.Logout, auth)
	v1.POST("/auth/verify-email", authHandler.VerifyEmail)
	v1.GET("/verify/watch", verifyHandler.Watch)

	// --- Onboarding ---
	v1.GET("/onboarding", onboardingHandler.Mount, optionalAuth)
	v1.POST("/onboarding/advance", onboardingHandler.Advance, auth, verified)
	v1.POST("/onboarding/documents", onboardingHandler.Documents, auth, verified)
	v1.POST("/onboarding/submit", onboardingHandler.Submit, auth, verified)
	v1.GET("/dashboard", onboardingHandler.Dashboard, auth)

	// --- Admin review ---
	admin := v1.Group("/admin", auth, middleware.RBAC(domain.RoleAdmin))
	admin.GET("/reviews", reviewHandler.List)
	admin.GET("/reviews/:uid", reviewHandler.Detail)
	admin.POST("/reviews/:uid/approve", reviewHandler.Approve)
	admin.POST("/reviews/:uid/reject", reviewHandler.Reject)

	// --- Probes, metrics and docs (no auth required) ---
	e.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", promHandler(d.Registry))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func promConfig(reg *prometheus.Registry) echoprometheus.MiddlewareConfig {
	cfg := echoprometheus.MiddlewareConfig{Subsystem: "onboarding"}
	if reg != nil {
		cfg.Registerer = reg
	}
	return cfg
}

func promHandler(reg *prometheus.Registry) echo.HandlerFunc {
	if reg == nil {
		return echoprometheus.NewHandler()
	}
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg})
}

// requestLogger emits one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/health"
		},
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil || v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("path", v.URIPath).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
