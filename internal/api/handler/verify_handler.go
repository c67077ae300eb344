package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mora-creators/onboarding/internal/api/metrics"
	"github.com/mora-creators/onboarding/internal/core/domain"
	"github.com/mora-creators/onboarding/internal/core/service"
)

const (
	writeWait = 10 * time.Second
	readLimit = 512
)

// VerifyHandler streams verification progress to the verify page over a
// WebSocket. One poller runs per connection.
type VerifyHandler struct {
	client   *service.SessionClient
	delay    time.Duration
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// NewVerifyHandler accepts connections whose Origin matches one of
// allowedOrigins. An empty list accepts any origin.
func NewVerifyHandler(client *service.SessionClient, delay time.Duration, allowedOrigins []string, log zerolog.Logger) *VerifyHandler {
	return &VerifyHandler{
		client: client,
		delay:  delay,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
		log: log,
	}
}

// Watch upgrades the connection and streams VerificationEvent messages.
//
// @Summary      Watch email verification
// @Tags         auth
// @Param        uid           query  string  true   "Account id"
// @Param        session       query  string  false  "Bearer token the page already holds"
// @Param        access_token  query  string  false  "Token from the verification link fragment"
// @Success      101
// @Router       /v1/verify/watch [get]
func (h *VerifyHandler) Watch(c echo.Context) error {
	req := service.WatchRequest{
		AccountID:     c.QueryParam("uid"),
		SessionToken:  c.QueryParam("session"),
		FragmentToken: c.QueryParam("access_token"),
	}
	if req.AccountID == "" && req.SessionToken == "" && req.FragmentToken == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "uid is required"})
	}
	// A page holding a session may only watch its own account.
	if req.AccountID != "" && req.SessionToken != "" {
		session, err := h.client.CurrentSession(c.Request().Context(), req.SessionToken)
		switch {
		case err == nil && session.AccountID != req.AccountID:
			return c.JSON(http.StatusForbidden, map[string]string{"error": "uid does not match session"})
		case err != nil && !errors.Is(err, domain.ErrNoSession):
			return err
		}
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader already wrote the HTTP error.
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return nil
	}
	defer conn.Close()

	poller := service.NewVerificationPoller(h.client, h.delay, h.log)
	defer poller.Stop()

	if err := poller.Start(c.Request().Context(), req); err != nil {
		h.log.Error().Err(err).Str("uid", req.AccountID).Msg("failed to start verification watch")
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "watch unavailable"),
			time.Now().Add(writeWait))
		return nil
	}

	go h.readPump(conn, poller)

	counted := false
	for ev := range poller.Events() {
		if ev.State == domain.VerificationVerified && !counted {
			counted = true
			metrics.VerificationsTotal.WithLabelValues(verifiedVia(req, ev)).Inc()
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(ev); err != nil {
			h.log.Debug().Err(err).Str("uid", req.AccountID).Msg("verification watch write failed")
			return nil
		}
	}
	return nil
}

// readPump discards client frames and stops the poller once the peer goes
// away. Stop closes the event channel, which ends the write loop.
func (h *VerifyHandler) readPump(conn *websocket.Conn, poller *service.VerificationPoller) {
	defer poller.Stop()
	conn.SetReadLimit(readLimit)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug().Err(err).Msg("verification watch closed")
			}
			return
		}
	}
}

func verifiedVia(req service.WatchRequest, ev service.VerificationEvent) string {
	switch {
	case ev.Session != nil:
		return "link"
	case req.SessionToken != "":
		return "session"
	default:
		return "notification"
	}
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if len(allowed) == 0 || origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		for _, a := range allowed {
			if strings.EqualFold(strings.TrimRight(a, "/"), u.Scheme+"://"+u.Host) {
				return true
			}
		}
		return false
	}
}
