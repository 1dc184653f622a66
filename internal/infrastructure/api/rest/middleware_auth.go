package rest

import (
	"bufio"
	"crypto/subtle"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rosklyar/prompts-volume-sub000/internal/application/auth"
	"github.com/rosklyar/prompts-volume-sub000/internal/infrastructure/logger"
)

const (
	ContextKeyUserID     = "user_id"
	ContextKeyAuthMethod = "auth_method"
)

// AuthMiddleware authenticates the three distinct callers described in spec
// §5/§6: end users (JWT bearer), polling workers (Basic auth against a CSV
// token file), and the external scraper's webhook (Basic auth against a
// shared secret).
type AuthMiddleware struct {
	jwtService   *auth.JWTService
	workerTokens map[string]string // token -> identity
	webhookUser  string
	webhookPass  string
	logger       *logger.Logger
}

func NewAuthMiddleware(jwtService *auth.JWTService, workerTokensPath, webhookSecret string, log *logger.Logger) (*AuthMiddleware, error) {
	tokens, err := loadWorkerTokens(workerTokensPath)
	if err != nil {
		return nil, err
	}
	return &AuthMiddleware{
		jwtService:   jwtService,
		workerTokens: tokens,
		webhookUser:  "brightdata",
		webhookPass:  webhookSecret,
		logger:       log,
	}, nil
}

// loadWorkerTokens reads a CSV file of `token,identity` pairs. An empty path
// yields an empty (deny-all) table rather than an error, so a server can run
// with worker auth disabled in dev.
func loadWorkerTokens(path string) (map[string]string, error) {
	tokens := make(map[string]string)
	if path == "" {
		return tokens, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, ",", 2)
		token := strings.TrimSpace(parts[0])
		identity := token
		if len(parts) == 2 {
			identity = strings.TrimSpace(parts[1])
		}
		tokens[token] = identity
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return tokens, nil
}

// RequireUser validates a JWT bearer token and sets the authenticated user id
// in the gin context for handlers and GetUserID to read back.
func (m *AuthMiddleware) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			respondAPIError(c, ErrUnauthorized)
			c.Abort()
			return
		}

		claims, err := m.jwtService.ValidateAccessToken(parts[1])
		if err != nil {
			respondAPIError(c, err)
			c.Abort()
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyAuthMethod, "jwt")
		c.Next()
	}
}

// RequireWorker authenticates polling workers (the evaluation queue's
// poll/submit/release/results endpoints) via HTTP Basic auth against the
// worker-token CSV (spec §6 config surface).
func (m *AuthMiddleware) RequireWorker() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _, ok := c.Request.BasicAuth()
		if !ok {
			respondAPIError(c, ErrUnauthorized)
			c.Abort()
			return
		}

		identity, known := m.workerTokens[token]
		if !known {
			respondAPIError(c, ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(ContextKeyUserID, identity)
		c.Set(ContextKeyAuthMethod, "worker")
		c.Next()
	}
}

// RequireWebhook authenticates the external scraper's webhook callback via
// HTTP Basic auth against the shared BatchCorrelatorConfig.WebhookSecret.
func (m *AuthMiddleware) RequireWebhook() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.webhookPass == "" {
			respondAPIError(c, NewAPIError("WEBHOOK_AUTH_DISABLED", "webhook auth is not configured", http.StatusUnauthorized))
			c.Abort()
			return
		}

		user, pass, ok := c.Request.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(user), []byte(m.webhookUser)) != 1 ||
			subtle.ConstantTimeCompare([]byte(pass), []byte(m.webhookPass)) != 1 {
			respondAPIError(c, ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(ContextKeyAuthMethod, "webhook")
		c.Next()
	}
}

// GetUserID reads the authenticated identity set by any of the above
// middlewares, shared by logging/recovery middleware and all handlers.
func GetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get(ContextKeyUserID)
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}
