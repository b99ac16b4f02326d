package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"healthsummary/apps/backend/internal/config"
	"healthsummary/apps/backend/internal/health"
	"healthsummary/apps/backend/internal/storage"
)

const deviceContextKey = "authDeviceID"

type App struct {
	cfg     config.Config
	service *health.Service
	logger  *log.Logger
}

func New(cfg config.Config, service *health.Service, logger *log.Logger) *App {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &App{cfg: cfg, service: service, logger: logger}
}

func (a *App) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     a.cfg.CORSAllowOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", a.health)

	api := router.Group(a.cfg.APIPrefix)
	api.Use(a.authMiddleware())

	api.POST("/daily-summary", a.createDailySummary)
	api.GET("/daily-summary", a.listDailySummaries)
	api.GET("/weekly-summary", a.getWeeklySummary)
	api.POST("/goal", a.createGoal)
	api.GET("/goal", a.getGoal)

	return router
}

func (a *App) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "health-summary-api",
	})
}

// authMiddleware is a no-op unless JWT_SECRET is set. With a secret every
// request needs a bearer token whose subject is the caller's device id.
func (a *App) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.cfg.AuthEnabled() {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
			writeError(c, http.StatusUnauthorized, "Bearer token required")
			return
		}
		tokenString := strings.TrimSpace(authHeader[len("Bearer "):])
		if tokenString == "" {
			writeError(c, http.StatusUnauthorized, "Bearer token required")
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if token.Method == nil || token.Method.Alg() != a.cfg.JWTAlgorithm {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(a.cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			writeError(c, http.StatusUnauthorized, "Invalid bearer token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			writeError(c, http.StatusUnauthorized, "Invalid token payload")
			return
		}
		if a.cfg.JWTAudience != "" && !claimHasAudience(claims["aud"], a.cfg.JWTAudience) {
			writeError(c, http.StatusUnauthorized, "Invalid token audience")
			return
		}
		if a.cfg.JWTIssuer != "" {
			issuer, _ := claims["iss"].(string)
			if issuer != a.cfg.JWTIssuer {
				writeError(c, http.StatusUnauthorized, "Invalid token issuer")
				return
			}
		}
		sub, _ := claims["sub"].(string)
		sub = strings.TrimSpace(sub)
		if sub == "" {
			writeError(c, http.StatusUnauthorized, "Token subject missing")
			return
		}

		if a.cfg.AuthAutoCreateUser {
			if _, err := a.service.FindOrCreateUser(c.Request.Context(), sub); err != nil {
				a.logger.Error("failed to resolve token user", "device_id", sub, "error", err)
				writeError(c, http.StatusUnauthorized, "Unable to resolve user")
				return
			}
		}

		c.Set(deviceContextKey, sub)
		c.Next()
	}
}

func claimHasAudience(value any, audience string) bool {
	switch v := value.(type) {
	case string:
		return v == audience
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s == audience {
				return true
			}
		}
	case []string:
		for _, item := range v {
			if item == audience {
				return true
			}
		}
	}
	return false
}

// resolveDeviceID returns the device the request acts for. A token subject
// wins; an explicit device id that disagrees with it is rejected.
func (a *App) resolveDeviceID(c *gin.Context, requested string) (string, bool) {
	requested = strings.TrimSpace(requested)
	if raw, ok := c.Get(deviceContextKey); ok {
		tokenDevice, _ := raw.(string)
		if requested != "" && !strings.EqualFold(requested, tokenDevice) {
			writeError(c, http.StatusForbidden, "device_id does not match token subject")
			return "", false
		}
		return tokenDevice, true
	}
	if requested == "" {
		writeError(c, http.StatusUnprocessableEntity, "device_id is required")
		return "", false
	}
	if !isUUID(requested) {
		writeError(c, http.StatusUnprocessableEntity, "device_id must be a UUID")
		return "", false
	}
	return requested, true
}

func writeError(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

// writeServiceError maps health and storage errors onto HTTP statuses.
func (a *App) writeServiceError(c *gin.Context, err error, detail string) {
	var validationErr *health.ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeError(c, http.StatusUnprocessableEntity, validationErr.Error())
	case errors.Is(err, storage.ErrNotFound):
		writeError(c, http.StatusNotFound, "User not found")
	default:
		a.logger.Error(detail, "path", c.FullPath(), "error", err)
		writeError(c, http.StatusInternalServerError, detail)
	}
}

func mustJSON(c *gin.Context, payload any) bool {
	if err := c.ShouldBindJSON(payload); err != nil {
		writeError(c, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	if err := validate.Struct(payload); err != nil {
		writeError(c, http.StatusUnprocessableEntity, validationDetail(err))
		return false
	}
	return true
}

func parseDate(value string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}
