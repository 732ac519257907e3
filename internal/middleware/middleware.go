package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/obi2na/courier/config"
	"github.com/obi2na/courier/internal/logger"
	"github.com/obi2na/courier/internal/pkg/jwtutil"
	"go.uber.org/zap"
)

const (
	RequestIDHeader = "X-Request-Id"
	OperatorKey     = "operator"
)

func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		//Generate UUID if no request_id header
		reqID := c.GetHeader(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}

		// replace the current request context with one that carries the request ID
		ctx := logger.InjectRequestID(c.Request.Context(), reqID)
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set(RequestIDHeader, reqID)

		c.Next()
	}
}

func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// AuthMiddleware requires a bearer operator token signed with cfg.JWTSecret.
// With no secret configured every request passes, which is meant for local use.
func AuthMiddleware(cfg config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.JWTSecret == "" {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		sub, err := jwtutil.ParseSubject(tokenString, cfg.JWTSecret, cfg.Issuer)
		if err != nil {
			logger.With(c.Request.Context()).Warn("operator token rejected", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(OperatorKey, sub)
		c.Next()
	}
}
