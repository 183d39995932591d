package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// RequestLogger logs one line per request.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			logger.Error("Request failed", fields...)
		default:
			logger.Info("Request", fields...)
		}
	}
}

// RequireAdminToken admits requests whose bearer token matches the bcrypt hash.
// An empty hash disables the protected routes.
func RequireAdminToken(hash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if hash == "" {
			abortWithError(c, http.StatusForbidden, "ADMIN_DISABLED", "Administração do conjunto de dados desabilitada")
			return
		}

		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || token == "" {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Token de administrador ausente")
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)); err != nil {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Token de administrador inválido")
			return
		}
		c.Next()
	}
}
