package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/auth"
	"storefront/internal/domain"
)

const capabilityKey = "capability"

// requestLogger writes one line per request.
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// requireAuth verifies the token and stores the capability for handlers.
// The token is read from the "token" header or an "Authorization: Bearer" header.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		capa, err := s.tokens.Verify(tokenFrom(c))
		if err != nil {
			s.fail(c, err)
			c.Abort()
			return
		}
		c.Set(capabilityKey, capa)
		c.Next()
	}
}

// requireAdmin must run after requireAuth.
func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := capability(c).RequireAdmin(); err != nil {
			s.fail(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

func tokenFrom(c *gin.Context) string {
	if t := c.GetHeader("token"); t != "" {
		return t
	}
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

func capability(c *gin.Context) auth.Capability {
	v, ok := c.Get(capabilityKey)
	if !ok {
		return auth.Capability{}
	}
	capa, _ := v.(auth.Capability)
	return capa
}

// envelope is the response shape of every API call.
type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Kind    domain.Kind `json:"kind,omitempty"`
}

// ok writes a success response merged with the payload fields.
func ok(c *gin.Context, fields gin.H) {
	body := gin.H{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// fail always answers 200; callers branch on success and kind.
func (s *Server) fail(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	if kind == domain.KindDependency {
		s.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(http.StatusOK, envelope{Success: false, Message: domain.MessageOf(err), Kind: kind})
}
