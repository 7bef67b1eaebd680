package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/supplyhub/backend/internal/interfaces/http/dto"
)

// Context keys and headers for the company scope
const (
	CompanyIDKey     = "company_id"
	CompanyHeaderKey = "X-Company-ID"
	UserIDKey        = "user_id"
	UserHeaderKey    = "X-User-ID"
)

// CompanyConfig holds configuration for the company scope middleware
type CompanyConfig struct {
	// SkipPaths are paths served without a company scope (health checks)
	SkipPaths []string
	// Required rejects requests that carry no company id
	Required bool
}

// DefaultCompanyConfig returns the default company scope configuration
func DefaultCompanyConfig() CompanyConfig {
	return CompanyConfig{
		SkipPaths: []string{"/health", "/ready"},
		Required:  true,
	}
}

// CompanyScope extracts the company and user ids from request headers and
// stores them in the request context. Every company-scoped handler reads from
// the context only, never the headers.
func CompanyScope(cfg CompanyConfig) gin.HandlerFunc {
	skip := make(map[string]bool, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = true
	}

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		companyHeader := c.GetHeader(CompanyHeaderKey)
		if companyHeader == "" {
			if cfg.Required {
				c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(
					dto.ErrCodeUnauthorized, "Missing "+CompanyHeaderKey+" header"))
				return
			}
			c.Next()
			return
		}

		companyID, err := uuid.Parse(companyHeader)
		if err != nil || companyID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(
				dto.ErrCodeUnauthorized, "Invalid "+CompanyHeaderKey+" header"))
			return
		}
		c.Set(CompanyIDKey, companyID)

		if userHeader := c.GetHeader(UserHeaderKey); userHeader != "" {
			if userID, err := uuid.Parse(userHeader); err == nil {
				c.Set(UserIDKey, userID)
			}
		}

		c.Next()
	}
}

// GetCompanyID returns the company id stored by CompanyScope
func GetCompanyID(c *gin.Context) (uuid.UUID, bool) {
	value, ok := c.Get(CompanyIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	return id, ok
}

// GetUserID returns the user id stored by CompanyScope, or uuid.Nil when the
// request carried none
func GetUserID(c *gin.Context) uuid.UUID {
	value, ok := c.Get(UserIDKey)
	if !ok {
		return uuid.Nil
	}
	id, _ := value.(uuid.UUID)
	return id
}
