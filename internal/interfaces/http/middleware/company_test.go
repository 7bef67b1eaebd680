package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScopeRouter(cfg CompanyConfig) (*gin.Engine, *uuid.UUID, *uuid.UUID) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CompanyScope(cfg))

	var gotCompany, gotUser uuid.UUID
	handler := func(c *gin.Context) {
		if id, ok := GetCompanyID(c); ok {
			gotCompany = id
		}
		gotUser = GetUserID(c)
		c.Status(http.StatusOK)
	}
	router.GET("/tasks", handler)
	router.GET("/health", handler)
	return router, &gotCompany, &gotUser
}

func TestCompanyScopeExtractsHeaders(t *testing.T) {
	router, gotCompany, gotUser := newScopeRouter(DefaultCompanyConfig())
	companyID := uuid.New()
	userID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.Header.Set(CompanyHeaderKey, companyID.String())
	req.Header.Set(UserHeaderKey, userID.String())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, companyID, *gotCompany)
	assert.Equal(t, userID, *gotUser)
}

func TestCompanyScopeRejectsMissingHeader(t *testing.T) {
	router, _, _ := newScopeRouter(DefaultCompanyConfig())

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_UNAUTHORIZED")
}

func TestCompanyScopeRejectsMalformedHeader(t *testing.T) {
	router, _, _ := newScopeRouter(DefaultCompanyConfig())

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.Header.Set(CompanyHeaderKey, "not-a-uuid")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCompanyScopeSkipsConfiguredPaths(t *testing.T) {
	router, _, _ := newScopeRouter(DefaultCompanyConfig())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCompanyScopeOptional(t *testing.T) {
	router, gotCompany, _ := newScopeRouter(CompanyConfig{Required: false})

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uuid.Nil, *gotCompany)
}
