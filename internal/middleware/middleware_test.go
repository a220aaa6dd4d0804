package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/question-board/backend/internal/auth"
	"github.com/emilythestrangee/question-board/backend/internal/models"
)

func router(tokens *auth.Tokens) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(slog.New(slog.DiscardHandler)))
	r.GET("/whoami", AuthMiddleware(tokens), func(c *gin.Context) {
		c.String(http.StatusOK, CallerFrom(c).UserID)
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	tokens := auth.NewTokens("secret", time.Hour)
	r := router(tokens)
	token, err := tokens.Issue(models.User{ID: "u-1"})
	require.NoError(t, err)

	cases := map[string]struct {
		header string
		status int
		body   string
	}{
		"valid":         {"Bearer " + token, http.StatusOK, "u-1"},
		"missing":       {"", http.StatusUnauthorized, ""},
		"wrong scheme":  {"Basic " + token, http.StatusUnauthorized, ""},
		"garbage token": {"Bearer nope", http.StatusUnauthorized, ""},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.body != "" {
				assert.Equal(t, tc.body, w.Body.String())
			}
		})
	}
}

func TestCallerFromWithoutMiddlewareIsAnonymous(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Error(t, CallerFrom(c).Require())
}

func TestAuthMiddlewareStoresOnlyCaller(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := auth.NewTokens("secret", time.Hour)
	token, err := tokens.Issue(models.User{ID: "u-1"})
	require.NoError(t, err)

	var keys []any
	r := gin.New()
	r.GET("/keys", AuthMiddleware(tokens), func(c *gin.Context) {
		for k := range c.Keys {
			keys = append(keys, k)
		}
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/keys", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []any{callerKey}, keys)
}
