package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/ideamarket-backend/internal/database/dbtest"
	"github.com/javajoker/ideamarket-backend/internal/i18n"
	"github.com/javajoker/ideamarket-backend/internal/models"
	"github.com/javajoker/ideamarket-backend/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNegotiateLanguage(t *testing.T) {
	require.NoError(t, i18n.Initialize("ko"))

	assert.Equal(t, "en", negotiateLanguage("", "en-US,en;q=0.9"))
	assert.Equal(t, "ko", negotiateLanguage("", "ko-KR"))
	assert.Equal(t, "en", negotiateLanguage("", "fr-FR,en;q=0.5"))
	assert.Equal(t, "ko", negotiateLanguage("", "fr-FR"))
	assert.Equal(t, "ko", negotiateLanguage("", ""))
	assert.Equal(t, "en", negotiateLanguage("en", "ko"))
}

func TestAuthRequired(t *testing.T) {
	utils.SetJWTSecret("middleware-secret")
	userID := uuid.New()
	token, err := utils.GenerateJWT(userID, "me@example.com", true, 1)
	require.NoError(t, err)
	refresh, err := utils.GenerateRefreshToken(userID, 1)
	require.NoError(t, err)

	router := gin.New()
	router.Use(I18nMiddleware())
	router.GET("/private", AuthRequired(), func(c *gin.Context) {
		c.String(http.StatusOK, utils.GetUserUUIDFromContext(c).String())
	})

	tests := []struct {
		name   string
		header string
		query  string
		status int
	}{
		{"no token", "", "", http.StatusUnauthorized},
		{"malformed header", "Token " + token, "", http.StatusUnauthorized},
		{"refresh token", "Bearer " + refresh, "", http.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", "", http.StatusUnauthorized},
		{"bearer header", "Bearer " + token, "", http.StatusOK},
		{"query token", "", "?access_token=" + token, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, userID.String(), w.Body.String())
			}
		})
	}
}

func TestOptionalAuthIgnoresBadTokens(t *testing.T) {
	router := gin.New()
	router.GET("/public", OptionalAuth(), func(c *gin.Context) {
		c.String(http.StatusOK, utils.GetUserUUIDFromContext(c).String())
	})

	req := httptest.NewRequest(http.MethodGet, "/public", nil)
	req.Header.Set("Authorization", "Bearer nonsense")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uuid.Nil.String(), w.Body.String())
}

func TestAuditLogRecordsMutations(t *testing.T) {
	db := dbtest.Open(t)
	router := gin.New()
	router.Use(AuditLogMiddleware(db))
	router.PUT("/v1/purchase-requests/:id/approve", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	router.GET("/v1/ideas", func(c *gin.Context) { c.Status(http.StatusOK) })

	id := uuid.New()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/v1/purchase-requests/"+id.String()+"/approve", nil))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/ideas", nil))

	var logs []models.AuditLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, "PUT /v1/purchase-requests/:id/approve", logs[0].Action)
	assert.Equal(t, "purchase-requests", logs[0].ResourceType)
	assert.Equal(t, http.StatusNoContent, logs[0].Status)
	require.NotNil(t, logs[0].ResourceID)
	assert.Equal(t, id, *logs[0].ResourceID)
}
