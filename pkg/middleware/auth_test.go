package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"avto-sawda/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func doRequest(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	jwtService := jwt.NewService("test-secret-key")
	token, _ := jwtService.GenerateToken("user-123", RoleUser)

	router := setupTestRouter()
	router.Use(AuthMiddleware(jwtService))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString(ContextUserID), "role": c.GetString(ContextUserRole)})
	})

	w := doRequest(router, "Bearer "+token)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"user-123"`)
	assert.Contains(t, w.Body.String(), `"role":"user"`)
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	jwtService := jwt.NewService("test-secret-key")
	router := setupTestRouter()
	router.Use(AuthMiddleware(jwtService))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	for name, header := range map[string]string{
		"no header":      "",
		"invalid format": "InvalidFormat token",
		"invalid token":  "Bearer invalid-token",
		"empty bearer":   "Bearer ",
	} {
		t.Run(name, func(t *testing.T) {
			w := doRequest(router, header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), `"success":false`)
		})
	}
}

func TestOptionalAuthMiddleware(t *testing.T) {
	jwtService := jwt.NewService("test-secret-key")
	token, _ := jwtService.GenerateToken("user-9", RoleUser)

	router := setupTestRouter()
	router.Use(OptionalAuthMiddleware(jwtService))
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextUserID))
	})

	w := doRequest(router, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", w.Body.String())

	w = doRequest(router, "Bearer "+token)
	assert.Equal(t, "user-9", w.Body.String())

	w = doRequest(router, "Bearer broken")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", w.Body.String())
}

func TestAdminOnly(t *testing.T) {
	jwtService := jwt.NewService("test-secret-key")
	userToken, _ := jwtService.GenerateToken("user-1", RoleUser)
	adminToken, _ := jwtService.GenerateToken("admin-1", RoleAdmin)

	router := setupTestRouter()
	router.Use(AuthMiddleware(jwtService), AdminOnly())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	assert.Equal(t, http.StatusForbidden, doRequest(router, "Bearer "+userToken).Code)
	assert.Equal(t, http.StatusOK, doRequest(router, "Bearer "+adminToken).Code)
}
