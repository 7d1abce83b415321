package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRouter(token string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AdminToken(token))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"header": c.GetHeader("token")})
	})
	return r
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdminTokenDisabled(t *testing.T) {
	w := serve(newRouter(""), httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminTokenMissing(t *testing.T) {
	w := serve(newRouter("s3cret"), httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "empty admin token")
}

func TestAdminTokenWrong(t *testing.T) {
	w := serve(newRouter("s3cret"), httptest.NewRequest(http.MethodGet, "/ping?token=nope", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid admin token")
}

func TestAdminTokenAccepted(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("token", "s3cret")
	w := serve(newRouter("s3cret"), req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"header":""}`, w.Body.String())
}
