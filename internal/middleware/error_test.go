package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/aditya3singh/DevConnect/pkg/errors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func errorTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandlerMiddleware())
	return r
}

func TestErrorMiddlewareWritesAppErrorStatus(t *testing.T) {
	r := errorTestRouter()
	r.GET("/conflict", func(c *gin.Context) {
		c.Error(apperrors.Conflict("already a member"))
	})
	r.GET("/denied", func(c *gin.Context) {
		c.Error(apperrors.NotFound("not found or access denied"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/conflict", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already a member")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/denied", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestErrorMiddlewareWrapsUnknownErrors(t *testing.T) {
	r := errorTestRouter()
	r.GET("/boom", func(c *gin.Context) {
		c.Error(errors.New("db exploded"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	// The raw cause never leaks to the client
	assert.NotContains(t, w.Body.String(), "db exploded")
}

func TestErrorMiddlewareRecoversPanics(t *testing.T) {
	r := errorTestRouter()
	r.GET("/panic", func(c *gin.Context) {
		panic("handler bug")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
