package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"StoryForge-server/compiler"
	"StoryForge-server/logger"
	"StoryForge-server/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRespondErrorStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &Handler{Log: logger.Nop()}

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"store miss", models.ErrNotFound, http.StatusNotFound},
		{"compiler miss", fmt.Errorf("project x: %w", compiler.ErrNotFound), http.StatusNotFound},
		{"foreign scene", models.ErrSceneMismatch, http.StatusBadRequest},
		{"upstream", fmt.Errorf("%w: timeout", compiler.ErrUpstream), http.StatusBadGateway},
		{"single compile without key", fmt.Errorf("%w: %w", compiler.ErrUpstream, compiler.ErrMissingCredential), http.StatusBadGateway},
		{"batch without key", compiler.ErrMissingCredential, http.StatusServiceUnavailable},
		{"other", errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			h.respondError(c, tc.err, "missing")
			assert.Equal(t, tc.want, w.Code)
		})
	}
}
