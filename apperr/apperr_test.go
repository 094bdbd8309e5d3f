package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("run", "empty topic"), http.StatusBadRequest},
		{"access", ErrAccessDenied, http.StatusForbidden},
		{"configuration", Configuration("publish", "WORDPRESS_BASE_URL"), http.StatusInternalServerError},
		{"upstream", Upstream("draft", 500, "boom", nil), http.StatusInternalServerError},
		{"publish forwards cms status", Publish("create post", 401, "{}", nil), http.StatusUnauthorized},
		{"publish without status", Publish("create post", 0, "", errors.New("connection refused")), http.StatusBadGateway},
		{"timeout", Timeout("image", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"wrapped", fmt.Errorf("run: %w", Validation("run", "x")), http.StatusBadRequest},
		{"plain", errors.New("x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestUpstreamDeadlineBecomesTimeout(t *testing.T) {
	err := Upstream("draft article", 0, "", fmt.Errorf("post: %w", context.DeadlineExceeded))
	assert.Equal(t, KindTimeout, KindOf(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestErrorMessage(t *testing.T) {
	err := Publish("create post", 401, `{"code":"rest_cannot_create"}`, nil)
	assert.Equal(t, `create post: cms rejected request (status 401): {"code":"rest_cannot_create"}`, err.Error())

	cfgErr := Configuration("publish draft", "WORDPRESS_USERNAME", "WORDPRESS_BASE_URL")
	e, ok := As(fmt.Errorf("wrap: %w", cfgErr))
	require.True(t, ok)
	assert.Equal(t, []string{"WORDPRESS_USERNAME", "WORDPRESS_BASE_URL"}, e.Missing)
	assert.Equal(t, KindConfiguration, e.Kind)
}
