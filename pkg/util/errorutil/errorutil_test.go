package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestToDomainError(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))

	notFound := ToDomainError(fmt.Errorf("lookup: %w", pgx.ErrNoRows))
	assert.Equal(t, http.StatusNotFound, notFound.HTTPStatus)

	internal := ToDomainError(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, internal.HTTPStatus)
	assert.Equal(t, "Server error", internal.Message)

	wrapped := fmt.Errorf("ctx: %w", NewForbidden("nope"))
	assert.Equal(t, http.StatusForbidden, ToDomainError(wrapped).HTTPStatus)
}

func TestConstructorsStatus(t *testing.T) {
	cases := map[string]struct {
		err    error
		status int
		code   string
	}{
		"validation":  {NewValidationError("bad", nil), http.StatusBadRequest, "VALIDATION_FAILED"},
		"conflict":    {NewConflict("dup", nil), http.StatusBadRequest, "CONFLICT"},
		"credentials": {NewInvalidCredentials("Invalid credentials"), http.StatusBadRequest, "UNAUTHENTICATED"},
		"unauth":      {NewUnauthorized("no"), http.StatusUnauthorized, "UNAUTHENTICATED"},
		"notfound":    {NewNotFound("gone"), http.StatusNotFound, "NOT_FOUND"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.status, ToDomainError(tc.err).HTTPStatus)
			assert.True(t, IsCode(tc.err, tc.code))
		})
	}
}
