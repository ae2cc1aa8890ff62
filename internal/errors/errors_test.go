package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	cause := stderrors.New("connection reset")
	wrapped := fmt.Errorf("login: %w", Wrap(TransportFailed, "create session", cause))

	assert.Equal(t, TransportFailed, KindOf(wrapped))
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, Kind(""), KindOf(cause))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "validation: email is required", Wrap(Validation, "email is required", nil).Error())
	assert.Equal(t,
		"no_session: no active session: boom",
		Wrap(NoSession, "no active session", stderrors.New("boom")).Error())
}
