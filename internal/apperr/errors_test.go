package apperr

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(BadRequest("channel %d does not exist", 4)))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(Forbidden("invalid token")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(fmt.Errorf("disk full")))
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("invite: %w", Forbidden("not a member"))

	assert.True(t, IsForbidden(err))
	assert.False(t, IsBadRequest(err))
	assert.Equal(t, "invite: not a member", err.Error())
}

func TestMessageFormatting(t *testing.T) {
	err := BadRequest("start %d is beyond %d messages", 7, 3)
	assert.Equal(t, "start 7 is beyond 3 messages", err.Error())
	assert.Equal(t, "bad_request", KindOf(err).String())
}
