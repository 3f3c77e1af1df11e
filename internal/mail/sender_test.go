package mail

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRenderReset(t *testing.T) {
	body, err := renderReset("Ada <Lovelace>", "ABC123")
	require.NoError(t, err)

	assert.Contains(t, body, "<b>ABC123</b>")
	assert.Contains(t, body, "Ada &lt;Lovelace&gt;")
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	_, ok := r.Last()
	assert.False(t, ok)

	require.NoError(t, r.SendPasswordReset("a@example.com", "Ada", "1"))
	r.Err = errors.New("smtp down")
	assert.Error(t, r.SendPasswordReset("b@example.com", "Bob", "2"))

	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, Sent{To: "b@example.com", Name: "Bob", Code: "2"}, last)
	assert.Len(t, r.Sent, 2)
}

func TestLogMailer(t *testing.T) {
	var m Mailer = LogMailer{Logger: zap.NewNop()}
	assert.NoError(t, m.SendPasswordReset("a@example.com", "Ada", "1"))
}
