package response

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvelopes(t *testing.T) {
	e := Error("UNAUTHORIZED", "missing token", nil)
	assert.Equal(t, "UNAUTHORIZED", e.Code)
	assert.Equal(t, "missing token", e.Message)
	assert.Nil(t, e.Data)

	s := Success("ok", map[string]string{"version": "1"})
	assert.Equal(t, "OK", s.Code)
	assert.Equal(t, "ok", s.Message)
	assert.NotNil(t, s.Data)
}
