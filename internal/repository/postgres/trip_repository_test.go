package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeThemeIDs(t *testing.T) {
	assert.Equal(t, []uint{9, 2, 5}, decodeThemeIDs(1, []byte(`[9,2,5]`)))
	assert.Nil(t, decodeThemeIDs(2, nil))
	assert.Nil(t, decodeThemeIDs(3, []byte(``)))

	// corrupt payloads degrade to no theme credit instead of failing the query
	assert.Nil(t, decodeThemeIDs(4, []byte(`{not json`)))
	assert.Nil(t, decodeThemeIDs(5, []byte(`{"a":1}`)))
}
