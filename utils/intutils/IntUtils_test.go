package intutils_test

import (
	"testing"

	"github.com/samuelfneumann/helpinghands/utils/intutils"
	"github.com/stretchr/testify/assert"
)

func TestMinMaxClamp(t *testing.T) {
	assert.Equal(t, -4, intutils.Min(2, -4, 7))
	assert.Equal(t, 7, intutils.Max(2, -4, 7))
	assert.Equal(t, 0, intutils.Clamp(-3, 0, 127))
	assert.Equal(t, 127, intutils.Clamp(200, 0, 127))
	assert.Equal(t, 5, intutils.Clamp(5, 0, 127))
}
