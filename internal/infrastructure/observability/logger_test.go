package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug", "console")
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = NewLogger("loud", "json")
	assert.Error(t, err)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "al…ce", Mask("alice"))
	assert.Equal(t, "***", Mask("bob"))
	assert.Equal(t, "***", Mask(""))
	assert.Equal(t, "ma…os", Mask("marcos"))
}
