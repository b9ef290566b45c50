package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimitsValidate(t *testing.T) {
	assert.NoError(t, DefaultLimits().Validate())
	assert.NoError(t, Unlimited().Validate())
	assert.Error(t, Limits{MaxXRefDepth: -1}.Validate())
	assert.Error(t, Limits{MaxParseTime: -time.Second}.Validate())
}

func TestDefaultLimitsAreBounded(t *testing.T) {
	l := DefaultLimits()
	assert.Greater(t, l.MaxDecompressedSize, l.MaxStreamLength)
	assert.Positive(t, l.MaxXRefDepth)
	assert.Less(t, l.MaxDecodeTime, l.MaxParseTime)
}
