// File: internal/platform/platform_test.go
package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWithoutBackend(t *testing.T) {
	factory = nil

	caps, err := New(zap.NewNop())
	require.Error(t, err)
	assert.Nil(t, caps)
	assert.Contains(t, err.Error(), "no platform backend")
}

func TestRegisteredFactoryIsUsed(t *testing.T) {
	defer func() { factory = nil }()

	want := &Capabilities{}
	Register(func(logger *zap.Logger) (*Capabilities, error) {
		return want, nil
	})

	caps, err := New(zap.NewNop())
	require.NoError(t, err)
	assert.Same(t, want, caps)
}
