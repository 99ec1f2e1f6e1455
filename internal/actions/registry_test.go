// File: internal/actions/registry_test.go
package actions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/screenpilot/api/schemas"
)

func noopPerform(ctx context.Context, params schemas.Parameters) error { return nil }

func noopVerify(ctx context.Context, params schemas.Parameters) schemas.VerifyOutcome {
	return schemas.Verified("ok")
}

func noopRecover(ctx context.Context, failure string, attempt, maxAttempts int, params schemas.Parameters) (bool, string) {
	return true, "ok"
}

func TestRegisterAndLookup(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	require.NoError(t, r.Register(Registration{
		Type:        schemas.ActionWait,
		Perform:     noopPerform,
		Verify:      noopVerify,
		Recover:     noopRecover,
		HasVerifier: true,
		HasRecovery: true,
	}))

	reg, ok := r.Lookup(schemas.ActionWait)
	require.True(t, ok)
	assert.Equal(t, schemas.ActionWait, reg.Type)
	assert.True(t, reg.HasVerifier)
	assert.True(t, reg.HasRecovery)

	assert.True(t, r.Supports(schemas.ActionWait))
	assert.False(t, r.Supports(schemas.ActionClickTemplate))
}

func TestRegisterRejectsInconsistentFlags(t *testing.T) {
	cases := []struct {
		name string
		reg  Registration
	}{
		{"missing type", Registration{Perform: noopPerform}},
		{"missing perform", Registration{Type: schemas.ActionWait}},
		{"verifier flag without function", Registration{
			Type: schemas.ActionWait, Perform: noopPerform, HasVerifier: true,
		}},
		{"verify function without flag", Registration{
			Type: schemas.ActionWait, Perform: noopPerform, Verify: noopVerify,
		}},
		{"recovery flag without function", Registration{
			Type: schemas.ActionWait, Perform: noopPerform, HasRecovery: true,
		}},
		{"recover function without flag", Registration{
			Type: schemas.ActionWait, Perform: noopPerform, Recover: noopRecover,
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRegistry(zap.NewNop())
			assert.Error(t, r.Register(tc.reg))
		})
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	require.NoError(t, r.Register(Registration{Type: schemas.ActionWait, Perform: noopPerform}))
	err := r.Register(Registration{Type: schemas.ActionWait, Perform: noopPerform})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registered twice")
}

func TestSupportedIsSorted(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	for _, typ := range []schemas.ActionType{schemas.ActionWait, schemas.ActionClickTemplate, schemas.ActionFocusWindow} {
		require.NoError(t, r.Register(Registration{Type: typ, Perform: noopPerform}))
	}

	assert.Equal(t, []schemas.ActionType{
		schemas.ActionClickTemplate,
		schemas.ActionFocusWindow,
		schemas.ActionWait,
	}, r.Supported())
}

func TestMissingParams(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	require.NoError(t, r.Register(Registration{
		Type:           schemas.ActionClickTemplate,
		Perform:        noopPerform,
		RequiredParams: []string{"template", "label"},
	}))

	missing := r.MissingParams(schemas.ActionClickTemplate, schemas.Parameters{"template": "x.png"})
	assert.Equal(t, []string{"label"}, missing)

	missing = r.MissingParams(schemas.ActionClickTemplate, schemas.Parameters{
		"template": "x.png",
		"label":    "",
	})
	assert.Equal(t, []string{"label"}, missing, "empty strings count as missing")

	missing = r.MissingParams(schemas.ActionClickTemplate, schemas.Parameters{
		"template": "x.png",
		"label":    "ok",
	})
	assert.Empty(t, missing)

	assert.Nil(t, r.MissingParams(schemas.ActionWait, nil), "unregistered types have no requirements")
}
