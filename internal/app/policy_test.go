package app_test

import (
	"testing"

	"github.com/dkeye/CodeRoom/internal/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePolicy(t *testing.T) {
	for name, want := range map[string]app.BackpressureAction{
		"":     app.DropFrame,
		"drop": app.DropFrame,
		"kick": app.KickMember,
	} {
		p, err := app.ParsePolicy(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, p.OnBackPressure(nil, "t1"))
	}

	_, err := app.ParsePolicy("explode")
	assert.Error(t, err)
}
