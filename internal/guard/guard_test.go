package guard

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		fix    string
		reason string
	}{
		{"simple assignment", "x = 1", ""},
		{"multi-line", "x = 1\ny = 2", ReasonMultiLine},
		{"carriage return", "x = 1\r", ReasonMultiLine},
		{"exactly 100", strings.Repeat("a", 100), ""},
		{"101 characters", strings.Repeat("a", 101), ReasonTooLarge},
		{"import statement", "import os", ReasonImport},
		{"from import", "from os import path", ReasonImport},
		{"import prefix of identifier", "reimport_count = 1", ""},
		{"import suffix of identifier", "import_count = 1", ""},
		{"important", "important = True", ""},
		{"empty", "", ReasonEmpty},
		{"pass", "pass", ""},
		{"multibyte within limit", strings.Repeat("é", 100), ""},
	}
	p := Default()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.Validate(tt.fix)
			if tt.reason == "" {
				assert.NoError(t, err)
				return
			}
			var rejErr *RejectedError
			require.ErrorAs(t, err, &rejErr)
			assert.Equal(t, tt.reason, rejErr.Reason)
			assert.True(t, IsRejected(err))
		})
	}
}

func TestValidate_FirstMatchWins(t *testing.T) {
	p := Default()

	// Multi-line beats size and import.
	err := p.Validate("import os\n" + strings.Repeat("x", 200))
	var rejErr *RejectedError
	require.ErrorAs(t, err, &rejErr)
	assert.Equal(t, ReasonMultiLine, rejErr.Reason)

	// Size beats import.
	err = p.Validate("import " + strings.Repeat("x", 120))
	require.ErrorAs(t, err, &rejErr)
	assert.Equal(t, ReasonTooLarge, rejErr.Reason)
}

func TestValidate_CustomLimit(t *testing.T) {
	p := Policy{MaxLength: 5}
	assert.NoError(t, p.Validate("x = 1"))
	assert.Error(t, p.Validate("x = 10"))

	// Zero falls back to the default.
	assert.NoError(t, Policy{}.Validate(strings.Repeat("a", 100)))
}

func TestRejectedError(t *testing.T) {
	err := &RejectedError{Reason: ReasonImport}
	assert.Equal(t, "fix rejected: contains import", err.Error())
	assert.False(t, IsRejected(nil))
}
