package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/julianstephens/trackly/internal/storage"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "nil error", err: nil, expected: ""},
		{name: "simple error", err: errors.New("something went wrong"), expected: "Error: something went wrong"},
		{name: "not found", err: storage.NotFound("category", "abc"), expected: "Error: category not found: abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Format(tt.err))
		})
	}
}

func TestFormatf(t *testing.T) {
	assert.Equal(t, "Error: failed to load config", Formatf("failed to load %s", "config"))
	assert.Equal(t, "Error: 3 items", Formatf("%d items", 3))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(errors.New("boom")))
	assert.Equal(t, 2, ExitCode(fmt.Errorf("rename: %w", storage.NotFound("category", "x"))))
	assert.Equal(t, 3, ExitCode(storage.Failure("save", errors.New("disk full"))))
}
