package storage

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFailureMatchesStorageFailure(t *testing.T) {
	err := Failure("save", fs.ErrPermission)
	assert.ErrorIs(t, err, ErrStorageFailure)
	assert.ErrorIs(t, err, fs.ErrPermission)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "save: permission denied", err.Error())

	var se *Error
	assert.True(t, errors.As(err, &se))
	assert.Equal(t, "save", se.Op)
}

func TestFailurePassesThroughDomainErrors(t *testing.T) {
	nf := NotFound("category", "abc")
	assert.Same(t, nf, Failure("delete", nf))
	assert.Equal(t, "category not found: abc", nf.Error())
	assert.Nil(t, Failure("noop", nil))
}

func TestNotLoaded(t *testing.T) {
	assert.ErrorIs(t, NotLoaded("list"), ErrStorageFailure)
}
