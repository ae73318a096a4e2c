package utils

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapError(t *testing.T) {
	tests := []struct {
		name    string
		context string
		cause   error
		wantNil bool
		wantMsg string
	}{
		{"nil cause", "read failed", nil, true, ""},
		{"with cause", "superblock read failed", io.EOF, false, "superblock read failed: EOF"},
		{"nested", "outer", WrapError("inner", io.ErrUnexpectedEOF), false, "outer: inner: unexpected EOF"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := WrapError(tt.context, tt.cause)
			if tt.wantNil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantMsg, err.Error())
			assert.ErrorIs(t, err, tt.cause)
		})
	}
}

func TestWrapErrorAt(t *testing.T) {
	sentinel := errors.New("bad signature")

	err := WrapErrorAt("object header parse failed", 48, sentinel)
	require.Error(t, err)
	assert.Equal(t, "object header parse failed at address 48: bad signature", err.Error())
	assert.ErrorIs(t, err, sentinel)

	var h5err *H5Error
	require.ErrorAs(t, err, &h5err)
	assert.True(t, h5err.HasAddr)
	assert.Equal(t, uint64(48), h5err.Address)

	assert.NoError(t, WrapErrorAt("noop", 0, nil))
}
