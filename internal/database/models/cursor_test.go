package models

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	t.Parallel()

	postedAt := time.Date(2026, 1, 7, 14, 30, 45, 123456789, time.UTC)

	cursor := encodeCursor(postedAt, "msg-42")
	decodedAt, id, err := decodeCursor(cursor)

	require.NoError(t, err)
	assert.True(t, postedAt.Equal(decodedAt))
	assert.Equal(t, "msg-42", id)
}

func TestCursorIDMayContainSeparator(t *testing.T) {
	t.Parallel()

	postedAt := time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC)

	cursor := encodeCursor(postedAt, "a|b|c")
	_, id, err := decodeCursor(cursor)

	require.NoError(t, err)
	assert.Equal(t, "a|b|c", id)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		cursor string
	}{
		{name: "not base64", cursor: "!!not-base64!!"},
		{name: "missing separator", cursor: base64.RawURLEncoding.EncodeToString([]byte("no-separator"))},
		{name: "bad timestamp", cursor: base64.RawURLEncoding.EncodeToString([]byte("yesterday|msg-1"))},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := decodeCursor(tt.cursor)
			require.ErrorIs(t, err, ErrInvalidCursor)
		})
	}
}
