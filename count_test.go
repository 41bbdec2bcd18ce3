package linewise

import (
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/require"
)

func TestCountLines(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
	}{
		{"", 0},
		{"\n", 1},
		{"a", 1},
		{"a\n", 1},
		{"a\nb", 2},
		{"a\nb\n", 2},
		{"a\r\nb\r\n", 2},
		{"\n\n\n", 3},
		{strings.Repeat("line\n", 100000), 100000},
	}
	for _, tt := range tests {
		n, err := CountLines(strings.NewReader(tt.in))
		require.NoError(t, err)
		require.Equal(t, tt.want, n, "input %.20q", tt.in)

		// must agree with the reader
		require.Len(t, readAll(t, newReaderSource(strings.NewReader(tt.in))), int(tt.want))
	}
}

func TestCountLines_ReadError(t *testing.T) {
	boom := errors.New("boom")
	_, err := CountLines(iotest.ErrReader(boom))
	require.ErrorIs(t, err, boom)
}
