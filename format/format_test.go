package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"lukechampine.com/uint128"
)

func TestCenter(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"DNS", 9, "   DNS   "},
		{"HTTPS", 9, "  HTTPS  "},
		{"SSH", 8, "  SSH   "},
		{"", 3, "   "},
		{"NetBIOSX1", 9, "NetBIOSX1"},
		{"overlong label", 9, "overlong label"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Center(tt.in, tt.width), "Center(%q, %d)", tt.in, tt.width)
	}
}

func TestRight(t *testing.T) {
	assert.Equal(t, "         3", Right("3", 10))
	assert.Equal(t, "1234567890", Right("1234567890", 10))
	assert.Equal(t, "12345678901", Right("12345678901", 10))
}

func TestLeft(t *testing.T) {
	assert.Equal(t, "ab  ", Left("ab", 4))
	assert.Equal(t, "abcde", Left("abcde", 4))
}

func TestBytes(t *testing.T) {
	assert.Equal(t, "0 B", Bytes(uint128.Zero))
	assert.Equal(t, "999 B", Bytes(uint128.From64(999)))
	assert.Equal(t, "1.5 kB", Bytes(uint128.From64(1500)))
	assert.Equal(t, "2.0 MB", Bytes(uint128.From64(2_000_000)))
	assert.NotEmpty(t, Bytes(uint128.Max))
}

func TestTimestamp(t *testing.T) {
	ts := time.Date(2024, time.March, 7, 10, 0, 5, 0, time.Local)
	assert.Equal(t, "07/03/2024 10:00:05", Timestamp(ts))
}
