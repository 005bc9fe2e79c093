// Package format holds the text helpers shared by the report, the live
// display and the metrics labels.
package format

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"lukechampine.com/uint128"
)

// TimestampLayout is the layout of the initial/final timestamps of a record.
const TimestampLayout = "02/01/2006 15:04:05"

// Bytes returns a human readable SI magnitude for n, e.g. "1.5 kB".
func Bytes(n uint128.Uint128) string {
	return humanize.BigBytes(n.Big())
}

// Timestamp formats t the way records store it.
func Timestamp(t time.Time) string {
	return t.Local().Format(TimestampLayout)
}

// Center pads s with spaces to width characters. The odd space goes to the
// right. Strings already at or over width are returned unchanged.
func Center(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	left := (width - n) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-n-left)
}

// Right right-aligns s in a field of width characters without truncating.
func Right(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return strings.Repeat(" ", width-n) + s
}

// Left left-aligns s in a field of width characters without truncating.
func Left(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
