// Package selection implements the range algebra that keeps variable tokens
// whole: any selection is grown until neither endpoint splits a token.
package selection

import (
	"unicode/utf8"

	"github.com/kobzarvs/formulaedit/internal/markup"
)

// Range is a selection in rune offsets of the plain-text projection.
// Start <= End once normalized; a collapsed range is a caret.
type Range struct {
	Start int
	End   int
}

// Caret returns a collapsed range at pos.
func Caret(pos int) Range {
	return Range{Start: pos, End: pos}
}

func (r Range) Collapsed() bool {
	return r.Start == r.End
}

func (r Range) Len() int {
	return r.End - r.Start
}

// Normalize orders the endpoints.
func (r Range) Normalize() Range {
	if r.Start <= r.End {
		return r
	}
	return Range{Start: r.End, End: r.Start}
}

// Clamp normalizes r and keeps both endpoints within [0, n].
func (r Range) Clamp(n int) Range {
	r = r.Normalize()
	r.Start = clampInt(r.Start, 0, n)
	r.End = clampInt(r.End, 0, n)
	return r
}

// Bias tells Expand which deletion, if any, the selection is about to
// undergo.
type Bias uint8

const (
	// BiasNone is used for copy, cut, mouse selection and insertion.
	BiasNone Bias = iota
	// BiasBackward is used for Backspace and type-over: a caret right after a
	// token selects that token.
	BiasBackward
	// BiasForward is used for Delete: a caret right before a token selects
	// that token.
	BiasForward
)

// Expand grows r so that it never starts or ends strictly inside a variable
// token of text.
func Expand(text string, r Range, bias Bias) Range {
	n := utf8.RuneCountInString(text)
	r = r.Clamp(n)
	tokens := markup.Tokens(text)

	if r.Collapsed() {
		switch bias {
		case BiasNone:
			if _, ok := markup.TokenEndingAt(tokens, r.End); ok {
				return r
			}
		case BiasBackward:
			if r.Start > 0 {
				r.Start--
			}
		case BiasForward:
			if r.End < n {
				r.End++
			}
		}
	}

	for _, t := range tokens {
		if t.Start >= r.End {
			break
		}
		if t.Contains(r.Start) {
			r.Start = t.Start
		}
		if t.Contains(r.End) {
			r.End = t.End
		}
	}
	return r
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
