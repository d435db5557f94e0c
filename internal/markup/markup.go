// Package markup converts formula text to the sanitized markup rendered by a
// host surface and back. The only tag it ever emits besides <br> is a color
// span around each variable token.
package markup

import (
	"strings"
)

const (
	DefaultVariableColor    = "#0000ff"
	DefaultNonVariableColor = "#000000"

	lineBreak = "<br>"
	spanClose = "</span>"
	nbsp      = '\u00a0'
)

// Encode renders formula text as markup. Every [...] span becomes one color
// span; a trailing unmatched '[' is closed at the end of input.
func Encode(text, variableColor string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4)

	inVariable := false
	leading := true
	for _, r := range text {
		if r > 127 {
			b.WriteByte(' ')
			continue
		}
		switch r {
		case '[':
			if !inVariable {
				inVariable = true
				writeSpanOpen(&b, variableColor)
			}
			b.WriteByte('[')
			leading = false
		case ']':
			b.WriteByte(']')
			if inVariable {
				inVariable = false
				b.WriteString(spanClose)
			}
			leading = false
		case '\n':
			b.WriteString(lineBreak)
			leading = true
		case '\t':
			b.WriteByte(' ')
		case ' ':
			if leading {
				b.WriteRune(nbsp)
				leading = false
			} else {
				b.WriteByte(' ')
			}
		case '&', '<', '"':
			writeEscapedRune(&b, r)
			leading = false
		default:
			b.WriteRune(r)
			leading = false
		}
	}
	if inVariable {
		b.WriteString(spanClose)
	}
	return b.String()
}

// VariableSpan returns the markup for a single token named name.
func VariableSpan(name, color string) string {
	var b strings.Builder
	writeSpanOpen(&b, color)
	b.WriteByte('[')
	writeEscaped(&b, name)
	b.WriteByte(']')
	b.WriteString(spanClose)
	return b.String()
}

func writeSpanOpen(b *strings.Builder, color string) {
	b.WriteString(`<span style="color:`)
	writeEscaped(b, color)
	b.WriteString(`">`)
}

func writeEscaped(b *strings.Builder, s string) {
	for _, r := range s {
		writeEscapedRune(b, r)
	}
}

func writeEscapedRune(b *strings.Builder, r rune) {
	switch r {
	case '&':
		b.WriteString("&amp;")
	case '<':
		b.WriteString("&lt;")
	case '"':
		b.WriteString("&quot;")
	default:
		b.WriteRune(r)
	}
}
