package markup

import (
	"strings"

	"golang.org/x/net/html"
)

// Segment is a run of plain text sharing one foreground color. Color is empty
// for text outside any color span.
type Segment struct {
	Text  string
	Color string
}

// Parse reads markup into colored text segments. <br> becomes '\n' and
// non-breaking spaces become regular spaces; unknown tags are dropped and
// only their text is kept.
func Parse(markup string) []Segment {
	z := html.NewTokenizer(strings.NewReader(markup))
	var (
		out    []Segment
		colors []string
	)
	current := func() string {
		if len(colors) == 0 {
			return ""
		}
		return colors[len(colors)-1]
	}
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return out
		case html.TextToken:
			text := strings.ReplaceAll(string(z.Text()), "\u00a0", " ")
			out = appendSegment(out, text, current())
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			switch string(name) {
			case "br":
				out = appendSegment(out, "\n", current())
			case "span":
				color := current()
				for hasAttr {
					var key, val []byte
					key, val, hasAttr = z.TagAttr()
					if string(key) == "style" {
						if c, ok := styleColor(string(val)); ok {
							color = c
						}
					}
				}
				if tt == html.StartTagToken {
					colors = append(colors, color)
				}
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if string(name) == "span" && len(colors) > 0 {
				colors = colors[:len(colors)-1]
			}
		}
	}
}

// PlainText returns the plain-text projection of markup.
func PlainText(markup string) string {
	var b strings.Builder
	for _, seg := range Parse(markup) {
		b.WriteString(seg.Text)
	}
	return b.String()
}

func appendSegment(out []Segment, text, color string) []Segment {
	if text == "" {
		return out
	}
	if n := len(out); n > 0 && out[n-1].Color == color {
		out[n-1].Text += text
		return out
	}
	return append(out, Segment{Text: text, Color: color})
}

func styleColor(style string) (string, bool) {
	for _, decl := range strings.Split(style, ";") {
		key, val, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(key), "color") {
			return strings.TrimSpace(val), true
		}
	}
	return "", false
}
