package markup

// Token is a variable reference in formula text. Start and End are rune
// offsets, End exclusive. An unterminated token runs to the end of the text.
type Token struct {
	Start  int
	End    int
	Closed bool
}

// Len returns the token length in runes.
func (t Token) Len() int {
	return t.End - t.Start
}

// Contains reports whether pos falls strictly inside the token, i.e. a caret
// at pos would split it.
func (t Token) Contains(pos int) bool {
	return pos > t.Start && pos < t.End
}

// Tokens lists the variable tokens of text using the same span rules as
// Encode: the first unmatched '[' opens a token, the next ']' closes it.
func Tokens(text string) []Token {
	var out []Token
	start := -1
	i := 0
	for _, r := range text {
		switch r {
		case '[':
			if start < 0 {
				start = i
			}
		case ']':
			if start >= 0 {
				out = append(out, Token{Start: start, End: i + 1, Closed: true})
				start = -1
			}
		}
		i++
	}
	if start >= 0 {
		out = append(out, Token{Start: start, End: i})
	}
	return out
}

// TokenAt returns the token strictly containing pos.
func TokenAt(tokens []Token, pos int) (Token, bool) {
	for _, t := range tokens {
		if t.Start >= pos {
			break
		}
		if t.Contains(pos) {
			return t, true
		}
	}
	return Token{}, false
}

// TokenEndingAt returns the closed token whose closing bracket sits right
// before pos.
func TokenEndingAt(tokens []Token, pos int) (Token, bool) {
	for _, t := range tokens {
		if t.End == pos && t.Closed {
			return t, true
		}
		if t.Start >= pos {
			break
		}
	}
	return Token{}, false
}

// TokenStartingAt returns the token whose opening bracket sits at pos.
func TokenStartingAt(tokens []Token, pos int) (Token, bool) {
	for _, t := range tokens {
		if t.Start == pos {
			return t, true
		}
		if t.Start > pos {
			break
		}
	}
	return Token{}, false
}
