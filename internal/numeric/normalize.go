// Package numeric turns localized, thousands-grouped numbers into integers.
package numeric

import (
	"regexp"
	"strconv"
	"strings"
)

// numberPattern matches a digit followed by any run of digits and the
// grouping separators "." and ",".
var numberPattern = regexp.MustCompile(`\d[\d.,]*`)

var separatorStripper = strings.NewReplacer(".", "", ",", "")

// Token is one number found in a piece of text.
type Token struct {
	Raw    string // matched substring, separators included
	Value  int64
	Digits int // significant digits once separators are removed
}

// Normalize returns the first localized number in text with every "." and
// "," removed, e.g. "138.330 oglasa" -> 138330. The boolean is false when
// text holds no digit or the digits do not fit an int64.
func Normalize(text string) (int64, bool) {
	match := numberPattern.FindString(text)
	if match == "" {
		return 0, false
	}
	tok, ok := parse(match)
	return tok.Value, ok
}

// FindAll returns every number in text, in order of appearance.
func FindAll(text string) []Token {
	matches := numberPattern.FindAllString(text, -1)
	tokens := make([]Token, 0, len(matches))
	for _, m := range matches {
		if tok, ok := parse(m); ok {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

func parse(raw string) (Token, bool) {
	digits := separatorStripper.Replace(raw)
	if digits == "" {
		return Token{}, false
	}
	// The pattern admits no sign, so a successful parse is never negative.
	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return Token{}, false
	}
	return Token{
		Raw:    raw,
		Value:  v,
		Digits: len(strings.TrimLeft(digits, "0")),
	}, true
}
