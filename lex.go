package formula

import (
	"strconv"
	"strings"
	"unicode"
)

// token is a single lexeme of a formula. Table keys produced during parsing
// travel through token lists as tokens too.
type token struct {
	text string
	// pos is the 1-based rune column of the start of the token.
	pos int
}

func (t token) String() string {
	return t.text + "@" + strconv.Itoa(t.pos)
}

// Operators contains the operator symbols recognized by the tokenizer. Symbols
// of two runes are matched before single runes.
const Operators = "** << >> ^ * / % + - & | ! °"

var (
	longops  = []string{"**", "<<", ">>"}
	shortops = "^*/%+-&|!°"
)

// NumeralFormat is the convention for writing numbers in formulas. It is
// fixed when a Parser is created.
type NumeralFormat struct {
	// Decimal is the decimal separator, '.' or ','.
	Decimal rune
	// Separator separates function arguments. It must differ from Decimal.
	Separator rune
}

// DefaultFormat uses '.' for decimals and ',' between arguments.
var DefaultFormat = NumeralFormat{Decimal: '.', Separator: ','}

// check panics if the format is unusable.
func (f NumeralFormat) check() {
	if f.Decimal != '.' && f.Decimal != ',' {
		panic("formula: invalid decimal separator " + strconv.QuoteRune(f.Decimal))
	}
	switch {
	case f.Separator == f.Decimal,
		f.Separator != ',' && f.Separator != ';':
		panic("formula: invalid argument separator " + strconv.QuoteRune(f.Separator))
	}
}

// parse parses a number token.
func (f NumeralFormat) parse(s string) (float64, error) {
	if f.Decimal != '.' {
		s = strings.Replace(s, string(f.Decimal), ".", 1)
	}
	return strconv.ParseFloat(s, 64)
}

// format renders a number so that parse recovers it exactly.
func (f NumeralFormat) format(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if f.Decimal != '.' {
		s = strings.Replace(s, ".", string(f.Decimal), 1)
	}
	return s
}

// lex splits a formula into tokens. Letters are folded to lower case and **
// becomes ^. An empty formula lexes as the single token 0.
func lex(src string, f NumeralFormat) ([]token, error) {
	rs := []rune(strings.ToLower(src))
	var toks []token
	for i := 0; i < len(rs); {
		r := rs[i]
		pos := i + 1
		switch {
		case unicode.IsSpace(r):
			i++
		case isdigit(r), r == f.Decimal && i+1 < len(rs) && isdigit(rs[i+1]):
			n, err := scanNum(rs[i:], f.Decimal, pos)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{text: string(rs[i : i+n]), pos: pos})
			i += n
		case r == '_', unicode.IsLetter(r):
			j := i + 1
			for j < len(rs) && (rs[j] == '_' || unicode.IsLetter(rs[j]) || unicode.IsDigit(rs[j])) {
				j++
			}
			toks = append(toks, token{text: string(rs[i:j]), pos: pos})
			i = j
		case r == '(', r == ')', r == f.Separator:
			toks = append(toks, token{text: string(r), pos: pos})
			i++
		default:
			if i+1 < len(rs) {
				if op := string(rs[i : i+2]); contains(longops, op) {
					if op == "**" {
						op = "^"
					}
					toks = append(toks, token{text: op, pos: pos})
					i += 2
					continue
				}
			}
			if strings.ContainsRune(shortops, r) {
				toks = append(toks, token{text: string(r), pos: pos})
				i++
				continue
			}
			return nil, &SyntaxError{Col: pos, Token: string(r), Msg: "invalid character"}
		}
	}
	if len(toks) == 0 {
		toks = append(toks, token{text: "0", pos: 1})
	}
	return toks, nil
}

// scanNum returns the length of the number at the start of rs. The decimal
// separator must be followed by a digit. An exponent marker is part of the
// number only when digits follow it, so that 2e is still 2 times e.
func scanNum(rs []rune, dec rune, pos int) (int, error) {
	i := 0
	for i < len(rs) && isdigit(rs[i]) {
		i++
	}
	if i+1 < len(rs) && rs[i] == dec && isdigit(rs[i+1]) {
		i++
		for i < len(rs) && isdigit(rs[i]) {
			i++
		}
	}
	if i < len(rs) && rs[i] == 'e' {
		j := i + 1
		if j < len(rs) && (rs[j] == '+' || rs[j] == '-') {
			j++
		}
		if j < len(rs) && isdigit(rs[j]) {
			for j < len(rs) && isdigit(rs[j]) {
				j++
			}
			i = j
		}
	}
	if i < len(rs) && (rs[i] == dec || isdigit(rs[i])) {
		return 0, &SyntaxError{Col: pos, Token: string(rs[:i+1]), Msg: "malformed number"}
	}
	return i, nil
}

func isdigit(r rune) bool {
	return '0' <= r && r <= '9'
}

func isnumber(s string) bool {
	return s != "" && (isdigit(rune(s[0])) || s[0] == '.' || s[0] == ',')
}

func isident(s string) bool {
	for _, r := range s {
		return r == '_' || unicode.IsLetter(r)
	}
	return false
}

func contains(v []string, s string) bool {
	for _, x := range v {
		if x == s {
			return true
		}
	}
	return false
}
