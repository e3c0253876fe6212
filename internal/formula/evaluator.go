// Package formula evaluates the small arithmetic expressions users may
// type into amount fields, such as "=120+35.5" or "(3*40)/2".
//
// Grammar:
//
//	expr   = term { ("+" | "-") term }
//	term   = factor { ("*" | "/") factor }
//	factor = [ "-" | "+" ] ( number | "(" expr ")" )
package formula

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/garyjia/mission-expenses/internal/domain/calendar"
	"github.com/shopspring/decimal"
)

const maxDepth = 64

// divisionPrecision is the number of decimal places kept by "/".
const divisionPrecision = 16

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokOp
	tokLParen
	tokRParen
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// Evaluate computes expr. A leading "=" is optional; Arabic-Indic digits
// and the Arabic decimal separator are accepted.
func Evaluate(expr string) (decimal.Decimal, error) {
	s := strings.TrimSpace(calendar.NormalizeDigits(expr))
	s = strings.TrimPrefix(s, "=")
	s = strings.ReplaceAll(s, "٫", ".")
	s = strings.NewReplacer("×", "*", "÷", "/").Replace(s)

	tokens, err := tokenize(s)
	if err != nil {
		return decimal.Zero, err
	}
	p := &parser{tokens: tokens}
	v, err := p.expr(0)
	if err != nil {
		return decimal.Zero, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return decimal.Zero, fmt.Errorf("%w: unexpected %q at %d", ErrSyntax, t.text, t.pos)
	}
	return v, nil
}

// IsExpression reports whether s looks like something Evaluate should
// handle rather than a plain number.
func IsExpression(s string) bool {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "=") {
		return true
	}
	return strings.ContainsAny(strings.TrimPrefix(s, "-"), "+-*/()×÷")
}

func tokenize(s string) ([]token, error) {
	var tokens []token
	runes := []rune(s)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r >= '0' && r <= '9' || r == '.':
			start := i
			dots := 0
			for i < len(runes) && (runes[i] >= '0' && runes[i] <= '9' || runes[i] == '.') {
				if runes[i] == '.' {
					dots++
				}
				i++
			}
			text := string(runes[start:i])
			if dots > 1 || text == "." {
				return nil, fmt.Errorf("%w: bad number %q at %d", ErrSyntax, text, start)
			}
			tokens = append(tokens, token{kind: tokNumber, text: text, pos: start})
		case strings.ContainsRune("+-*/", r):
			tokens = append(tokens, token{kind: tokOp, text: string(r), pos: i})
			i++
		case r == '(':
			tokens = append(tokens, token{kind: tokLParen, text: "(", pos: i})
			i++
		case r == ')':
			tokens = append(tokens, token{kind: tokRParen, text: ")", pos: i})
			i++
		default:
			return nil, fmt.Errorf("%w: unexpected %q at %d", ErrSyntax, string(r), i)
		}
	}
	return append(tokens, token{kind: tokEOF, pos: len(runes)}), nil
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expr(depth int) (decimal.Decimal, error) {
	left, err := p.term(depth)
	if err != nil {
		return decimal.Zero, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.text != "+" && t.text != "-") {
			return left, nil
		}
		p.next()
		right, err := p.term(depth)
		if err != nil {
			return decimal.Zero, err
		}
		if t.text == "+" {
			left = left.Add(right)
		} else {
			left = left.Sub(right)
		}
	}
}

func (p *parser) term(depth int) (decimal.Decimal, error) {
	left, err := p.factor(depth)
	if err != nil {
		return decimal.Zero, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.text != "*" && t.text != "/") {
			return left, nil
		}
		p.next()
		right, err := p.factor(depth)
		if err != nil {
			return decimal.Zero, err
		}
		if t.text == "*" {
			left = left.Mul(right)
			continue
		}
		if right.IsZero() {
			return decimal.Zero, ErrDivideByZero
		}
		left = left.DivRound(right, divisionPrecision)
	}
}

func (p *parser) factor(depth int) (decimal.Decimal, error) {
	if depth > maxDepth {
		return decimal.Zero, fmt.Errorf("%w: nested too deeply", ErrSyntax)
	}
	t := p.next()
	switch t.kind {
	case tokOp:
		if t.text != "-" && t.text != "+" {
			break
		}
		v, err := p.factor(depth + 1)
		if err != nil {
			return decimal.Zero, err
		}
		if t.text == "-" {
			v = v.Neg()
		}
		return v, nil
	case tokNumber:
		v, err := decimal.NewFromString(t.text)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: bad number %q at %d", ErrSyntax, t.text, t.pos)
		}
		return v, nil
	case tokLParen:
		v, err := p.expr(depth + 1)
		if err != nil {
			return decimal.Zero, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return decimal.Zero, fmt.Errorf("%w: missing ) at %d", ErrSyntax, closing.pos)
		}
		return v, nil
	}
	if t.kind == tokEOF {
		return decimal.Zero, fmt.Errorf("%w: unexpected end of expression", ErrSyntax)
	}
	return decimal.Zero, fmt.Errorf("%w: unexpected %q at %d", ErrSyntax, t.text, t.pos)
}
