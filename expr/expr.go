// Package expr evaluates the restricted condition language used by workflow
// definitions: boolean operators, comparisons, literals and dotted context
// paths. Programs receive nothing beyond the resolver they are given, so a
// misconfigured definition cannot reach host state.
package expr

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Resolver looks up a dotted path against the execution context. A miss
// yields (nil, false); conditions treat missing values as null.
type Resolver func(path string) (any, bool)

// Eval parses src and evaluates it. The script form `return <expr>;` is
// accepted alongside a bare expression.
func Eval(src string, resolve Resolver) (any, error) {
	node, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return node.eval(resolve)
}

// EvalBool evaluates src and applies truthiness to the result.
func EvalBool(src string, resolve Resolver) (bool, error) {
	v, err := Eval(src, resolve)
	if err != nil {
		return false, err
	}
	return Truthy(v), nil
}

// Truthy reports the condition value of v: null, zero, empty string and
// empty collections are false, everything else true.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case map[string]any:
		return len(t) > 0
	case []any:
		return len(t) > 0
	}
	if f, ok := toFloat(v); ok {
		return f != 0
	}
	return true
}

type Node interface {
	eval(resolve Resolver) (any, error)
}

// Parse compiles src into an evaluatable node. A leading `return` keyword
// and a trailing semicolon are stripped before parsing.
func Parse(src string) (Node, error) {
	trimmed := strings.TrimSpace(src)
	trimmed = strings.TrimSuffix(trimmed, ";")
	if rest, ok := strings.CutPrefix(trimmed, "return"); ok {
		if rest == "" || rest[0] == ' ' || rest[0] == '\t' || rest[0] == '\n' || rest[0] == '(' {
			trimmed = strings.TrimSpace(rest)
		}
	}
	if trimmed == "" {
		return nil, fmt.Errorf("empty expression")
	}
	toks, err := lex(trimmed)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, fmt.Errorf("unexpected token %q", p.peek().text)
	}
	return node, nil
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokPath
	tokString
	tokNumber
	tokTrue
	tokFalse
	tokNull
	tokAnd
	tokOr
	tokNot
	tokEq
	tokNe
	tokLt
	tokLe
	tokGt
	tokGe
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
}

func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "("})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")"})
			i++
		case c == '&':
			if i+1 >= len(src) || src[i+1] != '&' {
				return nil, fmt.Errorf("invalid operator at %d, expected &&", i)
			}
			toks = append(toks, token{tokAnd, "&&"})
			i += 2
		case c == '|':
			if i+1 >= len(src) || src[i+1] != '|' {
				return nil, fmt.Errorf("invalid operator at %d, expected ||", i)
			}
			toks = append(toks, token{tokOr, "||"})
			i += 2
		case c == '!':
			if i+1 < len(src) && src[i+1] == '=' {
				toks = append(toks, token{tokNe, "!="})
				i += 2
			} else {
				toks = append(toks, token{tokNot, "!"})
				i++
			}
		case c == '=':
			if i+1 >= len(src) || src[i+1] != '=' {
				return nil, fmt.Errorf("invalid operator at %d, expected ==", i)
			}
			toks = append(toks, token{tokEq, "=="})
			i += 2
		case c == '<':
			if i+1 < len(src) && src[i+1] == '=' {
				toks = append(toks, token{tokLe, "<="})
				i += 2
			} else {
				toks = append(toks, token{tokLt, "<"})
				i++
			}
		case c == '>':
			if i+1 < len(src) && src[i+1] == '=' {
				toks = append(toks, token{tokGe, ">="})
				i += 2
			} else {
				toks = append(toks, token{tokGt, ">"})
				i++
			}
		case c == '\'' || c == '"':
			quote := c
			j := i + 1
			for j < len(src) && src[j] != quote {
				j++
			}
			if j >= len(src) {
				return nil, fmt.Errorf("unterminated string at %d", i)
			}
			toks = append(toks, token{tokString, src[i+1 : j]})
			i = j + 1
		case c >= '0' && c <= '9', c == '-':
			j := i + 1
			for j < len(src) && (src[j] >= '0' && src[j] <= '9' || src[j] == '.') {
				j++
			}
			toks = append(toks, token{tokNumber, src[i:j]})
			i = j
		case isPathChar(c):
			j := i
			for j < len(src) && (isPathChar(src[j]) || src[j] >= '0' && src[j] <= '9' || src[j] == '.') {
				j++
			}
			word := src[i:j]
			switch word {
			case "true":
				toks = append(toks, token{tokTrue, word})
			case "false":
				toks = append(toks, token{tokFalse, word})
			case "null", "nil":
				toks = append(toks, token{tokNull, word})
			case "and":
				toks = append(toks, token{tokAnd, word})
			case "or":
				toks = append(toks, token{tokOr, word})
			case "not":
				toks = append(toks, token{tokNot, word})
			default:
				toks = append(toks, token{tokPath, strings.TrimPrefix(word, "$.")})
			}
			i = j
		default:
			return nil, fmt.Errorf("unexpected character %q at %d", c, i)
		}
	}
	toks = append(toks, token{tokEOF, ""})
	return toks, nil
}

func isPathChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' || c == '$'
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOr {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = orNode{left, right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokAnd {
		p.next()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = andNode{left, right}
	}
	return left, nil
}

func (p *parser) parseComparison() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	switch op := p.peek().kind; op {
	case tokEq, tokNe, tokLt, tokLe, tokGt, tokGe:
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return cmpNode{op: op, left: left, right: right}, nil
	}
	return left, nil
}

func (p *parser) parseUnary() (Node, error) {
	if p.peek().kind == tokNot {
		p.next()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return notNode{inner}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Node, error) {
	t := p.next()
	switch t.kind {
	case tokLParen:
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.next().kind != tokRParen {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		return inner, nil
	case tokString:
		return litNode{t.text}, nil
	case tokNumber:
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", t.text)
		}
		return litNode{f}, nil
	case tokTrue:
		return litNode{true}, nil
	case tokFalse:
		return litNode{false}, nil
	case tokNull:
		return litNode{nil}, nil
	case tokPath:
		return pathNode{t.text}, nil
	}
	return nil, fmt.Errorf("unexpected token %q", t.text)
}

type litNode struct {
	val any
}

func (n litNode) eval(Resolver) (any, error) {
	return n.val, nil
}

type pathNode struct {
	path string
}

func (n pathNode) eval(resolve Resolver) (any, error) {
	if resolve == nil {
		return nil, nil
	}
	v, ok := resolve(n.path)
	if !ok {
		return nil, nil
	}
	return v, nil
}

type notNode struct {
	inner Node
}

func (n notNode) eval(resolve Resolver) (any, error) {
	v, err := n.inner.eval(resolve)
	if err != nil {
		return nil, err
	}
	return !Truthy(v), nil
}

type andNode struct {
	left, right Node
}

func (n andNode) eval(resolve Resolver) (any, error) {
	l, err := n.left.eval(resolve)
	if err != nil {
		return nil, err
	}
	if !Truthy(l) {
		return false, nil
	}
	r, err := n.right.eval(resolve)
	if err != nil {
		return nil, err
	}
	return Truthy(r), nil
}

type orNode struct {
	left, right Node
}

func (n orNode) eval(resolve Resolver) (any, error) {
	l, err := n.left.eval(resolve)
	if err != nil {
		return nil, err
	}
	if Truthy(l) {
		return true, nil
	}
	r, err := n.right.eval(resolve)
	if err != nil {
		return nil, err
	}
	return Truthy(r), nil
}

type cmpNode struct {
	op          tokenKind
	left, right Node
}

func (n cmpNode) eval(resolve Resolver) (any, error) {
	l, err := n.left.eval(resolve)
	if err != nil {
		return nil, err
	}
	r, err := n.right.eval(resolve)
	if err != nil {
		return nil, err
	}
	switch n.op {
	case tokEq:
		return looseEqual(l, r), nil
	case tokNe:
		return !looseEqual(l, r), nil
	}
	return order(n.op, l, r)
}

func looseEqual(l, r any) bool {
	if l == nil || r == nil {
		return l == nil && r == nil
	}
	if lf, ok := toFloat(l); ok {
		if rf, ok := toFloat(r); ok {
			return lf == rf
		}
	}
	if ls, ok := l.(string); ok {
		if rs, ok := r.(string); ok {
			return ls == rs
		}
	}
	if lb, ok := l.(bool); ok {
		if rb, ok := r.(bool); ok {
			return lb == rb
		}
	}
	return reflect.DeepEqual(l, r)
}

func order(op tokenKind, l, r any) (any, error) {
	if lf, lok := toFloat(l); lok {
		if rf, rok := toFloat(r); rok {
			switch op {
			case tokLt:
				return lf < rf, nil
			case tokLe:
				return lf <= rf, nil
			case tokGt:
				return lf > rf, nil
			case tokGe:
				return lf >= rf, nil
			}
		}
	}
	if ls, lok := l.(string); lok {
		if rs, rok := r.(string); rok {
			switch op {
			case tokLt:
				return ls < rs, nil
			case tokLe:
				return ls <= rs, nil
			case tokGt:
				return ls > rs, nil
			case tokGe:
				return ls >= rs, nil
			}
		}
	}
	return nil, fmt.Errorf("cannot order %T and %T", l, r)
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	}
	return 0, false
}
