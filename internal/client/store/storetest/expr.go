package storetest

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokString
	tokNumber
	tokOp
	tokJoin
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
}

var comparisonOps = []string{"?=", "!=", ">=", "<=", "!~", "=", ">", "<", "~"}

func tokenize(s string) ([]token, error) {
	var out []token
	rs := []rune(s)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			out = append(out, token{kind: tokLParen, text: "("})
			i++
		case r == ')':
			out = append(out, token{kind: tokRParen, text: ")"})
			i++
		case r == '"' || r == '\'':
			// only the quote character itself can be escaped
			quote := r
			var sb strings.Builder
			j := i + 1
			closed := false
			for ; j < len(rs); j++ {
				if rs[j] == quote && rs[j-1] != '\\' {
					closed = true
					break
				}
				sb.WriteRune(rs[j])
			}
			if !closed {
				return nil, errors.New("unterminated string literal")
			}
			lit := strings.ReplaceAll(sb.String(), `\`+string(quote), string(quote))
			out = append(out, token{kind: tokString, text: lit})
			i = j + 1
		case r == '&' || r == '|':
			if i+1 >= len(rs) || rs[i+1] != r {
				return nil, fmt.Errorf("unexpected %q", r)
			}
			out = append(out, token{kind: tokJoin, text: string([]rune{r, r})})
			i += 2
		case strings.ContainsRune("=!<>~?", r):
			matched := ""
			for _, op := range comparisonOps {
				if strings.HasPrefix(string(rs[i:]), op) {
					matched = op
					break
				}
			}
			if matched == "" {
				return nil, fmt.Errorf("unexpected %q", r)
			}
			out = append(out, token{kind: tokOp, text: matched})
			i += len([]rune(matched))
		case r == '-' || unicode.IsDigit(r):
			j := i + 1
			for j < len(rs) && (unicode.IsDigit(rs[j]) || rs[j] == '.') {
				j++
			}
			out = append(out, token{kind: tokNumber, text: string(rs[i:j])})
			i = j
		case r == '@' || r == '_' || unicode.IsLetter(r):
			j := i + 1
			for j < len(rs) && (rs[j] == '_' || rs[j] == '.' || rs[j] == ':' || unicode.IsLetter(rs[j]) || unicode.IsDigit(rs[j])) {
				j++
			}
			out = append(out, token{kind: tokIdent, text: string(rs[i:j])})
			i = j
		default:
			return nil, fmt.Errorf("unexpected %q", r)
		}
	}
	return out, nil
}

type operandKind int

const (
	opIdent operandKind = iota
	opLiteral
)

type operand struct {
	kind  operandKind
	ident string
	value any
}

type node interface {
	eval(res resolver) (bool, error)
	comparisons() []Comparison
}

type joinNode struct {
	op          string
	left, right node
}

func (n joinNode) eval(res resolver) (bool, error) {
	l, err := n.left.eval(res)
	if err != nil {
		return false, err
	}
	if n.op == "&&" && !l {
		return false, nil
	}
	if n.op == "||" && l {
		return true, nil
	}
	return n.right.eval(res)
}

func (n joinNode) comparisons() []Comparison {
	return append(n.left.comparisons(), n.right.comparisons()...)
}

type cmpNode struct {
	left, right operand
	op          string
}

// Comparison is a flattened view of one "a op b" term, for assertions.
type Comparison struct {
	Left  string
	Op    string
	Right any
}

func (n cmpNode) comparisons() []Comparison {
	c := Comparison{Op: n.op}
	if n.left.kind == opIdent {
		c.Left = n.left.ident
	}
	if n.right.kind == opLiteral {
		c.Right = n.right.value
	} else {
		c.Right = n.right.ident
	}
	return []Comparison{c}
}

type resolver func(path string) (any, error)

func (n cmpNode) eval(res resolver) (bool, error) {
	l, err := n.left.resolve(res)
	if err != nil {
		return false, err
	}
	r, err := n.right.resolve(res)
	if err != nil {
		return false, err
	}
	return compare(l, n.op, r), nil
}

func (o operand) resolve(res resolver) (any, error) {
	if o.kind == opLiteral {
		return o.value, nil
	}
	return res(o.ident)
}

// Filter is a parsed filter expression.
type Filter struct {
	root node
}

// ParseFilter parses the store filter grammar: comparisons joined with && and
// ||, parentheses, double or single quoted strings, numbers, true, false and
// null.
func ParseFilter(s string) (*Filter, error) {
	toks, err := tokenize(s)
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return &Filter{}, nil
	}
	p := &parser{toks: toks}
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.toks) {
		return nil, fmt.Errorf("unexpected %q", p.toks[p.pos].text)
	}
	return &Filter{root: root}, nil
}

// Comparisons lists every comparison term left to right.
func (f *Filter) Comparisons() []Comparison {
	if f.root == nil {
		return nil
	}
	return f.root.comparisons()
}

func (f *Filter) match(res resolver) (bool, error) {
	if f == nil || f.root == nil {
		return true, nil
	}
	return f.root.eval(res)
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() *token {
	if p.pos < len(p.toks) {
		return &p.toks[p.pos]
	}
	return nil
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for t := p.peek(); t != nil && t.kind == tokJoin && t.text == "||"; t = p.peek() {
		p.pos++
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = joinNode{op: "||", left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for t := p.peek(); t != nil && t.kind == tokJoin && t.text == "&&"; t = p.peek() {
		p.pos++
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		left = joinNode{op: "&&", left: left, right: right}
	}
	return left, nil
}

func (p *parser) parsePrimary() (node, error) {
	t := p.peek()
	if t == nil {
		return nil, errors.New("unexpected end of filter")
	}
	if t.kind == tokLParen {
		p.pos++
		n, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if c := p.peek(); c == nil || c.kind != tokRParen {
			return nil, errors.New("missing closing parenthesis")
		}
		p.pos++
		return n, nil
	}

	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	op := p.peek()
	if op == nil || op.kind != tokOp {
		return nil, errors.New("expected comparison operator")
	}
	p.pos++
	right, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	return cmpNode{left: left, op: op.text, right: right}, nil
}

func (p *parser) parseOperand() (operand, error) {
	t := p.peek()
	if t == nil {
		return operand{}, errors.New("expected operand")
	}
	p.pos++
	switch t.kind {
	case tokString:
		return operand{kind: opLiteral, value: t.text}, nil
	case tokNumber:
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return operand{}, fmt.Errorf("bad number %q", t.text)
		}
		return operand{kind: opLiteral, value: f}, nil
	case tokIdent:
		switch t.text {
		case "true":
			return operand{kind: opLiteral, value: true}, nil
		case "false":
			return operand{kind: opLiteral, value: false}, nil
		case "null":
			return operand{kind: opLiteral, value: nil}, nil
		}
		return operand{kind: opIdent, ident: t.text}, nil
	}
	return operand{}, fmt.Errorf("unexpected %q", t.text)
}

func isBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case []any:
		return len(x) == 0
	case []string:
		return len(x) == 0
	}
	return false
}

func compare(l any, op string, r any) bool {
	if op == "?=" {
		for _, item := range asSlice(l) {
			if compare(item, "=", r) {
				return true
			}
		}
		return false
	}

	if l == nil || r == nil {
		eq := isBlank(l) && isBlank(r)
		switch op {
		case "=":
			return eq
		case "!=":
			return !eq
		}
		return false
	}

	switch op {
	case "=":
		return equal(l, r)
	case "!=":
		return !equal(l, r)
	case "~":
		return strings.Contains(strings.ToLower(toString(l)), strings.ToLower(strings.Trim(toString(r), "%")))
	case "!~":
		return !strings.Contains(strings.ToLower(toString(l)), strings.ToLower(strings.Trim(toString(r), "%")))
	}

	c := order(l, r)
	switch op {
	case ">":
		return c > 0
	case ">=":
		return c >= 0
	case "<":
		return c < 0
	case "<=":
		return c <= 0
	}
	return false
}

func asSlice(v any) []any {
	switch x := v.(type) {
	case []any:
		return x
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out
	}
	return []any{v}
}

func equal(l, r any) bool {
	if lb, ok := l.(bool); ok {
		return lb == truthy(r)
	}
	if rb, ok := r.(bool); ok {
		return rb == truthy(l)
	}
	if lf, ok := toFloat(l); ok {
		if rf, ok := toFloat(r); ok {
			return lf == rf
		}
	}
	return toString(l) == toString(r)
}

func order(l, r any) int {
	if lf, ok := toFloat(l); ok {
		if rf, ok := toFloat(r); ok {
			switch {
			case lf < rf:
				return -1
			case lf > rf:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(toString(l), toString(r))
}

func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x == "true" || x == "1"
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	return 0, false
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	return fmt.Sprint(v)
}
