// Package filter builds store filter expressions from typed conditions.
//
// Values are never spliced into the expression text unquoted: every literal is
// serialised by type, and strings are double-quoted with embedded quotes
// escaped, so a value cannot change the shape of the expression.
//
//	expr := filter.And(
//	    filter.Eq("published", true),
//	    filter.Eq("category.slug", slug),
//	)
//	s, err := filter.Build(expr) // published = true && category.slug = "music"
package filter

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidField     = errors.New("filter: invalid field path")
	ErrInvalidOperator  = errors.New("filter: invalid operator")
	ErrUnsupportedValue = errors.New("filter: unsupported value type")
	// ErrInvalidLiteral is returned for strings the store grammar cannot
	// represent. The grammar only knows the \" escape, so a backslash could
	// swallow the closing quote.
	ErrInvalidLiteral = errors.New("filter: string literal contains a backslash")
)

// DateTimeLayout is the store's timestamp format.
const DateTimeLayout = "2006-01-02 15:04:05.000Z"

type Op string

const (
	OpEq      Op = "="
	OpNeq     Op = "!="
	OpGt      Op = ">"
	OpGte     Op = ">="
	OpLt      Op = "<"
	OpLte     Op = "<="
	OpLike    Op = "~"
	OpNotLike Op = "!~"
	OpAnyEq   Op = "?="
)

func (o Op) valid() bool {
	switch o {
	case OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte, OpLike, OpNotLike, OpAnyEq:
		return true
	}
	return false
}

var fieldPath = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// Expr is a filter expression node.
type Expr interface {
	write(sb *strings.Builder, nested bool) error
	empty() bool
}

type cond struct {
	field string
	op    Op
	value any
}

// Cond compares a field path with a literal value.
func Cond(field string, op Op, value any) Expr {
	return cond{field: field, op: op, value: value}
}

func Eq(field string, value any) Expr      { return Cond(field, OpEq, value) }
func Neq(field string, value any) Expr     { return Cond(field, OpNeq, value) }
func Gt(field string, value any) Expr      { return Cond(field, OpGt, value) }
func Gte(field string, value any) Expr     { return Cond(field, OpGte, value) }
func Lt(field string, value any) Expr      { return Cond(field, OpLt, value) }
func Lte(field string, value any) Expr     { return Cond(field, OpLte, value) }
func Like(field string, value any) Expr    { return Cond(field, OpLike, value) }
func NotLike(field string, value any) Expr { return Cond(field, OpNotLike, value) }

func (c cond) empty() bool { return false }

func (c cond) write(sb *strings.Builder, _ bool) error {
	if !fieldPath.MatchString(c.field) {
		return fmt.Errorf("%w: %q", ErrInvalidField, c.field)
	}
	if !c.op.valid() {
		return fmt.Errorf("%w: %q", ErrInvalidOperator, c.op)
	}
	lit, err := Literal(c.value)
	if err != nil {
		return err
	}
	sb.WriteString(c.field)
	sb.WriteByte(' ')
	sb.WriteString(string(c.op))
	sb.WriteByte(' ')
	sb.WriteString(lit)
	return nil
}

type group struct {
	join  string
	exprs []Expr
}

// And joins the non-empty expressions with &&.
func And(exprs ...Expr) Expr { return group{join: " && ", exprs: exprs} }

// Or joins the non-empty expressions with ||.
func Or(exprs ...Expr) Expr { return group{join: " || ", exprs: exprs} }

func (g group) live() []Expr {
	out := make([]Expr, 0, len(g.exprs))
	for _, e := range g.exprs {
		if e != nil && !e.empty() {
			out = append(out, e)
		}
	}
	return out
}

func (g group) empty() bool { return len(g.live()) == 0 }

func (g group) write(sb *strings.Builder, nested bool) error {
	live := g.live()
	if len(live) == 1 {
		return live[0].write(sb, nested)
	}
	if nested {
		sb.WriteByte('(')
	}
	for i, e := range live {
		if i > 0 {
			sb.WriteString(g.join)
		}
		if err := e.write(sb, true); err != nil {
			return err
		}
	}
	if nested {
		sb.WriteByte(')')
	}
	return nil
}

// Build serialises e. A nil or empty expression yields "".
func Build(e Expr) (string, error) {
	if e == nil || e.empty() {
		return "", nil
	}
	var sb strings.Builder
	if err := e.write(&sb, false); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Literal renders a single value in the store's filter syntax.
func Literal(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "null", nil
	case string:
		return Quote(x)
	case bool:
		return strconv.FormatBool(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case uint:
		return strconv.FormatUint(uint64(x), 10), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case time.Time:
		return Quote(x.UTC().Format(DateTimeLayout))
	case fmt.Stringer:
		return Quote(x.String())
	}
	return "", fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
}

// Quote double-quotes s for use as a string literal.
func Quote(s string) (string, error) {
	if strings.ContainsRune(s, '\\') {
		return "", ErrInvalidLiteral
	}
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`, nil
}
