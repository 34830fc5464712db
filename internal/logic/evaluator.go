// Package logic implements the small expression language used by computed
// values and conditional checks. It is pure and total: evaluation never
// returns an error, missing variables read as null, null fails comparisons
// and contributes zero to arithmetic.
package logic

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Expr is a parsed expression ready for repeated evaluation.
type Expr struct {
	node exprNode
	raw  string
}

// Parse tokenizes and parses the input. Parse errors are construction errors;
// a successfully parsed expression never fails at evaluation time.
func Parse(input string) (*Expr, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, errors.New("logic: empty expression")
	}
	tokens, err := tokenize(trimmed)
	if err != nil {
		return nil, err
	}
	stream := &tokenStream{tokens: tokens}
	node, err := parseOr(stream)
	if err != nil {
		return nil, err
	}
	if stream.pos < len(stream.tokens) {
		return nil, fmt.Errorf("logic: unexpected token %q", stream.tokens[stream.pos].raw)
	}
	return &Expr{node: node, raw: trimmed}, nil
}

// MustParse panics on parse failure. Useful for tests and fixtures.
func MustParse(input string) *Expr {
	expr, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return expr
}

// String returns the original expression text.
func (e *Expr) String() string {
	if e == nil {
		return ""
	}
	return e.raw
}

// Eval computes the expression value against the supplied values map.
func (e *Expr) Eval(values map[string]any) any {
	if e == nil || e.node == nil {
		return nil
	}
	return e.node.eval(values)
}

// EvalBool computes the expression and reports its truthiness. A nil result
// is false, so a condition over missing variables is simply not satisfied.
func (e *Expr) EvalBool(values map[string]any) bool {
	return truthy(e.Eval(values))
}

// EvalNumber computes the expression and coerces the result to a float64,
// returning 0 for non-numeric results.
func (e *Expr) EvalNumber(values map[string]any) float64 {
	num, _ := coerceNumber(e.Eval(values))
	return num
}

type tokenKind int

const (
	tokenIdentifier tokenKind = iota
	tokenString
	tokenNumber
	tokenBool
	tokenNull
	tokenEq
	tokenNeq
	tokenLt
	tokenLte
	tokenGt
	tokenGte
	tokenPlus
	tokenMinus
	tokenStar
	tokenSlash
	tokenPercent
	tokenAnd
	tokenOr
	tokenNot
	tokenLParen
	tokenRParen
)

type token struct {
	kind tokenKind
	raw  string
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	i := 0

	peek := func() byte {
		if i >= len(input) {
			return 0
		}
		return input[i]
	}

	for i < len(input) {
		ch := peek()
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++
		case ch == '(':
			i++
			tokens = append(tokens, token{kind: tokenLParen, raw: "("})
		case ch == ')':
			i++
			tokens = append(tokens, token{kind: tokenRParen, raw: ")"})
		case ch == '+':
			i++
			tokens = append(tokens, token{kind: tokenPlus, raw: "+"})
		case ch == '-':
			i++
			tokens = append(tokens, token{kind: tokenMinus, raw: "-"})
		case ch == '*':
			i++
			tokens = append(tokens, token{kind: tokenStar, raw: "*"})
		case ch == '/':
			i++
			tokens = append(tokens, token{kind: tokenSlash, raw: "/"})
		case ch == '%':
			i++
			tokens = append(tokens, token{kind: tokenPercent, raw: "%"})
		case ch == '!':
			i++
			if peek() == '=' {
				i++
				tokens = append(tokens, token{kind: tokenNeq, raw: "!="})
			} else {
				tokens = append(tokens, token{kind: tokenNot, raw: "!"})
			}
		case ch == '=':
			i++
			if peek() != '=' {
				return nil, errors.New("logic: unexpected '='; use '=='")
			}
			i++
			tokens = append(tokens, token{kind: tokenEq, raw: "=="})
		case ch == '<':
			i++
			if peek() == '=' {
				i++
				tokens = append(tokens, token{kind: tokenLte, raw: "<="})
			} else {
				tokens = append(tokens, token{kind: tokenLt, raw: "<"})
			}
		case ch == '>':
			i++
			if peek() == '=' {
				i++
				tokens = append(tokens, token{kind: tokenGte, raw: ">="})
			} else {
				tokens = append(tokens, token{kind: tokenGt, raw: ">"})
			}
		case ch == '&':
			i++
			if peek() != '&' {
				return nil, errors.New("logic: unexpected '&'; use '&&'")
			}
			i++
			tokens = append(tokens, token{kind: tokenAnd, raw: "&&"})
		case ch == '|':
			i++
			if peek() != '|' {
				return nil, errors.New("logic: unexpected '|'; use '||'")
			}
			i++
			tokens = append(tokens, token{kind: tokenOr, raw: "||"})
		case ch == '"' || ch == '\'':
			quote := ch
			i++
			start := i
			escaped := false
			closed := false
			for i < len(input) {
				c := input[i]
				i++
				if escaped {
					escaped = false
					continue
				}
				if c == '\\' {
					escaped = true
					continue
				}
				if c == quote {
					raw := string(quote) + input[start:i-1] + string(quote)
					value, err := strconv.Unquote(strings.ReplaceAll(raw, string(quote), `"`))
					if err != nil {
						return nil, fmt.Errorf("logic: invalid string literal: %w", err)
					}
					tokens = append(tokens, token{kind: tokenString, raw: value})
					closed = true
					break
				}
			}
			if !closed {
				return nil, errors.New("logic: unterminated string literal")
			}
		default:
			start := i
			for i < len(input) && !strings.ContainsRune(" \t\n\r()!=<>&|+-*/%", rune(input[i])) {
				i++
			}
			raw := input[start:i]
			if raw == "" {
				return nil, fmt.Errorf("logic: unexpected character %q", ch)
			}
			switch strings.ToLower(raw) {
			case "true", "false":
				tokens = append(tokens, token{kind: tokenBool, raw: strings.ToLower(raw)})
			case "null", "nil":
				tokens = append(tokens, token{kind: tokenNull, raw: "null"})
			default:
				if isNumberLiteral(raw) {
					tokens = append(tokens, token{kind: tokenNumber, raw: raw})
				} else {
					tokens = append(tokens, token{kind: tokenIdentifier, raw: raw})
				}
			}
		}
	}
	return tokens, nil
}

func isNumberLiteral(raw string) bool {
	_, err := strconv.ParseFloat(raw, 64)
	return err == nil
}

type tokenStream struct {
	tokens []token
	pos    int
}

func (s *tokenStream) match(kinds ...tokenKind) (token, bool) {
	if s.pos >= len(s.tokens) {
		return token{}, false
	}
	for _, kind := range kinds {
		if s.tokens[s.pos].kind == kind {
			out := s.tokens[s.pos]
			s.pos++
			return out, true
		}
	}
	return token{}, false
}

type exprNode interface {
	eval(values map[string]any) any
}

type binaryNode struct {
	op          tokenKind
	left, right exprNode
}

type unaryNode struct {
	op    tokenKind
	inner exprNode
}

type literalNode struct {
	value any
}

type variableNode struct {
	path string
}

func parseOr(s *tokenStream) (exprNode, error) {
	left, err := parseAnd(s)
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := s.match(tokenOr); !ok {
			return left, nil
		}
		right, err := parseAnd(s)
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: tokenOr, left: left, right: right}
	}
}

func parseAnd(s *tokenStream) (exprNode, error) {
	left, err := parseComparison(s)
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := s.match(tokenAnd); !ok {
			return left, nil
		}
		right, err := parseComparison(s)
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: tokenAnd, left: left, right: right}
	}
}

func parseComparison(s *tokenStream) (exprNode, error) {
	left, err := parseAdditive(s)
	if err != nil {
		return nil, err
	}
	op, ok := s.match(tokenEq, tokenNeq, tokenLt, tokenLte, tokenGt, tokenGte)
	if !ok {
		return left, nil
	}
	right, err := parseAdditive(s)
	if err != nil {
		return nil, err
	}
	return binaryNode{op: op.kind, left: left, right: right}, nil
}

func parseAdditive(s *tokenStream) (exprNode, error) {
	left, err := parseMultiplicative(s)
	if err != nil {
		return nil, err
	}
	for {
		op, ok := s.match(tokenPlus, tokenMinus)
		if !ok {
			return left, nil
		}
		right, err := parseMultiplicative(s)
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op.kind, left: left, right: right}
	}
}

func parseMultiplicative(s *tokenStream) (exprNode, error) {
	left, err := parseUnary(s)
	if err != nil {
		return nil, err
	}
	for {
		op, ok := s.match(tokenStar, tokenSlash, tokenPercent)
		if !ok {
			return left, nil
		}
		right, err := parseUnary(s)
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op.kind, left: left, right: right}
	}
}

func parseUnary(s *tokenStream) (exprNode, error) {
	if _, ok := s.match(tokenNot); ok {
		inner, err := parseUnary(s)
		if err != nil {
			return nil, err
		}
		return unaryNode{op: tokenNot, inner: inner}, nil
	}
	if _, ok := s.match(tokenMinus); ok {
		inner, err := parseUnary(s)
		if err != nil {
			return nil, err
		}
		return unaryNode{op: tokenMinus, inner: inner}, nil
	}
	return parsePrimary(s)
}

func parsePrimary(s *tokenStream) (exprNode, error) {
	if _, ok := s.match(tokenLParen); ok {
		inner, err := parseOr(s)
		if err != nil {
			return nil, err
		}
		if _, ok := s.match(tokenRParen); !ok {
			return nil, errors.New("logic: missing closing ')'")
		}
		return inner, nil
	}
	if tok, ok := s.match(tokenNumber); ok {
		value, err := strconv.ParseFloat(tok.raw, 64)
		if err != nil {
			return nil, fmt.Errorf("logic: invalid number literal %q", tok.raw)
		}
		return literalNode{value: value}, nil
	}
	if tok, ok := s.match(tokenString); ok {
		return literalNode{value: tok.raw}, nil
	}
	if tok, ok := s.match(tokenBool); ok {
		return literalNode{value: tok.raw == "true"}, nil
	}
	if _, ok := s.match(tokenNull); ok {
		return literalNode{value: nil}, nil
	}
	if tok, ok := s.match(tokenIdentifier); ok {
		return variableNode{path: tok.raw}, nil
	}
	if s.pos >= len(s.tokens) {
		return nil, errors.New("logic: unexpected end of expression")
	}
	return nil, fmt.Errorf("logic: unexpected token %q", s.tokens[s.pos].raw)
}

func (n binaryNode) eval(values map[string]any) any {
	switch n.op {
	case tokenOr:
		if truthy(n.left.eval(values)) {
			return true
		}
		return truthy(n.right.eval(values))
	case tokenAnd:
		if !truthy(n.left.eval(values)) {
			return false
		}
		return truthy(n.right.eval(values))
	}

	left := n.left.eval(values)
	right := n.right.eval(values)

	switch n.op {
	case tokenEq:
		return equal(left, right)
	case tokenNeq:
		return !equal(left, right)
	case tokenLt, tokenLte, tokenGt, tokenGte:
		return ordered(n.op, left, right)
	case tokenPlus:
		if ls, ok := left.(string); ok {
			return ls + coerceString(right)
		}
		return arith(n.op, left, right)
	case tokenMinus, tokenStar, tokenSlash, tokenPercent:
		return arith(n.op, left, right)
	}
	return nil
}

func (n unaryNode) eval(values map[string]any) any {
	inner := n.inner.eval(values)
	switch n.op {
	case tokenNot:
		return !truthy(inner)
	case tokenMinus:
		num, _ := coerceNumber(inner)
		return -num
	}
	return nil
}

func (n literalNode) eval(map[string]any) any { return n.value }

func (n variableNode) eval(values map[string]any) any {
	value, _ := lookup(values, n.path)
	return value
}

func equal(left, right any) bool {
	if left == nil || right == nil {
		return left == nil && right == nil
	}
	if lb, ok := left.(bool); ok {
		rb, _ := coerceBool(right)
		return lb == rb
	}
	if rb, ok := right.(bool); ok {
		lb, _ := coerceBool(left)
		return lb == rb
	}
	ln, lok := coerceNumber(left)
	rn, rok := coerceNumber(right)
	if lok && rok {
		return ln == rn
	}
	return coerceString(left) == coerceString(right)
}

// ordered compares numerically when both sides coerce to numbers, otherwise
// lexically for strings. Null never satisfies an ordering.
func ordered(op tokenKind, left, right any) bool {
	if left == nil || right == nil {
		return false
	}
	ln, lok := coerceNumber(left)
	rn, rok := coerceNumber(right)
	if lok && rok {
		switch op {
		case tokenLt:
			return ln < rn
		case tokenLte:
			return ln <= rn
		case tokenGt:
			return ln > rn
		case tokenGte:
			return ln >= rn
		}
	}
	ls, rs := coerceString(left), coerceString(right)
	switch op {
	case tokenLt:
		return ls < rs
	case tokenLte:
		return ls <= rs
	case tokenGt:
		return ls > rs
	case tokenGte:
		return ls >= rs
	}
	return false
}

func arith(op tokenKind, left, right any) float64 {
	ln, _ := coerceNumber(left)
	rn, _ := coerceNumber(right)
	switch op {
	case tokenPlus:
		return ln + rn
	case tokenMinus:
		return ln - rn
	case tokenStar:
		return ln * rn
	case tokenSlash:
		if rn == 0 {
			return 0
		}
		return ln / rn
	case tokenPercent:
		if rn == 0 {
			return 0
		}
		return math.Mod(ln, rn)
	}
	return 0
}

func lookup(values map[string]any, path string) (any, bool) {
	path = strings.TrimSpace(path)
	if len(values) == 0 || path == "" {
		return nil, false
	}

	// Prefer exact match for dotted keys before path traversal.
	if v, ok := values[path]; ok {
		return v, true
	}

	var current any = values
	for _, part := range strings.Split(path, ".") {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		next, ok := node[part]
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

func truthy(value any) bool {
	if value == nil {
		return false
	}
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return strings.TrimSpace(v) != ""
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case float32:
		return v != 0
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}

func coerceBool(value any) (bool, bool) {
	if value == nil {
		return false, false
	}
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err == nil {
			return parsed, true
		}
		return strings.TrimSpace(v) != "", true
	default:
		return truthy(value), true
	}
}

func coerceNumber(value any) (float64, bool) {
	if value == nil {
		return 0, false
	}
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func coerceString(value any) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(value)
	}
}

// Truthy exposes the evaluator's truthiness rule for callers that need to
// test raw values the same way conditions do.
func Truthy(value any) bool { return truthy(value) }

// Number exposes numeric coercion using the evaluator's defaulting rule.
func Number(value any) (float64, bool) { return coerceNumber(value) }
