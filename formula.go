package qlinalg

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/hashicorp/go-bexpr"
	"github.com/pkg/errors"
)

// Register is the classical bit register of one execution.
type Register []bool

/*
Evaluator computes classical formulas over a register. References lists the
bit indices a formula reads, used for break diagnostics.
*/
type Evaluator interface {
	Evaluate(formula string, cbits Register) (bool, error)
	References(formula string) []int
}

// NewEvaluator returns the evaluator registered under name.
func NewEvaluator(name string) (Evaluator, error) {
	switch strings.ToLower(name) {
	case "", "prefix":
		return PrefixEvaluator{}, nil
	case "expr", "bexpr":
		return NewExprEvaluator(), nil
	default:
		return nil, errors.Wrapf(ErrInvalidArgs, "unknown evaluator %q", name)
	}
}

/*
PrefixEvaluator reads space separated formulas in prefix notation, such as
"AND 0 NOT 1". Integers are bit indices; the operators are AND, OR, XOR and
NOT (or & | ^ ~ !) and the constants TRUE and FALSE.
*/
type PrefixEvaluator struct{}

func (PrefixEvaluator) Evaluate(formula string, cbits Register) (bool, error) {
	tokens := strings.Fields(formula)
	if len(tokens) == 0 {
		return false, errors.Wrap(ErrFormula, "empty formula")
	}

	p := &prefixParser{tokens: tokens, cbits: cbits}
	value, err := p.expr()
	if err != nil {
		return false, errors.Wrapf(err, "formula %q", formula)
	}
	if p.pos != len(tokens) {
		return false, errors.Wrapf(ErrFormula, "formula %q: trailing %q", formula, tokens[p.pos])
	}
	return value, nil
}

func (PrefixEvaluator) References(formula string) []int {
	var refs []int
	for _, tok := range strings.Fields(formula) {
		if i, err := strconv.Atoi(tok); err == nil {
			refs = append(refs, i)
		}
	}
	return refs
}

type prefixParser struct {
	tokens []string
	pos    int
	cbits  Register
}

func (p *prefixParser) expr() (bool, error) {
	if p.pos >= len(p.tokens) {
		return false, errors.Wrap(ErrFormula, "unexpected end of formula")
	}
	tok := p.tokens[p.pos]
	p.pos++

	switch strings.ToUpper(tok) {
	case "TRUE":
		return true, nil
	case "FALSE":
		return false, nil
	case "NOT", "~", "!":
		v, err := p.expr()
		return !v, err
	case "AND", "&", "OR", "|", "XOR", "^":
		lhs, err := p.expr()
		if err != nil {
			return false, err
		}
		rhs, err := p.expr()
		if err != nil {
			return false, err
		}
		switch strings.ToUpper(tok) {
		case "AND", "&":
			return lhs && rhs, nil
		case "OR", "|":
			return lhs || rhs, nil
		default:
			return lhs != rhs, nil
		}
	}

	i, err := strconv.Atoi(tok)
	if err != nil {
		return false, errors.Wrapf(ErrFormula, "unknown token %q", tok)
	}
	if i < 0 || i >= len(p.cbits) {
		return false, errors.Wrapf(ErrInvalidIndex, "cbit %d out of range [0, %d)", i, len(p.cbits))
	}
	return p.cbits[i], nil
}

var selectorPattern = regexp.MustCompile(`\bc(\d+)\b`)

/*
ExprEvaluator evaluates infix boolean expressions with go-bexpr. Bit i is
exposed as the selector ci, so "c0 == true and c1 != true" reads bits 0
and 1.
*/
type ExprEvaluator struct {
	mu    sync.Mutex
	cache map[string]*bexpr.Evaluator
}

func NewExprEvaluator() *ExprEvaluator {
	return &ExprEvaluator{cache: make(map[string]*bexpr.Evaluator)}
}

func (ee *ExprEvaluator) Evaluate(formula string, cbits Register) (bool, error) {
	for _, i := range ee.References(formula) {
		if i >= len(cbits) {
			return false, errors.Wrapf(ErrInvalidIndex, "cbit %d out of range [0, %d)", i, len(cbits))
		}
	}

	eval, err := ee.compile(formula)
	if err != nil {
		return false, err
	}

	datum := make(map[string]bool, len(cbits))
	for i, b := range cbits {
		datum[fmt.Sprintf("c%d", i)] = b
	}

	verdict, err := eval.Evaluate(datum)
	if err != nil {
		return false, errors.Wrapf(ErrFormula, "formula %q: %v", formula, err)
	}
	return verdict, nil
}

func (ee *ExprEvaluator) compile(formula string) (*bexpr.Evaluator, error) {
	ee.mu.Lock()
	defer ee.mu.Unlock()

	if eval, ok := ee.cache[formula]; ok {
		return eval, nil
	}
	eval, err := bexpr.CreateEvaluator(formula)
	if err != nil {
		return nil, errors.Wrapf(ErrFormula, "formula %q: %v", formula, err)
	}
	ee.cache[formula] = eval
	return eval, nil
}

func (ee *ExprEvaluator) References(formula string) []int {
	seen := map[int]bool{}
	var refs []int
	for _, m := range selectorPattern.FindAllStringSubmatch(formula, -1) {
		i, err := strconv.Atoi(m[1])
		if err != nil || seen[i] {
			continue
		}
		seen[i] = true
		refs = append(refs, i)
	}
	sort.Ints(refs)
	return refs
}
