package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

var ErrMalformedExpression = errors.New("malformed linear expression")

const feasibilityTolerance = 1e-9

type Sense int

const (
	LessEqual Sense = iota
	GreaterEqual
	Equal
)

func (sense Sense) String() string {
	switch sense {
	case LessEqual:
		return "<="
	case GreaterEqual:
		return ">="
	}
	return "="
}

type Term struct {
	Coefficient float64
	Variable    string
}

// Expression is a linear combination of variables plus a constant
type Expression struct {
	Terms    []Term
	Constant float64
}

type Constraint struct {
	Label      string
	Expression Expression
	Sense      Sense
	RHS        float64
}

type Objective struct {
	Maximize   bool
	Label      string
	Expression Expression
}

// ParseObjective reads an objective line such as "maximize obj: 3 a + b"
func ParseObjective(line string) (Objective, error) {
	line = strings.TrimSpace(line)
	end := strings.IndexFunc(line, func(char rune) bool { return !unicode.IsLetter(char) })
	if end < 0 {
		end = len(line)
	}

	keyword := strings.ToLower(line[:end])
	var objective Objective
	switch keyword {
	case "maximize", "maximum", "max":
		objective.Maximize = true
	case "minimize", "minimum", "min":
	default:
		return Objective{}, errors.Wrapf(ErrMalformedExpression, "objective %q does not start with an optimization direction", line)
	}

	rest := strings.TrimPrefix(strings.TrimSpace(line[end:]), ":")
	label, body := splitLabel(strings.TrimSpace(rest))
	expression, err := parseExpression(tokenize(body))
	if err != nil {
		return Objective{}, errors.Wrapf(err, "objective %q", line)
	}
	objective.Label = label
	objective.Expression = expression
	return objective, nil
}

// ParseConstraint reads a constraint line such as "c1: a + 2 b <= 2". The right-hand side must
// be a single number; constants on the left are moved to it.
func ParseConstraint(line string) (Constraint, error) {
	label, body := splitLabel(line)
	tokens := tokenize(body)

	relation, index, ok := lo.FindIndexOf(tokens, isRelation)
	if !ok {
		return Constraint{}, errors.Wrapf(ErrMalformedExpression, "constraint %q has no relation", line)
	}

	expression, err := parseExpression(tokens[:index])
	if err != nil {
		return Constraint{}, errors.Wrapf(err, "constraint %q", line)
	}
	rhs, err := parseExpression(tokens[index+1:])
	if err != nil {
		return Constraint{}, errors.Wrapf(err, "constraint %q", line)
	} else if len(rhs.Terms) > 0 || len(tokens[index+1:]) == 0 {
		return Constraint{}, errors.Wrapf(ErrMalformedExpression, "constraint %q must have a constant right-hand side", line)
	}

	sense := Equal
	switch relation {
	case "<=", "=<", "<":
		sense = LessEqual
	case ">=", "=>", ">":
		sense = GreaterEqual
	}

	constant := expression.Constant
	expression.Constant = 0
	return Constraint{
		Label:      label,
		Expression: expression,
		Sense:      sense,
		RHS:        rhs.Constant - constant,
	}, nil
}

// Normalize merges repeated variables in order of first appearance and drops null terms
func (expression Expression) Normalize() Expression {
	coefficients := make(map[string]float64)
	order := make([]string, 0, len(expression.Terms))
	for _, term := range expression.Terms {
		if _, ok := coefficients[term.Variable]; !ok {
			order = append(order, term.Variable)
		}
		coefficients[term.Variable] += term.Coefficient
	}

	normalized := Expression{Constant: expression.Constant, Terms: make([]Term, 0, len(order))}
	for _, variable := range order {
		if coefficients[variable] != 0 {
			normalized.Terms = append(normalized.Terms, Term{Coefficient: coefficients[variable], Variable: variable})
		}
	}
	return normalized
}

func (expression Expression) Variables() []string {
	return lo.Uniq(lo.Map(expression.Terms, func(term Term, _ int) string { return term.Variable }))
}

// Value evaluates the expression; variables missing from values count as 0
func (expression Expression) Value(values map[string]int64) float64 {
	return lo.Reduce(expression.Terms, func(sum float64, term Term, _ int) float64 {
		return sum + term.Coefficient*float64(values[term.Variable])
	}, expression.Constant)
}

func (constraint Constraint) Satisfied(values map[string]int64) bool {
	lhs := constraint.Expression.Value(values)
	switch constraint.Sense {
	case LessEqual:
		return lhs <= constraint.RHS+feasibilityTolerance
	case GreaterEqual:
		return lhs >= constraint.RHS-feasibilityTolerance
	}
	return math.Abs(lhs-constraint.RHS) <= feasibilityTolerance
}

func (constraint Constraint) String() string {
	terms := lo.Map(constraint.Expression.Terms, func(term Term, i int) string {
		if i == 0 {
			return formatTerm(term.Coefficient, term.Variable)
		} else if term.Coefficient < 0 {
			return "- " + formatTerm(-term.Coefficient, term.Variable)
		}
		return "+ " + formatTerm(term.Coefficient, term.Variable)
	})
	if len(terms) == 0 {
		terms = []string{"0"}
	}
	text := fmt.Sprintf("%v %v %v", strings.Join(terms, " "), constraint.Sense, strconv.FormatFloat(constraint.RHS, 'g', -1, 64))
	if constraint.Label != "" {
		return constraint.Label + ": " + text
	}
	return text
}

func formatTerm(coefficient float64, variable string) string {
	if coefficient == 1 {
		return variable
	} else if coefficient == -1 {
		return "-" + variable
	}
	return strconv.FormatFloat(coefficient, 'g', -1, 64) + " " + variable
}

func splitLabel(line string) (label, body string) {
	colon := strings.Index(line, ":")
	if colon < 0 || strings.ContainsAny(line[:colon], "+-<>= \t") {
		return "", line
	}
	return line[:colon], strings.TrimSpace(line[colon+1:])
}

func isRelation(token string) bool {
	return lo.Contains([]string{"<=", "=<", "<", ">=", "=>", ">", "="}, token)
}

func isNumber(token string) bool {
	if token == "" || !(unicode.IsDigit(rune(token[0])) || token[0] == '.') {
		return false // ParseFloat would accept "inf" and "nan" as numbers
	}
	_, err := strconv.ParseFloat(token, 64)
	return err == nil
}

// tokenize splits signs and relations from words, "a+2b>=1" gives [a + 2b >= 1]
func tokenize(text string) []string {
	tokens := make([]string, 0)
	var word strings.Builder
	flush := func() {
		if word.Len() > 0 {
			tokens = append(tokens, word.String())
			word.Reset()
		}
	}

	for i := 0; i < len(text); i++ {
		char := text[i]
		switch {
		case char == ' ' || char == '\t':
			flush()
		case char == '+' || char == '-':
			current := word.String()
			if len(current) > 1 && (current[len(current)-1] == 'e' || current[len(current)-1] == 'E') && isNumber(current[:len(current)-1]) {
				word.WriteByte(char) // Exponent sign, as in 1e-3
				continue
			}
			flush()
			tokens = append(tokens, string(char))
		case char == '<' || char == '>' || char == '=':
			flush()
			relation := string(char)
			if i+1 < len(text) && strings.ContainsRune("<>=", rune(text[i+1])) {
				relation += string(text[i+1])
				i++
			}
			tokens = append(tokens, relation)
		default:
			word.WriteByte(char)
		}
	}
	flush()
	return tokens
}

func parseExpression(tokens []string) (Expression, error) {
	var expression Expression
	sign := 1.0
	var coefficient *float64

	for _, token := range tokens {
		switch {
		case token == "+" || token == "-":
			if coefficient != nil { // A number followed by a sign is a constant
				expression.Constant += sign * *coefficient
				coefficient, sign = nil, 1
			}
			if token == "-" {
				sign = -sign
			}
		case isRelation(token):
			return Expression{}, errors.Wrapf(ErrMalformedExpression, "unexpected relation %q", token)
		case isNumber(token):
			if coefficient != nil {
				return Expression{}, errors.Wrapf(ErrMalformedExpression, "two consecutive numbers near %q", token)
			}
			value, _ := strconv.ParseFloat(token, 64)
			coefficient = &value
		default:
			value := 1.0
			if coefficient != nil {
				value = *coefficient
			}
			expression.Terms = append(expression.Terms, Term{Coefficient: sign * value, Variable: token})
			coefficient, sign = nil, 1
		}
	}
	if coefficient != nil {
		expression.Constant += sign * *coefficient
	}
	return expression, nil
}
