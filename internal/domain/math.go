package domain

import (
	"fmt"
	"strconv"
)

// Operator is one of the four arithmetic operations of the dynamic category.
type Operator string

const (
	OpAdd      Operator = "add"
	OpSubtract Operator = "subtract"
	OpMultiply Operator = "multiply"
	OpDivide   Operator = "divide"
)

var operatorSymbols = map[Operator]string{
	OpAdd:      "+",
	OpSubtract: "-",
	OpMultiply: "×",
	OpDivide:   "÷",
}

// Symbol returns the display glyph for the operator, or "?" if unknown.
func (op Operator) Symbol() string {
	if s, ok := operatorSymbols[op]; ok {
		return s
	}
	return "?"
}

// Valid reports whether the operator is one of the four known operations.
func (op Operator) Valid() bool {
	_, ok := operatorSymbols[op]
	return ok
}

// MathRef is the generating tuple of an arithmetic question. Dynamic
// questions are never persisted, so the client echoes this back on
// submission and the server re-derives the answer from the operands instead
// of trusting the echoed Answer field.
type MathRef struct {
	Operand1 int      `json:"operand1"`
	Operand2 int      `json:"operand2"`
	Operator Operator `json:"operator"`
	Answer   int      `json:"answer"`
}

// Signature is the anti-repeat key for the operand/operator combination.
func (m MathRef) Signature() string {
	return strconv.Itoa(m.Operand1) + ":" + strconv.Itoa(m.Operand2) + ":" + string(m.Operator)
}

// Prompt renders the question text shown to the player.
func (m MathRef) Prompt() string {
	return fmt.Sprintf("%d %s %d = ?", m.Operand1, m.Operator.Symbol(), m.Operand2)
}

// Compute evaluates the tuple. Division requires a non-zero divisor and an
// integer quotient; anything else is a malformed echo, not a scoring input.
func (m MathRef) Compute() (int, error) {
	switch m.Operator {
	case OpAdd:
		return m.Operand1 + m.Operand2, nil
	case OpSubtract:
		return m.Operand1 - m.Operand2, nil
	case OpMultiply:
		return m.Operand1 * m.Operand2, nil
	case OpDivide:
		if m.Operand2 == 0 {
			return 0, fmt.Errorf("%w: division by zero", ErrMalformedSubmission)
		}
		if m.Operand1%m.Operand2 != 0 {
			return 0, fmt.Errorf("%w: non-integer quotient %d/%d", ErrMalformedSubmission, m.Operand1, m.Operand2)
		}
		return m.Operand1 / m.Operand2, nil
	default:
		return 0, fmt.Errorf("%w: unknown operator %q", ErrMalformedSubmission, m.Operator)
	}
}
