package app

import (
	"math/rand"
	"strconv"
	"time"

	"hotel-trivia-service/internal/domain"
)

const (
	mathOperandMax = 10
	// Distinct (operand1, operand2, operator) tuples reachable by the draw
	// rules below: 11×11 for add/subtract/multiply plus 10×10 for divide.
	mathSignatureSpace = 3*11*11 + 10*10
)

var distractorOffsets = []int{-3, -2, -1, 1, 2, 3}

// MathGenerator produces arithmetic questions with plausible wrong options.
type MathGenerator struct {
	rnd *rand.Rand
}

func NewMathGenerator() *MathGenerator {
	return newMathGenerator(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// newMathGenerator allows a seeded source in tests.
func newMathGenerator(rnd *rand.Rand) *MathGenerator {
	return &MathGenerator{rnd: rnd}
}

// Generate draws one arithmetic question, preferring operand/operator
// combinations not in seen. Once the combination space is exhausted for this
// player a repeat is accepted rather than spinning forever.
func (g *MathGenerator) Generate(seen map[string]struct{}) (domain.MathRef, []string) {
	var ref domain.MathRef
	for attempt := 0; ; attempt++ {
		ref = g.draw()
		if _, dup := seen[ref.Signature()]; !dup {
			break
		}
		if len(seen) >= mathSignatureSpace || attempt >= 4*mathSignatureSpace {
			break
		}
	}
	return ref, g.options(ref)
}

func (g *MathGenerator) draw() domain.MathRef {
	operators := []domain.Operator{domain.OpAdd, domain.OpSubtract, domain.OpMultiply, domain.OpDivide}
	op := operators[g.rnd.Intn(len(operators))]

	a := g.rnd.Intn(mathOperandMax + 1)
	b := g.rnd.Intn(mathOperandMax + 1)

	var answer int
	switch op {
	case domain.OpAdd:
		answer = a + b
	case domain.OpSubtract:
		answer = a - b
	case domain.OpMultiply:
		answer = a * b
	case domain.OpDivide:
		// Redraw the dividend as a multiple of the divisor so the quotient
		// is always an integer. Divisor zero is never drawn.
		b = 1 + g.rnd.Intn(mathOperandMax)
		answer = 1 + g.rnd.Intn(mathOperandMax)
		a = b * answer
	}

	return domain.MathRef{Operand1: a, Operand2: b, Operator: op, Answer: answer}
}

// options builds the shuffled 4-option display set: the correct answer plus
// 3 distinct non-negative distractors at small offsets from it.
func (g *MathGenerator) options(ref domain.MathRef) []string {
	offsets := make([]int, len(distractorOffsets))
	copy(offsets, distractorOffsets)
	g.rnd.Shuffle(len(offsets), func(i, j int) { offsets[i], offsets[j] = offsets[j], offsets[i] })

	values := []int{ref.Answer}
	used := map[int]struct{}{ref.Answer: {}}
	for _, off := range offsets {
		if len(values) == 4 {
			break
		}
		candidate := ref.Answer + off
		if candidate < 0 {
			continue
		}
		if _, dup := used[candidate]; dup {
			continue
		}
		values = append(values, candidate)
		used[candidate] = struct{}{}
	}
	// Negative answers (subtraction) can invalidate the low offsets; widen
	// upward until 3 distractors are collected.
	for next := ref.Answer + len(distractorOffsets); len(values) < 4; next++ {
		if next < 0 {
			continue
		}
		if _, dup := used[next]; dup {
			continue
		}
		values = append(values, next)
		used[next] = struct{}{}
	}

	g.rnd.Shuffle(len(values), func(i, j int) { values[i], values[j] = values[j], values[i] })

	options := make([]string, len(values))
	for i, v := range values {
		options[i] = strconv.Itoa(v)
	}
	return options
}
