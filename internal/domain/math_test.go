package domain

import (
	"errors"
	"testing"
)

func TestMathRefCompute(t *testing.T) {
	cases := []struct {
		ref  MathRef
		want int
	}{
		{MathRef{Operand1: 3, Operand2: 4, Operator: OpAdd}, 7},
		{MathRef{Operand1: 3, Operand2: 9, Operator: OpSubtract}, -6},
		{MathRef{Operand1: 7, Operand2: 8, Operator: OpMultiply}, 56},
		{MathRef{Operand1: 56, Operand2: 8, Operator: OpDivide}, 7},
		{MathRef{Operand1: 0, Operand2: 5, Operator: OpDivide}, 0},
	}
	for _, tc := range cases {
		got, err := tc.ref.Compute()
		if err != nil {
			t.Fatalf("%s: %v", tc.ref.Signature(), err)
		}
		if got != tc.want {
			t.Fatalf("%s: got %d, want %d", tc.ref.Signature(), got, tc.want)
		}
	}
}

func TestMathRefComputeRejectsMalformed(t *testing.T) {
	bad := []MathRef{
		{Operand1: 5, Operand2: 0, Operator: OpDivide},
		{Operand1: 7, Operand2: 2, Operator: OpDivide},
		{Operand1: 1, Operand2: 1, Operator: "modulo"},
	}
	for _, ref := range bad {
		if _, err := ref.Compute(); !errors.Is(err, ErrMalformedSubmission) {
			t.Fatalf("%+v: expected ErrMalformedSubmission, got %v", ref, err)
		}
	}
}

func TestMathRefSignatureIgnoresAnswer(t *testing.T) {
	a := MathRef{Operand1: 2, Operand2: 3, Operator: OpAdd, Answer: 5}
	b := MathRef{Operand1: 2, Operand2: 3, Operator: OpAdd, Answer: 99}
	if a.Signature() != b.Signature() {
		t.Fatal("signature must depend only on operands and operator")
	}
	if a.Signature() == (MathRef{Operand1: 3, Operand2: 2, Operator: OpAdd}).Signature() {
		t.Fatal("operand order must be part of the signature")
	}
}

func TestMathRefPrompt(t *testing.T) {
	ref := MathRef{Operand1: 6, Operand2: 2, Operator: OpDivide}
	if got := ref.Prompt(); got != "6 ÷ 2 = ?" {
		t.Fatalf("prompt: %q", got)
	}
}

func TestQuizNormalizedDefaults(t *testing.T) {
	quiz := Quiz{ID: "q"}.Normalized()
	if quiz.QuestionsPerCategory != 10 || quiz.TimeBudgetSeconds != 5 ||
		quiz.TurboThreshold != 5 || quiz.TurboMultiplier != 2 {
		t.Fatalf("defaults not applied: %+v", quiz)
	}

	custom := Quiz{ID: "q", QuestionsPerCategory: 3, TimeBudgetSeconds: 8}.Normalized()
	if custom.QuestionsPerCategory != 3 || custom.TimeBudgetSeconds != 8 {
		t.Fatalf("explicit knobs overwritten: %+v", custom)
	}
}

func TestSessionTournamentEligible(t *testing.T) {
	eligible := QuizSession{RoomNumber: "101"}
	if !eligible.TournamentEligible() {
		t.Fatal("room-bound non-practice session must be eligible")
	}
	if (QuizSession{RoomNumber: "101", Practice: true}).TournamentEligible() {
		t.Fatal("practice session must not be eligible")
	}
	if (QuizSession{}).TournamentEligible() {
		t.Fatal("roomless session must not be eligible")
	}
}
