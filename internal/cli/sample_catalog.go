package cli

import "hotel-trivia-service/internal/domain"

// sampleQuizzes provides a small demo catalog for running without Postgres.
// Three questions per category keeps a demo round short.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"demo-trivia": {
			ID:                   "demo-trivia",
			Title:                "Hotel Demo Trivia",
			QuestionsPerCategory: 3,
			TimeBudgetSeconds:    5,
			TurboThreshold:       5,
			TurboMultiplier:      2,
			Categories: []domain.Category{
				{ID: "cat-general", QuizID: "demo-trivia", Title: "General Knowledge", Position: 0},
				{ID: "cat-math", QuizID: "demo-trivia", Title: "Quick Math", Position: 1, Dynamic: true},
			},
		},
	}
}

func sampleQuestions() map[string][]domain.Question {
	return map[string][]domain.Question{
		"cat-general": {
			demoQuestion("q-capital", "cat-general", "What is the capital of Ireland?",
				"Dublin", "Cork", "Galway", "Limerick"),
			demoQuestion("q-ocean", "cat-general", "Which is the largest ocean?",
				"Pacific", "Atlantic", "Indian", "Arctic"),
			demoQuestion("q-planet", "cat-general", "Which planet is known as the Red Planet?",
				"Mars", "Venus", "Jupiter", "Mercury"),
			demoQuestion("q-painter", "cat-general", "Who painted the Mona Lisa?",
				"Leonardo da Vinci", "Michelangelo", "Raphael", "Donatello"),
		},
	}
}

// demoQuestion builds a question whose first option is the correct one.
func demoQuestion(id, categoryID, text, correct string, wrong ...string) domain.Question {
	options := []domain.AnswerOption{
		{ID: id + "-o0", QuestionID: id, Text: correct, Correct: true},
	}
	for i, w := range wrong {
		options = append(options, domain.AnswerOption{
			ID:         id + "-o" + string(rune('1'+i)),
			QuestionID: id,
			Text:       w,
		})
	}
	return domain.Question{ID: id, CategoryID: categoryID, Text: text, Active: true, Options: options}
}
