package app

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"hotel-trivia-service/internal/domain"
)

// Dispatcher selects question batches for a category, preferring content the
// player token has not seen in earlier sessions.
type Dispatcher struct {
	catalog  CatalogRepository
	progress ProgressStore
	math     *MathGenerator
	rnd      *rand.Rand
}

func NewDispatcher(catalog CatalogRepository, progress ProgressStore) *Dispatcher {
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Dispatcher{
		catalog:  catalog,
		progress: progress,
		math:     newMathGenerator(rnd),
		rnd:      rnd,
	}
}

// newDispatcherWithRand allows a seeded source in tests.
func newDispatcherWithRand(catalog CatalogRepository, progress ProgressStore, rnd *rand.Rand) *Dispatcher {
	return &Dispatcher{
		catalog:  catalog,
		progress: progress,
		math:     newMathGenerator(rnd),
		rnd:      rnd,
	}
}

// Fetch returns exactly count question payloads for the category and records
// everything returned in the player's seen-sets.
func (d *Dispatcher) Fetch(ctx context.Context, quiz domain.Quiz, category domain.Category, playerToken string, count int) ([]domain.QuestionPayload, error) {
	if category.Dynamic {
		return d.fetchDynamic(ctx, quiz.ID, playerToken, count)
	}
	return d.fetchStatic(ctx, quiz.ID, category, playerToken, count)
}

// fetchStatic draws unseen questions first, in random order, and falls back
// to a random draw from the seen pool so the batch size is always count.
func (d *Dispatcher) fetchStatic(ctx context.Context, quizID string, category domain.Category, playerToken string, count int) ([]domain.QuestionPayload, error) {
	questions, err := d.catalog.ActiveQuestions(ctx, category.ID)
	if err != nil {
		return nil, err
	}
	if len(questions) < count {
		return nil, fmt.Errorf("%w: category %s has %d active questions, need %d",
			domain.ErrInsufficientContent, category.ID, len(questions), count)
	}

	seen, err := d.progress.SeenQuestions(ctx, playerToken, quizID, category.ID)
	if err != nil {
		return nil, err
	}

	var unseen, repeats []domain.Question
	for _, q := range questions {
		if _, ok := seen[q.ID]; ok {
			repeats = append(repeats, q)
		} else {
			unseen = append(unseen, q)
		}
	}
	d.shuffleQuestions(unseen)
	d.shuffleQuestions(repeats)

	selected := unseen
	if len(selected) > count {
		selected = selected[:count]
	} else if len(selected) < count {
		selected = append(selected, repeats[:count-len(selected)]...)
	}

	ids := make([]string, len(selected))
	payloads := make([]domain.QuestionPayload, len(selected))
	for i, q := range selected {
		ids[i] = q.ID
		payloads[i] = d.staticPayload(q)
	}
	if err := d.progress.MarkQuestionsSeen(ctx, playerToken, quizID, category.ID, ids); err != nil {
		return nil, err
	}
	return payloads, nil
}

// fetchDynamic generates count arithmetic questions, steering around the
// player's seen signature set. Generation cannot run out of content.
func (d *Dispatcher) fetchDynamic(ctx context.Context, quizID, playerToken string, count int) ([]domain.QuestionPayload, error) {
	seen, err := d.progress.SeenSignatures(ctx, playerToken, quizID)
	if err != nil {
		return nil, err
	}

	payloads := make([]domain.QuestionPayload, 0, count)
	for i := 0; i < count; i++ {
		ref, options := d.math.Generate(seen)
		sig := ref.Signature()
		seen[sig] = struct{}{}
		if err := d.progress.MarkSignatureSeen(ctx, playerToken, quizID, sig); err != nil {
			return nil, err
		}
		refCopy := ref
		payloads = append(payloads, domain.QuestionPayload{
			Text:    ref.Prompt(),
			Options: options,
			Math:    &refCopy,
		})
	}
	return payloads, nil
}

func (d *Dispatcher) staticPayload(q domain.Question) domain.QuestionPayload {
	options := make([]string, len(q.Options))
	for i, opt := range q.Options {
		options[i] = opt.Text
	}
	d.rnd.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })
	return domain.QuestionPayload{
		QuestionID: q.ID,
		Text:       q.Text,
		Options:    options,
	}
}

func (d *Dispatcher) shuffleQuestions(qs []domain.Question) {
	d.rnd.Shuffle(len(qs), func(i, j int) { qs[i], qs[j] = qs[j], qs[i] })
}
