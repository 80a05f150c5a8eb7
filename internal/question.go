package internal

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

type QuestionService struct {
	questions *Collection[Question]
	log       *slog.Logger
	metrics   *Metrics
	now       func() time.Time
}

func NewQuestionService(store Store, log *slog.Logger, m *Metrics) *QuestionService {
	return &QuestionService{
		questions: NewCollection[Question](store, CollectionQuestions),
		log:       log,
		metrics:   m,
		now:       time.Now,
	}
}

func (s *QuestionService) List(ctx context.Context) ([]Question, error) {
	return s.questions.All(ctx)
}

func (s *QuestionService) Submit(ctx context.Context, email, text string) (Question, error) {
	if email == "" {
		return Question{}, FieldError{Field: "email"}
	}
	if text == "" {
		return Question{}, FieldError{Field: "text"}
	}

	q := Question{
		ID:        newID(),
		Timestamp: s.now().UTC(),
		Email:     email,
		Text:      text,
	}
	err := s.questions.Mutate(ctx, func(items []Question) ([]Question, bool, error) {
		return append(items, q), true, nil
	})
	if err != nil {
		return Question{}, fmt.Errorf("save question: %w", err)
	}

	logAction(s.log, "question", "question_id", q.ID, "email", q.Email)
	s.metrics.Questions.Inc()
	return q, nil
}

func (s *QuestionService) Delete(ctx context.Context, id string) error {
	err := s.questions.Mutate(ctx, func(items []Question) ([]Question, bool, error) {
		for i, q := range items {
			if q.ID == id {
				return append(items[:i], items[i+1:]...), true, nil
			}
		}
		return nil, false, fmt.Errorf("question %s: %w", id, ErrNotFound)
	})
	if err != nil {
		return err
	}
	logAction(s.log, "delete_question", "question_id", id)
	return nil
}
