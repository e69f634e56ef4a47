package question

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound     = errors.New("question not found")
	ErrVotingClosed = errors.New("voting is not allowed for this question")
	ErrInvalidInput = errors.New("invalid question")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Create(ctx context.Context, q *Question, choices []Choice) (int64, error) {
	if q.Text == "" {
		return 0, fmt.Errorf("%w: text required", ErrInvalidInput)
	}
	if len(choices) < 2 {
		return 0, fmt.Errorf("%w: at least 2 choices required", ErrInvalidInput)
	}
	if q.PubDate.IsZero() {
		q.PubDate = s.now()
	}
	return s.repo.Create(ctx, q, choices)
}

// Get returns a question regardless of publication state. Callers that
// serve public pages should use GetPublished or GetOpen instead.
func (s *Service) Get(ctx context.Context, id int64) (*Question, []Choice, error) {
	return s.repo.GetByID(ctx, id)
}

// GetPublished returns the question only if its publication date has
// passed; unpublished questions are indistinguishable from missing ones.
func (s *Service) GetPublished(ctx context.Context, id int64) (*Question, []Choice, error) {
	q, choices, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !q.IsPublished(s.now()) {
		return nil, nil, ErrNotFound
	}
	return q, choices, nil
}

// GetOpen additionally requires the voting window to be open, so the
// detail page and the ballot path agree on the same clock.
func (s *Service) GetOpen(ctx context.Context, id int64) (*Question, []Choice, error) {
	q, choices, err := s.GetPublished(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !q.CanVote(s.now()) {
		return nil, nil, ErrVotingClosed
	}
	return q, choices, nil
}

// Summary is the index-page projection: the question plus its
// Open/Closed label.
type Summary struct {
	Question
	Status string `json:"status"`
}

func (s *Service) ListPublished(ctx context.Context, limit int) ([]Summary, error) {
	now := s.now()
	questions, err := s.repo.ListPublished(ctx, now, limit)
	if err != nil {
		return nil, err
	}
	summaries := make([]Summary, 0, len(questions))
	for _, q := range questions {
		summaries = append(summaries, Summary{Question: q, Status: q.VotingStatus(now)})
	}
	return summaries, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
