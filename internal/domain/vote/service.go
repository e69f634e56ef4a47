package vote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"polls-service/internal/domain/question"
)

var (
	ErrVotingClosed = errors.New("voting is not allowed for this question")
	ErrNoSelection  = errors.New("no choice selected")
	ErrNoVote       = errors.New("no vote recorded")
)

// QuestionSource is the slice of the question repository the ballot
// service needs; question.Repository satisfies it.
type QuestionSource interface {
	GetByID(ctx context.Context, id int64) (*question.Question, []question.Choice, error)
}

type Service struct {
	repo      Repository
	questions QuestionSource
	now       func() time.Time
}

func NewService(repo Repository, questions QuestionSource) *Service {
	return &Service{repo: repo, questions: questions, now: time.Now}
}

// Receipt confirms a recorded ballot.
type Receipt struct {
	Vote    *Vote  `json:"vote"`
	Revote  bool   `json:"revote"`
	Message string `json:"message"`
}

// Cast records the user's vote for a choice on a question. A user holds at
// most one vote per question; voting again reassigns the existing vote to
// the new choice. A choiceID that is zero or does not belong to the
// question is rejected as ErrNoSelection before anything is persisted.
func (s *Service) Cast(ctx context.Context, questionID, choiceID, userID int64) (*Receipt, error) {
	q, choices, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		return nil, err
	}

	if !q.CanVote(s.now()) {
		return nil, ErrVotingClosed
	}

	var selected *question.Choice
	for i := range choices {
		if choices[i].ID == choiceID {
			selected = &choices[i]
			break
		}
	}
	if selected == nil {
		return nil, ErrNoSelection
	}

	v := &Vote{
		QuestionID: questionID,
		ChoiceID:   selected.ID,
		UserID:     userID,
	}
	revote, err := s.repo.Upsert(ctx, v)
	if err != nil {
		return nil, err
	}

	return &Receipt{
		Vote:    v,
		Revote:  revote,
		Message: fmt.Sprintf("Your vote for %q has been recorded.", selected.Text),
	}, nil
}

// Previous returns the user's existing vote for the question, or nil if
// they have not voted.
func (s *Service) Previous(ctx context.Context, userID, questionID int64) (*Vote, error) {
	v, err := s.repo.FindByUserAndQuestion(ctx, userID, questionID)
	if errors.Is(err, ErrNoVote) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

type Result struct {
	ChoiceID   int64   `json:"choice_id"`
	Text       string  `json:"text"`
	Votes      int64   `json:"votes"`
	Percentage float64 `json:"percentage"`
}

// Results tallies vote rows per choice. Choices nobody picked appear with
// a zero count.
func (s *Service) Results(ctx context.Context, questionID int64) (*question.Question, []Result, int64, error) {
	q, choices, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		return nil, nil, 0, err
	}

	counts, total, err := s.repo.CountByQuestion(ctx, questionID)
	if err != nil {
		return nil, nil, 0, err
	}

	results := make([]Result, 0, len(choices))
	for _, c := range choices {
		n := counts[c.ID]
		var p float64
		if total > 0 {
			p = float64(n) * 100.0 / float64(total)
		}
		results = append(results, Result{
			ChoiceID:   c.ID,
			Text:       c.Text,
			Votes:      n,
			Percentage: p,
		})
	}

	return q, results, total, nil
}
