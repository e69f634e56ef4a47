package question

import (
	"context"
	"time"
)

type Question struct {
	ID        int64      `json:"id"`
	Text      string     `json:"text"`
	PubDate   time.Time  `json:"pub_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type Choice struct {
	ID         int64  `json:"id"`
	QuestionID int64  `json:"question_id"`
	Text       string `json:"text"`
}

// IsPublished reports whether the question is visible at the given time.
func (q *Question) IsPublished(now time.Time) bool {
	return !now.Before(q.PubDate)
}

// WasPublishedRecently reports whether the publication date lies within
// the last 24 hours, endpoints included. Future publication dates are
// never "recent".
func (q *Question) WasPublishedRecently(now time.Time) bool {
	return !q.PubDate.After(now) && !q.PubDate.Before(now.Add(-24*time.Hour))
}

// CanVote reports whether a vote may be accepted at the given time. The
// window is closed on both ends: voting is allowed exactly at PubDate and
// exactly at EndDate. An unset EndDate leaves the window open-ended.
func (q *Question) CanVote(now time.Time) bool {
	if now.Before(q.PubDate) {
		return false
	}
	return q.EndDate == nil || !now.After(*q.EndDate)
}

// VotingStatus returns the user-facing "Open"/"Closed" label.
func (q *Question) VotingStatus(now time.Time) string {
	if q.CanVote(now) {
		return "Open"
	}
	return "Closed"
}

type Repository interface {
	Create(ctx context.Context, q *Question, choices []Choice) (int64, error)
	GetByID(ctx context.Context, id int64) (*Question, []Choice, error)
	ListPublished(ctx context.Context, now time.Time, limit int) ([]Question, error)
	Delete(ctx context.Context, id int64) error
}
