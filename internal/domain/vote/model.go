package vote

import (
	"context"
	"time"
)

type Vote struct {
	ID         int64     `json:"id"`
	QuestionID int64     `json:"question_id"`
	ChoiceID   int64     `json:"choice_id"`
	UserID     int64     `json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Repository interface {
	// Upsert stores v as the user's single vote for the question,
	// replacing the choice on an existing row. It reports whether an
	// existing vote was replaced.
	Upsert(ctx context.Context, v *Vote) (revote bool, err error)
	FindByUserAndQuestion(ctx context.Context, userID, questionID int64) (*Vote, error)
	CountByQuestion(ctx context.Context, questionID int64) (map[int64]int64, int64, error)
}
