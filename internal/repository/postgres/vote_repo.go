package postgres

import (
	"context"
	"database/sql"
	"errors"

	"polls-service/internal/domain/vote"
)

type VoteRepo struct {
	db *sql.DB
}

func NewVoteRepo(db *sql.DB) *VoteRepo {
	return &VoteRepo{db: db}
}

// Upsert relies on the UNIQUE (question_id, user_id) constraint: a revote
// is a single atomic statement, so two racing submissions from the same
// user cannot leave duplicate rows. xmax = 0 distinguishes a fresh insert
// from a conflict-updated row.
func (r *VoteRepo) Upsert(ctx context.Context, v *vote.Vote) (bool, error) {
	query := `
        INSERT INTO votes (question_id, choice_id, user_id)
        VALUES ($1, $2, $3)
        ON CONFLICT (question_id, user_id) DO UPDATE
        SET choice_id = EXCLUDED.choice_id,
            updated_at = now()
        RETURNING id, created_at, updated_at, (xmax = 0)
    `
	var inserted bool
	err := r.db.QueryRowContext(ctx, query, v.QuestionID, v.ChoiceID, v.UserID).
		Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt, &inserted)
	if err != nil {
		return false, err
	}
	return !inserted, nil
}

func (r *VoteRepo) FindByUserAndQuestion(ctx context.Context, userID, questionID int64) (*vote.Vote, error) {
	v := &vote.Vote{}
	err := r.db.QueryRowContext(ctx, `
        SELECT id, question_id, choice_id, user_id, created_at, updated_at
        FROM votes WHERE user_id = $1 AND question_id = $2
    `, userID, questionID).Scan(&v.ID, &v.QuestionID, &v.ChoiceID, &v.UserID, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, vote.ErrNoVote
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (r *VoteRepo) CountByQuestion(ctx context.Context, questionID int64) (map[int64]int64, int64, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT choice_id, COUNT(*)
        FROM votes
        WHERE question_id = $1
        GROUP BY choice_id
    `, questionID)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	res := make(map[int64]int64)
	var total int64
	for rows.Next() {
		var choiceID int64
		var c int64
		if err := rows.Scan(&choiceID, &c); err != nil {
			return nil, 0, err
		}
		res[choiceID] = c
		total += c
	}

	return res, total, rows.Err()
}
