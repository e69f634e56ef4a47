package worker

import (
	"context"
	"log/slog"

	"polls-service/internal/metrics"
)

type BallotEvent struct {
	QuestionID int64
	ChoiceID   int64
	UserID     int64
	Revote     bool
}

// BallotWorker drains recorded-ballot events off the hot request path,
// logging them and feeding the ballot counters.
type BallotWorker struct {
	Ch  <-chan BallotEvent
	log *slog.Logger
}

func NewBallotWorker(ch <-chan BallotEvent, l *slog.Logger) *BallotWorker {
	if l == nil {
		l = slog.Default()
	}
	return &BallotWorker{Ch: ch, log: l}
}

func (w *BallotWorker) Run(ctx context.Context) {
	w.log.Info("ballot worker started")
	for {
		select {
		case <-ctx.Done():
			w.log.Info("ballot worker stopped")
			return
		case ev := <-w.Ch:
			metrics.IncBallot(ev.Revote)
			w.log.Info("ballot recorded",
				"question", ev.QuestionID,
				"choice", ev.ChoiceID,
				"user", ev.UserID,
				"revote", ev.Revote,
			)
		}
	}
}
