package feedback

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Skufu/symptomcheck/internal/logger"
)

// DefaultDelay mimics the round trip of a real submission.
const DefaultDelay = time.Second

// Submission is what the feedback form posts.
type Submission struct {
	Name    string `json:"name" form:"name" binding:"required,max=200"`
	Email   string `json:"email" form:"email" binding:"required,email,max=320"`
	Message string `json:"message" form:"message" binding:"required,max=5000"`
}

// Receipt tells the caller what happened to a submission. Persisted is false
// when nothing was stored.
type Receipt struct {
	ID         string    `json:"id"`
	Persisted  bool      `json:"persisted"`
	ReceivedAt time.Time `json:"receivedAt"`
}

type Recorder interface {
	Record(ctx context.Context, s Submission) (Receipt, error)
}

// DiscardRecorder accepts feedback without storing it. It waits Delay, logs the
// submission and reports Persisted=false.
type DiscardRecorder struct {
	Delay time.Duration
	log   *logger.Logger
}

func NewDiscardRecorder(delay time.Duration, log *logger.Logger) *DiscardRecorder {
	if log == nil {
		log = logger.Nop()
	}
	return &DiscardRecorder{Delay: delay, log: log}
}

func (r *DiscardRecorder) Record(ctx context.Context, s Submission) (Receipt, error) {
	if r.Delay > 0 {
		timer := time.NewTimer(r.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Receipt{}, ctx.Err()
		case <-timer.C:
		}
	}

	receipt := Receipt{ID: uuid.NewString(), Persisted: false, ReceivedAt: time.Now().UTC()}
	r.log.Info("feedback received (not stored)",
		"feedback_id", receipt.ID,
		"name", s.Name,
		"email", s.Email,
		"message_len", len(s.Message),
	)
	return receipt, nil
}
