package appctx

import (
	"context"

	"github.com/Akshay-cybersec/NeuroVibe/internal/domain/models"
)

type ctxKey string

const participantKey ctxKey = "participant"

// WithParticipant binds the authenticated (or guest) participant to the
// request context.
func WithParticipant(ctx context.Context, p models.Participant) context.Context {
	return context.WithValue(ctx, participantKey, p)
}

// Participant extracts the participant from the context.
func Participant(ctx context.Context) (models.Participant, bool) {
	p, ok := ctx.Value(participantKey).(models.Participant)
	return p, ok
}
