package contract

import (
	"context"

	"symptom-checker-be/internal/entity"

	"github.com/google/uuid"
)

// AssessmentRepository stores finalized interviews. FindByID returns
// (nil, nil) when nothing matches.
type AssessmentRepository interface {
	Save(ctx context.Context, assessment *entity.Assessment) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Assessment, error)
	FindByOwner(ctx context.Context, ownerId string, limit, offset int) ([]*entity.Assessment, error)
}
