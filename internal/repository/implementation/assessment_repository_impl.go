package implementation

import (
	"context"
	"errors"

	"symptom-checker-be/internal/entity"
	"symptom-checker-be/internal/mapper"
	"symptom-checker-be/internal/model"
	"symptom-checker-be/internal/repository/contract"
	"symptom-checker-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AssessmentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AssessmentMapper
}

func NewAssessmentRepository(db *gorm.DB) contract.AssessmentRepository {
	return &AssessmentRepositoryImpl{
		db:     db,
		mapper: mapper.NewAssessmentMapper(),
	}
}

func (r *AssessmentRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

// Save inserts or fully overwrites the row with the same id.
func (r *AssessmentRepositoryImpl) Save(ctx context.Context, assessment *entity.Assessment) error {
	m, err := r.mapper.ToModel(assessment)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	saved, err := r.mapper.ToEntity(m)
	if err != nil {
		return err
	}
	*assessment = *saved
	return nil
}

func (r *AssessmentRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*entity.Assessment, error) {
	var m model.Assessment
	query := r.applySpecifications(r.db.WithContext(ctx), specification.ByID{ID: id})
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m)
}

func (r *AssessmentRepositoryImpl) FindByOwner(ctx context.Context, ownerId string, limit, offset int) ([]*entity.Assessment, error) {
	var models []*model.Assessment
	query := r.applySpecifications(r.db.WithContext(ctx),
		specification.AssessmentOwnedBy{OwnerID: ownerId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: offset},
	)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	out := make([]*entity.Assessment, 0, len(models))
	for _, m := range models {
		a, err := r.mapper.ToEntity(m)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
