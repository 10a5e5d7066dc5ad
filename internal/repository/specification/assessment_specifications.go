package specification

import "gorm.io/gorm"

type AssessmentOwnedBy struct {
	OwnerID string
}

func (s AssessmentOwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("owner_id = ?", s.OwnerID)
}
