package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Assessment struct {
	Id            uuid.UUID                   `gorm:"type:uuid;primaryKey"`
	SessionKey    string                      `gorm:"type:varchar(64);not null;index"`
	InterviewId   string                      `gorm:"type:varchar(64);not null"`
	OwnerId       *string                     `gorm:"type:varchar(128);index"`
	Age           int                         `gorm:"not null"`
	Sex           string                      `gorm:"type:varchar(16);not null"`
	Evidence      datatypes.JSON              `gorm:"type:jsonb;not null"`
	Conditions    datatypes.JSON              `gorm:"type:jsonb;not null"`
	Emergencies   datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	StopReason    string                      `gorm:"type:varchar(32);not null"`
	QuestionCount int                         `gorm:"not null"`
	Explanation   string                      `gorm:"type:text"`
	CreatedAt     time.Time                   `gorm:"autoCreateTime;index"`
	UpdatedAt     time.Time                   `gorm:"autoUpdateTime"`
}

func (Assessment) TableName() string {
	return "assessments"
}
