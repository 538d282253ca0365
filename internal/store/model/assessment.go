package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	api "github.com/fdam/assessment-planner/api/v1alpha1"
)

type Assessment struct {
	ID        uuid.UUID `gorm:"primaryKey;column:id;type:VARCHAR(255);"`
	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt *time.Time

	Phase     string  `gorm:"not null;type:VARCHAR(50);index:assessments_phase_idx"`
	JobID     string  `gorm:"type:VARCHAR(255)"`
	SessionID string  `gorm:"type:VARCHAR(255)"`
	Error     *string `gorm:"type:TEXT"`

	RoomType      string `gorm:"type:VARCHAR(100)"`
	StructureType string `gorm:"type:VARCHAR(100)"`
	ImageCount    int    `gorm:"not null;default:0"`

	Report           *JSONField[api.AssessmentReport] `gorm:"type:jsonb"`
	ProcessingTimeMs int64

	ChatMessages []ChatMessage `gorm:"foreignKey:AssessmentID;references:ID;constraint:OnDelete:CASCADE;"`
}

type ChatMessage struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	CreatedAt    time.Time `gorm:"not null;default:now()"`
	AssessmentID uuid.UUID `gorm:"not null;type:VARCHAR(255);index:chat_messages_assessment_idx"`
	Role         string    `gorm:"not null;type:VARCHAR(20)"`
	Content      string    `gorm:"not null;type:TEXT"`
}

type AssessmentList []Assessment

func (a Assessment) String() string {
	val, _ := json.Marshal(a)
	return string(val)
}

func (m ChatMessage) String() string {
	val, _ := json.Marshal(m)
	return string(val)
}
