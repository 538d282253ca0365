package store

import (
	"gorm.io/gorm"
)

type BaseQuerier struct {
	QueryFn []func(tx *gorm.DB) *gorm.DB
}

type AssessmentQueryFilter BaseQuerier

func NewAssessmentQueryFilter() *AssessmentQueryFilter {
	return &AssessmentQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (qf *AssessmentQueryFilter) ByPhase(phase string) *AssessmentQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("phase = ?", phase)
	})
	return qf
}

func (qf *AssessmentQueryFilter) ByRoomType(roomType string) *AssessmentQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("room_type = ?", roomType)
	})
	return qf
}

func (qf *AssessmentQueryFilter) WithLimit(limit int) *AssessmentQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Limit(limit)
	})
	return qf
}
