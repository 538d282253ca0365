package store

import (
	"context"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/fdam/assessment-planner/internal/store/model"
)

type Store interface {
	NewTransactionContext(ctx context.Context) (context.Context, error)
	Assessment() Assessment
	Chat() Chat
	InitialMigration() error
	Close() error
}

type DataStore struct {
	assessment Assessment
	chat       Chat
	db         *gorm.DB
	log        logrus.FieldLogger
}

func NewStore(db *gorm.DB) Store {
	return &DataStore{
		assessment: NewAssessmentStore(db),
		chat:       NewChatStore(db),
		db:         db,
		log:        logrus.New(),
	}
}

func (s *DataStore) NewTransactionContext(ctx context.Context) (context.Context, error) {
	return newTransactionContext(ctx, s.db, s.log)
}

func (s *DataStore) Assessment() Assessment {
	return s.assessment
}

func (s *DataStore) Chat() Chat {
	return s.chat
}

func (s *DataStore) InitialMigration() error {
	return s.db.AutoMigrate(&model.Assessment{}, &model.ChatMessage{})
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
