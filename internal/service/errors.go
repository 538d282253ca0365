package service

import (
	"fmt"

	"github.com/google/uuid"
)

type ErrResourceNotFound struct {
	error
}

func NewErrResourceNotFound(id uuid.UUID, resourceType string) *ErrResourceNotFound {
	return &ErrResourceNotFound{fmt.Errorf("%s %s not found", resourceType, id)}
}

func NewErrAssessmentNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "assessment")
}

type ErrAssessmentNotCompleted struct {
	error
}

func NewErrAssessmentNotCompleted(id uuid.UUID, phase string) *ErrAssessmentNotCompleted {
	return &ErrAssessmentNotCompleted{fmt.Errorf("assessment %s is not completed (phase %s)", id, phase)}
}

type ErrAssessmentAlreadyRunning struct {
	error
}

func NewErrAssessmentAlreadyRunning(id uuid.UUID) *ErrAssessmentAlreadyRunning {
	return &ErrAssessmentAlreadyRunning{fmt.Errorf("assessment %s is still running", id)}
}

type ErrChatSessionExpired struct {
	error
}

func NewErrChatSessionExpired(id uuid.UUID) *ErrChatSessionExpired {
	return &ErrChatSessionExpired{fmt.Errorf("chat session for assessment %s expired or was never created", id)}
}

type ErrChatUnavailable struct {
	error
}

func NewErrChatUnavailable(message string) *ErrChatUnavailable {
	return &ErrChatUnavailable{fmt.Errorf("chat service unavailable: %s", message)}
}
