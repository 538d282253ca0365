package v1alpha1

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus is the processing state reported by the inference provider for a
// submitted assessment job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Severity grades the smoke/fire damage observed in one assessed area.
type Severity string

const (
	SeverityHeavy    Severity = "heavy"
	SeverityModerate Severity = "moderate"
	SeverityLight    Severity = "light"
	SeverityTrace    Severity = "trace"
	SeverityNone     Severity = "none"
)

// RestorationAction is the disposition recommended for a surface or item.
type RestorationAction string

const (
	ActionRemove   RestorationAction = "Remove"
	ActionClean    RestorationAction = "Clean"
	ActionNoAction RestorationAction = "No Action"
	ActionAssess   RestorationAction = "Assess"
)

// DetailedFinding is one assessed area of the report.
type DetailedFinding struct {
	Area            string   `json:"area"`
	Findings        string   `json:"findings"`
	Severity        Severity `json:"severity"`
	Recommendations []string `json:"recommendations"`
}

// PriorityEntry is one row of the restoration priority list.
type PriorityEntry struct {
	Priority  int               `json:"priority"`
	Area      string            `json:"area"`
	Action    RestorationAction `json:"action"`
	Rationale string            `json:"rationale"`
}

// AssessmentReport is the structured report extracted from the model's raw
// output. Every field is always populated; consumers never need nil checks.
type AssessmentReport struct {
	ExecutiveSummary    string            `json:"executiveSummary"`
	DetailedAssessment  []DetailedFinding `json:"detailedAssessment"`
	FdamRecommendations []string          `json:"fdamRecommendations"`
	RestorationPriority []PriorityEntry   `json:"restorationPriority"`
	ScopeIndicators     []string          `json:"scopeIndicators"`
}

// PropertyMetadata describes the property being assessed.
type PropertyMetadata struct {
	RoomType      string `json:"roomType" validate:"required,min=2,max=100"`
	StructureType string `json:"structureType" validate:"required,min=2,max=100"`
	Dimensions    string `json:"dimensions,omitempty" validate:"max=100"`
	FireOrigin    string `json:"fireOrigin,omitempty" validate:"max=500"`
	Notes         string `json:"notes,omitempty" validate:"max=2000"`
}

// AssessmentForm is the submission payload: encoded images plus metadata.
type AssessmentForm struct {
	Images   []string         `json:"images" validate:"required,min=1,max=20,dive,image_data"`
	Metadata PropertyMetadata `json:"metadata" validate:"required"`
}

// AssessmentPhase is the lifecycle state of one assessment orchestration as
// exposed to the UI.
type AssessmentPhase string

const (
	PhaseIdle           AssessmentPhase = "idle"
	PhaseSubmitting     AssessmentPhase = "submitting"
	PhasePolling        AssessmentPhase = "polling"
	PhaseFetchingResult AssessmentPhase = "fetching_result"
	PhaseCompleted      AssessmentPhase = "completed"
	PhaseFailed         AssessmentPhase = "failed"
)

// Assessment is the API view of one assessment.
type Assessment struct {
	Id               uuid.UUID         `json:"id"`
	Phase            AssessmentPhase   `json:"phase"`
	JobStatus        JobStatus         `json:"jobStatus,omitempty"`
	StatusInfo       string            `json:"statusInfo,omitempty"`
	Error            string            `json:"error,omitempty"`
	SessionId        string            `json:"sessionId,omitempty"`
	Report           *AssessmentReport `json:"report,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
	ProcessingTimeMs int64             `json:"processingTimeMs,omitempty"`
}

// ChatRequest is one user turn against an assessment's chat session.
type ChatRequest struct {
	Message string `json:"message" validate:"required,min=1,max=4000"`
}

// ChatReply carries the assistant reply for one chat turn.
type ChatReply struct {
	Response  string `json:"response"`
	Timestamp string `json:"timestamp"`
}

// ChatMessage is one stored transcript entry.
type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Error is the wire shape of every failure returned by the API.
// Code follows HTTP status conventions so callers can apply uniform handling.
type Error struct {
	Code      int     `json:"code"`
	Message   string  `json:"message"`
	Details   *string `json:"details,omitempty"`
	RequestId *string `json:"requestId,omitempty"`
}
