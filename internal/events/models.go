package events

// AssessmentEvent reports one lifecycle transition of an assessment.
type AssessmentEvent struct {
	AssessmentID string  `json:"assessment_id"`
	Phase        string  `json:"phase"`
	JobStatus    string  `json:"job_status,omitempty"`
	Error        *string `json:"error,omitempty"`
}

// ChatEvent reports one exchanged chat message.
type ChatEvent struct {
	AssessmentID string `json:"assessment_id"`
	SessionID    string `json:"session_id"`
	Role         string `json:"role"`
}
