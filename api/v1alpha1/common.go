package v1alpha1

func StringToJobStatus(s string) (JobStatus, bool) {
	switch s {
	case string(JobStatusPending):
		return JobStatusPending, true
	case string(JobStatusInProgress):
		return JobStatusInProgress, true
	case string(JobStatusCompleted):
		return JobStatusCompleted, true
	case string(JobStatusFailed):
		return JobStatusFailed, true
	default:
		return "", false
	}
}

// Terminal reports whether the status is one of the two terminal states.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Terminal reports whether the phase admits no further transitions.
func (p AssessmentPhase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseFailed
}
