package mappers

import (
	api "github.com/fdam/assessment-planner/api/v1alpha1"
	"github.com/fdam/assessment-planner/internal/store/model"
)

func AssessmentToApi(m model.Assessment) api.Assessment {
	out := api.Assessment{
		Id:               m.ID,
		Phase:            api.AssessmentPhase(m.Phase),
		SessionId:        m.SessionID,
		CreatedAt:        m.CreatedAt,
		ProcessingTimeMs: m.ProcessingTimeMs,
	}
	if m.Error != nil {
		out.Error = *m.Error
	}
	if m.Report != nil {
		report := m.Report.Data
		out.Report = &report
	}
	return out
}

func AssessmentListToApi(assessments model.AssessmentList) []api.Assessment {
	out := make([]api.Assessment, 0, len(assessments))
	for _, a := range assessments {
		out = append(out, AssessmentToApi(a))
	}
	return out
}
