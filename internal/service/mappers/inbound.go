package mappers

import (
	"github.com/google/uuid"

	api "github.com/fdam/assessment-planner/api/v1alpha1"
	"github.com/fdam/assessment-planner/internal/store/model"
)

// AssessmentCreateForm is the validated submission payload ready to become a
// stored record.
type AssessmentCreateForm struct {
	Form api.AssessmentForm
}

func (f AssessmentCreateForm) ToModel() model.Assessment {
	return model.Assessment{
		ID:            uuid.New(),
		Phase:         string(api.PhaseSubmitting),
		RoomType:      f.Form.Metadata.RoomType,
		StructureType: f.Form.Metadata.StructureType,
		ImageCount:    len(f.Form.Images),
	}
}
