package v1alpha1

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	api "github.com/fdam/assessment-planner/api/v1alpha1"
	"github.com/fdam/assessment-planner/internal/store"
	"github.com/fdam/assessment-planner/pkg/requestid"
)

func (h *ServiceHandler) CreateAssessment(w http.ResponseWriter, r *http.Request) {
	var form api.AssessmentForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		h.renderBadRequest(w, r, "invalid request body: "+err.Error())
		return
	}
	if err := h.validator.Struct(form); err != nil {
		h.renderBadRequest(w, r, "invalid assessment form: "+err.Error())
		return
	}

	created, err := h.assessments.CreateAssessment(r.Context(), form)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	_ = render.Render(w, r, AssessmentReply{Assessment: *created})
}

func (h *ServiceHandler) ListAssessments(w http.ResponseWriter, r *http.Request) {
	filter := store.NewAssessmentQueryFilter()
	if phase := r.URL.Query().Get("phase"); phase != "" {
		filter = filter.ByPhase(phase)
	}

	assessments, err := h.assessments.ListAssessments(r.Context(), filter)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	_ = render.Render(w, r, AssessmentListReply{Assessments: assessments})
}

func (h *ServiceHandler) GetAssessment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.assessmentID(w, r)
	if !ok {
		return
	}

	assessment, err := h.assessments.GetAssessment(r.Context(), id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	_ = render.Render(w, r, AssessmentReply{Assessment: *assessment})
}

func (h *ServiceHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	id, ok := h.assessmentID(w, r)
	if !ok {
		return
	}

	report, err := h.assessments.GetReport(r.Context(), id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	_ = render.Render(w, r, ReportReply{AssessmentReport: *report})
}

// CancelAssessment stops a running orchestration. With purge=true the record
// and its transcript are removed as well.
func (h *ServiceHandler) CancelAssessment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.assessmentID(w, r)
	if !ok {
		return
	}

	var err error
	if r.URL.Query().Get("purge") == "true" {
		err = h.assessments.DeleteAssessment(r.Context(), id)
	} else {
		err = h.assessments.CancelAssessment(r.Context(), id)
	}
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ServiceHandler) assessmentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.renderBadRequest(w, r, "invalid assessment id")
		return uuid.UUID{}, false
	}
	return id, true
}

func (h *ServiceHandler) renderBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	render.Status(r, http.StatusBadRequest)
	_ = render.Render(w, r, ErrorReply{Error: api.Error{
		Code:      http.StatusBadRequest,
		Message:   message,
		RequestId: requestid.FromContextPtr(r.Context()),
	}})
}

type AssessmentReply struct {
	api.Assessment
}

type AssessmentListReply struct {
	Assessments []api.Assessment `json:"assessments"`
}

type ReportReply struct {
	api.AssessmentReport
}

func (a AssessmentReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func (a AssessmentListReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func (a ReportReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}
