// Package v1alpha1 exposes the assessment API over HTTP. Handlers decode and
// validate the payload, delegate to the service layer, and translate typed
// service errors to wire errors.
package v1alpha1

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	api "github.com/fdam/assessment-planner/api/v1alpha1"
	"github.com/fdam/assessment-planner/internal/handlers/validator"
	"github.com/fdam/assessment-planner/internal/service"
	"github.com/fdam/assessment-planner/pkg/requestid"
)

type ServiceHandler struct {
	assessments *service.AssessmentService
	chat        *service.ChatService
	validator   *validator.Validator
	log         *zap.SugaredLogger
}

func NewServiceHandler(assessments *service.AssessmentService, chat *service.ChatService) *ServiceHandler {
	v := validator.NewValidator()
	v.Register(validator.NewAssessmentValidationRules()...)
	return &ServiceHandler{
		assessments: assessments,
		chat:        chat,
		validator:   v,
		log:         zap.S().Named("api_handler"),
	}
}

func (h *ServiceHandler) RegisterRoutes(router chi.Router) {
	router.Route("/api/v1/assessments", func(r chi.Router) {
		r.Post("/", h.CreateAssessment)
		r.Get("/", h.ListAssessments)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetAssessment)
			r.Delete("/", h.CancelAssessment)
			r.Get("/report", h.GetReport)
			r.Post("/chat", h.SendChatMessage)
			r.Get("/chat", h.GetChatTranscript)
		})
	})
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// renderError maps typed service errors onto the wire error shape.
func (h *ServiceHandler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError

	var (
		notFound     *service.ErrResourceNotFound
		notCompleted *service.ErrAssessmentNotCompleted
		expired      *service.ErrChatSessionExpired
		unavailable  *service.ErrChatUnavailable
	)
	switch {
	case errors.As(err, &notFound):
		code = http.StatusNotFound
	case errors.As(err, &notCompleted):
		code = http.StatusConflict
	case errors.As(err, &expired):
		code = http.StatusGone
	case errors.As(err, &unavailable):
		code = http.StatusServiceUnavailable
	}

	if code == http.StatusInternalServerError {
		h.log.Errorw("request failed", "path", r.URL.Path, "error", err)
	}

	render.Status(r, code)
	_ = render.Render(w, r, ErrorReply{Error: api.Error{
		Code:      code,
		Message:   err.Error(),
		RequestId: requestid.FromContextPtr(r.Context()),
	}})
}

type ErrorReply struct {
	api.Error
}

func (e ErrorReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}
