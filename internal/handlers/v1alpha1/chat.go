package v1alpha1

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/render"

	api "github.com/fdam/assessment-planner/api/v1alpha1"
)

func (h *ServiceHandler) SendChatMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.assessmentID(w, r)
	if !ok {
		return
	}

	var req api.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.renderBadRequest(w, r, "invalid request body: "+err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.renderBadRequest(w, r, "invalid chat request: "+err.Error())
		return
	}

	reply, err := h.chat.SendMessage(r.Context(), id, req.Message)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	_ = render.Render(w, r, ChatReplyReply{ChatReply: *reply})
}

func (h *ServiceHandler) GetChatTranscript(w http.ResponseWriter, r *http.Request) {
	id, ok := h.assessmentID(w, r)
	if !ok {
		return
	}

	transcript, err := h.chat.GetTranscript(r.Context(), id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	_ = render.Render(w, r, ChatTranscriptReply{Messages: transcript})
}

type ChatReplyReply struct {
	api.ChatReply
}

type ChatTranscriptReply struct {
	Messages []api.ChatMessage `json:"messages"`
}

func (c ChatReplyReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func (c ChatTranscriptReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}
