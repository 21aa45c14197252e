package http

import (
	"context"
	"net/http"

	"summarize-pro/internal/domain/entity"
	"summarize-pro/internal/handler/http/respond"
)

// QAService is implemented by *qa.Service.
type QAService interface {
	Ask(ctx context.Context, q entity.Question) (*entity.Answer, error)
	Converse(ctx context.Context, q entity.Question) (*entity.Answer, error)
}

// QAHandler serves the /api/v1/qa endpoints.
type QAHandler struct {
	Svc QAService
}

// Ask handles POST /api/v1/qa/ask. Any conversation_history in the body is ignored.
func (h QAHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var q entity.Question
	if err := decodeJSON(r, &q); err != nil {
		writeError(w, err)
		return
	}
	q.History = nil
	h.reply(w, r, h.Svc.Ask, q)
}

// Conversation handles POST /api/v1/qa/conversation.
func (h QAHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	var q entity.Question
	if err := decodeJSON(r, &q); err != nil {
		writeError(w, err)
		return
	}
	h.reply(w, r, h.Svc.Converse, q)
}

func (h QAHandler) reply(
	w http.ResponseWriter,
	r *http.Request,
	answer func(context.Context, entity.Question) (*entity.Answer, error),
	q entity.Question,
) {
	ans, err := answer(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, toAnswerResponse(ans))
}
