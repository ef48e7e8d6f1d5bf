package leads

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Handler struct {
	svc Service
	log zerolog.Logger
}

func NewHandler(svc Service, log zerolog.Logger) *Handler {
	return &Handler{
		svc: svc,
		log: log.With().Str("svc", "http").Logger(),
	}
}

type newReplyPayload struct {
	UserID          int64  `json:"user_id"`
	ChatID          int64  `json:"chat_id"`
	SenderAccountID int64  `json:"sender_account_id"`
	ReceivedMessage string `json:"received_message"`
	Username        string `json:"username,omitempty"`
	Timestamp       int64  `json:"timestamp,omitempty"`
	FirstContact    bool   `json:"first_contact,omitempty"`
}

type newReplyResponse struct {
	Status              string `json:"status"`
	Message             string `json:"message"`
	ResponseText        string `json:"response_text"`
	QualificationStatus string `json:"qualification_status,omitempty"`
}

// HandleNewReply — вход от канального адаптера
func (h *Handler) HandleNewReply(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.NewString()
	w.Header().Set("X-Request-Id", reqID)
	log := h.log.With().Str("req_id", reqID).Logger()

	var payload newReplyPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	if payload.UserID == 0 {
		http.Error(w, "missing user_id", http.StatusBadRequest)
		return
	}
	if payload.ReceivedMessage == "" && !payload.FirstContact {
		http.Error(w, "missing received_message", http.StatusBadRequest)
		return
	}

	msg := &LeadMessage{
		UserID:          payload.UserID,
		ChatID:          payload.ChatID,
		SenderAccountID: payload.SenderAccountID,
		Text:            payload.ReceivedMessage,
		Username:        payload.Username,
		Timestamp:       payload.Timestamp,
		FirstContact:    payload.FirstContact,
	}

	result, err := h.svc.HandleNewReply(r.Context(), msg)
	if err != nil {
		// частичные записи не откатываем, лид ответа не получает —
		// решение за канальным адаптером
		log.Error().Err(err).Int64("user_id", payload.UserID).Msg("processing failed")
		http.Error(w, "Internal AI processing error.", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(newReplyResponse{
		Status:              "success",
		Message:             result.Message,
		ResponseText:        result.Reply,
		QualificationStatus: string(result.Status),
	})
}
