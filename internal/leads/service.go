package leads

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

type service struct {
	repo      Repo
	qualifier Qualifier
	notifier  Notifier
	log       zerolog.Logger
}

func NewService(repo Repo, qualifier Qualifier, notifier Notifier, log zerolog.Logger) Service {
	return &service{
		repo:      repo,
		qualifier: qualifier,
		notifier:  notifier,
		log:       log.With().Str("svc", "leads").Logger(),
	}
}

// HandleNewReply — одно входящее сообщение, один ответ лиду.
//
// Порядок жёсткий: сначала детерминированный ключ, только потом AI.
func (s *service) HandleNewReply(ctx context.Context, msg *LeadMessage) (*Result, error) {
	s.log.Info().
		Int64("user_id", msg.UserID).
		Str("username", msg.Username).
		Str("text", short(msg.Text)).
		Msg("new message")

	if DetectOverrideToken(msg.Text) {
		return s.handleOverride(ctx, msg)
	}

	history, err := s.repo.GetHistory(ctx, msg.UserID)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}

	// Первый контакт приходит без текста от человека —
	// реплику лида не записываем
	turns := make([]Turn, 0, 2)
	if !msg.FirstContact {
		userTurn := Turn{Role: RoleUser, Text: msg.Text}
		history = append(history, userTurn)
		turns = append(turns, userTurn)
	}

	reply, verdict := s.qualifier.Classify(ctx, history)
	turns = append(turns, Turn{Role: RoleAssistant, Text: reply})

	observed := Status(verdict.QualificationStatus)
	if observed == "" {
		observed = StatusCold
	}

	// HOT эскалирует; всё остальное (COLD/WARM/HANDOVER/ERROR/мусор)
	// нормализуется в AI_ACTIVE — диалог остаётся у AI
	persisted := StatusAIActive
	if observed == StatusHot {
		persisted = StatusHot
	}

	if err := s.repo.RecordExchange(ctx, msg.UserID, turns, persisted); err != nil {
		return nil, fmt.Errorf("record exchange: %w", err)
	}

	if persisted == StatusHot {
		s.notifyOperator(ctx, msg, reply)
	} else {
		s.log.Info().
			Int64("user_id", msg.UserID).
			Str("status", string(observed)).
			Msg("lead qualified, dialog continues")
	}

	return &Result{
		Message: fmt.Sprintf("AI response generated. Qualification: %s", observed),
		Reply:   reply,
		Status:  observed,
	}, nil
}

// handleOverride — лид прислал 6-значный ключ. AI не вызывается,
// ответ фиксированный, статус безусловно HOT.
func (s *service) handleOverride(ctx context.Context, msg *LeadMessage) (*Result, error) {
	reply := KeyAcceptedReply

	turns := []Turn{
		{Role: RoleUser, Text: msg.Text},
		{Role: RoleAssistant, Text: reply},
	}
	if err := s.repo.RecordExchange(ctx, msg.UserID, turns, StatusHot); err != nil {
		return nil, fmt.Errorf("record exchange: %w", err)
	}

	s.notifyOperator(ctx, msg, reply)

	return &Result{
		Message: "AI successfully detected 6-digit key.",
		Reply:   reply,
		Status:  StatusHot,
	}, nil
}

// Ответ лиду уже определён — ошибка уведомления запрос не валит
func (s *service) notifyOperator(ctx context.Context, msg *LeadMessage, reply string) {
	if err := s.notifier.NotifyHotLead(ctx, msg.ChatID, msg.Text, reply, msg.Username); err != nil {
		s.log.Error().Err(err).Int64("chat_id", msg.ChatID).Msg("operator notification failed")
		return
	}
	s.log.Warn().
		Int64("chat_id", msg.ChatID).
		Str("username", msg.Username).
		Msg("HOT lead, operator notified")
}
