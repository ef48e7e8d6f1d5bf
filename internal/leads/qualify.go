package leads

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Vovarama1992/leads-ai-gatekeeper/internal/ai"
	"github.com/Vovarama1992/leads-ai-gatekeeper/internal/rag"
)

type qualifier struct {
	ai        ai.AI
	retriever *rag.Retriever // nil — без контекста из базы знаний
	log       zerolog.Logger
}

func NewQualifier(aiClient ai.AI, retriever *rag.Retriever, log zerolog.Logger) Qualifier {
	return &qualifier{
		ai:        aiClient,
		retriever: retriever,
		log:       log.With().Str("svc", "qualifier").Logger(),
	}
}

// Classify — один вызов AI поверх всей истории.
// Любая ошибка провайдера или парсинга деградирует до фиксированного
// ответа и StatusError, наружу ошибка не выходит.
func (q *qualifier) Classify(ctx context.Context, history []Turn) (string, Verdict) {
	system := QualificationPrompt
	if q.retriever != nil && len(history) > 0 {
		lastUserText := history[len(history)-1].Text
		if kbContext := q.retriever.RelevantContext(lastUserText, rag.DefaultContextChars); kbContext != "" {
			system += "\n\nКонтекст из базы знаний:\n" + kbContext
		}
	}

	msgs := make([]ai.Message, 0, len(history)+1)
	msgs = append(msgs, ai.Message{Role: "system", Text: system})
	for _, t := range history {
		msgs = append(msgs, ai.Message{Role: string(t.Role), Text: t.Text})
	}

	raw, err := q.ai.GetReply(ctx, msgs)
	if err != nil {
		q.log.Error().Err(err).Msg("AI call failed")
		return AIErrorReply, Verdict{QualificationStatus: string(StatusError)}
	}

	var verdict Verdict
	if err := json.Unmarshal([]byte(raw), &verdict); err != nil {
		q.log.Error().Err(err).Str("raw", short(raw)).Msg("verdict parse error")
		return ParseErrorReply, Verdict{QualificationStatus: string(StatusError)}
	}

	if verdict.ResponseText == "" {
		verdict.ResponseText = "Ошибка."
	}

	reply := stripRepeatedGreeting(verdict.ResponseText, len(history))
	return reply, verdict
}

// Приветствие допустимо только в самом первом ответе
func stripRepeatedGreeting(text string, historyLen int) string {
	if historyLen <= 1 {
		return text
	}
	for _, g := range greetingPrefixes {
		if strings.HasPrefix(text, g) {
			return strings.TrimSpace(strings.TrimPrefix(text, g))
		}
	}
	return text
}

func short(s string) string {
	if len(s) > 180 {
		return s[:180] + "..."
	}
	return s
}
