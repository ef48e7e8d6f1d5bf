package ai

import (
	"context"
	"errors"
	"os"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

const defaultTemperature = 0.7

type OpenAIClient struct {
	client *openai.Client
	model  string
	log    zerolog.Logger
}

func NewOpenAIClient(log zerolog.Logger) *OpenAIClient {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatal().Msg("OPENAI_API_KEY not set")
	}

	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = openai.GPT4oMini
	}

	return NewOpenAIClientWith(openai.NewClient(apiKey), model, log)
}

// NewOpenAIClientWith — для тестов и нестандартных endpoint-ов
func NewOpenAIClientWith(client *openai.Client, model string, log zerolog.Logger) *OpenAIClient {
	return &OpenAIClient{
		client: client,
		model:  model,
		log:    log.With().Str("svc", "ai").Logger(),
	}
}

// GetReply отправляет диалог одной попыткой, без retry.
// response_format=json_object — модель обязана вернуть валидный JSON-объект.
func (c *OpenAIClient) GetReply(
	ctx context.Context,
	history []Message,
) (string, error) {

	msgs := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, m := range history {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Text,
		})
	}

	c.log.Debug().Int("messages", len(msgs)).Msg("sending dialog to AI")

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: msgs,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: defaultTemperature,
	})
	if err != nil {
		c.log.Error().Err(err).Msg("OpenAI error")
		return "", err
	}

	if len(resp.Choices) == 0 {
		c.log.Warn().Msg("empty choices")
		return "", errors.New("openai: empty choices")
	}

	raw := resp.Choices[0].Message.Content

	c.log.Debug().Str("raw", raw).Msg("raw GPT response")

	return raw, nil
}
