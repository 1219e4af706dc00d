package classify

import (
	"context"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// Result is the structured classification of one message.
type Result struct {
	Category string
	Action   Action
	Entities map[string]string
}

// Fallback is the deterministic default used whenever classification is
// unavailable or its output cannot be trusted.
func Fallback() Result {
	return Result{Category: CategoryOther, Action: ActionOfftopic}
}

// Classifier maps free text to a Result via a chat-completion call.
// A Classifier built without an API key is permanently degraded and
// answers every request with Fallback().
type Classifier struct {
	client  openai.Client
	model   shared.ChatModel
	enabled bool
	log     zerolog.Logger
}

// New builds a Classifier. Extra request options (base URL overrides for
// tests, custom HTTP clients) are passed through to the openai client.
func New(apiKey string, model string, log zerolog.Logger, opts ...option.RequestOption) *Classifier {
	c := &Classifier{
		model: shared.ChatModel(strings.TrimSpace(model)),
		log:   log.With().Str("component", "classify").Logger(),
	}
	if c.model == "" {
		c.model = openai.ChatModelGPT4o
	}
	if strings.TrimSpace(apiKey) == "" {
		return c
	}
	reqOpts := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	c.client = openai.NewClient(reqOpts...)
	c.enabled = true
	return c
}

// Classify never fails: any error degrades to Fallback(). One attempt per
// call, no caching.
func (c *Classifier) Classify(ctx context.Context, text string) Result {
	if c == nil || !c.enabled {
		return Fallback()
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(text),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		c.log.Error().Err(err).Msg("classification request failed")
		return Fallback()
	}
	if len(resp.Choices) == 0 {
		c.log.Warn().Msg("classification returned no choices")
		return Fallback()
	}
	return parseResult(resp.Choices[0].Message.Content, c.log)
}

func parseResult(raw string, log zerolog.Logger) Result {
	raw = strings.TrimSpace(raw)
	if !gjson.Valid(raw) {
		log.Warn().Str("raw", raw).Msg("classification output is not valid JSON")
		return Fallback()
	}
	doc := gjson.Parse(raw)
	category := strings.TrimSpace(doc.Get("category").String())
	action := Action(strings.TrimSpace(doc.Get("action").String()))
	if !KnownCategory(category) || !knownAction(action) {
		log.Warn().Str("category", category).Str("action", string(action)).Msg("classification output has unknown labels")
		return Fallback()
	}

	res := Result{Category: category, Action: action}
	if ent := doc.Get("entities"); ent.IsObject() {
		res.Entities = make(map[string]string)
		ent.ForEach(func(key, value gjson.Result) bool {
			res.Entities[key.String()] = value.String()
			return true
		})
	}
	return res
}
