package usecase

import (
	"context"

	"github.com/haasonsaas/agentcore/internal/llm"
	"github.com/haasonsaas/agentcore/pkg/models"
)

// classifyPrompt instructs the model to emit nothing but the classifier's
// JSON result shape, grounded on classify.Result's fields.
const classifyPrompt = `You are a task router. Given the user's message, decide whether it is a single atomic action or requires a multi-step plan.
Respond with ONLY a JSON object: {"isAtomic": bool, "targetAgent": "code"|"explain"|"plan", "confidence": "high"|"medium"|"low", "reason": string}.
If isAtomic is false, targetAgent must be "plan".`

// ClientClassifier adapts an llm.Client into classify.LLMCaller by wrapping
// the user message in a dedicated routing prompt and returning the raw
// completion text for classify.Classify to parse.
type ClientClassifier struct {
	Client *llm.Client
	Model  string
}

func (c *ClientClassifier) Classify(ctx context.Context, userMessage string) (string, error) {
	messages := []models.Message{
		{Role: models.RoleSystem, Content: classifyPrompt},
		{Role: models.RoleUser, Content: userMessage},
	}
	resp, err := c.Client.ChatCompletion(ctx, c.Model, messages, nil)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
