package ai

import (
	"context"
	"fmt"

	"github.com/masrulmollah/DataAnalysis/internal/models"
)

const groundingPrompt = `You are a helpful data analyst. The user has uploaded a file and you are answering follow-up questions about it. Answer concisely and only based on the file content below.

File content:
%s`

// Chat answers follow-up questions grounded in the uploaded file.
// There is no remote conversation state, so the grounding content and
// the prior turns travel with every call.
type Chat struct {
	provider Provider
}

func NewChat(provider Provider) *Chat {
	return &Chat{provider: provider}
}

// Reply sends the question, the grounding text, and the prior history
// (role and text only, timestamps stripped) and returns the reply text.
func (c *Chat) Reply(ctx context.Context, question, grounding string, history []models.ChatMessage) (string, error) {
	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: RoleSystem, Content: fmt.Sprintf(groundingPrompt, grounding)})
	for _, m := range history {
		messages = append(messages, Message{Role: string(m.Role), Content: m.Text})
	}
	messages = append(messages, Message{Role: RoleUser, Content: question})

	reply, err := c.provider.Chat(ctx, messages)
	if err != nil {
		return "", &models.RemoteCallError{Op: "chat", Err: err}
	}
	return reply, nil
}
