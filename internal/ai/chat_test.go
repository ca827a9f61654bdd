package ai

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masrulmollah/DataAnalysis/internal/models"
)

func TestChat_Reply(t *testing.T) {
	fake := &fakeProvider{response: "the total is 240"}
	chat := NewChat(fake)

	history := []models.ChatMessage{
		{Role: models.ChatRoleUser, Text: "what regions are there?", Timestamp: time.Now()},
		{Role: models.ChatRoleModel, Text: "north and south", Timestamp: time.Now()},
	}

	reply, err := chat.Reply(context.Background(), "and the total?", "region,amount\nnorth,120\nsouth,120", history)
	require.NoError(t, err)
	assert.Equal(t, "the total is 240", reply)

	// system grounding, two history turns, then the question
	require.Len(t, fake.lastHistory, 4)
	assert.Equal(t, RoleSystem, fake.lastHistory[0].Role)
	assert.Contains(t, fake.lastHistory[0].Content, "north,120")
	assert.Equal(t, RoleUser, fake.lastHistory[1].Role)
	assert.Equal(t, "what regions are there?", fake.lastHistory[1].Content)
	assert.Equal(t, RoleModel, fake.lastHistory[2].Role)
	assert.Equal(t, RoleUser, fake.lastHistory[3].Role)
	assert.Equal(t, "and the total?", fake.lastHistory[3].Content)
}

func TestChat_EmptyHistory(t *testing.T) {
	fake := &fakeProvider{response: "hello"}
	chat := NewChat(fake)

	_, err := chat.Reply(context.Background(), "hi", "a,b", nil)
	require.NoError(t, err)
	require.Len(t, fake.lastHistory, 2)
	assert.Equal(t, RoleSystem, fake.lastHistory[0].Role)
	assert.Equal(t, RoleUser, fake.lastHistory[1].Role)
}

func TestChat_ProviderError(t *testing.T) {
	cause := fmt.Errorf("quota exceeded")
	chat := NewChat(&fakeProvider{err: cause})

	_, err := chat.Reply(context.Background(), "hi", "a,b", nil)
	var rce *models.RemoteCallError
	require.ErrorAs(t, err, &rce)
	assert.Equal(t, "chat", rce.Op)
	assert.ErrorIs(t, err, cause)
}
