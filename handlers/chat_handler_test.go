package handlers

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Novicer18/lexadvisor/llm"
	"github.com/Novicer18/lexadvisor/models"
	"github.com/Novicer18/lexadvisor/service"
)

func TestExchangeTrailerCarriesConversationAndCitations(t *testing.T) {
	convID := uuid.New()
	result := &service.SendMessageResult{
		Conversation: &models.Conversation{ID: convID, Title: "Is my lease valid?"},
		UserMessage:  &models.Message{ConversationID: convID, Role: models.MessageRoleUser, Content: "Is my lease valid?"},
		Assistant: &models.Message{
			ConversationID: convID,
			Role:           models.MessageRoleAssistant,
			Content:        "It depends on the notice terms.",
			Citations:      models.Citations{{Title: "Lease Act", Domain: models.DomainProperty}},
		},
	}

	trailer := exchangeTrailer(sendOutcome{result: result})
	require.True(t, strings.HasPrefix(trailer, "\n"), "trailer must start on its own line")

	var decoded service.SendMessageResult
	require.NoError(t, json.Unmarshal([]byte(trailer[1:]), &decoded))
	assert.Equal(t, convID, decoded.Conversation.ID)
	assert.Equal(t, "Lease Act", decoded.Assistant.Citations[0].Title)
}

func TestExchangeTrailerRendersFailureText(t *testing.T) {
	trailer := exchangeTrailer(sendOutcome{err: llm.ErrRateLimited})

	require.True(t, strings.HasPrefix(trailer, "\n"))
	assert.Equal(t, llm.UserMessage(llm.ErrRateLimited), trailer[1:])
}
