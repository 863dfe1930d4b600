package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adventurebuddha/internal/clients/llm"
	"adventurebuddha/internal/domain"
	"adventurebuddha/internal/domain/models"
	"adventurebuddha/internal/repositories"
)

func TestParseImprovements(t *testing.T) {
	raw := "Redrafted message: Hi Asha, your Spiti trip is confirmed!\n\nImprovements:\n- Friendlier greeting\n* Clearer status\n• Shorter"
	text, improvements := ParseImprovements(raw)
	assert.Equal(t, "Hi Asha, your Spiti trip is confirmed!", text)
	assert.Equal(t, []string{"Friendlier greeting", "Clearer status", "Shorter"}, improvements)

	text, improvements = ParseImprovements("Just the message")
	assert.Equal(t, "Just the message", text)
	assert.Len(t, improvements, 2)
}

func TestParseSentiment(t *testing.T) {
	a := ParseSentiment("Sentiment: Positive\nconfidence: 0.82\npositive: 0.8\nnegative: 0.05\nneutral: 0.15\nkeywords: trek, views\nentities: Ladakh")
	assert.Equal(t, "positive", a.Sentiment)
	assert.InDelta(t, 0.82, a.ConfidenceScore, 1e-9)
	assert.InDelta(t, 0.15, a.NeutralScore, 1e-9)
	assert.Equal(t, []string{"trek", "views"}, a.Keywords)
	assert.Equal(t, []string{"Ladakh"}, a.Entities)

	d := ParseSentiment("no structure here")
	assert.Equal(t, "neutral", d.Sentiment)
	assert.Equal(t, 0.5, d.ConfidenceScore)
	assert.Equal(t, 1.0, d.NeutralScore)
}

func TestValidateAgent(t *testing.T) {
	a := models.AIAgent{Name: "Bot", AgentType: models.AgentChatbot, Temperature: 2.5, SystemPrompt: "x"}
	assert.True(t, domain.IsValidation(validateAgent(&a)))

	a.Temperature = 0.7
	a.MaxTokens = 5000
	assert.True(t, domain.IsValidation(validateAgent(&a)))

	a.MaxTokens = 0
	require.NoError(t, validateAgent(&a))
	assert.Equal(t, 1000, a.MaxTokens)
}

func TestRedraftWithoutLLMIsUnavailable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM ai_agents WHERE name=\? AND agent_type=\?`).WithArgs("Message Redrafter", models.AgentMessageRedrafter).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(`INSERT INTO ai_agents`).WillReturnResult(sqlmock.NewResult(3, 1))

	s := AIService{AI: repositories.AIRepository{DB: db}, LLM: llm.Unconfigured{}}
	_, err = s.Redraft(context.Background(), 1, RedraftInput{Message: "pls pay now"})
	assert.True(t, domain.IsUnavailable(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnhanceTemplateRejectsUnknownType(t *testing.T) {
	_, err := AIService{}.EnhanceTemplate(context.Background(), 1, EnhanceInput{Content: "Hi", EnhancementType: "shout"})
	assert.True(t, domain.IsValidation(err))

	_, err = AIService{}.EnhanceTemplate(context.Background(), 1, EnhanceInput{Content: "Hi", EnhancementType: "custom"})
	assert.True(t, domain.IsValidation(err))
}
