package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"adventurebuddha/internal/clients/llm"
	"adventurebuddha/internal/config"
	"adventurebuddha/internal/domain/models"
)

// scriptedLLM answers classification requests with category and fails
// completions for agents listed in failing.
type scriptedLLM struct {
	category string
	failing  map[string]bool
	requests []llm.Request
}

func (f *scriptedLLM) Complete(_ context.Context, req llm.Request) (llm.Response, error) {
	f.requests = append(f.requests, req)
	if strings.HasPrefix(req.System, "Classify") {
		return llm.Response{Content: f.category}, nil
	}
	for key := range f.failing {
		if strings.Contains(req.System, "[agent:"+key+"]") {
			return llm.Response{}, errors.New("upstream error")
		}
	}
	return llm.Response{Content: "answer", TokensUsed: 5}, nil
}

func (f *scriptedLLM) Embed(context.Context, []string) ([][]float32, error) {
	return nil, llm.ErrNotConfigured
}

func testProfiles() []config.AgentProfile {
	out := config.DefaultAgentProfiles()
	for i := range out {
		out[i].SystemPrompt = "[agent:" + out[i].Key + "] " + out[i].SystemPrompt
	}
	return out
}

func TestClassifyMapsAnswerToRegistry(t *testing.T) {
	o := Orchestrator{Profiles: testProfiles(), LLM: &scriptedLLM{category: "  Payment_Policy.\n"}}
	assert.Equal(t, "payment_policy", o.Classify(context.Background(), "refund?"))

	o.LLM = &scriptedLLM{category: "weather"}
	assert.Equal(t, config.FallbackAgent, o.Classify(context.Background(), "rain?"))

	o.LLM = llm.Unconfigured{}
	assert.Equal(t, config.FallbackAgent, o.Classify(context.Background(), "anything"))
}

func TestProcessFallsBackToCustomerCare(t *testing.T) {
	f := &scriptedLLM{category: "trip_guidance", failing: map[string]bool{"trip_guidance": true}}
	o := Orchestrator{Profiles: testProfiles(), LLM: f}

	reply := o.Process(context.Background(), "best trek in june", models.ChatContext{SessionID: "s1"}, nil)
	assert.Equal(t, config.FallbackAgent, reply.AgentType)
	assert.Equal(t, 0.5, reply.Confidence)
	assert.Equal(t, "s1", reply.SessionID)
}

func TestProcessReturnsApologyWhenEverythingFails(t *testing.T) {
	f := &scriptedLLM{category: "faq", failing: map[string]bool{"faq": true, "customer_care": true}}
	o := Orchestrator{Profiles: testProfiles(), LLM: f}

	reply := o.Process(context.Background(), "hello", models.ChatContext{}, nil)
	assert.Equal(t, AgentErrorType, reply.AgentType)
	assert.Zero(t, reply.Confidence)
	assert.Contains(t, reply.Content, "support")
}

func TestProcessSendsOnlyRecentHistory(t *testing.T) {
	f := &scriptedLLM{category: "whatsapp"}
	o := Orchestrator{Profiles: testProfiles(), LLM: f}
	history := []models.ChatTurn{
		{Role: "user", Content: "one"}, {Role: "assistant", Content: "two"},
		{Role: "user", Content: "three"}, {Role: "assistant", Content: "four"},
	}

	reply := o.Process(context.Background(), "five", models.ChatContext{Page: "/trips"}, history)
	assert.Equal(t, "whatsapp", reply.AgentType)
	assert.Equal(t, 0.9, reply.Confidence)

	last := f.requests[len(f.requests)-1]
	assert.Len(t, last.Messages, 4)
	assert.Equal(t, "two", last.Messages[0].Content)
	assert.Contains(t, last.System, "Current page: /trips")
}
