package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"adventurebuddha/internal/clients/llm"
	"adventurebuddha/internal/config"
	"adventurebuddha/internal/domain"
	"adventurebuddha/internal/domain/models"
	"adventurebuddha/internal/knowledge"
	"adventurebuddha/internal/repositories"
	"adventurebuddha/internal/utils"

	"github.com/google/uuid"
)

const (
	confidencePrimary  = 0.9
	confidenceFallback = 0.5
	historyTurns       = 3
)

// AgentErrorType marks the canned reply produced when no agent could answer.
const AgentErrorType = "error"

var apologyReply = "I'm sorry, I'm having trouble answering right now. Please reach our support team on WhatsApp +91-9876543210 (24/7) or email support@adventurebuddha.com."

// Orchestrator routes a chat query to one of the registered agents.
type Orchestrator struct {
	Profiles  []config.AgentProfile
	LLM       llm.Client
	Retriever knowledge.Retriever
	Chats     repositories.ChatRepository
	RequestID string
	Now       clock
}

func (o Orchestrator) profile(key string) (config.AgentProfile, bool) {
	for _, p := range o.Profiles {
		if p.Key == key {
			return p, true
		}
	}
	return config.AgentProfile{}, false
}

func (o Orchestrator) Registry() []string {
	out := make([]string, 0, len(o.Profiles))
	for _, p := range o.Profiles {
		out = append(out, p.Key)
	}
	return out
}

// Classify asks the LLM for the best agent key. Anything it cannot map falls
// back to the customer care agent.
func (o Orchestrator) Classify(ctx context.Context, query string) string {
	if !llm.Configured(o.LLM) {
		return config.FallbackAgent
	}
	var b strings.Builder
	b.WriteString("Classify the traveller message into exactly one category. Reply with the category name only.\nCategories:\n")
	for _, p := range o.Profiles {
		fmt.Fprintf(&b, "- %s: %s\n", p.Key, p.Description)
	}
	resp, err := o.LLM.Complete(ctx, llm.Request{
		System:      b.String(),
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: query}},
		Temperature: 0,
		MaxTokens:   20,
	})
	if err != nil {
		utils.LogEvent(o.RequestID, "agents", "classify_failed", err.Error())
		return config.FallbackAgent
	}
	key := strings.ToLower(strings.TrimSpace(resp.Content))
	key = strings.Trim(key, ".\"' ")
	if _, ok := o.profile(key); ok {
		return key
	}
	return config.FallbackAgent
}

// Process answers query with the classified agent, retrying once with the
// customer care agent. When both fail the canned apology is returned.
func (o Orchestrator) Process(ctx context.Context, query string, chatCtx models.ChatContext, history []models.ChatTurn) models.AgentReply {
	reply := models.AgentReply{SessionID: chatCtx.SessionID, Timestamp: o.Now.now()}
	agent := o.Classify(ctx, query)

	content, err := o.run(ctx, agent, query, chatCtx, history)
	if err == nil {
		reply.Content, reply.AgentType, reply.Confidence = content, agent, confidencePrimary
		return reply
	}
	utils.LogEvent(o.RequestID, "agents", "agent_failed", agent+": "+err.Error())

	if agent != config.FallbackAgent {
		content, err = o.run(ctx, config.FallbackAgent, query, chatCtx, history)
		if err == nil {
			reply.Content, reply.AgentType, reply.Confidence = content, config.FallbackAgent, confidenceFallback
			return reply
		}
	}
	reply.Content, reply.AgentType, reply.Confidence = apologyReply, AgentErrorType, 0
	return reply
}

func (o Orchestrator) run(ctx context.Context, key, query string, chatCtx models.ChatContext, history []models.ChatTurn) (string, error) {
	if !llm.Configured(o.LLM) {
		return "", llm.ErrNotConfigured
	}
	p, ok := o.profile(key)
	if !ok {
		return "", fmt.Errorf("unknown agent %q", key)
	}

	system := p.SystemPrompt
	var extra []string
	if chatCtx.Page != "" {
		extra = append(extra, "Current page: "+chatCtx.Page)
	}
	if chatCtx.BookingID != "" {
		extra = append(extra, "Booking ID: "+chatCtx.BookingID)
	}
	if chatCtx.TripID != "" {
		extra = append(extra, "Trip ID: "+chatCtx.TripID)
	}
	if p.Knowledge != "" {
		k := p.TopK
		if k <= 0 {
			k = 2
		}
		found, err := o.Retriever.Search(ctx, p.Knowledge, query, k)
		if err != nil {
			utils.LogEvent(o.RequestID, "agents", "retrieve_failed", err.Error())
		} else if text := knowledge.Context(found); text != "" {
			extra = append(extra, "Relevant information:\n"+text)
		}
	}
	if len(extra) > 0 {
		system += "\n\n" + strings.Join(extra, "\n")
	}

	msgs := make([]llm.Message, 0, historyTurns+1)
	if len(history) > historyTurns {
		history = history[len(history)-historyTurns:]
	}
	for _, h := range history {
		role := llm.RoleUser
		if h.Role == llm.RoleAssistant || h.Role == "agent" {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: h.Content})
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: query})

	resp, err := o.LLM.Complete(ctx, llm.Request{
		System:      system,
		Messages:    msgs,
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Content) == "" {
		return "", fmt.Errorf("empty response from agent %s", key)
	}
	return strings.TrimSpace(resp.Content), nil
}

type AgentChatInput struct {
	Query               string             `json:"query"`
	Context             models.ChatContext `json:"context"`
	ConversationHistory []models.ChatTurn  `json:"conversationHistory"`
}

// Chat answers a web chat message and stores the exchange.
func (o Orchestrator) Chat(ctx context.Context, userID *int64, in AgentChatInput) (models.AgentReply, error) {
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return models.AgentReply{}, domain.ValidationError{Field: "query", Msg: "query is required"}
	}
	if in.Context.SessionID == "" {
		in.Context.SessionID = uuid.NewString()
	}
	started := time.Now()
	reply := o.Process(ctx, query, in.Context, in.ConversationHistory)
	elapsed := time.Since(started).Seconds()

	sessionRow, err := o.Chats.EnsureSession(in.Context.SessionID, userID, map[string]any{
		"page": in.Context.Page, "tripId": in.Context.TripID, "bookingId": in.Context.BookingID,
	})
	if err == nil {
		err = o.Chats.AddExchange(sessionRow,
			repositories.ChatMessage{MessageType: "user", Content: query},
			repositories.ChatMessage{MessageType: "agent", Content: reply.Content, AgentType: reply.AgentType, Confidence: reply.Confidence, ResponseSeconds: elapsed},
		)
	}
	if err != nil {
		utils.LogEvent(o.RequestID, "agents", "store_chat_failed", err.Error())
	}
	utils.LogEvent(o.RequestID, "agents", "chat", fmt.Sprintf("agent=%s confidence=%.1f", reply.AgentType, reply.Confidence))
	return reply, nil
}

// KnowledgeIndexer keeps the retrieval store in sync with the catalog.
type KnowledgeIndexer struct {
	Store    *knowledge.Store
	Trips    repositories.TripRepository
	Embedder knowledge.Embedder
}

func (k KnowledgeIndexer) embed(ctx context.Context, chunks []knowledge.Chunk) {
	if k.Embedder == nil || len(chunks) == 0 {
		return
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Title + "\n" + c.Text
	}
	vecs, err := k.Embedder.Embed(ctx, texts)
	if err != nil || len(vecs) != len(chunks) {
		return
	}
	for i := range chunks {
		chunks[i].Embedding = vecs[i]
	}
}

// RebuildTrips replaces the trip chunks with the published catalog.
func (k KnowledgeIndexer) RebuildTrips(ctx context.Context) error {
	if k.Store == nil {
		return nil
	}
	trips, err := k.Trips.List(models.TripFilter{}, true)
	if err != nil {
		return err
	}
	chunks := knowledge.TripChunks(trips)
	k.embed(ctx, chunks)
	if err := k.Store.ReplaceSource(knowledge.SourceTrip, chunks); err != nil {
		return err
	}
	utils.LogEvent(utils.WorkerTag("knowledge"), "agents", "rebuild_trips", fmt.Sprintf("chunks=%d", len(chunks)))
	return nil
}

// SeedFAQ stores the static FAQ text unless it is already present.
func (k KnowledgeIndexer) SeedFAQ(ctx context.Context) error {
	if k.Store == nil {
		return nil
	}
	ok, err := k.Store.HasSource(knowledge.SourceFAQ)
	if err != nil || ok {
		return err
	}
	chunks := knowledge.FAQChunks()
	k.embed(ctx, chunks)
	return k.Store.ReplaceSource(knowledge.SourceFAQ, chunks)
}
