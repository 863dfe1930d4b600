package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"adventurebuddha/internal/clients/llm"
	"adventurebuddha/internal/domain"
	"adventurebuddha/internal/domain/models"
	"adventurebuddha/internal/repositories"
	"adventurebuddha/internal/utils"

	"github.com/google/uuid"
)

const chatHistoryWindow = 10

type defaultAgent struct {
	name, prompt string
	temperature  float64
	maxTokens    int
}

var defaultAgents = map[string]defaultAgent{
	models.AgentChatbot: {"Default Chatbot",
		"You are a helpful assistant for Adventure Buddha, a travel company running group trips across India. Answer clearly and briefly.", 0.7, 1000},
	models.AgentMessageRedrafter: {"Message Redrafter",
		"You rewrite customer messages to be clear, friendly and effective. Return the rewritten message first, then a line starting with 'Improvements:' followed by bullet points.", 0.5, 800},
	models.AgentSentimentAnalyzer: {"Sentiment Analyzer",
		"You analyze the sentiment of messages. Answer with lines 'sentiment: positive|negative|neutral', 'confidence: 0-1', 'positive: 0-1', 'negative: 0-1', 'neutral: 0-1', 'keywords: a, b', 'entities: a, b'.", 0.1, 400},
	models.AgentContentGenerator: {"Content Generator",
		"You write marketing content for Adventure Buddha trips. Match the requested format and length.", 0.8, 1500},
}

// AIService runs the LLM backed operations and records every call.
type AIService struct {
	AI        repositories.AIRepository
	LLM       llm.Client
	Model     string
	RequestID string
	Now       clock
}

func validateAgent(a *models.AIAgent) error {
	a.Name = utils.NormalizeSpace(a.Name)
	if a.Name == "" {
		return domain.ValidationError{Field: "name", Msg: "name is required"}
	}
	if !utils.Contains(models.AIAgentTypes, a.AgentType) {
		return domain.ValidationError{Field: "agent_type", Msg: "invalid agent_type"}
	}
	if a.Temperature < 0 || a.Temperature > 2 {
		return domain.ValidationError{Field: "temperature", Msg: "must be between 0 and 2"}
	}
	if a.MaxTokens == 0 {
		a.MaxTokens = 1000
	}
	if a.MaxTokens < 1 || a.MaxTokens > 4000 {
		return domain.ValidationError{Field: "max_tokens", Msg: "must be between 1 and 4000"}
	}
	if strings.TrimSpace(a.SystemPrompt) == "" {
		return domain.ValidationError{Field: "system_prompt", Msg: "system_prompt is required"}
	}
	return nil
}

func (s AIService) ListAgents() ([]models.AIAgent, error) {
	out, err := s.AI.ListAgents()
	return out, repoErr("ai agent", err)
}

func (s AIService) GetAgent(id int64) (models.AIAgent, error) {
	a, err := s.AI.GetAgent(id)
	return a, repoErr("ai agent", err)
}

func (s AIService) CreateAgent(userID int64, a models.AIAgent) (models.AIAgent, error) {
	if err := validateAgent(&a); err != nil {
		return a, err
	}
	if a.ModelName == "" {
		a.ModelName = s.Model
	}
	a.CreatedBy = &userID
	id, err := s.AI.CreateAgent(a)
	if err != nil {
		return a, repoErr("ai agent", err)
	}
	return s.GetAgent(id)
}

func (s AIService) UpdateAgent(id int64, a models.AIAgent) (models.AIAgent, error) {
	if err := validateAgent(&a); err != nil {
		return a, err
	}
	if a.ModelName == "" {
		a.ModelName = s.Model
	}
	a.ID = id
	if err := s.AI.UpdateAgent(a); err != nil {
		return a, repoErr("ai agent", err)
	}
	return s.GetAgent(id)
}

func (s AIService) DeleteAgent(id int64) error {
	return repoErr("ai agent", s.AI.DeleteAgent(id))
}

// agentFor returns the default agent of a type, creating it on first use.
func (s AIService) agentFor(agentType string) (models.AIAgent, error) {
	d := defaultAgents[agentType]
	a, err := s.AI.FindAgent(d.name, agentType)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return a, repoErr("ai agent", err)
	}
	a = models.AIAgent{
		Name: d.name, AgentType: agentType, Description: "Default " + strings.ReplaceAll(agentType, "_", " "),
		ModelName: s.Model, Temperature: d.temperature, MaxTokens: d.maxTokens, SystemPrompt: d.prompt, IsActive: true,
	}
	a.ID, err = s.AI.CreateAgent(a)
	if err != nil {
		return a, repoErr("ai agent", err)
	}
	return a, nil
}

type callResult struct {
	Content string
	Seconds float64
}

// call runs one completion for agent and writes the processing log.
func (s AIService) call(ctx context.Context, agent models.AIAgent, op string, userID int64, input map[string]any, msgs []llm.Message) (callResult, error) {
	if !llm.Configured(s.LLM) {
		return callResult{}, domain.UnavailableError{Service: "llm", Err: llm.ErrNotConfigured}
	}
	started := time.Now()
	resp, err := s.LLM.Complete(ctx, llm.Request{
		Model:       agent.ModelName,
		System:      agent.SystemPrompt,
		Messages:    msgs,
		Temperature: float32(agent.Temperature),
		MaxTokens:   agent.MaxTokens,
	})
	elapsed := utils.RoundTo(time.Since(started).Seconds(), 3)

	entry := models.AIProcessingLog{
		OperationType:  op,
		InputData:      input,
		ProcessingTime: elapsed,
		Status:         models.OpStatusSuccess,
		UserID:         &userID,
	}
	if agent.ID > 0 {
		entry.AgentID = &agent.ID
	}
	if err != nil {
		entry.Status = models.OpStatusError
		if errors.Is(err, context.DeadlineExceeded) {
			entry.Status = models.OpStatusTimeout
		}
		entry.ErrorMessage = err.Error()
	} else {
		tokens := resp.TokensUsed
		entry.TokensUsed = &tokens
		entry.OutputData = map[string]any{"length": len(resp.Content)}
	}
	if logErr := s.AI.CreateLog(entry); logErr != nil {
		utils.LogEvent(s.RequestID, "ai", "log_failed", logErr.Error())
	}
	if err != nil {
		utils.LogEvent(s.RequestID, "ai", op+"_failed", err.Error())
		return callResult{Seconds: elapsed}, domain.UnavailableError{Service: "llm", Err: err}
	}
	return callResult{Content: strings.TrimSpace(resp.Content), Seconds: elapsed}, nil
}

type AIChatInput struct {
	Message   string         `json:"message"`
	AgentID   *int64         `json:"agent_id"`
	SessionID string         `json:"session_id"`
	Context   map[string]any `json:"context"`
}

type AIChatResult struct {
	Response       string  `json:"response"`
	SessionID      string  `json:"session_id"`
	MessageCount   int     `json:"message_count"`
	ProcessingTime float64 `json:"processing_time"`
}

// Chat continues a stored conversation using its last ten messages.
func (s AIService) Chat(ctx context.Context, userID int64, in AIChatInput) (AIChatResult, error) {
	msg := strings.TrimSpace(in.Message)
	if msg == "" {
		return AIChatResult{}, domain.ValidationError{Field: "message", Msg: "message is required"}
	}
	var agent models.AIAgent
	var err error
	if in.AgentID != nil {
		agent, err = s.GetAgent(*in.AgentID)
	} else {
		agent, err = s.agentFor(models.AgentChatbot)
	}
	if err != nil {
		return AIChatResult{}, err
	}
	if in.SessionID == "" {
		in.SessionID = uuid.NewString()
	}

	conv, err := s.AI.GetConversation(agent.ID, in.SessionID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return AIChatResult{}, repoErr("ai conversation", err)
	}
	conv.AgentID, conv.SessionID, conv.UserID = agent.ID, in.SessionID, &userID
	if in.Context != nil {
		conv.ContextData = in.Context
	}
	if conv.ContextData == nil {
		conv.ContextData = map[string]any{}
	}

	msgs := []llm.Message{}
	for _, m := range conv.LastMessages(chatHistoryWindow) {
		msgs = append(msgs, llm.Message{Role: m.Role, Content: m.Content})
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: msg})

	res, err := s.call(ctx, agent, "chat", userID, map[string]any{"message": utils.Truncate(msg, 200), "session_id": in.SessionID}, msgs)
	if err != nil {
		return AIChatResult{}, err
	}
	now := s.Now.now()
	conv.Messages = append(conv.Messages,
		models.ConversationMessage{Role: llm.RoleUser, Content: msg, Timestamp: now},
		models.ConversationMessage{Role: llm.RoleAssistant, Content: res.Content, Timestamp: now},
	)
	if err := s.AI.SaveConversation(conv); err != nil {
		return AIChatResult{}, repoErr("ai conversation", err)
	}
	return AIChatResult{Response: res.Content, SessionID: in.SessionID, MessageCount: len(conv.Messages), ProcessingTime: res.Seconds}, nil
}

type RedraftInput struct {
	Message   string `json:"message"`
	Context   string `json:"context"`
	Tone      string `json:"tone"`
	MaxLength int    `json:"max_length"`
}

type RedraftResult struct {
	OriginalMessage  string   `json:"original_message"`
	RedraftedMessage string   `json:"redrafted_message"`
	Improvements     []string `json:"improvements"`
	ToneUsed         string   `json:"tone_used"`
	ProcessingTime   float64  `json:"processing_time"`
}

func (s AIService) Redraft(ctx context.Context, userID int64, in RedraftInput) (RedraftResult, error) {
	msg := strings.TrimSpace(in.Message)
	if msg == "" {
		return RedraftResult{}, domain.ValidationError{Field: "message", Msg: "message is required"}
	}
	if in.Tone == "" {
		in.Tone = "professional"
	}
	if in.MaxLength <= 0 {
		in.MaxLength = 500
	}
	agent, err := s.agentFor(models.AgentMessageRedrafter)
	if err != nil {
		return RedraftResult{}, err
	}
	prompt := fmt.Sprintf("Rewrite this message in a %s tone, at most %d characters.\n", in.Tone, in.MaxLength)
	if in.Context != "" {
		prompt += "Context: " + in.Context + "\n"
	}
	prompt += "\nMessage:\n" + msg
	res, err := s.call(ctx, agent, "redraft", userID, map[string]any{"tone": in.Tone, "max_length": in.MaxLength}, []llm.Message{{Role: llm.RoleUser, Content: prompt}})
	if err != nil {
		return RedraftResult{}, err
	}
	text, improvements := ParseImprovements(res.Content)
	return RedraftResult{OriginalMessage: msg, RedraftedMessage: text, Improvements: improvements, ToneUsed: in.Tone, ProcessingTime: res.Seconds}, nil
}

// ParseImprovements splits an LLM rewrite into the message text and the
// bullet list following an "Improvements" or "Changes" line.
func ParseImprovements(raw string) (string, []string) {
	var body []string
	var improvements []string
	inList := false
	for _, line := range strings.Split(raw, "\n") {
		t := strings.TrimSpace(line)
		head := strings.ToLower(strings.TrimLeft(t, "#* "))
		if strings.HasPrefix(head, "improvements") || strings.HasPrefix(head, "changes") {
			inList = true
			continue
		}
		if inList {
			for _, b := range []string{"- ", "* ", "• "} {
				if strings.HasPrefix(t, b) {
					if item := strings.TrimSpace(strings.TrimPrefix(t, b)); item != "" {
						improvements = append(improvements, item)
					}
					break
				}
			}
			continue
		}
		body = append(body, line)
	}
	text := strings.TrimSpace(strings.Join(body, "\n"))
	for _, label := range []string{"redrafted message:", "enhanced content:", "rewritten message:"} {
		if strings.HasPrefix(strings.ToLower(text), label) {
			text = strings.TrimSpace(text[len(label):])
		}
	}
	if text == "" {
		text = strings.TrimSpace(raw)
	}
	if len(improvements) == 0 {
		improvements = []string{"Improved clarity and readability", "Adjusted tone for the audience"}
	}
	return text, improvements
}

type SentimentInput struct {
	Message         string `json:"message"`
	MessageID       string `json:"message_id"`
	IncludeKeywords bool   `json:"include_keywords"`
	IncludeEntities bool   `json:"include_entities"`
}

func (s AIService) AnalyzeSentiment(ctx context.Context, userID int64, in SentimentInput) (models.AISentimentAnalysis, error) {
	msg := strings.TrimSpace(in.Message)
	if msg == "" {
		return models.AISentimentAnalysis{}, domain.ValidationError{Field: "message", Msg: "message is required"}
	}
	agent, err := s.agentFor(models.AgentSentimentAnalyzer)
	if err != nil {
		return models.AISentimentAnalysis{}, err
	}
	res, err := s.call(ctx, agent, "sentiment_analysis", userID, map[string]any{"length": len(msg)},
		[]llm.Message{{Role: llm.RoleUser, Content: "Analyze the sentiment of this message:\n\n" + msg}})
	if err != nil {
		return models.AISentimentAnalysis{}, err
	}
	a := ParseSentiment(res.Content)
	a.MessageContent, a.MessageID, a.AnalyzedBy, a.AnalyzedAt = msg, in.MessageID, &userID, s.Now.now()
	if !in.IncludeKeywords {
		a.Keywords = []string{}
	}
	if !in.IncludeEntities {
		a.Entities = []string{}
	}
	a.ID, err = s.AI.CreateSentiment(a)
	if err != nil {
		return a, repoErr("sentiment analysis", err)
	}
	return a, nil
}

// ParseSentiment reads "key: value" lines with neutral defaults.
func ParseSentiment(raw string) models.AISentimentAnalysis {
	a := models.AISentimentAnalysis{Sentiment: "neutral", ConfidenceScore: 0.5, NeutralScore: 1.0, Keywords: []string{}, Entities: []string{}}
	for _, line := range strings.Split(raw, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.Trim(strings.TrimSpace(key), "-*# "))
		value = strings.TrimSpace(value)
		num := func() (float64, bool) {
			f, err := strconv.ParseFloat(value, 64)
			return f, err == nil
		}
		switch key {
		case "sentiment":
			v := strings.ToLower(value)
			if utils.Contains([]string{"positive", "negative", "neutral"}, v) {
				a.Sentiment = v
			}
		case "confidence", "confidence_score":
			if f, ok := num(); ok {
				a.ConfidenceScore = f
			}
		case "positive", "positive_score":
			if f, ok := num(); ok {
				a.PositiveScore = f
			}
		case "negative", "negative_score":
			if f, ok := num(); ok {
				a.NegativeScore = f
			}
		case "neutral", "neutral_score":
			if f, ok := num(); ok {
				a.NeutralScore = f
			}
		case "keywords":
			a.Keywords = utils.SplitList(value)
		case "entities":
			a.Entities = utils.SplitList(value)
		}
	}
	return a
}

type BulkSentimentItem struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

type BulkSentimentResult struct {
	MessageID  string  `json:"message_id"`
	Sentiment  string  `json:"sentiment"`
	Confidence float64 `json:"confidence_score,omitempty"`
	AnalysisID int64   `json:"analysis_id,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// BulkSentiment analyzes each message on its own; failures are reported per item.
func (s AIService) BulkSentiment(ctx context.Context, userID int64, items []BulkSentimentItem) ([]BulkSentimentResult, error) {
	if len(items) == 0 {
		return nil, domain.ValidationError{Field: "messages", Msg: "messages is required"}
	}
	out := make([]BulkSentimentResult, 0, len(items))
	for _, it := range items {
		a, err := s.AnalyzeSentiment(ctx, userID, SentimentInput{Message: it.Content, MessageID: it.ID, IncludeKeywords: true})
		if err != nil {
			out = append(out, BulkSentimentResult{MessageID: it.ID, Sentiment: "error", Error: err.Error()})
			continue
		}
		out = append(out, BulkSentimentResult{MessageID: it.ID, Sentiment: a.Sentiment, Confidence: a.ConfidenceScore, AnalysisID: a.ID})
	}
	return out, nil
}

type ContentInput struct {
	ContentType string `json:"content_type"`
	Prompt      string `json:"prompt"`
	Context     string `json:"context"`
	MaxLength   int    `json:"max_length"`
}

func (s AIService) GenerateContent(ctx context.Context, userID int64, in ContentInput) (models.AIContentGeneration, error) {
	if !utils.Contains(models.ContentTypes, in.ContentType) {
		return models.AIContentGeneration{}, domain.ValidationError{Field: "content_type", Msg: "invalid content_type"}
	}
	prompt := strings.TrimSpace(in.Prompt)
	if prompt == "" {
		return models.AIContentGeneration{}, domain.ValidationError{Field: "prompt", Msg: "prompt is required"}
	}
	if in.MaxLength <= 0 {
		in.MaxLength = 1000
	}
	agent, err := s.agentFor(models.AgentContentGenerator)
	if err != nil {
		return models.AIContentGeneration{}, err
	}
	req := fmt.Sprintf("Write a %s, at most %d characters.\n%s", strings.ReplaceAll(in.ContentType, "_", " "), in.MaxLength, prompt)
	if in.Context != "" {
		req += "\nContext: " + in.Context
	}
	res, err := s.call(ctx, agent, "content_generation", userID, map[string]any{"content_type": in.ContentType}, []llm.Message{{Role: llm.RoleUser, Content: req}})
	if err != nil {
		return models.AIContentGeneration{}, err
	}
	g := models.AIContentGeneration{ContentType: in.ContentType, Prompt: prompt, GeneratedContent: res.Content, GeneratedBy: userID, GeneratedAt: s.Now.now()}
	g.ID, err = s.AI.CreateContent(g)
	if err != nil {
		return g, repoErr("content generation", err)
	}
	return g, nil
}

var enhancementTypes = map[string]string{
	"improve_clarity":     "Make the message clearer and easier to read.",
	"make_more_engaging":  "Make the message more engaging and exciting.",
	"add_personalization": "Add personalization using the available placeholders.",
	"optimize_length":     "Shorten the message while keeping the key information.",
	"enhance_cta":         "Strengthen the call to action.",
	"custom":              "",
}

type EnhanceInput struct {
	Content            string   `json:"content"`
	Placeholders       []string `json:"placeholders"`
	EnhancementType    string   `json:"enhancement_type"`
	CustomInstructions string   `json:"custom_instructions"`
}

type EnhanceResult struct {
	OriginalContent string   `json:"original_content"`
	EnhancedContent string   `json:"enhanced_content"`
	Improvements    []string `json:"improvements"`
	EnhancementType string   `json:"enhancement_type"`
	ProcessingTime  float64  `json:"processing_time"`
}

func (s AIService) EnhanceTemplate(ctx context.Context, userID int64, in EnhanceInput) (EnhanceResult, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return EnhanceResult{}, domain.ValidationError{Field: "content", Msg: "content is required"}
	}
	if in.EnhancementType == "" {
		in.EnhancementType = "improve_clarity"
	}
	instruction, ok := enhancementTypes[in.EnhancementType]
	if !ok {
		return EnhanceResult{}, domain.ValidationError{Field: "enhancement_type", Msg: "invalid enhancement_type"}
	}
	if in.EnhancementType == "custom" {
		instruction = strings.TrimSpace(in.CustomInstructions)
		if instruction == "" {
			return EnhanceResult{}, domain.ValidationError{Field: "custom_instructions", Msg: "custom_instructions is required"}
		}
	}
	agent, err := s.agentFor(models.AgentMessageRedrafter)
	if err != nil {
		return EnhanceResult{}, err
	}
	prompt := instruction + "\nKeep these placeholders unchanged: " + strings.Join(in.Placeholders, ", ") + "\n\nTemplate:\n" + content
	res, err := s.call(ctx, agent, "template_enhancement", userID, map[string]any{"enhancement_type": in.EnhancementType}, []llm.Message{{Role: llm.RoleUser, Content: prompt}})
	if err != nil {
		return EnhanceResult{}, err
	}
	text, improvements := ParseImprovements(res.Content)
	return EnhanceResult{OriginalContent: content, EnhancedContent: text, Improvements: improvements, EnhancementType: in.EnhancementType, ProcessingTime: res.Seconds}, nil
}

func (s AIService) Conversations(userID *int64) ([]models.AIConversation, error) {
	out, err := s.AI.ListConversations(userID)
	return out, repoErr("ai conversation", err)
}

func (s AIService) Sentiments(userID *int64) ([]models.AISentimentAnalysis, error) {
	out, err := s.AI.ListSentiments(userID)
	return out, repoErr("sentiment analysis", err)
}

func (s AIService) Contents(userID int64) ([]models.AIContentGeneration, error) {
	out, err := s.AI.ListContent(userID)
	return out, repoErr("content generation", err)
}

func (s AIService) MarkContentUsed(userID, id int64) (models.AIContentGeneration, error) {
	if _, err := s.AI.GetContent(id, userID); err != nil {
		return models.AIContentGeneration{}, repoErr("content generation", err)
	}
	if err := s.AI.MarkContentUsed(id); err != nil {
		return models.AIContentGeneration{}, repoErr("content generation", err)
	}
	g, err := s.AI.GetContent(id, userID)
	return g, repoErr("content generation", err)
}

func (s AIService) Logs(limit int) ([]models.AIProcessingLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	out, err := s.AI.ListLogs(limit)
	return out, repoErr("processing log", err)
}

func (s AIService) Stats() (models.AIStats, error) {
	st, err := s.AI.Stats()
	return st, repoErr("processing log", err)
}
