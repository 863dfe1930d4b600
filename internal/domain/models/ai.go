package models

import "time"

const (
	AgentMessageRedrafter  = "message_redrafter"
	AgentReplyAnalyzer     = "reply_analyzer"
	AgentChatbot           = "chatbot"
	AgentContentGenerator  = "content_generator"
	AgentSentimentAnalyzer = "sentiment_analyzer"

	OpStatusSuccess     = "success"
	OpStatusError       = "error"
	OpStatusTimeout     = "timeout"
	OpStatusRateLimited = "rate_limited"
)

var (
	AIAgentTypes = []string{AgentMessageRedrafter, AgentReplyAnalyzer, AgentChatbot, AgentContentGenerator, AgentSentimentAnalyzer}
	ContentTypes = []string{"message", "email", "social_post", "ad_copy", "blog_post", "description"}
)

type AIAgent struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	AgentType    string    `json:"agent_type"`
	Description  string    `json:"description"`
	ModelName    string    `json:"model_name"`
	Temperature  float64   `json:"temperature"`
	MaxTokens    int       `json:"max_tokens"`
	SystemPrompt string    `json:"system_prompt"`
	IsActive     bool      `json:"is_active"`
	CreatedBy    *int64    `json:"created_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type ConversationMessage struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type AIConversation struct {
	ID            int64                 `json:"id"`
	AgentID       int64                 `json:"agent_id"`
	UserID        *int64                `json:"user_id,omitempty"`
	SessionID     string                `json:"session_id"`
	ContextData   map[string]any        `json:"context_data"`
	Messages      []ConversationMessage `json:"messages"`
	MessageCount  int                   `json:"message_count"`
	LastMessageAt time.Time             `json:"last_message_at"`
	CreatedAt     time.Time             `json:"created_at"`
}

// LastMessages returns at most n of the newest messages.
func (c AIConversation) LastMessages(n int) []ConversationMessage {
	if len(c.Messages) <= n {
		return c.Messages
	}
	return c.Messages[len(c.Messages)-n:]
}

type AISentimentAnalysis struct {
	ID              int64     `json:"id"`
	MessageContent  string    `json:"message_content"`
	MessageID       string    `json:"message_id"`
	Sentiment       string    `json:"sentiment"`
	ConfidenceScore float64   `json:"confidence_score"`
	PositiveScore   float64   `json:"positive_score"`
	NegativeScore   float64   `json:"negative_score"`
	NeutralScore    float64   `json:"neutral_score"`
	Keywords        []string  `json:"keywords"`
	Entities        []string  `json:"entities"`
	AnalyzedBy      *int64    `json:"analyzed_by,omitempty"`
	AnalyzedAt      time.Time `json:"analyzed_at"`
}

type AIContentGeneration struct {
	ID               int64     `json:"id"`
	ContentType      string    `json:"content_type"`
	Prompt           string    `json:"prompt"`
	GeneratedContent string    `json:"generated_content"`
	QualityScore     *float64  `json:"quality_score,omitempty"`
	IsUsed           bool      `json:"is_used"`
	UsageCount       int       `json:"usage_count"`
	GeneratedBy      int64     `json:"generated_by"`
	GeneratedAt      time.Time `json:"generated_at"`
}

type AIProcessingLog struct {
	ID             int64          `json:"id"`
	AgentID        *int64         `json:"agent_id,omitempty"`
	OperationType  string         `json:"operation_type"`
	InputData      map[string]any `json:"input_data"`
	OutputData     map[string]any `json:"output_data"`
	ProcessingTime float64        `json:"processing_time"`
	TokensUsed     *int           `json:"tokens_used,omitempty"`
	Status         string         `json:"status"`
	ErrorMessage   string         `json:"error_message"`
	UserID         *int64         `json:"user_id,omitempty"`
	ProcessedAt    time.Time      `json:"processed_at"`
}

type OperationCount struct {
	OperationType string `json:"operation_type"`
	Status        string `json:"status"`
	Count         int    `json:"count"`
}

type AIStats struct {
	Operations            []OperationCount `json:"operations"`
	TotalOperations       int              `json:"total_operations"`
	AverageProcessingTime float64          `json:"average_processing_time"`
	TotalTokensUsed       int              `json:"total_tokens_used"`
	ConversationCount     int              `json:"conversation_count"`
}

// ChatTurn is one entry of a client supplied conversation history.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatContext is the page context sent by the web chat widget.
type ChatContext struct {
	Page      string `json:"page,omitempty"`
	BookingID string `json:"bookingId,omitempty"`
	TripID    string `json:"tripId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

type AgentReply struct {
	Content    string    `json:"content"`
	AgentType  string    `json:"agentType"`
	SessionID  string    `json:"sessionId"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}
