package models

import "time"

const (
	ContactPending         = "pending"
	ContactValid           = "valid"
	ContactInvalid         = "invalid"
	ContactWhatsAppValid   = "whatsapp_valid"
	ContactWhatsAppInvalid = "whatsapp_invalid"

	CampaignDraft     = "draft"
	CampaignScheduled = "scheduled"
	CampaignRunning   = "running"
	CampaignPaused    = "paused"
	CampaignCompleted = "completed"
	CampaignCancelled = "cancelled"

	CampaignStandard     = "standard"
	CampaignPersonalized = "personalized"
	CampaignAutomated    = "automated"

	MessageQueued    = "queued"
	MessageSending   = "sending"
	MessageSent      = "sent"
	MessageDelivered = "delivered"
	MessageRead      = "read"
	MessageFailed    = "failed"

	DefaultMessageDelay = 30
	DefaultBatchSize    = 10
	DefaultMaxRetries   = 3
	HistoryLimit        = 5
)

var ReportTypes = []string{"summary", "detailed", "failed"}

type MessageTemplate struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	IsActive  bool      `json:"is_active"`
	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ContactList struct {
	ID               int64             `json:"id"`
	Name             string            `json:"name"`
	FileName         string            `json:"file_name"`
	ColumnMapping    map[string]string `json:"column_mapping"`
	TotalContacts    int               `json:"total_contacts"`
	ValidContacts    int               `json:"valid_contacts"`
	InvalidContacts  int               `json:"invalid_contacts"`
	WhatsAppContacts int               `json:"whatsapp_contacts"`
	UploadedBy       int64             `json:"uploaded_by"`
	ProcessedAt      *time.Time        `json:"processed_at,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

type ConversationEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Intent    string    `json:"intent"`
	Reply     string    `json:"reply,omitempty"`
}

type Contact struct {
	ID                  int64               `json:"id"`
	ContactListID       *int64              `json:"contact_list_id,omitempty"`
	Name                string              `json:"name"`
	PhoneNumber         string              `json:"phone_number"`
	Email               string              `json:"email"`
	Status              string              `json:"status"`
	WhatsAppStatus      bool                `json:"whatsapp_status"`
	CustomFields        map[string]string   `json:"custom_fields"`
	ConversationHistory []ConversationEntry `json:"conversation_history"`
	LastInteractionAt   *time.Time          `json:"last_interaction_at,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
}

// AppendHistory records an entry keeping only the newest HistoryLimit.
func (c *Contact) AppendHistory(e ConversationEntry) {
	c.ConversationHistory = append(c.ConversationHistory, e)
	if n := len(c.ConversationHistory); n > HistoryLimit {
		c.ConversationHistory = c.ConversationHistory[n-HistoryLimit:]
	}
}

type MessageCampaign struct {
	ID                   int64             `json:"id"`
	Name                 string            `json:"name"`
	TemplateID           *int64            `json:"template_id,omitempty"`
	MessageContent       string            `json:"message_content"`
	AttachmentURL        string            `json:"attachment_url"`
	ContactListID        int64             `json:"contact_list_id"`
	Status               string            `json:"status"`
	CampaignType         string            `json:"campaign_type"`
	PersonalizationRules map[string]string `json:"personalization_rules"`
	DelayBetweenMessages int               `json:"delay_between_messages"`
	BatchSize            int               `json:"batch_size"`
	TotalMessages        int               `json:"total_messages"`
	SentMessages         int               `json:"sent_messages"`
	DeliveredMessages    int               `json:"delivered_messages"`
	FailedMessages       int               `json:"failed_messages"`
	PendingMessages      int               `json:"pending_messages"`
	CurrentBatch         int               `json:"current_batch"`
	LastMessageSentAt    *time.Time        `json:"last_message_sent_at,omitempty"`
	ScheduledAt          *time.Time        `json:"scheduled_at,omitempty"`
	StartedAt            *time.Time        `json:"started_at,omitempty"`
	CompletedAt          *time.Time        `json:"completed_at,omitempty"`
	CreatedBy            int64             `json:"created_by"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

func (c MessageCampaign) Progress() float64 {
	if c.TotalMessages == 0 {
		return 0
	}
	return float64(c.SentMessages) / float64(c.TotalMessages) * 100
}

func (c MessageCampaign) CanPause() bool {
	return c.Status == CampaignRunning || c.Status == CampaignScheduled
}

func (c MessageCampaign) CanResume() bool {
	return c.Status == CampaignPaused
}

func (c MessageCampaign) CanCancel() bool {
	switch c.Status {
	case CampaignDraft, CampaignScheduled, CampaignRunning, CampaignPaused:
		return true
	}
	return false
}

func (c MessageCampaign) CanStart() bool {
	return c.Status == CampaignDraft || c.Status == CampaignScheduled
}

// Sendable reports whether the sender worker may work on the campaign.
func (c MessageCampaign) Sendable() bool {
	return c.Status == CampaignRunning || c.Status == CampaignScheduled
}

// CampaignView adds the derived fields to API responses.
type CampaignView struct {
	MessageCampaign
	ProgressPercentage float64 `json:"progress_percentage"`
	CanPause           bool    `json:"can_pause"`
	CanResume          bool    `json:"can_resume"`
	CanCancel          bool    `json:"can_cancel"`
}

func (c MessageCampaign) View() CampaignView {
	return CampaignView{
		MessageCampaign:    c,
		ProgressPercentage: c.Progress(),
		CanPause:           c.CanPause(),
		CanResume:          c.CanResume(),
		CanCancel:          c.CanCancel(),
	}
}

type Message struct {
	ID                int64      `json:"id"`
	CampaignID        int64      `json:"campaign_id"`
	ContactID         int64      `json:"contact_id"`
	Content           string     `json:"content"`
	AttachmentURL     string     `json:"attachment_url"`
	Status            string     `json:"status"`
	ProviderMessageID string     `json:"provider_message_id"`
	ErrorMessage      string     `json:"error_message"`
	RetryCount        int        `json:"retry_count"`
	MaxRetries        int        `json:"max_retries"`
	SentAt            *time.Time `json:"sent_at,omitempty"`
	DeliveredAt       *time.Time `json:"delivered_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`

	PhoneNumber string `json:"phone_number,omitempty"`
	ContactName string `json:"contact_name,omitempty"`
}

func (m Message) CanRetry() bool {
	return m.Status == MessageFailed && m.RetryCount < m.MaxRetries
}

type MessageLog struct {
	ID        int64          `json:"id"`
	MessageID int64          `json:"message_id"`
	Event     string         `json:"event"`
	Details   map[string]any `json:"details"`
	CreatedAt time.Time      `json:"created_at"`
}

type CampaignReport struct {
	ID          int64     `json:"id"`
	CampaignID  int64     `json:"campaign_id"`
	ReportType  string    `json:"report_type"`
	FilePath    string    `json:"file_path"`
	GeneratedBy int64     `json:"generated_by"`
	CreatedAt   time.Time `json:"created_at"`
}

type Unsubscriber struct {
	ID          int64     `json:"id"`
	PhoneNumber string    `json:"phone_number"`
	Reason      string    `json:"reason"`
	CreatedAt   time.Time `json:"created_at"`
}

type IncomingMessage struct {
	ID                int64      `json:"id"`
	ContactID         int64      `json:"contact_id"`
	ProviderMessageID string     `json:"provider_message_id"`
	MessageType       string     `json:"message_type"`
	Body              string     `json:"body"`
	Intent            string     `json:"intent"`
	Reply             string     `json:"reply"`
	ProcessedAt       *time.Time `json:"processed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

type MessagingStats struct {
	TotalCampaigns      int     `json:"total_campaigns"`
	ActiveCampaigns     int     `json:"active_campaigns"`
	CompletedCampaigns  int     `json:"completed_campaigns"`
	TotalMessagesSent   int     `json:"total_messages_sent"`
	TotalMessagesFailed int     `json:"total_messages_failed"`
	SuccessRate         float64 `json:"success_rate"`
}

// PhoneCheck is the per-number result of a validation request.
type PhoneCheck struct {
	Number         string `json:"number"`
	IsValid        bool   `json:"is_valid"`
	IsWhatsAppUser bool   `json:"is_whatsapp_user"`
	CountryCode    string `json:"country_code"`
}
