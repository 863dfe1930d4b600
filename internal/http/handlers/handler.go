package handlers

import (
	"database/sql"

	"adventurebuddha/internal/clients/llm"
	"adventurebuddha/internal/clients/whatsapp"
	"adventurebuddha/internal/config"
	"adventurebuddha/internal/events"
	"adventurebuddha/internal/http/middleware"
	"adventurebuddha/internal/knowledge"
	"adventurebuddha/internal/realtime"
	"adventurebuddha/internal/repositories"
	"adventurebuddha/internal/services"

	"github.com/gin-gonic/gin"
)

// Deps is the shared infrastructure every request-scoped service is built
// from. Zero values fall back to the package-level connections and no-op
// implementations.
type Deps struct {
	Env       config.Env
	DB        *sql.DB
	Hub       *realtime.Hub
	Events    events.Publisher
	Holder    services.SeatHolder
	LLM       llm.Client
	Sender    whatsapp.Sender
	Tokens    services.Tokens
	Google    services.GoogleAuth
	Firebase  *services.FirebaseVerifier
	Knowledge *knowledge.Store
	Profiles  []config.AgentProfile
	Queue     services.CampaignQueue
	// TripsChanged runs after admin trip writes.
	TripsChanged func()
}

// Handler serves every API endpoint.
type Handler struct {
	Deps
}

func New(d Deps) *Handler {
	if d.Events == nil {
		d.Events = events.Nop{}
	}
	if d.LLM == nil {
		d.LLM = llm.Unconfigured{}
	}
	if d.Sender == nil {
		d.Sender = &whatsapp.Mock{}
	}
	if d.Profiles == nil {
		d.Profiles = config.DefaultAgentProfiles()
	}
	if d.Hub == nil {
		d.Hub = realtime.NewHub()
	}
	return &Handler{Deps: d}
}

func (h *Handler) notifier() services.Notifier {
	return h.Hub
}

// VerifyAccess adapts the token service to the auth middleware.
func (h *Handler) VerifyAccess(raw string) (int64, string, error) {
	claims, err := h.Tokens.Parse(raw, services.TokenAccess)
	if err != nil {
		return 0, "", err
	}
	return claims.UserID, claims.Role, nil
}

func (h *Handler) auth(c *gin.Context) services.AuthService {
	return services.AuthService{
		Users:     repositories.UserRepository{DB: h.DB},
		Tokens:    h.Tokens,
		Google:    h.Google,
		Firebase:  h.Firebase,
		RequestID: middleware.GetRequestID(c),
	}
}

func (h *Handler) trips(c *gin.Context) services.TripService {
	return services.TripService{
		Trips:     repositories.TripRepository{DB: h.DB},
		Locks:     repositories.SeatLockRepository{DB: h.DB},
		RequestID: middleware.GetRequestID(c),
		OnChange:  h.TripsChanged,
	}
}

func (h *Handler) seats(c *gin.Context) services.SeatService {
	return services.SeatService{
		Locks:     repositories.SeatLockRepository{DB: h.DB},
		Trips:     repositories.TripRepository{DB: h.DB},
		Holder:    h.Holder,
		Notifier:  h.notifier(),
		TTL:       h.Env.SeatLockTTL,
		RequestID: middleware.GetRequestID(c),
	}
}

func (h *Handler) bookings(c *gin.Context) services.BookingService {
	return services.BookingService{
		Bookings:  repositories.BookingRepository{DB: h.DB},
		Locks:     repositories.SeatLockRepository{DB: h.DB},
		Trips:     repositories.TripRepository{DB: h.DB},
		Holder:    h.Holder,
		Notifier:  h.notifier(),
		Events:    h.Events,
		RequestID: middleware.GetRequestID(c),
	}
}

func (h *Handler) docs(c *gin.Context) services.DocsService {
	return services.DocsService{
		Bookings:  repositories.BookingRepository{DB: h.DB},
		Payments:  repositories.PaymentRepository{DB: h.DB},
		Users:     repositories.UserRepository{DB: h.DB},
		RequestID: middleware.GetRequestID(c),
	}
}

func (h *Handler) payments(c *gin.Context) services.PaymentService {
	return services.PaymentService{
		Payments:          repositories.PaymentRepository{DB: h.DB},
		Bookings:          repositories.BookingRepository{DB: h.DB},
		Events:            h.Events,
		RazorpayKeyID:     h.Env.RazorpayKeyID,
		RazorpayKeySecret: h.Env.RazorpayKeySecret,
		UPIVPA:            h.Env.UPIVPA,
		UPIPayeeName:      h.Env.UPIPayeeName,
		UploadDir:         h.Env.UploadDir,
		RequestID:         middleware.GetRequestID(c),
	}
}

func (h *Handler) leads(c *gin.Context) services.LeadService {
	return services.LeadService{
		Leads:     repositories.LeadRepository{DB: h.DB},
		Events:    h.Events,
		RequestID: middleware.GetRequestID(c),
	}
}

func (h *Handler) messaging(c *gin.Context) services.MessagingService {
	return services.MessagingService{
		Templates:     repositories.TemplateRepository{DB: h.DB},
		Contacts:      repositories.ContactRepository{DB: h.DB},
		Campaigns:     repositories.CampaignRepository{DB: h.DB},
		Unsubscribers: repositories.UnsubscriberRepository{DB: h.DB},
		Sender:        h.Sender,
		RequestID:     middleware.GetRequestID(c),
	}
}

// CampaignSender is shared by the HTTP retry path and the campaign worker.
func (h *Handler) CampaignSender() services.CampaignSender {
	return services.CampaignSender{
		Campaigns: repositories.CampaignRepository{DB: h.DB},
		Messages:  repositories.MessageRepository{DB: h.DB},
		Sender:    h.Sender,
		Queue:     h.Queue,
		Events:    h.Events,
	}
}

func (h *Handler) campaigns(c *gin.Context) services.CampaignService {
	return services.CampaignService{
		Campaigns:     repositories.CampaignRepository{DB: h.DB},
		Messages:      repositories.MessageRepository{DB: h.DB},
		Contacts:      repositories.ContactRepository{DB: h.DB},
		Templates:     repositories.TemplateRepository{DB: h.DB},
		Unsubscribers: repositories.UnsubscriberRepository{DB: h.DB},
		Queue:         h.Queue,
		Dispatch:      h.CampaignSender(),
		LLM:           h.LLM,
		UploadDir:     h.Env.UploadDir,
		RequestID:     middleware.GetRequestID(c),
	}
}

func (h *Handler) orchestrator(c *gin.Context) services.Orchestrator {
	return services.Orchestrator{
		Profiles:  h.Profiles,
		LLM:       h.LLM,
		Retriever: knowledge.Retriever{Store: h.Knowledge, Embedder: h.LLM},
		Chats:     repositories.ChatRepository{DB: h.DB},
		RequestID: middleware.GetRequestID(c),
	}
}

func (h *Handler) webhook(c *gin.Context) services.WebhookService {
	return services.WebhookService{
		Contacts:      repositories.ContactRepository{DB: h.DB},
		Messages:      repositories.MessageRepository{DB: h.DB},
		Unsubscribers: repositories.UnsubscriberRepository{DB: h.DB},
		Sender:        h.Sender,
		Replier:       h.orchestrator(c),
		VerifyToken:   h.Env.WhatsAppWebhookToken,
		RequestID:     middleware.GetRequestID(c),
	}
}

func (h *Handler) ai(c *gin.Context) services.AIService {
	return services.AIService{
		AI:        repositories.AIRepository{DB: h.DB},
		LLM:       h.LLM,
		Model:     h.Env.AIModel,
		RequestID: middleware.GetRequestID(c),
	}
}

// Dashboard is shared by the HTTP handlers, websocket snapshots and the
// dashboard workers.
func (h *Handler) Dashboard(requestID string) services.DashboardService {
	return services.DashboardService{
		Dashboard: repositories.DashboardRepository{DB: h.DB},
		Bookings:  repositories.BookingRepository{DB: h.DB},
		RequestID: requestID,
	}
}
