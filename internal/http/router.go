package api

import (
	"log"
	stdhttp "net/http"

	"adventurebuddha/internal/config"
	"adventurebuddha/internal/domain"
	h "adventurebuddha/internal/http/handlers"
	"adventurebuddha/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

func NewRouter(hd *h.Handler, env config.Env) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.CORSAllowedOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	auth := middleware.RequireAuth(hd.VerifyAccess)
	optional := middleware.AuthOptional(hd.VerifyAccess)
	admin := middleware.RequireRoles(domain.RoleAdmin)

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", hd.DBCheck)
		api.GET("/routes", h.Routes)

		mountAuth(api.Group("/auth"), hd, auth)
		mountTrips(api.Group("/trips"), hd, auth, admin)
		mountBookings(api.Group("/bookings", auth), hd)
		mountPayments(api.Group("/payments", auth), hd, admin)
		mountLeads(api.Group("/leads"), hd, auth)
		mountMessaging(api.Group("/messaging"), hd, auth)
		mountAI(api.Group("/ai", auth), hd, admin)

		agents := api.Group("/agents", optional)
		agents.POST("/chat/", hd.AgentChat)
		agents.POST("/discovery/query/", hd.AgentChat)
		agents.POST("/chat/message/", hd.AgentChat)
		agents.GET("/registry", hd.AgentRegistry)

		adminDash := api.Group("/admin", auth, admin)
		adminDash.GET("/overview", hd.AdminOverview)
		adminDash.GET("/recent-bookings", hd.AdminRecentBookings)
		adminDash.GET("/trip-performance", hd.AdminTripPerformance)
		adminDash.GET("/agent-status", hd.AdminAgentStatus)
		api.GET("/activities", auth, admin, hd.Activities)

		user := api.Group("/user", auth)
		user.GET("/overview", hd.UserOverview)
		user.GET("/bookings", hd.UserBookings)
		user.GET("/travel-insights", hd.TravelInsights)
	}

	ws := r.Group("/ws")
	ws.GET("/dashboard", hd.DashboardSocket)
	ws.GET("/notifications", hd.NotificationsSocket)
	ws.GET("/seats/:slot_id", hd.SeatSocket)

	h.SetRouter(r)
	return r
}

func mountAuth(g *gin.RouterGroup, hd *h.Handler, auth gin.HandlerFunc) {
	g.POST("/register", hd.Register)
	g.POST("/login", hd.Login)
	g.POST("/token", hd.ObtainToken)
	g.POST("/token/refresh", hd.RefreshToken)
	g.POST("/social/google", hd.GoogleLogin)
	g.POST("/firebase", hd.FirebaseLogin)
	g.GET("/me", auth, hd.Me)
}

func mountTrips(g *gin.RouterGroup, hd *h.Handler, auth, admin gin.HandlerFunc) {
	g.GET("", hd.ListTrips)
	g.GET("/featured", hd.FeaturedTrips)
	g.GET("/popular", hd.PopularTrips)
	g.GET("/slots/:id", hd.GetSlot)
	g.GET("/slots/:id/seatmap", hd.GetSeatMap)
	g.GET("/:slug", hd.GetTrip)
	g.GET("/:slug/availability", hd.TripAvailability)

	g.POST("", auth, admin, hd.CreateTrip)
	g.PUT("/:id", auth, admin, hd.UpdateTrip)
	g.DELETE("/:id", auth, admin, hd.DeleteTrip)
	g.POST("/:id/slots", auth, admin, hd.CreateSlot)
	g.PUT("/slots/:id/seatmap", auth, admin, hd.PutSeatMap)
}

func mountBookings(g *gin.RouterGroup, hd *h.Handler) {
	g.POST("/lock_seats", hd.LockSeats)
	g.POST("/unlock_seats", hd.UnlockSeats)
	g.POST("/create_booking", hd.CreateBooking)
	g.GET("", hd.ListBookings)
	g.GET("/:id", hd.GetBooking)
	g.POST("/:id/cancel", hd.CancelBooking)
	g.POST("/:id/rate", hd.RateBooking)
	g.GET("/:id/invoice", hd.BookingInvoice)
	g.GET("/:id/eticket", hd.BookingETicket)
}

func mountPayments(g *gin.RouterGroup, hd *h.Handler, admin gin.HandlerFunc) {
	g.POST("/razorpay/create-order", hd.CreateRazorpayOrder)
	g.POST("/razorpay/verify", hd.VerifyRazorpay)
	g.POST("/upiqr", hd.UPIQR)
	g.POST("/manual-upload", hd.ManualUpload)
	g.POST("/manual/:id/verify", admin, hd.VerifyManualPayment)
}

func mountLeads(g *gin.RouterGroup, hd *h.Handler, auth gin.HandlerFunc) {
	g.POST("", hd.CaptureLead)

	g.GET("", auth, hd.ListLeads)
	g.GET("/stats", auth, hd.LeadStats)
	g.GET("/recent", auth, hd.RecentLeads)
	g.GET("/:id", auth, hd.GetLead)
	g.POST("/:id/update_status", auth, hd.UpdateLeadStatus)
	g.POST("/:id/add_note", auth, hd.AddLeadNote)
}

func mountMessaging(g *gin.RouterGroup, hd *h.Handler, auth gin.HandlerFunc) {
	// provider callbacks are public
	g.GET("/webhook/whatsapp", hd.VerifyWebhook)
	g.POST("/webhook/whatsapp", hd.ReceiveWebhook)

	m := g.Group("", auth)

	tpl := m.Group("/message-templates")
	tpl.GET("", hd.ListTemplates)
	tpl.POST("", hd.CreateTemplate)
	tpl.GET("/:id", hd.GetTemplate)
	tpl.PUT("/:id", hd.UpdateTemplate)
	tpl.PATCH("/:id", hd.UpdateTemplate)
	tpl.DELETE("/:id", hd.DeleteTemplate)
	tpl.POST("/:id/duplicate", hd.DuplicateTemplate)

	lists := m.Group("/contact-lists")
	lists.GET("", hd.ListContactLists)
	lists.POST("", hd.UploadContactList)
	lists.GET("/:id", hd.GetContactList)
	lists.DELETE("/:id", hd.DeleteContactList)
	lists.GET("/:id/contacts", hd.ContactListContacts)
	m.POST("/upload-contacts", hd.UploadContactList)

	contacts := m.Group("/contacts")
	contacts.GET("", hd.ListContacts)
	contacts.POST("/validate_numbers", hd.ValidateNumbers)
	contacts.GET("/:id", hd.GetContact)
	contacts.PUT("/:id", hd.UpdateContact)
	contacts.PATCH("/:id", hd.UpdateContact)
	contacts.DELETE("/:id", hd.DeleteContact)
	m.POST("/validate-phone", hd.ValidatePhone)

	camp := m.Group("/message-campaigns")
	camp.GET("", hd.ListCampaigns)
	camp.POST("", hd.CreateCampaign)
	camp.GET("/:id", hd.GetCampaign)
	camp.DELETE("/:id", hd.DeleteCampaign)
	camp.POST("/:id/start", hd.StartCampaign)
	camp.POST("/:id/perform_action", hd.CampaignAction)
	camp.POST("/:id/generate_report", hd.GenerateCampaignReport)
	camp.GET("/:id/messages", hd.CampaignMessages)
	m.GET("/campaign/:id/messages", hd.CampaignMessages)
	m.POST("/create-campaign-send", hd.CreateCampaignAndSend)

	msgs := m.Group("/messages")
	msgs.GET("", hd.ListMessages)
	msgs.GET("/:id", hd.GetMessage)
	msgs.POST("/:id/retry", hd.RetryMessage)
	m.GET("/message/:id/status", hd.ProviderMessageStatus)
	m.GET("/message-logs", hd.ListMessageLogs)

	reports := m.Group("/campaign-reports")
	reports.GET("", hd.ListCampaignReports)
	reports.GET("/:id", hd.GetCampaignReport)
	reports.GET("/:id/download", hd.DownloadCampaignReport)

	m.POST("/bulk-message", hd.BulkMessage)
	m.POST("/send-bulk", hd.BulkMessage)
	m.POST("/send-message", hd.SendMessage)
	m.GET("/stats", hd.MessagingStats)
	m.GET("/account/balance", hd.AccountBalance)
	m.GET("/unsubscribers", hd.ListUnsubscribers)
	m.POST("/unsubscribers", hd.AddUnsubscriber)

	m.GET("/automated-responses", hd.AutomatedResponses)
	m.POST("/personalized-campaign", hd.PersonalizedCampaign)
	m.GET("/ai-insights", hd.MessagingAIInsights)
}

func mountAI(g *gin.RouterGroup, hd *h.Handler, admin gin.HandlerFunc) {
	agents := g.Group("/agents")
	agents.GET("", hd.ListAIAgents)
	agents.GET("/:id", hd.GetAIAgent)
	agents.POST("", admin, hd.CreateAIAgent)
	agents.PUT("/:id", admin, hd.UpdateAIAgent)
	agents.DELETE("/:id", admin, hd.DeleteAIAgent)

	g.GET("/conversations", hd.ListAIConversations)
	g.GET("/sentiment-analysis", hd.ListSentimentAnalyses)
	g.GET("/content-generation", hd.ListContentGenerations)
	g.POST("/content-generation/:id/mark_used", hd.MarkContentUsed)
	g.GET("/processing-logs", admin, hd.ListProcessingLogs)

	g.POST("/chat/", hd.AIChat)
	g.POST("/redraft-message/", hd.RedraftMessage)
	g.POST("/analyze-sentiment/", hd.AnalyzeSentiment)
	g.POST("/generate-content/", hd.GenerateContent)
	g.POST("/bulk-sentiment-analysis/", hd.BulkSentiment)
	g.POST("/templates/enhance", hd.EnhanceTemplate)
	g.GET("/stats/", hd.AIStats)
}
