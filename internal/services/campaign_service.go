package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"adventurebuddha/internal/clients/llm"
	"adventurebuddha/internal/domain"
	"adventurebuddha/internal/domain/models"
	"adventurebuddha/internal/repositories"
	"adventurebuddha/internal/utils"

	"github.com/xuri/excelize/v2"
)

// CampaignService manages bulk messaging campaigns and their messages.
type CampaignService struct {
	Campaigns     repositories.CampaignRepository
	Messages      repositories.MessageRepository
	Contacts      repositories.ContactRepository
	Templates     repositories.TemplateRepository
	Unsubscribers repositories.UnsubscriberRepository
	Queue         CampaignQueue
	Dispatch      CampaignSender
	LLM           llm.Client
	UploadDir     string
	RequestID     string
	Now           clock
}

type CampaignInput struct {
	Name                 string            `json:"name"`
	TemplateID           *int64            `json:"template_id"`
	MessageContent       string            `json:"message_content"`
	AttachmentURL        string            `json:"attachment_url"`
	ContactListID        int64             `json:"contact_list_id"`
	CampaignType         string            `json:"campaign_type"`
	PersonalizationRules map[string]string `json:"personalization_rules"`
	DelayBetweenMessages int               `json:"delay_between_messages"`
	BatchSize            int               `json:"batch_size"`
	ScheduledAt          *time.Time        `json:"scheduled_at"`
}

// Personalize fills {{name}}, {{phone}}, {{email}} and {{<custom field>}}
// placeholders. Rules supply values for placeholders the contact leaves empty.
func Personalize(content string, c models.Contact, rules map[string]string) string {
	values := map[string]string{}
	for k, v := range rules {
		values[k] = v
	}
	for k, v := range c.CustomFields {
		if v != "" {
			values[k] = v
		}
	}
	if c.Name != "" {
		values["name"] = c.Name
	}
	if c.PhoneNumber != "" {
		values["phone"] = c.PhoneNumber
	}
	if c.Email != "" {
		values["email"] = c.Email
	}
	out := content
	for k, v := range values {
		out = strings.ReplaceAll(out, "{{"+k+"}}", v)
	}
	return out
}

func (s CampaignService) validate(userID int64, in *CampaignInput) error {
	in.Name = utils.NormalizeSpace(in.Name)
	if in.Name == "" {
		return domain.ValidationError{Field: "name", Msg: "name is required"}
	}
	if in.ContactListID <= 0 {
		return domain.ValidationError{Field: "contact_list_id", Msg: "contact_list_id is required"}
	}
	if in.TemplateID != nil && strings.TrimSpace(in.MessageContent) == "" {
		t, err := s.Templates.Get(*in.TemplateID, userID)
		if err != nil {
			return repoErr("message template", err)
		}
		in.MessageContent = t.Content
	}
	if strings.TrimSpace(in.MessageContent) == "" {
		return domain.ValidationError{Field: "message_content", Msg: "message_content is required"}
	}
	if in.CampaignType == "" {
		in.CampaignType = models.CampaignStandard
	}
	if !utils.Contains([]string{models.CampaignStandard, models.CampaignPersonalized, models.CampaignAutomated}, in.CampaignType) {
		return domain.ValidationError{Field: "campaign_type", Msg: "invalid campaign_type"}
	}
	if in.DelayBetweenMessages <= 0 {
		in.DelayBetweenMessages = models.DefaultMessageDelay
	}
	if in.BatchSize <= 0 {
		in.BatchSize = models.DefaultBatchSize
	}
	return nil
}

// Create builds one queued message per WhatsApp-valid contact of the list,
// skipping unsubscribed numbers.
func (s CampaignService) Create(ctx context.Context, userID int64, in CampaignInput) (models.CampaignView, error) {
	return s.create(ctx, userID, in, nil)
}

func (s CampaignService) create(ctx context.Context, userID int64, in CampaignInput, rewrite func(ctx context.Context, msg string, c models.Contact) string) (models.CampaignView, error) {
	if err := s.validate(userID, &in); err != nil {
		return models.CampaignView{}, err
	}
	if _, err := s.Contacts.GetList(in.ContactListID, userID); err != nil {
		return models.CampaignView{}, repoErr("contact list", err)
	}
	yes := true
	contacts, err := s.Contacts.ListContacts(in.ContactListID, models.ContactWhatsAppValid, &yes)
	if err != nil {
		return models.CampaignView{}, repoErr("contact", err)
	}
	skip, err := s.Unsubscribers.Set()
	if err != nil {
		return models.CampaignView{}, repoErr("unsubscriber", err)
	}

	msgs := make([]models.Message, 0, len(contacts))
	for _, ct := range contacts {
		if skip[ct.PhoneNumber] {
			continue
		}
		content := Personalize(in.MessageContent, ct, in.PersonalizationRules)
		if rewrite != nil {
			content = rewrite(ctx, content, ct)
		}
		msgs = append(msgs, models.Message{ContactID: ct.ID, Content: content, AttachmentURL: in.AttachmentURL})
	}

	status := models.CampaignDraft
	if in.ScheduledAt != nil {
		status = models.CampaignScheduled
	}
	c := models.MessageCampaign{
		Name:                 in.Name,
		TemplateID:           in.TemplateID,
		MessageContent:       in.MessageContent,
		AttachmentURL:        in.AttachmentURL,
		ContactListID:        in.ContactListID,
		Status:               status,
		CampaignType:         in.CampaignType,
		PersonalizationRules: in.PersonalizationRules,
		DelayBetweenMessages: in.DelayBetweenMessages,
		BatchSize:            in.BatchSize,
		ScheduledAt:          in.ScheduledAt,
		CreatedBy:            userID,
	}
	id, err := s.Campaigns.CreateWithMessages(c, msgs)
	if err != nil {
		return models.CampaignView{}, repoErr("campaign", err)
	}
	utils.LogEvent(s.RequestID, "campaign", "create", fmt.Sprintf("campaign_id=%d messages=%d", id, len(msgs)))
	if status == models.CampaignScheduled {
		delay := in.ScheduledAt.Sub(s.Now.now())
		if delay < 0 {
			delay = 0
		}
		if err := s.enqueue(ctx, id, delay); err != nil {
			return models.CampaignView{}, err
		}
	}
	return s.Get(userID, id)
}

// CreateAndStart is Create followed by Start.
func (s CampaignService) CreateAndStart(ctx context.Context, userID int64, in CampaignInput) (models.CampaignView, error) {
	in.ScheduledAt = nil
	v, err := s.Create(ctx, userID, in)
	if err != nil {
		return v, err
	}
	return s.Start(ctx, userID, v.ID)
}

func (s CampaignService) List(userID int64) ([]models.CampaignView, error) {
	list, err := s.Campaigns.List(userID)
	if err != nil {
		return nil, repoErr("campaign", err)
	}
	out := make([]models.CampaignView, 0, len(list))
	for _, c := range list {
		out = append(out, c.View())
	}
	return out, nil
}

func (s CampaignService) Get(userID, id int64) (models.CampaignView, error) {
	c, err := s.Campaigns.GetForUser(id, userID)
	if err != nil {
		return models.CampaignView{}, repoErr("campaign", err)
	}
	return c.View(), nil
}

func (s CampaignService) Delete(userID, id int64) error {
	return repoErr("campaign", s.Campaigns.Delete(id, userID))
}

func (s CampaignService) Start(ctx context.Context, userID, id int64) (models.CampaignView, error) {
	c, err := s.Campaigns.GetForUser(id, userID)
	if err != nil {
		return models.CampaignView{}, repoErr("campaign", err)
	}
	if !c.CanStart() {
		return models.CampaignView{}, domain.ValidationError{Msg: fmt.Sprintf("Cannot start campaign in %s status", c.Status)}
	}
	now := s.Now.now()
	if err := s.Campaigns.SetStatus(id, models.CampaignRunning, &now, nil); err != nil {
		return models.CampaignView{}, repoErr("campaign", err)
	}
	if err := s.enqueue(ctx, id, 0); err != nil {
		return models.CampaignView{}, err
	}
	utils.LogEvent(s.RequestID, "campaign", "start", fmt.Sprintf("campaign_id=%d", id))
	return s.Get(userID, id)
}

// PerformAction applies pause, resume or cancel.
func (s CampaignService) PerformAction(ctx context.Context, userID, id int64, action string) (models.CampaignView, error) {
	c, err := s.Campaigns.GetForUser(id, userID)
	if err != nil {
		return models.CampaignView{}, repoErr("campaign", err)
	}
	action = strings.ToLower(strings.TrimSpace(action))
	now := s.Now.now()
	var allowed bool
	var status string
	var completed *time.Time
	switch action {
	case "pause":
		allowed, status = c.CanPause(), models.CampaignPaused
	case "resume":
		allowed, status = c.CanResume(), models.CampaignRunning
	case "cancel":
		allowed, status, completed = c.CanCancel(), models.CampaignCancelled, &now
	default:
		return models.CampaignView{}, domain.ValidationError{Field: "action", Msg: "must be pause, resume or cancel"}
	}
	if !allowed {
		return models.CampaignView{}, domain.ValidationError{Msg: fmt.Sprintf("Cannot %s campaign in %s status", action, c.Status)}
	}
	if err := s.Campaigns.SetStatus(id, status, nil, completed); err != nil {
		return models.CampaignView{}, repoErr("campaign", err)
	}
	if action == "resume" {
		if err := s.enqueue(ctx, id, 0); err != nil {
			return models.CampaignView{}, err
		}
	}
	utils.LogEvent(s.RequestID, "campaign", action, fmt.Sprintf("campaign_id=%d", id))
	return s.Get(userID, id)
}

func (s CampaignService) enqueue(ctx context.Context, id int64, delay time.Duration) error {
	if s.Queue == nil {
		return nil
	}
	if err := s.Queue.Enqueue(ctx, id, delay); err != nil {
		return domain.UnavailableError{Service: "campaign queue", Err: err}
	}
	return nil
}

func (s CampaignService) CampaignMessages(userID, id int64, status string) ([]models.Message, error) {
	if _, err := s.Get(userID, id); err != nil {
		return nil, err
	}
	out, err := s.Messages.ListByCampaign(id, strings.TrimSpace(status))
	return out, repoErr("message", err)
}

func (s CampaignService) ListMessages(userID int64, status string) ([]models.Message, error) {
	out, err := s.Messages.ListForUser(userID, strings.TrimSpace(status))
	return out, repoErr("message", err)
}

func (s CampaignService) GetMessage(userID, id int64) (models.Message, error) {
	m, err := s.Messages.GetForUser(id, userID)
	return m, repoErr("message", err)
}

// RetryMessage puts a failed message back in the queue and sends it right away.
func (s CampaignService) RetryMessage(ctx context.Context, userID, id int64) (models.Message, error) {
	m, err := s.GetMessage(userID, id)
	if err != nil {
		return m, err
	}
	if !m.CanRetry() {
		return m, domain.ValidationError{Msg: "Message cannot be retried"}
	}
	c, err := s.Campaigns.Get(m.CampaignID)
	if err != nil {
		return m, repoErr("campaign", err)
	}
	if err := s.Messages.Requeue(m.ID); err != nil {
		return m, repoErr("message", err)
	}
	if err := s.Campaigns.RecordRetry(c.ID); err != nil {
		return m, repoErr("campaign", err)
	}
	if err := s.Messages.AddLog(m.ID, "retry", map[string]any{"retry_count": m.RetryCount}); err != nil {
		utils.LogEvent(s.RequestID, "campaign", "message_log_failed", fmt.Sprintf("message_id=%d event=retry: %v", m.ID, err))
	}
	if _, err := s.Dispatch.Deliver(ctx, c, m); err != nil {
		return m, err
	}
	return s.GetMessage(userID, id)
}

func (s CampaignService) MessageLogs(userID, messageID int64) ([]models.MessageLog, error) {
	out, err := s.Messages.ListLogs(userID, messageID)
	return out, repoErr("message log", err)
}

func (s CampaignService) Reports(userID int64) ([]models.CampaignReport, error) {
	out, err := s.Campaigns.ListReports(userID)
	return out, repoErr("campaign report", err)
}

func (s CampaignService) Report(userID, id int64) (models.CampaignReport, error) {
	r, err := s.Campaigns.GetReport(id, userID)
	return r, repoErr("campaign report", err)
}

// GenerateReport writes an XLSX report under UploadDir/reports and records it.
func (s CampaignService) GenerateReport(userID, id int64, reportType string) (models.CampaignReport, error) {
	if reportType == "" {
		reportType = "summary"
	}
	if !utils.Contains(models.ReportTypes, reportType) {
		return models.CampaignReport{}, domain.ValidationError{Field: "report_type", Msg: "must be summary, detailed or failed"}
	}
	c, err := s.Campaigns.GetForUser(id, userID)
	if err != nil {
		return models.CampaignReport{}, repoErr("campaign", err)
	}
	var msgs []models.Message
	switch reportType {
	case "detailed":
		msgs, err = s.Messages.ListByCampaign(id, "")
	case "failed":
		msgs, err = s.Messages.ListByCampaign(id, models.MessageFailed)
	}
	if err != nil {
		return models.CampaignReport{}, repoErr("message", err)
	}

	dir := filepath.Join(s.UploadDir, "reports")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return models.CampaignReport{}, domain.InternalError{Msg: "failed to create report directory", Err: err}
	}
	now := s.Now.now()
	path := filepath.Join(dir, fmt.Sprintf("campaign_%d_%s_%s.xlsx", c.ID, reportType, now.Format("20060102_150405")))
	if err := writeCampaignReport(path, c, reportType, msgs); err != nil {
		return models.CampaignReport{}, domain.InternalError{Msg: "failed to write report", Err: err}
	}

	rep := models.CampaignReport{CampaignID: c.ID, ReportType: reportType, FilePath: path, GeneratedBy: userID}
	rep.ID, err = s.Campaigns.CreateReport(rep)
	if err != nil {
		return rep, repoErr("campaign report", err)
	}
	rep.CreatedAt = now
	utils.LogEvent(s.RequestID, "campaign", "generate_report", fmt.Sprintf("campaign_id=%d type=%s", c.ID, reportType))
	return rep, nil
}

func writeCampaignReport(path string, c models.MessageCampaign, reportType string, msgs []models.Message) error {
	f := excelize.NewFile()
	defer f.Close()

	const summary = "Summary"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return err
	}
	rows := [][]any{
		{"Campaign", c.Name},
		{"Status", c.Status},
		{"Type", c.CampaignType},
		{"Total messages", c.TotalMessages},
		{"Sent", c.SentMessages},
		{"Delivered", c.DeliveredMessages},
		{"Failed", c.FailedMessages},
		{"Pending", c.PendingMessages},
		{"Progress %", utils.RoundTo(c.Progress(), 2)},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summary, cell, &row); err != nil {
			return err
		}
	}

	if reportType != "summary" {
		const sheet = "Messages"
		if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
		header := []any{"Message ID", "Contact", "Phone", "Status", "Sent at", "Error", "Retries"}
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return err
		}
		for i, m := range msgs {
			sent := ""
			if m.SentAt != nil {
				sent = utils.FormatDateTime(*m.SentAt)
			}
			row := []any{m.ID, m.ContactName, m.PhoneNumber, m.Status, sent, m.ErrorMessage, m.RetryCount}
			cell, _ := excelize.CoordinatesToCellName(1, i+2)
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return err
			}
		}
	}
	return f.SaveAs(path)
}

type PersonalizedInput struct {
	ContactListID        int64             `json:"contact_list_id"`
	BaseTemplate         string            `json:"base_template"`
	PersonalizationRules map[string]string `json:"personalization_rules"`
}

// CreatePersonalized builds a personalized campaign; when the LLM is
// configured each message is redrafted for its contact.
func (s CampaignService) CreatePersonalized(ctx context.Context, userID int64, in PersonalizedInput) (models.CampaignView, error) {
	base := strings.TrimSpace(in.BaseTemplate)
	if base == "" || in.ContactListID <= 0 {
		return models.CampaignView{}, domain.ValidationError{Msg: "contact_list_id and base_template are required"}
	}
	name := "Personalized: " + utils.Truncate(base, 30) + "..."
	var rewrite func(context.Context, string, models.Contact) string
	if llm.Configured(s.LLM) {
		rewrite = s.redraftFor
	}
	return s.create(ctx, userID, CampaignInput{
		Name:                 name,
		MessageContent:       base,
		ContactListID:        in.ContactListID,
		CampaignType:         models.CampaignPersonalized,
		PersonalizationRules: in.PersonalizationRules,
	}, rewrite)
}

func (s CampaignService) redraftFor(ctx context.Context, msg string, c models.Contact) string {
	resp, err := s.LLM.Complete(ctx, llm.Request{
		System:      "You personalize WhatsApp marketing messages for Adventure Buddha travellers. Reply with the message text only.",
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: fmt.Sprintf("Personalize this message for %s:\n\n%s", c.Name, msg)}},
		Temperature: 0.7,
		MaxTokens:   500,
	})
	if err != nil || strings.TrimSpace(resp.Content) == "" {
		return msg
	}
	return strings.TrimSpace(resp.Content)
}

type AIInsights struct {
	BestPerformingTemplates []repositories.TemplatePerformance `json:"best_performing_templates"`
	OptimalSendTimes        []string                           `json:"optimal_send_times"`
	ContentRecommendations  []string                           `json:"content_recommendations"`
}

func (s CampaignService) AIInsights(userID int64) (AIInsights, error) {
	best, err := s.Templates.BestPerforming(userID, 5)
	if err != nil {
		return AIInsights{}, repoErr("message template", err)
	}
	return AIInsights{
		BestPerformingTemplates: best,
		OptimalSendTimes:        []string{"10:00-11:00", "14:00-15:00", "19:00-20:00"},
		ContentRecommendations: []string{
			"Use the contact's name in the first line",
			"Keep messages under 300 characters",
			"End with one clear call to action",
			"Mention travel dates and seat availability",
		},
	}, nil
}

type ResponseRule struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
	Reply    string   `json:"reply"`
}

type AutomatedResponses struct {
	Analytics repositories.AutomatedAnalytics `json:"analytics"`
	Rules     []ResponseRule                  `json:"rules"`
}

func (s CampaignService) AutomatedResponses() (AutomatedResponses, error) {
	a, err := s.Messages.Automated(s.Now.now().AddDate(0, 0, -30))
	if err != nil {
		return AutomatedResponses{}, repoErr("message", err)
	}
	rules := []ResponseRule{
		{Name: "greeting", Keywords: []string{"hi", "hello", "hey"}, Reply: "Hello! Welcome to Adventure Buddha. How can we help you plan your next trip?"},
		{Name: "booking_inquiry", Keywords: []string{"book", "booking", "trip"}, Reply: "You can browse trips and book seats on our website. Reply with a destination and we will share options."},
	}
	return AutomatedResponses{Analytics: a, Rules: rules}, nil
}
