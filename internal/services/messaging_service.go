package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"adventurebuddha/internal/clients/whatsapp"
	"adventurebuddha/internal/domain"
	"adventurebuddha/internal/domain/models"
	"adventurebuddha/internal/repositories"
	"adventurebuddha/internal/utils"

	"github.com/google/uuid"
)

const (
	maxBulkNumbers   = 10
	defaultBulkDelay = 5
)

// MessagingService covers templates, contact lists, contacts, number
// validation, unsubscribers and direct sends.
type MessagingService struct {
	Templates     repositories.TemplateRepository
	Contacts      repositories.ContactRepository
	Campaigns     repositories.CampaignRepository
	Unsubscribers repositories.UnsubscriberRepository
	Sender        whatsapp.Sender
	RequestID     string
	Now           clock
	// Sleep waits between bulk sends; it returns early when ctx ends.
	Sleep func(ctx context.Context, d time.Duration) error
}

func (s MessagingService) sender() whatsapp.Sender {
	if s.Sender != nil {
		return s.Sender
	}
	return &whatsapp.Mock{}
}

func (s MessagingService) sleep(ctx context.Context, d time.Duration) error {
	if s.Sleep != nil {
		return s.Sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s MessagingService) ListTemplates(userID int64) ([]models.MessageTemplate, error) {
	out, err := s.Templates.List(userID)
	return out, repoErr("message template", err)
}

func (s MessagingService) GetTemplate(userID, id int64) (models.MessageTemplate, error) {
	t, err := s.Templates.Get(id, userID)
	return t, repoErr("message template", err)
}

func validateTemplate(t *models.MessageTemplate) error {
	t.Name = utils.NormalizeSpace(t.Name)
	t.Content = strings.TrimSpace(t.Content)
	if t.Name == "" {
		return domain.ValidationError{Field: "name", Msg: "name is required"}
	}
	if t.Content == "" {
		return domain.ValidationError{Field: "content", Msg: "content is required"}
	}
	if t.Category == "" {
		t.Category = "general"
	}
	return nil
}

func (s MessagingService) CreateTemplate(userID int64, t models.MessageTemplate) (models.MessageTemplate, error) {
	if err := validateTemplate(&t); err != nil {
		return t, err
	}
	t.CreatedBy = userID
	id, err := s.Templates.Create(t)
	if err != nil {
		return t, repoErr("message template", err)
	}
	return s.GetTemplate(userID, id)
}

func (s MessagingService) UpdateTemplate(userID, id int64, t models.MessageTemplate) (models.MessageTemplate, error) {
	if err := validateTemplate(&t); err != nil {
		return t, err
	}
	t.ID = id
	t.CreatedBy = userID
	if err := s.Templates.Update(t); err != nil {
		return t, repoErr("message template", err)
	}
	return s.GetTemplate(userID, id)
}

func (s MessagingService) DeleteTemplate(userID, id int64) error {
	return repoErr("message template", s.Templates.Delete(id, userID))
}

func (s MessagingService) DuplicateTemplate(userID, id int64) (models.MessageTemplate, error) {
	t, err := s.GetTemplate(userID, id)
	if err != nil {
		return t, err
	}
	t.Name = t.Name + " (Copy)"
	return s.CreateTemplate(userID, t)
}

// ImportContacts parses an uploaded file into a new contact list. Every
// phone number is normalized and checked with the sender; duplicates within
// the list are skipped.
func (s MessagingService) ImportContacts(ctx context.Context, userID int64, name, filename string, file io.Reader, mapping map[string]string) (models.ContactList, error) {
	name = utils.NormalizeSpace(name)
	if name == "" {
		return models.ContactList{}, domain.ValidationError{Field: "name", Msg: "name is required"}
	}
	rows, applied, err := ParseContactFile(filename, file, mapping)
	if err != nil {
		return models.ContactList{}, err
	}

	list := models.ContactList{Name: name, FileName: filename, ColumnMapping: applied, UploadedBy: userID}
	list.ID, err = s.Contacts.CreateList(list)
	if err != nil {
		return list, repoErr("contact list", err)
	}

	for _, row := range rows {
		phone, ok := whatsapp.NormalizePhone(row.Phone)
		c := models.Contact{
			ContactListID: &list.ID,
			Name:          row.Name,
			PhoneNumber:   phone,
			Email:         row.Email,
			Status:        models.ContactInvalid,
			CustomFields:  row.Custom,
		}
		if ok {
			check, err := s.sender().ValidateNumber(ctx, phone)
			if err != nil {
				utils.LogEvent(s.RequestID, "messaging", "validate_number_failed", err.Error())
			}
			c.WhatsAppStatus = err == nil && check.IsWhatsAppUser
			if c.WhatsAppStatus {
				c.Status = models.ContactWhatsAppValid
			} else {
				c.Status = models.ContactWhatsAppInvalid
			}
		}
		if c.PhoneNumber == "" {
			c.PhoneNumber = strings.TrimSpace(row.Phone)
		}
		inserted, err := s.Contacts.InsertContact(c)
		if err != nil {
			return list, repoErr("contact", err)
		}
		if !inserted {
			continue
		}
		list.TotalContacts++
		if ok {
			list.ValidContacts++
		} else {
			list.InvalidContacts++
		}
		if c.WhatsAppStatus {
			list.WhatsAppContacts++
		}
	}

	now := s.Now.now()
	if err := s.Contacts.FinishList(list, now); err != nil {
		return list, repoErr("contact list", err)
	}
	list.ProcessedAt = &now
	utils.LogEvent(s.RequestID, "messaging", "import_contacts",
		fmt.Sprintf("list_id=%d total=%d valid=%d whatsapp=%d", list.ID, list.TotalContacts, list.ValidContacts, list.WhatsAppContacts))
	return s.GetList(userID, list.ID)
}

func (s MessagingService) ListLists(userID int64) ([]models.ContactList, error) {
	out, err := s.Contacts.ListLists(userID)
	return out, repoErr("contact list", err)
}

func (s MessagingService) GetList(userID, id int64) (models.ContactList, error) {
	l, err := s.Contacts.GetList(id, userID)
	return l, repoErr("contact list", err)
}

func (s MessagingService) DeleteList(userID, id int64) error {
	return repoErr("contact list", s.Contacts.DeleteList(id, userID))
}

func (s MessagingService) ListContactsOf(userID, listID int64, status string, whatsappOnly *bool) ([]models.Contact, error) {
	if _, err := s.GetList(userID, listID); err != nil {
		return nil, err
	}
	out, err := s.Contacts.ListContacts(listID, strings.TrimSpace(status), whatsappOnly)
	return out, repoErr("contact", err)
}

func (s MessagingService) ListContacts(userID int64) ([]models.Contact, error) {
	out, err := s.Contacts.ListForUser(userID)
	return out, repoErr("contact", err)
}

func (s MessagingService) GetContact(userID, id int64) (models.Contact, error) {
	c, err := s.Contacts.GetForUser(id, userID)
	return c, repoErr("contact", err)
}

type ContactUpdate struct {
	Name         *string           `json:"name"`
	Email        *string           `json:"email"`
	CustomFields map[string]string `json:"custom_fields"`
}

func (s MessagingService) UpdateContact(userID, id int64, in ContactUpdate) (models.Contact, error) {
	c, err := s.GetContact(userID, id)
	if err != nil {
		return c, err
	}
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		c.Email = strings.TrimSpace(*in.Email)
	}
	if in.CustomFields != nil {
		c.CustomFields = in.CustomFields
	}
	if err := s.Contacts.Update(c); err != nil {
		return c, repoErr("contact", err)
	}
	return c, nil
}

func (s MessagingService) DeleteContact(userID, id int64) error {
	if _, err := s.GetContact(userID, id); err != nil {
		return err
	}
	return repoErr("contact", s.Contacts.Delete(id))
}

// ValidateNumbers checks each number's format and WhatsApp presence.
func (s MessagingService) ValidateNumbers(ctx context.Context, numbers []string) ([]models.PhoneCheck, error) {
	if len(numbers) == 0 {
		return nil, domain.ValidationError{Field: "phone_numbers", Msg: "phone_numbers is required"}
	}
	out := make([]models.PhoneCheck, 0, len(numbers))
	for _, n := range numbers {
		check, err := s.sender().ValidateNumber(ctx, n)
		if err != nil {
			normalized, ok := whatsapp.NormalizePhone(n)
			check = models.PhoneCheck{Number: normalized, IsValid: ok, CountryCode: whatsapp.CountryCode(normalized)}
		}
		out = append(out, check)
	}
	return out, nil
}

func (s MessagingService) ValidatePhone(ctx context.Context, phone string) (models.PhoneCheck, error) {
	if strings.TrimSpace(phone) == "" {
		return models.PhoneCheck{}, domain.ValidationError{Field: "phone_number", Msg: "phone_number is required"}
	}
	check, err := s.sender().ValidateNumber(ctx, phone)
	if err != nil {
		return check, domain.UnavailableError{Service: "whatsapp", Err: err}
	}
	return check, nil
}

func (s MessagingService) Unsubscribed() ([]models.Unsubscriber, error) {
	out, err := s.Unsubscribers.List()
	return out, repoErr("unsubscriber", err)
}

func (s MessagingService) Unsubscribe(phone, reason string) (string, error) {
	normalized, ok := whatsapp.NormalizePhone(phone)
	if !ok {
		return "", domain.ValidationError{Field: "phone_number", Msg: "invalid phone number"}
	}
	if err := s.Unsubscribers.Add(normalized, strings.TrimSpace(reason)); err != nil {
		return "", repoErr("unsubscriber", err)
	}
	utils.LogEvent(s.RequestID, "messaging", "unsubscribe", "number recorded")
	return normalized, nil
}

func (s MessagingService) Stats(userID int64) (models.MessagingStats, error) {
	st, err := s.Campaigns.Stats(userID)
	if err != nil {
		return st, repoErr("campaign", err)
	}
	st.SuccessRate = utils.Percent(float64(st.TotalMessagesSent), float64(st.TotalMessagesSent+st.TotalMessagesFailed))
	return st, nil
}

func (s MessagingService) Balance(ctx context.Context) (whatsapp.Balance, error) {
	b, err := s.sender().Balance(ctx)
	if err != nil {
		return b, domain.UnavailableError{Service: "whatsapp", Err: err}
	}
	return b, nil
}

func (s MessagingService) MessageStatus(ctx context.Context, providerID string) (whatsapp.StatusResult, error) {
	st, err := s.sender().MessageStatus(ctx, providerID)
	if err != nil {
		return st, domain.UnavailableError{Service: "whatsapp", Err: err}
	}
	return st, nil
}

// SendMessage delivers a single text synchronously.
func (s MessagingService) SendMessage(ctx context.Context, phone, text string) (whatsapp.SendResult, error) {
	normalized, ok := whatsapp.NormalizePhone(phone)
	if !ok {
		return whatsapp.SendResult{}, domain.ValidationError{Field: "phone_number", Msg: "invalid phone number"}
	}
	if strings.TrimSpace(text) == "" {
		return whatsapp.SendResult{}, domain.ValidationError{Field: "message", Msg: "message is required"}
	}
	res, err := s.sender().SendMessage(ctx, normalized, text, "")
	if err != nil {
		return res, domain.UnavailableError{Service: "whatsapp", Err: err}
	}
	return res, nil
}

type BulkInput struct {
	PhoneNumbers  []string `json:"phone_numbers"`
	Message       string   `json:"message"`
	AttachmentURL string   `json:"attachment_url"`
	DelaySeconds  int      `json:"delay_seconds"`
}

type BulkTask struct {
	TaskID              string `json:"task_id"`
	Message             string `json:"message"`
	EstimatedCompletion string `json:"estimated_completion"`
}

// BulkSend validates the request and sends in the background, waiting
// delay_seconds between numbers. Unsubscribed numbers are skipped.
func (s MessagingService) BulkSend(ctx context.Context, in BulkInput) (BulkTask, error) {
	if len(in.PhoneNumbers) == 0 || len(in.PhoneNumbers) > maxBulkNumbers {
		return BulkTask{}, domain.ValidationError{Field: "phone_numbers", Msg: fmt.Sprintf("between 1 and %d phone numbers are required", maxBulkNumbers)}
	}
	if strings.TrimSpace(in.Message) == "" {
		return BulkTask{}, domain.ValidationError{Field: "message", Msg: "message is required"}
	}
	if in.DelaySeconds <= 0 {
		in.DelaySeconds = defaultBulkDelay
	}
	skip, err := s.Unsubscribers.Set()
	if err != nil {
		return BulkTask{}, repoErr("unsubscriber", err)
	}

	task := BulkTask{
		TaskID:              uuid.NewString(),
		Message:             "Bulk message sending initiated",
		EstimatedCompletion: fmt.Sprintf("%d seconds", len(in.PhoneNumbers)*in.DelaySeconds),
	}
	go s.runBulk(context.WithoutCancel(ctx), task.TaskID, in, skip)
	return task, nil
}

func (s MessagingService) runBulk(ctx context.Context, taskID string, in BulkInput, skip map[string]bool) {
	sent, failed := 0, 0
	for i, raw := range in.PhoneNumbers {
		if i > 0 {
			if err := s.sleep(ctx, time.Duration(in.DelaySeconds)*time.Second); err != nil {
				break
			}
		}
		phone, ok := whatsapp.NormalizePhone(raw)
		if !ok || skip[phone] {
			failed++
			continue
		}
		if _, err := s.sender().SendMessage(ctx, phone, in.Message, in.AttachmentURL); err != nil {
			failed++
			continue
		}
		sent++
	}
	utils.LogEvent(s.RequestID, "messaging", "bulk_done", fmt.Sprintf("task_id=%s sent=%d failed=%d", taskID, sent, failed))
}
