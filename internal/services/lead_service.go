package services

import (
	"fmt"
	"strings"
	"time"

	"adventurebuddha/internal/db"
	"adventurebuddha/internal/domain"
	"adventurebuddha/internal/domain/models"
	"adventurebuddha/internal/events"
	"adventurebuddha/internal/repositories"
	"adventurebuddha/internal/utils"
)

var errLeadEmailTaken = domain.ValidationError{Msg: "A lead with this email already exists."}

type LeadService struct {
	Leads     repositories.LeadRepository
	Events    events.Publisher
	RequestID string
	Now       clock
}

type LeadInput struct {
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	Destination     string   `json:"destination"`
	TravelDate      string   `json:"travel_date"`
	Travelers       int      `json:"travelers"`
	Budget          string   `json:"budget"`
	ExperienceLevel string   `json:"experience_level"`
	Interests       []string `json:"interests"`
	Source          string   `json:"source"`
}

// cleanLeadPhone strips +, - and spaces and requires digits only.
func cleanLeadPhone(raw string) (string, bool) {
	phone := strings.NewReplacer("+", "", "-", "", " ", "").Replace(strings.TrimSpace(raw))
	if phone == "" {
		return "", true
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			return phone, false
		}
	}
	return phone, true
}

// Capture records a public lead and schedules its follow-up a day later.
func (s LeadService) Capture(in LeadInput, ip, userAgent string) (models.Lead, error) {
	in.Name = utils.NormalizeSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Name == "" {
		return models.Lead{}, domain.ValidationError{Field: "name", Msg: "This field is required."}
	}
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return models.Lead{}, domain.ValidationError{Field: "email", Msg: "Enter a valid email address."}
	}
	phone, ok := cleanLeadPhone(in.Phone)
	if !ok {
		return models.Lead{}, domain.ValidationError{Field: "phone", Msg: "Phone number should contain only digits, +, -, and spaces."}
	}
	if in.Travelers == 0 {
		in.Travelers = 1
	}
	if in.Travelers < 1 || in.Travelers > 20 {
		return models.Lead{}, domain.ValidationError{Field: "travelers", Msg: "Number of travelers must be between 1 and 20."}
	}
	exists, err := s.Leads.EmailExists(in.Email)
	if err != nil {
		return models.Lead{}, repoErr("lead", err)
	}
	if exists {
		return models.Lead{}, errLeadEmailTaken
	}

	now := s.Now.now()
	followUp := now.Add(24 * time.Hour)
	lead := models.Lead{
		Name:            in.Name,
		Email:           in.Email,
		Phone:           phone,
		Destination:     strings.TrimSpace(in.Destination),
		TravelDate:      strings.TrimSpace(in.TravelDate),
		Travelers:       in.Travelers,
		Budget:          strings.TrimSpace(in.Budget),
		ExperienceLevel: strings.TrimSpace(in.ExperienceLevel),
		Interests:       in.Interests,
		Status:          models.LeadNew,
		Source:          utils.TrimOrEmpty(in.Source),
		IPAddress:       ip,
		UserAgent:       userAgent,
		FollowUpDate:    &followUp,
	}
	if lead.Source == "" {
		lead.Source = models.DefaultLeadSource
	}
	if lead.Interests == nil {
		lead.Interests = []string{}
	}
	id, err := s.Leads.Create(lead)
	if db.IsDuplicate(err) {
		return lead, errLeadEmailTaken
	}
	if err != nil {
		return lead, repoErr("lead", err)
	}
	lead.ID = id
	lead.CreatedAt = now
	lead.UpdatedAt = now
	utils.LogEvent(s.RequestID, "leads", "capture", fmt.Sprintf("lead_id=%d source=%s", id, lead.Source))
	events.Emit(s.Events, s.RequestID, events.New(events.LeadCreated, 0,
		"New lead", fmt.Sprintf("%s is interested in %s", lead.Name, utils.TrimOrEmpty(lead.Destination)),
		map[string]any{"lead_id": id, "source": lead.Source}))
	return lead, nil
}

func (s LeadService) List(status string) ([]models.Lead, error) {
	status = strings.TrimSpace(status)
	if status != "" && !utils.Contains(models.LeadStatuses, status) {
		return nil, domain.ValidationError{Msg: "Invalid status"}
	}
	out, err := s.Leads.List(status, 0)
	return out, repoErr("lead", err)
}

func (s LeadService) Recent(limit int) ([]models.Lead, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	out, err := s.Leads.List("", limit)
	return out, repoErr("lead", err)
}

func (s LeadService) Get(id int64) (models.Lead, error) {
	l, err := s.Leads.GetByID(id)
	return l, repoErr("lead", err)
}

func (s LeadService) Stats() (models.LeadStats, error) {
	st, converted, err := s.Leads.Stats(s.Now.now())
	if err != nil {
		return st, repoErr("lead", err)
	}
	st.ConversionRate = utils.Percent(float64(converted), float64(st.TotalLeads))
	return st, nil
}

func (s LeadService) UpdateStatus(id int64, status string) (models.Lead, error) {
	status = strings.TrimSpace(status)
	if !utils.Contains(models.LeadStatuses, status) {
		return models.Lead{}, domain.ValidationError{Msg: "Invalid status"}
	}
	if err := s.Leads.UpdateStatus(id, status); err != nil {
		return models.Lead{}, repoErr("lead", err)
	}
	utils.LogEvent(s.RequestID, "leads", "update_status", fmt.Sprintf("lead_id=%d status=%s", id, status))
	return s.Get(id)
}

// AddNote prepends a timestamped note to the lead's notes.
func (s LeadService) AddNote(id int64, note string) (models.Lead, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return models.Lead{}, domain.ValidationError{Msg: "Note is required"}
	}
	lead, err := s.Get(id)
	if err != nil {
		return lead, err
	}
	lead.Notes = fmt.Sprintf("[%s] %s\n\n%s", utils.FormatDateTime(s.Now.now()), note, lead.Notes)
	if err := s.Leads.UpdateNotes(id, lead.Notes); err != nil {
		return lead, repoErr("lead", err)
	}
	return lead, nil
}
