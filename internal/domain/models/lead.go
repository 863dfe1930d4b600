package models

import "time"

const (
	LeadNew       = "new"
	LeadContacted = "contacted"
	LeadQualified = "qualified"
	LeadConverted = "converted"
	LeadLost      = "lost"

	DefaultLeadSource = "home_page_modal"
)

var LeadStatuses = []string{LeadNew, LeadContacted, LeadQualified, LeadConverted, LeadLost}

type Lead struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	Destination     string     `json:"destination,omitempty"`
	TravelDate      string     `json:"travel_date,omitempty"`
	Travelers       int        `json:"travelers"`
	Budget          string     `json:"budget"`
	ExperienceLevel string     `json:"experience_level"`
	Interests       []string   `json:"interests"`
	Status          string     `json:"status"`
	Source          string     `json:"source"`
	IPAddress       string     `json:"ip_address"`
	UserAgent       string     `json:"user_agent"`
	FollowUpDate    *time.Time `json:"follow_up_date,omitempty"`
	Notes           string     `json:"notes"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type CountByKey struct {
	Status      string `json:"status,omitempty"`
	Destination string `json:"destination,omitempty"`
	Count       int    `json:"count"`
}

type LeadStats struct {
	TotalLeads      int          `json:"total_leads"`
	NewLeadsToday   int          `json:"new_leads_today"`
	NewLeadsWeek    int          `json:"new_leads_week"`
	NewLeadsMonth   int          `json:"new_leads_month"`
	StatusBreakdown []CountByKey `json:"status_breakdown"`
	TopDestinations []CountByKey `json:"top_destinations"`
	ConversionRate  float64      `json:"conversion_rate"`
}
