package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// AgentProfile describes one routable chat agent.
type AgentProfile struct {
	Key          string  `mapstructure:"key" json:"key"`
	Description  string  `mapstructure:"description" json:"description"`
	SystemPrompt string  `mapstructure:"system_prompt" json:"-"`
	Knowledge    string  `mapstructure:"knowledge" json:"knowledge,omitempty"`
	TopK         int     `mapstructure:"top_k" json:"top_k,omitempty"`
	Temperature  float32 `mapstructure:"temperature" json:"temperature"`
	MaxTokens    int     `mapstructure:"max_tokens" json:"max_tokens"`
}

const FallbackAgent = "customer_care"

const supportContacts = "WhatsApp +91-9876543210 (24/7), email support@adventurebuddha.com, emergency +91-9876543211."

// DefaultAgentProfiles is the built-in registry used when no AGENTS_CONFIG file is set.
func DefaultAgentProfiles() []AgentProfile {
	return []AgentProfile{
		{
			Key:          "trip_guidance",
			Description:  "Trip planning and information",
			SystemPrompt: "You are the Adventure Buddha trip guide. Answer questions about trips, destinations, itineraries and planning using the trip information provided. Mention prices in INR and suggest checking availability for dates.",
			Knowledge:    "trip",
			TopK:         3,
			Temperature:  0.7,
			MaxTokens:    800,
		},
		{
			Key:          "faq",
			Description:  "Frequently asked questions",
			SystemPrompt: "You answer frequently asked questions about Adventure Buddha trips and services. Use the FAQ entries provided and keep answers short.",
			Knowledge:    "faq",
			TopK:         2,
			Temperature:  0.3,
			MaxTokens:    500,
		},
		{
			Key:          "payment",
			Description:  "Payment methods and booking payments",
			SystemPrompt: "You help travellers pay for bookings. Payment options are Razorpay (cards, net banking, UPI, wallets), UPI QR code and bank transfer. Full payment is required for confirmation.",
			Knowledge:    "faq",
			TopK:         2,
			Temperature:  0.3,
			MaxTokens:    500,
		},
		{
			Key:          "customer_care",
			Description:  "Support requests, complaints and help",
			SystemPrompt: "You are the Adventure Buddha customer care agent. Be empathetic and concrete. Support contacts: " + supportContacts,
			Knowledge:    "faq",
			TopK:         2,
			Temperature:  0.5,
			MaxTokens:    600,
		},
		{
			Key:          "lead_qualification",
			Description:  "Booking interest and trip recommendations",
			SystemPrompt: "You qualify travellers who are interested in booking. Ask about destination, dates, group size and budget, and recommend matching trips from the information provided.",
			Knowledge:    "trip",
			TopK:         3,
			Temperature:  0.7,
			MaxTokens:    600,
		},
		{
			Key:          "whatsapp",
			Description:  "Communication preferences and updates",
			SystemPrompt: "You handle WhatsApp communication preferences, booking updates and notifications for Adventure Buddha travellers. Keep replies brief enough for a chat message.",
			Temperature:  0.5,
			MaxTokens:    300,
		},
		{
			Key:          "payment_policy",
			Description:  "Refunds, cancellation and payment rules",
			SystemPrompt: "You explain Adventure Buddha payment and cancellation policies: cancellation 30+ days before travel 90% refund, 15+ days 50% refund, under 15 days no refund. Groups of 5+ get 10% off, booking 60 days ahead gets 15% off.",
			Knowledge:    "faq",
			TopK:         2,
			Temperature:  0.2,
			MaxTokens:    500,
		},
	}
}

// LoadAgentProfiles returns the default registry, overridden entry-by-entry by
// the "agents" list of the file at path (any format viper understands).
func LoadAgentProfiles(path string) ([]AgentProfile, error) {
	profiles := DefaultAgentProfiles()
	path = strings.TrimSpace(path)
	if path == "" {
		return profiles, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return profiles, fmt.Errorf("read agents config: %w", err)
	}

	var fromFile []AgentProfile
	if err := v.UnmarshalKey("agents", &fromFile); err != nil {
		return profiles, fmt.Errorf("decode agents config: %w", err)
	}

	index := make(map[string]int, len(profiles))
	for i, p := range profiles {
		index[p.Key] = i
	}
	for _, p := range fromFile {
		p.Key = strings.ToLower(strings.TrimSpace(p.Key))
		if p.Key == "" {
			continue
		}
		if i, ok := index[p.Key]; ok {
			profiles[i] = mergeProfile(profiles[i], p)
			continue
		}
		index[p.Key] = len(profiles)
		profiles = append(profiles, p)
	}
	return profiles, nil
}

func mergeProfile(base, override AgentProfile) AgentProfile {
	if override.Description != "" {
		base.Description = override.Description
	}
	if override.SystemPrompt != "" {
		base.SystemPrompt = override.SystemPrompt
	}
	if override.Knowledge != "" {
		base.Knowledge = override.Knowledge
	}
	if override.TopK > 0 {
		base.TopK = override.TopK
	}
	if override.Temperature > 0 {
		base.Temperature = override.Temperature
	}
	if override.MaxTokens > 0 {
		base.MaxTokens = override.MaxTokens
	}
	return base
}
