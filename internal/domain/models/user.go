package models

import "time"

const (
	ProviderLocal    = "local"
	ProviderGoogle   = "google"
	ProviderFirebase = "firebase"
)

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Status       string    `json:"status"`
	Provider     string    `json:"provider"`
	ProviderUID  string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// TokenPair is returned by every login flavour.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}
