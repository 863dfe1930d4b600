package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

var googleEndpoint = oauth2.Endpoint{
	AuthURL:   "https://accounts.google.com/o/oauth2/auth",
	TokenURL:  "https://oauth2.googleapis.com/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

type GoogleProfile struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// GoogleAuth exchanges an authorization code for the user's profile.
type GoogleAuth struct {
	Config      *oauth2.Config
	UserInfoURL string
	HTTPClient  *http.Client
}

func NewGoogleAuth(clientID, secret, redirect string) GoogleAuth {
	if clientID == "" {
		return GoogleAuth{}
	}
	return GoogleAuth{Config: &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: secret,
		RedirectURL:  redirect,
		Endpoint:     googleEndpoint,
		Scopes:       []string{"openid", "email", "profile"},
	}}
}

func (g GoogleAuth) Configured() bool { return g.Config != nil }

func (g GoogleAuth) Profile(ctx context.Context, code string) (GoogleProfile, error) {
	var p GoogleProfile
	if g.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, g.HTTPClient)
	}
	tok, err := g.Config.Exchange(ctx, code)
	if err != nil {
		return p, fmt.Errorf("exchange code: %w", err)
	}
	url := g.UserInfoURL
	if url == "" {
		url = googleUserInfoURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return p, err
	}
	resp, err := g.Config.Client(ctx, tok).Do(req)
	if err != nil {
		return p, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return p, fmt.Errorf("fetch userinfo: unexpected status code: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return p, fmt.Errorf("decode userinfo: %w", err)
	}
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	if p.ID == "" || p.Email == "" {
		return p, fmt.Errorf("userinfo without id or email")
	}
	return p, nil
}
