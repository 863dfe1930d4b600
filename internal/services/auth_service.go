package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"adventurebuddha/internal/domain"
	"adventurebuddha/internal/domain/models"
	"adventurebuddha/internal/repositories"
	"adventurebuddha/internal/utils"

	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	Users     repositories.UserRepository
	Tokens    Tokens
	Google    GoogleAuth
	Firebase  *FirebaseVerifier
	RequestID string
}

type RegisterInput struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

var errBadCredentials = domain.UnauthorizedError{Msg: "Invalid credentials"}

func (s AuthService) Register(in RegisterInput) (models.User, error) {
	in.Name = utils.NormalizeSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return models.User{}, domain.ValidationError{Field: "email", Msg: "a valid email is required"}
	}
	if len(in.Password) < 6 {
		return models.User{}, domain.ValidationError{Field: "password", Msg: "password must be at least 6 characters"}
	}
	if in.Username == "" {
		in.Username = strings.SplitN(in.Email, "@", 2)[0]
	}
	if in.Name == "" {
		in.Name = in.Username
	}

	emailTaken, usernameTaken, err := s.Users.Taken(in.Email, in.Username)
	if err != nil {
		return models.User{}, repoErr("user", err)
	}
	if emailTaken {
		return models.User{}, domain.ConflictError{Msg: "email already registered"}
	}
	if usernameTaken {
		return models.User{}, domain.ConflictError{Msg: "username already taken"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, domain.InternalError{Err: err}
	}
	u := models.User{
		Name:         in.Name,
		Username:     in.Username,
		Email:        in.Email,
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		Status:       "active",
		Provider:     models.ProviderLocal,
	}
	id, err := s.Users.Create(u)
	if err != nil {
		return u, repoErr("user", err)
	}
	u.ID = id
	utils.LogEvent(s.RequestID, "auth", "register", fmt.Sprintf("user_id=%d", id))
	return u, nil
}

// Login checks a password against the account found by email or username.
func (s AuthService) Login(identifier, password string) (models.User, models.TokenPair, error) {
	if strings.TrimSpace(identifier) == "" || password == "" {
		return models.User{}, models.TokenPair{}, domain.ValidationError{Msg: "email and password are required"}
	}
	u, err := s.Users.GetByLogin(identifier)
	if errors.Is(err, sql.ErrNoRows) {
		return u, models.TokenPair{}, errBadCredentials
	}
	if err != nil {
		return u, models.TokenPair{}, repoErr("user", err)
	}
	if u.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return u, models.TokenPair{}, errBadCredentials
	}
	if u.Status != "" && u.Status != "active" {
		return u, models.TokenPair{}, domain.UnauthorizedError{Msg: "account is not active"}
	}
	pair, err := s.Tokens.Issue(u)
	if err != nil {
		return u, pair, domain.InternalError{Err: err}
	}
	utils.LogEvent(s.RequestID, "auth", "login", fmt.Sprintf("user_id=%d", u.ID))
	return u, pair, nil
}

// Refresh issues a new access token from a refresh token.
func (s AuthService) Refresh(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", domain.ValidationError{Msg: "refresh is required"}
	}
	claims, err := s.Tokens.Parse(raw, TokenRefresh)
	if err != nil {
		return "", err
	}
	u, err := s.Users.GetByID(claims.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.UnauthorizedError{Msg: "user not found"}
	}
	if err != nil {
		return "", repoErr("user", err)
	}
	access, err := s.Tokens.Access(u)
	if err != nil {
		return "", domain.InternalError{Err: err}
	}
	return access, nil
}

func (s AuthService) Me(userID int64) (models.User, error) {
	u, err := s.Users.GetByID(userID)
	return u, repoErr("user", err)
}

func (s AuthService) GoogleLogin(ctx context.Context, code string) (models.User, models.TokenPair, error) {
	if strings.TrimSpace(code) == "" {
		return models.User{}, models.TokenPair{}, domain.ValidationError{Msg: "code is required"}
	}
	if !s.Google.Configured() {
		return models.User{}, models.TokenPair{}, domain.UnavailableError{Service: "google login"}
	}
	p, err := s.Google.Profile(ctx, code)
	if err != nil {
		utils.LogEvent(s.RequestID, "auth", "google_failed", err.Error())
		return models.User{}, models.TokenPair{}, domain.ValidationError{Msg: "Google authentication failed", Err: err}
	}
	return s.socialLogin(models.ProviderGoogle, p.ID, p.Email, p.Name)
}

func (s AuthService) FirebaseLogin(ctx context.Context, idToken string) (models.User, models.TokenPair, error) {
	if strings.TrimSpace(idToken) == "" {
		return models.User{}, models.TokenPair{}, domain.ValidationError{Msg: "id_token is required"}
	}
	if s.Firebase == nil || s.Firebase.ProjectID == "" {
		return models.User{}, models.TokenPair{}, domain.UnavailableError{Service: "firebase login"}
	}
	claims, err := s.Firebase.Verify(ctx, idToken)
	if err != nil {
		return models.User{}, models.TokenPair{}, domain.UnauthorizedError{Msg: "Invalid Firebase token", Err: err}
	}
	email := strings.ToLower(strings.TrimSpace(claims.Email))
	if email == "" {
		return models.User{}, models.TokenPair{}, domain.ValidationError{Msg: "Email is required"}
	}
	return s.socialLogin(models.ProviderFirebase, claims.Subject, email, claims.Name)
}

// socialLogin finds the account by provider identity, then by email
// (rebinding the identity), and creates one otherwise.
func (s AuthService) socialLogin(provider, uid, email, name string) (models.User, models.TokenPair, error) {
	u, err := s.Users.GetByProvider(provider, uid)
	switch {
	case err == nil:
	case errors.Is(err, sql.ErrNoRows):
		u, err = s.Users.GetByEmail(email)
		switch {
		case err == nil:
			if err := s.Users.BindProvider(u.ID, provider, uid); err != nil {
				return u, models.TokenPair{}, repoErr("user", err)
			}
			u.Provider = provider
		case errors.Is(err, sql.ErrNoRows):
			u, err = s.createSocialUser(provider, uid, email, name)
			if err != nil {
				return u, models.TokenPair{}, err
			}
		default:
			return u, models.TokenPair{}, repoErr("user", err)
		}
	default:
		return u, models.TokenPair{}, repoErr("user", err)
	}

	pair, err := s.Tokens.Issue(u)
	if err != nil {
		return u, pair, domain.InternalError{Err: err}
	}
	utils.LogEvent(s.RequestID, "auth", provider+"_login", fmt.Sprintf("user_id=%d", u.ID))
	return u, pair, nil
}

func (s AuthService) createSocialUser(provider, uid, email, name string) (models.User, error) {
	base := utils.Slugify(strings.SplitN(email, "@", 2)[0])
	if base == "" {
		base = "traveller"
	}
	username := base
	for i := 1; ; i++ {
		exists, err := s.Users.UsernameExists(username)
		if err != nil {
			return models.User{}, repoErr("user", err)
		}
		if !exists {
			break
		}
		username = fmt.Sprintf("%s%d", base, i)
	}
	if strings.TrimSpace(name) == "" {
		name = username
	}
	u := models.User{
		Name:        name,
		Username:    username,
		Email:       email,
		Role:        domain.RoleUser,
		Status:      "active",
		Provider:    provider,
		ProviderUID: uid,
	}
	id, err := s.Users.Create(u)
	if err != nil {
		return u, repoErr("user", err)
	}
	u.ID = id
	return u, nil
}
