package services

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const firebaseCertsURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"

// FirebaseClaims are the fields read from a Firebase ID token. The uid is
// the subject.
type FirebaseClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// FirebaseVerifier checks RS256 Firebase ID tokens against Google's
// published signing certificates, refreshed hourly or on an unknown kid.
type FirebaseVerifier struct {
	ProjectID  string
	CertsURL   string
	HTTPClient *http.Client
	Now        clock

	mu      sync.Mutex
	keys    map[string]*rsa.PublicKey
	fetched time.Time
}

func (v *FirebaseVerifier) Verify(ctx context.Context, raw string) (FirebaseClaims, error) {
	var claims FirebaseClaims
	if v == nil || v.ProjectID == "" {
		return claims, errors.New("firebase is not configured")
	}
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token without kid")
		}
		return v.key(ctx, kid)
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.ProjectID),
		jwt.WithIssuer("https://securetoken.google.com/"+v.ProjectID),
		jwt.WithTimeFunc(v.Now.now),
	)
	if err != nil {
		return claims, err
	}
	if claims.Subject == "" {
		return claims, errors.New("token without subject")
	}
	return claims, nil
}

func (v *FirebaseVerifier) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if k, ok := v.keys[kid]; ok && v.Now.now().Sub(v.fetched) < time.Hour {
		return k, nil
	}
	if err := v.fetch(ctx); err != nil {
		return nil, err
	}
	k, ok := v.keys[kid]
	if !ok {
		return nil, fmt.Errorf("unknown signing key %q", kid)
	}
	return k, nil
}

func (v *FirebaseVerifier) fetch(ctx context.Context) error {
	url := v.CertsURL
	if url == "" {
		url = firebaseCertsURL
	}
	client := v.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch certs: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch certs: unexpected status code: %d", resp.StatusCode)
	}
	var certs map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&certs); err != nil {
		return fmt.Errorf("decode certs: %w", err)
	}
	keys := make(map[string]*rsa.PublicKey, len(certs))
	for kid, pem := range certs {
		k, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pem))
		if err != nil {
			return fmt.Errorf("parse cert %s: %w", kid, err)
		}
		keys[kid] = k
	}
	v.keys = keys
	v.fetched = v.Now.now()
	return nil
}
