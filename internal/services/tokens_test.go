package services

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adventurebuddha/internal/domain"
	"adventurebuddha/internal/domain/models"
)

func TestTokensIssueAndParse(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	tok := Tokens{Secret: []byte("s3cret"), AccessTTL: time.Hour, Now: func() time.Time { return now }}
	user := models.User{ID: 42, Role: domain.RoleAdmin}

	pair, err := tok.Issue(user)
	require.NoError(t, err)

	claims, err := tok.Parse(pair.Access, TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, domain.RoleAdmin, claims.Role)

	_, err = tok.Parse(pair.Refresh, TokenAccess)
	assert.EqualError(t, err, "wrong token type")

	later := tok
	later.Now = func() time.Time { return now.Add(2 * time.Hour) }
	_, err = later.Parse(pair.Access, TokenAccess)
	assert.True(t, domain.IsUnauthorized(err))
	assert.EqualError(t, err, "token expired")

	other := Tokens{Secret: []byte("different")}
	_, err = other.Parse(pair.Access, TokenAccess)
	assert.EqualError(t, err, "invalid token")
}

func TestFirebaseVerifierChecksSignatureAndAudience(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pub := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"k1": pub})
	}))
	defer srv.Close()

	now := time.Now()
	sign := func(aud string) string {
		claims := FirebaseClaims{
			Email: "traveller@example.com",
			Name:  "Traveller",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "uid-1",
				Audience:  jwt.ClaimStrings{aud},
				Issuer:    "https://securetoken.google.com/" + aud,
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		}
		token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
		token.Header["kid"] = "k1"
		raw, err := token.SignedString(key)
		require.NoError(t, err)
		return raw
	}

	v := &FirebaseVerifier{ProjectID: "adventure-buddha", CertsURL: srv.URL}
	claims, err := v.Verify(context.Background(), sign("adventure-buddha"))
	require.NoError(t, err)
	assert.Equal(t, "uid-1", claims.Subject)
	assert.Equal(t, "traveller@example.com", claims.Email)

	_, err = v.Verify(context.Background(), sign("someone-else"))
	assert.Error(t, err)
}
