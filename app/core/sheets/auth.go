package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tidwall/gjson"
)

const (
	spreadsheetsScope = "https://www.googleapis.com/auth/spreadsheets"
	jwtBearerGrant    = "urn:ietf:params:oauth:grant-type:jwt-bearer"
	defaultTokenURI   = "https://oauth2.googleapis.com/token"
)

type serviceAccount struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	TokenURI    string `json:"token_uri"`
}

func loadServiceAccount(path string) (serviceAccount, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return serviceAccount{}, fmt.Errorf("read credentials: %w", err)
	}
	var sa serviceAccount
	if err := json.Unmarshal(raw, &sa); err != nil {
		return serviceAccount{}, fmt.Errorf("parse credentials: %w", err)
	}
	if sa.ClientEmail == "" || sa.PrivateKey == "" {
		return serviceAccount{}, fmt.Errorf("credentials missing client_email or private_key")
	}
	if sa.TokenURI == "" {
		sa.TokenURI = defaultTokenURI
	}
	return sa, nil
}

// tokenSource exchanges a signed service-account assertion for a bearer
// token and caches it until shortly before expiry.
type tokenSource struct {
	account serviceAccount
	client  *http.Client
	now     func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

func newTokenSource(account serviceAccount, client *http.Client) *tokenSource {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &tokenSource{account: account, client: client, now: time.Now}
}

func (s *tokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.now().Before(s.expires) {
		return s.token, nil
	}

	assertion, err := s.assertion()
	if err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("grant_type", jwtBearerGrant)
	form.Set("assertion", assertion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.account.TokenURI, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("token request status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	token := gjson.GetBytes(body, "access_token").String()
	if token == "" {
		return "", fmt.Errorf("token response missing access_token")
	}
	lifetime := gjson.GetBytes(body, "expires_in").Int()
	if lifetime <= 0 {
		lifetime = 3600
	}

	s.token = token
	s.expires = s.now().Add(time.Duration(lifetime)*time.Second - time.Minute)
	return s.token, nil
}

func (s *tokenSource) assertion() (string, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(s.account.PrivateKey))
	if err != nil {
		return "", fmt.Errorf("parse private key: %w", err)
	}
	now := s.now()
	claims := jwt.MapClaims{
		"iss":   s.account.ClientEmail,
		"scope": spreadsheetsScope,
		"aud":   s.account.TokenURI,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign assertion: %w", err)
	}
	return signed, nil
}
