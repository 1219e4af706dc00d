package sheets

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPrivateKeyPEM(t *testing.T) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	block := &pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}
	return string(pem.EncodeToMemory(block))
}

func writeCredentials(t *testing.T, tokenURI string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials.json")
	creds := `{"client_email":"bot@project.iam.gserviceaccount.com","private_key":` +
		jsonString(testPrivateKeyPEM(t)) + `,"token_uri":"` + tokenURI + `"}`
	require.NoError(t, os.WriteFile(path, []byte(creds), 0o600))
	return path
}

func jsonString(s string) string {
	out := `"`
	for _, r := range s {
		switch r {
		case '\n':
			out += `\n`
		case '"':
			out += `\"`
		case '\\':
			out += `\\`
		default:
			out += string(r)
		}
	}
	return out + `"`
}

func TestLoadServiceAccount(t *testing.T) {
	path := writeCredentials(t, "https://token.example")
	sa, err := loadServiceAccount(path)
	require.NoError(t, err)
	assert.Equal(t, "bot@project.iam.gserviceaccount.com", sa.ClientEmail)
	assert.Equal(t, "https://token.example", sa.TokenURI)
	assert.Contains(t, sa.PrivateKey, "RSA PRIVATE KEY")
}

func TestLoadServiceAccountMissingFile(t *testing.T) {
	_, err := loadServiceAccount(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

func TestLoadServiceAccountIncomplete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"client_email":"x@y"}`), 0o600))
	_, err := loadServiceAccount(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "private_key")
}

func TestTokenSourceExchangesAndCaches(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		require.NoError(t, r.ParseForm())
		assert.Equal(t, jwtBearerGrant, r.Form.Get("grant_type"))
		assert.NotEmpty(t, r.Form.Get("assertion"))
		w.Write([]byte(`{"access_token":"ya29.test","expires_in":3600}`))
	}))
	defer srv.Close()

	sa, err := loadServiceAccount(writeCredentials(t, srv.URL))
	require.NoError(t, err)
	src := newTokenSource(sa, srv.Client())

	token, err := src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ya29.test", token)

	token, err = src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ya29.test", token)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls, "second Token call should hit the cache")
}

func TestTokenSourceRefreshesExpired(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.Write([]byte(`{"access_token":"ya29.test","expires_in":3600}`))
	}))
	defer srv.Close()

	sa, err := loadServiceAccount(writeCredentials(t, srv.URL))
	require.NoError(t, err)
	src := newTokenSource(sa, srv.Client())

	now := time.Now()
	src.now = func() time.Time { return now }
	_, err = src.Token(context.Background())
	require.NoError(t, err)

	src.now = func() time.Time { return now.Add(2 * time.Hour) }
	_, err = src.Token(context.Background())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, calls)
}

func TestTokenSourceErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	sa, err := loadServiceAccount(writeCredentials(t, srv.URL))
	require.NoError(t, err)
	src := newTokenSource(sa, srv.Client())

	_, err = src.Token(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_grant")
}
