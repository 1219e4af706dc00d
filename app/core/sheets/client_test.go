package sheets

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type staticTokens struct{}

func (staticTokens) Token(context.Context) (string, error) { return "test-bearer", nil }

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &Client{
		baseURL:       srv.URL,
		spreadsheetID: "sheet-id",
		client:        srv.Client(),
		tokens:        staticTokens{},
		log:           zerolog.Nop(),
	}
}

func TestClientAppend(t *testing.T) {
	var mu sync.Mutex
	var gotPath, gotAuth string
	var gotBody []byte
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		mu.Unlock()
		w.Write([]byte(`{}`))
	})

	err := c.Append(context.Background(), "Tasks", []interface{}{1, "починить принтер", "Новая"})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "/v4/spreadsheets/sheet-id/values/Tasks:append?valueInputOption=USER_ENTERED", gotPath)
	assert.Equal(t, "Bearer test-bearer", gotAuth)
	row := gjson.GetBytes(gotBody, "values.0")
	assert.Equal(t, int64(1), row.Get("0").Int())
	assert.Equal(t, "починить принтер", row.Get("1").String())
	assert.Equal(t, "Новая", row.Get("2").String())
}

func TestClientRows(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v4/spreadsheets/sheet-id/values/Tasks!A2:K", r.URL.Path)
		w.Write([]byte(`{"range":"Tasks!A2:K","values":[["1","почта","2026-01-02 10:00:00"],["2","принтер"]]}`))
	})

	rows, err := c.Rows(context.Background(), "Tasks!A2:K")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"1", "почта", "2026-01-02 10:00:00"}, rows[0])
	assert.Equal(t, []string{"2", "принтер"}, rows[1])
}

func TestClientRowsEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"range":"Tasks!A2:K"}`))
	})

	rows, err := c.Rows(context.Background(), "Tasks!A2:K")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestClientUpdate(t *testing.T) {
	var mu sync.Mutex
	var gotMethod, gotPath string
	var gotBody []byte
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		mu.Unlock()
		w.Write([]byte(`{}`))
	})

	err := c.Update(context.Background(), "Tasks!F5", "Выполнена")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/v4/spreadsheets/sheet-id/values/Tasks!F5", gotPath)
	assert.Equal(t, "Выполнена", gjson.GetBytes(gotBody, "values.0.0").String())
}

func TestClientErrorStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"status":"PERMISSION_DENIED"}}`, http.StatusForbidden)
	})

	_, err := c.Rows(context.Background(), "Tasks!A2:K")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=403")
}

func TestNewClientRequiresSpreadsheetID(t *testing.T) {
	_, err := NewClient("creds.json", "  ", zerolog.Nop(), Options{})
	require.Error(t, err)
}
