package postgrest_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/clinicdesk/pkg/postgrest"
)

type row struct {
	ID   string `json:"id"`
	Plan string `json:"plan"`
}

func newClient(t *testing.T, h http.HandlerFunc) *postgrest.Client {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := postgrest.New(postgrest.Config{URL: srv.URL + "/rest/v1/", Key: "service-key"})
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := postgrest.New(postgrest.Config{})
	require.ErrorIs(t, err, postgrest.ErrNotConfigured)

	_, err = postgrest.New(postgrest.Config{URL: "http://localhost"})
	require.ErrorIs(t, err, postgrest.ErrNotConfigured)

	_, err = postgrest.New(postgrest.Config{URL: "not a url", Key: "k"})
	require.ErrorIs(t, err, postgrest.ErrInvalidURL)
}

func TestClient_Update(t *testing.T) {
	t.Parallel()

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/rest/v1/tenants", r.URL.Path)
		assert.Equal(t, "eq.cus_1", r.URL.Query().Get("stripe_customer_id"))
		assert.Equal(t, "id,plan", r.URL.Query().Get("select"))
		assert.Equal(t, "service-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"plan": "basic"}, body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"id":"t1","plan":"basic"},{"id":"t2","plan":"basic"}]`)
	})

	var rows []row
	err := c.Update(context.Background(), "tenants", postgrest.Request{
		Filter: map[string]string{"stripe_customer_id": postgrest.Eq("cus_1")},
		Body:   map[string]any{"plan": "basic"},
		Select: "id,plan",
	}, &rows)
	require.NoError(t, err)
	assert.Equal(t, []row{{"t1", "basic"}, {"t2", "basic"}}, rows)
}

func TestClient_InsertWithPrefer(t *testing.T) {
	t.Parallel()

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "return=representation,resolution=merge-duplicates", r.Header.Get("Prefer"))
		assert.Equal(t, "stripe_subscription_id", r.URL.Query().Get("on_conflict"))
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `[{"id":"s1"}]`)
	})

	var rows []row
	err := c.Insert(context.Background(), "subscriptions", postgrest.Request{
		Body:       map[string]any{"id": "s1"},
		Prefer:     []string{"resolution=merge-duplicates"},
		OnConflict: "stripe_subscription_id",
	}, &rows)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestClient_Select(t *testing.T) {
	t.Parallel()

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Empty(t, r.Header.Get("Prefer"))
		_, _ = io.WriteString(w, `[]`)
	})

	var rows []row
	require.NoError(t, c.Select(context.Background(), "tenants", postgrest.Request{}, &rows))
	assert.Empty(t, rows)
}

func TestClient_Errors(t *testing.T) {
	t.Parallel()

	t.Run("api error", func(t *testing.T) {
		t.Parallel()

		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			_, _ = io.WriteString(w, `{"code":"23505","message":"duplicate key value violates unique constraint"}`)
		})

		err := c.Insert(context.Background(), "webhook_events", postgrest.Request{Body: map[string]any{}}, nil)
		require.ErrorIs(t, err, postgrest.ErrRequestFailed)
		require.ErrorIs(t, err, postgrest.ErrUniqueViolation)

		var apiErr *postgrest.Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusConflict, apiErr.Status)
	})

	t.Run("non json error body", func(t *testing.T) {
		t.Parallel()

		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad gateway", http.StatusBadGateway)
		})

		err := c.Update(context.Background(), "tenants", postgrest.Request{}, nil)
		var apiErr *postgrest.Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "Bad Gateway", apiErr.Message)
		assert.NotErrorIs(t, err, postgrest.ErrUniqueViolation)
	})

	t.Run("undecodable rows", func(t *testing.T) {
		t.Parallel()

		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"not":"an array"}`)
		})

		var rows []row
		err := c.Select(context.Background(), "tenants", postgrest.Request{}, &rows)
		require.ErrorIs(t, err, postgrest.ErrDecodeResponse)
	})

	t.Run("invalid table", func(t *testing.T) {
		t.Parallel()

		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("request must not be sent")
		})

		err := c.Select(context.Background(), "tenants?select=*", postgrest.Request{}, nil)
		require.ErrorIs(t, err, postgrest.ErrInvalidTable)
	})
}
