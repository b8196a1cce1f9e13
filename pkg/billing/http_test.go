package billing_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/clinicdesk/pkg/billing"
	"github.com/dmitrymomot/clinicdesk/pkg/webhook"
)

func newRequest(payload, signature string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(webhook.Header, signature)
	}
	return req
}

func TestWebhookHandler(t *testing.T) {
	t.Parallel()

	deleted := `{"id":"evt_1","type":"customer.subscription.deleted","data":{"object":{"customer":"cus_1","id":"sub_1"}}}`

	t.Run("processes a valid delivery", func(t *testing.T) {
		t.Parallel()

		tenantID := uuid.New()
		f := newFixture(t, []billing.Tenant{{ID: tenantID, Plan: billing.PlanPro, StripeCustomerID: "cus_1", SubscriptionStatus: billing.StatusActive}})
		h := billing.NewWebhookHandler(f.processor, 0, nil)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, newRequest(deleted, sign(deleted)))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"received":true}`, rec.Body.String())

		tenant, _ := f.store.Tenant(tenantID)
		assert.Equal(t, billing.PlanBasic, tenant.Plan)
		assert.Equal(t, billing.StatusCanceled, tenant.SubscriptionStatus)
	})

	t.Run("rejects altered signature without mutation", func(t *testing.T) {
		t.Parallel()

		tenantID := uuid.New()
		f := newFixture(t, []billing.Tenant{{ID: tenantID, Plan: billing.PlanPro, StripeCustomerID: "cus_1", SubscriptionStatus: billing.StatusActive}})
		h := billing.NewWebhookHandler(f.processor, 0, nil)

		header := sign(deleted)
		altered := header[:len(header)-1] + "0"
		if altered == header {
			altered = header[:len(header)-1] + "1"
		}

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, newRequest(deleted, altered))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"invalid signature"}`, rec.Body.String())

		tenant, _ := f.store.Tenant(tenantID)
		assert.Equal(t, billing.PlanPro, tenant.Plan)
		assert.Equal(t, billing.StatusActive, tenant.SubscriptionStatus)
	})

	t.Run("rejects missing signature", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		h := billing.NewWebhookHandler(f.processor, 0, nil)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, newRequest(deleted, ""))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"invalid signature"}`, rec.Body.String())
	})

	t.Run("malformed payload with valid signature", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		h := billing.NewWebhookHandler(f.processor, 0, nil)

		body := `not json`
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, newRequest(body, sign(body)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"malformed payload"}`, rec.Body.String())
	})

	t.Run("body over limit", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		h := billing.NewWebhookHandler(f.processor, 0, nil)

		body := bytes.Repeat([]byte("a"), billing.MaxBodyBytes+1)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, newRequest(string(body), "t=1,v1=00"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unconfigured secret", func(t *testing.T) {
		t.Parallel()

		store := billing.NewMemoryStore()
		p, err := billing.NewProcessor(billing.Config{}, store, store)
		require.NoError(t, err)
		h := billing.NewWebhookHandler(p, 0, nil)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, newRequest(deleted, sign(deleted)))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"webhook secret not configured"}`, rec.Body.String())
	})

	t.Run("primary write failure", func(t *testing.T) {
		t.Parallel()

		tenants := &mockTenantStore{}
		tenants.On("UpdateTenantsByCustomer", mock.Anything, "cus_1", mock.Anything).Return(nil, errors.New("timeout")).Once()
		p, err := billing.NewProcessor(testConfig(), tenants, &mockSubscriptionStore{}, billing.WithClock(clock))
		require.NoError(t, err)
		h := billing.NewWebhookHandler(p, 0, nil)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, newRequest(deleted, sign(deleted)))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"processing failed"}`, rec.Body.String())
		assert.NotContains(t, rec.Body.String(), "timeout")
	})

	t.Run("unknown type is acknowledged", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		h := billing.NewWebhookHandler(f.processor, 0, nil)

		body := `{"id":"evt_x","type":"payout.paid","data":{"object":{"id":"po_1"}}}`
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, newRequest(body, sign(body)))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"received":true}`, rec.Body.String())
	})
}

type ctxCheckingStore struct {
	*billing.MemoryStore
	ctxErr error
}

func (s *ctxCheckingStore) UpdateTenantsByCustomer(ctx context.Context, customerID string, patch billing.TenantPatch) ([]billing.Tenant, error) {
	s.ctxErr = ctx.Err()
	return s.MemoryStore.UpdateTenantsByCustomer(ctx, customerID, patch)
}

func TestWebhookHandler_DetachedFromClientCancel(t *testing.T) {
	t.Parallel()

	store := &ctxCheckingStore{MemoryStore: billing.NewMemoryStore(billing.Tenant{ID: uuid.New(), StripeCustomerID: "cus_1"})}
	p, err := billing.NewProcessor(testConfig(), store, store, billing.WithClock(clock))
	require.NoError(t, err)
	h := billing.NewWebhookHandler(p, 0, nil)

	body := `{"id":"evt_1","type":"invoice.payment_failed","data":{"object":{"id":"in_1","customer":"cus_1"}}}`
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, newRequest(body, sign(body)).WithContext(ctx))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, store.ctxErr)
}
