package billing

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v82"
)

// Event is a verified, decoded webhook event. The concrete type is one of
// *CheckoutCompleted, *SubscriptionUpdated, *SubscriptionDeleted,
// *PaymentFailed or *Unrecognized.
type Event interface {
	Meta() EventMeta
	isEvent()
}

// EventMeta carries the envelope fields shared by every event.
type EventMeta struct {
	ID      string
	Type    stripe.EventType
	Created time.Time
}

func (m EventMeta) Meta() EventMeta { return m }
func (EventMeta) isEvent()          {}

// CheckoutCompleted is checkout.session.completed.
type CheckoutCompleted struct {
	EventMeta
	SessionID         string
	CustomerID        string
	SubscriptionID    string
	ClientReferenceID string
	Metadata          map[string]string
}

// TenantRef returns the raw tenant identifier attached to the session.
func (e *CheckoutCompleted) TenantRef() string {
	return firstNonEmpty(e.Metadata["tenantId"], e.Metadata["tenant_id"], e.ClientReferenceID)
}

// PlanRef returns the raw plan hint from the session metadata. It may be a
// tier name or a price id.
func (e *CheckoutCompleted) PlanRef() string {
	return firstNonEmpty(e.Metadata["planId"], e.Metadata["plan_id"])
}

// SubscriptionUpdated is customer.subscription.updated.
type SubscriptionUpdated struct {
	EventMeta
	SubscriptionID     string
	CustomerID         string
	Status             Status
	PriceID            string
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CanceledAt         *time.Time
}

// SubscriptionDeleted is customer.subscription.deleted.
type SubscriptionDeleted struct {
	EventMeta
	SubscriptionID string
	CustomerID     string
	CanceledAt     *time.Time
	EndedAt        *time.Time
}

// CancellationTime is the moment the subscription ended. It falls back to the
// event creation time so that redelivery always yields the same value, and is
// zero only when the envelope carried no creation time either.
func (e *SubscriptionDeleted) CancellationTime() time.Time {
	switch {
	case e.CanceledAt != nil:
		return *e.CanceledAt
	case e.EndedAt != nil:
		return *e.EndedAt
	default:
		return e.Created
	}
}

// PaymentFailed is invoice.payment_failed.
type PaymentFailed struct {
	EventMeta
	InvoiceID      string
	CustomerID     string
	SubscriptionID string
	AttemptCount   int64
	AmountDue      int64
	Currency       string
}

// Unrecognized is any event type without a lifecycle handler.
type Unrecognized struct {
	EventMeta
	Object map[string]any
}

// ParseEvent decodes a verified payload into its typed variant. Unknown event
// types are returned as *Unrecognized, never as an error.
func ParseEvent(payload []byte) (Event, error) {
	var env stripe.Event
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, malformed(err)
	}
	if env.Type == "" {
		return nil, malformed(errors.New("missing event type"))
	}

	meta := EventMeta{ID: env.ID, Type: env.Type}
	if env.Created > 0 {
		meta.Created = time.Unix(env.Created, 0).UTC()
	}

	var raw json.RawMessage
	if env.Data != nil && len(env.Data.Raw) > 0 && !bytes.Equal(env.Data.Raw, []byte("null")) {
		raw = env.Data.Raw
	}
	if raw == nil {
		if !isHandled(env.Type) {
			return &Unrecognized{EventMeta: meta}, nil
		}
		return nil, malformed(errors.New("missing data.object"))
	}

	switch env.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var obj checkoutSessionObject
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, malformed(err)
		}
		return &CheckoutCompleted{
			EventMeta:         meta,
			SessionID:         obj.ID,
			CustomerID:        string(obj.Customer),
			SubscriptionID:    string(obj.Subscription),
			ClientReferenceID: obj.ClientReferenceID,
			Metadata:          obj.Metadata,
		}, nil

	case stripe.EventTypeCustomerSubscriptionUpdated:
		var obj subscriptionObject
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, malformed(err)
		}
		start, end := obj.period()
		return &SubscriptionUpdated{
			EventMeta:          meta,
			SubscriptionID:     obj.ID,
			CustomerID:         string(obj.Customer),
			Status:             Status(obj.Status),
			PriceID:            obj.priceID(),
			CurrentPeriodStart: start,
			CurrentPeriodEnd:   end,
			CanceledAt:         unixTime(obj.CanceledAt),
		}, nil

	case stripe.EventTypeCustomerSubscriptionDeleted:
		var obj subscriptionObject
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, malformed(err)
		}
		return &SubscriptionDeleted{
			EventMeta:      meta,
			SubscriptionID: obj.ID,
			CustomerID:     string(obj.Customer),
			CanceledAt:     unixTime(obj.CanceledAt),
			EndedAt:        unixTime(obj.EndedAt),
		}, nil

	case stripe.EventTypeInvoicePaymentFailed:
		var obj invoiceObject
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, malformed(err)
		}
		return &PaymentFailed{
			EventMeta:      meta,
			InvoiceID:      obj.ID,
			CustomerID:     string(obj.Customer),
			SubscriptionID: obj.subscriptionID(),
			AttemptCount:   obj.AttemptCount,
			AmountDue:      obj.AmountDue,
			Currency:       obj.Currency,
		}, nil

	default:
		var obj map[string]any
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, malformed(err)
		}
		return &Unrecognized{EventMeta: meta, Object: obj}, nil
	}
}

// isHandled reports whether t has a lifecycle handler and therefore needs
// data.object.
func isHandled(t stripe.EventType) bool {
	switch t {
	case stripe.EventTypeCheckoutSessionCompleted,
		stripe.EventTypeCustomerSubscriptionUpdated,
		stripe.EventTypeCustomerSubscriptionDeleted,
		stripe.EventTypeInvoicePaymentFailed:
		return true
	}
	return false
}

func malformed(err error) error {
	return errors.Join(ErrMalformedPayload, err)
}

// expandableID decodes a reference that the provider sends either as a bare
// id string or, when expanded, as an object with an id field.
type expandableID string

func (x *expandableID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*x = ""
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*x = expandableID(s)
		return nil
	case data[0] == '{':
		var obj struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*x = expandableID(obj.ID)
		return nil
	default:
		return fmt.Errorf("unexpected reference value %s", data)
	}
}

type checkoutSessionObject struct {
	ID                string            `json:"id"`
	Customer          expandableID      `json:"customer"`
	Subscription      expandableID      `json:"subscription"`
	ClientReferenceID string            `json:"client_reference_id"`
	Metadata          map[string]string `json:"metadata"`
}

type idObject struct {
	ID string `json:"id"`
}

type subscriptionItem struct {
	Price              *idObject `json:"price"`
	Plan               *idObject `json:"plan"`
	CurrentPeriodStart *int64    `json:"current_period_start"`
	CurrentPeriodEnd   *int64    `json:"current_period_end"`
}

type subscriptionObject struct {
	ID                 string       `json:"id"`
	Customer           expandableID `json:"customer"`
	Status             string       `json:"status"`
	CurrentPeriodStart *int64       `json:"current_period_start"`
	CurrentPeriodEnd   *int64       `json:"current_period_end"`
	CanceledAt         *int64       `json:"canceled_at"`
	EndedAt            *int64       `json:"ended_at"`
	Plan               *idObject    `json:"plan"`
	Items              struct {
		Data []subscriptionItem `json:"data"`
	} `json:"items"`
}

// priceID prefers the first item's price, then the legacy plan fields.
func (s subscriptionObject) priceID() string {
	if len(s.Items.Data) > 0 {
		item := s.Items.Data[0]
		if item.Price != nil && item.Price.ID != "" {
			return item.Price.ID
		}
		if item.Plan != nil && item.Plan.ID != "" {
			return item.Plan.ID
		}
	}
	if s.Plan != nil {
		return s.Plan.ID
	}
	return ""
}

// period reads the top-level billing period and falls back to the first item,
// where newer API versions moved it.
func (s subscriptionObject) period() (start, end *time.Time) {
	startTS, endTS := s.CurrentPeriodStart, s.CurrentPeriodEnd
	if len(s.Items.Data) > 0 {
		if startTS == nil {
			startTS = s.Items.Data[0].CurrentPeriodStart
		}
		if endTS == nil {
			endTS = s.Items.Data[0].CurrentPeriodEnd
		}
	}
	return unixTime(startTS), unixTime(endTS)
}

type invoiceObject struct {
	ID           string       `json:"id"`
	Customer     expandableID `json:"customer"`
	Subscription expandableID `json:"subscription"`
	AttemptCount int64        `json:"attempt_count"`
	AmountDue    int64        `json:"amount_due"`
	Currency     string       `json:"currency"`
	Parent       *struct {
		SubscriptionDetails *struct {
			Subscription expandableID `json:"subscription"`
		} `json:"subscription_details"`
	} `json:"parent"`
}

func (i invoiceObject) subscriptionID() string {
	if i.Subscription != "" {
		return string(i.Subscription)
	}
	if i.Parent != nil && i.Parent.SubscriptionDetails != nil {
		return string(i.Parent.SubscriptionDetails.Subscription)
	}
	return ""
}

func unixTime(ts *int64) *time.Time {
	if ts == nil || *ts == 0 {
		return nil
	}
	t := time.Unix(*ts, 0).UTC()
	return &t
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
