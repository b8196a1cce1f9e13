package mongo_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	driver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/clinicdesk/pkg/audit"
	"github.com/dmitrymomot/clinicdesk/pkg/mongo"
)

type mockCollection struct {
	mock.Mock
}

func (m *mockCollection) InsertOne(ctx context.Context, document any, _ ...options.Lister[options.InsertOneOptions]) (*driver.InsertOneResult, error) {
	args := m.Called(ctx, document)
	res, _ := args.Get(0).(*driver.InsertOneResult)
	return res, args.Error(1)
}

func TestAuditStorage_Store(t *testing.T) {
	t.Parallel()

	event := audit.Event{
		ID:        "0b0c6a4e-7a8f-4d47-9f4e-8c7d7c1d1a11",
		TenantID:  "tenant-1",
		Action:    "payment_failed",
		Entity:    "invoice",
		EntityID:  "in_1",
		Details:   map[string]any{"attempt_count": int64(2), "amount_due": int64(500)},
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	coll := &mockCollection{}
	coll.On("InsertOne", mock.Anything, event).Return(&driver.InsertOneResult{InsertedID: event.ID}, nil).Once()

	storage := mongo.NewAuditStorageForTest(coll)
	require.NoError(t, storage.Store(context.Background(), event))
	coll.AssertExpectations(t)

	raw, err := bson.Marshal(event)
	require.NoError(t, err)

	var doc bson.M
	require.NoError(t, bson.Unmarshal(raw, &doc))
	assert.Equal(t, event.ID, doc["_id"])
	assert.Equal(t, "tenant-1", doc["tenant_id"])
	assert.Equal(t, "payment_failed", doc["action"])
	assert.NotContains(t, doc, "request_id")
}

func TestAuditStorage_StoreError(t *testing.T) {
	t.Parallel()

	boom := errors.New("no primary")
	coll := &mockCollection{}
	coll.On("InsertOne", mock.Anything, mock.Anything).Return(nil, boom).Once()

	err := mongo.NewAuditStorageForTest(coll).Store(context.Background(), audit.Event{Action: "a", Entity: "b"})
	require.ErrorIs(t, err, boom)
}

func TestNew_EmptyURL(t *testing.T) {
	t.Parallel()

	_, err := mongo.New(context.Background(), mongo.Config{})
	require.ErrorIs(t, err, mongo.ErrEmptyConnectionURL)
}
