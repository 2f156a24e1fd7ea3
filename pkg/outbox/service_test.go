package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/kitstore-backend/pkg/db/dbtest"
	"github.com/angelmondragon/kitstore-backend/pkg/db/models"
	"github.com/angelmondragon/kitstore-backend/pkg/enums"
	"github.com/angelmondragon/kitstore-backend/pkg/logger"
)

func TestEmitWritesEnvelope(t *testing.T) {
	conn := dbtest.Open(t, &models.OutboxEvent{})
	repo := NewRepository(conn)
	svc := NewService(repo, logger.Nop())

	err := conn.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   "KS-1",
			Actor:         &ActorRef{UserID: "u-1", Role: "customer"},
			Data:          map[string]string{"orderId": "KS-1"},
		})
	})
	require.NoError(t, err)

	var rows []models.OutboxEvent
	require.NoError(t, conn.Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, "KS-1", rows[0].AggregateID)

	var env PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &env))
	require.Equal(t, CurrentVersion, env.Version)
	require.NotEmpty(t, env.EventID)
	require.Equal(t, "u-1", env.Actor.UserID)
	require.JSONEq(t, `{"orderId":"KS-1"}`, string(env.Data))
}

func TestEmitValidation(t *testing.T) {
	conn := dbtest.Open(t, &models.OutboxEvent{})
	svc := NewService(NewRepository(conn), logger.Nop())
	ctx := context.Background()

	require.Error(t, svc.Emit(ctx, nil, DomainEvent{EventType: enums.EventOrderCreated, AggregateID: "x"}))
	require.Error(t, svc.Emit(ctx, conn, DomainEvent{EventType: "nope", AggregateID: "x"}))
	require.Error(t, svc.Emit(ctx, conn, DomainEvent{EventType: enums.EventOrderCreated}))
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	conn := dbtest.Open(t, &models.OutboxEvent{})
	repo := NewRepository(conn)

	first := models.OutboxEvent{EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder, AggregateID: "a", Payload: json.RawMessage(`{}`)}
	second := models.OutboxEvent{EventType: enums.EventOrderStatusChanged, AggregateType: enums.AggregateOrder, AggregateID: "a", Payload: json.RawMessage(`{}`)}
	require.NoError(t, conn.Create(&first).Error)
	require.NoError(t, conn.Create(&second).Error)

	exists, err := repo.ExistsTx(conn, enums.EventOrderCreated, enums.AggregateOrder, "a")
	require.NoError(t, err)
	require.True(t, exists)

	require.NoError(t, repo.MarkPublishedTx(conn, first.ID))
	require.NoError(t, repo.MarkFailedTx(conn, second.ID, errors.New("transient")))

	pending, err := repo.FetchUnpublishedForPublish(conn, 10, 3)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, second.ID, pending[0].ID)
	require.Equal(t, 1, pending[0].AttemptCount)

	require.NoError(t, repo.MarkTerminalTx(conn, second.ID, errors.New("gave up"), 3))
	pending, err = repo.FetchUnpublishedForPublish(conn, 10, 3)
	require.NoError(t, err)
	require.Empty(t, pending)

	deleted, err := repo.DeletePublishedBefore(context.Background(), time.Now().Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)
}
