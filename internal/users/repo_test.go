package users

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/kitstore-backend/pkg/db/dbtest"
	"github.com/angelmondragon/kitstore-backend/pkg/db/models"
	"github.com/angelmondragon/kitstore-backend/pkg/enums"
)

func TestRepositoryCreateAndFind(t *testing.T) {
	conn := dbtest.Open(t, &models.User{})
	repo := NewRepository(conn)
	ctx := context.Background()

	user, err := repo.Create(ctx, CreateUserDTO{Email: "fan@example.com", PasswordHash: "h", FirstName: "Ama"})
	require.NoError(t, err)
	assert.Equal(t, enums.UserRoleCustomer, user.Role)
	assert.True(t, user.IsActive)

	found, err := repo.FindByEmail(ctx, "fan@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.UpdateLastLogin(ctx, user.ID, at))
	found, err = repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, found.LastLoginAt)
}

func TestRepositoryListCustomersCountsOrders(t *testing.T) {
	conn := dbtest.Open(t, &models.User{}, &models.Order{}, &models.OrderStatusEntry{})
	repo := NewRepository(conn)
	ctx := context.Background()

	buyer, err := repo.Create(ctx, CreateUserDTO{Email: "buyer@example.com", PasswordHash: "h"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, CreateUserDTO{Email: "browser@example.com", PasswordHash: "h"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, CreateUserDTO{Email: "admin@example.com", PasswordHash: "h", Role: enums.UserRoleAdmin})
	require.NoError(t, err)

	for _, id := range []string{"KS-1", "KS-2"} {
		require.NoError(t, conn.Create(&models.Order{
			ID:       id,
			UserID:   &buyer.ID,
			Status:   enums.OrderStatusSubmitted,
			Subtotal: decimal.Zero, ShippingCost: decimal.Zero, Tax: decimal.Zero, Total: decimal.Zero,
		}).Error)
	}

	page, err := repo.ListCustomers(ctx, nil, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)

	counts := map[string]int64{}
	for _, c := range page.Items {
		counts[c.Email] = c.OrderCount
	}
	assert.Equal(t, int64(2), counts["buyer@example.com"])
	assert.Equal(t, int64(0), counts["browser@example.com"])

	admins, err := repo.CountByRole(ctx, enums.UserRoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), admins)
}
