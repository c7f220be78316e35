package checkout

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"

	"github.com/lfbag/storefront/pkg/db"
	"github.com/lfbag/storefront/pkg/db/models"
	"github.com/lfbag/storefront/pkg/enums"
)

func TestAttemptRepositoryRecordsAndLists(t *testing.T) {
	conn, err := db.Open(sqlite.Open("file:checkout_attempts?mode=memory&cache=shared"))
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.CheckoutAttempt{}))
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	repo, err := NewAttemptRepository(conn)
	require.NoError(t, err)
	ctx := context.Background()

	for _, status := range []enums.PaymentStatus{enums.PaymentStatusRejected, enums.PaymentStatusApproved} {
		require.NoError(t, repo.Record(ctx, &models.CheckoutAttempt{
			SessionID:      "s1",
			CartID:         "7",
			PaymentMethod:  enums.PaymentMethodPix,
			DeliveryMethod: enums.DeliveryMethodExpress,
			Installments:   1,
			Subtotal:       decimal.RequireFromString("250.00"),
			ShippingFee:    decimal.RequireFromString("20.00"),
			Total:          decimal.RequireFromString("270.00"),
			Status:         status,
			FinalState:     enums.CheckoutStateEditing,
		}))
	}

	attempts, err := repo.ListBySession(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	for _, a := range attempts {
		assert.NotEmpty(t, a.ID.String())
		assert.True(t, a.Total.Equal(decimal.RequireFromString("270")))
	}

	none, err := repo.ListBySession(ctx, "other", 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}
