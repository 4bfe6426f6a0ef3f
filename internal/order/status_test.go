package order

import (
	"context"
	"testing"

	"uziwear-be/internal/catalog"
	"uziwear-be/internal/utils"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStatusEnv(t *testing.T) (StatusService, sqlmock.Sqlmock, *recordingNotifier) {
	t.Helper()

	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	orderRepo := NewRepository(database)
	catalogRepo := catalog.NewRepository(database)
	notifier := &recordingNotifier{}

	return NewStatusService(database, orderRepo, catalogRepo, notifier), mock, notifier
}

// expectOrderLoad queues the header and item queries GetOrderTx issues for an
// order in the given status.
func expectOrderLoad(mock sqlmock.Sqlmock, status OrderStatus, tracking *string, withItem bool) {
	orderRows := sqlmock.NewRows([]string{
		"id", "order_number", "user_id",
		"customer_name", "customer_email", "customer_phone",
		"address", "city", "department", "notes",
		"subtotal", "discount", "coupon_code", "shipping_cost", "total",
		"payment_method", "payment_status", "transaction_id",
		"status", "tracking_number", "carrier",
		"created_at", "updated_at",
	}).AddRow(
		"order-1", "UZI-20250810-0042", utils.GuestUserID,
		"Laura Gomez", "laura@example.com", "3001234567",
		"Calle 10 # 43-12", "Medellin", "Antioquia", nil,
		int64(180000), int64(0), nil, int64(12000), int64(192000),
		"contraentrega", "pendiente", nil,
		status, tracking, nil,
		nowRow(), nowRow(),
	)

	mock.ExpectQuery("SELECT id, order_number, user_id").
		WithArgs("order-1").
		WillReturnRows(orderRows)

	itemRows := sqlmock.NewRows([]string{"order_id", "product_id", "name", "price", "size", "quantity"})
	if withItem {
		itemRows.AddRow("order-1", "prod-1", "Hoodie Oversize", int64(90000), "M", 2)
	}
	mock.ExpectQuery("SELECT order_id, product_id, name, price, size, quantity").
		WithArgs("order-1").
		WillReturnRows(itemRows)
}

func TestStatusService_UpdateStatus_ReturnedRestocksItems(t *testing.T) {
	svc, mock, _ := newStatusEnv(t)

	tracking := "TRK-001"
	mock.ExpectBegin()
	expectOrderLoad(mock, StatusShipped, &tracking, true)
	mock.ExpectExec("UPDATE variants").
		WithArgs(2, "prod-1", "M").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE products").
		WithArgs("prod-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE orders").
		WithArgs(StatusReturned, "order-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := svc.UpdateStatus(context.Background(), "order-1", StatusReturned)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatusService_UpdateStatus_ReturnedIsTerminal(t *testing.T) {
	svc, mock, _ := newStatusEnv(t)

	// A second return attempt finds the order already in devuelto and is
	// rejected before any restock runs.
	mock.ExpectBegin()
	expectOrderLoad(mock, StatusReturned, nil, true)
	mock.ExpectRollback()

	err := svc.UpdateStatus(context.Background(), "order-1", StatusReturned)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatusService_UpdateStatus_ShippedRequiresTracking(t *testing.T) {
	svc, mock, _ := newStatusEnv(t)

	mock.ExpectBegin()
	expectOrderLoad(mock, StatusPreparing, nil, false)
	mock.ExpectRollback()

	err := svc.UpdateStatus(context.Background(), "order-1", StatusShipped)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestStatusService_UpdateStatus_ShippedWithTracking(t *testing.T) {
	svc, mock, _ := newStatusEnv(t)

	tracking := "TRK-001"
	mock.ExpectBegin()
	expectOrderLoad(mock, StatusPreparing, &tracking, false)
	mock.ExpectExec("UPDATE orders").
		WithArgs(StatusShipped, "order-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := svc.UpdateStatus(context.Background(), "order-1", StatusShipped)
	assert.NoError(t, err)
}

func TestStatusService_UpdateStatus_IllegalTransitions(t *testing.T) {
	tests := []struct {
		name string
		from OrderStatus
		to   OrderStatus
	}{
		{"CancelledToShipped", StatusCancelled, StatusShipped},
		{"DeliveredToPreparing", StatusDelivered, StatusPreparing},
		{"ShippedToCancelled", StatusShipped, StatusCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mock, _ := newStatusEnv(t)

			mock.ExpectBegin()
			expectOrderLoad(mock, tt.from, nil, false)
			mock.ExpectRollback()

			err := svc.UpdateStatus(context.Background(), "order-1", tt.to)

			var vErr *ValidationError
			assert.ErrorAs(t, err, &vErr)
		})
	}
}

func TestStatusService_UpdateStatus_UnknownStatus(t *testing.T) {
	svc, mock, _ := newStatusEnv(t)

	err := svc.UpdateStatus(context.Background(), "order-1", "perdido")

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatusService_AttachTracking(t *testing.T) {
	t.Run("PublishesShippedEvent", func(t *testing.T) {
		svc, mock, notifier := newStatusEnv(t)

		mock.ExpectBegin()
		expectOrderLoad(mock, StatusPreparing, nil, false)
		mock.ExpectExec("UPDATE orders").
			WithArgs("TRK-001", "Servientrega", StatusShipped, "order-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := svc.AttachTracking(context.Background(), "order-1", "TRK-001", "Servientrega")
		require.NoError(t, err)

		require.Len(t, notifier.shipped, 1)
		assert.Equal(t, "TRK-001", notifier.shipped[0].TrackingNumber)
		assert.Equal(t, "Servientrega", notifier.shipped[0].Carrier)
		assert.Equal(t, "laura@example.com", notifier.shipped[0].CustomerEmail)
	})

	t.Run("RequiresTrackingNumber", func(t *testing.T) {
		svc, mock, _ := newStatusEnv(t)

		err := svc.AttachTracking(context.Background(), "order-1", "", "Servientrega")

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RejectedForDeliveredOrder", func(t *testing.T) {
		svc, mock, notifier := newStatusEnv(t)

		mock.ExpectBegin()
		expectOrderLoad(mock, StatusDelivered, nil, false)
		mock.ExpectRollback()

		err := svc.AttachTracking(context.Background(), "order-1", "TRK-002", "Servientrega")

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Empty(t, notifier.shipped)
	})
}
