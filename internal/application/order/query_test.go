package order

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subham007-coder/Supar-Admin-Backend/internal/application"
	domain "github.com/subham007-coder/Supar-Admin-Backend/internal/domain/order"
)

func TestGetOrder(t *testing.T) {
	f := newFixture(t, nil, PolicyLenient)
	placed, err := f.uc.Execute(context.Background(), glueOrder(1))
	require.NoError(t, err)

	get := NewGetOrderUseCase(f.orders, time.Second, nil)

	o, err := get.Execute(context.Background(), placed.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, placed.Order.Invoice, o.Invoice)

	_, err = get.Execute(context.Background(), "missing")
	assert.Equal(t, application.KindNotFound, application.KindOf(err))

	_, err = get.Execute(context.Background(), "")
	assert.Equal(t, application.KindValidation, application.KindOf(err))
}

func TestListUserOrders(t *testing.T) {
	f := newFixture(t, nil, PolicyLenient)
	for range 3 {
		_, err := f.uc.Execute(context.Background(), glueOrder(1))
		require.NoError(t, err)
	}
	list := NewListUserOrdersUseCase(f.orders, time.Second, nil)

	res, err := list.Execute(context.Background(), ListUserOrdersInput{UserID: "user-1", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.TotalDocs)
	assert.Len(t, res.Orders, 2)
	assert.Equal(t, domain.Page{Number: 1, Limit: 2}, res.Page)
	assert.Equal(t, int64(3), res.Summary[domain.StatusPending].Count)
	assert.Equal(t, 3*glueOrder(1).Totals.Total, res.Summary[domain.StatusPending].Amount)

	_, err = list.Execute(context.Background(), ListUserOrdersInput{})
	assert.Equal(t, application.KindValidation, application.KindOf(err))
}

func TestUpdateOrderStatus(t *testing.T) {
	f := newFixture(t, nil, PolicyLenient)
	placed, err := f.uc.Execute(context.Background(), glueOrder(1))
	require.NoError(t, err)
	update := NewUpdateOrderStatusUseCase(f.orders, time.Second, nil)

	o, err := update.Execute(context.Background(), UpdateStatusInput{OrderID: placed.Order.ID, Status: "processing"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, o.Status)
	assert.Equal(t, placed.Order.Invoice, o.Invoice)

	_, err = update.Execute(context.Background(), UpdateStatusInput{OrderID: placed.Order.ID, Status: "pending"})
	assert.Equal(t, application.KindConflict, application.KindOf(err))

	_, err = update.Execute(context.Background(), UpdateStatusInput{OrderID: placed.Order.ID, Status: "shipped"})
	assert.Equal(t, application.KindValidation, application.KindOf(err))

	_, err = update.Execute(context.Background(), UpdateStatusInput{OrderID: "missing", Status: "cancelled"})
	assert.Equal(t, application.KindNotFound, application.KindOf(err))
}
