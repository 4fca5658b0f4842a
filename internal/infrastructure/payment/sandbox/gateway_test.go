package sandbox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dompay "github.com/subham007-coder/Supar-Admin-Backend/internal/domain/payment"
)

func TestGatewayLifecycle(t *testing.T) {
	ctx := context.Background()
	g := New()

	created, err := g.Create(ctx, dompay.CreateParams{Amount: 1000, Currency: "inr"})
	require.NoError(t, err)
	assert.Contains(t, created.ID, "pi_")
	assert.Equal(t, "INR", created.Currency)

	updated, err := g.UpdateAmount(ctx, created.ID, 2000)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), updated.Amount)

	g.intents[created.ID].Status = dompay.StatusSucceeded
	_, err = g.UpdateAmount(ctx, created.ID, 3000)
	assert.Error(t, err)

	_, err = g.Retrieve(ctx, "pi_missing")
	assert.ErrorIs(t, err, dompay.ErrIntentNotFound)
}
