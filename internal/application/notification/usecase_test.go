package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subham007-coder/Supar-Admin-Backend/internal/application"
	domain "github.com/subham007-coder/Supar-Admin-Backend/internal/domain/notification"
	"github.com/subham007-coder/Supar-Admin-Backend/internal/domain/order"
)

type recordingNotifier struct {
	got   []domain.Confirmation
	err   error
	block bool
}

func (n *recordingNotifier) OrderConfirmation(ctx context.Context, c domain.Confirmation) error {
	if n.block {
		<-ctx.Done()
		return ctx.Err()
	}
	n.got = append(n.got, c)
	return n.err
}

var merchant = domain.Merchant{Company: "AR Lashes", FromEmail: "orders@example.com"}

func placed(email string) *order.Order {
	return &order.Order{ID: "o-1", Invoice: 10000, UserInfo: order.UserInfo{Name: "Asha", Email: email}}
}

func TestSendConfirmationAttachesMerchant(t *testing.T) {
	n := &recordingNotifier{}
	uc := NewSendOrderConfirmationUseCase(n, merchant, time.Second, nil)

	res, err := uc.Execute(context.Background(), SendConfirmationInput{Order: placed("Asha <asha@example.com>")})
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", res.Recipient)
	require.Len(t, n.got, 1)
	assert.Equal(t, merchant, n.got[0].Merchant)
	assert.Equal(t, int64(10000), n.got[0].Order.Invoice)
}

func TestSendConfirmationRejectsBadRecipient(t *testing.T) {
	n := &recordingNotifier{}
	uc := NewSendOrderConfirmationUseCase(n, merchant, time.Second, nil)

	for _, email := range []string{"", "not-an-address"} {
		_, err := uc.Execute(context.Background(), SendConfirmationInput{Order: placed(email)})
		assert.Equal(t, application.KindValidation, application.KindOf(err), email)
		assert.ErrorIs(t, err, ErrMissingRecipient)
	}
	_, err := uc.Execute(context.Background(), SendConfirmationInput{})
	assert.Equal(t, application.KindValidation, application.KindOf(err))
	assert.Empty(t, n.got)
}

func TestSendConfirmationClassifiesNotifierFailure(t *testing.T) {
	boom := errors.New("smtp down")
	uc := NewSendOrderConfirmationUseCase(&recordingNotifier{err: boom}, merchant, time.Second, nil)

	_, err := uc.Execute(context.Background(), SendConfirmationInput{Order: placed("asha@example.com")})
	assert.Equal(t, application.KindDependency, application.KindOf(err))
	assert.ErrorIs(t, err, boom)
}

func TestSendConfirmationTimesOut(t *testing.T) {
	uc := NewSendOrderConfirmationUseCase(&recordingNotifier{block: true}, merchant, 20*time.Millisecond, nil)

	_, err := uc.Execute(context.Background(), SendConfirmationInput{Order: placed("asha@example.com")})
	assert.Equal(t, application.KindDependency, application.KindOf(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
