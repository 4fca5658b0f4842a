package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionTo(t *testing.T) {
	tests := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusDelivered, false},
		{StatusProcessing, StatusDelivered, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusDelivered, StatusCancelled, false},
		{StatusDelivered, StatusProcessing, false},
		{StatusCancelled, StatusProcessing, false},
		{StatusCancelled, StatusCancelled, true},
		{StatusPending, StatusPending, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			o, err := New("o-1", 10001, validDraft(), time.Now())
			require.NoError(t, err)
			o.Status = tt.from

			err = o.TransitionTo(tt.to, time.Now())
			if !tt.ok {
				assert.ErrorIs(t, err, ErrInvalidStateTransition)
				assert.Equal(t, tt.from, o.Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, o.Status)
			assert.Equal(t, int64(10001), o.Invoice)
		})
	}
}

func TestTransitionToPendingFromProcessingIsRejected(t *testing.T) {
	o, err := New("o-1", 10001, validDraft(), time.Now())
	require.NoError(t, err)
	o.Status = StatusProcessing

	assert.ErrorIs(t, o.TransitionTo(StatusPending, time.Now()), ErrInvalidStateTransition)
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("Delivered")
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, s)

	_, err = ParseStatus("shipped")
	assert.ErrorIs(t, err, ErrInvalidOrder)
}
