package model_test

import (
	"testing"

	"github.com/henriquelv/pharma-well-care/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatus_LegalTransitions(t *testing.T) {
	cases := []struct {
		from, to model.OrderStatus
	}{
		{model.OrderStatusPending, model.OrderStatusConfirmed},
		{model.OrderStatusConfirmed, model.OrderStatusPreparing},
		{model.OrderStatusPreparing, model.OrderStatusDelivered},
		{model.OrderStatusPending, model.OrderStatusCanceled},
		{model.OrderStatusConfirmed, model.OrderStatusCanceled},
		{model.OrderStatusPreparing, model.OrderStatusCanceled},
	}
	for _, tc := range cases {
		assert.NoError(t, tc.from.ValidateTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestOrderStatus_IllegalTransitions(t *testing.T) {
	cases := []struct {
		from, to model.OrderStatus
	}{
		{model.OrderStatusDelivered, model.OrderStatusPending},
		{model.OrderStatusDelivered, model.OrderStatusCanceled},
		{model.OrderStatusCanceled, model.OrderStatusConfirmed},
		{model.OrderStatusPending, model.OrderStatusDelivered},
		{model.OrderStatusPreparing, model.OrderStatusConfirmed},
	}
	for _, tc := range cases {
		err := tc.from.ValidateTransition(tc.to)
		assert.ErrorIs(t, err, model.ErrIllegalTransition, "%s -> %s", tc.from, tc.to)
	}
}

func TestOrderStatus_Terminal(t *testing.T) {
	assert.True(t, model.OrderStatusDelivered.IsTerminal())
	assert.True(t, model.OrderStatusCanceled.IsTerminal())
	assert.False(t, model.OrderStatusPending.IsTerminal())
	assert.False(t, model.OrderStatus("???").IsTerminal())
}

func TestParseOrderStatus(t *testing.T) {
	st, err := model.ParseOrderStatus("  confirmado ")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusConfirmed, st)

	_, err = model.ParseOrderStatus("SHIPPED")
	assert.ErrorIs(t, err, model.ErrUnknownStatus)
}
