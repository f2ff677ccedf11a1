// internal/domain/order/entity_test.go
package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.True(t, StatusRefunded.Valid())
	assert.False(t, Status("exploded").Valid())
	assert.False(t, Status("").Valid())
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusCompleted, true},
		{StatusPending, StatusFailed, true},
		{StatusPending, StatusRefunded, false},
		{StatusProcessing, StatusCompleted, true},
		{StatusProcessing, StatusFailed, true},
		{StatusProcessing, StatusPending, false},
		{StatusCompleted, StatusFailed, false},
		{StatusCompleted, StatusRefunded, true},
		{StatusFailed, StatusCompleted, false},
		{StatusFailed, StatusRefunded, false},
		{StatusRefunded, StatusCompleted, false},
		{StatusPending, Status("exploded"), false},
	}

	for _, tc := range cases {
		assert.Equalf(t, tc.want, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTerminal(t *testing.T) {
	assert.False(t, Order{Status: StatusPending}.Terminal())
	assert.False(t, Order{Status: StatusProcessing}.Terminal())
	assert.True(t, Order{Status: StatusCompleted}.Terminal())
	assert.True(t, Order{Status: StatusFailed}.Terminal())
	assert.True(t, Order{Status: StatusRefunded}.Terminal())
}
