package model

import (
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to OrderStatus }{
		{OrderStatusPending, OrderStatusConfirmed},
		{OrderStatusPending, OrderStatusCancelled},
		{OrderStatusConfirmed, OrderStatusProcessing},
		{OrderStatusConfirmed, OrderStatusCancelled},
		{OrderStatusProcessing, OrderStatusShipped},
		{OrderStatusProcessing, OrderStatusCancelled},
		{OrderStatusShipped, OrderStatusDelivered},
	}
	for _, tr := range allowed {
		assert.True(t, CanTransition(tr.from, tr.to), "%s -> %s should be allowed", tr.from, tr.to)
	}

	denied := []struct{ from, to OrderStatus }{
		{OrderStatusPending, OrderStatusShipped},
		{OrderStatusPending, OrderStatusDelivered},
		{OrderStatusConfirmed, OrderStatusPending},
		{OrderStatusShipped, OrderStatusCancelled},
		{OrderStatusShipped, OrderStatusProcessing},
		{OrderStatusDelivered, OrderStatusCancelled},
		{OrderStatusCancelled, OrderStatusConfirmed},
		{OrderStatusDelivered, OrderStatusPending},
	}
	for _, tr := range denied {
		assert.False(t, CanTransition(tr.from, tr.to), "%s -> %s should be denied", tr.from, tr.to)
	}
}

func TestCanTransition_TerminalStates(t *testing.T) {
	all := []OrderStatus{
		OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled,
	}
	for _, to := range all {
		assert.False(t, CanTransition(OrderStatusDelivered, to))
		assert.False(t, CanTransition(OrderStatusCancelled, to))
	}
}

func TestIsValidOrderStatus(t *testing.T) {
	assert.True(t, IsValidOrderStatus(OrderStatusPending))
	assert.True(t, IsValidOrderStatus(OrderStatusCancelled))
	assert.False(t, IsValidOrderStatus("unknown"))
	assert.False(t, IsValidOrderStatus(""))
	//大文字は別物
	assert.False(t, IsValidOrderStatus("PENDING"))
}

func TestNewOrderNumber_Format(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	pattern := regexp.MustCompile(`^ORD\d{8}\d{4}$`)
	for i := 0; i < 50; i++ {
		n := NewOrderNumber(now)
		assert.Regexp(t, pattern, n)
		assert.Len(t, n, 15)
	}
}

// "ORD"の直後8桁はepochミリ秒の下8桁
func TestNewOrderNumber_UsesEpochMillisSuffix(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	millis := fmt.Sprintf("%d", now.UnixMilli())
	want := millis[len(millis)-8:]

	n := NewOrderNumber(now)
	assert.Equal(t, want, n[3:11])
}
