package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionDomainStatus(t *testing.T) {
	t.Run("ReserveFromNone", func(t *testing.T) {
		next, err := TransitionDomainStatus(DomainStatusNone, DomainEventReserve)
		require.NoError(t, err)
		assert.Equal(t, DomainStatusPending, next)
	})

	t.Run("RetryReserveFromFailed", func(t *testing.T) {
		next, err := TransitionDomainStatus(DomainStatusFailed, DomainEventReserve)
		require.NoError(t, err)
		assert.Equal(t, DomainStatusPending, next)
	})

	t.Run("ConnectOwnFromNone", func(t *testing.T) {
		next, err := TransitionDomainStatus(DomainStatusNone, DomainEventConnectOwn)
		require.NoError(t, err)
		assert.Equal(t, DomainStatusPending, next)
	})

	t.Run("ReserveWhilePendingRejected", func(t *testing.T) {
		_, err := TransitionDomainStatus(DomainStatusPending, DomainEventReserve)
		require.ErrorIs(t, err, ErrInvalidDomainTransition)
	})

	t.Run("ActivateFromPending", func(t *testing.T) {
		next, err := TransitionDomainStatus(DomainStatusPending, DomainEventActivate)
		require.NoError(t, err)
		assert.Equal(t, DomainStatusActive, next)
	})

	t.Run("ActivateFromFailed", func(t *testing.T) {
		next, err := TransitionDomainStatus(DomainStatusFailed, DomainEventActivate)
		require.NoError(t, err)
		assert.Equal(t, DomainStatusActive, next)
	})

	t.Run("ActivateIdempotent", func(t *testing.T) {
		next, err := TransitionDomainStatus(DomainStatusActive, DomainEventActivate)
		require.NoError(t, err)
		assert.Equal(t, DomainStatusActive, next)
	})

	t.Run("ActivateFromNoneRejected", func(t *testing.T) {
		_, err := TransitionDomainStatus(DomainStatusNone, DomainEventActivate)
		require.ErrorIs(t, err, ErrInvalidDomainTransition)
	})

	t.Run("RejectFromPending", func(t *testing.T) {
		next, err := TransitionDomainStatus(DomainStatusPending, DomainEventReject)
		require.NoError(t, err)
		assert.Equal(t, DomainStatusFailed, next)
	})

	t.Run("AdministrativeRevocation", func(t *testing.T) {
		next, err := TransitionDomainStatus(DomainStatusActive, DomainEventReject)
		require.NoError(t, err)
		assert.Equal(t, DomainStatusFailed, next)
	})

	t.Run("RejectIdempotent", func(t *testing.T) {
		next, err := TransitionDomainStatus(DomainStatusFailed, DomainEventReject)
		require.NoError(t, err)
		assert.Equal(t, DomainStatusFailed, next)
	})

	t.Run("RejectFromNoneRejected", func(t *testing.T) {
		_, err := TransitionDomainStatus(DomainStatusNone, DomainEventReject)
		require.ErrorIs(t, err, ErrInvalidDomainTransition)
	})
}

func TestCanTransitionTo(t *testing.T) {
	r := &DomainRequest{Status: DomainStatusPending}
	assert.True(t, r.CanTransitionTo(DomainStatusActive))
	assert.True(t, r.CanTransitionTo(DomainStatusFailed))
	assert.False(t, r.CanTransitionTo(DomainStatusNone))

	r.Status = DomainStatusActive
	assert.True(t, r.CanTransitionTo(DomainStatusFailed))
	assert.False(t, r.CanTransitionTo(DomainStatusPending))
}

func TestDNSProbeScan(t *testing.T) {
	var probe DNSProbe
	require.NoError(t, probe.Scan([]byte(`{"configured":true,"message":"ok","addresses":["203.0.113.10"]}`)))
	assert.True(t, probe.Configured)
	assert.Equal(t, []string{"203.0.113.10"}, probe.Addresses)

	require.NoError(t, probe.Scan(nil))
	assert.False(t, probe.Configured)
	assert.Empty(t, probe.Addresses)
}
