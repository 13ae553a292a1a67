package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestApplyRSVP_AttendingWithinBounds(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for _, n := range []int{1, 2, 3} {
		inv := &Invitation{MaxGuests: 3}
		require.NoError(t, inv.ApplyRSVP(true, intPtr(n), now))

		assert.True(t, inv.HasResponded)
		require.NotNil(t, inv.IsAttending)
		assert.True(t, *inv.IsAttending)
		require.NotNil(t, inv.GuestCount)
		assert.Equal(t, n, *inv.GuestCount)
		require.NotNil(t, inv.RespondedAt)
		assert.True(t, inv.RespondedAt.Equal(now))
		assert.Equal(t, ResponseAttending, inv.State())
	}
}

func TestApplyRSVP_RejectsOutOfRangeWithoutMutation(t *testing.T) {
	now := time.Now()
	inv := &Invitation{MaxGuests: 3}
	require.NoError(t, inv.ApplyRSVP(true, intPtr(3), now))
	before := *inv

	err := inv.ApplyRSVP(true, intPtr(5), now.Add(time.Hour))
	assert.ErrorIs(t, err, ErrGuestCountOutOfRange)
	assert.Equal(t, before, *inv)

	err = inv.ApplyRSVP(true, intPtr(0), now.Add(time.Hour))
	assert.ErrorIs(t, err, ErrGuestCountOutOfRange)

	err = inv.ApplyRSVP(true, nil, now.Add(time.Hour))
	assert.ErrorIs(t, err, ErrGuestCountRequired)
	assert.Equal(t, 3, *inv.GuestCount)
}

func TestApplyRSVP_DecliningClearsGuestCount(t *testing.T) {
	inv := &Invitation{MaxGuests: 2}
	require.NoError(t, inv.ApplyRSVP(true, intPtr(2), time.Now()))

	require.NoError(t, inv.ApplyRSVP(false, intPtr(7), time.Now()))
	assert.Nil(t, inv.GuestCount)
	require.NotNil(t, inv.IsAttending)
	assert.False(t, *inv.IsAttending)
	assert.Equal(t, ResponseDeclining, inv.State())
}

func TestSetMaxGuests(t *testing.T) {
	inv := &Invitation{MaxGuests: 4}
	require.NoError(t, inv.ApplyRSVP(true, intPtr(3), time.Now()))

	assert.ErrorIs(t, inv.SetMaxGuests(0), ErrInvalidMaxGuests)
	assert.ErrorIs(t, inv.SetMaxGuests(2), ErrGuestCountOutOfRange)
	require.NoError(t, inv.SetMaxGuests(3))
	assert.Equal(t, 3, inv.MaxGuests)

	inv.ClearRSVP()
	assert.Equal(t, ResponsePending, inv.State())
	require.NoError(t, inv.SetMaxGuests(1))
}
