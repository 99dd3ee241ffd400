package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/renthive/rental-app/models"
)

func bookingsWithStatuses(statuses ...models.BookingStatus) []models.Booking {
	bookings := make([]models.Booking, 0, len(statuses))
	for i, s := range statuses {
		bookings = append(bookings, models.Booking{ID: uint(i + 1), Status: s})
	}
	return bookings
}

func TestBucketOfPending(t *testing.T) {
	assert.Equal(t, TabPending, BucketOf(models.BookingPendingLandlord))
}

func TestBucketOfApprovedStatuses(t *testing.T) {
	for _, s := range []models.BookingStatus{
		models.BookingActive,
		models.BookingDualEscrowFunded,
		models.BookingSettled,
		models.BookingTerminated,
		models.BookingPendingSignature,
		models.BookingAwaitingDeposit,
		models.BookingEscrowFundedT,
		models.BookingReadyForHandover,
	} {
		assert.Equal(t, TabApproved, BucketOf(s), "status %s", s)
	}
}

func TestBucketOfCancelledCountsAsRejected(t *testing.T) {
	assert.Equal(t, TabRejected, BucketOf(models.BookingRejected))
	assert.Equal(t, TabRejected, BucketOf(models.BookingCancelled))
}

func TestEveryStatusLandsInExactlyOneTab(t *testing.T) {
	for _, s := range models.AllStatuses {
		tab := BucketOf(s)
		assert.Contains(t, []RequestTab{TabPending, TabApproved, TabRejected}, tab)
	}
}

func TestCountRequestsSumIdentity(t *testing.T) {
	bookings := bookingsWithStatuses(
		models.BookingPendingLandlord,
		models.BookingPendingLandlord,
		models.BookingActive,
		models.BookingSettled,
		models.BookingRejected,
		models.BookingCancelled,
		models.BookingAwaitingDeposit,
	)

	counts := CountRequests(bookings)
	assert.Equal(t, int64(7), counts.All)
	assert.Equal(t, int64(2), counts.Pending)
	assert.Equal(t, int64(3), counts.Approved)
	assert.Equal(t, int64(2), counts.Rejected)
	assert.Equal(t, counts.All, counts.Pending+counts.Approved+counts.Rejected)
}

func TestFilterByTab(t *testing.T) {
	bookings := bookingsWithStatuses(
		models.BookingPendingLandlord,
		models.BookingActive,
		models.BookingCancelled,
	)

	assert.Len(t, FilterByTab(bookings, TabAll), 3)

	pending := FilterByTab(bookings, TabPending)
	assert.Len(t, pending, 1)
	assert.Equal(t, models.BookingPendingLandlord, pending[0].Status)

	rejected := FilterByTab(bookings, TabRejected)
	assert.Len(t, rejected, 1)
	assert.Equal(t, models.BookingCancelled, rejected[0].Status)

	assert.Len(t, FilterByTab(bookings, TabApproved), 1)
}

func TestPendingNeverInOtherBuckets(t *testing.T) {
	bookings := bookingsWithStatuses(models.BookingPendingLandlord)
	assert.Empty(t, FilterByTab(bookings, TabApproved))
	assert.Empty(t, FilterByTab(bookings, TabRejected))
}
