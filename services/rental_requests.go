package services

import "github.com/renthive/rental-app/models"

// RequestTab is a rental-request list view for the landlord dashboard.
type RequestTab string

const (
	TabAll      RequestTab = "all"
	TabPending  RequestTab = "pending"
	TabApproved RequestTab = "approved"
	TabRejected RequestTab = "rejected"
)

// BucketOf classifies a booking status into exactly one named tab.
// CANCELLED counts as rejected everywhere, so all = pending + approved +
// rejected always holds.
func BucketOf(status models.BookingStatus) RequestTab {
	switch status {
	case models.BookingPendingLandlord:
		return TabPending
	case models.BookingRejected, models.BookingCancelled:
		return TabRejected
	default:
		return TabApproved
	}
}

// RequestCounts are the tab badges of the rental-requests page.
type RequestCounts struct {
	All      int64 `json:"all"`
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
}

// CountRequests recomputes every tab badge from the full booking set. Counts
// are never adjusted incrementally; callers re-fetch after each mutation.
func CountRequests(bookings []models.Booking) RequestCounts {
	var counts RequestCounts
	for _, b := range bookings {
		counts.All++
		switch BucketOf(b.Status) {
		case TabPending:
			counts.Pending++
		case TabApproved:
			counts.Approved++
		case TabRejected:
			counts.Rejected++
		}
	}
	return counts
}

// FilterByTab keeps the bookings belonging to the tab, preserving order.
func FilterByTab(bookings []models.Booking, tab RequestTab) []models.Booking {
	if tab == TabAll || tab == "" {
		return bookings
	}

	filtered := make([]models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if BucketOf(b.Status) == tab {
			filtered = append(filtered, b)
		}
	}
	return filtered
}
