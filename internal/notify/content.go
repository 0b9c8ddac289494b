package notify

import (
	"fmt"

	"revivatech-backend/internal/domain"
)

var statusTitles = map[domain.BookingStatus]string{
	domain.BookingStatusPending:           "Booking received",
	domain.BookingStatusConfirmed:         "Booking confirmed",
	domain.BookingStatusDeviceReceived:    "Device received",
	domain.BookingStatusDiagnosis:         "Diagnosis in progress",
	domain.BookingStatusDiagnosisComplete: "Diagnosis complete",
	domain.BookingStatusQuotePending:      "Quote ready for approval",
	domain.BookingStatusQuoteApproved:     "Quote approved",
	domain.BookingStatusRepairQueued:      "Repair queued",
	domain.BookingStatusRepairStarted:     "Repair started",
	domain.BookingStatusRepairProgress:    "Repair in progress",
	domain.BookingStatusRepairComplete:    "Repair complete",
	domain.BookingStatusTesting:           "Quality testing",
	domain.BookingStatusReadyPickup:       "Ready for collection",
	domain.BookingStatusCompleted:         "Repair completed",
	domain.BookingStatusCancelled:         "Booking cancelled",
}

// buildContent renders the human-readable title and body for a status
// change event.
func buildContent(event *domain.BookingStatusChanged) (title, message string) {
	title, ok := statusTitles[event.To]
	if !ok {
		title = "Booking update"
	}

	device := event.Booking.Device.Brand + " " + event.Booking.Device.Model
	message = fmt.Sprintf("Your %s %s booking is now %d%% complete.",
		device, event.Booking.RepairType, event.Progress)

	switch event.To {
	case domain.BookingStatusQuotePending:
		if event.Booking.Estimate != nil {
			message = fmt.Sprintf("Your quote for the %s %s is ready: £%.2f. Please approve it to start the repair.",
				device, event.Booking.RepairType, float64(event.Booking.Estimate.FinalPricePence)/100)
		}
	case domain.BookingStatusReadyPickup:
		message = fmt.Sprintf("Your %s is repaired, tested, and ready for collection.", device)
	case domain.BookingStatusCancelled:
		message = fmt.Sprintf("Your %s %s booking has been cancelled.", device, event.Booking.RepairType)
		if event.Note != "" {
			message += " Reason: " + event.Note
		}
	}

	return title, message
}
