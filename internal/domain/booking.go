package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending           BookingStatus = "PENDING"
	BookingStatusConfirmed         BookingStatus = "CONFIRMED"
	BookingStatusDeviceReceived    BookingStatus = "DEVICE_RECEIVED"
	BookingStatusDiagnosis         BookingStatus = "DIAGNOSIS"
	BookingStatusDiagnosisComplete BookingStatus = "DIAGNOSIS_COMPLETE"
	BookingStatusQuotePending      BookingStatus = "QUOTE_PENDING"
	BookingStatusQuoteApproved     BookingStatus = "QUOTE_APPROVED"
	BookingStatusRepairQueued      BookingStatus = "REPAIR_QUEUED"
	BookingStatusRepairStarted     BookingStatus = "REPAIR_STARTED"
	BookingStatusRepairProgress    BookingStatus = "REPAIR_PROGRESS"
	BookingStatusRepairComplete    BookingStatus = "REPAIR_COMPLETE"
	BookingStatusTesting           BookingStatus = "TESTING"
	BookingStatusReadyPickup       BookingStatus = "READY_PICKUP"
	BookingStatusCompleted         BookingStatus = "COMPLETED"
	BookingStatusCancelled         BookingStatus = "CANCELLED"
)

type DeviceCategory string

const (
	DeviceCategorySmartphone DeviceCategory = "smartphone"
	DeviceCategoryLaptop     DeviceCategory = "laptop"
	DeviceCategoryTablet     DeviceCategory = "tablet"
	DeviceCategorySmartwatch DeviceCategory = "smartwatch"
	DeviceCategoryDesktop    DeviceCategory = "desktop"
)

// Device describes the unit handed in for repair. Captured once at booking
// creation; pricing reads it but never mutates it.
type Device struct {
	Brand    string         `json:"brand"`
	Model    string         `json:"model"`
	Category DeviceCategory `json:"category"`
	AgeYears int            `json:"age_years"`
}

// StatusChange is one entry in a booking's status history.
type StatusChange struct {
	Status BookingStatus `json:"status"`
	At     time.Time     `json:"at"`
	Actor  string        `json:"actor"`
	Note   string        `json:"note,omitempty"`
}

// Booking is a single repair order. Owned exclusively by the lifecycle
// manager; status is mutated only through a transition call, and the last
// StatusHistory entry always equals Status.
type Booking struct {
	ID              string         `json:"id"`
	CustomerID      string         `json:"customer_id"`
	Device          Device         `json:"device"`
	RepairType      string         `json:"repair_type"`
	Options         ServiceOptions `json:"options"`
	DemandFactor    float64        `json:"demand_factor,omitempty"`
	Status          BookingStatus  `json:"status"`
	BasePricePence  int64          `json:"base_price_pence"`
	FinalPricePence int64          `json:"final_price_pence"`
	Estimate        *PriceEstimate `json:"estimate,omitempty"`
	StatusHistory   []StatusChange `json:"status_history"`
	CreatedOn       time.Time      `json:"created_on"`
	UpdatedOn       time.Time      `json:"updated_on"`
}

// ServiceOptions are the customer-selected surcharge options quoted with the
// repair. They are part of the pricing input and fixed for the booking's life.
type ServiceOptions struct {
	Express      bool `json:"express"`
	PremiumParts bool `json:"premium_parts"`
	DataRecovery bool `json:"data_recovery"`
	Quantity     int  `json:"quantity"`
}

// CurrentStatus returns the status recorded by the most recent history entry.
// It must always agree with Status; the manager enforces this.
func (b *Booking) CurrentStatus() BookingStatus {
	if len(b.StatusHistory) == 0 {
		return b.Status
	}
	return b.StatusHistory[len(b.StatusHistory)-1].Status
}

func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}
