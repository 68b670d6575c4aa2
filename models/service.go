package models

import "time"

const (
	StatusAssigned  = "Assigned"
	StatusConfirmed = "Confirmed"
	StatusCompleted = "Completed"
)

// ServiceOrder is the work order derived from a paid, assigned booking.
// At most one exists per booking. Price stays 0 until cash-out; CashedOut
// flips exactly once even when the rounded share is 0.00.
type ServiceOrder struct {
	ServiceID      string    `json:"serviceId" bson:"serviceId"`
	BookingID      string    `json:"bookingId" bson:"bookingId"`
	ServiceType    string    `json:"serviceType" bson:"serviceType"`
	DecoratorEmail string    `json:"decoratorEmail" bson:"decoratorEmail"`
	DecoratorName  string    `json:"decoratorName,omitempty" bson:"decoratorName,omitempty"`
	DecoratorPhone string    `json:"decoratorPhone,omitempty" bson:"decoratorPhone,omitempty"`
	Price          float64   `json:"price" bson:"price"`
	Status         string    `json:"status" bson:"status"`
	CashedOut      bool      `json:"cashedOut" bson:"cashedOut"`
	CreatedAt      time.Time `json:"createdAt" bson:"createdAt"`
}

// TrackingEvent is an append-only audit trail entry, one timeline per booking.
type TrackingEvent struct {
	BookingID      string    `json:"bookingId" bson:"bookingId"`
	Status         string    `json:"status" bson:"status"`
	Email          string    `json:"email" bson:"email"`
	Cost           float64   `json:"cost,omitempty" bson:"cost,omitempty"`
	TrackingNumber string    `json:"trackingNumber,omitempty" bson:"trackingNumber,omitempty"`
	CreatedAt      time.Time `json:"createdAt" bson:"createdAt"`
}
