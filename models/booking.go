package models

import "time"

const (
	PaymentUnpaid = "unpaid"
	PaymentPaid   = "paid"
)

type Booking struct {
	BookingID      string    `json:"bookingId" bson:"bookingId"`
	UserEmail      string    `json:"userEmail" bson:"userEmail"`
	ServiceType    string    `json:"serviceType" bson:"serviceType"`
	EventType      string    `json:"eventType" bson:"eventType"`
	EventDate      string    `json:"eventDate" bson:"eventDate"`
	EventTime      string    `json:"eventTime,omitempty" bson:"eventTime,omitempty"`
	Location       string    `json:"location" bson:"location"`
	PaymentStatus  string    `json:"paymentStatus" bson:"paymentStatus"`
	DecoratorEmail string    `json:"decoratorEmail,omitempty" bson:"decoratorEmail,omitempty"`
	CreatedAt      time.Time `json:"createdAt" bson:"createdAt"`
}

// Payment is an immutable record of funds received against one booking.
type Payment struct {
	PaymentID     string    `json:"paymentId" bson:"paymentId"`
	BookingID     string    `json:"bookingId" bson:"bookingId"`
	Amount        float64   `json:"amount" bson:"amount"`
	TransactionID string    `json:"transactionId" bson:"transactionId"`
	UserEmail     string    `json:"userEmail" bson:"userEmail"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
}
