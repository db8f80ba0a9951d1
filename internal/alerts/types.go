package alerts

import "time"

// Task type constants
const (
	TaskOfferReceived = "email:offer_received"
	TaskOfferAnswered = "email:offer_answered"
	TaskOrderPlaced   = "email:order_placed"
	TaskOrderStatus   = "email:order_status"
	TaskPaymentStatus = "email:payment_status"
	TaskMessageNew    = "email:message_new"
)

// Common envelope for email-like notifications
type EmailEnvelope struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Offer received payload (sent to the farmer)
type OfferReceivedPayload struct {
	OfferID     string        `json:"offer_id"`
	ListingID   string        `json:"listing_id"`
	BuyerID     string        `json:"buyer_id"`
	ProductType string        `json:"product_type"`
	OfferPrice  float64       `json:"offer_price"`
	Envelope    EmailEnvelope `json:"envelope"`
	SentAt      time.Time     `json:"sent_at"`
}

// Offer answered payload (sent to the buyer)
type OfferAnsweredPayload struct {
	OfferID     string        `json:"offer_id"`
	ListingID   string        `json:"listing_id"`
	ProductType string        `json:"product_type"`
	Status      string        `json:"status"`
	Envelope    EmailEnvelope `json:"envelope"`
	SentAt      time.Time     `json:"sent_at"`
}

// Order placed payload (sent to the farmer)
type OrderPlacedPayload struct {
	OrderID     string        `json:"order_id"`
	ListingID   string        `json:"listing_id"`
	ProductType string        `json:"product_type"`
	Quantity    float64       `json:"quantity"`
	Unit        string        `json:"unit"`
	TotalPrice  float64       `json:"total_price"`
	Envelope    EmailEnvelope `json:"envelope"`
	SentAt      time.Time     `json:"sent_at"`
}

// Order status payload (sent to the buyer)
type OrderStatusPayload struct {
	OrderID  string        `json:"order_id"`
	Status   string        `json:"status"`
	Envelope EmailEnvelope `json:"envelope"`
	SentAt   time.Time     `json:"sent_at"`
}

// Payment status payload (sent to the buyer)
type PaymentStatusPayload struct {
	OrderID  string        `json:"order_id"`
	Status   string        `json:"status"`
	Envelope EmailEnvelope `json:"envelope"`
	SentAt   time.Time     `json:"sent_at"`
}

// Message new payload (sent to the recipient of an order-thread message)
type MessageNewPayload struct {
	OrderID   string        `json:"order_id"`
	SenderID  string        `json:"sender_id"`
	Recipient string        `json:"recipient"`
	Email     string        `json:"email"`
	Body      string        `json:"body"`
	Envelope  EmailEnvelope `json:"envelope"`
	SentAt    time.Time     `json:"sent_at"`
}
