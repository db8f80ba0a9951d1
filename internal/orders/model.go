package orders

import "time"

// Payment methods accepted at checkout.
const (
	MethodCreditCard     = "credit_card"
	MethodBankTransfer   = "bank_transfer"
	MethodCashOnDelivery = "cash_on_delivery"
	MethodDigitalWallet  = "digital_wallet"
)

// Order statuses. The two status axes move independently.
const (
	OrderPending   = "pending"
	OrderConfirmed = "confirmed"
	OrderPreparing = "preparing"
	OrderShipped   = "shipped"
	OrderDelivered = "delivered"
	OrderCancelled = "cancelled"
)

// Payment statuses.
const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
)

func ValidPaymentMethod(m string) bool {
	switch m {
	case MethodCreditCard, MethodBankTransfer, MethodCashOnDelivery, MethodDigitalWallet:
		return true
	}
	return false
}

func ValidOrderStatus(s string) bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderPreparing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

func ValidPaymentStatus(s string) bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// Order is a purchase of a quantity from a listing. Unit price and total
// are snapshots taken at creation; later listing edits never touch them.
type Order struct {
	ID              string    `json:"id"`
	ListingID       string    `json:"listingId"`
	BuyerEmail      string    `json:"buyerEmail"`
	BuyerID         string    `json:"buyerId"`
	Quantity        float64   `json:"quantity"`
	UnitPrice       float64   `json:"unitPrice"`
	TotalPrice      float64   `json:"totalPrice"`
	PaymentMethod   string    `json:"paymentMethod"`
	DeliveryAddress string    `json:"deliveryAddress"`
	DeliveryPhone   string    `json:"deliveryPhone"`
	DeliveryNotes   *string   `json:"deliveryNotes"`
	FarmerNotes     *string   `json:"farmerNotes"`
	PaymentStatus   string    `json:"paymentStatus"`
	OrderStatus     string    `json:"orderStatus"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// ListingSummary is the listing snapshot embedded in order reads.
type ListingSummary struct {
	ProductType string  `json:"productType"`
	Unit        string  `json:"unit"`
	Price       float64 `json:"price"`
	Location    *string `json:"location"`
}

// Party identifies the counterparty shown alongside an order.
type Party struct {
	ID        string  `json:"id,omitempty"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Username  string  `json:"username"`
	Phone     *string `json:"phone,omitempty"`
}

// Row is a row of an order list, for either party.
type Row struct {
	Order
	Listing ListingSummary `json:"listing"`
	Farmer  *Party         `json:"farmer,omitempty"`
	Buyer   *Party         `json:"buyer,omitempty"`
}

// Detail is the full order view.
type Detail struct {
	Order
	Listing ListingSummary `json:"listing"`
	Farmer  Party          `json:"farmer"`
	Buyer   Party          `json:"buyer"`
}

// ListFilter narrows order lists by the two status axes.
type ListFilter struct {
	Status        string
	PaymentStatus string
	Limit         int
	Offset        int
}

// parties carries the identities an order transition needs for
// authorization and notification.
type parties struct {
	FarmerID    string
	FarmerEmail string
	BuyerEmail  string
	ProductType string
}
