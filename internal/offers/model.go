package offers

import "time"

// Offer statuses. pending is the only state transitions leave.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// Offer is a buyer's proposed price for a listing.
type Offer struct {
	ID         string    `json:"id"`
	ListingID  string    `json:"listingId"`
	BuyerID    string    `json:"buyerId"`
	OfferPrice float64   `json:"offerPrice"`
	Message    *string   `json:"message"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ListingInfo is the listing summary joined into offer reads.
type ListingInfo struct {
	ProductType string     `json:"productType"`
	Quantity    float64    `json:"quantity"`
	Unit        string     `json:"unit"`
	Price       float64    `json:"price"`
	Location    *string    `json:"location"`
	HarvestDate *time.Time `json:"harvestDate"`
}

// Party identifies the counterparty shown alongside an offer.
type Party struct {
	ID        string  `json:"id,omitempty"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Username  string  `json:"username"`
	Phone     *string `json:"phone,omitempty"`
}

// BuyerOffer is a row of the buyer's own offer list.
type BuyerOffer struct {
	Offer
	Listing ListingInfo `json:"listing"`
	Farmer  Party       `json:"farmer"`
}

// ListingOffer is a row of the farmer's per-listing offer list.
type ListingOffer struct {
	ID         string    `json:"id"`
	OfferPrice float64   `json:"offerPrice"`
	Message    *string   `json:"message"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	Buyer      Party     `json:"buyer"`
}

// Detail is the full offer view for either party.
type Detail struct {
	Offer
	Listing ListingInfo `json:"listing"`
	Buyer   Party       `json:"buyer"`
	Farmer  Party       `json:"farmer"`
}

// parties carries the identities an offer transition needs for
// authorization and notification.
type parties struct {
	FarmerID    string
	BuyerEmail  string
	ProductType string
}
