package listings

import "time"

// Listing is a farmer's advertised quantity of a product at a unit price.
type Listing struct {
	ID          string     `json:"id"`
	FarmerID    string     `json:"farmerId"`
	ProductType string     `json:"productType"`
	Quantity    float64    `json:"quantity"`
	Unit        string     `json:"unit"`
	Price       float64    `json:"price"`
	HarvestDate *time.Time `json:"harvestDate"`
	Description *string    `json:"description"`
	Location    *string    `json:"location"`
	ContactInfo *string    `json:"contactInfo"`
	IsActive    bool       `json:"isActive"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Snapshot is the read model the offer and order engines consume: the
// listing's current terms plus the owning farmer's identity. Only active
// listings owned by active farmers produce a snapshot.
type Snapshot struct {
	ID          string
	FarmerID    string
	ProductType string
	Quantity    float64
	Unit        string
	Price       float64
	Location    *string
	HarvestDate *time.Time

	FarmerFirstName string
	FarmerLastName  string
	FarmerUsername  string
	FarmerPhone     *string
	FarmerEmail     string
}

// FarmerName returns the farmer's display name for responses and emails.
func (s *Snapshot) FarmerName() string {
	return s.FarmerFirstName + " " + s.FarmerLastName
}
