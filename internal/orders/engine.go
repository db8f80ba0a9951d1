package orders

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/bahcemden/backend/internal/apperr"
	"github.com/bahcemden/backend/internal/httpx"
	"github.com/bahcemden/backend/internal/listings"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Engine owns order creation and the two status axes. Orders are placed
// without a bearer token; the checkout email has to resolve to an active
// account.
type Engine struct {
	store Store
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// CreateInput are the checkout fields of a new order.
type CreateInput struct {
	ListingID       string
	Email           string
	Quantity        float64
	PaymentMethod   string
	DeliveryAddress string
	DeliveryPhone   string
	DeliveryNotes   string
}

// CreateResult carries the stored order, the listing summary embedded in
// the response and the farmer contact used for notification.
type CreateResult struct {
	Order       *Order
	Listing     ListingSummary
	FarmerName  string
	FarmerEmail string
}

func (e *Engine) Create(ctx context.Context, in CreateInput) (*CreateResult, error) {
	if in.Email == "" || in.Quantity == 0 || in.PaymentMethod == "" || in.DeliveryAddress == "" || in.DeliveryPhone == "" {
		return nil, apperr.Invalid("email, quantity, payment method, delivery address and phone are required")
	}
	if !emailPattern.MatchString(in.Email) {
		return nil, apperr.Invalid("enter a valid email address")
	}
	if in.Quantity <= 0 {
		return nil, apperr.Invalid("quantity must be a positive number")
	}
	if !ValidPaymentMethod(in.PaymentMethod) {
		return nil, apperr.Invalid("select a valid payment method")
	}

	snap, err := e.store.ListingByID(ctx, in.ListingID)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, apperr.NotFound("listing not found or inactive")
	}
	if in.Quantity > snap.Quantity {
		return nil, stockError(snap)
	}

	buyer, err := e.store.ActiveBuyerByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if buyer == nil {
		return nil, apperr.RegistrationRequired("this email is not registered, please sign up first")
	}

	now := time.Now()
	o := &Order{
		ID:              uuid.New().String(),
		ListingID:       in.ListingID,
		BuyerEmail:      buyer.Email,
		BuyerID:         buyer.ID,
		Quantity:        in.Quantity,
		UnitPrice:       snap.Price,
		TotalPrice:      in.Quantity * snap.Price,
		PaymentMethod:   in.PaymentMethod,
		DeliveryAddress: in.DeliveryAddress,
		DeliveryPhone:   in.DeliveryPhone,
		PaymentStatus:   PaymentPending,
		OrderStatus:     OrderPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if in.DeliveryNotes != "" {
		o.DeliveryNotes = &in.DeliveryNotes
	}

	if err := e.store.Create(ctx, o); err != nil {
		if errors.Is(err, ErrInsufficientStock) {
			// Re-read so the error states the stock that is actually left.
			fresh, rerr := e.store.ListingByID(ctx, in.ListingID)
			if rerr == nil && fresh != nil {
				return nil, stockError(fresh)
			}
			return nil, stockError(snap)
		}
		return nil, err
	}

	return &CreateResult{
		Order: o,
		Listing: ListingSummary{
			ProductType: snap.ProductType,
			Unit:        snap.Unit,
			Price:       snap.Price,
			Location:    snap.Location,
		},
		FarmerName:  snap.FarmerName(),
		FarmerEmail: snap.FarmerEmail,
	}, nil
}

func stockError(snap *listings.Snapshot) error {
	return apperr.Newf(apperr.KindInvalid, "you can order at most %v %s", snap.Quantity, snap.Unit)
}

// StatusResult carries the updated order plus the buyer contact for
// notification.
type StatusResult struct {
	Order      *Order
	BuyerEmail string
}

// UpdateStatus moves the order to any enumerated status on behalf of the
// listing's farmer. The notes pointer is written as-is: nil clears them.
func (e *Engine) UpdateStatus(ctx context.Context, orderID, farmerID, status string, farmerNotes *string) (*StatusResult, error) {
	if !ValidOrderStatus(status) {
		return nil, apperr.Invalid("select a valid order status")
	}

	p, err := e.authorizeFarmer(ctx, orderID, farmerID)
	if err != nil {
		return nil, err
	}

	o, err := e.store.SetOrderStatus(ctx, orderID, status, farmerNotes)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperr.NotFound("order not found")
	}
	return &StatusResult{Order: o, BuyerEmail: p.BuyerEmail}, nil
}

// UpdatePayment moves the payment status independently of the order
// status.
func (e *Engine) UpdatePayment(ctx context.Context, orderID, farmerID, status string) (*StatusResult, error) {
	if !ValidPaymentStatus(status) {
		return nil, apperr.Invalid("select a valid payment status")
	}

	p, err := e.authorizeFarmer(ctx, orderID, farmerID)
	if err != nil {
		return nil, err
	}

	o, err := e.store.SetPaymentStatus(ctx, orderID, status)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperr.NotFound("order not found")
	}
	return &StatusResult{Order: o, BuyerEmail: p.BuyerEmail}, nil
}

func (e *Engine) authorizeFarmer(ctx context.Context, orderID, farmerID string) (*parties, error) {
	o, p, err := e.store.GetWithParties(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperr.NotFound("order not found")
	}
	if p.FarmerID != farmerID {
		return nil, apperr.Forbidden("you are not allowed to update this order")
	}
	return p, nil
}

func (e *Engine) ListForBuyer(ctx context.Context, buyerID, status, paymentStatus string, page httpx.Page) ([]Row, httpx.Meta, error) {
	if err := validateListFilter(status, paymentStatus); err != nil {
		return nil, httpx.Meta{}, err
	}
	items, total, err := e.store.ListForBuyer(ctx, buyerID, ListFilter{
		Status: status, PaymentStatus: paymentStatus, Limit: page.Limit, Offset: page.Offset(),
	})
	if err != nil {
		return nil, httpx.Meta{}, err
	}
	return items, httpx.NewMeta(page, total), nil
}

func (e *Engine) ListForFarmer(ctx context.Context, farmerID, status, paymentStatus string, page httpx.Page) ([]Row, httpx.Meta, error) {
	if err := validateListFilter(status, paymentStatus); err != nil {
		return nil, httpx.Meta{}, err
	}
	items, total, err := e.store.ListForFarmer(ctx, farmerID, ListFilter{
		Status: status, PaymentStatus: paymentStatus, Limit: page.Limit, Offset: page.Offset(),
	})
	if err != nil {
		return nil, httpx.Meta{}, err
	}
	return items, httpx.NewMeta(page, total), nil
}

func validateListFilter(status, paymentStatus string) error {
	if status != "" && !ValidOrderStatus(status) {
		return apperr.Invalid(fmt.Sprintf("unknown order status %q", status))
	}
	if paymentStatus != "" && !ValidPaymentStatus(paymentStatus) {
		return apperr.Invalid(fmt.Sprintf("unknown payment status %q", paymentStatus))
	}
	return nil
}

func (e *Engine) Get(ctx context.Context, orderID, userID string) (*Detail, error) {
	d, err := e.store.DetailFor(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, apperr.NotFound("order not found or not visible to you")
	}
	return d, nil
}
