package offers

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/bahcemden/backend/internal/apperr"
	"github.com/bahcemden/backend/internal/httpx"
)

// Engine owns the offer lifecycle: pending at creation, answered exactly
// once by the listing's farmer, deletable by the buyer while pending.
type Engine struct {
	store Store
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// SubmitInput are the buyer-supplied fields of a new offer.
type SubmitInput struct {
	ListingID  string
	BuyerID    string
	OfferPrice float64
	Message    string
}

// SubmitResult carries the created offer plus the farmer contact used
// for the best-effort notification.
type SubmitResult struct {
	Offer       *Offer
	FarmerEmail string
	FarmerName  string
	ProductType string
}

func (e *Engine) Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	if in.ListingID == "" || in.OfferPrice == 0 {
		return nil, apperr.Invalid("listing id and offer price are required")
	}
	if in.OfferPrice <= 0 {
		return nil, apperr.Invalid("offer price must be a positive number")
	}

	snap, err := e.store.ListingByID(ctx, in.ListingID)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, apperr.NotFound("listing not found or inactive")
	}
	if snap.FarmerID == in.BuyerID {
		return nil, apperr.Forbidden("you cannot make an offer on your own listing")
	}

	exists, err := e.store.HasOffer(ctx, in.ListingID, in.BuyerID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Conflict("you have already made an offer on this listing")
	}

	now := time.Now()
	o := &Offer{
		ID:         uuid.New().String(),
		ListingID:  in.ListingID,
		BuyerID:    in.BuyerID,
		OfferPrice: in.OfferPrice,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if in.Message != "" {
		o.Message = &in.Message
	}

	if err := e.store.Insert(ctx, o); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, apperr.Conflict("you have already made an offer on this listing")
		}
		return nil, err
	}

	return &SubmitResult{
		Offer:       o,
		FarmerEmail: snap.FarmerEmail,
		FarmerName:  snap.FarmerName(),
		ProductType: snap.ProductType,
	}, nil
}

// RespondResult carries the updated offer plus the buyer contact for
// notification.
type RespondResult struct {
	Offer       *Offer
	BuyerEmail  string
	ProductType string
}

// Respond lets the listing's farmer accept or reject a pending offer.
// Accepting rejects every other pending offer on the listing in the same
// transaction; both paths reach a terminal state exactly once.
func (e *Engine) Respond(ctx context.Context, offerID, farmerID, action string) (*RespondResult, error) {
	if action != "accept" && action != "reject" {
		return nil, apperr.Invalid("action must be accept or reject")
	}

	o, p, err := e.store.GetWithParties(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperr.NotFound("offer not found")
	}
	if p.FarmerID != farmerID {
		return nil, apperr.Forbidden("you are not allowed to respond to this offer")
	}
	if o.Status != StatusPending {
		return nil, apperr.InvalidState("offer has already been answered")
	}

	var updated *Offer
	if action == "accept" {
		updated, err = e.store.Accept(ctx, o.ID, o.ListingID)
	} else {
		updated, err = e.store.Reject(ctx, o.ID)
	}
	if err != nil {
		return nil, err
	}
	if updated == nil {
		// Lost the race to a concurrent response.
		return nil, apperr.InvalidState("offer has already been answered")
	}

	return &RespondResult{
		Offer:       updated,
		BuyerEmail:  p.BuyerEmail,
		ProductType: p.ProductType,
	}, nil
}

// Delete removes a pending offer on behalf of its buyer. Ownership
// misses are reported as not-found, indistinguishable from missing rows.
func (e *Engine) Delete(ctx context.Context, offerID, buyerID string) error {
	o, _, err := e.store.GetWithParties(ctx, offerID)
	if err != nil {
		return err
	}
	if o == nil || o.BuyerID != buyerID {
		return apperr.NotFound("offer not found or not yours")
	}
	if o.Status != StatusPending {
		return apperr.InvalidState("only pending offers can be deleted")
	}
	return e.store.Delete(ctx, offerID)
}

func (e *Engine) ListForBuyer(ctx context.Context, buyerID, status string, page httpx.Page) ([]BuyerOffer, httpx.Meta, error) {
	items, total, err := e.store.ListForBuyer(ctx, buyerID, status, page.Limit, page.Offset())
	if err != nil {
		return nil, httpx.Meta{}, err
	}
	return items, httpx.NewMeta(page, total), nil
}

// ListForListing returns the offers on a listing for its owning farmer.
func (e *Engine) ListForListing(ctx context.Context, listingID, farmerID, status string, page httpx.Page) ([]ListingOffer, httpx.Meta, error) {
	owner, ok, err := e.store.ListingOwner(ctx, listingID)
	if err != nil {
		return nil, httpx.Meta{}, err
	}
	if !ok || owner != farmerID {
		return nil, httpx.Meta{}, apperr.NotFound("listing not found or not yours")
	}

	items, total, err := e.store.ListForListing(ctx, listingID, status, page.Limit, page.Offset())
	if err != nil {
		return nil, httpx.Meta{}, err
	}
	return items, httpx.NewMeta(page, total), nil
}

func (e *Engine) Get(ctx context.Context, offerID, userID string) (*Detail, error) {
	d, err := e.store.DetailFor(ctx, offerID, userID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, apperr.NotFound("offer not found or not visible to you")
	}
	return d, nil
}
