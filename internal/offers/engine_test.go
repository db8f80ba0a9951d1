package offers

import (
	"context"
	"testing"

	"github.com/bahcemden/backend/internal/apperr"
	"github.com/bahcemden/backend/internal/httpx"
	"github.com/bahcemden/backend/internal/listings"
)

// fakeStore is an in-memory Store with the same transition semantics as
// the Postgres store: conditional updates only touch pending rows, and
// Accept rejects the siblings in the same step.
type fakeStore struct {
	snapshots map[string]*listings.Snapshot
	offers    map[string]*Offer
	emails    map[string]string // buyerID -> email
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		snapshots: map[string]*listings.Snapshot{},
		offers:    map[string]*Offer{},
		emails:    map[string]string{},
	}
}

func (f *fakeStore) addListing(id, farmerID, productType string) {
	f.snapshots[id] = &listings.Snapshot{
		ID:          id,
		FarmerID:    farmerID,
		ProductType: productType,
		Quantity:    100,
		Unit:        "kg",
		Price:       10,
		FarmerEmail: farmerID + "@example.com",
	}
}

func (f *fakeStore) ListingByID(_ context.Context, listingID string) (*listings.Snapshot, error) {
	return f.snapshots[listingID], nil
}

func (f *fakeStore) ListingOwner(_ context.Context, listingID string) (string, bool, error) {
	s, ok := f.snapshots[listingID]
	if !ok {
		return "", false, nil
	}
	return s.FarmerID, true, nil
}

func (f *fakeStore) HasOffer(_ context.Context, listingID, buyerID string) (bool, error) {
	for _, o := range f.offers {
		if o.ListingID == listingID && o.BuyerID == buyerID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) Insert(_ context.Context, o *Offer) error {
	for _, existing := range f.offers {
		if existing.ListingID == o.ListingID && existing.BuyerID == o.BuyerID {
			return ErrDuplicate
		}
	}
	cp := *o
	f.offers[o.ID] = &cp
	return nil
}

func (f *fakeStore) GetWithParties(_ context.Context, offerID string) (*Offer, *parties, error) {
	o, ok := f.offers[offerID]
	if !ok {
		return nil, nil, nil
	}
	s := f.snapshots[o.ListingID]
	cp := *o
	return &cp, &parties{
		FarmerID:    s.FarmerID,
		BuyerEmail:  f.emails[o.BuyerID],
		ProductType: s.ProductType,
	}, nil
}

func (f *fakeStore) Accept(_ context.Context, offerID, listingID string) (*Offer, error) {
	o, ok := f.offers[offerID]
	if !ok || o.Status != StatusPending {
		return nil, nil
	}
	o.Status = StatusAccepted
	for id, sib := range f.offers {
		if id != offerID && sib.ListingID == listingID && sib.Status == StatusPending {
			sib.Status = StatusRejected
		}
	}
	cp := *o
	return &cp, nil
}

func (f *fakeStore) Reject(_ context.Context, offerID string) (*Offer, error) {
	o, ok := f.offers[offerID]
	if !ok || o.Status != StatusPending {
		return nil, nil
	}
	o.Status = StatusRejected
	cp := *o
	return &cp, nil
}

func (f *fakeStore) Delete(_ context.Context, offerID string) error {
	delete(f.offers, offerID)
	return nil
}

func (f *fakeStore) ListForBuyer(_ context.Context, buyerID, status string, limit, offset int) ([]BuyerOffer, int, error) {
	var out []BuyerOffer
	for _, o := range f.offers {
		if o.BuyerID != buyerID {
			continue
		}
		if status != "" && o.Status != status {
			continue
		}
		out = append(out, BuyerOffer{Offer: *o})
	}
	return out, len(out), nil
}

func (f *fakeStore) ListForListing(_ context.Context, listingID, status string, limit, offset int) ([]ListingOffer, int, error) {
	var out []ListingOffer
	for _, o := range f.offers {
		if o.ListingID != listingID {
			continue
		}
		if status != "" && o.Status != status {
			continue
		}
		out = append(out, ListingOffer{ID: o.ID, OfferPrice: o.OfferPrice, Status: o.Status})
	}
	return out, len(out), nil
}

func (f *fakeStore) DetailFor(_ context.Context, offerID, userID string) (*Detail, error) {
	o, ok := f.offers[offerID]
	if !ok {
		return nil, nil
	}
	s := f.snapshots[o.ListingID]
	if o.BuyerID != userID && s.FarmerID != userID {
		return nil, nil
	}
	return &Detail{Offer: *o}, nil
}

func submit(t *testing.T, e *Engine, listingID, buyerID string, price float64) *Offer {
	t.Helper()
	res, err := e.Submit(context.Background(), SubmitInput{ListingID: listingID, BuyerID: buyerID, OfferPrice: price})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return res.Offer
}

func TestSubmitValidation(t *testing.T) {
	store := newFakeStore()
	store.addListing("l1", "farmer1", "tomato")
	e := NewEngine(store)

	_, err := e.Submit(context.Background(), SubmitInput{ListingID: "l1", BuyerID: "b1", OfferPrice: -5})
	if apperr.KindOf(err) != apperr.KindInvalid {
		t.Fatalf("negative price: got %v, want invalid", err)
	}

	_, err = e.Submit(context.Background(), SubmitInput{ListingID: "missing", BuyerID: "b1", OfferPrice: 5})
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("missing listing: got %v, want not found", err)
	}

	_, err = e.Submit(context.Background(), SubmitInput{ListingID: "l1", BuyerID: "farmer1", OfferPrice: 5})
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("self offer: got %v, want forbidden", err)
	}
}

func TestSubmitDuplicateConflicts(t *testing.T) {
	store := newFakeStore()
	store.addListing("l1", "farmer1", "tomato")
	e := NewEngine(store)

	submit(t, e, "l1", "b1", 8)

	_, err := e.Submit(context.Background(), SubmitInput{ListingID: "l1", BuyerID: "b1", OfferPrice: 9})
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("second offer: got %v, want conflict", err)
	}

	// A different buyer is not blocked.
	submit(t, e, "l1", "b2", 9)
}

func TestAcceptRejectsSiblings(t *testing.T) {
	store := newFakeStore()
	store.addListing("l1", "farmer1", "tomato")
	e := NewEngine(store)

	a := submit(t, e, "l1", "buyerA", 8)
	b := submit(t, e, "l1", "buyerB", 9)

	res, err := e.Respond(context.Background(), b.ID, "farmer1", "accept")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if res.Offer.Status != StatusAccepted {
		t.Fatalf("accepted offer status = %q", res.Offer.Status)
	}
	if got := store.offers[a.ID].Status; got != StatusRejected {
		t.Fatalf("sibling status = %q, want rejected", got)
	}
}

func TestRespondIsTerminal(t *testing.T) {
	store := newFakeStore()
	store.addListing("l1", "farmer1", "tomato")
	e := NewEngine(store)

	o := submit(t, e, "l1", "b1", 8)

	if _, err := e.Respond(context.Background(), o.ID, "farmer1", "reject"); err != nil {
		t.Fatalf("first respond: %v", err)
	}
	_, err := e.Respond(context.Background(), o.ID, "farmer1", "accept")
	if apperr.KindOf(err) != apperr.KindInvalidState {
		t.Fatalf("second respond: got %v, want invalid state", err)
	}
}

func TestRespondAuthorization(t *testing.T) {
	store := newFakeStore()
	store.addListing("l1", "farmer1", "tomato")
	e := NewEngine(store)

	o := submit(t, e, "l1", "b1", 8)

	_, err := e.Respond(context.Background(), o.ID, "someone-else", "accept")
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("non-owner respond: got %v, want forbidden", err)
	}
	_, err = e.Respond(context.Background(), o.ID, "farmer1", "maybe")
	if apperr.KindOf(err) != apperr.KindInvalid {
		t.Fatalf("bad action: got %v, want invalid", err)
	}
	_, err = e.Respond(context.Background(), "nope", "farmer1", "accept")
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("missing offer: got %v, want not found", err)
	}
}

func TestDeleteOnlyPending(t *testing.T) {
	store := newFakeStore()
	store.addListing("l1", "farmer1", "tomato")
	e := NewEngine(store)

	o := submit(t, e, "l1", "b1", 8)

	if err := e.Delete(context.Background(), o.ID, "other-buyer"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("delete by stranger: got %v, want not found", err)
	}

	if _, err := e.Respond(context.Background(), o.ID, "farmer1", "accept"); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := e.Delete(context.Background(), o.ID, "b1"); apperr.KindOf(err) != apperr.KindInvalidState {
		t.Fatalf("delete answered: got %v, want invalid state", err)
	}

	o2 := submit(t, e, "l1", "b2", 9)
	if err := e.Delete(context.Background(), o2.ID, "b2"); err != nil {
		t.Fatalf("delete pending: %v", err)
	}
	if _, ok := store.offers[o2.ID]; ok {
		t.Fatal("offer still present after delete")
	}
}

func TestListForListingOwnership(t *testing.T) {
	store := newFakeStore()
	store.addListing("l1", "farmer1", "tomato")
	e := NewEngine(store)

	submit(t, e, "l1", "b1", 8)
	submit(t, e, "l1", "b2", 9)

	items, meta, err := e.ListForListing(context.Background(), "l1", "farmer1", "", httpx.Page{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 || meta.TotalItems != 2 {
		t.Fatalf("got %d items, total %d", len(items), meta.TotalItems)
	}

	_, _, err = e.ListForListing(context.Background(), "l1", "farmer2", "", httpx.Page{Page: 1, Limit: 10})
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("foreign farmer list: got %v, want not found", err)
	}
}

func TestGetVisibility(t *testing.T) {
	store := newFakeStore()
	store.addListing("l1", "farmer1", "tomato")
	e := NewEngine(store)

	o := submit(t, e, "l1", "b1", 8)

	if _, err := e.Get(context.Background(), o.ID, "b1"); err != nil {
		t.Fatalf("buyer get: %v", err)
	}
	if _, err := e.Get(context.Background(), o.ID, "farmer1"); err != nil {
		t.Fatalf("farmer get: %v", err)
	}
	if _, err := e.Get(context.Background(), o.ID, "b2"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatal("third party should not see the offer")
	}
}
