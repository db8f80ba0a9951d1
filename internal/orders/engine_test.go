package orders

import (
	"context"
	"strings"
	"testing"

	"github.com/bahcemden/backend/internal/apperr"
	"github.com/bahcemden/backend/internal/listings"
)

// fakeStore mirrors the Postgres store in memory, including the
// conditional stock decrement inside Create.
type fakeStore struct {
	snapshots map[string]*listings.Snapshot
	buyers    map[string]*Buyer // keyed by lowercase email
	orders    map[string]*Order
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		snapshots: map[string]*listings.Snapshot{},
		buyers:    map[string]*Buyer{},
		orders:    map[string]*Order{},
	}
}

func (f *fakeStore) addListing(id, farmerID, productType, unit string, quantity, price float64) {
	f.snapshots[id] = &listings.Snapshot{
		ID:          id,
		FarmerID:    farmerID,
		ProductType: productType,
		Quantity:    quantity,
		Unit:        unit,
		Price:       price,
		FarmerEmail: farmerID + "@example.com",
	}
}

func (f *fakeStore) addBuyer(id, email string) {
	f.buyers[strings.ToLower(email)] = &Buyer{ID: id, FirstName: "Test", LastName: "Buyer", Email: email}
}

func (f *fakeStore) ListingByID(_ context.Context, listingID string) (*listings.Snapshot, error) {
	return f.snapshots[listingID], nil
}

func (f *fakeStore) ActiveBuyerByEmail(_ context.Context, email string) (*Buyer, error) {
	return f.buyers[strings.ToLower(email)], nil
}

func (f *fakeStore) Create(_ context.Context, o *Order) error {
	snap := f.snapshots[o.ListingID]
	if snap == nil || snap.Quantity < o.Quantity {
		return ErrInsufficientStock
	}
	snap.Quantity -= o.Quantity
	cp := *o
	f.orders[o.ID] = &cp
	return nil
}

func (f *fakeStore) GetWithParties(_ context.Context, orderID string) (*Order, *parties, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return nil, nil, nil
	}
	s := f.snapshots[o.ListingID]
	cp := *o
	return &cp, &parties{
		FarmerID:    s.FarmerID,
		FarmerEmail: s.FarmerEmail,
		BuyerEmail:  o.BuyerEmail,
		ProductType: s.ProductType,
	}, nil
}

func (f *fakeStore) SetOrderStatus(_ context.Context, orderID, status string, farmerNotes *string) (*Order, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return nil, nil
	}
	o.OrderStatus = status
	o.FarmerNotes = farmerNotes
	cp := *o
	return &cp, nil
}

func (f *fakeStore) SetPaymentStatus(_ context.Context, orderID, status string) (*Order, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return nil, nil
	}
	o.PaymentStatus = status
	cp := *o
	return &cp, nil
}

func (f *fakeStore) ListForBuyer(_ context.Context, buyerID string, fl ListFilter) ([]Row, int, error) {
	var out []Row
	for _, o := range f.orders {
		if o.BuyerID != buyerID {
			continue
		}
		if fl.Status != "" && o.OrderStatus != fl.Status {
			continue
		}
		if fl.PaymentStatus != "" && o.PaymentStatus != fl.PaymentStatus {
			continue
		}
		out = append(out, Row{Order: *o})
	}
	return out, len(out), nil
}

func (f *fakeStore) ListForFarmer(_ context.Context, farmerID string, fl ListFilter) ([]Row, int, error) {
	var out []Row
	for _, o := range f.orders {
		s := f.snapshots[o.ListingID]
		if s.FarmerID != farmerID {
			continue
		}
		if fl.Status != "" && o.OrderStatus != fl.Status {
			continue
		}
		if fl.PaymentStatus != "" && o.PaymentStatus != fl.PaymentStatus {
			continue
		}
		out = append(out, Row{Order: *o})
	}
	return out, len(out), nil
}

func (f *fakeStore) DetailFor(_ context.Context, orderID, userID string) (*Detail, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return nil, nil
	}
	s := f.snapshots[o.ListingID]
	if o.BuyerID != userID && s.FarmerID != userID {
		return nil, nil
	}
	return &Detail{Order: *o}, nil
}

func validInput(listingID string) CreateInput {
	return CreateInput{
		ListingID:       listingID,
		Email:           "buyer@example.com",
		Quantity:        5,
		PaymentMethod:   MethodCashOnDelivery,
		DeliveryAddress: "Field Road 1",
		DeliveryPhone:   "+905551112233",
	}
}

func TestCreateValidationOrder(t *testing.T) {
	store := newFakeStore()
	store.addListing("l1", "farmer1", "tomato", "kg", 100, 10)
	store.addBuyer("b1", "buyer@example.com")
	e := NewEngine(store)
	ctx := context.Background()

	in := validInput("l1")
	in.Email = ""
	_, err := e.Create(ctx, in)
	if apperr.KindOf(err) != apperr.KindInvalid || !strings.Contains(err.Error(), "required") {
		t.Fatalf("missing fields: got %v", err)
	}

	in = validInput("l1")
	in.Email = "not-an-email"
	if _, err := e.Create(ctx, in); apperr.KindOf(err) != apperr.KindInvalid {
		t.Fatalf("bad email: got %v", err)
	}

	in = validInput("l1")
	in.Quantity = -3
	if _, err := e.Create(ctx, in); apperr.KindOf(err) != apperr.KindInvalid {
		t.Fatalf("negative quantity: got %v", err)
	}

	in = validInput("l1")
	in.PaymentMethod = "barter"
	if _, err := e.Create(ctx, in); apperr.KindOf(err) != apperr.KindInvalid {
		t.Fatalf("bad method: got %v", err)
	}

	in = validInput("missing")
	if _, err := e.Create(ctx, in); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("missing listing: got %v", err)
	}
}

func TestCreateComputesTotalOnce(t *testing.T) {
	store := newFakeStore()
	store.addListing("l1", "farmer1", "tomato", "kg", 100, 10)
	store.addBuyer("b1", "buyer@example.com")
	e := NewEngine(store)

	res, err := e.Create(context.Background(), validInput("l1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.Order.TotalPrice != 50 {
		t.Fatalf("totalPrice = %v, want 50", res.Order.TotalPrice)
	}
	if res.Order.UnitPrice != 10 {
		t.Fatalf("unitPrice = %v, want 10", res.Order.UnitPrice)
	}

	// A later price change on the listing never reaches stored orders.
	store.snapshots["l1"].Price = 99
	d, err := e.Get(context.Background(), res.Order.ID, "b1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if d.TotalPrice != 50 || d.UnitPrice != 10 {
		t.Fatalf("snapshot drifted: total=%v unit=%v", d.TotalPrice, d.UnitPrice)
	}
}

func TestCreateDecrementsStock(t *testing.T) {
	store := newFakeStore()
	store.addListing("l1", "farmer1", "tomato", "kg", 8, 10)
	store.addBuyer("b1", "buyer@example.com")
	e := NewEngine(store)

	if _, err := e.Create(context.Background(), validInput("l1")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := store.snapshots["l1"].Quantity; got != 3 {
		t.Fatalf("stock = %v, want 3", got)
	}
}

func TestCreateOverStockNamesUnitAndMax(t *testing.T) {
	store := newFakeStore()
	store.addListing("l1", "farmer1", "tomato", "kg", 3, 10)
	store.addBuyer("b1", "buyer@example.com")
	e := NewEngine(store)

	in := validInput("l1")
	in.Quantity = 5
	_, err := e.Create(context.Background(), in)
	if apperr.KindOf(err) != apperr.KindInvalid {
		t.Fatalf("over stock: got %v", err)
	}
	if !strings.Contains(err.Error(), "3") || !strings.Contains(err.Error(), "kg") {
		t.Fatalf("message %q should name the remaining stock and unit", err.Error())
	}
}

func TestCreateUnknownEmailRequiresRegistration(t *testing.T) {
	store := newFakeStore()
	store.addListing("l1", "farmer1", "tomato", "kg", 100, 10)
	e := NewEngine(store)

	_, err := e.Create(context.Background(), validInput("l1"))
	if apperr.KindOf(err) != apperr.KindRegistrationRequired {
		t.Fatalf("unknown email: got %v", err)
	}
	if len(store.orders) != 0 {
		t.Fatal("no order row may exist for an unregistered email")
	}
	if store.snapshots["l1"].Quantity != 100 {
		t.Fatal("stock must be untouched for an unregistered email")
	}
}

func TestStatusAxesAreIndependent(t *testing.T) {
	store := newFakeStore()
	store.addListing("l1", "farmer1", "tomato", "kg", 100, 10)
	store.addBuyer("b1", "buyer@example.com")
	e := NewEngine(store)
	ctx := context.Background()

	res, err := e.Create(ctx, validInput("l1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id := res.Order.ID

	if _, err := e.UpdateStatus(ctx, id, "farmer1", OrderDelivered, nil); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	sr, err := e.UpdatePayment(ctx, id, "farmer1", PaymentPaid)
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if sr.Order.OrderStatus != OrderDelivered || sr.Order.PaymentStatus != PaymentPaid {
		t.Fatalf("axes coupled: order=%q payment=%q", sr.Order.OrderStatus, sr.Order.PaymentStatus)
	}

	// Free transitions: cancelled after delivered is allowed.
	if _, err := e.UpdateStatus(ctx, id, "farmer1", OrderCancelled, nil); err != nil {
		t.Fatalf("cancel after deliver: %v", err)
	}
}

func TestStatusUpdateAuthorization(t *testing.T) {
	store := newFakeStore()
	store.addListing("l1", "farmer1", "tomato", "kg", 100, 10)
	store.addBuyer("b1", "buyer@example.com")
	e := NewEngine(store)
	ctx := context.Background()

	res, err := e.Create(ctx, validInput("l1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = e.UpdateStatus(ctx, res.Order.ID, "farmer2", OrderConfirmed, nil)
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("foreign farmer: got %v, want forbidden", err)
	}
	_, err = e.UpdateStatus(ctx, res.Order.ID, "farmer1", "lost", nil)
	if apperr.KindOf(err) != apperr.KindInvalid {
		t.Fatalf("bad status: got %v, want invalid", err)
	}
	_, err = e.UpdatePayment(ctx, "missing", "farmer1", PaymentPaid)
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("missing order: got %v, want not found", err)
	}
}

func TestFarmerNotesWrittenAndCleared(t *testing.T) {
	store := newFakeStore()
	store.addListing("l1", "farmer1", "tomato", "kg", 100, 10)
	store.addBuyer("b1", "buyer@example.com")
	e := NewEngine(store)
	ctx := context.Background()

	res, err := e.Create(ctx, validInput("l1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	notes := "picked fresh this morning"
	sr, err := e.UpdateStatus(ctx, res.Order.ID, "farmer1", OrderConfirmed, &notes)
	if err != nil {
		t.Fatalf("with notes: %v", err)
	}
	if sr.Order.FarmerNotes == nil || *sr.Order.FarmerNotes != notes {
		t.Fatalf("notes = %v", sr.Order.FarmerNotes)
	}

	sr, err = e.UpdateStatus(ctx, res.Order.ID, "farmer1", OrderPreparing, nil)
	if err != nil {
		t.Fatalf("clearing notes: %v", err)
	}
	if sr.Order.FarmerNotes != nil {
		t.Fatalf("notes should be cleared, got %v", *sr.Order.FarmerNotes)
	}
}

func TestGetVisibility(t *testing.T) {
	store := newFakeStore()
	store.addListing("l1", "farmer1", "tomato", "kg", 100, 10)
	store.addBuyer("b1", "buyer@example.com")
	e := NewEngine(store)
	ctx := context.Background()

	res, err := e.Create(ctx, validInput("l1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := e.Get(ctx, res.Order.ID, "b1"); err != nil {
		t.Fatalf("buyer get: %v", err)
	}
	if _, err := e.Get(ctx, res.Order.ID, "farmer1"); err != nil {
		t.Fatalf("farmer get: %v", err)
	}
	if _, err := e.Get(ctx, res.Order.ID, "stranger"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatal("third party should not see the order")
	}
}
