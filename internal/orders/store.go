package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bahcemden/backend/internal/listings"
)

// ErrInsufficientStock reports that the conditional stock decrement hit
// nothing: the listing no longer has the requested quantity.
var ErrInsufficientStock = errors.New("not enough stock for the requested quantity")

// Buyer is the account resolved from the checkout email.
type Buyer struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
}

// Store is the persistence surface of the order engine.
type Store interface {
	ListingByID(ctx context.Context, listingID string) (*listings.Snapshot, error)

	// ActiveBuyerByEmail resolves the checkout email to an active
	// account. Returns (nil, nil) when no such account exists.
	ActiveBuyerByEmail(ctx context.Context, email string) (*Buyer, error)

	// Create inserts the order and decrements the listing stock in one
	// transaction. Returns ErrInsufficientStock when the listing no
	// longer covers o.Quantity.
	Create(ctx context.Context, o *Order) error

	// GetWithParties loads an order together with the listing owner and
	// both parties' contact details. (nil, nil, nil) when missing.
	GetWithParties(ctx context.Context, orderID string) (*Order, *parties, error)

	SetOrderStatus(ctx context.Context, orderID, status string, farmerNotes *string) (*Order, error)
	SetPaymentStatus(ctx context.Context, orderID, status string) (*Order, error)

	ListForBuyer(ctx context.Context, buyerID string, f ListFilter) ([]Row, int, error)
	ListForFarmer(ctx context.Context, farmerID string, f ListFilter) ([]Row, int, error)

	// DetailFor loads the full order view if userID is the buyer or the
	// listing's farmer; (nil, nil) otherwise.
	DetailFor(ctx context.Context, orderID, userID string) (*Detail, error)
}

type pgStore struct {
	pool *pgxpool.Pool
}

// NewStore returns the Postgres-backed order store.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

func (s *pgStore) ListingByID(ctx context.Context, listingID string) (*listings.Snapshot, error) {
	return listings.SnapshotByID(ctx, s.pool, listingID)
}

func (s *pgStore) ActiveBuyerByEmail(ctx context.Context, email string) (*Buyer, error) {
	var b Buyer
	err := s.pool.QueryRow(ctx, `
        SELECT id, first_name, last_name, email
        FROM users WHERE LOWER(email) = LOWER($1) AND is_active = TRUE`,
		email,
	).Scan(&b.ID, &b.FirstName, &b.LastName, &b.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (s *pgStore) Create(ctx context.Context, o *Order) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Conditional decrement: the WHERE clause keeps quantity from going
	// negative under concurrent orders.
	tag, err := tx.Exec(ctx, `
        UPDATE listings SET quantity = quantity - $1, updated_at = NOW()
        WHERE id = $2 AND quantity >= $1`,
		o.Quantity, o.ListingID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientStock
	}

	_, err = tx.Exec(ctx, `
        INSERT INTO orders (id, listing_id, buyer_email, buyer_id, quantity, unit_price, total_price,
                            payment_method, delivery_address, delivery_phone, delivery_notes,
                            payment_status, order_status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		o.ID, o.ListingID, o.BuyerEmail, o.BuyerID, o.Quantity, o.UnitPrice, o.TotalPrice,
		o.PaymentMethod, o.DeliveryAddress, o.DeliveryPhone, o.DeliveryNotes,
		o.PaymentStatus, o.OrderStatus, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

const orderColumns = `o.id, o.listing_id, o.buyer_email, o.buyer_id, o.quantity, o.unit_price,
               o.total_price, o.payment_method, o.delivery_address, o.delivery_phone,
               o.delivery_notes, o.farmer_notes, o.payment_status, o.order_status,
               o.created_at, o.updated_at`

func scanOrder(row pgx.Row, o *Order) error {
	return row.Scan(
		&o.ID, &o.ListingID, &o.BuyerEmail, &o.BuyerID, &o.Quantity, &o.UnitPrice,
		&o.TotalPrice, &o.PaymentMethod, &o.DeliveryAddress, &o.DeliveryPhone,
		&o.DeliveryNotes, &o.FarmerNotes, &o.PaymentStatus, &o.OrderStatus,
		&o.CreatedAt, &o.UpdatedAt,
	)
}

func (s *pgStore) GetWithParties(ctx context.Context, orderID string) (*Order, *parties, error) {
	var o Order
	var p parties
	err := s.pool.QueryRow(ctx, `
        SELECT `+orderColumns+`,
               l.farmer_id, l.product_type, fu.email, bu.email
        FROM orders o
        JOIN listings l ON l.id = o.listing_id
        JOIN users fu ON fu.id = l.farmer_id
        JOIN users bu ON bu.id = o.buyer_id
        WHERE o.id = $1`,
		orderID,
	).Scan(
		&o.ID, &o.ListingID, &o.BuyerEmail, &o.BuyerID, &o.Quantity, &o.UnitPrice,
		&o.TotalPrice, &o.PaymentMethod, &o.DeliveryAddress, &o.DeliveryPhone,
		&o.DeliveryNotes, &o.FarmerNotes, &o.PaymentStatus, &o.OrderStatus,
		&o.CreatedAt, &o.UpdatedAt,
		&p.FarmerID, &p.ProductType, &p.FarmerEmail, &p.BuyerEmail,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	return &o, &p, nil
}

func (s *pgStore) SetOrderStatus(ctx context.Context, orderID, status string, farmerNotes *string) (*Order, error) {
	// farmer_notes is written unconditionally: a null clears the notes.
	var o Order
	err := scanOrder(s.pool.QueryRow(ctx, `
        UPDATE orders SET order_status = $1, farmer_notes = $2, updated_at = NOW()
        WHERE id = $3
        RETURNING `+orderColumns,
		status, farmerNotes, orderID), &o)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (s *pgStore) SetPaymentStatus(ctx context.Context, orderID, status string) (*Order, error) {
	var o Order
	err := scanOrder(s.pool.QueryRow(ctx, `
        UPDATE orders SET payment_status = $1, updated_at = NOW()
        WHERE id = $2
        RETURNING `+orderColumns,
		status, orderID), &o)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (s *pgStore) ListForBuyer(ctx context.Context, buyerID string, f ListFilter) ([]Row, int, error) {
	return s.list(ctx, `o.buyer_id = $1`, buyerID, f, true)
}

func (s *pgStore) ListForFarmer(ctx context.Context, farmerID string, f ListFilter) ([]Row, int, error) {
	return s.list(ctx, `l.farmer_id = $1`, farmerID, f, false)
}

// list is shared by the buyer and farmer views. withFarmer selects which
// counterparty identity gets joined into each row.
func (s *pgStore) list(ctx context.Context, ownClause, ownID string, f ListFilter, withFarmer bool) ([]Row, int, error) {
	where := ` WHERE ` + ownClause
	args := []any{ownID}
	if f.Status != "" {
		where += fmt.Sprintf(` AND o.order_status = $%d`, len(args)+1)
		args = append(args, f.Status)
	}
	if f.PaymentStatus != "" {
		where += fmt.Sprintf(` AND o.payment_status = $%d`, len(args)+1)
		args = append(args, f.PaymentStatus)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM orders o JOIN listings l ON l.id = o.listing_id` + where
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	partyJoin := `JOIN users u ON u.id = o.buyer_id`
	if withFarmer {
		partyJoin = `JOIN users u ON u.id = l.farmer_id`
	}
	query := `
        SELECT ` + orderColumns + `,
               l.product_type, l.unit, l.price, l.location,
               u.id, u.first_name, u.last_name, u.username, u.phone
        FROM orders o
        JOIN listings l ON l.id = o.listing_id
        ` + partyJoin + where +
		fmt.Sprintf(` ORDER BY o.created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		var party Party
		if err := rows.Scan(
			&r.ID, &r.ListingID, &r.BuyerEmail, &r.BuyerID, &r.Quantity, &r.UnitPrice,
			&r.TotalPrice, &r.PaymentMethod, &r.DeliveryAddress, &r.DeliveryPhone,
			&r.DeliveryNotes, &r.FarmerNotes, &r.PaymentStatus, &r.OrderStatus,
			&r.CreatedAt, &r.UpdatedAt,
			&r.Listing.ProductType, &r.Listing.Unit, &r.Listing.Price, &r.Listing.Location,
			&party.ID, &party.FirstName, &party.LastName, &party.Username, &party.Phone,
		); err != nil {
			return nil, 0, err
		}
		if withFarmer {
			r.Farmer = &party
		} else {
			r.Buyer = &party
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}

func (s *pgStore) DetailFor(ctx context.Context, orderID, userID string) (*Detail, error) {
	var d Detail
	err := s.pool.QueryRow(ctx, `
        SELECT `+orderColumns+`,
               l.product_type, l.unit, l.price, l.location,
               fu.id, fu.first_name, fu.last_name, fu.username, fu.phone,
               bu.id, bu.first_name, bu.last_name, bu.username, bu.phone
        FROM orders o
        JOIN listings l ON l.id = o.listing_id
        JOIN users fu ON fu.id = l.farmer_id
        JOIN users bu ON bu.id = o.buyer_id
        WHERE o.id = $1 AND (o.buyer_id = $2 OR l.farmer_id = $2)`,
		orderID, userID,
	).Scan(
		&d.ID, &d.ListingID, &d.BuyerEmail, &d.BuyerID, &d.Quantity, &d.UnitPrice,
		&d.TotalPrice, &d.PaymentMethod, &d.DeliveryAddress, &d.DeliveryPhone,
		&d.DeliveryNotes, &d.FarmerNotes, &d.PaymentStatus, &d.OrderStatus,
		&d.CreatedAt, &d.UpdatedAt,
		&d.Listing.ProductType, &d.Listing.Unit, &d.Listing.Price, &d.Listing.Location,
		&d.Farmer.ID, &d.Farmer.FirstName, &d.Farmer.LastName, &d.Farmer.Username, &d.Farmer.Phone,
		&d.Buyer.ID, &d.Buyer.FirstName, &d.Buyer.LastName, &d.Buyer.Username, &d.Buyer.Phone,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}
