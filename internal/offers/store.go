package offers

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bahcemden/backend/internal/listings"
)

// ErrDuplicate reports that an offer for the same (listing, buyer) pair
// already exists. The unique index makes concurrent submissions hit this
// even when the pre-check passed.
var ErrDuplicate = errors.New("offer already exists for this listing and buyer")

// Store is the persistence surface of the offer engine.
type Store interface {
	ListingByID(ctx context.Context, listingID string) (*listings.Snapshot, error)
	ListingOwner(ctx context.Context, listingID string) (farmerID string, ok bool, err error)
	HasOffer(ctx context.Context, listingID, buyerID string) (bool, error)
	Insert(ctx context.Context, o *Offer) error

	// GetWithParties loads an offer together with the listing owner and
	// buyer identity. Returns (nil, nil, nil) when the offer is missing.
	GetWithParties(ctx context.Context, offerID string) (*Offer, *parties, error)

	// Accept flips the offer to accepted and rejects every other pending
	// offer on the same listing, atomically. Returns (nil, nil) when the
	// offer was no longer pending by the time of writing.
	Accept(ctx context.Context, offerID, listingID string) (*Offer, error)

	// Reject flips the offer to rejected if it is still pending.
	// Returns (nil, nil) on a lost race, like Accept.
	Reject(ctx context.Context, offerID string) (*Offer, error)

	Delete(ctx context.Context, offerID string) error

	ListForBuyer(ctx context.Context, buyerID, status string, limit, offset int) ([]BuyerOffer, int, error)
	ListForListing(ctx context.Context, listingID, status string, limit, offset int) ([]ListingOffer, int, error)

	// DetailFor loads the full offer view if userID is the buyer or the
	// listing's farmer; (nil, nil) otherwise.
	DetailFor(ctx context.Context, offerID, userID string) (*Detail, error)
}

type pgStore struct {
	pool *pgxpool.Pool
}

// NewStore returns the Postgres-backed offer store.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

func (s *pgStore) ListingByID(ctx context.Context, listingID string) (*listings.Snapshot, error) {
	return listings.SnapshotByID(ctx, s.pool, listingID)
}

func (s *pgStore) ListingOwner(ctx context.Context, listingID string) (string, bool, error) {
	var farmerID string
	err := s.pool.QueryRow(ctx,
		`SELECT farmer_id FROM listings WHERE id = $1`, listingID,
	).Scan(&farmerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return farmerID, true, nil
}

func (s *pgStore) HasOffer(ctx context.Context, listingID, buyerID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM offers WHERE listing_id = $1 AND buyer_id = $2)`,
		listingID, buyerID,
	).Scan(&exists)
	return exists, err
}

func (s *pgStore) Insert(ctx context.Context, o *Offer) error {
	_, err := s.pool.Exec(ctx, `
        INSERT INTO offers (id, listing_id, buyer_id, offer_price, message, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		o.ID, o.ListingID, o.BuyerID, o.OfferPrice, o.Message, o.Status, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *pgStore) GetWithParties(ctx context.Context, offerID string) (*Offer, *parties, error) {
	var o Offer
	var p parties
	err := s.pool.QueryRow(ctx, `
        SELECT o.id, o.listing_id, o.buyer_id, o.offer_price, o.message, o.status,
               o.created_at, o.updated_at,
               l.farmer_id, l.product_type, u.email
        FROM offers o
        JOIN listings l ON l.id = o.listing_id
        JOIN users u ON u.id = o.buyer_id
        WHERE o.id = $1`,
		offerID,
	).Scan(
		&o.ID, &o.ListingID, &o.BuyerID, &o.OfferPrice, &o.Message, &o.Status,
		&o.CreatedAt, &o.UpdatedAt,
		&p.FarmerID, &p.ProductType, &p.BuyerEmail,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	return &o, &p, nil
}

func (s *pgStore) Accept(ctx context.Context, offerID, listingID string) (*Offer, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Guarded by status = 'pending': a concurrent accept on a sibling
	// already rejected this row and the update hits nothing.
	var o Offer
	err = tx.QueryRow(ctx, `
        UPDATE offers SET status = 'accepted', updated_at = NOW()
        WHERE id = $1 AND status = 'pending'
        RETURNING id, listing_id, buyer_id, offer_price, message, status, created_at, updated_at`,
		offerID,
	).Scan(&o.ID, &o.ListingID, &o.BuyerID, &o.OfferPrice, &o.Message, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	_, err = tx.Exec(ctx, `
        UPDATE offers SET status = 'rejected', updated_at = NOW()
        WHERE listing_id = $1 AND id <> $2 AND status = 'pending'`,
		listingID, offerID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *pgStore) Reject(ctx context.Context, offerID string) (*Offer, error) {
	var o Offer
	err := s.pool.QueryRow(ctx, `
        UPDATE offers SET status = 'rejected', updated_at = NOW()
        WHERE id = $1 AND status = 'pending'
        RETURNING id, listing_id, buyer_id, offer_price, message, status, created_at, updated_at`,
		offerID,
	).Scan(&o.ID, &o.ListingID, &o.BuyerID, &o.OfferPrice, &o.Message, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (s *pgStore) Delete(ctx context.Context, offerID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM offers WHERE id = $1`, offerID)
	return err
}

func (s *pgStore) ListForBuyer(ctx context.Context, buyerID, status string, limit, offset int) ([]BuyerOffer, int, error) {
	countQuery := `SELECT COUNT(*) FROM offers o WHERE o.buyer_id = $1`
	countArgs := []any{buyerID}
	if status != "" {
		countQuery += ` AND o.status = $2`
		countArgs = append(countArgs, status)
	}
	var total int
	if err := s.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
        SELECT o.id, o.listing_id, o.buyer_id, o.offer_price, o.message, o.status,
               o.created_at, o.updated_at,
               l.product_type, l.quantity, l.unit, l.price, l.location, l.harvest_date,
               u.first_name, u.last_name, u.username
        FROM offers o
        JOIN listings l ON l.id = o.listing_id
        JOIN users u ON u.id = l.farmer_id
        WHERE o.buyer_id = $1`
	args := []any{buyerID}
	if status != "" {
		query += ` AND o.status = $2`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY o.created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []BuyerOffer
	for rows.Next() {
		var bo BuyerOffer
		if err := rows.Scan(
			&bo.ID, &bo.ListingID, &bo.BuyerID, &bo.OfferPrice, &bo.Message, &bo.Status,
			&bo.CreatedAt, &bo.UpdatedAt,
			&bo.Listing.ProductType, &bo.Listing.Quantity, &bo.Listing.Unit, &bo.Listing.Price,
			&bo.Listing.Location, &bo.Listing.HarvestDate,
			&bo.Farmer.FirstName, &bo.Farmer.LastName, &bo.Farmer.Username,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, bo)
	}
	return out, total, rows.Err()
}

func (s *pgStore) ListForListing(ctx context.Context, listingID, status string, limit, offset int) ([]ListingOffer, int, error) {
	countQuery := `SELECT COUNT(*) FROM offers o WHERE o.listing_id = $1`
	countArgs := []any{listingID}
	if status != "" {
		countQuery += ` AND o.status = $2`
		countArgs = append(countArgs, status)
	}
	var total int
	if err := s.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
        SELECT o.id, o.offer_price, o.message, o.status, o.created_at, o.updated_at,
               u.first_name, u.last_name, u.username, u.phone
        FROM offers o
        JOIN users u ON u.id = o.buyer_id
        WHERE o.listing_id = $1`
	args := []any{listingID}
	if status != "" {
		query += ` AND o.status = $2`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY o.created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []ListingOffer
	for rows.Next() {
		var lo ListingOffer
		if err := rows.Scan(
			&lo.ID, &lo.OfferPrice, &lo.Message, &lo.Status, &lo.CreatedAt, &lo.UpdatedAt,
			&lo.Buyer.FirstName, &lo.Buyer.LastName, &lo.Buyer.Username, &lo.Buyer.Phone,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, lo)
	}
	return out, total, rows.Err()
}

func (s *pgStore) DetailFor(ctx context.Context, offerID, userID string) (*Detail, error) {
	var d Detail
	err := s.pool.QueryRow(ctx, `
        SELECT o.id, o.listing_id, o.buyer_id, o.offer_price, o.message, o.status,
               o.created_at, o.updated_at,
               l.product_type, l.quantity, l.unit, l.price, l.location, l.harvest_date,
               ub.first_name, ub.last_name, ub.username, ub.phone,
               l.farmer_id, uf.first_name, uf.last_name, uf.username, uf.phone
        FROM offers o
        JOIN listings l ON l.id = o.listing_id
        JOIN users ub ON ub.id = o.buyer_id
        JOIN users uf ON uf.id = l.farmer_id
        WHERE o.id = $1 AND (o.buyer_id = $2 OR l.farmer_id = $2)`,
		offerID, userID,
	).Scan(
		&d.ID, &d.ListingID, &d.BuyerID, &d.OfferPrice, &d.Message, &d.Status,
		&d.CreatedAt, &d.UpdatedAt,
		&d.Listing.ProductType, &d.Listing.Quantity, &d.Listing.Unit, &d.Listing.Price,
		&d.Listing.Location, &d.Listing.HarvestDate,
		&d.Buyer.FirstName, &d.Buyer.LastName, &d.Buyer.Username, &d.Buyer.Phone,
		&d.Farmer.ID, &d.Farmer.FirstName, &d.Farmer.LastName, &d.Farmer.Username, &d.Farmer.Phone,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	d.Buyer.ID = d.BuyerID
	return &d, nil
}
