package listings

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SnapshotByID loads the snapshot for an active listing with an active
// owner. Returns (nil, nil) when no such listing exists — inactive
// listings and suspended farmers are indistinguishable from missing ones.
func SnapshotByID(ctx context.Context, pool *pgxpool.Pool, listingID string) (*Snapshot, error) {
	var s Snapshot
	err := pool.QueryRow(ctx, `
        SELECT l.id, l.farmer_id, l.product_type, l.quantity, l.unit, l.price,
               l.location, l.harvest_date,
               u.first_name, u.last_name, u.username, u.phone, u.email
        FROM listings l
        JOIN users u ON u.id = l.farmer_id
        WHERE l.id = $1 AND l.is_active = TRUE AND u.is_active = TRUE`,
		listingID,
	).Scan(
		&s.ID, &s.FarmerID, &s.ProductType, &s.Quantity, &s.Unit, &s.Price,
		&s.Location, &s.HarvestDate,
		&s.FarmerFirstName, &s.FarmerLastName, &s.FarmerUsername, &s.FarmerPhone, &s.FarmerEmail,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}
