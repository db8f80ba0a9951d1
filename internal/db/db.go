package db

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens the Postgres pool from environment configuration.
// DATABASE_URL wins; otherwise the DSN is assembled from DB_* parts.
// The pool is owned by the caller and must be closed on shutdown.
func Connect(ctx context.Context) (*pgxpool.Pool, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s",
			os.Getenv("DB_USER"),
			os.Getenv("DB_PASSWORD"),
			os.Getenv("DB_HOST"),
			os.Getenv("DB_PORT"),
			os.Getenv("DB_NAME"),
		)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	log.Println("Connected to Postgres successfully")
	return pool, nil
}

// EnsureSchema runs the idempotent bootstrap statements. Failures are
// logged and skipped so a partially-privileged role can still boot
// against an already-migrated database.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) {
	ensureUsersTable(ctx, pool)
	ensureListingsTable(ctx, pool)
	ensureOffersTable(ctx, pool)
	ensureOrdersTable(ctx, pool)
	ensureMessagesTable(ctx, pool)
	ensureRatingsTable(ctx, pool)
	ensureInventoryTable(ctx, pool)
}

func ensureUsersTable(ctx context.Context, pool *pgxpool.Pool) {
	_, err := pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS users (
            id UUID PRIMARY KEY,
            username TEXT NOT NULL UNIQUE,
            first_name TEXT NOT NULL,
            last_name TEXT NOT NULL,
            email TEXT NOT NULL UNIQUE,
            password TEXT NOT NULL,
            phone TEXT,
            role TEXT NOT NULL CHECK (role IN ('farmer', 'buyer', 'admin')),
            is_active BOOLEAN NOT NULL DEFAULT TRUE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`)
	if err != nil {
		log.Printf("failed to ensure users table: %v", err)
		return
	}
	// Older databases may predate the suspend/activate feature.
	_, _ = pool.Exec(ctx, `ALTER TABLE users ADD COLUMN IF NOT EXISTS is_active BOOLEAN NOT NULL DEFAULT TRUE`)
}

func ensureListingsTable(ctx context.Context, pool *pgxpool.Pool) {
	_, err := pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS listings (
            id UUID PRIMARY KEY,
            farmer_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            product_type TEXT NOT NULL,
            quantity NUMERIC NOT NULL CHECK (quantity >= 0),
            unit TEXT NOT NULL,
            price NUMERIC NOT NULL CHECK (price > 0),
            harvest_date DATE,
            description TEXT,
            location TEXT,
            contact_info TEXT,
            is_active BOOLEAN NOT NULL DEFAULT TRUE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE INDEX IF NOT EXISTS idx_listings_farmer ON listings(farmer_id);
        CREATE INDEX IF NOT EXISTS idx_listings_active ON listings(is_active) WHERE is_active`)
	if err != nil {
		log.Printf("failed to ensure listings table: %v", err)
	}
}

func ensureOffersTable(ctx context.Context, pool *pgxpool.Pool) {
	_, err := pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS offers (
            id UUID PRIMARY KEY,
            listing_id UUID NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
            buyer_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            offer_price NUMERIC NOT NULL CHECK (offer_price > 0),
            message TEXT,
            status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'accepted', 'rejected')),
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE INDEX IF NOT EXISTS idx_offers_listing ON offers(listing_id);
        CREATE INDEX IF NOT EXISTS idx_offers_buyer ON offers(buyer_id)`)
	if err != nil {
		log.Printf("failed to ensure offers table: %v", err)
		return
	}
	// One offer per buyer per listing. The application pre-checks, but the
	// index is what turns concurrent double-submission into a clean conflict.
	_, err = pool.Exec(ctx, `CREATE UNIQUE INDEX IF NOT EXISTS idx_offers_listing_buyer ON offers(listing_id, buyer_id)`)
	if err != nil {
		log.Printf("failed to ensure offers uniqueness index: %v", err)
	}
}

func ensureOrdersTable(ctx context.Context, pool *pgxpool.Pool) {
	_, err := pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS orders (
            id UUID PRIMARY KEY,
            listing_id UUID NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
            buyer_email TEXT NOT NULL,
            buyer_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            quantity NUMERIC NOT NULL CHECK (quantity > 0),
            unit_price NUMERIC NOT NULL,
            total_price NUMERIC NOT NULL,
            payment_method TEXT NOT NULL CHECK (payment_method IN ('credit_card', 'bank_transfer', 'cash_on_delivery', 'digital_wallet')),
            delivery_address TEXT NOT NULL,
            delivery_phone TEXT NOT NULL,
            delivery_notes TEXT,
            farmer_notes TEXT,
            payment_status TEXT NOT NULL DEFAULT 'pending' CHECK (payment_status IN ('pending', 'paid', 'failed', 'refunded')),
            order_status TEXT NOT NULL DEFAULT 'pending' CHECK (order_status IN ('pending', 'confirmed', 'preparing', 'shipped', 'delivered', 'cancelled')),
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE INDEX IF NOT EXISTS idx_orders_listing ON orders(listing_id);
        CREATE INDEX IF NOT EXISTS idx_orders_buyer ON orders(buyer_id)`)
	if err != nil {
		log.Printf("failed to ensure orders table: %v", err)
	}
}

func ensureMessagesTable(ctx context.Context, pool *pgxpool.Pool) {
	_, err := pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS messages (
            id UUID PRIMARY KEY,
            order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
            sender_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            recipient_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            content TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE INDEX IF NOT EXISTS idx_messages_order_created ON messages(order_id, created_at)`)
	if err != nil {
		log.Printf("failed to ensure messages table: %v", err)
	}
}

func ensureRatingsTable(ctx context.Context, pool *pgxpool.Pool) {
	_, err := pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS ratings (
            id UUID PRIMARY KEY,
            order_id UUID NOT NULL UNIQUE REFERENCES orders(id) ON DELETE CASCADE,
            buyer_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            farmer_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
            comment TEXT,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE INDEX IF NOT EXISTS idx_ratings_farmer ON ratings(farmer_id)`)
	if err != nil {
		log.Printf("failed to ensure ratings table: %v", err)
	}
}

func ensureInventoryTable(ctx context.Context, pool *pgxpool.Pool) {
	_, err := pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS inventory_items (
            id UUID PRIMARY KEY,
            farmer_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            item_name TEXT NOT NULL,
            category TEXT NOT NULL,
            quantity NUMERIC NOT NULL CHECK (quantity > 0),
            unit TEXT NOT NULL,
            description TEXT,
            purchase_date DATE,
            expiry_date DATE,
            cost NUMERIC CHECK (cost >= 0),
            supplier TEXT,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE INDEX IF NOT EXISTS idx_inventory_farmer_category ON inventory_items(farmer_id, category)`)
	if err != nil {
		log.Printf("failed to ensure inventory table: %v", err)
	}
}
