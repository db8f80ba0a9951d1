package dashboard

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// Handler aggregates the signed-in user's activity into a single
// overview payload. Farmers and buyers get different shapes.
type Handler struct {
	pool *pgxpool.Pool
}

func NewHandler(pool *pgxpool.Pool) *Handler {
	return &Handler{pool: pool}
}

// GET /dashboard
func (h *Handler) Get(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	role, _ := c.Get("role").(string)
	ctx := c.Request().Context()

	if role == "farmer" {
		return h.farmerDashboard(ctx, c, userID)
	}
	return h.buyerDashboard(ctx, c, userID)
}

type monthlyRevenue struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
	Orders  int     `json:"orders"`
}

type productShare struct {
	ProductType string  `json:"productType"`
	Orders      int     `json:"orders"`
	Revenue     float64 `json:"revenue"`
}

func (h *Handler) farmerDashboard(ctx context.Context, c echo.Context, farmerID string) error {
	var totalListings, activeListings int
	err := h.pool.QueryRow(ctx, `
        SELECT COUNT(*), COUNT(*) FILTER (WHERE is_active)
        FROM listings WHERE farmer_id = $1`, farmerID,
	).Scan(&totalListings, &activeListings)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load dashboard"})
	}

	var totalOffers, pendingOffers int
	err = h.pool.QueryRow(ctx, `
        SELECT COUNT(*), COUNT(*) FILTER (WHERE o.status = 'pending')
        FROM offers o
        JOIN listings l ON l.id = o.listing_id
        WHERE l.farmer_id = $1`, farmerID,
	).Scan(&totalOffers, &pendingOffers)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load dashboard"})
	}

	var totalOrders, pendingOrders, weeklyOrders int
	err = h.pool.QueryRow(ctx, `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE o.order_status = 'pending'),
               COUNT(*) FILTER (WHERE o.created_at >= NOW() - INTERVAL '7 days')
        FROM orders o
        JOIN listings l ON l.id = o.listing_id
        WHERE l.farmer_id = $1`, farmerID,
	).Scan(&totalOrders, &pendingOrders, &weeklyOrders)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load dashboard"})
	}

	var totalRatings int
	var averageRating *float64
	err = h.pool.QueryRow(ctx,
		`SELECT COUNT(*), AVG(rating) FROM ratings WHERE farmer_id = $1`, farmerID,
	).Scan(&totalRatings, &averageRating)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load dashboard"})
	}

	// Revenue only counts paid orders, grouped by calendar month.
	revRows, err := h.pool.Query(ctx, `
        SELECT TO_CHAR(o.created_at, 'YYYY-MM') AS month,
               SUM(o.total_price), COUNT(*)
        FROM orders o
        JOIN listings l ON l.id = o.listing_id
        WHERE l.farmer_id = $1
          AND o.payment_status = 'paid'
          AND o.created_at >= NOW() - INTERVAL '12 months'
        GROUP BY month
        ORDER BY month`, farmerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load dashboard"})
	}
	defer revRows.Close()

	var revenue []monthlyRevenue
	for revRows.Next() {
		var m monthlyRevenue
		if err := revRows.Scan(&m.Month, &m.Revenue, &m.Orders); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		revenue = append(revenue, m)
	}

	prodRows, err := h.pool.Query(ctx, `
        SELECT l.product_type, COUNT(*), COALESCE(SUM(o.total_price) FILTER (WHERE o.payment_status = 'paid'), 0)
        FROM orders o
        JOIN listings l ON l.id = o.listing_id
        WHERE l.farmer_id = $1
        GROUP BY l.product_type
        ORDER BY COUNT(*) DESC`, farmerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load dashboard"})
	}
	defer prodRows.Close()

	var products []productShare
	for prodRows.Next() {
		var p productShare
		if err := prodRows.Scan(&p.ProductType, &p.Orders, &p.Revenue); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		products = append(products, p)
	}

	recentOrders, err := h.recentOrders(ctx, `
        SELECT o.id, l.product_type, o.quantity, o.total_price, o.order_status, o.created_at
        FROM orders o
        JOIN listings l ON l.id = o.listing_id
        WHERE l.farmer_id = $1
        ORDER BY o.created_at DESC LIMIT 5`, farmerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load dashboard"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"role": "farmer",
		"totals": echo.Map{
			"totalListings":  totalListings,
			"activeListings": activeListings,
			"totalOffers":    totalOffers,
			"pendingOffers":  pendingOffers,
			"totalOrders":    totalOrders,
			"pendingOrders":  pendingOrders,
			"weeklyOrders":   weeklyOrders,
			"averageRating":  averageRating,
			"totalRatings":   totalRatings,
		},
		"monthlyRevenue": revenue,
		"productSales":   products,
		"recentOrders":   recentOrders,
	})
}

func (h *Handler) buyerDashboard(ctx context.Context, c echo.Context, buyerID string) error {
	var totalOffers, pendingOffers int
	err := h.pool.QueryRow(ctx, `
        SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'pending')
        FROM offers WHERE buyer_id = $1`, buyerID,
	).Scan(&totalOffers, &pendingOffers)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load dashboard"})
	}

	var totalOrders, activeOrders int
	var totalSpent float64
	err = h.pool.QueryRow(ctx, `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE order_status NOT IN ('delivered', 'cancelled')),
               COALESCE(SUM(total_price) FILTER (WHERE payment_status = 'paid'), 0)
        FROM orders WHERE buyer_id = $1`, buyerID,
	).Scan(&totalOrders, &activeOrders, &totalSpent)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load dashboard"})
	}

	recentOrders, err := h.recentOrders(ctx, `
        SELECT o.id, l.product_type, o.quantity, o.total_price, o.order_status, o.created_at
        FROM orders o
        JOIN listings l ON l.id = o.listing_id
        WHERE o.buyer_id = $1
        ORDER BY o.created_at DESC LIMIT 5`, buyerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load dashboard"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"role": "buyer",
		"totals": echo.Map{
			"totalOffers":   totalOffers,
			"pendingOffers": pendingOffers,
			"totalOrders":   totalOrders,
			"activeOrders":  activeOrders,
			"totalSpent":    totalSpent,
		},
		"recentOrders": recentOrders,
	})
}

type recentOrder struct {
	ID          string    `json:"id"`
	ProductType string    `json:"productType"`
	Quantity    float64   `json:"quantity"`
	TotalPrice  float64   `json:"totalPrice"`
	OrderStatus string    `json:"orderStatus"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (h *Handler) recentOrders(ctx context.Context, query string, userID string) ([]recentOrder, error) {
	rows, err := h.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []recentOrder
	for rows.Next() {
		var r recentOrder
		if err := rows.Scan(&r.ID, &r.ProductType, &r.Quantity, &r.TotalPrice, &r.OrderStatus, &r.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, r)
	}
	return list, nil
}
