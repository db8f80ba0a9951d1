package ratings

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/bahcemden/backend/internal/httpx"
)

type Handler struct {
	pool *pgxpool.Pool
}

func NewHandler(pool *pgxpool.Pool) *Handler {
	return &Handler{pool: pool}
}

type createRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// POST /orders/:orderId/rating - buyer rates the farmer after delivery
func (h *Handler) Create(c echo.Context) error {
	buyerID, ok := c.Get("user_id").(string)
	if !ok || buyerID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	orderID := c.Param("orderId")
	if _, err := uuid.Parse(orderID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id format"})
	}

	var req createRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Rating < 1 || req.Rating > 5 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 1 and 5"})
	}
	if len(req.Comment) > 1000 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "comment too long (max 1000 characters)"})
	}

	ctx := c.Request().Context()

	// The order must belong to this buyer and be delivered.
	var farmerID, orderStatus string
	err := h.pool.QueryRow(ctx, `
        SELECT l.farmer_id, o.order_status
        FROM orders o
        JOIN listings l ON l.id = o.listing_id
        WHERE o.id = $1 AND o.buyer_id = $2`,
		orderID, buyerID,
	).Scan(&farmerID, &orderStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found or not yours"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch order"})
	}
	if orderStatus != "delivered" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "only delivered orders can be rated"})
	}

	var comment *string
	if req.Comment != "" {
		comment = &req.Comment
	}
	ratingID := uuid.New().String()
	_, err = h.pool.Exec(ctx, `
        INSERT INTO ratings (id, order_id, buyer_id, farmer_id, rating, comment)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		ratingID, orderID, buyerID, farmerID, req.Rating, comment)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return c.JSON(http.StatusConflict, echo.Map{"error": "this order has already been rated"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to save rating"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "rating saved",
		"rating": echo.Map{
			"id":      ratingID,
			"orderId": orderID,
			"rating":  req.Rating,
			"comment": comment,
		},
	})
}

// GET /farmers/:id/ratings - public, paginated, with average
func (h *Handler) ListForFarmer(c echo.Context) error {
	farmerID := c.Param("id")
	if farmerID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing farmer id"})
	}
	page := httpx.ParsePage(c)
	ctx := c.Request().Context()

	var farmerName string
	err := h.pool.QueryRow(ctx, `
        SELECT first_name || ' ' || last_name FROM users
        WHERE id = $1 AND role = 'farmer'`, farmerID,
	).Scan(&farmerName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "farmer not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch farmer"})
	}

	var total int
	var average *float64
	err = h.pool.QueryRow(ctx, `
        SELECT COUNT(*), AVG(rating) FROM ratings WHERE farmer_id = $1`, farmerID,
	).Scan(&total, &average)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch ratings"})
	}

	rows, err := h.pool.Query(ctx, `
        SELECT r.id, r.order_id, r.rating, r.comment, r.created_at,
               u.first_name, u.last_name
        FROM ratings r
        JOIN users u ON u.id = r.buyer_id
        WHERE r.farmer_id = $1
        ORDER BY r.created_at DESC
        LIMIT $2 OFFSET $3`,
		farmerID, page.Limit, page.Offset())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch ratings"})
	}
	defer rows.Close()

	type rating struct {
		ID        string    `json:"id"`
		OrderID   string    `json:"orderId"`
		Rating    int       `json:"rating"`
		Comment   *string   `json:"comment"`
		CreatedAt time.Time `json:"createdAt"`
		BuyerName string    `json:"buyerName"`
	}

	var list []rating
	for rows.Next() {
		var r rating
		var first, last string
		if err := rows.Scan(&r.ID, &r.OrderID, &r.Rating, &r.Comment, &r.CreatedAt, &first, &last); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		r.BuyerName = first + " " + last
		list = append(list, r)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"farmer":        echo.Map{"id": farmerID, "name": farmerName},
		"averageRating": average,
		"ratings":       list,
		"pagination":    httpx.NewMeta(page, total),
	})
}
