package farmers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/bahcemden/backend/internal/httpx"
)

// Handler serves the public farmer directory: search, profile detail
// and rating statistics. Everything here is buyer-facing and
// unauthenticated, so only active farmers are ever returned.
type Handler struct {
	pool *pgxpool.Pool
}

func NewHandler(pool *pgxpool.Pool) *Handler {
	return &Handler{pool: pool}
}

type summary struct {
	ID            string   `json:"id"`
	Username      string   `json:"username"`
	FirstName     string   `json:"firstName"`
	LastName      string   `json:"lastName"`
	ListingCount  int      `json:"listingCount"`
	AverageRating *float64 `json:"averageRating"`
	TotalRatings  int      `json:"totalRatings"`
}

// GET /farmers/search - public directory with optional filters
func (h *Handler) Search(c echo.Context) error {
	page := httpx.ParsePage(c)
	ctx := c.Request().Context()

	where := `u.role = 'farmer' AND u.is_active`
	args := []any{}
	n := 0

	search := c.QueryParam("search")
	if search != "" {
		n++
		where += fmt.Sprintf(` AND (u.first_name ILIKE $%d OR u.last_name ILIKE $%d OR u.username ILIKE $%d)`, n, n, n)
		args = append(args, "%"+search+"%")
	}
	location := c.QueryParam("location")
	if location != "" {
		n++
		where += fmt.Sprintf(` AND EXISTS (
            SELECT 1 FROM listings l WHERE l.farmer_id = u.id AND l.is_active AND l.location ILIKE $%d)`, n)
		args = append(args, "%"+location+"%")
	}
	productType := c.QueryParam("productType")
	if productType != "" {
		n++
		where += fmt.Sprintf(` AND EXISTS (
            SELECT 1 FROM listings l WHERE l.farmer_id = u.id AND l.is_active AND l.product_type ILIKE $%d)`, n)
		args = append(args, "%"+productType+"%")
	}
	var minRating float64
	if v := c.QueryParam("minRating"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 1 || f > 5 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "minRating must be a number between 1 and 5"})
		}
		minRating = f
	}

	having := ``
	if minRating > 0 {
		n++
		having = fmt.Sprintf(` HAVING COALESCE(AVG(r.rating), 0) >= $%d`, n)
		args = append(args, minRating)
	}

	countQuery := `
        SELECT COUNT(*) FROM (
            SELECT u.id
            FROM users u
            LEFT JOIN ratings r ON r.farmer_id = u.id
            WHERE ` + where + `
            GROUP BY u.id` + having + `
        ) matched`
	var total int
	if err := h.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to search farmers"})
	}

	query := `
        SELECT u.id, u.username, u.first_name, u.last_name,
               COUNT(DISTINCT l.id) FILTER (WHERE l.is_active),
               AVG(r.rating), COUNT(DISTINCT r.id)
        FROM users u
        LEFT JOIN listings l ON l.farmer_id = u.id
        LEFT JOIN ratings r ON r.farmer_id = u.id
        WHERE ` + where + `
        GROUP BY u.id, u.username, u.first_name, u.last_name` + having +
		fmt.Sprintf(` ORDER BY AVG(r.rating) DESC NULLS LAST, u.username LIMIT $%d OFFSET $%d`, n+1, n+2)
	args = append(args, page.Limit, page.Offset())

	rows, err := h.pool.Query(ctx, query, args...)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to search farmers"})
	}
	defer rows.Close()

	var list []summary
	for rows.Next() {
		var s summary
		if err := rows.Scan(&s.ID, &s.Username, &s.FirstName, &s.LastName,
			&s.ListingCount, &s.AverageRating, &s.TotalRatings); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		list = append(list, s)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"farmers":    list,
		"pagination": httpx.NewMeta(page, total),
		"filters": echo.Map{
			"search":      search,
			"location":    location,
			"productType": productType,
			"minRating":   minRating,
		},
	})
}

// GET /farmers/:id - public profile with active listings and rating stats
func (h *Handler) Get(c echo.Context) error {
	farmerID := c.Param("id")
	ctx := c.Request().Context()

	var farmer struct {
		ID        string    `json:"id"`
		Username  string    `json:"username"`
		FirstName string    `json:"firstName"`
		LastName  string    `json:"lastName"`
		CreatedAt time.Time `json:"memberSince"`
	}
	err := h.pool.QueryRow(ctx, `
        SELECT id, username, first_name, last_name, created_at
        FROM users WHERE id = $1 AND role = 'farmer' AND is_active`, farmerID,
	).Scan(&farmer.ID, &farmer.Username, &farmer.FirstName, &farmer.LastName, &farmer.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "farmer not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch farmer"})
	}

	var totalRatings int
	var averageRating *float64
	if err := h.pool.QueryRow(ctx,
		`SELECT COUNT(*), AVG(rating) FROM ratings WHERE farmer_id = $1`, farmerID,
	).Scan(&totalRatings, &averageRating); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch ratings"})
	}

	type listing struct {
		ID          string  `json:"id"`
		ProductType string  `json:"productType"`
		Quantity    float64 `json:"quantity"`
		Unit        string  `json:"unit"`
		Price       float64 `json:"price"`
		Location    string  `json:"location"`
	}
	rows, err := h.pool.Query(ctx, `
        SELECT id, product_type, quantity, unit, price, location
        FROM listings WHERE farmer_id = $1 AND is_active
        ORDER BY created_at DESC`, farmerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch listings"})
	}
	defer rows.Close()

	var listings []listing
	for rows.Next() {
		var l listing
		if err := rows.Scan(&l.ID, &l.ProductType, &l.Quantity, &l.Unit, &l.Price, &l.Location); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		listings = append(listings, l)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"farmer":        farmer,
		"listings":      listings,
		"averageRating": averageRating,
		"totalRatings":  totalRatings,
	})
}

// GET /farmers/:id/stats - totals, rating distribution, recent activity
func (h *Handler) Stats(c echo.Context) error {
	farmerID := c.Param("id")
	ctx := c.Request().Context()

	var exists bool
	if err := h.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND role = 'farmer' AND is_active)`,
		farmerID,
	).Scan(&exists); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch farmer"})
	}
	if !exists {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "farmer not found"})
	}

	var totalListings, activeListings, recentListings int
	err := h.pool.QueryRow(ctx, `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE is_active),
               COUNT(*) FILTER (WHERE created_at >= NOW() - INTERVAL '30 days')
        FROM listings WHERE farmer_id = $1`, farmerID,
	).Scan(&totalListings, &activeListings, &recentListings)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch listing stats"})
	}

	var totalRatings int
	var avgRating, minRating, maxRating *float64
	err = h.pool.QueryRow(ctx, `
        SELECT COUNT(*), AVG(rating), MIN(rating)::float8, MAX(rating)::float8
        FROM ratings WHERE farmer_id = $1`, farmerID,
	).Scan(&totalRatings, &avgRating, &minRating, &maxRating)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch rating stats"})
	}

	distribution := map[string]int{"1": 0, "2": 0, "3": 0, "4": 0, "5": 0}
	rows, err := h.pool.Query(ctx,
		`SELECT rating, COUNT(*) FROM ratings WHERE farmer_id = $1 GROUP BY rating`, farmerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch rating stats"})
	}
	defer rows.Close()
	for rows.Next() {
		var rating, count int
		if err := rows.Scan(&rating, &count); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		distribution[strconv.Itoa(rating)] = count
	}

	return c.JSON(http.StatusOK, echo.Map{
		"listings": echo.Map{
			"total":      totalListings,
			"active":     activeListings,
			"last30Days": recentListings,
		},
		"ratings": echo.Map{
			"total":        totalRatings,
			"average":      avgRating,
			"min":          minRating,
			"max":          maxRating,
			"distribution": distribution,
		},
	})
}
