package listings

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
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
	ProductType string  `json:"productType"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	Price       float64 `json:"price"`
	HarvestDate string  `json:"harvestDate"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
	ContactInfo *string `json:"contactInfo"`
}

// POST /listings
func (h *Handler) Create(c echo.Context) error {
	farmerID, ok := c.Get("user_id").(string)
	if !ok || farmerID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req createRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.ProductType == "" || req.Unit == "" || req.HarvestDate == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "product type, quantity, unit, price and harvest date are required"})
	}
	if req.Quantity <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "quantity must be a positive number"})
	}
	if req.Price <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price must be a positive number"})
	}
	harvestDate, err := time.Parse("2006-01-02", req.HarvestDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "harvest date must be in YYYY-MM-DD format"})
	}

	listingID := uuid.New().String()
	var createdAt time.Time
	err = h.pool.QueryRow(context.Background(), `
        INSERT INTO listings (id, farmer_id, product_type, quantity, unit, price, harvest_date,
                              description, location, contact_info, is_active)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, TRUE)
        RETURNING created_at`,
		listingID, farmerID, req.ProductType, req.Quantity, req.Unit, req.Price, harvestDate,
		req.Description, req.Location, req.ContactInfo,
	).Scan(&createdAt)
	if err != nil {
		return httpx.Error(c, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "listing created successfully",
		"listing": echo.Map{
			"id":          listingID,
			"productType": req.ProductType,
			"quantity":    req.Quantity,
			"unit":        req.Unit,
			"price":       req.Price,
			"harvestDate": req.HarvestDate,
			"createdAt":   createdAt,
		},
	})
}

// GET /listings - public browse over active listings from active farmers
func (h *Handler) List(c echo.Context) error {
	page := httpx.ParsePage(c)

	query := `
        SELECT l.id, l.farmer_id, l.product_type, l.quantity, l.unit, l.price,
               l.harvest_date, l.description, l.location, l.contact_info,
               l.is_active, l.created_at, l.updated_at,
               u.first_name, u.last_name, u.username
        FROM listings l
        JOIN users u ON u.id = l.farmer_id
        WHERE l.is_active = TRUE AND u.is_active = TRUE`
	countQuery := `
        SELECT COUNT(*)
        FROM listings l
        JOIN users u ON u.id = l.farmer_id
        WHERE l.is_active = TRUE AND u.is_active = TRUE`
	var args []any
	var countArgs []any

	addFilter := func(clause string, value any) {
		args = append(args, value)
		countArgs = append(countArgs, value)
		cond := fmt.Sprintf(clause, len(args))
		query += cond
		countQuery += cond
	}

	if v := c.QueryParam("productType"); v != "" {
		addFilter(" AND l.product_type ILIKE '%%' || $%d || '%%'", v)
	}
	if v := c.QueryParam("location"); v != "" {
		addFilter(" AND l.location ILIKE '%%' || $%d || '%%'", v)
	}
	if v := c.QueryParam("minPrice"); v != "" {
		if p, err := strconv.ParseFloat(v, 64); err == nil {
			addFilter(" AND l.price >= $%d", p)
		}
	}
	if v := c.QueryParam("maxPrice"); v != "" {
		if p, err := strconv.ParseFloat(v, 64); err == nil {
			addFilter(" AND l.price <= $%d", p)
		}
	}

	var total int
	if err := h.pool.QueryRow(context.Background(), countQuery, countArgs...).Scan(&total); err != nil {
		return httpx.Error(c, err)
	}

	query += fmt.Sprintf(" ORDER BY l.created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, page.Limit, page.Offset())

	rows, err := h.pool.Query(context.Background(), query, args...)
	if err != nil {
		return httpx.Error(c, err)
	}
	defer rows.Close()

	items := []echo.Map{}
	for rows.Next() {
		var l Listing
		var firstName, lastName, username string
		if err := rows.Scan(
			&l.ID, &l.FarmerID, &l.ProductType, &l.Quantity, &l.Unit, &l.Price,
			&l.HarvestDate, &l.Description, &l.Location, &l.ContactInfo,
			&l.IsActive, &l.CreatedAt, &l.UpdatedAt,
			&firstName, &lastName, &username,
		); err != nil {
			return httpx.Error(c, err)
		}
		items = append(items, echo.Map{
			"id":          l.ID,
			"productType": l.ProductType,
			"quantity":    l.Quantity,
			"unit":        l.Unit,
			"price":       l.Price,
			"harvestDate": l.HarvestDate,
			"description": l.Description,
			"location":    l.Location,
			"createdAt":   l.CreatedAt,
			"farmer": echo.Map{
				"firstName": firstName,
				"lastName":  lastName,
				"username":  username,
			},
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"listings":   items,
		"pagination": httpx.NewMeta(page, total),
	})
}

// GET /listings/my - the calling farmer's own listings, active or not
func (h *Handler) ListMine(c echo.Context) error {
	farmerID, ok := c.Get("user_id").(string)
	if !ok || farmerID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	page := httpx.ParsePage(c)

	var total int
	if err := h.pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM listings WHERE farmer_id = $1`, farmerID,
	).Scan(&total); err != nil {
		return httpx.Error(c, err)
	}

	rows, err := h.pool.Query(context.Background(), `
        SELECT id, farmer_id, product_type, quantity, unit, price, harvest_date,
               description, location, contact_info, is_active, created_at, updated_at
        FROM listings WHERE farmer_id = $1
        ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		farmerID, page.Limit, page.Offset())
	if err != nil {
		return httpx.Error(c, err)
	}
	defer rows.Close()

	items := []Listing{}
	for rows.Next() {
		var l Listing
		if err := rows.Scan(
			&l.ID, &l.FarmerID, &l.ProductType, &l.Quantity, &l.Unit, &l.Price, &l.HarvestDate,
			&l.Description, &l.Location, &l.ContactInfo, &l.IsActive, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return httpx.Error(c, err)
		}
		items = append(items, l)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"listings":   items,
		"pagination": httpx.NewMeta(page, total),
	})
}

// GET /listings/:id
func (h *Handler) Get(c echo.Context) error {
	listingID := c.Param("id")
	if listingID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing listing id"})
	}

	var l Listing
	var firstName, lastName, username string
	var phone *string
	err := h.pool.QueryRow(context.Background(), `
        SELECT l.id, l.farmer_id, l.product_type, l.quantity, l.unit, l.price,
               l.harvest_date, l.description, l.location, l.contact_info,
               l.is_active, l.created_at, l.updated_at,
               u.first_name, u.last_name, u.username, u.phone
        FROM listings l
        JOIN users u ON u.id = l.farmer_id
        WHERE l.id = $1 AND l.is_active = TRUE AND u.is_active = TRUE`,
		listingID,
	).Scan(
		&l.ID, &l.FarmerID, &l.ProductType, &l.Quantity, &l.Unit, &l.Price,
		&l.HarvestDate, &l.Description, &l.Location, &l.ContactInfo,
		&l.IsActive, &l.CreatedAt, &l.UpdatedAt,
		&firstName, &lastName, &username, &phone,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found or inactive"})
		}
		return httpx.Error(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":          l.ID,
		"productType": l.ProductType,
		"quantity":    l.Quantity,
		"unit":        l.Unit,
		"price":       l.Price,
		"harvestDate": l.HarvestDate,
		"description": l.Description,
		"location":    l.Location,
		"contactInfo": l.ContactInfo,
		"createdAt":   l.CreatedAt,
		"updatedAt":   l.UpdatedAt,
		"farmer": echo.Map{
			"id":        l.FarmerID,
			"firstName": firstName,
			"lastName":  lastName,
			"username":  username,
			"phone":     phone,
		},
	})
}

type updateRequest struct {
	ProductType *string  `json:"productType"`
	Quantity    *float64 `json:"quantity"`
	Unit        *string  `json:"unit"`
	Price       *float64 `json:"price"`
	Description *string  `json:"description"`
	Location    *string  `json:"location"`
	ContactInfo *string  `json:"contactInfo"`
	IsActive    *bool    `json:"isActive"`
}

// PUT /listings/:id - partial update, nil fields keep their value
func (h *Handler) Update(c echo.Context) error {
	farmerID, ok := c.Get("user_id").(string)
	if !ok || farmerID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	listingID := c.Param("id")
	if listingID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing listing id"})
	}

	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Quantity != nil && *req.Quantity < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "quantity cannot be negative"})
	}
	if req.Price != nil && *req.Price <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price must be a positive number"})
	}

	ct, err := h.pool.Exec(context.Background(), `
        UPDATE listings
        SET product_type = COALESCE($1, product_type),
            quantity     = COALESCE($2, quantity),
            unit         = COALESCE($3, unit),
            price        = COALESCE($4, price),
            description  = COALESCE($5, description),
            location     = COALESCE($6, location),
            contact_info = COALESCE($7, contact_info),
            is_active    = COALESCE($8, is_active),
            updated_at   = NOW()
        WHERE id = $9 AND farmer_id = $10`,
		req.ProductType, req.Quantity, req.Unit, req.Price,
		req.Description, req.Location, req.ContactInfo, req.IsActive,
		listingID, farmerID)
	if err != nil {
		return httpx.Error(c, err)
	}
	if ct.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found or not yours"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "listing updated successfully"})
}

// DELETE /listings/:id - soft deactivate; offers and orders keep their rows
func (h *Handler) Deactivate(c echo.Context) error {
	farmerID, ok := c.Get("user_id").(string)
	if !ok || farmerID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	listingID := c.Param("id")
	if listingID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing listing id"})
	}

	ct, err := h.pool.Exec(context.Background(),
		`UPDATE listings SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND farmer_id = $2`,
		listingID, farmerID)
	if err != nil {
		return httpx.Error(c, err)
	}
	if ct.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found or not yours"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "listing removed successfully"})
}
