package inventory

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/bahcemden/backend/internal/httpx"
)

// Item is a farmer's private stock record: seeds, fertilizer, harvested
// produce not yet listed. Never visible to buyers.
type Item struct {
	ID           string     `json:"id"`
	FarmerID     string     `json:"-"`
	ItemName     string     `json:"itemName"`
	Category     string     `json:"category"`
	Quantity     float64    `json:"quantity"`
	Unit         string     `json:"unit"`
	Description  *string    `json:"description"`
	PurchaseDate *time.Time `json:"purchaseDate"`
	ExpiryDate   *time.Time `json:"expiryDate"`
	Cost         *float64   `json:"cost"`
	Supplier     *string    `json:"supplier"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type Handler struct {
	pool *pgxpool.Pool
}

func NewHandler(pool *pgxpool.Pool) *Handler {
	return &Handler{pool: pool}
}

type createRequest struct {
	ItemName     string   `json:"itemName"`
	Category     string   `json:"category"`
	Quantity     float64  `json:"quantity"`
	Unit         string   `json:"unit"`
	Description  *string  `json:"description"`
	PurchaseDate *string  `json:"purchaseDate"`
	ExpiryDate   *string  `json:"expiryDate"`
	Cost         *float64 `json:"cost"`
	Supplier     *string  `json:"supplier"`
}

func parseDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// POST /inventory
func (h *Handler) Create(c echo.Context) error {
	farmerID, ok := c.Get("user_id").(string)
	if !ok || farmerID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req createRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.ItemName == "" || req.Category == "" || req.Unit == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "item name, category, quantity and unit are required"})
	}
	if req.Quantity <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "quantity must be a positive number"})
	}
	if req.Cost != nil && *req.Cost < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cost cannot be negative"})
	}
	purchaseDate, err := parseDate(req.PurchaseDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "purchase date must be in YYYY-MM-DD format"})
	}
	expiryDate, err := parseDate(req.ExpiryDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "expiry date must be in YYYY-MM-DD format"})
	}

	item := Item{
		ID:           uuid.New().String(),
		FarmerID:     farmerID,
		ItemName:     req.ItemName,
		Category:     req.Category,
		Quantity:     req.Quantity,
		Unit:         req.Unit,
		Description:  req.Description,
		PurchaseDate: purchaseDate,
		ExpiryDate:   expiryDate,
		Cost:         req.Cost,
		Supplier:     req.Supplier,
	}
	err = h.pool.QueryRow(context.Background(), `
        INSERT INTO inventory_items (id, farmer_id, item_name, category, quantity, unit,
                                     description, purchase_date, expiry_date, cost, supplier)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING created_at, updated_at`,
		item.ID, item.FarmerID, item.ItemName, item.Category, item.Quantity, item.Unit,
		item.Description, item.PurchaseDate, item.ExpiryDate, item.Cost, item.Supplier,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return httpx.Error(c, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "inventory item added",
		"item":    item,
	})
}

// GET /inventory - the farmer's own items, optionally filtered by category
func (h *Handler) List(c echo.Context) error {
	farmerID, ok := c.Get("user_id").(string)
	if !ok || farmerID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	page := httpx.ParsePage(c)
	category := c.QueryParam("category")

	countQuery := `SELECT COUNT(*) FROM inventory_items WHERE farmer_id = $1`
	countArgs := []any{farmerID}
	query := `
        SELECT id, item_name, category, quantity, unit, description,
               purchase_date, expiry_date, cost, supplier, created_at, updated_at
        FROM inventory_items WHERE farmer_id = $1`
	args := []any{farmerID}
	if category != "" {
		countQuery += ` AND category = $2`
		countArgs = append(countArgs, category)
		query += ` AND category = $2`
		args = append(args, category)
	}
	var total int
	if err := h.pool.QueryRow(context.Background(), countQuery, countArgs...).Scan(&total); err != nil {
		return httpx.Error(c, err)
	}

	if category != "" {
		query += ` ORDER BY created_at DESC LIMIT $3 OFFSET $4`
	} else {
		query += ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	}
	args = append(args, page.Limit, page.Offset())

	rows, err := h.pool.Query(context.Background(), query, args...)
	if err != nil {
		return httpx.Error(c, err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(
			&it.ID, &it.ItemName, &it.Category, &it.Quantity, &it.Unit, &it.Description,
			&it.PurchaseDate, &it.ExpiryDate, &it.Cost, &it.Supplier, &it.CreatedAt, &it.UpdatedAt,
		); err != nil {
			return httpx.Error(c, err)
		}
		items = append(items, it)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"items":      items,
		"pagination": httpx.NewMeta(page, total),
	})
}

// GET /inventory/categories - the farmer's categories with item counts
func (h *Handler) Categories(c echo.Context) error {
	farmerID, ok := c.Get("user_id").(string)
	if !ok || farmerID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	rows, err := h.pool.Query(context.Background(), `
        SELECT category, COUNT(*) FROM inventory_items
        WHERE farmer_id = $1
        GROUP BY category
        ORDER BY category`, farmerID)
	if err != nil {
		return httpx.Error(c, err)
	}
	defer rows.Close()

	type categoryCount struct {
		Category  string `json:"category"`
		ItemCount int    `json:"itemCount"`
	}
	var categories []categoryCount
	for rows.Next() {
		var cc categoryCount
		if err := rows.Scan(&cc.Category, &cc.ItemCount); err != nil {
			return httpx.Error(c, err)
		}
		categories = append(categories, cc)
	}

	return c.JSON(http.StatusOK, echo.Map{"categories": categories})
}

// GET /inventory/:id
func (h *Handler) Get(c echo.Context) error {
	farmerID, ok := c.Get("user_id").(string)
	if !ok || farmerID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var it Item
	err := h.pool.QueryRow(context.Background(), `
        SELECT id, item_name, category, quantity, unit, description,
               purchase_date, expiry_date, cost, supplier, created_at, updated_at
        FROM inventory_items WHERE id = $1 AND farmer_id = $2`,
		c.Param("id"), farmerID,
	).Scan(
		&it.ID, &it.ItemName, &it.Category, &it.Quantity, &it.Unit, &it.Description,
		&it.PurchaseDate, &it.ExpiryDate, &it.Cost, &it.Supplier, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "inventory item not found"})
		}
		return httpx.Error(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"item": it})
}

type updateRequest struct {
	ItemName     *string  `json:"itemName"`
	Category     *string  `json:"category"`
	Quantity     *float64 `json:"quantity"`
	Unit         *string  `json:"unit"`
	Description  *string  `json:"description"`
	PurchaseDate *string  `json:"purchaseDate"`
	ExpiryDate   *string  `json:"expiryDate"`
	Cost         *float64 `json:"cost"`
	Supplier     *string  `json:"supplier"`
}

// PUT /inventory/:id - partial update, nil fields keep their value
func (h *Handler) Update(c echo.Context) error {
	farmerID, ok := c.Get("user_id").(string)
	if !ok || farmerID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Quantity != nil && *req.Quantity <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "quantity must be a positive number"})
	}
	if req.Cost != nil && *req.Cost < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cost cannot be negative"})
	}
	purchaseDate, err := parseDate(req.PurchaseDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "purchase date must be in YYYY-MM-DD format"})
	}
	expiryDate, err := parseDate(req.ExpiryDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "expiry date must be in YYYY-MM-DD format"})
	}

	ct, err := h.pool.Exec(context.Background(), `
        UPDATE inventory_items
        SET item_name     = COALESCE($1, item_name),
            category      = COALESCE($2, category),
            quantity      = COALESCE($3, quantity),
            unit          = COALESCE($4, unit),
            description   = COALESCE($5, description),
            purchase_date = COALESCE($6, purchase_date),
            expiry_date   = COALESCE($7, expiry_date),
            cost          = COALESCE($8, cost),
            supplier      = COALESCE($9, supplier),
            updated_at    = NOW()
        WHERE id = $10 AND farmer_id = $11`,
		req.ItemName, req.Category, req.Quantity, req.Unit, req.Description,
		purchaseDate, expiryDate, req.Cost, req.Supplier,
		c.Param("id"), farmerID)
	if err != nil {
		return httpx.Error(c, err)
	}
	if ct.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "inventory item not found or not yours"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "inventory item updated"})
}

// DELETE /inventory/:id - hard delete, items are private records
func (h *Handler) Delete(c echo.Context) error {
	farmerID, ok := c.Get("user_id").(string)
	if !ok || farmerID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ct, err := h.pool.Exec(context.Background(),
		`DELETE FROM inventory_items WHERE id = $1 AND farmer_id = $2`,
		c.Param("id"), farmerID)
	if err != nil {
		return httpx.Error(c, err)
	}
	if ct.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "inventory item not found or not yours"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "inventory item deleted"})
}
