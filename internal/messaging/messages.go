package messaging

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/bahcemden/backend/internal/alerts"
)

type Handler struct {
	pool *pgxpool.Pool
}

func NewHandler(pool *pgxpool.Pool) *Handler {
	return &Handler{pool: pool}
}

// participants resolves the buyer and farmer of the order's thread.
func (h *Handler) participants(c echo.Context, orderID string) (buyerID, farmerID string, err error) {
	err = h.pool.QueryRow(c.Request().Context(), `
        SELECT o.buyer_id, l.farmer_id
        FROM orders o
        JOIN listings l ON l.id = o.listing_id
        WHERE o.id = $1`, orderID,
	).Scan(&buyerID, &farmerID)
	return
}

// SendMessage - buyer or farmer sends a message in an order thread
func (h *Handler) SendMessage(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	orderID := c.Param("orderId")
	if orderID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing order id"})
	}

	var body struct {
		Content string `json:"content"`
	}
	if err := c.Bind(&body); err != nil || body.Content == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}

	buyerID, farmerID, err := h.participants(c, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch order"})
	}

	var recipientID string
	switch userID {
	case buyerID:
		recipientID = farmerID
	case farmerID:
		recipientID = buyerID
	default:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not a participant in this order"})
	}

	msgID := uuid.New().String()
	var createdAt time.Time
	err = h.pool.QueryRow(c.Request().Context(), `
        INSERT INTO messages (id, order_id, sender_id, recipient_id, content)
        VALUES ($1, $2, $3, $4, $5) RETURNING created_at`,
		msgID, orderID, userID, recipientID, body.Content,
	).Scan(&createdAt)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to send message"})
	}

	// Email notification (best-effort)
	var recipientName, recipientEmail string
	_ = h.pool.QueryRow(c.Request().Context(),
		`SELECT first_name, email FROM users WHERE id = $1`, recipientID,
	).Scan(&recipientName, &recipientEmail)
	if recipientEmail != "" {
		_ = alerts.EnqueueMessageNew(orderID, userID, recipientName, recipientEmail, body.Content)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": echo.Map{
			"id":          msgID,
			"orderId":     orderID,
			"senderId":    userID,
			"recipientId": recipientID,
			"content":     body.Content,
			"createdAt":   createdAt,
		},
	})
}

// ListMessages - get the conversation for an order
func (h *Handler) ListMessages(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	orderID := c.Param("orderId")
	if orderID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing order id"})
	}

	buyerID, farmerID, err := h.participants(c, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch order"})
	}
	if userID != buyerID && userID != farmerID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not a participant in this order"})
	}

	// Optional since filter for incremental fetches
	var rows pgx.Rows
	if sinceStr := c.QueryParam("since"); sinceStr != "" {
		sinceTime, perr := time.Parse(time.RFC3339, sinceStr)
		if perr != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid since timestamp, use RFC3339"})
		}
		rows, err = h.pool.Query(c.Request().Context(), `
            SELECT id, sender_id, recipient_id, content, created_at
            FROM messages WHERE order_id = $1 AND created_at > $2 ORDER BY created_at ASC`,
			orderID, sinceTime)
	} else {
		rows, err = h.pool.Query(c.Request().Context(), `
            SELECT id, sender_id, recipient_id, content, created_at
            FROM messages WHERE order_id = $1 ORDER BY created_at ASC`,
			orderID)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list messages"})
	}
	defer rows.Close()

	type message struct {
		ID          string    `json:"id"`
		SenderID    string    `json:"senderId"`
		RecipientID string    `json:"recipientId"`
		Content     string    `json:"content"`
		CreatedAt   time.Time `json:"createdAt"`
	}

	var msgs []message
	for rows.Next() {
		var m message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Content, &m.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		msgs = append(msgs, m)
	}

	return c.JSON(http.StatusOK, echo.Map{"messages": msgs})
}
