package user

import (
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	pool *pgxpool.Pool
}

func NewHandler(pool *pgxpool.Pool) *Handler {
	return &Handler{pool: pool}
}

// GET /users/:id/profile
func (h *Handler) GetPublicProfile(c echo.Context) error {
	userID := c.Param("id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing user id"})
	}

	var (
		id, username, firstName, lastName, role string
		createdAt                               time.Time
	)
	err := h.pool.QueryRow(c.Request().Context(), `
        SELECT id, username, first_name, last_name, role, created_at
        FROM users
        WHERE id = $1 AND is_active = TRUE`, userID).Scan(
		&id, &username, &firstName, &lastName, &role, &createdAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch user"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":        id,
		"username":  username,
		"firstName": firstName,
		"lastName":  lastName,
		"role":      role,
		"createdAt": createdAt,
	})
}
