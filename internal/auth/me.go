package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Me returns the currently authenticated user's profile
func (h *Handler) Me(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var (
		id, username, firstName, lastName, email, role string
		phone                                          *string
	)
	err := h.pool.QueryRow(c.Request().Context(), `
        SELECT id, username, first_name, last_name, email, phone, role
        FROM users WHERE id = $1`, userID).
		Scan(&id, &username, &firstName, &lastName, &email, &phone, &role)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":        id,
		"username":  username,
		"firstName": firstName,
		"lastName":  lastName,
		"email":     email,
		"phone":     phone,
		"role":      role,
	})
}
