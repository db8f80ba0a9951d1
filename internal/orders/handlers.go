package orders

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bahcemden/backend/internal/alerts"
	"github.com/bahcemden/backend/internal/httpx"
)

type Handler struct {
	engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

type createRequest struct {
	Email           string  `json:"email"`
	Quantity        float64 `json:"quantity"`
	PaymentMethod   string  `json:"paymentMethod"`
	DeliveryAddress string  `json:"deliveryAddress"`
	DeliveryPhone   string  `json:"deliveryPhone"`
	DeliveryNotes   string  `json:"deliveryNotes"`
}

// POST /orders/:listingId  (public; the email stands in for a login)
func (h *Handler) Create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	res, err := h.engine.Create(c.Request().Context(), CreateInput{
		ListingID:       c.Param("listingId"),
		Email:           req.Email,
		Quantity:        req.Quantity,
		PaymentMethod:   req.PaymentMethod,
		DeliveryAddress: req.DeliveryAddress,
		DeliveryPhone:   req.DeliveryPhone,
		DeliveryNotes:   req.DeliveryNotes,
	})
	if err != nil {
		return httpx.Error(c, err)
	}

	if err := alerts.EnqueueOrderPlaced(res.Order.ID, res.Order.ListingID, res.FarmerEmail,
		res.Listing.ProductType, res.Listing.Unit, res.Order.Quantity, res.Order.TotalPrice); err != nil {
		log.Printf("enqueue order placed: %v", err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "order placed successfully",
		"order":   res.Order,
		"listing": res.Listing,
		"farmer":  echo.Map{"name": res.FarmerName},
	})
}

type statusRequest struct {
	OrderStatus string  `json:"orderStatus"`
	FarmerNotes *string `json:"farmerNotes"`
}

// PUT /orders/:orderId/status
func (h *Handler) UpdateStatus(c echo.Context) error {
	farmerID, ok := c.Get("user_id").(string)
	if !ok || farmerID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	res, err := h.engine.UpdateStatus(c.Request().Context(), c.Param("orderId"), farmerID, req.OrderStatus, req.FarmerNotes)
	if err != nil {
		return httpx.Error(c, err)
	}

	if err := alerts.EnqueueOrderStatus(res.Order.ID, res.BuyerEmail, res.Order.OrderStatus); err != nil {
		log.Printf("enqueue order status: %v", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "order status updated",
		"order":   res.Order,
	})
}

type paymentRequest struct {
	PaymentStatus string `json:"paymentStatus"`
}

// PUT /orders/:orderId/payment
func (h *Handler) UpdatePayment(c echo.Context) error {
	farmerID, ok := c.Get("user_id").(string)
	if !ok || farmerID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req paymentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	res, err := h.engine.UpdatePayment(c.Request().Context(), c.Param("orderId"), farmerID, req.PaymentStatus)
	if err != nil {
		return httpx.Error(c, err)
	}

	if err := alerts.EnqueuePaymentStatus(res.Order.ID, res.BuyerEmail, res.Order.PaymentStatus); err != nil {
		log.Printf("enqueue payment status: %v", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "payment status updated",
		"order":   res.Order,
	})
}

// GET /orders/my
func (h *Handler) ListMine(c echo.Context) error {
	buyerID, ok := c.Get("user_id").(string)
	if !ok || buyerID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	page := httpx.ParsePage(c)

	items, meta, err := h.engine.ListForBuyer(c.Request().Context(), buyerID,
		c.QueryParam("status"), c.QueryParam("paymentStatus"), page)
	if err != nil {
		return httpx.Error(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": items, "pagination": meta})
}

// GET /orders/farmer
func (h *Handler) ListReceived(c echo.Context) error {
	farmerID, ok := c.Get("user_id").(string)
	if !ok || farmerID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	page := httpx.ParsePage(c)

	items, meta, err := h.engine.ListForFarmer(c.Request().Context(), farmerID,
		c.QueryParam("status"), c.QueryParam("paymentStatus"), page)
	if err != nil {
		return httpx.Error(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": items, "pagination": meta})
}

// GET /orders/:orderId
func (h *Handler) Get(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	d, err := h.engine.Get(c.Request().Context(), c.Param("orderId"), userID)
	if err != nil {
		return httpx.Error(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"order": d})
}
