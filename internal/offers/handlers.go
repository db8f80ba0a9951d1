package offers

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

type submitRequest struct {
	ListingID  string  `json:"listingId"`
	OfferPrice float64 `json:"offerPrice"`
	Message    string  `json:"message"`
}

// POST /offers
func (h *Handler) Submit(c echo.Context) error {
	buyerID, ok := c.Get("user_id").(string)
	if !ok || buyerID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	res, err := h.engine.Submit(c.Request().Context(), SubmitInput{
		ListingID:  req.ListingID,
		BuyerID:    buyerID,
		OfferPrice: req.OfferPrice,
		Message:    req.Message,
	})
	if err != nil {
		return httpx.Error(c, err)
	}

	if err := alerts.EnqueueOfferReceived(res.Offer.ID, res.Offer.ListingID, buyerID, res.FarmerEmail, res.FarmerName, res.ProductType, res.Offer.OfferPrice); err != nil {
		log.Printf("enqueue offer received: %v", err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "offer submitted successfully",
		"offer":   res.Offer,
	})
}

type respondRequest struct {
	Action string `json:"action"`
}

// PUT /offers/:offerId/respond
func (h *Handler) Respond(c echo.Context) error {
	farmerID, ok := c.Get("user_id").(string)
	if !ok || farmerID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	offerID := c.Param("offerId")

	var req respondRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	res, err := h.engine.Respond(c.Request().Context(), offerID, farmerID, req.Action)
	if err != nil {
		return httpx.Error(c, err)
	}

	if err := alerts.EnqueueOfferAnswered(res.Offer.ID, res.Offer.ListingID, res.BuyerEmail, res.ProductType, res.Offer.Status); err != nil {
		log.Printf("enqueue offer answered: %v", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "offer " + res.Offer.Status,
		"offer": echo.Map{
			"id":        res.Offer.ID,
			"status":    res.Offer.Status,
			"updatedAt": res.Offer.UpdatedAt,
		},
	})
}

// DELETE /offers/:offerId
func (h *Handler) Delete(c echo.Context) error {
	buyerID, ok := c.Get("user_id").(string)
	if !ok || buyerID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	offerID := c.Param("offerId")

	if err := h.engine.Delete(c.Request().Context(), offerID, buyerID); err != nil {
		return httpx.Error(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "offer withdrawn"})
}

// GET /offers/my
func (h *Handler) ListMine(c echo.Context) error {
	buyerID, ok := c.Get("user_id").(string)
	if !ok || buyerID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	page := httpx.ParsePage(c)
	status := c.QueryParam("status")

	items, meta, err := h.engine.ListForBuyer(c.Request().Context(), buyerID, status, page)
	if err != nil {
		return httpx.Error(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"offers": items, "pagination": meta})
}

// GET /offers/listing/:listingId
func (h *Handler) ListForListing(c echo.Context) error {
	farmerID, ok := c.Get("user_id").(string)
	if !ok || farmerID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	listingID := c.Param("listingId")
	page := httpx.ParsePage(c)
	status := c.QueryParam("status")

	items, meta, err := h.engine.ListForListing(c.Request().Context(), listingID, farmerID, status, page)
	if err != nil {
		return httpx.Error(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"offers": items, "pagination": meta})
}

// GET /offers/:offerId
func (h *Handler) Get(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	offerID := c.Param("offerId")

	d, err := h.engine.Get(c.Request().Context(), offerID, userID)
	if err != nil {
		return httpx.Error(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"offer": d})
}
