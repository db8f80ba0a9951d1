package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/bahcemden/backend/internal/admin"
	"github.com/bahcemden/backend/internal/alerts"
	"github.com/bahcemden/backend/internal/auth"
	"github.com/bahcemden/backend/internal/dashboard"
	"github.com/bahcemden/backend/internal/db"
	"github.com/bahcemden/backend/internal/farmers"
	"github.com/bahcemden/backend/internal/httpx"
	"github.com/bahcemden/backend/internal/inventory"
	"github.com/bahcemden/backend/internal/listings"
	"github.com/bahcemden/backend/internal/messaging"
	mware "github.com/bahcemden/backend/internal/middleware"
	"github.com/bahcemden/backend/internal/offers"
	"github.com/bahcemden/backend/internal/orders"
	"github.com/bahcemden/backend/internal/ratings"
	"github.com/bahcemden/backend/internal/user"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer pool.Close()
	db.EnsureSchema(ctx, pool)

	if err := alerts.ConfigureMailerFromEnv(); err != nil {
		log.Printf("mailer not configured: %v", err)
	}
	alerts.Init()
	defer alerts.Close()

	e := echo.New()
	e.Validator = httpx.NewValidator()

	// Basic middleware
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	// Handlers
	authH := auth.NewHandler(pool)
	userH := user.NewHandler(pool)
	listingH := listings.NewHandler(pool)
	offerH := offers.NewHandler(offers.NewEngine(offers.NewStore(pool)))
	orderH := orders.NewHandler(orders.NewEngine(orders.NewStore(pool)))
	messageH := messaging.NewHandler(pool)
	ratingH := ratings.NewHandler(pool)
	inventoryH := inventory.NewHandler(pool)
	farmerH := farmers.NewHandler(pool)
	dashboardH := dashboard.NewHandler(pool)
	adminH := admin.NewHandler(pool)

	// Health and root routes
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "service": "bahcemden"})
	})
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/ready", func(c echo.Context) error {
		if err := pool.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db unreachable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
	})

	// Public routes
	// Auth routes with per-IP rate limiting to protect signup/login from abuse
	authGroup := e.Group("/auth")
	authGroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(20)))
	authGroup.POST("/signup", authH.Signup)
	authGroup.POST("/login", authH.Login)

	e.GET("/users/:id/profile", userH.GetPublicProfile)
	e.GET("/listings", listingH.List)
	e.GET("/listings/:id", listingH.Get)
	e.GET("/farmers/search", farmerH.Search)
	e.GET("/farmers/:id", farmerH.Get)
	e.GET("/farmers/:id/stats", farmerH.Stats)
	e.GET("/farmers/:id/ratings", ratingH.ListForFarmer)

	// Guest checkout: the email in the body stands in for a login.
	e.POST("/orders/:listingId", orderH.Create)

	// Protected routes
	api := e.Group("")
	api.Use(mware.JWTMiddleware)
	api.Use(mware.ActiveUser(pool))

	api.GET("/auth/me", authH.Me)
	api.PATCH("/users/profile", userH.UpdateProfile)

	api.POST("/listings", listingH.Create, mware.RequireRoles("farmer"))
	api.GET("/listings/my", listingH.ListMine, mware.RequireRoles("farmer"))
	api.PUT("/listings/:id", listingH.Update, mware.RequireRoles("farmer"))
	api.DELETE("/listings/:id", listingH.Deactivate, mware.RequireRoles("farmer"))

	api.POST("/offers", offerH.Submit, mware.RequireRoles("buyer"))
	api.GET("/offers/my", offerH.ListMine)
	api.GET("/offers/listing/:listingId", offerH.ListForListing, mware.RequireRoles("farmer"))
	api.GET("/offers/:offerId", offerH.Get)
	api.PUT("/offers/:offerId/respond", offerH.Respond, mware.RequireRoles("farmer"))
	api.DELETE("/offers/:offerId", offerH.Delete, mware.RequireRoles("buyer"))

	api.GET("/orders/my", orderH.ListMine)
	api.GET("/orders/farmer", orderH.ListReceived, mware.RequireRoles("farmer"))
	api.GET("/orders/:orderId", orderH.Get)
	api.PUT("/orders/:orderId/status", orderH.UpdateStatus, mware.RequireRoles("farmer"))
	api.PUT("/orders/:orderId/payment", orderH.UpdatePayment, mware.RequireRoles("farmer"))

	api.POST("/orders/:orderId/messages", messageH.SendMessage)
	api.GET("/orders/:orderId/messages", messageH.ListMessages)
	api.POST("/orders/:orderId/rating", ratingH.Create, mware.RequireRoles("buyer"))

	api.GET("/dashboard", dashboardH.Get)

	// Private stock records, farmer-only
	inv := api.Group("/inventory", mware.RequireRoles("farmer"))
	inv.POST("", inventoryH.Create)
	inv.GET("", inventoryH.List)
	inv.GET("/categories", inventoryH.Categories)
	inv.GET("/:id", inventoryH.Get)
	inv.PUT("/:id", inventoryH.Update)
	inv.DELETE("/:id", inventoryH.Delete)

	// Admin routes
	adminGroup := e.Group("/admin")
	adminGroup.Use(mware.JWTMiddleware)
	adminGroup.Use(mware.RequireRoles("admin"))

	adminGroup.GET("/users", adminH.ListUsers)
	adminGroup.POST("/users/:id/suspend", adminH.SuspendUser)
	adminGroup.POST("/users/:id/activate", adminH.ActivateUser)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := e.Start(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
