package routes

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/example/salidas/internal/config"
	"github.com/example/salidas/internal/handlers"
	"github.com/example/salidas/internal/middleware"
	"github.com/example/salidas/internal/repository"
	"github.com/example/salidas/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	telegramService := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat)

	store := repository.NewGormPaymentStore(db)
	gateway := services.NewWebpayService(cfg.WebpayBaseURL, cfg.WebpayCommerceCode, cfg.WebpayAPIKey)

	returnURL := ""
	if cfg.AppBaseURL != "" {
		returnURL = cfg.AppBaseURL + "/api/payment/commit"
	}
	checkoutService := services.NewCheckoutService(store, gateway, returnURL)
	couponService := services.NewCouponService(store)
	matchService := services.NewMatchService(db)

	authHandler := handlers.NewAuthHandler(db, cfg)
	activityHandler := handlers.NewActivityHandler(db)
	outingHandler := handlers.NewOutingHandler(db, telegramService)
	familyHandler := handlers.NewFamilyHandler(db, matchService)
	couponHandler := handlers.NewCouponHandler(db, couponService)
	contentHandler := handlers.NewContentHandler(db)
	paymentHandler := handlers.NewPaymentHandler(db, store, gateway, checkoutService, telegramService, cfg.FrontendURL)
	adminHandler := handlers.NewAdminHandler(db)

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthMiddleware(cfg), authHandler.Me)

	// Public catalog and content
	activities := api.Group("/activities")
	activities.Get("/", activityHandler.ListActivities)
	activities.Get("/:id", activityHandler.GetActivity)

	articles := api.Group("/articles")
	articles.Get("/", contentHandler.ListArticles)
	articles.Get("/:slug", contentHandler.GetArticle)

	api.Get("/experts", contentHandler.ListExperts)

	// Coupon application is public: the checkout page may not be authenticated yet.
	api.Post("/coupons/apply", couponHandler.ApplyCoupon)

	// Payment routes. The commit webhook is the gateway's browser return and
	// must accept both GET and POST.
	payment := api.Group("/payment")
	payment.Get("/commit", paymentHandler.Commit)
	payment.Post("/commit", paymentHandler.Commit)

	checkout := payment.Group("/checkout", middleware.AuthMiddleware(cfg))
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Printf("invalid REDIS_URL, idempotency cache disabled: %v", err)
		} else {
			checkout.Use(middleware.IdempotencyMiddleware(redis.NewClient(opts)))
		}
	}
	checkout.Post("/", paymentHandler.Checkout)

	// Protected routes
	protected := api.Group("", middleware.AuthMiddleware(cfg))

	protected.Post("/outings", outingHandler.CreateOuting)
	protected.Get("/outings", outingHandler.ListOutings)
	protected.Get("/outings/:id", outingHandler.GetOuting)
	protected.Delete("/outings/:id", outingHandler.DeleteOuting)

	family := protected.Group("/family")
	family.Get("/members", familyHandler.ListMembers)
	family.Post("/members", familyHandler.CreateMember)
	family.Put("/members/:id/preferences", familyHandler.SetPreferences)
	family.Delete("/members/:id", familyHandler.DeleteMember)
	family.Get("/match", familyHandler.Match)

	// Admin routes
	admin := api.Group("/admin", middleware.AuthMiddleware(cfg), middleware.AdminMiddleware(db))
	admin.Get("/stats", adminHandler.DashboardStats)
	admin.Get("/users", adminHandler.ListUsers)
	admin.Get("/transactions", paymentHandler.ListTransactions)

	admin.Post("/activities", activityHandler.CreateActivity)
	admin.Put("/activities/:id", activityHandler.UpdateActivity)
	admin.Delete("/activities/:id", activityHandler.DeleteActivity)

	admin.Get("/coupons", couponHandler.ListCoupons)
	admin.Post("/coupons", couponHandler.CreateCoupon)
	admin.Put("/coupons/:id", couponHandler.UpdateCoupon)
	admin.Delete("/coupons/:id", couponHandler.DeleteCoupon)

	admin.Post("/articles", contentHandler.CreateArticle)
	admin.Put("/articles/:id", contentHandler.UpdateArticle)
	admin.Delete("/articles/:id", contentHandler.DeleteArticle)

	admin.Post("/experts", contentHandler.CreateExpert)
	admin.Put("/experts/:id", contentHandler.UpdateExpert)
	admin.Delete("/experts/:id", contentHandler.DeleteExpert)
}
