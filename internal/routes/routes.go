package routes

import (
	"log/slog"
	"time"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/renren-chavez/MatchUpBack/internal/config"
	"github.com/renren-chavez/MatchUpBack/internal/handlers"
	"github.com/renren-chavez/MatchUpBack/internal/middleware"
	"github.com/renren-chavez/MatchUpBack/internal/notify"
	"github.com/renren-chavez/MatchUpBack/internal/repository"
	"github.com/renren-chavez/MatchUpBack/internal/services"
	dashws "github.com/renren-chavez/MatchUpBack/internal/websocket"
)

// RegisterRoutes wires the repositories, services, and handlers onto the app
// and returns the booking service so the caller can run the expiry sweeper.
func RegisterRoutes(
	app *fiber.App,
	cfg *config.Config,
	db *pgxpool.Pool,
	hub *dashws.Hub,
	logger *slog.Logger,
	loc *time.Location,
) (*services.BookingService, error) {
	userRepo := repository.NewUserRepository(db)
	coachProfileRepo := repository.NewCoachProfileRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	blockingRepo := repository.NewBlockingRepository(db)

	var storage services.Storage
	if cfg.SupabaseURL != "" && cfg.SupabaseBucket != "" && cfg.SupabaseServiceKey != "" {
		storage = services.NewSupabaseStorage(cfg.SupabaseURL, cfg.SupabaseBucket, cfg.SupabaseServiceKey)
	}

	notifiers := notify.Multi{hub}
	if cfg.SMTPHost != "" && cfg.SMTPFrom != "" {
		sender := notify.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom)
		notifiers = append(notifiers, notify.NewEmailNotifier(sender, logger))
	}

	bookingService := services.NewBookingService(
		db, bookingRepo, paymentRepo, blockingRepo, coachProfileRepo, userRepo,
		notifiers, logger, loc, cfg.PaymentExpiry,
	)
	paymentService := services.NewPaymentService(
		db, bookingRepo, paymentRepo, coachProfileRepo, userRepo, notifiers, logger,
	)
	blockingService := services.NewBlockingService(blockingRepo)

	authHandler := handlers.NewAuthHandler(db, userRepo, coachProfileRepo, cfg.JWTSecret)
	onboardingHandler := handlers.NewOnboardingHandler(coachProfileRepo)
	profileHandler := handlers.NewProfileHandler(coachProfileRepo, storage)
	bookingHandler := handlers.NewBookingHandler(bookingService, coachProfileRepo, cfg.PaymentExpiry)
	publicHandler := handlers.NewPublicBookingHandler(bookingService, coachProfileRepo, bookingRepo)
	paymentHandler := handlers.NewPaymentHandler(paymentService, coachProfileRepo, storage, cfg.PaymentExpiry)
	blockingHandler := handlers.NewBlockingHandler(blockingService, coachProfileRepo)
	dashboardHandler := handlers.NewDashboardHandler(hub, coachProfileRepo, cfg.JWTSecret)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	// Athlete-facing surface; no account required.
	public := api.Group("/public")
	public.Get("/coaches/:id", publicHandler.GetCoachCard)
	public.Get("/coaches/:id/availability", publicHandler.CheckAvailability)
	public.Post("/coaches/:id/bookings", publicHandler.CreateBooking)
	public.Get("/bookings/:reference", publicHandler.LookupBooking)

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	coaches := authProtected.Group("/coaches")
	coaches.Post("/onboarding", onboardingHandler.CoachOnboarding)
	coaches.Get("/profile", profileHandler.GetCoachProfile)
	coaches.Put("/profile", profileHandler.UpdateCoachProfile)
	coaches.Post("/profile/avatar", profileHandler.UploadCoachAvatar)

	bookings := authProtected.Group("/bookings")
	bookings.Get("", bookingHandler.ListBookings)
	bookings.Get("/:id", bookingHandler.GetBooking)
	bookings.Post("/:id/approve", bookingHandler.ApproveBooking)
	bookings.Post("/:id/reject", bookingHandler.RejectBooking)
	bookings.Post("/:id/cancel", bookingHandler.CancelBooking)
	bookings.Post("/:id/payments", paymentHandler.RecordPayment)

	payments := authProtected.Group("/payments")
	payments.Post("/:id/confirm", paymentHandler.ConfirmPayment)
	payments.Post("/:id/dispute", paymentHandler.DisputePayment)
	payments.Post("/:id/receipt", paymentHandler.UploadReceipt)

	authProtected.Get("/transactions", paymentHandler.ListTransactions)

	blockings := authProtected.Group("/blockings")
	blockings.Get("", blockingHandler.ListBlockings)
	blockings.Post("", blockingHandler.CreateBlocking)
	blockings.Delete("/:id", blockingHandler.DeleteBlocking)
	blockings.Get("/recurring", blockingHandler.ListRecurringBlockings)
	blockings.Post("/recurring", blockingHandler.CreateRecurringBlocking)
	blockings.Delete("/recurring/:id", blockingHandler.DeleteRecurringBlocking)

	api.Use("/v1/ws", dashboardHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(dashboardHandler.HandleWebSocket))

	return bookingService, nil
}
