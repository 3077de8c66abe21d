package main

import (
	"net/http"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"

	"trusthire/internal/metrics"
	"trusthire/internal/models"
)

func (app *application) JWTMiddlewareWithRole(requiredRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return app.JWTMiddleware(next, requiredRole)
	}
}

func (app *application) routes() http.Handler {
	standardMiddleware := alice.New(app.recoverPanic, app.logRequest, metrics.Instrument, secureHeaders)
	authMiddleware := alice.New(app.JWTMiddlewareWithRole("user"))
	clientMiddleware := alice.New(app.JWTMiddlewareWithRole(models.RoleClient))
	providerMiddleware := alice.New(app.JWTMiddlewareWithRole(models.RoleFreelancer))

	mux := pat.New()

	mux.Get("/healthz", http.HandlerFunc(app.healthz))
	mux.Get("/metrics", metrics.Handler())

	// Auth
	mux.Post("/api/auth/sign_up", http.HandlerFunc(app.userHandler.SignUp))
	mux.Post("/api/auth/sign_in", http.HandlerFunc(app.userHandler.SignIn))
	mux.Get("/api/me", authMiddleware.ThenFunc(app.userHandler.Me))
	mux.Put("/api/me/fcm_token", authMiddleware.ThenFunc(app.userHandler.UpdateFCMToken))
	mux.Get("/api/me/transactions", authMiddleware.ThenFunc(app.projectHandler.ListMyTransactions))
	mux.Get("/api/users/:id/feedback", authMiddleware.ThenFunc(app.projectHandler.FreelancerFeedback))

	// Jobs
	mux.Post("/api/jobs", clientMiddleware.ThenFunc(app.jobHandler.CreateJob))
	mux.Get("/api/jobs", authMiddleware.ThenFunc(app.jobHandler.ListOpenJobs))
	mux.Get("/api/jobs/mine", clientMiddleware.ThenFunc(app.jobHandler.ListMyJobs))
	mux.Get("/api/jobs/:id", authMiddleware.ThenFunc(app.jobHandler.GetJob))
	mux.Post("/api/jobs/:id/close", clientMiddleware.ThenFunc(app.jobHandler.CloseJob))

	// Applications
	mux.Post("/api/jobs/:id/applications", providerMiddleware.ThenFunc(app.applicationHandler.Apply))
	mux.Get("/api/jobs/:id/applications", clientMiddleware.ThenFunc(app.applicationHandler.ListForJob))
	mux.Get("/api/applications/mine", providerMiddleware.ThenFunc(app.applicationHandler.ListMine))
	mux.Post("/api/applications/:id/reject", clientMiddleware.ThenFunc(app.applicationHandler.Reject))
	mux.Post("/api/applications/:id/hire", clientMiddleware.ThenFunc(app.applicationHandler.Hire))

	// Projects
	mux.Get("/api/projects", authMiddleware.ThenFunc(app.projectHandler.ListMine))
	mux.Get("/api/projects/:id", authMiddleware.ThenFunc(app.projectHandler.GetProject))
	mux.Post("/api/projects/:id/agree", authMiddleware.ThenFunc(app.projectHandler.Agree))
	mux.Post("/api/projects/:id/stages/:index/complete", authMiddleware.ThenFunc(app.projectHandler.CompleteStage))
	mux.Post("/api/projects/:id/stages/:index/deliverable", authMiddleware.ThenFunc(app.projectHandler.UploadDeliverable))
	mux.Get("/api/projects/:id/transactions", authMiddleware.ThenFunc(app.projectHandler.ListTransactions))
	mux.Post("/api/projects/:id/feedback", authMiddleware.ThenFunc(app.projectHandler.Rate))
	mux.Get("/api/projects/:id/call", authMiddleware.ThenFunc(app.projectHandler.CallInfo))

	// Payments
	mux.Post("/api/projects/:id/payments/escrow", authMiddleware.ThenFunc(app.paymentHandler.CaptureEscrow))
	mux.Post("/api/projects/:id/payments/wallet", authMiddleware.ThenFunc(app.paymentHandler.CaptureWallet))
	mux.Post("/api/projects/:id/payments/razorpay/order", authMiddleware.ThenFunc(app.paymentHandler.CreateRazorpayOrder))
	mux.Post("/api/projects/:id/payments/razorpay/capture", authMiddleware.ThenFunc(app.paymentHandler.CaptureRazorpay))
	mux.Post("/api/razorpay/verify-payment", http.HandlerFunc(app.paymentHandler.VerifyRazorpayPayment))

	// Messages
	mux.Get("/api/projects/:id/messages", authMiddleware.ThenFunc(app.messageHandler.GetMessagesForProject))
	mux.Post("/api/projects/:id/messages", authMiddleware.ThenFunc(app.messageHandler.CreateMessage))

	// Withdrawals
	mux.Post("/api/withdrawals", providerMiddleware.ThenFunc(app.withdrawalHandler.Request))
	mux.Get("/api/withdrawals", providerMiddleware.ThenFunc(app.withdrawalHandler.List))

	// The live feed authenticates with its first frame and needs an unwrapped
	// ResponseWriter to hijack the connection.
	root := http.NewServeMux()
	root.Handle("/ws", alice.New(app.recoverPanic).ThenFunc(app.WebSocketHandler))
	root.Handle("/", standardMiddleware.Then(mux))
	return root
}

func (app *application) healthz(w http.ResponseWriter, r *http.Request) {
	if err := app.db.PingContext(r.Context()); err != nil {
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	if err := app.locker.Ping(r.Context()); err != nil {
		app.log.Errorf("healthz: redis: %v", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
