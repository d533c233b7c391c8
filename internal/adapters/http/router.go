package http

import (
	"context"
	"net/http"

	"github.com/Adelipop59/super-try-api-sub002/internal/application"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type Options struct {
	// JWKs publishes the token verification keys.
	JWKs func() []map[string]any
	// Ready backs /readyz. Nil means always ready.
	Ready  func(ctx context.Context) error
	Tracer trace.Tracer
	// RateLimitRPS <= 0 disables per-IP throttling.
	RateLimitRPS   float64
	RateLimitBurst int
}

type Handler struct {
	service *application.Service
	opts    Options
}

func NewHandler(service *application.Service, opts Options) *Handler {
	if opts.Tracer == nil {
		opts.Tracer = noop.NewTracerProvider().Tracer("http")
	}
	return &Handler{service: service, opts: opts}
}

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)
	r.Use(tracingMiddleware(handler.opts.Tracer))
	if handler.opts.RateLimitRPS > 0 {
		r.Use(newIPRateLimiter(handler.opts.RateLimitRPS, handler.opts.RateLimitBurst).middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { writeMessage(w, http.StatusOK, "ok") })
	r.Get("/readyz", handler.readyz)
	r.Get("/.well-known/jwks.json", handler.jwks)

	r.Route("/v1", func(r chi.Router) {
		auth := handler.authMiddleware

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", handler.register)
			r.Post("/login", handler.login)
			r.With(auth).Get("/me", handler.getMe)
			r.With(auth).Patch("/me", handler.updateProfile)
		})

		r.Route("/payments/stripe", func(r chi.Router) {
			r.Post("/webhook", handler.stripeWebhook)
			r.With(auth).Post("/onboarding", handler.startStripeOnboarding)
			r.With(auth).Get("/status", handler.refreshStripeStatus)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", handler.listCategories)
			r.Get("/{category_id}", handler.getCategory)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/{product_id}", handler.getProduct)
			r.Get("/{product_id}/reviews", handler.listProductReviews)
			r.Group(func(r chi.Router) {
				r.Use(auth)
				r.Post("/", handler.createProduct)
				r.Get("/mine", handler.listMyProducts)
				r.Put("/{product_id}", handler.updateProduct)
				r.Delete("/{product_id}", handler.deleteProduct)
			})
		})

		r.Route("/campaigns", func(r chi.Router) {
			r.Get("/", handler.listActiveCampaigns)
			r.Get("/{campaign_id}/reviews", handler.listCampaignReviews)
			r.Group(func(r chi.Router) {
				r.Use(auth)
				r.Post("/", handler.createCampaign)
				r.Get("/mine", handler.listMyCampaigns)
				r.Get("/{campaign_id}", handler.getCampaign)
				r.Put("/{campaign_id}", handler.updateCampaign)
				r.Put("/{campaign_id}/offers", handler.setOffers)
				r.Put("/{campaign_id}/procedure", handler.setProcedure)
				r.Put("/{campaign_id}/criteria", handler.setCriteria)
				r.Post("/{campaign_id}/activate", handler.activateCampaign)
				r.Post("/{campaign_id}/confirm-payment", handler.confirmCampaignPayment)
				r.Post("/{campaign_id}/cancel", handler.cancelCampaign)
				r.Get("/{campaign_id}/eligibility", handler.checkEligibility)
				r.Get("/{campaign_id}/eligible-testers", handler.eligibleTesters)
				r.Post("/{campaign_id}/apply", handler.applyToCampaign)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(auth)

			r.Post("/uploads/presign", handler.presignUpload)
			r.Post("/reviews", handler.createReview)

			r.Route("/sessions", func(r chi.Router) {
				r.Get("/", handler.listMySessions)
				r.Get("/{session_id}", handler.getSession)
				r.Post("/{session_id}/accept", handler.acceptSession)
				r.Post("/{session_id}/reject", handler.rejectSession)
				r.Post("/{session_id}/cancel", handler.cancelSession)
				r.Post("/{session_id}/purchase", handler.validatePurchase)
				r.Post("/{session_id}/submit", handler.submitTest)
				r.Post("/{session_id}/complete", handler.completeSession)
				r.Get("/{session_id}/bonus-tasks", handler.listSessionBonusTasks)
				r.Post("/{session_id}/bonus-tasks", handler.createBonusTask)
			})

			r.Route("/bonus-tasks/{task_id}", func(r chi.Router) {
				r.Post("/accept", handler.acceptBonusTask)
				r.Post("/decline", handler.declineBonusTask)
				r.Post("/submit", handler.submitBonusTask)
				r.Post("/validate", handler.validateBonusTask)
				r.Post("/reject", handler.rejectBonusTask)
				r.Post("/cancel", handler.cancelBonusTask)
			})

			r.Route("/disputes", func(r chi.Router) {
				r.Post("/", handler.openDispute)
				r.Get("/", handler.listDisputes)
				r.Get("/{dispute_id}", handler.getDispute)
				r.Post("/{dispute_id}/messages", handler.addDisputeMessage)
				r.Post("/{dispute_id}/withdraw", handler.withdrawDispute)
			})

			r.Route("/wallet", func(r chi.Router) {
				r.Get("/", handler.getWallet)
				r.Get("/transactions", handler.listTransactions)
				r.Get("/withdrawals", handler.listMyWithdrawals)
				r.Post("/withdrawals", handler.requestWithdrawal)
				r.Post("/withdrawals/{withdrawal_id}/cancel", handler.cancelWithdrawal)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", handler.listNotifications)
				r.Get("/unread-count", handler.unreadNotificationCount)
				r.Post("/read-all", handler.markAllNotificationsRead)
				r.Post("/{notification_id}/read", handler.markNotificationRead)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Get("/stats", handler.platformStats)
				r.Get("/users", handler.listUsers)
				r.Put("/users/{user_id}/status", handler.setUserStatus)
				r.Post("/categories", handler.createCategory)
				r.Put("/categories/{category_id}", handler.updateCategory)
				r.Delete("/categories/{category_id}", handler.deleteCategory)
				r.Post("/disputes/{dispute_id}/take", handler.takeDispute)
				r.Post("/disputes/{dispute_id}/resolve", handler.resolveDispute)
				r.Post("/disputes/{dispute_id}/close", handler.closeDispute)
				r.Get("/withdrawals/pending", handler.listPendingWithdrawals)
				r.Post("/withdrawals/{withdrawal_id}/process", handler.processWithdrawal)
				r.Post("/withdrawals/{withdrawal_id}/reject", handler.rejectWithdrawal)
				r.Post("/notifications/broadcast", handler.broadcastNotification)
				r.Get("/logs", handler.listSystemLogs)
			})
		})
	})
	return r
}

func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	if h.opts.Ready != nil {
		if err := h.opts.Ready(r.Context()); err != nil {
			logHTTPOperationError(r.Context(), "readyz", http.StatusServiceUnavailable, "NOT_READY", "dependencies unavailable", err)
			writeError(w, http.StatusServiceUnavailable, "NOT_READY", "dependencies unavailable")
			return
		}
	}
	writeMessage(w, http.StatusOK, "ready")
}

func (h *Handler) jwks(w http.ResponseWriter, _ *http.Request) {
	keys := []map[string]any{}
	if h.opts.JWKs != nil {
		keys = h.opts.JWKs()
	}
	writeJSON(w, http.StatusOK, map[string]any{"keys": keys})
}
