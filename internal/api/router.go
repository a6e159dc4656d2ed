package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/unblurhq/unblur/pkg/billing"
	"github.com/unblurhq/unblur/pkg/deblur"
	"github.com/unblurhq/unblur/pkg/objectstore"
)

// BillingService is the slice of the billing service the handlers call.
type BillingService interface {
	SyncAccount(ctx context.Context, identityID, email string) (*billing.Account, error)
	Balance(ctx context.Context, identityID string) (billing.BalanceSummary, error)
	Refresh(ctx context.Context, identityID string) (bool, error)
	ProcessEvent(ctx context.Context, e *billing.Event) error
	CreateCheckoutSession(ctx context.Context, identityID string, req billing.CheckoutRequest) (*billing.CheckoutSession, error)
	CreatePortalSession(ctx context.Context, identityID, returnURL string) (*billing.PortalSession, error)
}

// WebhookParser verifies and normalizes provider webhook payloads.
type WebhookParser interface {
	ParseWebhook(ctx context.Context, payload []byte, signature string) (*billing.Event, error)
}

// DeblurService is the slice of the deblur service the handlers call.
type DeblurService interface {
	Submit(ctx context.Context, identityID, imageURL string) (*deblur.Job, error)
	Result(ctx context.Context, identityID, requestID string) (*deblur.Job, error)
	History(ctx context.Context, identityID string, limit int) ([]deblur.Job, error)
}

// Uploader issues presigned upload URLs.
type Uploader interface {
	UploadURL(ctx context.Context, key, contentType string) (*objectstore.PresignedURL, error)
}

// Deps holds everything the router mounts. Billing and Webhooks are
// required; Deblur and Uploads routes appear only when their dependency is
// present.
type Deps struct {
	Billing  BillingService
	Webhooks WebhookParser
	Deblur   DeblurService
	Uploads  Uploader
	Health   []func(context.Context) error
	Log      *slog.Logger
}

// Router assembles the HTTP surface.
func Router(deps Deps) chi.Router {
	if deps.Billing == nil {
		panic("api: billing service is required")
	}
	if deps.Webhooks == nil {
		panic("api: webhook parser is required")
	}
	if deps.Log == nil {
		deps.Log = slog.Default()
	}

	h := &handlers{deps: deps}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.health)
	r.Post("/webhooks/stripe", h.stripeWebhook)

	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(requireIdentity)

		v1.Post("/account/sync", h.syncAccount)
		v1.Get("/credits/balance", h.balance)
		v1.Post("/credits/refresh", h.refresh)
		v1.Post("/billing/checkout", h.createCheckout)
		v1.Post("/billing/portal", h.createPortal)

		if deps.Deblur != nil {
			v1.Post("/deblur", h.submitDeblur)
			v1.Get("/deblur", h.deblurHistory)
			v1.Get("/deblur/{requestID}", h.deblurResult)
		}
		if deps.Uploads != nil {
			v1.Post("/uploads", h.createUpload)
		}
	})

	return r
}

type handlers struct {
	deps Deps
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	for _, probe := range h.deps.Health {
		if err := probe(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
