package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/IgorGrieder/guardiao-url/internal/config"
	"github.com/IgorGrieder/guardiao-url/internal/constants"
	"github.com/IgorGrieder/guardiao-url/internal/infrastructure/logger"
	"github.com/IgorGrieder/guardiao-url/internal/processing/gateway"
	"github.com/IgorGrieder/guardiao-url/pkg/httputils"
	"go.uber.org/zap"
)

// VisitService is the gateway flow behind the public redirect endpoint.
type VisitService interface {
	Handle(ctx context.Context, req gateway.VisitRequest) (*gateway.Outcome, error)
}

// GatewayHandler terminates the public visit endpoint: it pulls the
// identity material out of the request, runs the visit flow and turns
// the outcome into a redirect or a JSON rejection.
type GatewayHandler struct {
	cfg *config.Config
	svc VisitService
}

func NewGatewayHandler(cfg *config.Config, svc VisitService) *GatewayHandler {
	return &GatewayHandler{cfg: cfg, svc: svc}
}

func (h *GatewayHandler) Visit(w http.ResponseWriter, r *http.Request) {
	req := gateway.VisitRequest{
		Key:       r.PathValue("key"),
		APIKey:    strings.TrimSpace(r.Header.Get("X-API-Key")),
		ClientIP:  clientIP(r, h.cfg.Gateway.FallbackIP),
		UserAgent: r.UserAgent(),
	}

	out, err := h.svc.Handle(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if out.Blocked && out.BlockStatus != 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(out.BlockStatus)
		json.NewEncoder(w).Encode(map[string]string{"error": out.Reason})
		return
	}

	http.Redirect(w, r, out.RedirectURL, http.StatusFound)
}

func (h *GatewayHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, gateway.ErrRateLimited):
		httputils.WriteAPIError(w, r, constants.ErrRateLimited)
	case errors.Is(err, gateway.ErrMissingAPIKey):
		// Humans poking the gateway URL in a browser get bounced to a
		// normal page; integrations get the JSON contract.
		if isBrowser(r) {
			http.Redirect(w, r, h.cfg.Gateway.BrowserNotFoundURL, http.StatusFound)
			return
		}
		httputils.WriteAPIError(w, r, constants.ErrMissingAPIKey)
	case errors.Is(err, gateway.ErrInvalidAPIKey):
		httputils.WriteAPIError(w, r, constants.ErrInvalidAPIKey)
	case errors.Is(err, gateway.ErrSubscriptionExpired):
		httputils.WriteAPIError(w, r, constants.ErrSubscriptionExpired)
	case errors.Is(err, gateway.ErrMissingKey):
		httputils.WriteAPIError(w, r, constants.ErrMissingKey)
	case errors.Is(err, gateway.ErrNotFound):
		httputils.WriteAPIError(w, r, constants.ErrShortlinkNotFound)
	case errors.Is(err, gateway.ErrVerificationFailed):
		httputils.WriteAPIError(w, r, constants.ErrVerificationFailed)
	case errors.Is(err, gateway.ErrNoValidDestination):
		httputils.WriteAPIError(w, r, constants.ErrNoValidDestination)
	default:
		logger.Error("visit flow failed", zap.Error(err))
		httputils.WriteAPIError(w, r, constants.ErrInternalError)
	}
}

// clientIP resolves the visitor address. An explicit X-Visitor-IP header
// wins, then the first X-Forwarded-For entry, then the configured
// fallback for direct connections with no proxy headers at all.
func clientIP(r *http.Request, fallback string) string {
	if ip := strings.TrimSpace(r.Header.Get("X-Visitor-IP")); ip != "" {
		return ip
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first := strings.TrimSpace(strings.Split(fwd, ",")[0])
		if first != "" {
			return first
		}
	}
	return fallback
}

// isBrowser is a coarse check: anything negotiating HTML or carrying a
// Mozilla-family agent is treated as a person, not an integration.
func isBrowser(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "text/html") {
		return true
	}
	return strings.Contains(strings.ToLower(r.UserAgent()), "mozilla")
}
