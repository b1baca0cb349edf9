package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/IgorGrieder/guardiao-url/internal/constants"
	"github.com/IgorGrieder/guardiao-url/internal/infrastructure/logger"
	appvalidation "github.com/IgorGrieder/guardiao-url/internal/infrastructure/validation"
	"github.com/IgorGrieder/guardiao-url/internal/processing/shortlinks"
	"github.com/IgorGrieder/guardiao-url/internal/transport/http/middleware"
	"github.com/IgorGrieder/guardiao-url/pkg/httputils"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// StatsReader serves the per-key daily aggregates built by the visit
// consumer.
type StatsReader interface {
	GetDaily(ctx context.Context, key string, from, to time.Time) ([]shortlinks.DailyVisitCount, error)
}

type LinksHandler struct {
	svc   *shortlinks.Service
	stats StatsReader
}

func NewLinksHandler(svc *shortlinks.Service, stats StatsReader) *LinksHandler {
	return &LinksHandler{svc: svc, stats: stats}
}

type createShortlinkRequest struct {
	Key             string `json:"key" validate:"required,notblank,max=64"`
	URL             string `json:"url" validate:"required,notblank,http_url"`
	SecondaryURL    string `json:"secondaryUrl,omitempty" validate:"omitempty,http_url"`
	BlockStatusCode int    `json:"blockStatusCode,omitempty" validate:"omitempty,oneof=403 404"`
	AllowedDevice   string `json:"allowedDevice,omitempty" validate:"omitempty,oneof='Allow All' Mobile Desktop"`
	ConnectionType  string `json:"connectionType,omitempty" validate:"omitempty,oneof='Allow All' 'Block Proxy' 'Block VPN' 'Block All'"`
	AllowedCountry  string `json:"allowedCountry,omitempty" validate:"omitempty,country_code"`
	AllowedISP      string `json:"allowedIsp,omitempty"`
}

type shortlinkResponse struct {
	Key                string    `json:"key"`
	URL                string    `json:"url"`
	SecondaryURL       string    `json:"secondaryUrl,omitempty"`
	Status             string    `json:"status"`
	PrimaryURLStatus   string    `json:"primaryUrlStatus,omitempty"`
	SecondaryURLStatus string    `json:"secondaryUrlStatus,omitempty"`
	BlockStatusCode    int       `json:"blockStatusCode,omitempty"`
	AllowedDevice      string    `json:"allowedDevice,omitempty"`
	ConnectionType     string    `json:"connectionType,omitempty"`
	AllowedCountry     string    `json:"allowedCountry,omitempty"`
	AllowedISP         string    `json:"allowedIsp,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
}

func (h *LinksHandler) Create(w http.ResponseWriter, r *http.Request) {
	profile := middleware.ProfileFromContext(r.Context())
	if profile == nil {
		httputils.WriteAPIError(w, r, constants.ErrUnauthorized)
		return
	}

	var req createShortlinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputils.WriteAPIError(w, r, constants.ErrInvalidRequestBody)
		return
	}
	if err := appvalidation.Validate(req); err != nil {
		apiErr := constants.ErrInvalidRequestBody
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			for _, e := range validationErrs {
				if e.Field() == "url" || e.Field() == "secondaryUrl" {
					apiErr = constants.ErrInvalidURL
					break
				}
				if e.Field() == "allowedCountry" {
					apiErr = apiErr.WithMessage("allowedCountry must be a two-letter country code")
					break
				}
			}
		}
		httputils.WriteAPIError(w, r, apiErr)
		return
	}

	link, err := h.svc.Create(r.Context(), shortlinks.CreateInput{
		Owner:           profile.Username,
		Plan:            profile.SubscriptionType,
		Key:             req.Key,
		URL:             req.URL,
		SecondaryURL:    req.SecondaryURL,
		BlockStatusCode: req.BlockStatusCode,
		AllowedDevice:   req.AllowedDevice,
		ConnectionType:  req.ConnectionType,
		AllowedCountry:  req.AllowedCountry,
		AllowedISP:      req.AllowedISP,
	})
	if err != nil {
		switch {
		case errors.Is(err, shortlinks.ErrInvalidURL):
			httputils.WriteAPIError(w, r, constants.ErrInvalidURL)
		case errors.Is(err, shortlinks.ErrKeyTaken):
			httputils.WriteAPIError(w, r, constants.ErrKeyTaken)
		case errors.Is(err, shortlinks.ErrPlanForbidden):
			httputils.WriteAPIError(w, r, constants.ErrPlanForbidden)
		default:
			logger.Error("failed to create shortlink", zap.Error(err))
			httputils.WriteAPIError(w, r, constants.ErrInternalError)
		}
		return
	}

	httputils.WriteAPISuccess(w, r, constants.SuccessShortlinkCreated, mapShortlink(link))
}

func (h *LinksHandler) List(w http.ResponseWriter, r *http.Request) {
	profile := middleware.ProfileFromContext(r.Context())
	if profile == nil {
		httputils.WriteAPIError(w, r, constants.ErrUnauthorized)
		return
	}

	links, err := h.svc.List(r.Context(), profile.Username)
	if err != nil {
		logger.Error("failed to list shortlinks", zap.Error(err))
		httputils.WriteAPIError(w, r, constants.ErrInternalError)
		return
	}

	out := make([]shortlinkResponse, 0, len(links))
	for i := range links {
		out = append(out, mapShortlink(&links[i]))
	}
	httputils.WriteAPISuccess(w, r, constants.SuccessShortlinksFound, out)
}

func (h *LinksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	profile := middleware.ProfileFromContext(r.Context())
	if profile == nil {
		httputils.WriteAPIError(w, r, constants.ErrUnauthorized)
		return
	}

	key := r.PathValue("key")
	if err := h.svc.Delete(r.Context(), profile.Username, key); err != nil {
		if errors.Is(err, shortlinks.ErrNotFound) {
			httputils.WriteAPIError(w, r, constants.ErrShortlinkNotFound)
			return
		}
		logger.Error("failed to delete shortlink", zap.Error(err), zap.String("key", key))
		httputils.WriteAPIError(w, r, constants.ErrInternalError)
		return
	}

	httputils.WriteAPISuccess(w, r, constants.SuccessShortlinkDeleted, map[string]string{"key": key})
}

type statsResponse struct {
	Key   string                       `json:"key"`
	From  string                       `json:"from"`
	To    string                       `json:"to"`
	Daily []shortlinks.DailyVisitCount `json:"daily"`
}

type statsQueryParams struct {
	From string `json:"from" validate:"required,datetime=2006-01-02"`
	To   string `json:"to" validate:"required,datetime=2006-01-02"`
}

func (h *LinksHandler) Stats(w http.ResponseWriter, r *http.Request) {
	profile := middleware.ProfileFromContext(r.Context())
	if profile == nil {
		httputils.WriteAPIError(w, r, constants.ErrUnauthorized)
		return
	}

	key := r.PathValue("key")

	fromRaw := r.URL.Query().Get("from")
	toRaw := r.URL.Query().Get("to")
	if err := appvalidation.Validate(statsQueryParams{From: fromRaw, To: toRaw}); err != nil {
		httputils.WriteAPIError(w, r,
			constants.ErrInvalidRequestBody.WithMessage("from and to are required (YYYY-MM-DD)"))
		return
	}

	from, err := time.Parse(time.DateOnly, fromRaw)
	if err != nil {
		httputils.WriteAPIError(w, r, constants.ErrInvalidRequestBody.WithMessage("invalid from (YYYY-MM-DD)"))
		return
	}
	to, err := time.Parse(time.DateOnly, toRaw)
	if err != nil {
		httputils.WriteAPIError(w, r, constants.ErrInvalidRequestBody.WithMessage("invalid to (YYYY-MM-DD)"))
		return
	}
	if from.After(to) {
		httputils.WriteAPIError(w, r, constants.ErrInvalidRequestBody.WithMessage("from must be <= to"))
		return
	}

	// Only the owner can read a key's stats.
	if _, err := h.svc.FindOwned(r.Context(), profile.Username, key); err != nil {
		if errors.Is(err, shortlinks.ErrNotFound) {
			httputils.WriteAPIError(w, r, constants.ErrShortlinkNotFound)
			return
		}
		logger.Error("failed to resolve shortlink", zap.Error(err), zap.String("key", key))
		httputils.WriteAPIError(w, r, constants.ErrInternalError)
		return
	}

	daily, err := h.stats.GetDaily(r.Context(), key, from, to)
	if err != nil {
		logger.Error("failed to fetch visit stats", zap.Error(err), zap.String("key", key))
		httputils.WriteAPIError(w, r, constants.ErrInternalError)
		return
	}

	httputils.WriteAPISuccess(w, r, constants.SuccessStatsFound, statsResponse{
		Key:   key,
		From:  from.Format(time.DateOnly),
		To:    to.Format(time.DateOnly),
		Daily: daily,
	})
}

func mapShortlink(link *shortlinks.Shortlink) shortlinkResponse {
	return shortlinkResponse{
		Key:                link.Key,
		URL:                link.URL,
		SecondaryURL:       link.SecondaryURL,
		Status:             link.Status,
		PrimaryURLStatus:   link.PrimaryURLStatus,
		SecondaryURLStatus: link.SecondaryURLStatus,
		BlockStatusCode:    link.BlockStatusCode,
		AllowedDevice:      link.AllowedDevice,
		ConnectionType:     link.ConnectionType,
		AllowedCountry:     link.AllowedCountry,
		AllowedISP:         link.AllowedISP,
		CreatedAt:          link.CreatedAt,
	}
}
