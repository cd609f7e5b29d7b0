package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/kidhood/bird-trading-platform/pkg/errors"
	"github.com/kidhood/bird-trading-platform/pkg/httputil"
	"github.com/kidhood/bird-trading-platform/pkg/pagination"

	"github.com/kidhood/bird-trading-platform/internal/service"
)

// maxReviewUploadBytes bounds the whole multipart submission (5 images plus
// form fields).
const maxReviewUploadBytes = 32 << 20

// ReviewHandler handles review submission and listing endpoints.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{service: svc, logger: logger}
}

// Submit handles POST /api/v1/users/reviews
//
// The request is multipart/form-data: order_detail_id, rating and comment as
// form fields, images as repeated file parts.
func (h *ReviewHandler) Submit(w http.ResponseWriter, r *http.Request) {
	identity := identityOrUnauthorized(w, r, h.logger)
	if identity == nil {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxReviewUploadBytes)
	if err := r.ParseMultipartForm(maxReviewUploadBytes); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid multipart form: "+err.Error()), h.logger)
		return
	}

	rating, err := strconv.Atoi(r.FormValue("rating"))
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("rating must be an integer between 1 and 5"), h.logger)
		return
	}

	input := service.SubmitReviewInput{
		OrderDetailID: r.FormValue("order_detail_id"),
		Rating:        rating,
		Comment:       r.FormValue("comment"),
	}

	for _, fh := range r.MultipartForm.File["images"] {
		file, err := fh.Open()
		if err != nil {
			httputil.WriteError(w, r, apperrors.InvalidInput("unreadable image part: "+err.Error()), h.logger)
			return
		}
		defer file.Close()

		input.Images = append(input.Images, service.ReviewImage{
			Data:        file,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
		})
	}

	review, err := h.service.SubmitReview(r.Context(), identity, input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: review})
}

// ListProductReviews handles GET /api/v1/products/{id}/reviews
func (h *ReviewHandler) ListProductReviews(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	reviews, total, err := h.service.ListProductReviews(r.Context(), chi.URLParam(r, "id"), params.Page, params.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: pagination.NewResult(reviews, total, params),
	})
}

// ProductReviewSummary handles GET /api/v1/products/{id}/summary
func (h *ReviewHandler) ProductReviewSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.ProductReviewSummary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: summary})
}

// ListOrderReviews handles GET /api/v1/users/orders/{id}/reviews
func (h *ReviewHandler) ListOrderReviews(w http.ResponseWriter, r *http.Request) {
	identity := identityOrUnauthorized(w, r, h.logger)
	if identity == nil {
		return
	}

	reviews, err := h.service.ListOrderReviews(r.Context(), identity, chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: reviews})
}
