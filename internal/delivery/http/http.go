package http

import (
	"context"
	"errors"
	"net/http"

	"golang-stock-analysis/internal/dto"
	"golang-stock-analysis/internal/service"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type HttpAPIHandler struct {
	echo      *echo.Echo
	validator *goValidator.Validate
	service   *service.Service
}

func NewHttpAPIHandler(ctx context.Context, echo *echo.Echo, validator *goValidator.Validate, service *service.Service) *HttpAPIHandler {
	return &HttpAPIHandler{
		echo:      echo,
		validator: validator,
		service:   service,
	}
}

func (h *HttpAPIHandler) SetupRoutes() {
	base := h.echo.Group("/api")
	h.SetupMonitoring(base)
	h.SetupRecommendations(base)
}

// statusForError maps the service error taxonomy onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, dto.ErrDuplicateRunningJob):
		return http.StatusConflict
	case errors.Is(err, dto.ErrJobNotFound), errors.Is(err, dto.ErrRecommendationNotFound):
		return http.StatusNotFound
	case errors.Is(err, dto.ErrInvalidJobState):
		return http.StatusUnprocessableEntity
	case errors.Is(err, dto.ErrGenerationFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errorResponse(c echo.Context, err error) error {
	code := statusForError(err)
	return c.JSON(code, dto.NewBaseResponse(code, err.Error(), nil))
}
