package http

import (
	"net/http"

	"golang-stock-analysis/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupRecommendations(base *echo.Group) {
	v1 := base.Group("/v1/recommendations")
	{
		v1.POST("/generate", h.GenerateRecommendation)
		v1.GET("/today", h.GetTodayRecommendation)
		v1.GET("/status", h.GetRecommendationStatus)
		v1.GET("/:date", h.GetRecommendationByDate)
	}
}

// GenerateRecommendation is the manual trigger. Unlike the scheduled run it
// always regenerates, expiring the current active version.
func (h *HttpAPIHandler) GenerateRecommendation(c echo.Context) error {
	rec, err := h.service.RecommendationService.GenerateDailyRecommendation(c.Request().Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, dto.NewBaseResponse(http.StatusCreated, "Daily recommendation generated", rec))
}

func (h *HttpAPIHandler) GetTodayRecommendation(c echo.Context) error {
	rec, err := h.service.RecommendationService.GetTodayRecommendation(c.Request().Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("OK", rec))
}

func (h *HttpAPIHandler) GetRecommendationByDate(c echo.Context) error {
	rec, err := h.service.RecommendationService.GetRecommendationByDate(c.Request().Context(), c.Param("date"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("OK", rec))
}

func (h *HttpAPIHandler) GetRecommendationStatus(c echo.Context) error {
	status, err := h.service.RecommendationService.GetRecommendationStatus(c.Request().Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("OK", status))
}
