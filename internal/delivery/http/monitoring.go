package http

import (
	"net/http"
	"strconv"

	"golang-stock-analysis/internal/dto"
	"golang-stock-analysis/internal/model"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupMonitoring(base *echo.Group) {
	v1 := base.Group("/v1/monitoring")
	{
		v1.POST("/jobs", h.StartMonitoring)
		v1.GET("/jobs", h.ListMonitoringJobs)
		v1.GET("/jobs/:jobId", h.GetMonitoringJob)
		v1.POST("/jobs/:jobId/stop", h.StopMonitoring)
		v1.POST("/jobs/:jobId/pause", h.PauseMonitoring)
		v1.POST("/jobs/:jobId/resume", h.ResumeMonitoring)
		v1.GET("/records/:stockCode", h.GetMonitoringRecords)
	}
}

func (h *HttpAPIHandler) StartMonitoring(c echo.Context) error {
	var req dto.StartMonitoringRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid request body"))
	}
	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}

	job, err := h.service.MonitoringService.StartJob(c.Request().Context(), req.StockCode, req.IntervalMinutes)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusCreated, dto.NewBaseResponse(http.StatusCreated, "Monitoring job started", toJobResponse(job)))
}

func (h *HttpAPIHandler) ListMonitoringJobs(c echo.Context) error {
	param := &model.GetMonitoringJobParam{
		StockCode: c.QueryParam("stock_code"),
	}
	if status := c.QueryParam("status"); status != "" {
		param.Statuses = []model.MonitoringJobStatus{model.MonitoringJobStatus(status)}
	}

	jobs, err := h.service.MonitoringService.ListJobs(c.Request().Context(), param)
	if err != nil {
		return errorResponse(c, err)
	}

	out := make([]*dto.MonitoringJobResponse, 0, len(jobs))
	for i := range jobs {
		out = append(out, toJobResponse(&jobs[i]))
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("OK", out))
}

func (h *HttpAPIHandler) GetMonitoringJob(c echo.Context) error {
	job, err := h.service.MonitoringService.GetJob(c.Request().Context(), c.Param("jobId"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("OK", toJobResponse(job)))
}

func (h *HttpAPIHandler) StopMonitoring(c echo.Context) error {
	if err := h.service.MonitoringService.StopJob(c.Request().Context(), c.Param("jobId")); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Monitoring job stopped", nil))
}

func (h *HttpAPIHandler) PauseMonitoring(c echo.Context) error {
	if err := h.service.MonitoringService.PauseJob(c.Request().Context(), c.Param("jobId")); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Monitoring job paused", nil))
}

func (h *HttpAPIHandler) ResumeMonitoring(c echo.Context) error {
	if err := h.service.MonitoringService.ResumeJob(c.Request().Context(), c.Param("jobId")); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Monitoring job resumed", nil))
}

func (h *HttpAPIHandler) GetMonitoringRecords(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	records, err := h.service.MonitoringService.GetRecords(c.Request().Context(), c.Param("stockCode"), limit)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("OK", records))
}

func toJobResponse(job *model.MonitoringJob) *dto.MonitoringJobResponse {
	resp := &dto.MonitoringJobResponse{
		JobID:           job.JobID,
		StockCode:       job.StockCode,
		IntervalMinutes: job.IntervalMinutes,
		Status:          string(job.Status),
		StartTime:       job.StartTime.Format("2006-01-02 15:04:05"),
	}
	if job.LastRunTime.Valid {
		lastRun := job.LastRunTime.Time.Format("2006-01-02 15:04:05")
		resp.LastRunTime = &lastRun
	}
	if job.LastMessage.Valid {
		msg := job.LastMessage.String
		resp.LastMessage = &msg
	}
	return resp
}
