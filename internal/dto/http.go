package dto

import "net/http"

type BaseResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func NewBaseResponse(code int, message string, data interface{}) *BaseResponse {
	return &BaseResponse{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

func NewBadRequestResponse(message string) *BaseResponse {
	return NewBaseResponse(http.StatusBadRequest, message, nil)
}

func NewSuccessResponse(message string, data interface{}) *BaseResponse {
	return NewBaseResponse(http.StatusOK, message, data)
}

type StartMonitoringRequest struct {
	StockCode       string `json:"stock_code" validate:"required"`
	IntervalMinutes int    `json:"interval_minutes" validate:"required,gt=0"`
}

type MonitoringJobResponse struct {
	JobID           string  `json:"job_id"`
	StockCode       string  `json:"stock_code"`
	IntervalMinutes int     `json:"interval_minutes"`
	Status          string  `json:"status"`
	StartTime       string  `json:"start_time"`
	LastRunTime     *string `json:"last_run_time,omitempty"`
	LastMessage     *string `json:"last_message,omitempty"`
}

type RecommendationStatusResponse struct {
	HasToday    bool   `json:"has_today"`
	TodayDate   string `json:"today_date"`
	RecordCount int64  `json:"record_count"`
}
