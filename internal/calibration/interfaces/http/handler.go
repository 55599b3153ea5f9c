// Package http 校准服务的 HTTP 接口层。
package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"

	"github.com/wyfcoding/optionpricing/internal/calibration/application"
)

// CalibrationHandler 负责处理与参数校准相关的 HTTP 请求
type CalibrationHandler struct {
	svc *application.CalibrationService
}

// NewCalibrationHandler 创建 HTTP 处理器实例
func NewCalibrationHandler(svc *application.CalibrationService) *CalibrationHandler {
	return &CalibrationHandler{svc: svc}
}

// RegisterRoutes 将处理器方法绑定到 Gin 路由引擎
func (h *CalibrationHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api/v1/calibration")
	{
		api.POST("/calibrate", h.Calibrate)
		api.POST("/dry-run", h.DryRun)
		api.GET("/results/:symbol/latest", h.GetLatest)
		api.GET("/results/:symbol/history", h.GetHistory)
	}
}

// Calibrate 基于市场报价篮子执行参数校准
func (h *CalibrationHandler) Calibrate(c *gin.Context) {
	var cmd application.CalibrateCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	dto, err := h.svc.Calibrate(c.Request.Context(), cmd)
	if err != nil {
		logging.Error(c.Request.Context(), "failed to calibrate", "symbol", cmd.Symbol, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, dto)
}

// DryRun 使用合成报价链做校准回归
func (h *CalibrationHandler) DryRun(c *gin.Context) {
	var cmd application.DryRunCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	dto, err := h.svc.DryRun(c.Request.Context(), cmd)
	if err != nil {
		logging.Error(c.Request.Context(), "failed to run calibration dry-run", "symbol", cmd.Symbol, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, dto)
}

// GetLatest 查询最近一次校准结果
func (h *CalibrationHandler) GetLatest(c *gin.Context) {
	symbol := c.Param("symbol")

	record, err := h.svc.GetLatest(c.Request.Context(), symbol)
	if err != nil {
		logging.Error(c.Request.Context(), "failed to get latest calibration", "symbol", symbol, "error", err)
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
		return
	}
	response.Success(c, record)
}

// GetHistory 查询校准历史
func (h *CalibrationHandler) GetHistory(c *gin.Context) {
	symbol := c.Param("symbol")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	records, err := h.svc.GetHistory(c.Request.Context(), symbol, limit)
	if err != nil {
		logging.Error(c.Request.Context(), "failed to get calibration history", "symbol", symbol, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, records)
}
