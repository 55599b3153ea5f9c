// Package http 定价服务的 HTTP 接口层。
package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"

	"github.com/wyfcoding/optionpricing/internal/pricing/application"
)

// PricingHandler 负责处理与定价相关的 HTTP 请求
type PricingHandler struct {
	svc *application.PricingService
}

// NewPricingHandler 创建 HTTP 处理器实例
func NewPricingHandler(svc *application.PricingService) *PricingHandler {
	return &PricingHandler{svc: svc}
}

// RegisterRoutes 将处理器方法绑定到 Gin 路由引擎
func (h *PricingHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api/v1/pricing")
	{
		api.POST("/option/price", h.PriceOption)
		api.POST("/option/greeks", h.CalculateGreeks)
		api.POST("/simulate", h.Simulate)
		api.GET("/results/:symbol/latest", h.GetLatest)
		api.GET("/results/:symbol/history", h.GetHistory)
	}
}

// PriceOption 期权定价
func (h *PricingHandler) PriceOption(c *gin.Context) {
	var cmd application.PriceOptionCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	dto, err := h.svc.PriceOption(c.Request.Context(), cmd)
	if err != nil {
		logging.Error(c.Request.Context(), "failed to price option", "symbol", cmd.Symbol, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, dto)
}

// CalculateGreeks 计算希腊字母
func (h *PricingHandler) CalculateGreeks(c *gin.Context) {
	var cmd application.PriceOptionCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	dto, err := h.svc.CalculateGreeks(c.Request.Context(), cmd)
	if err != nil {
		logging.Error(c.Request.Context(), "failed to calculate greeks", "symbol", cmd.Symbol, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, dto)
}

// Simulate 蒙特卡洛路径模拟
func (h *PricingHandler) Simulate(c *gin.Context) {
	var cmd application.SimulateCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	dto, err := h.svc.Simulate(c.Request.Context(), cmd)
	if err != nil {
		logging.Error(c.Request.Context(), "failed to run simulation", "symbol", cmd.Symbol, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, dto)
}

// GetLatest 查询最新定价结果
func (h *PricingHandler) GetLatest(c *gin.Context) {
	symbol := c.Param("symbol")

	result, err := h.svc.GetLatest(c.Request.Context(), symbol)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
		return
	}
	response.Success(c, result)
}

// GetHistory 查询定价历史
func (h *PricingHandler) GetHistory(c *gin.Context) {
	symbol := c.Param("symbol")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	results, err := h.svc.GetHistory(c.Request.Context(), symbol, limit)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, results)
}
