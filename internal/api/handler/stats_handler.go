package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/mrbenboyy/gestion-pointage-backend/internal/service"
	"github.com/mrbenboyy/gestion-pointage-backend/pkg/response"
)

// StatsHandler 仪表盘统计 HTTP 处理器
type StatsHandler struct {
	statsSvc service.StatsService
}

// NewStatsHandler 创建 StatsHandler
func NewStatsHandler(statsSvc service.StatsService) *StatsHandler {
	return &StatsHandler{statsSvc: statsSvc}
}

// AdminStats GET /api/v1/stats/admin
func (h *StatsHandler) AdminStats(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	stats, err := h.statsSvc.Admin(c.Request.Context(), caller)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, stats)
}

// ManagerStats GET /api/v1/stats/manager
func (h *StatsHandler) ManagerStats(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	stats, err := h.statsSvc.Manager(c.Request.Context(), caller)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, stats)
}

// SupervisorStats GET /api/v1/stats/supervisor
func (h *StatsHandler) SupervisorStats(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	stats, err := h.statsSvc.Supervisor(c.Request.Context(), caller)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, stats)
}
