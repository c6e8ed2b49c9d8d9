package controller

import (
	"examforge_backend/internal/service"
	"examforge_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type StatsController struct {
	StatsService *service.StatsService
}

func NewStatsController(statsService *service.StatsService) *StatsController {
	return &StatsController{StatsService: statsService}
}

// GetExamStats godoc
// @Summary 考试维度的聚合统计
// @Description 均分、通过率、最高最低分以及逐题正确率，只统计已交卷的 attempt
// @Tags 统计
// @Produce json
// @Param slug path string true "考试 slug"
// @Success 200 {object} util.Response{data=service.ExamStatsView}
// @Security BearerAuth
// @Router /api/exams/{slug}/stats [get]
func (c *StatsController) GetExamStats(ctx *gin.Context) {
	stats, err := c.StatsService.ExamStatsBySlug(ctx.Param("slug"))
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}
