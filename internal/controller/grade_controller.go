package controller

import (
	"examforge_backend/internal/service"
	"examforge_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type GradeController struct {
	GradingService *service.GradingService
}

func NewGradeController(gradingService *service.GradingService) *GradeController {
	return &GradeController{GradingService: gradingService}
}

// ListPendingGrading godoc
// @Summary 列出待人工评分的 attempt
// @Description 已交卷但包含主观题、尚未完成评分的 attempt
// @Tags 评分
// @Produce json
// @Param slug path string true "考试 slug"
// @Success 200 {object} util.Response
// @Security BearerAuth
// @Router /api/exams/{slug}/pending-grading [get]
func (c *GradeController) ListPendingGrading(ctx *gin.Context) {
	attempts, err := c.GradingService.ListPendingManualBySlug(ctx.Param("slug"))
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, attempts)
}

type ManualGradeRequest struct {
	PointsEarned float64 `json:"pointsEarned"`
	Feedback     string  `json:"feedback"`
}

// GradeAnswer godoc
// @Summary 人工评分单个作答
// @Description 给主观题打分并写入评语，随后重算该 attempt 的总分与通过状态
// @Tags 评分
// @Accept json
// @Produce json
// @Param id path int true "answer ID"
// @Param body body ManualGradeRequest true "得分与评语"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "得分超出该题分值范围"
// @Security BearerAuth
// @Router /api/answers/{id}/grade [post]
func (c *GradeController) GradeAnswer(ctx *gin.Context) {
	answerID := util.MustParseUint(ctx.Param("id"))
	if answerID == 0 {
		util.BadRequest(ctx, "invalid answer id")
		return
	}

	var req ManualGradeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.GradingService.GradeManually(answerID, req.PointsEarned, req.Feedback); err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"graded": true})
}
