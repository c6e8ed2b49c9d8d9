package controller

import (
	"examforge_backend/internal/service"
	"examforge_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ExamController struct {
	ExamService *service.ExamService
}

func NewExamController(examService *service.ExamService) *ExamController {
	return &ExamController{ExamService: examService}
}

// GetExam godoc
// @Summary 获取考试公开元信息
// @Description 只返回标题、限时、次数限制等元信息，不含题目与答案
// @Tags 考试
// @Produce json
// @Param slug path string true "考试 slug"
// @Success 200 {object} util.Response{data=service.ExamMetaView}
// @Failure 403 {object} util.Response "考试未发布或未公开"
// @Failure 404 {object} util.Response
// @Router /api/exams/{slug} [get]
func (c *ExamController) GetExam(ctx *gin.Context) {
	view, err := c.ExamService.GetExamMeta(ctx.Param("slug"))
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, view)
}
