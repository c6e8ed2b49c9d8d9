package controller

import (
	"encoding/json"

	"examforge_backend/internal/model"
	"examforge_backend/internal/service"
	"examforge_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AttemptController struct {
	AttemptService    *service.AttemptService
	SubmissionService *service.SubmissionService
}

func NewAttemptController(attemptService *service.AttemptService, submissionService *service.SubmissionService) *AttemptController {
	return &AttemptController{
		AttemptService:    attemptService,
		SubmissionService: submissionService,
	}
}

// identityFromContext 已登录用户按 token 里的邮箱计数，匿名考生按客户端 IP。
func identityFromContext(ctx *gin.Context) model.AttemptIdentity {
	identity := model.AttemptIdentity{IPAddress: ctx.ClientIP()}
	if claims := util.GetUserFromContext(ctx); claims != nil {
		identity.StudentEmail = claims.Email
	}
	return identity
}

// CheckCanTake godoc
// @Summary 查询某考试剩余可用次数
// @Tags 作答
// @Produce json
// @Param slug path string true "考试 slug"
// @Success 200 {object} util.Response{data=service.CanTakeResult}
// @Router /api/exams/{slug}/can-take [get]
func (c *AttemptController) CheckCanTake(ctx *gin.Context) {
	result, err := c.AttemptService.CheckCanTake(ctx.Param("slug"), identityFromContext(ctx))
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// StartAttempt godoc
// @Summary 开始一次作答
// @Description 校验次数限制后创建 attempt，返回乱序后的考卷视图（不含答案）
// @Tags 作答
// @Produce json
// @Param slug path string true "考试 slug"
// @Success 201 {object} util.Response{data=service.AttemptView}
// @Failure 403 {object} util.Response "考试未开放"
// @Failure 429 {object} util.Response "次数已用完"
// @Router /api/exams/{slug}/attempts [post]
func (c *AttemptController) StartAttempt(ctx *gin.Context) {
	meta := service.ClientMeta{
		IPAddress: ctx.ClientIP(),
		UserAgent: ctx.Request.UserAgent(),
	}
	view, err := c.AttemptService.StartAttempt(ctx.Param("slug"), identityFromContext(ctx), meta)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Created(ctx, view)
}

// SaveAnswerRequest 单题作答内容，整体覆盖已有作答。
// swagger:model SaveAnswerRequest
type SaveAnswerRequest struct {
	TextValue         string          `json:"textValue"`
	SelectedOptionIDs []uint          `json:"selectedOptionIds"`
	StructuredValue   json.RawMessage `json:"structuredValue"`
}

// SaveAnswer godoc
// @Summary 保存单题作答
// @Tags 作答
// @Accept json
// @Produce json
// @Param id path int true "attempt ID"
// @Param questionId path int true "题目 ID"
// @Param body body SaveAnswerRequest true "作答内容"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response "已交卷"
// @Failure 410 {object} util.Response "已超时，作答被强制提交"
// @Router /api/attempts/{id}/answers/{questionId} [put]
func (c *AttemptController) SaveAnswer(ctx *gin.Context) {
	attemptID := util.MustParseUint(ctx.Param("id"))
	questionID := util.MustParseUint(ctx.Param("questionId"))
	if attemptID == 0 || questionID == 0 {
		util.BadRequest(ctx, "invalid attempt or question id")
		return
	}

	var req SaveAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	err := c.AttemptService.SaveAnswer(attemptID, questionID, service.AnswerPayload{
		TextValue:         req.TextValue,
		SelectedOptionIDs: req.SelectedOptionIDs,
		StructuredValue:   req.StructuredValue,
	})
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"saved": true})
}

// Submit godoc
// @Summary 交卷
// @Tags 作答
// @Produce json
// @Param id path int true "attempt ID"
// @Success 200 {object} util.Response{data=service.SubmissionOutcome}
// @Failure 409 {object} util.Response "重复交卷"
// @Router /api/attempts/{id}/submit [post]
func (c *AttemptController) Submit(ctx *gin.Context) {
	attemptID := util.MustParseUint(ctx.Param("id"))
	if attemptID == 0 {
		util.BadRequest(ctx, "invalid attempt id")
		return
	}

	outcome, err := c.SubmissionService.Submit(attemptID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, outcome)
}

// GetResult godoc
// @Summary 查询成绩
// @Description 是否返回分数与逐题细节由考试的 showResults/allowReview 策略决定
// @Tags 作答
// @Produce json
// @Param id path int true "attempt ID"
// @Success 200 {object} util.Response{data=service.ResultView}
// @Router /api/attempts/{id}/result [get]
func (c *AttemptController) GetResult(ctx *gin.Context) {
	attemptID := util.MustParseUint(ctx.Param("id"))
	if attemptID == 0 {
		util.BadRequest(ctx, "invalid attempt id")
		return
	}

	view, err := c.SubmissionService.GetResult(attemptID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, view)
}
