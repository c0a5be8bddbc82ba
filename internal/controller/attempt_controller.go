package controller

import (
	"tutorhub_backend/internal/service"
	"tutorhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AttemptController struct {
	AttemptService *service.AttemptService
}

func NewAttemptController(attemptService *service.AttemptService) *AttemptController {
	return &AttemptController{AttemptService: attemptService}
}

// @Summary 开始测验
// @Tags 测验作答
// @Produce json
// @Security BearerAuth
// @Param id path int true "测验ID"
// @Success 201 {object} util.Response
// @Router /api/quizzes/{id}/attempts [post]
func (c *AttemptController) StartAttempt(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	quizID := parseIDParam(ctx, "id")
	if quizID == 0 {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	attempt, err := c.AttemptService.Start(user.UserID, quizID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Created(ctx, attempt)
}

type submitRequest struct {
	Answers []service.SubmittedAnswer `json:"answers"`
}

// @Summary 提交测验答案
// @Tags 测验作答
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "作答记录ID"
// @Param answers body submitRequest true "答案"
// @Success 200 {object} util.Response
// @Router /api/attempts/{id}/submit [post]
func (c *AttemptController) SubmitAttempt(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id := parseIDParam(ctx, "id")
	if id == 0 {
		util.BadRequest(ctx, "invalid id")
		return
	}

	var req submitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	attempt, err := c.AttemptService.Submit(id, user.UserID, req.Answers)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, attempt)
}

// @Summary 作答详情（含逐题回顾）
// @Tags 测验作答
// @Produce json
// @Security BearerAuth
// @Param id path int true "作答记录ID"
// @Success 200 {object} util.Response
// @Router /api/attempts/{id} [get]
func (c *AttemptController) GetAttempt(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id := parseIDParam(ctx, "id")
	if id == 0 {
		util.BadRequest(ctx, "invalid id")
		return
	}

	review, err := c.AttemptService.GetAttempt(id, user.UserID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, review)
}

// @Summary 我的作答记录
// @Tags 测验作答
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} util.Response
// @Router /api/attempts [get]
func (c *AttemptController) ListMyAttempts(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	page, limit := parsePage(ctx)

	attempts, total, err := c.AttemptService.ListByStudent(user.UserID, page, limit)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"items": attempts, "total": total, "page": page, "limit": limit})
}

// @Summary 测验的全部作答记录（创建者）
// @Tags 测验作答
// @Produce json
// @Security BearerAuth
// @Param id path int true "测验ID"
// @Success 200 {object} util.Response
// @Router /api/quizzes/{id}/attempts/all [get]
func (c *AttemptController) ListQuizAttempts(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	quizID := parseIDParam(ctx, "id")
	if quizID == 0 {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	attempts, err := c.AttemptService.ListByQuiz(quizID, user.UserID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, attempts)
}

// @Summary 删除作答记录
// @Tags 测验作答
// @Security BearerAuth
// @Param id path int true "作答记录ID"
// @Success 200 {object} util.Response
// @Router /api/attempts/{id} [delete]
func (c *AttemptController) DeleteAttempt(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id := parseIDParam(ctx, "id")
	if id == 0 {
		util.BadRequest(ctx, "invalid id")
		return
	}

	if err := c.AttemptService.Delete(id, user.UserID); err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": true})
}

type feedbackRequest struct {
	Feedback string `json:"feedback" binding:"required"`
}

// @Summary 添加导师点评
// @Tags 测验作答
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "作答记录ID"
// @Param feedback body feedbackRequest true "点评内容"
// @Success 200 {object} util.Response
// @Router /api/attempts/{id}/feedback [post]
func (c *AttemptController) AddFeedback(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id := parseIDParam(ctx, "id")
	if id == 0 {
		util.BadRequest(ctx, "invalid id")
		return
	}

	var req feedbackRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	attempt, err := c.AttemptService.AddTutorFeedback(id, user.UserID, req.Feedback)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, attempt)
}

// @Summary 测验统计
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Param id path int true "测验ID"
// @Success 200 {object} util.Response
// @Router /api/quizzes/{id}/statistics [get]
func (c *AttemptController) GetQuizStatistics(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	quizID := parseIDParam(ctx, "id")
	if quizID == 0 {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	stats, err := c.AttemptService.GetQuizStatistics(quizID, user.UserID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// @Summary 导师维度统计
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/tutor/statistics [get]
func (c *AttemptController) GetTutorStatistics(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	stats, err := c.AttemptService.GetTutorStatistics(user.UserID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}
