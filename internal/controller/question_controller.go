package controller

import (
	"tutorhub_backend/internal/service"
	"tutorhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuestionController struct {
	QuestionService *service.QuestionService
}

func NewQuestionController(questionService *service.QuestionService) *QuestionController {
	return &QuestionController{QuestionService: questionService}
}

// @Summary 添加题目
// @Tags 题目管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "测验ID"
// @Param question body service.QuestionCreateRequest true "题目信息"
// @Success 201 {object} util.Response
// @Router /api/quizzes/{id}/questions [post]
func (c *QuestionController) CreateQuestion(ctx *gin.Context) {
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

	var req service.QuestionCreateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	question, err := c.QuestionService.CreateQuestion(user.UserID, quizID, req)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Created(ctx, question)
}

// @Summary 批量添加题目
// @Tags 题目管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "测验ID"
// @Param questions body []service.QuestionCreateRequest true "题目列表"
// @Success 201 {object} util.Response
// @Router /api/quizzes/{id}/questions/bulk [post]
func (c *QuestionController) BulkCreateQuestions(ctx *gin.Context) {
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

	var reqs []service.QuestionCreateRequest
	if err := ctx.ShouldBindJSON(&reqs); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if len(reqs) == 0 {
		util.BadRequest(ctx, "题目列表不能为空")
		return
	}

	questions, err := c.QuestionService.BulkCreateQuestions(user.UserID, quizID, reqs)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Created(ctx, gin.H{"items": questions, "count": len(questions)})
}

// @Summary 导入 AI 生成的题目
// @Tags 题目管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "测验ID"
// @Param candidates body []service.AIQuestionCandidate true "AI 生成的候选题目"
// @Success 201 {object} util.Response
// @Router /api/quizzes/{id}/questions/ai-import [post]
func (c *QuestionController) ImportAIQuestions(ctx *gin.Context) {
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

	var candidates []service.AIQuestionCandidate
	if err := ctx.ShouldBindJSON(&candidates); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if len(candidates) == 0 {
		util.BadRequest(ctx, "题目列表不能为空")
		return
	}

	questions, batchID, err := c.QuestionService.ImportAIQuestions(user.UserID, quizID, candidates)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Created(ctx, gin.H{"items": questions, "count": len(questions), "batchId": batchID})
}

// @Summary 测验题目列表
// @Tags 题目管理
// @Produce json
// @Param id path int true "测验ID"
// @Success 200 {object} util.Response
// @Router /api/quizzes/{id}/questions [get]
func (c *QuestionController) ListQuestions(ctx *gin.Context) {
	quizID := parseIDParam(ctx, "id")
	if quizID == 0 {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	questions, err := c.QuestionService.GetQuestionsByQuiz(quizID, requesterID(ctx))
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, questions)
}

// @Summary 题目统计
// @Tags 题目管理
// @Produce json
// @Param id path int true "测验ID"
// @Success 200 {object} util.Response
// @Router /api/quizzes/{id}/questions/stats [get]
func (c *QuestionController) GetQuestionStats(ctx *gin.Context) {
	quizID := parseIDParam(ctx, "id")
	if quizID == 0 {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	stats, err := c.QuestionService.GetQuestionStats(quizID, requesterID(ctx))
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// @Summary 更新题目
// @Tags 题目管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "题目ID"
// @Param question body service.QuestionUpdateRequest true "题目信息"
// @Success 200 {object} util.Response
// @Router /api/questions/{id} [put]
func (c *QuestionController) UpdateQuestion(ctx *gin.Context) {
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

	var req service.QuestionUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	question, err := c.QuestionService.UpdateQuestion(id, user.UserID, req)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, question)
}

// @Summary 删除题目
// @Tags 题目管理
// @Security BearerAuth
// @Param id path int true "题目ID"
// @Success 200 {object} util.Response
// @Router /api/questions/{id} [delete]
func (c *QuestionController) DeleteQuestion(ctx *gin.Context) {
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

	if err := c.QuestionService.DeleteQuestion(id, user.UserID); err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": true})
}
