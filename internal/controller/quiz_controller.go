package controller

import (
	"strconv"

	"tutorhub_backend/internal/repository"
	"tutorhub_backend/internal/service"
	"tutorhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService *service.QuizService
}

func NewQuizController(quizService *service.QuizService) *QuizController {
	return &QuizController{QuizService: quizService}
}

// requesterID 未登录时为 0，可见性判断按匿名处理
func requesterID(ctx *gin.Context) uint {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		return 0
	}
	return claims.UserID
}

// @Summary 创建测验
// @Tags 测验管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param quiz body service.QuizCreateRequest true "测验信息"
// @Success 201 {object} util.Response
// @Router /api/quizzes [post]
func (c *QuizController) CreateQuiz(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.QuizCreateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, err := c.QuizService.CreateQuiz(user.UserID, req)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Created(ctx, quiz)
}

// @Summary 获取测验详情
// @Tags 测验管理
// @Produce json
// @Param id path int true "测验ID"
// @Success 200 {object} util.Response
// @Router /api/quizzes/{id} [get]
func (c *QuizController) GetQuiz(ctx *gin.Context) {
	id := parseIDParam(ctx, "id")
	if id == 0 {
		util.BadRequest(ctx, "invalid id")
		return
	}

	quiz, err := c.QuizService.GetQuizByID(id, requesterID(ctx))
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, quiz)
}

// @Summary 测验列表
// @Tags 测验管理
// @Produce json
// @Param subject query string false "科目"
// @Param difficulty query string false "难度"
// @Param gradeLevelId query int false "年级ID"
// @Param creatorId query int false "创建者ID"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} util.Response
// @Router /api/quizzes [get]
func (c *QuizController) ListQuizzes(ctx *gin.Context) {
	page, limit := parsePage(ctx)
	filter := repository.QuizFilter{
		Subject:     ctx.Query("subject"),
		Difficulty:  ctx.Query("difficulty"),
		RequesterID: requesterID(ctx),
		Page:        page,
		Limit:       limit,
	}
	if g := ctx.Query("gradeLevelId"); g != "" {
		if v, err := strconv.Atoi(g); err == nil && v > 0 {
			filter.GradeLevelID = uint(v)
		}
	}
	if cr := ctx.Query("creatorId"); cr != "" {
		if v, err := strconv.Atoi(cr); err == nil && v > 0 {
			filter.CreatorID = uint(v)
		}
	}
	if pub := ctx.Query("isPublic"); pub != "" {
		b := pub == "true"
		filter.IsPublic = &b
	}

	quizzes, total, err := c.QuizService.ListQuizzes(filter)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"items": quizzes, "total": total, "page": page, "limit": limit})
}

// @Summary 年级列表
// @Tags 测验管理
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/grade-levels [get]
func (c *QuizController) ListGradeLevels(ctx *gin.Context) {
	levels, err := c.QuizService.ListGradeLevels()
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, levels)
}

// @Summary 更新测验
// @Tags 测验管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "测验ID"
// @Param quiz body service.QuizUpdateRequest true "测验信息"
// @Success 200 {object} util.Response
// @Router /api/quizzes/{id} [put]
func (c *QuizController) UpdateQuiz(ctx *gin.Context) {
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

	var req service.QuizUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, err := c.QuizService.UpdateQuiz(id, user.UserID, req)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, quiz)
}

// @Summary 删除测验
// @Tags 测验管理
// @Security BearerAuth
// @Param id path int true "测验ID"
// @Success 200 {object} util.Response
// @Router /api/quizzes/{id} [delete]
func (c *QuizController) DeleteQuiz(ctx *gin.Context) {
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

	if err := c.QuizService.DeleteQuiz(id, user.UserID); err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": true})
}

type duplicateRequest struct {
	Title string `json:"title"`
}

// @Summary 复制测验
// @Tags 测验管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "测验ID"
// @Param body body duplicateRequest false "新标题（可选）"
// @Success 201 {object} util.Response
// @Router /api/quizzes/{id}/duplicate [post]
func (c *QuizController) DuplicateQuiz(ctx *gin.Context) {
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

	var req duplicateRequest
	_ = ctx.ShouldBindJSON(&req)

	quiz, err := c.QuizService.DuplicateQuiz(id, user.UserID, req.Title)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Created(ctx, quiz)
}

// @Summary 切换发布状态
// @Tags 测验管理
// @Security BearerAuth
// @Param id path int true "测验ID"
// @Success 200 {object} util.Response
// @Router /api/quizzes/{id}/publish [post]
func (c *QuizController) TogglePublish(ctx *gin.Context) {
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

	isPublic, err := c.QuizService.TogglePublishStatus(id, user.UserID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"isPublic": isPublic})
}

// @Summary 测验构建进度
// @Tags 测验管理
// @Security BearerAuth
// @Produce json
// @Param id path int true "测验ID"
// @Success 200 {object} util.Response
// @Router /api/quizzes/{id}/progress [get]
func (c *QuizController) GetQuizStats(ctx *gin.Context) {
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

	stats, err := c.QuizService.GetQuizStats(id, user.UserID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}
