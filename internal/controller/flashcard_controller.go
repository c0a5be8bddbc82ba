package controller

import (
	"tutorhub_backend/internal/service"
	"tutorhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type FlashcardController struct {
	FlashcardService *service.FlashcardService
}

func NewFlashcardController(flashcardService *service.FlashcardService) *FlashcardController {
	return &FlashcardController{FlashcardService: flashcardService}
}

// @Summary 创建闪卡集
// @Tags 闪卡
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param set body service.FlashcardSetCreateRequest true "闪卡集信息"
// @Success 201 {object} util.Response
// @Router /api/flashcard-sets [post]
func (c *FlashcardController) CreateSet(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.FlashcardSetCreateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	set, err := c.FlashcardService.CreateSet(user.UserID, &req)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Created(ctx, set)
}

// @Summary 闪卡集详情
// @Tags 闪卡
// @Produce json
// @Param id path int true "闪卡集ID"
// @Success 200 {object} util.Response
// @Router /api/flashcard-sets/{id} [get]
func (c *FlashcardController) GetSet(ctx *gin.Context) {
	id := parseIDParam(ctx, "id")
	if id == 0 {
		util.BadRequest(ctx, "invalid id")
		return
	}

	view, err := c.FlashcardService.GetSet(id, requesterID(ctx))
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// @Summary 闪卡集列表
// @Tags 闪卡
// @Produce json
// @Param subject query string false "科目"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} util.Response
// @Router /api/flashcard-sets [get]
func (c *FlashcardController) ListSets(ctx *gin.Context) {
	page, limit := parsePage(ctx)
	sets, total, err := c.FlashcardService.ListSets(requesterID(ctx), ctx.Query("subject"), page, limit)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"items": sets, "total": total, "page": page, "limit": limit})
}

// @Summary 更新闪卡集
// @Tags 闪卡
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "闪卡集ID"
// @Param set body service.FlashcardSetUpdateRequest true "闪卡集信息"
// @Success 200 {object} util.Response
// @Router /api/flashcard-sets/{id} [put]
func (c *FlashcardController) UpdateSet(ctx *gin.Context) {
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

	var req service.FlashcardSetUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	set, err := c.FlashcardService.UpdateSet(id, user.UserID, &req)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, set)
}

// @Summary 删除闪卡集
// @Tags 闪卡
// @Security BearerAuth
// @Param id path int true "闪卡集ID"
// @Success 200 {object} util.Response
// @Router /api/flashcard-sets/{id} [delete]
func (c *FlashcardController) DeleteSet(ctx *gin.Context) {
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

	if err := c.FlashcardService.DeleteSet(id, user.UserID); err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": true})
}

// @Summary 添加闪卡
// @Tags 闪卡
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "闪卡集ID"
// @Param card body service.FlashcardRequest true "卡片内容"
// @Success 201 {object} util.Response
// @Router /api/flashcard-sets/{id}/cards [post]
func (c *FlashcardController) AddCard(ctx *gin.Context) {
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

	var req service.FlashcardRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	card, err := c.FlashcardService.AddCard(id, user.UserID, &req)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Created(ctx, card)
}

// @Summary 更新闪卡
// @Tags 闪卡
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "闪卡ID"
// @Param card body service.FlashcardRequest true "卡片内容"
// @Success 200 {object} util.Response
// @Router /api/flashcards/{id} [put]
func (c *FlashcardController) UpdateCard(ctx *gin.Context) {
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

	var req service.FlashcardRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	card, err := c.FlashcardService.UpdateCard(id, user.UserID, &req)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, card)
}

// @Summary 删除闪卡
// @Tags 闪卡
// @Security BearerAuth
// @Param id path int true "闪卡ID"
// @Success 200 {object} util.Response
// @Router /api/flashcards/{id} [delete]
func (c *FlashcardController) DeleteCard(ctx *gin.Context) {
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

	if err := c.FlashcardService.DeleteCard(id, user.UserID); err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": true})
}
