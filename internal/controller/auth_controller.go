package controller

import (
	"strconv"

	"tutorhub_backend/internal/service"
	"tutorhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	AuthService *service.AuthService
}

func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{AuthService: authService}
}

// parseIDParam 路径参数里的数字 id，非法时返回 0
func parseIDParam(ctx *gin.Context, name string) uint {
	v, err := strconv.Atoi(ctx.Param(name))
	if err != nil || v <= 0 {
		return 0
	}
	return uint(v)
}

func parsePage(ctx *gin.Context) (int, int) {
	page := 1
	limit := 20
	if p := ctx.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}
	if l := ctx.Query("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			limit = v
		}
	}
	return page, limit
}

// @Summary 用户注册
// @Tags 认证
// @Accept json
// @Produce json
// @Param user body service.RegisterRequest true "注册信息"
// @Success 201 {object} util.Response
// @Router /api/auth/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req service.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, err := c.AuthService.Register(&req)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Created(ctx, user)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// @Summary 用户登录
// @Tags 认证
// @Accept json
// @Produce json
// @Param credentials body loginRequest true "登录凭证"
// @Success 200 {object} util.Response
// @Router /api/auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req loginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	token, user, err := c.AuthService.Login(req.Email, req.Password)
	if err != nil {
		util.Unauthorized(ctx)
		return
	}

	util.Success(ctx, gin.H{"token": token, "user": user})
}

// @Summary 获取当前用户
// @Tags 认证
// @Security BearerAuth
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/auth/me [get]
func (c *AuthController) Me(ctx *gin.Context) {
	user := c.AuthService.GetCurrentUser(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	util.Success(ctx, user)
}

// @Summary 更新个人资料
// @Tags 认证
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param profile body service.ProfileUpdateRequest true "个人资料"
// @Success 200 {object} util.Response
// @Router /api/auth/profile [put]
func (c *AuthController) UpdateProfile(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.ProfileUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, err := c.AuthService.UpdateProfile(claims.UserID, &req)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, user)
}
