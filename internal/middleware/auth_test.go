package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"tutorhub_backend/internal/model"
	"tutorhub_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// roleTestRouter 模拟 router.go 的内容创作路由组：身份注入 + 角色校验 + 目标 handler
func roleTestRouter(claims *util.Claims, allowed ...model.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if claims != nil {
			c.Set("user", claims)
		}
		c.Next()
	})

	group := router.Group("/")
	group.Use(RoleMiddleware(allowed...))
	group.POST("/quizzes", func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	return router
}

func postQuizzes(router *gin.Engine) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/quizzes", nil)
	router.ServeHTTP(w, req)
	return w
}

// 学生和导师都可以出题，创作路由组对两种角色都放行
func TestAuthoringGateAdmitsStudents(t *testing.T) {
	student := &util.Claims{UserID: 1, Role: model.Student}
	w := postQuizzes(roleTestRouter(student, model.Tutor, model.Student))
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestAuthoringGateAdmitsTutors(t *testing.T) {
	tutor := &util.Claims{UserID: 2, Role: model.Tutor}
	w := postQuizzes(roleTestRouter(tutor, model.Tutor, model.Student))
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestRoleMiddlewareAdminBypass(t *testing.T) {
	admin := &util.Claims{UserID: 3, Role: model.Admin}
	w := postQuizzes(roleTestRouter(admin, model.Tutor))
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestRoleMiddlewareRejectsMissingRole(t *testing.T) {
	student := &util.Claims{UserID: 4, Role: model.Student}
	w := postQuizzes(roleTestRouter(student, model.Tutor))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRoleMiddlewareRequiresIdentity(t *testing.T) {
	w := postQuizzes(roleTestRouter(nil, model.Tutor, model.Student))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
