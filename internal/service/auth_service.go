package service

import (
	"encoding/json"
	"errors"
	"strings"

	"tutorhub_backend/internal/config"
	"tutorhub_backend/internal/model"
	"tutorhub_backend/internal/repository"
	"tutorhub_backend/internal/util"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	UserRepo *repository.UserRepository
	Cfg      *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		UserRepo: userRepo,
		Cfg:      cfg,
	}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role"`
}

func (s *AuthService) Register(req *RegisterRequest) (*model.User, error) {
	role := model.UserRole(req.Role)
	switch role {
	case "":
		role = model.Student
	case model.Student, model.Tutor:
	default:
		return nil, util.ValidationError("角色只能是 student 或 tutor")
	}

	_, err := s.UserRepo.FindByEmail(req.Email)
	if err == nil {
		return nil, util.ErrEmailRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.ToLower(req.Email),
		Password: string(hashedPassword),
		Role:     role,
	}
	if err := s.UserRepo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Login(email, password string) (string, *model.User, error) {
	user, err := s.UserRepo.FindByEmail(email)
	if err != nil {
		return "", nil, errors.New("invalid credentials")
	}
	if user.Disabled {
		return "", nil, errors.New("账号已被禁用")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, errors.New("invalid credentials")
	}

	if err := s.UserRepo.UpdateLastLogin(user.ID); err != nil {
		return "", nil, err
	}

	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *AuthService) GetCurrentUser(c *gin.Context) *model.User {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		return nil
	}

	user, _ := s.UserRepo.FindByID(claims.UserID)
	return user
}

type ProfileUpdateRequest struct {
	Name     *string  `json:"name"`
	Bio      *string  `json:"bio"`
	Subjects []string `json:"subjects"`
	Avatar   *string  `json:"avatar"`
}

func (s *AuthService) UpdateProfile(userID uint, req *ProfileUpdateRequest) (*model.User, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" || len(name) > 100 {
			return nil, util.ValidationError("姓名长度需在 1-100 之间")
		}
		user.Name = name
	}
	if req.Bio != nil {
		if len(*req.Bio) > 500 {
			return nil, util.ValidationError("简介不能超过 500 个字符")
		}
		user.Bio = *req.Bio
	}
	if req.Subjects != nil {
		b, err := json.Marshal(req.Subjects)
		if err != nil {
			return nil, err
		}
		user.Subjects = string(b)
	}
	if req.Avatar != nil {
		user.Avatar = *req.Avatar
	}

	if err := s.UserRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}
