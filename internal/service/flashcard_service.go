package service

import (
	"errors"
	"strings"

	"tutorhub_backend/internal/model"
	"tutorhub_backend/internal/repository"
	"tutorhub_backend/internal/util"

	"gorm.io/gorm"
)

type FlashcardService struct {
	FlashcardRepo *repository.FlashcardRepository
	DB            *gorm.DB
}

func NewFlashcardService(repo *repository.FlashcardRepository, db *gorm.DB) *FlashcardService {
	return &FlashcardService{FlashcardRepo: repo, DB: db}
}

type FlashcardSetCreateRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Subject     string `json:"subject"`
	IsPublic    bool   `json:"isPublic"`
}

type FlashcardSetUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Subject     *string `json:"subject"`
	IsPublic    *bool   `json:"isPublic"`
}

type FlashcardRequest struct {
	Front string `json:"front" binding:"required"`
	Back  string `json:"back" binding:"required"`
}

func validateSetFields(title, description string) error {
	title = strings.TrimSpace(title)
	if title == "" || len(title) > 200 {
		return util.ValidationError("标题长度需在 1-200 之间")
	}
	if len(description) > 500 {
		return util.ValidationError("描述不能超过 500 个字符")
	}
	return nil
}

func validateCardFields(front, back string) error {
	if strings.TrimSpace(front) == "" || len(front) > 1000 {
		return util.ValidationError("卡片正面内容长度需在 1-1000 之间")
	}
	if strings.TrimSpace(back) == "" || len(back) > 1000 {
		return util.ValidationError("卡片背面内容长度需在 1-1000 之间")
	}
	return nil
}

func (s *FlashcardService) CreateSet(creatorID uint, req *FlashcardSetCreateRequest) (*model.FlashcardSet, error) {
	if err := validateSetFields(req.Title, req.Description); err != nil {
		return nil, err
	}
	set := &model.FlashcardSet{
		CreatorID:   creatorID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Subject:     req.Subject,
		IsPublic:    req.IsPublic,
		IsActive:    true,
	}
	if err := s.FlashcardRepo.CreateSet(set); err != nil {
		return nil, err
	}
	return set, nil
}

// visibleSet 不可见的集合按不存在处理
func (s *FlashcardService) visibleSet(setID, requesterID uint) (*model.FlashcardSet, error) {
	set, err := s.FlashcardRepo.FindActiveSetByID(setID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSetNotFound
		}
		return nil, err
	}
	if !set.VisibleTo(requesterID) {
		return nil, util.ErrSetNotFound
	}
	return set, nil
}

func (s *FlashcardService) ownedSet(setID, requesterID uint) (*model.FlashcardSet, error) {
	set, err := s.visibleSet(setID, requesterID)
	if err != nil {
		return nil, err
	}
	if set.CreatorID != requesterID {
		return nil, util.ErrPermissionDenied
	}
	return set, nil
}

// FlashcardSetView 集合连同按序排列的卡片
type FlashcardSetView struct {
	Set   *model.FlashcardSet `json:"set"`
	Cards []model.Flashcard   `json:"cards"`
}

func (s *FlashcardService) GetSet(setID, requesterID uint) (*FlashcardSetView, error) {
	set, err := s.visibleSet(setID, requesterID)
	if err != nil {
		return nil, err
	}
	cards, err := s.FlashcardRepo.ListActiveCards(setID)
	if err != nil {
		return nil, err
	}
	return &FlashcardSetView{Set: set, Cards: cards}, nil
}

func (s *FlashcardService) ListSets(requesterID uint, subject string, page, limit int) ([]model.FlashcardSet, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	return s.FlashcardRepo.ListSets(requesterID, subject, page, limit)
}

func (s *FlashcardService) UpdateSet(setID, requesterID uint, req *FlashcardSetUpdateRequest) (*model.FlashcardSet, error) {
	set, err := s.ownedSet(setID, requesterID)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		set.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		set.Description = *req.Description
	}
	if req.Subject != nil {
		set.Subject = *req.Subject
	}
	if req.IsPublic != nil {
		set.IsPublic = *req.IsPublic
	}
	if err := validateSetFields(set.Title, set.Description); err != nil {
		return nil, err
	}
	if err := s.FlashcardRepo.UpdateSet(set); err != nil {
		return nil, err
	}
	return set, nil
}

// DeleteSet 软删集合并级联软删卡片，同一事务内完成
func (s *FlashcardService) DeleteSet(setID, requesterID uint) error {
	set, err := s.ownedSet(setID, requesterID)
	if err != nil {
		return err
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.FlashcardSet{}).Where("id = ?", set.ID).Update("is_active", false).Error; err != nil {
			return err
		}
		return s.FlashcardRepo.SoftDeleteCardsBySet(tx, set.ID)
	})
}

func (s *FlashcardService) AddCard(setID, requesterID uint, req *FlashcardRequest) (*model.Flashcard, error) {
	set, err := s.ownedSet(setID, requesterID)
	if err != nil {
		return nil, err
	}
	if err := validateCardFields(req.Front, req.Back); err != nil {
		return nil, err
	}
	maxOrder, err := s.FlashcardRepo.MaxCardOrder(set.ID)
	if err != nil {
		return nil, err
	}
	card := &model.Flashcard{
		SetID:    set.ID,
		Front:    req.Front,
		Back:     req.Back,
		Order:    maxOrder + 1,
		IsActive: true,
	}
	if err := s.FlashcardRepo.CreateCard(card); err != nil {
		return nil, err
	}
	return card, nil
}

func (s *FlashcardService) findOwnedCard(cardID, requesterID uint) (*model.Flashcard, error) {
	card, err := s.FlashcardRepo.FindActiveCardByID(cardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCardNotFound
		}
		return nil, err
	}
	if _, err := s.ownedSet(card.SetID, requesterID); err != nil {
		return nil, err
	}
	return card, nil
}

func (s *FlashcardService) UpdateCard(cardID, requesterID uint, req *FlashcardRequest) (*model.Flashcard, error) {
	card, err := s.findOwnedCard(cardID, requesterID)
	if err != nil {
		return nil, err
	}
	if err := validateCardFields(req.Front, req.Back); err != nil {
		return nil, err
	}
	card.Front = req.Front
	card.Back = req.Back
	if err := s.FlashcardRepo.UpdateCard(card); err != nil {
		return nil, err
	}
	return card, nil
}

// DeleteCard 软删单张卡片，保留其余卡片的顺序号
func (s *FlashcardService) DeleteCard(cardID, requesterID uint) error {
	card, err := s.findOwnedCard(cardID, requesterID)
	if err != nil {
		return err
	}
	card.IsActive = false
	return s.FlashcardRepo.UpdateCard(card)
}
