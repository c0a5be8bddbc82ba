package repository

import (
	"tutorhub_backend/internal/model"

	"gorm.io/gorm"
)

type FlashcardRepository struct {
	DB *gorm.DB
}

func NewFlashcardRepository(db *gorm.DB) *FlashcardRepository {
	return &FlashcardRepository{DB: db}
}

func (r *FlashcardRepository) CreateSet(set *model.FlashcardSet) error {
	return r.DB.Create(set).Error
}

func (r *FlashcardRepository) UpdateSet(set *model.FlashcardSet) error {
	return r.DB.Save(set).Error
}

func (r *FlashcardRepository) FindActiveSetByID(id uint) (*model.FlashcardSet, error) {
	var set model.FlashcardSet
	err := r.DB.Where("id = ? AND is_active = ?", id, true).First(&set).Error
	if err != nil {
		return nil, err
	}
	return &set, nil
}

func (r *FlashcardRepository) ListSets(requesterID uint, subject string, page, limit int) ([]model.FlashcardSet, int64, error) {
	query := r.DB.Model(&model.FlashcardSet{}).Where("is_active = ?", true)
	if subject != "" {
		query = query.Where("LOWER(subject) LIKE ?", "%"+subject+"%")
	}
	if requesterID > 0 {
		query = query.Where("creator_id = ? OR is_public = ?", requesterID, true)
	} else {
		query = query.Where("is_public = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sets []model.FlashcardSet
	err := query.Order("created_at desc").Offset((page - 1) * limit).Limit(limit).Find(&sets).Error
	return sets, total, err
}

func (r *FlashcardRepository) CreateCard(card *model.Flashcard) error {
	return r.DB.Create(card).Error
}

func (r *FlashcardRepository) UpdateCard(card *model.Flashcard) error {
	return r.DB.Save(card).Error
}

func (r *FlashcardRepository) FindActiveCardByID(id uint) (*model.Flashcard, error) {
	var card model.Flashcard
	err := r.DB.Where("id = ? AND is_active = ?", id, true).First(&card).Error
	if err != nil {
		return nil, err
	}
	return &card, nil
}

func (r *FlashcardRepository) ListActiveCards(setID uint) ([]model.Flashcard, error) {
	var cards []model.Flashcard
	err := r.DB.Where("set_id = ? AND is_active = ?", setID, true).Order("`order` asc").Find(&cards).Error
	return cards, err
}

func (r *FlashcardRepository) MaxCardOrder(setID uint) (int, error) {
	var max int
	err := r.DB.Model(&model.Flashcard{}).
		Where("set_id = ? AND is_active = ?", setID, true).
		Select("COALESCE(MAX(`order`), 0)").Scan(&max).Error
	return max, err
}

func (r *FlashcardRepository) SoftDeleteCardsBySet(tx *gorm.DB, setID uint) error {
	return tx.Model(&model.Flashcard{}).Where("set_id = ?", setID).Update("is_active", false).Error
}
