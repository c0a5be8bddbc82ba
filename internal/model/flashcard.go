package model

// swagger:model FlashcardSet
type FlashcardSet struct {
	BaseModel

	CreatorID   uint   `gorm:"index" json:"creatorId"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Description string `gorm:"size:500" json:"description"`
	Subject     string `gorm:"size:100;index" json:"subject"`
	IsPublic    bool   `gorm:"default:false;index" json:"isPublic"`
	IsActive    bool   `gorm:"default:true;index" json:"isActive"`
}

func (FlashcardSet) TableName() string {
	return "flashcard_sets"
}

func (s *FlashcardSet) VisibleTo(requesterID uint) bool {
	return s.IsPublic || (requesterID != 0 && s.CreatorID == requesterID)
}

// swagger:model Flashcard
type Flashcard struct {
	BaseModel

	SetID    uint   `gorm:"index" json:"setId"`
	Front    string `gorm:"size:1000;not null" json:"front"`
	Back     string `gorm:"size:1000;not null" json:"back"`
	Order    int    `gorm:"default:0" json:"order"`
	IsActive bool   `gorm:"default:true;index" json:"isActive"`
}

func (Flashcard) TableName() string {
	return "flashcards"
}
