package model

import (
	"time"
)

type UserRole string

const (
	Student UserRole = "student"
	Tutor   UserRole = "tutor"
	Admin   UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Name     string   `gorm:"size:100;not null" json:"name"`
	Email    string   `gorm:"size:100;unique;not null" json:"email"`
	Password string   `gorm:"size:100;not null" json:"-"`
	Role     UserRole `gorm:"size:20;default:'student'" json:"role"`
	Bio      string   `gorm:"size:1000" json:"bio"`
	Subjects string   `gorm:"type:json" json:"subjects"` // 导师授课科目（JSON array）
	Avatar   string   `gorm:"size:255" json:"avatar"`
	Disabled bool     `gorm:"default:false" json:"disabled"`

	LastLogin time.Time `json:"lastLogin"`
}

func (User) TableName() string {
	return "users"
}
