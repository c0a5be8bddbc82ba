package model

// GradeLevel 年级字典，随迁移预置默认数据
type GradeLevel struct {
	BaseModel
	Code    string `gorm:"size:50;unique;not null" json:"code"`
	Name    string `gorm:"size:100;not null" json:"name"`
	Order   int    `gorm:"default:0" json:"order"`
	Enabled bool   `gorm:"default:true" json:"enabled"`
}

func (GradeLevel) TableName() string {
	return "grade_levels"
}
