package database

import (
	"fmt"
	"log"

	"tutorhub_backend/internal/config"
	"tutorhub_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	// TranslateError: 唯一索引冲突要翻译成 gorm.ErrDuplicatedKey，
	// 并发 Start 的幂等处理依赖这个错误
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Info),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")
	return db, nil
}

// Migrate 建表并填充种子数据
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.GradeLevel{},
		&model.Quiz{},
		&model.Question{},
		&model.Attempt{},
		&model.AttemptAnswer{},
		&model.FlashcardSet{},
		&model.Flashcard{},
	)
	if err != nil {
		return err
	}

	log.Println("Database migration completed")

	// 默认年级（空表时初始化）
	var count int64
	db.Model(&model.GradeLevel{}).Count(&count)
	if count == 0 {
		defaultGrades := []model.GradeLevel{
			{Code: "elementary", Name: "小学", Order: 1, Enabled: true},
			{Code: "middle_school", Name: "初中", Order: 2, Enabled: true},
			{Code: "high_school", Name: "高中", Order: 3, Enabled: true},
			{Code: "undergraduate", Name: "本科", Order: 4, Enabled: true},
			{Code: "adult", Name: "成人教育", Order: 5, Enabled: true},
		}
		for _, g := range defaultGrades {
			db.Create(&g)
		}
	}

	return nil
}
