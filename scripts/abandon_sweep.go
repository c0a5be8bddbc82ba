// 手动触发过期作答清理脚本
//
// 该功能已集成到主应用的后台定时任务中（按 quiz.abandon_sweep_minutes 周期执行）。
// 此脚本仅用于手动触发，例如服务长时间停机后积压了大量过期的进行中作答。
//
// 用法: go run scripts/abandon_sweep.go

package main

import (
	"log"
	"time"
	"tutorhub_backend/internal/config"
	"tutorhub_backend/internal/repository"
	"tutorhub_backend/internal/service"
	"tutorhub_backend/pkg/database"
	"tutorhub_backend/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	attemptService := service.NewAttemptService(
		repository.NewAttemptRepository(db),
		repository.NewQuizRepository(db),
		repository.NewQuestionRepository(db),
		nil,
		db,
	)

	ttl := time.Duration(cfg.Quiz.AttemptTTLHours) * time.Hour
	log.Printf("手动触发过期作答清理，TTL=%s ...", ttl)
	if err := attemptService.AbandonStale(ttl); err != nil {
		log.Fatalf("清理失败: %v", err)
	}
	log.Println("完成！")
}
