package database

import (
	"certprep_backend/internal/config"
	"certprep_backend/internal/model"
	"fmt"
	"log"

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

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	err = db.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.Question{},
		&model.Choice{},
		&model.Exam{},
		&model.ExamCategoryAllocation{},
		&model.ExamAttempt{},
		&model.AttemptAnswer{},
		&model.ExamSubscription{},
	)

	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	// Seed a root category so question curation has a home on first boot.
	var catCount int64
	db.Model(&model.Category{}).Count(&catCount)
	if catCount == 0 {
		db.Create(&model.Category{Name: "General", Slug: "general", IsActive: true})
	}

	return db, nil
}
