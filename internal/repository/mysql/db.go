package mysql

import (
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"Yam_Community/internal/model"
)

// Open 连接身份库
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)
	return db, nil
}

// Migrate 自动建表（开发阶段 OK）
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.Role{}, &model.UserRole{}, &model.ReconcileTask{})
}
