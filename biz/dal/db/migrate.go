package db

import (
	"github.com/yi-nology/cos_bridge/biz/dal/model"
	"gorm.io/gorm"
)

// Migrate creates or updates the tables owned by this service.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.FileRecord{})
}
