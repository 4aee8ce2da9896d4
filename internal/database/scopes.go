package database

import "gorm.io/gorm"

// Window applies an offset/limit pair to a GORM query.
func Window(offset, limit int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(offset).Limit(limit)
	}
}
