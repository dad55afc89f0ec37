package db

import "gorm.io/gorm"

// NotDeleted filters out soft-deleted records for queries built with Table()
// that bypass GORM's automatic soft delete handling.
func NotDeleted() func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("deleted_at IS NULL")
	}
}
