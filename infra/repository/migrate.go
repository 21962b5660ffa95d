package repository

import "gorm.io/gorm"

// Migrate creates or updates the ledger tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Account{}, &Transaction{}, &AuditLog{})
}
