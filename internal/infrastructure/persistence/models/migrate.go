package models

import "gorm.io/gorm"

// AllModels returns every persistence model in migration order.
// Referenced tables come before tables that point at them.
func AllModels() []interface{} {
	return []interface{}{
		&CategoryModel{},
		&WalletModel{},
		&TransactionModel{},
		&BudgetModel{},
		&BudgetAlertModel{},
		&WalletAppliedEventModel{},
		&BudgetAppliedEventModel{},
		&OutboxEntryModel{},
		&DeadLetterEntryModel{},
	}
}

// AutoMigrate creates or updates the schema for all persistence models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}
