package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/autocredit/cartera-api/internal/models"
)

// Migrate runs schema migrations for all models
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Company{},
		&models.Lead{},
		&models.SalesStage{},
		&models.Vehicle{},
		&models.Opportunity{},
		&models.StageTransition{},
		&models.Client{},
		&models.FinancingContract{},
		&models.Installment{},
		&models.CollectionCase{},
		&models.ContactLog{},
		&models.PaymentArrangement{},
		&models.VehicleRecovery{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// defaultStages is the pipeline seeded on an empty database. Analysis sits at
// order 4 and the terminal stage carries 100 percent closure.
var defaultStages = []models.SalesStage{
	{Name: "Contacto inicial", Order: 1, ClosurePercentage: 1},
	{Name: "Calificación", Order: 2, ClosurePercentage: 10},
	{Name: "Presentación de oferta", Order: 3, ClosurePercentage: 20},
	{Name: "Análisis de crédito", Order: 4, ClosurePercentage: 30, IsAnalysis: true},
	{Name: "Aprobación", Order: 5, ClosurePercentage: 40},
	{Name: "Documentación", Order: 6, ClosurePercentage: 50},
	{Name: "Firma de contrato", Order: 7, ClosurePercentage: 80},
	{Name: "Entrega de vehículo", Order: 8, ClosurePercentage: 90},
	{Name: "Cerrado", Order: 9, ClosurePercentage: 100},
}

// SeedStages inserts the default pipeline stages when none exist yet
func SeedStages(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.SalesStage{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count stages: %w", err)
	}
	if count > 0 {
		return nil
	}
	if err := db.Create(&defaultStages).Error; err != nil {
		return fmt.Errorf("failed to seed stages: %w", err)
	}
	return nil
}
