package config

import (
	"log"

	"github.com/anetioficial/comunidade/internal/adapters/persistence/models"
	"github.com/anetioficial/comunidade/internal/pkg/password"

	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedAdminUser(); err != nil {
		log.Printf("⚠️ Admin seeder skipped: %v", err)
	}
	if err := s.seedPlans(); err != nil {
		log.Printf("⚠️ Plan seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedAdminUser seeds default admin user
// This is for development/testing only
// In production, create admin through secure process
func (s *Seeder) seedAdminUser() error {
	var count int64
	s.db.Model(&models.User{}).Where("is_admin = ?", true).Count(&count)
	if count > 0 {
		return nil // Admin already exists
	}

	hashedPassword, err := password.Hash("admin123456")
	if err != nil {
		return err
	}

	admin := &models.User{
		Name:     "Administrador",
		Email:    "admin@aneti.org.br",
		Password: hashedPassword,
		IsAdmin:  true,
	}

	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Seeded admin user: %s", admin.Email)
	return nil
}

// seedPlans seeds the default membership tiers
func (s *Seeder) seedPlans() error {
	var count int64
	s.db.Model(&models.Plan{}).Count(&count)
	if count > 0 {
		return nil // Plans already exist
	}

	plans := []models.Plan{
		{Name: "Público", Price: 0, IsPublic: true, Description: "Acesso gratuito mediante aprovação", Active: true},
		{Name: "Junior", Price: 59.90, IsPublic: false, Description: "Profissionais em início de carreira", Active: true},
		{Name: "Pleno", Price: 99.90, IsPublic: false, Description: "Profissionais com experiência comprovada", Active: true},
		{Name: "Senior", Price: 149.90, IsPublic: false, Description: "Profissionais seniores e lideranças", Active: true},
	}

	if err := s.db.Create(&plans).Error; err != nil {
		return err
	}

	log.Printf("✅ Seeded %d membership plans", len(plans))
	return nil
}

// SeedData runs all seeders (called from main)
func SeedData(db *gorm.DB) error {
	return NewSeeder(db).Run()
}
