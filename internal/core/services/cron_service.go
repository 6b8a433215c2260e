package services

import (
	"context"
	"log"

	"github.com/anetioficial/comunidade/internal/config"

	"github.com/robfig/cron/v3"
)

// CronService schedules the background jobs: the payment reconciliation
// sweep and the email outbox dispatcher.
type CronService struct {
	cron         *cron.Cron
	registration *RegistrationService
	email        *EmailService
	cfg          *config.Config
}

// NewCronService creates a new cron service
func NewCronService(registration *RegistrationService, email *EmailService, cfg *config.Config) *CronService {
	return &CronService{
		cron:         cron.New(),
		registration: registration,
		email:        email,
		cfg:          cfg,
	}
}

// Start registers and launches the background jobs
func (s *CronService) Start() {
	_, err := s.cron.AddFunc(s.cfg.Reconcile.Spec, func() {
		if err := s.registration.Reconcile(context.Background()); err != nil {
			log.Printf("❌ Payment reconciliation sweep failed: %v", err)
		}
	})
	if err != nil {
		log.Printf("❌ Failed to register reconciliation job: %v", err)
	}

	_, err = s.cron.AddFunc(s.cfg.Reconcile.OutboxSpec, func() {
		if err := s.email.DispatchQueued(context.Background()); err != nil {
			log.Printf("❌ Email outbox dispatch failed: %v", err)
		}
	})
	if err != nil {
		log.Printf("❌ Failed to register outbox dispatcher job: %v", err)
	}

	s.cron.Start()
	log.Println("🚀 Background jobs started")
}

// Stop gracefully stops the scheduler, waiting for running jobs
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("🛑 Background jobs stopped")
}
