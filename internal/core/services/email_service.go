package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/anetioficial/comunidade/internal/adapters/persistence/models"
	"github.com/anetioficial/comunidade/internal/adapters/persistence/repositories"
	"github.com/anetioficial/comunidade/internal/config"

	gomail "gopkg.in/gomail.v2"
)

// MailSender delivers a single message. Implemented over SMTP; tests plug
// in a recorder.
type MailSender interface {
	Send(to, subject, body string) error
}

// smtpSender implements MailSender via gomail
type smtpSender struct {
	cfg config.EmailConfig
}

// NewSMTPSender creates an SMTP mail sender
func NewSMTPSender(cfg config.EmailConfig) MailSender {
	return &smtpSender{cfg: cfg}
}

func (s *smtpSender) Send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// EmailService drains the outbox. State transitions enqueue rows (inside
// their own transactions); this service only ever delivers and records the
// result, so a delivery failure can never roll back a workflow.
type EmailService struct {
	outboxRepo repositories.OutboxRepository
	sender     MailSender
	maxRetries int
}

// NewEmailService creates a new email service
func NewEmailService(outboxRepo repositories.OutboxRepository, sender MailSender, maxRetries int) *EmailService {
	return &EmailService{
		outboxRepo: outboxRepo,
		sender:     sender,
		maxRetries: maxRetries,
	}
}

// dispatchBatchSize limits how many outbox rows one dispatcher run drains
const dispatchBatchSize = 50

// DispatchQueued delivers queued outbox rows, oldest first
func (s *EmailService) DispatchQueued(ctx context.Context) error {
	emails, err := s.outboxRepo.ListQueued(ctx, dispatchBatchSize)
	if err != nil {
		return err
	}

	for _, email := range emails {
		if err := s.sender.Send(email.Recipient, email.Subject, email.Body); err != nil {
			attempts := email.Attempts + 1
			terminal := attempts >= s.maxRetries
			if terminal {
				log.Printf("❌ Email to %s failed permanently after %d attempts: %v", email.Recipient, attempts, err)
			}
			if markErr := s.outboxRepo.MarkFailed(ctx, email.ID, attempts, err.Error(), terminal); markErr != nil {
				log.Printf("❌ Failed to record email failure: %v", markErr)
			}
			continue
		}
		if err := s.outboxRepo.MarkSent(ctx, email.ID, time.Now()); err != nil {
			log.Printf("❌ Failed to record email delivery: %v", err)
		}
	}

	return nil
}

// ============================================================
// Message composition
// ============================================================

// RegistrationReceivedEmail composes the "cadastro recebido" notice
func RegistrationReceivedEmail(to, name string) *models.EmailOutbox {
	body := fmt.Sprintf(
		"<p>Olá %s,</p><p>Recebemos o seu cadastro. Ele será analisado pela nossa equipe e você receberá um retorno em breve.</p><p>Equipe ANETI</p>",
		name,
	)
	return &models.EmailOutbox{
		Recipient: to,
		Subject:   "Cadastro recebido - ANETI",
		Body:      body,
		Status:    models.EmailQueued,
	}
}

// PaymentConfirmedEmail composes the payment confirmation notice
func PaymentConfirmedEmail(to, name string, amount float64) *models.EmailOutbox {
	body := fmt.Sprintf(
		"<p>Olá %s,</p><p>Seu pagamento de R$ %.2f foi confirmado. Seu cadastro segue para análise da equipe.</p><p>Equipe ANETI</p>",
		name, amount,
	)
	return &models.EmailOutbox{
		Recipient: to,
		Subject:   "Pagamento confirmado - ANETI",
		Body:      body,
		Status:    models.EmailQueued,
	}
}

// ApprovalEmail composes the registration approval notice
func ApprovalEmail(to, name string) *models.EmailOutbox {
	body := fmt.Sprintf(
		"<p>Olá %s,</p><p>Seu cadastro foi aprovado! Você já pode acessar a comunidade com o seu e-mail e senha.</p><p>Equipe ANETI</p>",
		name,
	)
	return &models.EmailOutbox{
		Recipient: to,
		Subject:   "Cadastro aprovado - ANETI",
		Body:      body,
		Status:    models.EmailQueued,
	}
}

// RejectionEmail composes the registration rejection notice with the
// admin's justification
func RejectionEmail(to, name, justification string) *models.EmailOutbox {
	body := fmt.Sprintf(
		"<p>Olá %s,</p><p>Infelizmente seu cadastro não foi aprovado.</p><p>Motivo: %s</p><p>Equipe ANETI</p>",
		name, justification,
	)
	return &models.EmailOutbox{
		Recipient: to,
		Subject:   "Cadastro não aprovado - ANETI",
		Body:      body,
		Status:    models.EmailQueued,
	}
}
