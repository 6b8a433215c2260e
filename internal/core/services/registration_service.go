package services

import (
	"context"
	"errors"
	"log"
	"mime/multipart"
	"regexp"
	"strings"
	"time"

	"github.com/anetioficial/comunidade/internal/adapters/persistence/models"
	"github.com/anetioficial/comunidade/internal/adapters/persistence/repositories"
	"github.com/anetioficial/comunidade/internal/config"
	"github.com/anetioficial/comunidade/internal/pkg/password"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Registration workflow errors
var (
	ErrValidation              = errors.New("validation failed")
	ErrDuplicateEmail          = errors.New("email already registered")
	ErrPlanNotFound            = errors.New("plan not found")
	ErrInvalidCoupon           = errors.New("invalid or expired coupon")
	ErrPaymentInitiationFailed = errors.New("failed to initiate payment")
	ErrPaymentNotConfirmed     = errors.New("payment not confirmed")
	ErrRegistrationNotFound    = errors.New("registration not found")
	ErrRegistrationNotPending  = errors.New("registration is not pending")
	ErrJustificationRequired   = errors.New("justification is required")
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// RegistrationService orchestrates the registration lifecycle: submission,
// payment confirmation, admin decision, and the reconciliation sweep. The
// finalization paths share one rule: users.email uniqueness is the arbiter,
// and a duplicate-key outcome means some other path already finalized.
type RegistrationService struct {
	db           *gorm.DB
	regRepo      repositories.RegistrationRepository
	userRepo     repositories.UserRepository
	planRepo     repositories.PlanRepository
	docRepo      repositories.DocumentRepository
	couponRepo   repositories.CouponRepository
	approvalRepo repositories.ApprovalRepository
	outboxRepo   repositories.OutboxRepository
	gateway      PaymentGateway
	storage      *StorageService
	cfg          *config.Config
}

// NewRegistrationService creates a new registration service
func NewRegistrationService(
	db *gorm.DB,
	regRepo repositories.RegistrationRepository,
	userRepo repositories.UserRepository,
	planRepo repositories.PlanRepository,
	docRepo repositories.DocumentRepository,
	couponRepo repositories.CouponRepository,
	approvalRepo repositories.ApprovalRepository,
	outboxRepo repositories.OutboxRepository,
	gateway PaymentGateway,
	storage *StorageService,
	cfg *config.Config,
) *RegistrationService {
	return &RegistrationService{
		db:           db,
		regRepo:      regRepo,
		userRepo:     userRepo,
		planRepo:     planRepo,
		docRepo:      docRepo,
		couponRepo:   couponRepo,
		approvalRepo: approvalRepo,
		outboxRepo:   outboxRepo,
		gateway:      gateway,
		storage:      storage,
		cfg:          cfg,
	}
}

// SubmitInput represents a registration submission
type SubmitInput struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PlanID      uint   `json:"plan_id"`
	LinkedInURL string `json:"linkedin_url,omitempty"`
	CouponCode  string `json:"coupon_code,omitempty"`
}

// DocumentUpload pairs an uploaded file with its declared type
type DocumentUpload struct {
	Type string
	File *multipart.FileHeader
}

// SubmitResult is returned to the caller after submission
type SubmitResult struct {
	Registration *models.Registration
	Checkout     *Checkout // nil for public plans
}

// Validate checks the submission fields
func (in *SubmitInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" ||
		strings.TrimSpace(in.Email) == "" ||
		in.Password == "" {
		return ErrValidation
	}
	if !emailPattern.MatchString(in.Email) {
		return ErrValidation
	}
	if !password.ValidatePassword(in.Password) {
		return ErrValidation
	}
	if in.PlanID == 0 {
		return ErrValidation
	}
	return nil
}

// Submit validates and persists a new registration, stores its documents,
// and opens a checkout session for non-public plans. The external reference
// is written to the registration row before the gateway call so a webhook
// can be matched even across a process restart.
func (s *RegistrationService) Submit(ctx context.Context, input *SubmitInput, docs []DocumentUpload) (*SubmitResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))

	// The email must be free in both the member base and any pending
	// registration.
	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateEmail
	}
	exists, err = s.regRepo.ExistsPendingByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateEmail
	}

	plan, err := s.planRepo.GetActiveByID(ctx, input.PlanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	// Coupon eligibility is judged now; its usage counter only moves once
	// the payment is confirmed approved.
	var coupon *models.DiscountCoupon
	if input.CouponCode != "" {
		coupon, err = s.couponRepo.GetByCode(ctx, strings.TrimSpace(input.CouponCode))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrInvalidCoupon
			}
			return nil, err
		}
		if !coupon.Usable(time.Now()) {
			return nil, ErrInvalidCoupon
		}
	}

	hashedPassword, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	reg := &models.Registration{
		Name:          strings.TrimSpace(input.Name),
		Email:         email,
		Password:      hashedPassword,
		PlanID:        plan.ID,
		LinkedInURL:   strings.TrimSpace(input.LinkedInURL),
		PaymentStatus: models.PaymentNone,
		Status:        models.RegistrationPending,
	}
	if coupon != nil {
		reg.CouponID = &coupon.ID
	}

	if err := s.regRepo.Create(ctx, reg); err != nil {
		return nil, err
	}

	for _, doc := range docs {
		if _, err := s.storage.SaveRegistrationDocument(ctx, reg.ID, doc.Type, doc.File); err != nil {
			return nil, err
		}
	}

	result := &SubmitResult{Registration: reg}

	if plan.RequiresPayment() {
		checkout, err := s.initiatePayment(ctx, reg, plan, coupon)
		if err != nil {
			return nil, err
		}
		result.Checkout = checkout
	}

	// Best-effort notice; the registration stands either way.
	if err := s.outboxRepo.Enqueue(ctx, RegistrationReceivedEmail(reg.Email, reg.Name)); err != nil {
		log.Printf("⚠️ Failed to queue registration email for %s: %v", reg.Email, err)
	}

	reg.Plan = plan
	return result, nil
}

// initiatePayment freezes the final price, durably stores the external
// reference, and opens the checkout session
func (s *RegistrationService) initiatePayment(ctx context.Context, reg *models.Registration, plan *models.Plan, coupon *models.DiscountCoupon) (*Checkout, error) {
	finalPrice := plan.Price
	if coupon != nil {
		finalPrice = CalculateDiscountedPrice(plan.Price, coupon.DiscountPercentage)
	}

	ref := GenerateExternalReference(reg.Email, time.Now())
	reg.ExternalReference = &ref
	reg.FinalPrice = finalPrice
	if err := s.regRepo.Update(ctx, reg); err != nil {
		return nil, err
	}

	checkout, err := s.gateway.CreatePreference(ctx, &CheckoutRequest{
		PlanName:          plan.Name,
		Amount:            finalPrice,
		PayerName:         reg.Name,
		PayerEmail:        reg.Email,
		ExternalReference: ref,
	})
	if err != nil {
		// The registration must not look paid or payable: drop the
		// reference so no webhook can ever match it, and close the row
		// so the e-mail stays free for a fresh submission.
		reg.ExternalReference = nil
		reg.PaymentStatus = models.PaymentNone
		reg.Status = models.RegistrationRejected
		if updateErr := s.regRepo.Update(ctx, reg); updateErr != nil {
			log.Printf("❌ Failed to clear payment reference for registration %d: %v", reg.ID, updateErr)
		}
		log.Printf("❌ Payment preference creation failed for %s: %v", reg.Email, err)
		return nil, ErrPaymentInitiationFailed
	}

	reg.PreferenceID = checkout.PreferenceID
	reg.PaymentStatus = models.PaymentPending
	if err := s.regRepo.Update(ctx, reg); err != nil {
		return nil, err
	}

	return checkout, nil
}

// ProcessPaymentNotification handles an inbound webhook: re-fetch the
// payment from the gateway by id, then apply its status. Callers have
// already acknowledged the webhook; errors here are logged by them only.
func (s *RegistrationService) ProcessPaymentNotification(ctx context.Context, paymentID int) error {
	details, err := s.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		return err
	}
	return s.ApplyPaymentStatus(ctx, details)
}

// ApplyPaymentStatus advances a registration's payment facet from gateway
// truth. Terminal states absorb: once approved or rejected, later
// notifications are no-ops.
func (s *RegistrationService) ApplyPaymentStatus(ctx context.Context, details *PaymentDetails) error {
	if details == nil || details.ExternalReference == "" {
		log.Println("⚠️ Payment notification without external reference, ignoring")
		return nil
	}
	if !IsRegistrationReference(details.ExternalReference) {
		log.Printf("⚠️ Payment %d carries a foreign reference %q, ignoring", details.ID, details.ExternalReference)
		return nil
	}

	switch {
	case details.Status == GatewayStatusApproved:
		return s.finalizeApprovedPayment(ctx, details.ExternalReference)
	case IsPaymentInFlight(details.Status):
		// Leave the reference intact for a later delivery.
		return nil
	default:
		return s.markPaymentRejected(ctx, details.ExternalReference, details.Status)
	}
}

// finalizeApprovedPayment runs the payment-approved transaction: consume
// the reference, create the member account, and burn the coupon use. An
// unknown or already-consumed reference is a logged no-op, which also makes
// duplicate webhook deliveries idempotent.
func (s *RegistrationService) finalizeApprovedPayment(ctx context.Context, ref string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reg models.Registration
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("external_reference = ?", ref).
			First(&reg).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("⚠️ No registration for payment reference %s, ignoring", ref)
				return nil
			}
			return err
		}

		if reg.PaymentStatus != models.PaymentPending {
			// Reference already consumed (duplicate delivery or sweep race).
			return nil
		}

		reg.PaymentStatus = models.PaymentApproved
		if err := tx.Save(&reg).Error; err != nil {
			return err
		}

		if _, err := createMemberFromRegistration(tx, &reg); err != nil {
			return err
		}

		// Coupon uses are charged only for confirmed payments, inside
		// this transaction.
		if reg.CouponID != nil {
			err := tx.Model(&models.DiscountCoupon{}).
				Where("id = ?", *reg.CouponID).
				UpdateColumn("current_uses", gorm.Expr("current_uses + ?", 1)).Error
			if err != nil {
				return err
			}
		}

		log.Printf("✅ Payment confirmed for registration %d (%s)", reg.ID, reg.Email)
		return tx.Create(PaymentConfirmedEmail(reg.Email, reg.Name, reg.FinalPrice)).Error
	})
}

// markPaymentRejected consumes the reference on a terminal gateway failure.
// The lifecycle status closes along with the payment facet: a rejected
// checkout must not keep holding the e-mail hostage, the applicant can
// simply submit again.
func (s *RegistrationService) markPaymentRejected(ctx context.Context, ref, gatewayStatus string) error {
	result := s.db.WithContext(ctx).Model(&models.Registration{}).
		Where("external_reference = ? AND payment_status = ?", ref, models.PaymentPending).
		Updates(map[string]interface{}{
			"payment_status": models.PaymentRejected,
			"status":         models.RegistrationRejected,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		log.Printf("ℹ️ Payment %s for reference %s, registration abandoned", gatewayStatus, ref)
	}
	return nil
}

// createMemberFromRegistration inserts the durable member account. The
// unique index on users.email is the arbiter between racing finalization
// paths: a duplicate-key outcome means another path won, so the existing
// row is returned instead of an error.
func createMemberFromRegistration(tx *gorm.DB, reg *models.Registration) (*models.User, error) {
	user := &models.User{
		Name:        reg.Name,
		Email:       reg.Email,
		Password:    reg.Password,
		LinkedInURL: reg.LinkedInURL,
	}

	if err := tx.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			existing := &models.User{}
			if err := tx.Where("email = ?", reg.Email).First(existing).Error; err != nil {
				return nil, err
			}
			return existing, nil
		}
		return nil, err
	}

	return user, nil
}

// Approve finalizes a pending registration by admin decision. All four
// mutations (status, audit row, member account, document re-pointing) are
// one transaction; partial application is never observable.
func (s *RegistrationService) Approve(ctx context.Context, registrationID, adminID uint) (*models.Registration, error) {
	var approved *models.Registration

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reg models.Registration
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", registrationID).
			First(&reg).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRegistrationNotFound
			}
			return err
		}

		if !reg.IsPending() {
			return ErrRegistrationNotPending
		}

		var plan models.Plan
		if err := tx.Where("id = ?", reg.PlanID).First(&plan).Error; err != nil {
			return ErrPlanNotFound
		}
		if plan.RequiresPayment() && reg.PaymentStatus != models.PaymentApproved {
			return ErrPaymentNotConfirmed
		}

		reg.Status = models.RegistrationApproved
		if err := tx.Save(&reg).Error; err != nil {
			return err
		}

		approval := &models.Approval{
			RegistrationID: reg.ID,
			AdminID:        adminID,
			Decision:       models.DecisionApproved,
		}
		if err := tx.Create(approval).Error; err != nil {
			return err
		}

		user, err := createMemberFromRegistration(tx, &reg)
		if err != nil {
			return err
		}

		// Hand the uploaded documents to the new member, exactly once.
		err = tx.Model(&models.Document{}).
			Where("registration_id = ?", reg.ID).
			Updates(map[string]interface{}{
				"user_id":         user.ID,
				"registration_id": nil,
			}).Error
		if err != nil {
			return err
		}

		if err := tx.Create(ApprovalEmail(reg.Email, reg.Name)).Error; err != nil {
			return err
		}

		approved = &reg
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Registration %d approved by admin %d", approved.ID, adminID)
	return approved, nil
}

// Reject marks a pending registration rejected with a mandatory
// justification and records the audit row in the same transaction.
func (s *RegistrationService) Reject(ctx context.Context, registrationID, adminID uint, justification string) (*models.Registration, error) {
	if strings.TrimSpace(justification) == "" {
		return nil, ErrJustificationRequired
	}

	var rejected *models.Registration

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reg models.Registration
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", registrationID).
			First(&reg).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRegistrationNotFound
			}
			return err
		}

		if !reg.IsPending() {
			return ErrRegistrationNotPending
		}

		reg.Status = models.RegistrationRejected
		if err := tx.Save(&reg).Error; err != nil {
			return err
		}

		approval := &models.Approval{
			RegistrationID: reg.ID,
			AdminID:        adminID,
			Decision:       models.DecisionRejected,
			Justification:  justification,
		}
		if err := tx.Create(approval).Error; err != nil {
			return err
		}

		if err := tx.Create(RejectionEmail(reg.Email, reg.Name, justification)).Error; err != nil {
			return err
		}

		rejected = &reg
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("ℹ️ Registration %d rejected by admin %d", rejected.ID, adminID)
	return rejected, nil
}

// ListPending lists registrations awaiting review, newest first
func (s *RegistrationService) ListPending(ctx context.Context, offset, limit int) ([]*models.Registration, int64, error) {
	return s.regRepo.ListPending(ctx, offset, limit)
}

// RegistrationDetails bundles a registration with its uploaded documents
// and decision history
type RegistrationDetails struct {
	Registration *models.RegistrationResponse `json:"registration"`
	Documents    []*models.Document           `json:"documents"`
	Decisions    []*models.Approval           `json:"decisions"`
}

// GetDetails returns a registration with its documents for admin review
func (s *RegistrationService) GetDetails(ctx context.Context, registrationID uint) (*RegistrationDetails, error) {
	reg, err := s.regRepo.GetByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}

	docs, err := s.docRepo.ListByRegistration(ctx, reg.ID)
	if err != nil {
		return nil, err
	}

	decisions, err := s.approvalRepo.ListByRegistration(ctx, reg.ID)
	if err != nil {
		return nil, err
	}

	return &RegistrationDetails{
		Registration: reg.ToResponse(),
		Documents:    docs,
		Decisions:    decisions,
	}, nil
}

// GetDocument fetches a document's metadata and raw content, verifying it
// belongs to the registration
func (s *RegistrationService) GetDocument(ctx context.Context, registrationID, documentID uint) (*models.Document, []byte, error) {
	doc, err := s.docRepo.GetByRegistration(ctx, registrationID, documentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrDocumentNotFound
		}
		return nil, nil, err
	}

	content, err := s.storage.ReadDocument(doc)
	if err != nil {
		return nil, nil, err
	}

	return doc, content, nil
}

// Reconcile re-queries the gateway for registrations whose checkout has
// been pending past the configured timeout. Webhook processing happens
// after the gateway already got its 200, so this sweep is the only
// recovery path for confirmations lost to a crash or delivery failure.
func (s *RegistrationService) Reconcile(ctx context.Context) error {
	timeout := time.Duration(s.cfg.Reconcile.PendingTimeout) * time.Minute
	stale, err := s.regRepo.ListStalePayments(ctx, time.Now().Add(-timeout))
	if err != nil {
		return err
	}

	abandonAfter := time.Duration(s.cfg.Reconcile.AbandonAfter) * time.Hour

	for _, reg := range stale {
		ref := *reg.ExternalReference

		details, err := s.gateway.SearchByReference(ctx, ref)
		if err != nil {
			log.Printf("❌ Reconcile: gateway lookup failed for %s: %v", ref, err)
			continue
		}

		if details != nil {
			if err := s.ApplyPaymentStatus(ctx, details); err != nil {
				log.Printf("❌ Reconcile: failed to apply status for %s: %v", ref, err)
			}
			continue
		}

		// No payment ever reached the gateway for this checkout. Past the
		// abandonment window, close it out.
		if time.Since(reg.CreatedAt) > abandonAfter {
			if err := s.markPaymentRejected(ctx, ref, "abandoned"); err != nil {
				log.Printf("❌ Reconcile: failed to abandon %s: %v", ref, err)
			}
		}
	}

	return nil
}
