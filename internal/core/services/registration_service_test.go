package services

import (
	"context"
	"testing"
	"time"

	"github.com/anetioficial/comunidade/internal/adapters/persistence/models"
	"github.com/anetioficial/comunidade/internal/config"

	"github.com/DATA-DOG/go-sqlmock"
	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ============================================================
// Fakes
// ============================================================

type fakeUserRepo struct {
	users  map[string]*models.User
	exists bool
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error { return nil }
func (r *fakeUserRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := r.users[email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (r *fakeUserRepo) Update(ctx context.Context, user *models.User) error { return nil }
func (r *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists, nil
}

type fakeRegRepo struct {
	created       []*models.Registration
	updated       []models.Registration
	existsPending bool
	stale         []*models.Registration
}

func (r *fakeRegRepo) Create(ctx context.Context, reg *models.Registration) error {
	reg.ID = uint(len(r.created) + 1)
	r.created = append(r.created, reg)
	return nil
}
func (r *fakeRegRepo) GetByID(ctx context.Context, id uint) (*models.Registration, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *fakeRegRepo) GetByExternalReference(ctx context.Context, ref string) (*models.Registration, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *fakeRegRepo) Update(ctx context.Context, reg *models.Registration) error {
	r.updated = append(r.updated, *reg)
	return nil
}
func (r *fakeRegRepo) ListPending(ctx context.Context, offset, limit int) ([]*models.Registration, int64, error) {
	return nil, 0, nil
}
func (r *fakeRegRepo) ExistsPendingByEmail(ctx context.Context, email string) (bool, error) {
	return r.existsPending, nil
}
func (r *fakeRegRepo) ListStalePayments(ctx context.Context, olderThan time.Time) ([]*models.Registration, error) {
	return r.stale, nil
}

type fakePlanRepo struct {
	plan *models.Plan
}

func (r *fakePlanRepo) Create(ctx context.Context, plan *models.Plan) error { return nil }
func (r *fakePlanRepo) GetByID(ctx context.Context, id uint) (*models.Plan, error) {
	return r.GetActiveByID(ctx, id)
}
func (r *fakePlanRepo) GetActiveByID(ctx context.Context, id uint) (*models.Plan, error) {
	if r.plan != nil && r.plan.ID == id {
		return r.plan, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (r *fakePlanRepo) ListActive(ctx context.Context) ([]*models.Plan, error) { return nil, nil }
func (r *fakePlanRepo) ListAll(ctx context.Context) ([]*models.Plan, error)    { return nil, nil }
func (r *fakePlanRepo) Update(ctx context.Context, id uint, fields map[string]interface{}) (*models.Plan, error) {
	return r.plan, nil
}
func (r *fakePlanRepo) Deactivate(ctx context.Context, id uint) error { return nil }

type fakeDocRepo struct {
	docs []*models.Document
}

func (r *fakeDocRepo) Create(ctx context.Context, doc *models.Document) error {
	r.docs = append(r.docs, doc)
	return nil
}
func (r *fakeDocRepo) GetByID(ctx context.Context, id uint) (*models.Document, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *fakeDocRepo) GetByRegistration(ctx context.Context, registrationID, documentID uint) (*models.Document, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *fakeDocRepo) ListByRegistration(ctx context.Context, registrationID uint) ([]*models.Document, error) {
	return r.docs, nil
}
func (r *fakeDocRepo) ListByUser(ctx context.Context, userID uint) ([]*models.Document, error) {
	return nil, nil
}

type fakeCouponRepo struct {
	coupon *models.DiscountCoupon
}

func (r *fakeCouponRepo) GetByCode(ctx context.Context, code string) (*models.DiscountCoupon, error) {
	if r.coupon != nil && r.coupon.Code == code {
		return r.coupon, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (r *fakeCouponRepo) GetByID(ctx context.Context, id uint) (*models.DiscountCoupon, error) {
	return r.coupon, nil
}

type fakeApprovalRepo struct{}

func (r *fakeApprovalRepo) Create(ctx context.Context, approval *models.Approval) error { return nil }
func (r *fakeApprovalRepo) ListByRegistration(ctx context.Context, registrationID uint) ([]*models.Approval, error) {
	return nil, nil
}

type fakeOutboxRepo struct {
	enqueued []*models.EmailOutbox
}

func (r *fakeOutboxRepo) Enqueue(ctx context.Context, email *models.EmailOutbox) error {
	r.enqueued = append(r.enqueued, email)
	return nil
}
func (r *fakeOutboxRepo) ListQueued(ctx context.Context, limit int) ([]*models.EmailOutbox, error) {
	return nil, nil
}
func (r *fakeOutboxRepo) MarkSent(ctx context.Context, id uint, at time.Time) error { return nil }
func (r *fakeOutboxRepo) MarkFailed(ctx context.Context, id uint, attempts int, lastError string, terminal bool) error {
	return nil
}

type fakeGateway struct {
	createErr error
	checkout  *Checkout
	captured  []*CheckoutRequest
	payment   *PaymentDetails
	searched  *PaymentDetails
	searchErr error
}

func (g *fakeGateway) CreatePreference(ctx context.Context, req *CheckoutRequest) (*Checkout, error) {
	copied := *req
	g.captured = append(g.captured, &copied)
	if g.createErr != nil {
		return nil, g.createErr
	}
	if g.checkout != nil {
		return g.checkout, nil
	}
	return &Checkout{PreferenceID: "pref-1", InitPoint: "https://mp.test/checkout", ExternalReference: req.ExternalReference}, nil
}
func (g *fakeGateway) GetPayment(ctx context.Context, paymentID int) (*PaymentDetails, error) {
	return g.payment, nil
}
func (g *fakeGateway) SearchByReference(ctx context.Context, ref string) (*PaymentDetails, error) {
	return g.searched, g.searchErr
}

// ============================================================
// Test harness
// ============================================================

type serviceFixture struct {
	svc     *RegistrationService
	users   *fakeUserRepo
	regs    *fakeRegRepo
	plans   *fakePlanRepo
	coupons *fakeCouponRepo
	outbox  *fakeOutboxRepo
	gateway *fakeGateway
	mock    sqlmock.Sqlmock
}

func newFixture(t *testing.T, db *gorm.DB) *serviceFixture {
	t.Helper()

	f := &serviceFixture{
		users:   &fakeUserRepo{},
		regs:    &fakeRegRepo{},
		plans:   &fakePlanRepo{},
		coupons: &fakeCouponRepo{},
		outbox:  &fakeOutboxRepo{},
		gateway: &fakeGateway{},
	}

	docRepo := &fakeDocRepo{}
	storage, err := NewStorageService(config.StorageConfig{UploadDir: t.TempDir()}, docRepo)
	require.NoError(t, err)

	cfg := &config.Config{
		Reconcile: config.ReconcileConfig{
			PendingTimeout:  30,
			AbandonAfter:    72,
			MaxEmailRetries: 5,
		},
	}

	f.svc = NewRegistrationService(
		db,
		f.regs,
		f.users,
		f.plans,
		docRepo,
		f.coupons,
		&fakeApprovalRepo{},
		f.outbox,
		f.gateway,
		storage,
		cfg,
	)
	return f
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return db, mock
}

func validSubmitInput(planID uint) *SubmitInput {
	return &SubmitInput{
		Name:     "Maria Silva",
		Email:    "maria@example.com",
		Password: "senha-segura",
		PlanID:   planID,
	}
}

// ============================================================
// Submission
// ============================================================

func TestSubmit_Validation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	tests := []struct {
		name  string
		input *SubmitInput
	}{
		{"missing name", &SubmitInput{Email: "a@b.com", Password: "12345678", PlanID: 1}},
		{"bad email", &SubmitInput{Name: "A", Email: "not-an-email", Password: "12345678", PlanID: 1}},
		{"short password", &SubmitInput{Name: "A", Email: "a@b.com", Password: "1234567", PlanID: 1}},
		{"missing plan", &SubmitInput{Name: "A", Email: "a@b.com", Password: "12345678"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Submit(ctx, tt.input, nil)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
	assert.Empty(t, f.regs.created)
}

func TestSubmit_DuplicateEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("existing member", func(t *testing.T) {
		f := newFixture(t, nil)
		f.users.exists = true
		_, err := f.svc.Submit(ctx, validSubmitInput(1), nil)
		assert.ErrorIs(t, err, ErrDuplicateEmail)
	})

	t.Run("pending registration", func(t *testing.T) {
		f := newFixture(t, nil)
		f.regs.existsPending = true
		_, err := f.svc.Submit(ctx, validSubmitInput(1), nil)
		assert.ErrorIs(t, err, ErrDuplicateEmail)
	})
}

func TestSubmit_UnknownPlan(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.Submit(context.Background(), validSubmitInput(99), nil)
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestSubmit_FreePlan(t *testing.T) {
	f := newFixture(t, nil)
	f.plans.plan = &models.Plan{ID: 1, Name: "Público", Price: 0, IsPublic: true, Active: true}

	result, err := f.svc.Submit(context.Background(), validSubmitInput(1), nil)
	require.NoError(t, err)

	assert.Nil(t, result.Checkout)
	assert.Empty(t, f.gateway.captured, "public plans never open a checkout")
	require.Len(t, f.regs.created, 1)
	assert.Equal(t, models.PaymentNone, f.regs.created[0].PaymentStatus)
	assert.Equal(t, models.RegistrationPending, f.regs.created[0].Status)
	require.Len(t, f.outbox.enqueued, 1)
	assert.Equal(t, "maria@example.com", f.outbox.enqueued[0].Recipient)
}

func TestSubmit_PaidPlanOpensCheckout(t *testing.T) {
	f := newFixture(t, nil)
	f.plans.plan = &models.Plan{ID: 2, Name: "Pleno", Price: 99.90, Active: true}

	result, err := f.svc.Submit(context.Background(), validSubmitInput(2), nil)
	require.NoError(t, err)

	require.NotNil(t, result.Checkout)
	assert.Equal(t, "https://mp.test/checkout", result.Checkout.InitPoint)

	require.Len(t, f.gateway.captured, 1)
	req := f.gateway.captured[0]
	assert.Equal(t, 99.90, req.Amount)
	assert.True(t, IsRegistrationReference(req.ExternalReference))

	// The reference must be on the row before the gateway is called.
	require.NotEmpty(t, f.regs.updated)
	first := f.regs.updated[0]
	require.NotNil(t, first.ExternalReference)
	assert.Equal(t, req.ExternalReference, *first.ExternalReference)

	reg := result.Registration
	assert.Equal(t, models.PaymentPending, reg.PaymentStatus)
	assert.Equal(t, "pref-1", reg.PreferenceID)
}

func TestSubmit_CouponDiscount(t *testing.T) {
	f := newFixture(t, nil)
	f.plans.plan = &models.Plan{ID: 2, Name: "Pleno", Price: 99.90, Active: true}
	f.coupons.coupon = &models.DiscountCoupon{ID: 10, Code: "DESC10", DiscountPercentage: 10, Active: true}

	input := validSubmitInput(2)
	input.CouponCode = "DESC10"

	result, err := f.svc.Submit(context.Background(), input, nil)
	require.NoError(t, err)

	assert.InDelta(t, 89.91, result.Registration.FinalPrice, 0.001)
	require.Len(t, f.gateway.captured, 1)
	assert.InDelta(t, 89.91, f.gateway.captured[0].Amount, 0.001)
	require.NotNil(t, result.Registration.CouponID)
	assert.Equal(t, uint(10), *result.Registration.CouponID)
}

func TestSubmit_InvalidCoupon(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown code", func(t *testing.T) {
		f := newFixture(t, nil)
		f.plans.plan = &models.Plan{ID: 2, Name: "Pleno", Price: 99.90, Active: true}
		input := validSubmitInput(2)
		input.CouponCode = "NADA"
		_, err := f.svc.Submit(ctx, input, nil)
		assert.ErrorIs(t, err, ErrInvalidCoupon)
	})

	t.Run("exhausted", func(t *testing.T) {
		f := newFixture(t, nil)
		f.plans.plan = &models.Plan{ID: 2, Name: "Pleno", Price: 99.90, Active: true}
		max := 5
		f.coupons.coupon = &models.DiscountCoupon{ID: 10, Code: "DESC10", DiscountPercentage: 10, Active: true, MaxUses: &max, CurrentUses: 5}
		input := validSubmitInput(2)
		input.CouponCode = "DESC10"
		_, err := f.svc.Submit(ctx, input, nil)
		assert.ErrorIs(t, err, ErrInvalidCoupon)
	})
}

func TestSubmit_GatewayFailureClearsReference(t *testing.T) {
	f := newFixture(t, nil)
	f.plans.plan = &models.Plan{ID: 2, Name: "Pleno", Price: 99.90, Active: true}
	f.gateway.createErr = assert.AnError

	_, err := f.svc.Submit(context.Background(), validSubmitInput(2), nil)
	assert.ErrorIs(t, err, ErrPaymentInitiationFailed)

	// Last update must leave the row unmatched by any webhook and closed,
	// so the same e-mail can submit again.
	require.NotEmpty(t, f.regs.updated)
	last := f.regs.updated[len(f.regs.updated)-1]
	assert.Nil(t, last.ExternalReference)
	assert.Equal(t, models.PaymentNone, last.PaymentStatus)
	assert.Equal(t, models.RegistrationRejected, last.Status)
}

// ============================================================
// Payment status application
// ============================================================

func TestApplyPaymentStatus_Ignores(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	assert.NoError(t, f.svc.ApplyPaymentStatus(ctx, nil))
	assert.NoError(t, f.svc.ApplyPaymentStatus(ctx, &PaymentDetails{ID: 1, Status: GatewayStatusApproved}))
	assert.NoError(t, f.svc.ApplyPaymentStatus(ctx, &PaymentDetails{ID: 1, Status: GatewayStatusApproved, ExternalReference: "ORDER_123"}))

	// In-flight statuses leave the row pending for a later delivery.
	assert.NoError(t, f.svc.ApplyPaymentStatus(ctx, &PaymentDetails{ID: 1, Status: GatewayStatusInProcess, ExternalReference: "REGISTRATION_a@b.com_1"}))
}

func TestApplyPaymentStatus_UnknownReferenceIsNoOp(t *testing.T) {
	db, mock := newMockDB(t)
	f := newFixture(t, db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM `registrations` WHERE external_reference = (.+) FOR UPDATE").
		WithArgs("REGISTRATION_ghost@b.com_1", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	err := f.svc.ApplyPaymentStatus(context.Background(), &PaymentDetails{
		ID: 7, Status: GatewayStatusApproved, ExternalReference: "REGISTRATION_ghost@b.com_1",
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyPaymentStatus_DuplicateDeliveryIsNoOp(t *testing.T) {
	db, mock := newMockDB(t)
	f := newFixture(t, db)

	rows := sqlmock.NewRows([]string{"id", "name", "email", "payment_status", "status", "final_price"}).
		AddRow(5, "Maria", "maria@example.com", models.PaymentApproved, models.RegistrationPending, 99.90)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM `registrations` WHERE external_reference = (.+) FOR UPDATE").
		WillReturnRows(rows)
	mock.ExpectCommit()

	err := f.svc.ApplyPaymentStatus(context.Background(), &PaymentDetails{
		ID: 7, Status: GatewayStatusApproved, ExternalReference: "REGISTRATION_maria@example.com_1",
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyPaymentStatus_TerminalFailureConsumesPending(t *testing.T) {
	db, mock := newMockDB(t)
	f := newFixture(t, db)

	// Both facets must close: payment_status consumes the reference and
	// status releases the e-mail, otherwise the pending-email check would
	// block the applicant forever.
	mock.ExpectExec("UPDATE `registrations` SET `payment_status`=(.+)`status`=(.+) WHERE external_reference = (.+) AND payment_status = (.+)").
		WithArgs(models.PaymentRejected, models.RegistrationRejected, sqlmock.AnyArg(),
			"REGISTRATION_maria@example.com_1", models.PaymentPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := f.svc.ApplyPaymentStatus(context.Background(), &PaymentDetails{
		ID: 7, Status: "rejected", ExternalReference: "REGISTRATION_maria@example.com_1",
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func pendingPaymentRow(couponID interface{}) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "email", "password", "linkedin_url",
		"coupon_id", "payment_status", "status", "final_price",
	}).AddRow(5, "Maria", "maria@example.com", "$2a$10$hash", "",
		couponID, models.PaymentPending, models.RegistrationPending, 89.91)
}

func TestApplyPaymentStatus_ApprovedCreatesMemberAndBurnsCoupon(t *testing.T) {
	db, mock := newMockDB(t)
	f := newFixture(t, db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM `registrations` WHERE external_reference = (.+) FOR UPDATE").
		WithArgs("REGISTRATION_maria@example.com_1", 1).
		WillReturnRows(pendingPaymentRow(3))
	mock.ExpectExec("UPDATE `registrations` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `users`").
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec("UPDATE `discount_coupons` SET `current_uses`=current_uses \\+ (.+) WHERE id = (.+)").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `email_outbox`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := f.svc.ApplyPaymentStatus(context.Background(), &PaymentDetails{
		ID: 7, Status: GatewayStatusApproved, ExternalReference: "REGISTRATION_maria@example.com_1",
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyPaymentStatus_ApprovedAdoptsExistingMember(t *testing.T) {
	db, mock := newMockDB(t)
	f := newFixture(t, db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM `registrations` WHERE external_reference = (.+) FOR UPDATE").
		WillReturnRows(pendingPaymentRow(nil))
	mock.ExpectExec("UPDATE `registrations` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Another finalization path already created this member; the unique
	// index on users.email arbitrates and the existing row is adopted.
	mock.ExpectExec("INSERT INTO `users`").
		WillReturnError(&mysqldrv.MySQLError{Number: 1062, Message: "Duplicate entry 'maria@example.com'"})
	mock.ExpectQuery("SELECT (.+) FROM `users` WHERE email = (.+)").
		WithArgs("maria@example.com", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}).
			AddRow(42, "Maria", "maria@example.com"))
	mock.ExpectExec("INSERT INTO `email_outbox`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := f.svc.ApplyPaymentStatus(context.Background(), &PaymentDetails{
		ID: 7, Status: GatewayStatusApproved, ExternalReference: "REGISTRATION_maria@example.com_1",
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ============================================================
// Admin decisions
// ============================================================

func TestApprove_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	f := newFixture(t, db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM `registrations` WHERE id = (.+) FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := f.svc.Approve(context.Background(), 404, 1)
	assert.ErrorIs(t, err, ErrRegistrationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApprove_AlreadyDecided(t *testing.T) {
	db, mock := newMockDB(t)
	f := newFixture(t, db)

	rows := sqlmock.NewRows([]string{"id", "name", "email", "plan_id", "payment_status", "status"}).
		AddRow(5, "Maria", "maria@example.com", 2, models.PaymentApproved, models.RegistrationApproved)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM `registrations` WHERE id = (.+) FOR UPDATE").
		WillReturnRows(rows)
	mock.ExpectRollback()

	_, err := f.svc.Approve(context.Background(), 5, 1)
	assert.ErrorIs(t, err, ErrRegistrationNotPending)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApprove_RequiresSettledPayment(t *testing.T) {
	db, mock := newMockDB(t)
	f := newFixture(t, db)

	regRows := sqlmock.NewRows([]string{"id", "name", "email", "plan_id", "payment_status", "status"}).
		AddRow(5, "Maria", "maria@example.com", 2, models.PaymentPending, models.RegistrationPending)
	planRows := sqlmock.NewRows([]string{"id", "name", "price", "is_public"}).
		AddRow(2, "Pleno", 99.90, false)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM `registrations` WHERE id = (.+) FOR UPDATE").
		WillReturnRows(regRows)
	mock.ExpectQuery("SELECT (.+) FROM `plans`").
		WillReturnRows(planRows)
	mock.ExpectRollback()

	_, err := f.svc.Approve(context.Background(), 5, 1)
	assert.ErrorIs(t, err, ErrPaymentNotConfirmed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApprove_CreatesMemberAndRepointsDocuments(t *testing.T) {
	db, mock := newMockDB(t)
	f := newFixture(t, db)

	regRows := sqlmock.NewRows([]string{"id", "name", "email", "password", "plan_id", "payment_status", "status"}).
		AddRow(5, "Maria", "maria@example.com", "$2a$10$hash", 2, models.PaymentApproved, models.RegistrationPending)
	planRows := sqlmock.NewRows([]string{"id", "name", "price", "is_public"}).
		AddRow(2, "Pleno", 99.90, false)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM `registrations` WHERE id = (.+) FOR UPDATE").
		WillReturnRows(regRows)
	mock.ExpectQuery("SELECT (.+) FROM `plans`").
		WillReturnRows(planRows)
	mock.ExpectExec("UPDATE `registrations` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `approvals`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO `users`").
		WillReturnResult(sqlmock.NewResult(42, 1))
	// The uploaded documents change hands inside the same transaction.
	mock.ExpectExec("UPDATE `documents` SET `registration_id`=(.+)`user_id`=(.+) WHERE registration_id = (.+)").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO `email_outbox`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	reg, err := f.svc.Approve(context.Background(), 5, 9)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationApproved, reg.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReject_JustificationRequired(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Reject(context.Background(), 5, 1, "   ")
	assert.ErrorIs(t, err, ErrJustificationRequired)
}

func TestReject_Pending(t *testing.T) {
	db, mock := newMockDB(t)
	f := newFixture(t, db)

	rows := sqlmock.NewRows([]string{"id", "name", "email", "plan_id", "payment_status", "status"}).
		AddRow(5, "Maria", "maria@example.com", 2, models.PaymentNone, models.RegistrationPending)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM `registrations` WHERE id = (.+) FOR UPDATE").
		WillReturnRows(rows)
	mock.ExpectExec("UPDATE `registrations` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `approvals`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO `email_outbox`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	reg, err := f.svc.Reject(context.Background(), 5, 9, "Documentação incompleta")
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationRejected, reg.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ============================================================
// Reconciliation sweep
// ============================================================

func staleRegistration(ref string, createdAt time.Time) *models.Registration {
	return &models.Registration{
		ID:                5,
		Name:              "Maria",
		Email:             "maria@example.com",
		PaymentStatus:     models.PaymentPending,
		Status:            models.RegistrationPending,
		ExternalReference: &ref,
		CreatedAt:         createdAt,
	}
}

func TestReconcile_NoStaleRows(t *testing.T) {
	f := newFixture(t, nil)
	assert.NoError(t, f.svc.Reconcile(context.Background()))
}

func TestReconcile_PaymentStillInFlight(t *testing.T) {
	f := newFixture(t, nil)
	f.regs.stale = []*models.Registration{staleRegistration("REGISTRATION_maria@example.com_1", time.Now().Add(-time.Hour))}
	f.gateway.searched = &PaymentDetails{ID: 7, Status: GatewayStatusPending, ExternalReference: "REGISTRATION_maria@example.com_1"}

	assert.NoError(t, f.svc.Reconcile(context.Background()))
}

func TestReconcile_AbandonsOldUnmatchedCheckout(t *testing.T) {
	db, mock := newMockDB(t)
	f := newFixture(t, db)
	f.regs.stale = []*models.Registration{staleRegistration("REGISTRATION_maria@example.com_1", time.Now().Add(-100*time.Hour))}

	mock.ExpectExec("UPDATE `registrations` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, f.svc.Reconcile(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReconcile_RecentUnmatchedCheckoutLeftAlone(t *testing.T) {
	f := newFixture(t, nil)
	f.regs.stale = []*models.Registration{staleRegistration("REGISTRATION_maria@example.com_1", time.Now().Add(-time.Hour))}

	// Gateway has no payment yet; the abandonment window has not passed.
	assert.NoError(t, f.svc.Reconcile(context.Background()))
}
