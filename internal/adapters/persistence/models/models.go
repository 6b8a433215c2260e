package models

import (
	"time"

	"gorm.io/gorm"
)

// Registration lifecycle status
const (
	RegistrationPending  = "pending"
	RegistrationApproved = "approved"
	RegistrationRejected = "rejected"
)

// Payment status of a registration
const (
	PaymentNone     = "none"
	PaymentPending  = "pending"
	PaymentApproved = "approved"
	PaymentRejected = "rejected"
)

// Document types accepted during registration
const (
	DocumentTypeID         = "id_document"
	DocumentTypeExperience = "experience_document"
)

// Approval decisions
const (
	DecisionApproved = "approved"
	DecisionRejected = "rejected"
)

// User represents users table. The unique index on email is the arbiter
// between the webhook and admin-approval finalization paths.
type User struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"size:100;not null" json:"name"`
	Email       string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password    string         `gorm:"size:255;not null" json:"-"`
	IsAdmin     bool           `gorm:"default:false" json:"is_admin"`
	LinkedInURL string         `gorm:"size:255" json:"linkedin_url,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	IsAdmin     bool      `json:"is_admin"`
	LinkedInURL string    `json:"linkedin_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		IsAdmin:     u.IsAdmin,
		LinkedInURL: u.LinkedInURL,
		CreatedAt:   u.CreatedAt,
	}
}

// Registration represents registrations table. The row itself is the durable
// pending-payment record: ExternalReference is written before the gateway
// call, so a webhook can be matched across process restarts.
type Registration struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Name              string    `gorm:"size:100;not null" json:"name"`
	Email             string    `gorm:"index;size:100;not null" json:"email"`
	Password          string    `gorm:"size:255;not null" json:"-"`
	PlanID            uint      `gorm:"index;not null" json:"plan_id"`
	LinkedInURL       string    `gorm:"size:255" json:"linkedin_url,omitempty"`
	CouponID          *uint     `gorm:"index" json:"coupon_id,omitempty"`
	ExternalReference *string   `gorm:"uniqueIndex;size:191" json:"external_reference,omitempty"`
	PreferenceID      string    `gorm:"size:100" json:"preference_id,omitempty"`
	FinalPrice        float64   `gorm:"type:decimal(10,2)" json:"final_price"`
	PaymentStatus     string    `gorm:"size:20;default:'none';index" json:"payment_status"`
	Status            string    `gorm:"size:20;default:'pending';index" json:"status"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Plan   *Plan           `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	Coupon *DiscountCoupon `gorm:"foreignKey:CouponID" json:"-"`
}

func (Registration) TableName() string {
	return "registrations"
}

// IsPending reports whether the registration still awaits an admin decision.
func (r *Registration) IsPending() bool {
	return r.Status == RegistrationPending
}

// PaymentSettled reports whether the payment facet reached a terminal state.
func (r *Registration) PaymentSettled() bool {
	return r.PaymentStatus == PaymentApproved || r.PaymentStatus == PaymentRejected
}

// RegistrationResponse DTO for the admin review surface
type RegistrationResponse struct {
	ID            uint      `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	PlanID        uint      `json:"plan_id"`
	PlanName      string    `json:"plan_name,omitempty"`
	PlanPrice     float64   `json:"plan_price,omitempty"`
	LinkedInURL   string    `json:"linkedin_url,omitempty"`
	PaymentStatus string    `json:"payment_status"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (r *Registration) ToResponse() *RegistrationResponse {
	resp := &RegistrationResponse{
		ID:            r.ID,
		Name:          r.Name,
		Email:         r.Email,
		PlanID:        r.PlanID,
		LinkedInURL:   r.LinkedInURL,
		PaymentStatus: r.PaymentStatus,
		Status:        r.Status,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.Plan != nil {
		resp.PlanName = r.Plan.Name
		resp.PlanPrice = r.Plan.Price
	}
	return resp
}

// Plan represents plans table (membership tiers)
type Plan struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Price       float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	IsPublic    bool      `gorm:"default:false" json:"is_public"`
	Description string    `gorm:"type:text" json:"description"`
	Active      bool      `gorm:"default:true;index" json:"active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Plan) TableName() string {
	return "plans"
}

// RequiresPayment reports whether selecting this plan starts a checkout.
func (p *Plan) RequiresPayment() bool {
	return !p.IsPublic
}

// Document represents documents table. Exactly one of UserID/RegistrationID
// is set; ownership moves registration -> user once, at approval time.
type Document struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         *uint     `gorm:"index" json:"user_id,omitempty"`
	RegistrationID *uint     `gorm:"index" json:"registration_id,omitempty"`
	DocumentType   string    `gorm:"size:50;not null" json:"document_type"`
	FileName       string    `gorm:"size:255;not null" json:"file_name"`
	FilePath       string    `gorm:"size:255;not null" json:"-"`
	MimeType       string    `gorm:"size:100;not null" json:"mime_type"`
	FileSize       int64     `gorm:"not null" json:"file_size"`
	UploadedAt     time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
}

func (Document) TableName() string {
	return "documents"
}

// Approval represents approvals table (append-only admin audit trail)
type Approval struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	RegistrationID uint      `gorm:"index;not null" json:"registration_id"`
	AdminID        uint      `gorm:"index;not null" json:"admin_id"`
	Decision       string    `gorm:"size:20;not null" json:"decision"`
	Justification  string    `gorm:"type:text" json:"justification,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Approval) TableName() string {
	return "approvals"
}

// DiscountCoupon represents discount_coupons table
type DiscountCoupon struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	Code               string     `gorm:"uniqueIndex;size:50;not null" json:"code"`
	DiscountPercentage float64    `gorm:"type:decimal(5,2);not null" json:"discount_percentage"`
	Active             bool       `gorm:"default:true" json:"active"`
	ValidUntil         *time.Time `json:"valid_until,omitempty"`
	MaxUses            *int       `json:"max_uses,omitempty"`
	CurrentUses        int        `gorm:"default:0" json:"current_uses"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (DiscountCoupon) TableName() string {
	return "discount_coupons"
}

// IsExpired reports whether the coupon's validity window has passed.
func (c *DiscountCoupon) IsExpired(now time.Time) bool {
	return c.ValidUntil != nil && now.After(*c.ValidUntil)
}

// IsExhausted reports whether the usage cap has been reached.
func (c *DiscountCoupon) IsExhausted() bool {
	return c.MaxUses != nil && c.CurrentUses >= *c.MaxUses
}

// Usable reports whether the coupon can still be applied.
func (c *DiscountCoupon) Usable(now time.Time) bool {
	return c.Active && !c.IsExpired(now) && !c.IsExhausted()
}

// Post represents posts table (member feed)
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Post) TableName() string {
	return "posts"
}

// PostResponse DTO with the author's display name
type PostResponse struct {
	ID        uint      `json:"id"`
	Content   string    `json:"content"`
	UserID    uint      `json:"user_id"`
	UserName  string    `json:"user_name"`
	CreatedAt time.Time `json:"created_at"`
}

func (p *Post) ToResponse() *PostResponse {
	return &PostResponse{
		ID:        p.ID,
		Content:   p.Content,
		UserID:    p.UserID,
		UserName:  p.User.Name,
		CreatedAt: p.CreatedAt,
	}
}

// Outbox email status
const (
	EmailQueued = "queued"
	EmailSent   = "sent"
	EmailFailed = "failed"
)

// EmailOutbox represents email_outbox table. Rows are written inside the
// same transaction as the state change they announce and delivered by the
// cron dispatcher, so notification failures never roll back the workflow.
type EmailOutbox struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Recipient string     `gorm:"size:100;not null" json:"recipient"`
	Subject   string     `gorm:"size:255;not null" json:"subject"`
	Body      string     `gorm:"type:text;not null" json:"-"`
	Status    string     `gorm:"size:20;default:'queued';index" json:"status"`
	Attempts  int        `gorm:"default:0" json:"attempts"`
	LastError string     `gorm:"size:255" json:"last_error,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
}

func (EmailOutbox) TableName() string {
	return "email_outbox"
}

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Plan{},
		&Registration{},
		&Document{},
		&Approval{},
		&DiscountCoupon{},
		&Post{},
		&EmailOutbox{},
	)
}
