package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/anetioficial/comunidade/internal/adapters/persistence/models"
	"github.com/anetioficial/comunidade/internal/config"
	"github.com/anetioficial/comunidade/internal/core/services"
	"github.com/anetioficial/comunidade/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubUserRepo struct{}

func (r *stubUserRepo) Create(ctx context.Context, user *models.User) error { return nil }
func (r *stubUserRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *stubUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *stubUserRepo) Update(ctx context.Context, user *models.User) error { return nil }
func (r *stubUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return false, nil
}

type stubRegRepo struct{}

func (r *stubRegRepo) Create(ctx context.Context, reg *models.Registration) error {
	reg.ID = 1
	return nil
}
func (r *stubRegRepo) GetByID(ctx context.Context, id uint) (*models.Registration, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *stubRegRepo) GetByExternalReference(ctx context.Context, ref string) (*models.Registration, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *stubRegRepo) Update(ctx context.Context, reg *models.Registration) error { return nil }
func (r *stubRegRepo) ListPending(ctx context.Context, offset, limit int) ([]*models.Registration, int64, error) {
	return nil, 0, nil
}
func (r *stubRegRepo) ExistsPendingByEmail(ctx context.Context, email string) (bool, error) {
	return false, nil
}
func (r *stubRegRepo) ListStalePayments(ctx context.Context, olderThan time.Time) ([]*models.Registration, error) {
	return nil, nil
}

type stubOutboxRepo struct{}

func (r *stubOutboxRepo) Enqueue(ctx context.Context, email *models.EmailOutbox) error { return nil }
func (r *stubOutboxRepo) ListQueued(ctx context.Context, limit int) ([]*models.EmailOutbox, error) {
	return nil, nil
}
func (r *stubOutboxRepo) MarkSent(ctx context.Context, id uint, at time.Time) error { return nil }
func (r *stubOutboxRepo) MarkFailed(ctx context.Context, id uint, attempts int, lastError string, terminal bool) error {
	return nil
}

func newRegisterApp(t *testing.T) *fiber.App {
	t.Helper()

	planRepo := &stubPlanRepo{plans: map[uint]*models.Plan{
		2: {ID: 2, Name: "Pleno", Price: 99.90, Active: true},
	}}
	svc := services.NewRegistrationService(
		nil, &stubRegRepo{}, &stubUserRepo{}, planRepo,
		nil, nil, nil, &stubOutboxRepo{},
		&stubGateway{}, nil, &config.Config{},
	)

	app := fiber.New()
	handler := NewAuthHandler(nil, svc)
	app.Post("/api/auth/register", handler.Register)
	return app
}

func registerForm(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, value := range fields {
		require.NoError(t, writer.WriteField(name, value))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestRegister_PaidPlanReturnsCheckout(t *testing.T) {
	app := newRegisterApp(t)

	body, contentType := registerForm(t, map[string]string{
		"name":     "Maria Silva",
		"email":    "maria@example.com",
		"password": "senha-segura",
		"plan_id":  "2",
	})
	req := httptest.NewRequest("POST", "/api/auth/register", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req, 10000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var envelope response.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.True(t, envelope.Success)

	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "https://mp.test/checkout", data["checkout_url"])
	assert.Equal(t, "pref-77", data["preference_id"])

	// The client gets the correlation key tied to its checkout session.
	ref, _ := data["external_reference"].(string)
	assert.True(t, strings.HasPrefix(ref, "REGISTRATION_maria@example.com_"))
}

func TestRegister_InvalidPlanID(t *testing.T) {
	app := newRegisterApp(t)

	body, contentType := registerForm(t, map[string]string{
		"name":     "Maria Silva",
		"email":    "maria@example.com",
		"password": "senha-segura",
		"plan_id":  "abc",
	})
	req := httptest.NewRequest("POST", "/api/auth/register", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
