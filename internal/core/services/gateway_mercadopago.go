package services

import (
	"context"
	"fmt"

	appconfig "github.com/anetioficial/comunidade/internal/config"

	mpconfig "github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"
)

// mercadoPagoGateway implements PaymentGateway over the Mercado Pago SDK
type mercadoPagoGateway struct {
	prefClient preference.Client
	payClient  payment.Client
	cfg        appconfig.PaymentConfig
}

// NewMercadoPagoGateway creates the production payment gateway adapter
func NewMercadoPagoGateway(cfg appconfig.PaymentConfig) (PaymentGateway, error) {
	mpCfg, err := mpconfig.New(cfg.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to configure payment gateway: %w", err)
	}

	return &mercadoPagoGateway{
		prefClient: preference.NewClient(mpCfg),
		payClient:  payment.NewClient(mpCfg),
		cfg:        cfg,
	}, nil
}

// CreatePreference opens a hosted checkout session
func (g *mercadoPagoGateway) CreatePreference(ctx context.Context, req *CheckoutRequest) (*Checkout, error) {
	request := preference.Request{
		Items: []preference.ItemRequest{
			{
				Title:      fmt.Sprintf("Plano %s - ANETI", req.PlanName),
				Quantity:   1,
				CurrencyID: "BRL",
				UnitPrice:  req.Amount,
			},
		},
		Payer: &preference.PayerRequest{
			Name:  req.PayerName,
			Email: req.PayerEmail,
		},
		BackURLs: &preference.BackURLsRequest{
			Success: g.cfg.FrontendURL + "/payment-success",
			Failure: g.cfg.FrontendURL + "/payment-failure",
			Pending: g.cfg.FrontendURL + "/payment-pending",
		},
		AutoReturn:        "approved",
		NotificationURL:   g.cfg.BackendURL + "/api/payments/webhook/mercadopago",
		ExternalReference: req.ExternalReference,
	}

	resp, err := g.prefClient.Create(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment preference: %w", err)
	}

	return &Checkout{
		PreferenceID:      resp.ID,
		InitPoint:         resp.InitPoint,
		ExternalReference: req.ExternalReference,
	}, nil
}

// GetPayment fetches full payment details by payment id
func (g *mercadoPagoGateway) GetPayment(ctx context.Context, paymentID int) (*PaymentDetails, error) {
	resp, err := g.payClient.Get(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payment %d: %w", paymentID, err)
	}

	return &PaymentDetails{
		ID:                resp.ID,
		Status:            resp.Status,
		ExternalReference: resp.ExternalReference,
		Amount:            resp.TransactionAmount,
	}, nil
}

// SearchByReference finds the payment tied to an external reference. An
// approved payment wins over any other result.
func (g *mercadoPagoGateway) SearchByReference(ctx context.Context, externalReference string) (*PaymentDetails, error) {
	request := payment.SearchRequest{
		Filters: map[string]string{
			"external_reference": externalReference,
		},
	}

	resp, err := g.payClient.Search(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("failed to search payments for %s: %w", externalReference, err)
	}
	if resp == nil || len(resp.Results) == 0 {
		return nil, nil
	}

	best := resp.Results[0]
	for _, result := range resp.Results {
		if result.Status == GatewayStatusApproved {
			best = result
			break
		}
	}

	return &PaymentDetails{
		ID:                best.ID,
		Status:            best.Status,
		ExternalReference: best.ExternalReference,
		Amount:            best.TransactionAmount,
	}, nil
}
