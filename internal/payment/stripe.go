package payment

import (
	"context"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// 決済プロバイダとの境界。最小単位の金額を送ってclient secretを受け取るだけ。
type StripeIntentCreator struct {
	api *client.API
}

func NewStripeIntentCreator(secretKey string) *StripeIntentCreator {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeIntentCreator{api: api}
}

func (s *StripeIntentCreator) CreateIntent(ctx context.Context, amountMinor int64, currency string, orderID string) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinor),
		Currency: stripe.String(currency),
		Metadata: map[string]string{"order_id": orderID},
	}
	params.Context = ctx

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return "", err
	}
	return pi.ClientSecret, nil
}
