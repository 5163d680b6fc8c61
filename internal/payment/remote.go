package payment

import (
	"context"
	"fmt"
	"net/http"

	"cedra_storefront/internal/models"
)

type Mutator interface {
	Mutate(ctx context.Context, method, endpoint string, body, out any) error
}

// RemoteProcessor délègue le paiement à l'API : POST /payments/{méthode}/process/.
type RemoteProcessor struct {
	api    Mutator
	method string
}

func NewRemote(api Mutator, method string) *RemoteProcessor {
	return &RemoteProcessor{api: api, method: method}
}

func (p *RemoteProcessor) Process(ctx context.Context, req models.PaymentRequest) (models.PaymentResult, error) {
	var result models.PaymentResult
	endpoint := fmt.Sprintf("/payments/%s/process/", p.method)
	if err := p.api.Mutate(ctx, http.MethodPost, endpoint, req, &result); err != nil {
		return models.PaymentResult{}, fmt.Errorf("paiement %s: %w", p.method, err)
	}
	return result, nil
}
