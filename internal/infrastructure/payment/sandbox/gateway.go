package sandbox

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	dompay "github.com/subham007-coder/Supar-Admin-Backend/internal/domain/payment"
)

// Gateway is an in-process stand-in for the card processor, used in
// development and tests. Intents live until the process exits.
type Gateway struct {
	mu      sync.Mutex
	intents map[string]*dompay.Intent
}

func New() *Gateway {
	return &Gateway{intents: make(map[string]*dompay.Intent)}
}

func (g *Gateway) Retrieve(ctx context.Context, id string) (*dompay.Intent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	intent, ok := g.intents[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", dompay.ErrIntentNotFound, id)
	}
	c := *intent
	return &c, nil
}

func (g *Gateway) UpdateAmount(ctx context.Context, id string, amount int64) (*dompay.Intent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	intent, ok := g.intents[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", dompay.ErrIntentNotFound, id)
	}
	if intent.Status != dompay.StatusRequiresPaymentMethod {
		return nil, fmt.Errorf("sandbox: intent %s is %s and can no longer be updated", id, intent.Status)
	}
	intent.Amount = amount
	c := *intent
	return &c, nil
}

func (g *Gateway) Create(ctx context.Context, p dompay.CreateParams) (*dompay.Intent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id := "pi_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	intent := &dompay.Intent{
		ID:           id,
		Amount:       p.Amount,
		Currency:     strings.ToUpper(p.Currency),
		Status:       dompay.StatusRequiresPaymentMethod,
		ClientSecret: id + "_secret_" + uuid.NewString()[:8],
		Description:  p.Description,
	}

	g.mu.Lock()
	g.intents[id] = intent
	g.mu.Unlock()

	c := *intent
	return &c, nil
}
