package api

import (
	"context"

	"github.com/ignite/minicrm/internal/ai"
	"github.com/ignite/minicrm/internal/domain"
	"github.com/ignite/minicrm/internal/ingest"
	"github.com/ignite/minicrm/internal/queue"
	"github.com/ignite/minicrm/internal/service/campaign"
	"github.com/ignite/minicrm/internal/service/segment"
)

// CustomerReader provides read access to persisted customers.
type CustomerReader interface {
	List(ctx context.Context) ([]domain.Customer, error)
	Count(ctx context.Context) (int, error)
	GetByEmail(ctx context.Context, email string) (*domain.Customer, error)
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
}

// OrderReader provides read access to persisted orders.
type OrderReader interface {
	List(ctx context.Context) ([]domain.Order, error)
	Count(ctx context.Context) (int, error)
	ListByEmail(ctx context.Context, email string) ([]domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handlers holds all HTTP handlers and their dependencies.
type Handlers struct {
	queue     *queue.Store
	processor *ingest.Processor
	customers CustomerReader
	orders    OrderReader
	segments  *segment.Service
	campaigns *campaign.Service
	ai        *ai.Client
	db        Pinger
}

// NewHandlers creates the handler set.
func NewHandlers(deps Deps) *Handlers {
	return &Handlers{
		queue:     deps.Queue,
		processor: deps.Processor,
		customers: deps.Customers,
		orders:    deps.Orders,
		segments:  deps.Segments,
		campaigns: deps.Campaigns,
		ai:        deps.AI,
		db:        deps.DB,
	}
}
