package product

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"branchpos/internal/core/apperror"
	"branchpos/internal/core/id"
	"branchpos/internal/core/security"
	"branchpos/internal/core/tx"
	"branchpos/internal/domain"
)

// Authorizer resolves the actor's decision and rejects denied access.
type Authorizer interface {
	Check(ctx context.Context, resource string, action security.Action) (security.Decision, error)
}

// ListRequest is a list query as sent by the client. BranchID and OwnerID are
// hints: the actor's scope overrides them.
type ListRequest struct {
	domain.ListFilter
	BranchID string
	OwnerID  string
}

// UpdateInput holds the mutable fields of a product.
type UpdateInput struct {
	SKU      *string
	Name     *string
	Price    *decimal.Decimal
	IsActive *bool
	Version  int
}

// Service authorizes, scopes and persists products. Authorization happens
// before any repository call.
type Service struct {
	repo  Repository
	guard Authorizer
	txm   tx.ReadOnlyManager
	hooks *domain.HookRegistry[*Product]
}

// NewService creates a new product service.
func NewService(repo Repository, guard Authorizer, txm tx.ReadOnlyManager) *Service {
	s := &Service{
		repo:  repo,
		guard: guard,
		txm:   txm,
		hooks: domain.NewHookRegistry[*Product](),
	}
	s.hooks.On(domain.BeforeCreate, prepare)
	s.hooks.On(domain.BeforeUpdate, prepare)
	return s
}

// Hooks returns the hook registry for external registration.
func (s *Service) Hooks() *domain.HookRegistry[*Product] {
	return s.hooks
}

func prepare(ctx context.Context, p *Product) error {
	p.Normalize()
	return p.Validate(ctx)
}

// List returns the products visible to the actor.
func (s *Service) List(ctx context.Context, req ListRequest) (domain.ListResult[*Product], error) {
	d, err := s.guard.Check(ctx, Resource, security.ActionView)
	if err != nil {
		return domain.ListResult[*Product]{}, err
	}

	scope, err := security.ReadFilter(ctx, d, security.Filter{BranchID: req.BranchID, OwnerID: req.OwnerID})
	if err != nil {
		return domain.ListResult[*Product]{}, err
	}

	// Count and page come from one snapshot.
	var out domain.ListResult[*Product]
	err = s.txm.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.repo.List(ctx, scope, req.ListFilter.Normalize())
		return err
	})
	return out, err
}

// Get returns one product visible to the actor.
func (s *Service) Get(ctx context.Context, productID id.ID) (*Product, error) {
	d, err := s.guard.Check(ctx, Resource, security.ActionView)
	if err != nil {
		return nil, err
	}

	scope, err := security.ReadFilter(ctx, d, security.Filter{})
	if err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, productID, scope)
}

// Create inserts p into the actor's active branch, owned by the actor. Branch and
// owner in p are overwritten.
func (s *Service) Create(ctx context.Context, p *Product) error {
	d, err := s.guard.Check(ctx, Resource, security.ActionCreate)
	if err != nil {
		return err
	}

	stamp, err := security.WriteStamp(ctx, d)
	if err != nil {
		return err
	}
	branchID, ownerID, err := parseStamp(stamp)
	if err != nil {
		return err
	}
	p.Assign(branchID, ownerID)

	if err := s.hooks.Run(ctx, domain.BeforeCreate, p); err != nil {
		return err
	}

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, p); err != nil {
			return err
		}
		return s.hooks.Run(ctx, domain.AfterCreate, p)
	})
}

// Update changes a product in the actor's active branch. Branch and owner never
// change.
func (s *Service) Update(ctx context.Context, productID id.ID, in UpdateInput) (*Product, error) {
	d, err := s.guard.Check(ctx, Resource, security.ActionUpdate)
	if err != nil {
		return nil, err
	}

	scope, err := writeScope(ctx, d)
	if err != nil {
		return nil, err
	}

	var out *Product
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetByID(ctx, productID, scope)
		if err != nil {
			return err
		}
		if in.Version != 0 && in.Version != p.Version {
			return apperror.NewConcurrentModification("product", productID.String())
		}

		in.apply(p)
		if err := s.hooks.Run(ctx, domain.BeforeUpdate, p); err != nil {
			return err
		}
		p.Touch()

		if err := s.repo.Update(ctx, p, scope); err != nil {
			return err
		}
		out = p
		return s.hooks.Run(ctx, domain.AfterUpdate, p)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a product in the actor's active branch.
func (s *Service) Delete(ctx context.Context, productID id.ID) error {
	d, err := s.guard.Check(ctx, Resource, security.ActionDelete)
	if err != nil {
		return err
	}

	scope, err := writeScope(ctx, d)
	if err != nil {
		return err
	}

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, productID, scope)
	})
}

// writeScope confines updates and deletes to the active branch, and to the
// actor's own rows for scope own.
func writeScope(ctx context.Context, d security.Decision) (security.Filter, error) {
	stamp, err := security.WriteStamp(ctx, d)
	if err != nil {
		return security.Filter{}, err
	}

	f := security.Filter{BranchID: stamp.BranchID}
	if d.Normalize().Scope == security.ScopeOwn {
		f.OwnerID = stamp.OwnerID
	}
	return f, nil
}

func parseStamp(st security.Stamp) (id.ID, id.ID, error) {
	branchID, err := id.Parse(st.BranchID)
	if err != nil {
		return id.Nil(), id.Nil(), apperror.NewInternal(fmt.Errorf("branch id %q in scope: %w", st.BranchID, err))
	}
	ownerID, err := id.Parse(st.OwnerID)
	if err != nil {
		return id.Nil(), id.Nil(), apperror.NewInternal(fmt.Errorf("user id %q in scope: %w", st.OwnerID, err))
	}
	return branchID, ownerID, nil
}

func (in UpdateInput) apply(p *Product) {
	if in.SKU != nil {
		p.SKU = *in.SKU
	}
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
}
