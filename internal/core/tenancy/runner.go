package tenancy

import "context"

// Runner executes fn inside a scope stamped with p.
// Domain services depend on this interface; the pgx implementation lives in
// infrastructure/storage/postgres.
type Runner interface {
	Run(ctx context.Context, p Params, fn func(ctx context.Context) error) error
}

// SystemParams is the admin-equivalent stamp used by startup and maintenance jobs
// that must write to RLS-protected tables.
func SystemParams() Params {
	return Params{Role: "Admin", IsAdmin: true}
}

// Within runs fn through r and returns its value. On error the zero value is returned.
func Within[T any](ctx context.Context, r Runner, p Params, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := r.Run(ctx, p, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
