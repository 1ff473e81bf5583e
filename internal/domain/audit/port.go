package audit

import "context"

// Repository port for persisting analysis records
type Repository interface {
	Save(ctx context.Context, r *Record) error
}
