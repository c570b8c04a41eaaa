// Package tracing decorates repositories with X-Ray subsegments.
package tracing

import (
	"context"
	"strconv"

	"wmsadmin/application/ports"
	"wmsadmin/domain/core/aggregates"
	"wmsadmin/domain/core/entities"
	"wmsadmin/pkg/observability"
)

// CodesRepository traces every call to the wrapped repository
type CodesRepository struct {
	next   ports.CodesRepository
	tracer *observability.Tracer
}

// Wrap returns next unchanged when tracing is off.
func Wrap(next ports.CodesRepository, tracer *observability.Tracer) ports.CodesRepository {
	if !tracer.Enabled() {
		return next
	}
	return &CodesRepository{next: next, tracer: tracer}
}

func (r *CodesRepository) LoadTree(ctx context.Context) (*entities.CodesTree, error) {
	var tree *entities.CodesTree
	err := r.tracer.TraceFunction(ctx, "codes.LoadTree", func(ctx context.Context) error {
		var err error
		tree, err = r.next.LoadTree(ctx)
		return err
	})
	return tree, err
}

func (r *CodesRepository) Commit(ctx context.Context, cs *aggregates.ChangeSet) error {
	return r.tracer.TraceFunction(ctx, "codes.Commit", func(ctx context.Context) error {
		r.tracer.AddAnnotation(ctx, "changes", strconv.Itoa(cs.Size()))
		err := r.next.Commit(ctx, cs)
		if err != nil {
			r.tracer.RecordError(ctx, err)
		}
		return err
	})
}
