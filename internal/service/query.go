// Package service binds request query strings for registered objects and
// plans the SQL that would serve them.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/atlekbai/querybind/internal/binding"
	"github.com/atlekbai/querybind/internal/expr"
	"github.com/atlekbai/querybind/internal/pg"
	"github.com/atlekbai/querybind/internal/query"
	"github.com/atlekbai/querybind/internal/schema"
)

// ErrObjectNotFound is returned for an object API name the catalog lacks.
var ErrObjectNotFound = errors.New("object not found")

// maxParallelPlans bounds PlanAll's concurrency.
const maxParallelPlans = 8

// Plan is everything derived from one query string.
type Plan struct {
	Object    string
	Query     string
	Request   *query.Request
	Predicate expr.Predicate
	ListSQL   string
	ListArgs  []any
	CountSQL  string
	CountArgs []any
}

type QueryService struct {
	cache    *schema.Cache
	builder  *binding.Builder
	bindings map[string]*binding.Bindings
	logger   *slog.Logger
}

// NewQueryService returns a service over cache. bindings maps object API
// names to their configuration; objects without one bind every path. A nil
// logger discards.
func NewQueryService(cache *schema.Cache, bindings map[string]*binding.Bindings, logger *slog.Logger) *QueryService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &QueryService{
		cache:    cache,
		builder:  binding.NewBuilder(cache, binding.WithLogger(logger)),
		bindings: bindings,
		logger:   logger,
	}
}

func (s *QueryService) object(name string) (*schema.ObjectDef, error) {
	obj := s.cache.Get(name)
	if obj == nil {
		return nil, fmt.Errorf("no object registered with api_name %q: %w", name, ErrObjectNotFound)
	}
	return obj, nil
}

// Predicate binds every parameter of rawQuery as a filter.
func (s *QueryService) Predicate(object, rawQuery string) (expr.Predicate, error) {
	obj, err := s.object(object)
	if err != nil {
		return nil, err
	}
	params, err := binding.ParseParams(rawQuery)
	if err != nil {
		return nil, err
	}
	return s.builder.Build(obj, params, s.bindings[object])
}

// Plan splits rawQuery into listing options and filters, binds the filters
// and renders the list and count statements concurrently.
func (s *QueryService) Plan(ctx context.Context, object, rawQuery string) (*Plan, error) {
	obj, err := s.object(object)
	if err != nil {
		return nil, err
	}
	params, err := binding.ParseParams(rawQuery)
	if err != nil {
		return nil, err
	}
	req, err := query.ParseRequest(obj, params)
	if err != nil {
		return nil, err
	}
	where, err := s.builder.Build(obj, req.Filters, s.bindings[object])
	if err != nil {
		return nil, err
	}

	plan := &Plan{Object: object, Query: rawQuery, Request: req, Predicate: where}
	qb := query.NewBuilder(s.cache, obj, s.translatorOptions(object)...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		var err error
		plan.ListSQL, plan.ListArgs, err = qb.BuildList(req, where)
		return err
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		var err error
		plan.CountSQL, plan.CountArgs, err = qb.BuildCount(where)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	s.logger.Debug("planned query", "object", object, "predicate", where.String())
	return plan, nil
}

// translatorOptions maps nodes bound in place of a property back to the
// property's column.
func (s *QueryService) translatorOptions(object string) []pg.Option {
	b := s.bindings[object]
	if b == nil {
		return nil
	}
	var opts []pg.Option
	for node, path := range b.NodePaths() {
		opts = append(opts, pg.WithNodePath(node, path))
	}
	return opts
}

// PlanAll plans every query against one object, sharing the builder's node
// cache. Results keep the order of queries; the first failure cancels the rest.
func (s *QueryService) PlanAll(ctx context.Context, object string, queries []string) ([]*Plan, error) {
	plans := make([]*Plan, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelPlans)
	for i, q := range queries {
		g.Go(func() error {
			p, err := s.Plan(gctx, object, q)
			if err != nil {
				return fmt.Errorf("query %d %q: %w", i+1, q, err)
			}
			plans[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return plans, nil
}
