package cmd

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/oneconcern/ctxmon/pkg/core"
	"github.com/oneconcern/ctxmon/pkg/dlogger"
	"github.com/oneconcern/ctxmon/pkg/store"
	"github.com/oneconcern/ctxmon/pkg/store/bdgr"
	"github.com/oneconcern/ctxmon/pkg/store/instrumented"
	"github.com/oneconcern/ctxmon/pkg/store/postgres"
	"github.com/opentracing/opentracing-go"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func newStore(ctx context.Context, cfg *Config, l *zap.Logger, tr opentracing.Tracer) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Backend {
	case backendPostgres:
		st, err = postgres.New(ctx, cfg.Store.Postgres.URL,
			postgres.Schema(cfg.Store.Postgres.Schema),
			postgres.Logger(l),
		)
	default:
		st, err = bdgr.New(
			bdgr.BaseDir(cfg.Store.Badger.Dir),
			bdgr.InMemory(cfg.Store.Badger.InMemory),
			bdgr.Logger(l),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}

	if tr != nil {
		st = instrumented.New(tr, st)
	}
	return st, nil
}

// openRepository opens the configured store. The returned func closes it and may be called more than once.
func openRepository(ctx context.Context) (*core.Repository, func(), error) {
	l, err := dlogger.GetLogger(config.Log.Level)
	if err != nil {
		return nil, nil, err
	}

	var (
		tr           opentracing.Tracer
		tracerCloser io.Closer = io.NopCloser(nil)
	)
	if config.Trace {
		tr, tracerCloser, err = initTracer(l)
		if err != nil {
			l.Info("failed to initialize tracing, falling back to noop tracer", zap.Error(err))
			tr, tracerCloser = opentracing.NoopTracer{}, io.NopCloser(nil)
		}
	}

	st, err := newStore(ctx, config, l, tr)
	if err != nil {
		_ = tracerCloser.Close()
		return nil, nil, err
	}
	var once sync.Once
	closer := func() {
		once.Do(func() {
			if err := multierr.Append(st.Close(), tracerCloser.Close()); err != nil {
				l.Warn("closing store", zap.Stringer("store", st), zap.Error(err))
			}
			_ = l.Sync()
		})
	}

	repo, err := core.New(ctx, st, core.Logger(l))
	if err != nil {
		closer()
		return nil, nil, err
	}
	return repo, closer, nil
}
