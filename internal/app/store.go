package app

import (
	"context"
	"sync"

	"github.com/heartmarshall/eecc-crawler/internal/app/reconcile"
	"github.com/heartmarshall/eecc-crawler/internal/domain"
)

// lazyBackend opens the store on first use. A sync that fails before
// reconciliation therefore never creates, connects to or migrates the
// database.
type lazyBackend struct {
	open  func(ctx context.Context) (*backend, error)
	build func(b *backend) *reconcile.Reconciler

	mu         sync.Mutex
	b          *backend
	reconciler *reconcile.Reconciler
}

func (l *lazyBackend) get(ctx context.Context) (*backend, *reconcile.Reconciler, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.b == nil {
		b, err := l.open(ctx)
		if err != nil {
			return nil, nil, err
		}
		l.b = b
		l.reconciler = l.build(b)
	}
	return l.b, l.reconciler, nil
}

func (l *lazyBackend) Latest(ctx context.Context) (domain.SyncRun, error) {
	b, _, err := l.get(ctx)
	if err != nil {
		return domain.SyncRun{}, err
	}
	return b.syncRuns.Latest(ctx)
}

func (l *lazyBackend) Start(ctx context.Context, run domain.SyncRun) error {
	b, _, err := l.get(ctx)
	if err != nil {
		return err
	}
	return b.syncRuns.Start(ctx, run)
}

func (l *lazyBackend) Finish(ctx context.Context, run domain.SyncRun) error {
	b, _, err := l.get(ctx)
	if err != nil {
		return err
	}
	return b.syncRuns.Finish(ctx, run)
}

func (l *lazyBackend) Run(ctx context.Context, records []domain.Record) (reconcile.Result, error) {
	_, r, err := l.get(ctx)
	if err != nil {
		return reconcile.Result{Records: len(records)}, err
	}
	return r.Run(ctx, records)
}

// opened reports whether the store has been opened.
func (l *lazyBackend) opened() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b != nil
}

func (l *lazyBackend) close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.b != nil {
		l.b.close()
	}
}
