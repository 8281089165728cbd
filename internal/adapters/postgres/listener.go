package postgres

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/municipiolabs/gacetas/pkg/catalog"
)

// channelName is the NOTIFY channel the schema triggers publish on.
// The payload is the changed table name; subscribers re-read the whole
// collection rather than patching individual rows.
const channelName = "catalog_changes"

// retryDelay is how long the listener waits before reacquiring a
// connection after a failure.
const retryDelay = 5 * time.Second

// listener owns one dedicated connection in LISTEN mode and fans
// change notifications out to registered snapshot handlers.
type listener struct {
	adapter *Adapter
	logger  *zerolog.Logger

	mu               sync.Mutex
	nextID           int
	categoryHandlers map[int]func([]catalog.Category)
	fileHandlers     map[int]func([]catalog.File)
	cancel           context.CancelFunc
	done             chan struct{}
}

func newListener(adapter *Adapter, logger *zerolog.Logger) *listener {
	return &listener{
		adapter:          adapter,
		logger:           logger,
		categoryHandlers: make(map[int]func([]catalog.Category)),
		fileHandlers:     make(map[int]func([]catalog.File)),
	}
}

// SubscribeCategories registers a snapshot handler for category
// changes.
func (a *Adapter) SubscribeCategories(ctx context.Context, fn catalog.CategoriesSnapshotFunc) (catalog.Subscription, error) {
	return a.listener.subscribe(func(l *listener, id int) func() {
		l.categoryHandlers[id] = fn
		return func() { delete(l.categoryHandlers, id) }
	})
}

// SubscribeFiles registers a snapshot handler for file changes.
func (a *Adapter) SubscribeFiles(ctx context.Context, fn catalog.FilesSnapshotFunc) (catalog.Subscription, error) {
	return a.listener.subscribe(func(l *listener, id int) func() {
		l.fileHandlers[id] = fn
		return func() { delete(l.fileHandlers, id) }
	})
}

// subscribe registers a handler under the lock and starts the listen
// loop on first use.
func (l *listener) subscribe(register func(l *listener, id int) func()) (catalog.Subscription, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	remove := register(l, l.nextID)

	if l.cancel == nil {
		ctx, cancel := context.WithCancel(context.Background())
		l.cancel = cancel
		l.done = make(chan struct{})
		go l.run(ctx)
	}

	return &subscription{listener: l, remove: remove}, nil
}

// stop shuts the listen loop down and waits for it to exit.
func (l *listener) stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// run holds a pool connection in LISTEN mode, re-reading and fanning
// out the affected collection on every notification. Connection
// failures trigger reacquisition after a delay; the startup snapshot
// after each (re)connect covers notifications missed in between.
func (l *listener) run(ctx context.Context) {
	defer close(l.done)

	for {
		if err := l.listen(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			l.logger.Warn().Err(err).
				Dur("retry_in", retryDelay).
				Msg("Change listener disconnected")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(retryDelay):
		}
	}
}

func (l *listener) listen(ctx context.Context) error {
	conn, err := l.adapter.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+channelName); err != nil {
		return err
	}

	// Snapshot both collections up front so state changed while
	// disconnected is not lost.
	l.dispatch(ctx, "categories")
	l.dispatch(ctx, "files")

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		l.dispatch(ctx, notification.Payload)
	}
}

// dispatch re-reads the named collection and hands the snapshot to
// every registered handler.
func (l *listener) dispatch(ctx context.Context, table string) {
	switch table {
	case "categories":
		categories, err := l.adapter.ListCategories(ctx)
		if err != nil {
			l.logger.Warn().Err(err).Msg("Failed to re-read categories after change")
			return
		}
		for _, fn := range l.categoryHandlerList() {
			fn(categories)
		}
	case "files":
		files, err := l.adapter.ListFiles(ctx)
		if err != nil {
			l.logger.Warn().Err(err).Msg("Failed to re-read files after change")
			return
		}
		for _, fn := range l.fileHandlerList() {
			fn(files)
		}
	default:
		l.logger.Debug().Str("payload", table).Msg("Ignoring unknown change payload")
	}
}

func (l *listener) categoryHandlerList() []func([]catalog.Category) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]func([]catalog.Category), 0, len(l.categoryHandlers))
	for _, fn := range l.categoryHandlers {
		out = append(out, fn)
	}
	return out
}

func (l *listener) fileHandlerList() []func([]catalog.File) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]func([]catalog.File), 0, len(l.fileHandlers))
	for _, fn := range l.fileHandlers {
		out = append(out, fn)
	}
	return out
}

// subscription detaches one handler on Close.
type subscription struct {
	listener *listener
	remove   func()
	once     sync.Once
}

func (s *subscription) Close() error {
	s.once.Do(func() {
		s.listener.mu.Lock()
		s.remove()
		s.listener.mu.Unlock()
	})
	return nil
}

var _ catalog.Subscriber = (*Adapter)(nil)
