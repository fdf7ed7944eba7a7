// Package tempdir runs caller logic against a freshly created temporary
// directory and removes that directory afterwards.
//
// Removal happens after a grace delay and, by default, in the background, so
// a Run call can return before the directory is gone from disk. The Manager
// tracks every scheduled removal; Close waits for them so that nothing is left
// behind when the process exits. Removal failures are logged and reported to
// an optional hook, never to the caller of Run.
package tempdir

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/pkgtool/pkgtool/internal/fsutil"
)

const (
	DefaultCleanupDelay = 500 * time.Millisecond
	DefaultPrefix       = "pkgtool-"
)

// ErrClosed is returned by Run once the Manager has been closed.
var ErrClosed = errors.New("temporary directory manager is closed")

// State is a step in the lifecycle of a single Run invocation.
type State int

const (
	StateCreating State = iota
	StateReady
	StateCleaningUp
	StateDone
)

func (s State) String() string {
	switch s {
	case StateCreating:
		return "creating"
	case StateReady:
		return "ready"
	case StateCleaningUp:
		return "cleaning_up"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// CleanupHook is called once per directory after its removal was attempted.
// err is nil when the directory was removed.
type CleanupHook func(dir string, err error)

// Manager hands out temporary directories and owns their removal.
type Manager struct {
	fs       afero.Fs
	logger   *zap.Logger
	dir      string
	prefix   string
	delay    time.Duration
	blocking bool
	hook     CleanupHook

	mu     sync.Mutex
	closed bool
	count  int
	// idle is closed when count drops back to zero; nil while count is zero.
	idle  chan struct{}
	flush chan struct{}
}

// Option configures a Manager.
type Option func(*Manager)

// WithFs sets the filesystem directories are created on. Defaults to the OS filesystem.
func WithFs(fs afero.Fs) Option {
	return func(m *Manager) {
		m.fs = fs
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithDir sets the parent directory temporary directories are created in.
// Empty means the OS default temporary directory.
func WithDir(dir string) Option {
	return func(m *Manager) {
		m.dir = dir
	}
}

func WithPrefix(prefix string) Option {
	return func(m *Manager) {
		m.prefix = prefix
	}
}

// WithCleanupDelay sets how long removal waits after the caller logic returns.
// Negative values are treated as zero.
func WithCleanupDelay(delay time.Duration) Option {
	return func(m *Manager) {
		m.delay = max(delay, 0)
	}
}

// WithBlockingCleanup makes Run wait for the delay and the removal before
// returning instead of scheduling them in the background.
func WithBlockingCleanup() Option {
	return func(m *Manager) {
		m.blocking = true
	}
}

func WithCleanupHook(hook CleanupHook) Option {
	return func(m *Manager) {
		m.hook = hook
	}
}

// New creates a Manager.
func New(opts ...Option) *Manager {
	m := &Manager{
		fs:     afero.NewOsFs(),
		logger: zap.NewNop(),
		prefix: DefaultPrefix,
		delay:  DefaultCleanupDelay,
		flush:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run creates a temporary directory, calls fn with it and schedules the
// directory for removal once fn returns, panics, or ctx is cancelled while fn
// runs. The error returned by fn is returned unchanged.
//
// Cancelling ctx does not cancel the removal.
func (m *Manager) Run(ctx context.Context, fn func(ctx context.Context, dir string) error) error {
	_, err := Do(ctx, m, func(ctx context.Context, dir string) (struct{}, error) {
		return struct{}{}, fn(ctx, dir)
	})
	return err
}

// Do is Run for logic that produces a value.
func Do[T any](ctx context.Context, m *Manager, fn func(ctx context.Context, dir string) (T, error)) (result T, err error) {
	dir, err := m.create(ctx)
	if err != nil {
		return result, err
	}

	defer m.release(dir)

	m.logger.Debug("temporary directory ready", zap.String("dir", dir), zap.Stringer("state", StateReady))
	return fn(ctx, dir)
}

// Pending returns the number of directories handed out or being created whose
// removal has not finished.
func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

// Wait blocks until every scheduled removal has finished or ctx is done.
func (m *Manager) Wait(ctx context.Context) error {
	m.mu.Lock()
	idle := m.idle
	m.mu.Unlock()

	if idle == nil {
		return nil
	}

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to wait for %d pending cleanups: %w", m.Pending(), ctx.Err())
	}
}

// Close rejects further Run calls, skips the remaining grace delays and waits
// for pending removals until ctx is done. Close is safe to call more than once.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	if !m.closed {
		m.closed = true
		close(m.flush)
	}
	m.mu.Unlock()

	return m.Wait(ctx)
}

func (m *Manager) create(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("failed to create temporary directory: %w", err)
	}
	if err := m.reserve(); err != nil {
		return "", err
	}

	m.logger.Debug("creating temporary directory", zap.String("parent", m.parentDir()), zap.Stringer("state", StateCreating))
	dir, err := afero.TempDir(m.fs, m.dir, m.prefix)
	if err != nil {
		m.done()
		return "", fmt.Errorf("failed to create temporary directory: %w", err)
	}
	return dir, nil
}

// reserve counts a directory as pending before it exists. The closed check
// shares the lock, so every reservation is either rejected or seen by Close.
func (m *Manager) reserve() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.count++
	if m.idle == nil {
		m.idle = make(chan struct{})
	}
	return nil
}

func (m *Manager) done() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.count--
	if m.count == 0 {
		close(m.idle)
		m.idle = nil
	}
}

// release never looks at the caller's context: a cancelled caller still gets
// its directory removed.
func (m *Manager) release(dir string) {
	if m.blocking {
		m.cleanup(dir)
		return
	}
	go m.cleanup(dir)
}

func (m *Manager) cleanup(dir string) {
	defer m.done()

	m.logger.Debug("scheduling temporary directory cleanup",
		zap.String("dir", dir),
		zap.Duration("delay", m.delay),
		zap.Stringer("state", StateCleaningUp),
	)

	if m.delay > 0 {
		timer := time.NewTimer(m.delay)
		select {
		case <-timer.C:
		case <-m.flush:
			timer.Stop()
		}
	}

	var err error
	// Caller logic may have removed the directory itself.
	if exists, _ := afero.DirExists(m.fs, dir); exists {
		err = fsutil.RemoveRecursive(m.fs, dir)
	}
	if err != nil {
		m.logger.Warn("failed to remove temporary directory", zap.String("dir", dir), zap.Error(err))
	} else {
		m.logger.Debug("temporary directory removed", zap.String("dir", dir), zap.Stringer("state", StateDone))
	}

	if m.hook != nil {
		m.hook(dir, err)
	}
}

func (m *Manager) parentDir() string {
	if m.dir == "" {
		return os.TempDir()
	}
	return m.dir
}
