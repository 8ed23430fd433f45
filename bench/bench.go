// Package bench runs links against each other over simulated wires.
//
// A Bench owns a set of named links and the wires between them. Step ticks
// every link once, feeding each one the wire output produced by the
// previous tick, so the outcome does not depend on the order links are
// ticked in. RunConcurrent gives each link its own goroutine and produces
// the same outcome as the same number of Steps.
package bench

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sync/errgroup"

	"github.com/arloliu/go-spw/ds"
	"github.com/arloliu/go-spw/internal/pool"
	"github.com/arloliu/go-spw/link"
	"github.com/arloliu/go-spw/logger"
)

var (
	ErrDuplicateLink    = errors.New("bench: duplicate link name")
	ErrUnknownLink      = errors.New("bench: unknown link")
	ErrAlreadyConnected = errors.New("bench: link already connected")
	// ErrTimeout is returned by RunUntilContext when the wall-clock limit passes.
	ErrTimeout = errors.New("bench: timeout")
)

// checkEvery is the number of ticks between two context checks.
const checkEvery = 1024

type node struct {
	link *link.Link
	in   *Wire // nil when unconnected
	out  *Wire
	last ds.BitPair
}

// Bench is a set of links and wires. Step, Run and RunConcurrent must not be
// called concurrently; the lookup and telemetry methods may be.
type Bench struct {
	mu     sync.Mutex
	order  []*node
	nodes  *xsync.MapOf[string, *node]
	wires  *xsync.MapOf[string, *Wire]
	ticks  atomic.Uint64
	logger logger.Logger
}

// Option configures a Bench.
type Option func(*Bench)

// WithLogger sets the logger of the bench.
func WithLogger(l logger.Logger) Option {
	return func(b *Bench) { b.logger = l }
}

// New creates an empty bench.
func New(opts ...Option) *Bench {
	b := &Bench{
		nodes:  xsync.NewMapOf[string, *node](),
		wires:  xsync.NewMapOf[string, *Wire](),
		logger: logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With("component", "bench")

	return b
}

// Add registers links by name.
func (b *Bench) Add(links ...*link.Link) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, l := range links {
		n := &node{link: l}
		if _, loaded := b.nodes.LoadOrStore(l.Name(), n); loaded {
			return fmt.Errorf("%w: %q", ErrDuplicateLink, l.Name())
		}
		b.order = append(b.order, n)
	}

	return nil
}

// Connect wires the links named a and b to each other and returns the wire
// from a to b and the one from b to a.
func (b *Bench) Connect(a, c string) (*Wire, *Wire, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	na, ok := b.nodes.Load(a)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownLink, a)
	}
	nc, ok := b.nodes.Load(c)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownLink, c)
	}
	if na.out != nil || nc.out != nil || na == nc {
		return nil, nil, fmt.Errorf("%w: %q-%q", ErrAlreadyConnected, a, c)
	}

	ac, ca := newWire(a, c), newWire(c, a)
	na.out, nc.in = ac, ac
	nc.out, na.in = ca, ca
	b.wires.Store(ac.Name(), ac)
	b.wires.Store(ca.Name(), ca)

	b.logger.Info("bench: connected", "a", a, "b", c)

	return ac, ca, nil
}

// Link returns the link registered under name.
func (b *Bench) Link(name string) (*link.Link, bool) {
	n, ok := b.nodes.Load(name)
	if !ok {
		return nil, false
	}
	return n.link, true
}

// Wire returns the wire named "from->to".
func (b *Bench) Wire(name string) (*Wire, bool) {
	return b.wires.Load(name)
}

// Ticks returns the number of ticks run.
func (b *Bench) Ticks() uint64 { return b.ticks.Load() }

// Statuses returns the status of every link keyed by name.
func (b *Bench) Statuses() map[string]link.Status {
	out := make(map[string]link.Status, b.nodes.Size())
	b.nodes.Range(func(name string, n *node) bool {
		out[name] = n.link.Status()
		return true
	})

	return out
}

// Step ticks every link once.
func (b *Bench) Step() {
	for _, n := range b.order {
		var in ds.BitPair
		if n.in != nil {
			in = n.in.Output()
		}
		n.last = n.link.Tick(in)
	}
	for _, n := range b.order {
		if n.out != nil {
			n.out.Drive(n.last)
		}
	}
	b.ticks.Add(1)
}

// Run ticks every link n times.
func (b *Bench) Run(n int) {
	for i := 0; i < n; i++ {
		b.Step()
	}
}

// RunUntil steps until cond holds and reports whether it did within maxTicks.
func (b *Bench) RunUntil(cond func() bool, maxTicks int) bool {
	for i := 0; i < maxTicks; i++ {
		if cond() {
			return true
		}
		b.Step()
	}
	return cond()
}

// RunUntilContext steps until cond holds, ctx is done or timeout of wall
// time passes.
func (b *Bench) RunUntilContext(ctx context.Context, cond func() bool, timeout time.Duration) error {
	timer := pool.GetTimer(timeout)
	defer pool.PutTimer(timer)

	for i := 0; ; i++ {
		if cond() {
			return nil
		}
		if i%checkEvery == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
				b.logger.Warn("bench: watchdog expired", "timeout", timeout, "ticks", b.Ticks())
				return fmt.Errorf("%w after %s", ErrTimeout, timeout)
			default:
			}
		}
		b.Step()
	}
}

// RunConcurrent ticks every link n times with one goroutine per link. Links
// advance in lockstep through the wires.
func (b *Bench) RunConcurrent(ctx context.Context, n int) error {
	for _, nd := range b.order {
		if nd.out != nil {
			nd.out.ch = make(chan ds.BitPair, 2)
			nd.out.ch <- nd.out.Output()
		}
	}

	grp, gctx := errgroup.WithContext(ctx)
	for _, nd := range b.order {
		grp.Go(func() error {
			for i := 0; i < n; i++ {
				if i%checkEvery == 0 && gctx.Err() != nil {
					return gctx.Err()
				}
				var in ds.BitPair
				if nd.in != nil {
					select {
					case in = <-nd.in.ch:
					case <-gctx.Done():
						return gctx.Err()
					}
				}
				nd.last = nd.link.Tick(in)
				if nd.out != nil {
					select {
					case nd.out.ch <- nd.out.Drive(nd.last):
					case <-gctx.Done():
						return gctx.Err()
					}
				}
			}
			return nil
		})
	}
	err := grp.Wait()

	for _, nd := range b.order {
		if nd.out != nil {
			nd.out.ch = nil
		}
	}
	if err != nil {
		return err
	}
	b.ticks.Add(uint64(n))

	return nil
}
