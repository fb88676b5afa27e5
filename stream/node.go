package stream

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwbudde/algo-plateau/dsp/core"
	"github.com/cwbudde/algo-plateau/dsp/fft"
	"github.com/cwbudde/algo-plateau/dsp/plateau"
	"github.com/cwbudde/algo-plateau/dsp/spectral"
)

// Backend selects the FFT implementation a node's processor runs on.
type Backend int

const (
	// BackendRecursive is the built-in radix-2 transform.
	BackendRecursive Backend = iota
	// BackendPlan uses a precomputed algo-fft plan.
	BackendPlan
)

// String implements fmt.Stringer.
func (b Backend) String() string {
	switch b {
	case BackendRecursive:
		return "recursive"
	case BackendPlan:
		return "plan"
	default:
		return fmt.Sprintf("Backend(%d)", int(b))
	}
}

// ParseBackend parses a backend name as written by String.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "recursive":
		return BackendRecursive, nil
	case "plan", "algofft":
		return BackendPlan, nil
	default:
		return 0, fmt.Errorf("stream: unknown fft backend %q", s)
	}
}

func (b Backend) transformer(n int) (fft.Transformer, error) {
	switch b {
	case BackendRecursive:
		return fft.NewRecursive(n)
	case BackendPlan:
		return fft.NewPlan(n)
	default:
		return nil, fmt.Errorf("stream: unknown fft backend %d", int(b))
	}
}

// NodeOption configures a Node.
type NodeOption func(*nodeOptions)

type nodeOptions struct {
	params  plateau.Params
	shapes  []plateau.Shape
	backend Backend
	monitor *Monitor
}

// WithParams sets the initial filter parameters. The default is
// plateau.DefaultParams.
func WithParams(p plateau.Params) NodeOption {
	return func(o *nodeOptions) {
		o.params = p
	}
}

// WithShapes sets extra shapes multiplied into the plateau mask.
func WithShapes(shapes ...plateau.Shape) NodeOption {
	return func(o *nodeOptions) {
		o.shapes = append(o.shapes, shapes...)
	}
}

// WithBackend selects the FFT backend.
func WithBackend(b Backend) NodeOption {
	return func(o *nodeOptions) {
		o.backend = b
	}
}

// WithMonitor records every rendered block into m.
func WithMonitor(m *Monitor) NodeOption {
	return func(o *nodeOptions) {
		o.monitor = m
	}
}

// Stats are the counters a node keeps while rendering.
type Stats struct {
	Blocks         uint64
	Underruns      uint64
	UpdatesApplied uint64
	MissingInputs  uint64
	Errors         uint64

	// Host is the name of the host the node is attached to, empty if none.
	Host     string
	Realtime bool
}

// Node is one plateau filter instance driven by a host stream.
//
// Control methods (Post, Suspend, Resume, Close, ...) may be called from any
// goroutine. The render callback runs on the host's goroutine and only
// touches the mailbox through an atomic swap, so it never waits on a
// control call.
type Node struct {
	engine  *Engine
	cfg     core.ProcessorConfig
	logger  *slog.Logger
	backend Backend

	mailbox *Mailbox
	source  Source
	monitor *Monitor
	proc    atomic.Pointer[spectral.Processor]
	state   atomic.Int32

	// Render side only.
	active   *snapshot
	in       []float64
	deadline time.Duration
	now      func() time.Time

	blocks    atomic.Uint64
	underruns atomic.Uint64
	updates   atomic.Uint64
	missing   atomic.Uint64
	errors    atomic.Uint64

	mu       sync.Mutex
	host     Host
	stream   Stream
	stopCtx  func() bool
	attached bool
}

func newNode(e *Engine, src Source, opts ...NodeOption) (*Node, error) {
	o := nodeOptions{params: plateau.DefaultParams()}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := e.cfg

	t, err := o.backend.transformer(cfg.FFTSize)
	if err != nil {
		return nil, fmt.Errorf("stream: %w", err)
	}

	// Nodes of one engine share a block size, so they share the window.
	tbl, err := e.windows.Get(cfg.BlockSize)
	if err != nil {
		return nil, fmt.Errorf("stream: %w", err)
	}

	procOpts := append([]spectral.Option{spectral.WithTransformer(t), spectral.WithWindowTable(tbl)}, e.procOpts...)

	proc, err := spectral.NewFromConfig(cfg, procOpts...)
	if err != nil {
		return nil, fmt.Errorf("stream: %w", err)
	}

	mb := NewMailbox(o.params, cfg.SampleRate, cfg.FFTSize, o.shapes...)

	n := &Node{
		engine:   e,
		cfg:      cfg,
		logger:   e.logger,
		backend:  o.backend,
		mailbox:  mb,
		source:   src,
		monitor:  o.monitor,
		active:   mb.current(),
		in:       make([]float64, cfg.BlockSize),
		deadline: time.Duration(cfg.BlockDuration() * float64(time.Second)),
		now:      time.Now,
	}
	n.proc.Store(proc)
	n.setState(Ready)

	return n, nil
}

// State returns the current lifecycle state.
func (n *Node) State() State {
	return State(n.state.Load())
}

func (n *Node) setState(s State) {
	prev := State(n.state.Swap(int32(s)))
	if prev != s {
		n.logger.Debug("node state", "from", prev, "to", s)
	}
}

// Config returns the processor configuration.
func (n *Node) Config() core.ProcessorConfig { return n.cfg }

// Post queues a parameter update. It is applied at the start of the next
// rendered block; updates posted within one block coalesce. Post never
// fails: width is silently clamped above the flat width.
func (n *Node) Post(u plateau.Update) {
	n.mailbox.Post(u)
}

// Params returns the most recently posted parameters.
func (n *Node) Params() plateau.Params {
	return n.mailbox.Params()
}

// AddShape appends s to the node's extra shapes and returns its index. It
// takes effect at the next rendered block, like Post.
func (n *Node) AddShape(s plateau.Shape) (int, error) {
	return n.mailbox.AddShape(s)
}

// SetShape replaces the extra shape at index i.
func (n *Node) SetShape(i int, s plateau.Shape) error {
	return n.mailbox.SetShape(i, s)
}

// RemoveShape drops the extra shape at index i.
func (n *Node) RemoveShape(i int) error {
	return n.mailbox.RemoveShape(i)
}

// Shapes returns the extra shapes in the order they are applied.
func (n *Node) Shapes() []plateau.Shape {
	return n.mailbox.Shapes()
}

// Response evaluates the current parameters and extra shapes analytically
// between minFreq and maxFreq.
func (n *Node) Response(minFreq, maxFreq float64, numPoints int) ([]plateau.Point, error) {
	snap := n.mailbox.current()
	chain := append(plateau.Chain{snap.params}, snap.shapes...)

	return plateau.Response(chain, minFreq, maxFreq, numPoints)
}

// Mailbox exposes the node's update mailbox for its counters.
func (n *Node) Mailbox() *Mailbox { return n.mailbox }

// Stats returns a snapshot of the render counters.
func (n *Node) Stats() Stats {
	s := Stats{
		Blocks:         n.blocks.Load(),
		Underruns:      n.underruns.Load(),
		UpdatesApplied: n.updates.Load(),
		MissingInputs:  n.missing.Load(),
		Errors:         n.errors.Load(),
	}

	n.mu.Lock()
	if n.host != nil {
		s.Host = n.host.Name()
		s.Realtime = n.host.Realtime()
	}
	n.mu.Unlock()

	return s
}

// Start begins rendering. The node must be attached and Ready or
// Suspended. When ctx is cancelled the node is closed.
func (n *Node) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch n.State() {
	case Destroyed:
		return ErrClosed
	case Ready, Suspended:
	default:
		return fmt.Errorf("%w: start from %s", ErrInvalidState, n.State())
	}

	if n.stream == nil {
		return ErrNotAttached
	}

	// Enter Streaming first so a block the host renders inside Start is
	// processed rather than silenced.
	prev := n.State()
	n.setState(Streaming)

	if err := n.stream.Start(); err != nil {
		n.setState(prev)
		return fmt.Errorf("stream: start %s: %w", n.host.Name(), err)
	}

	if n.stopCtx != nil {
		n.stopCtx()
	}

	n.stopCtx = context.AfterFunc(ctx, func() {
		if err := n.Close(); err != nil {
			n.logger.Warn("closing node after cancel", "error", err)
		}
	})

	return nil
}

// Suspend pauses the host stream. The overlap state is kept.
func (n *Node) Suspend() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch n.State() {
	case Suspended:
		return nil
	case Streaming:
	case Destroyed:
		return ErrClosed
	default:
		return fmt.Errorf("%w: suspend from %s", ErrInvalidState, n.State())
	}

	// Leave Streaming first so a late callback renders silence.
	n.setState(Suspended)

	if err := n.stream.Pause(); err != nil {
		return fmt.Errorf("stream: pause %s: %w", n.host.Name(), err)
	}

	return nil
}

// Resume restarts a suspended node.
func (n *Node) Resume() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch n.State() {
	case Streaming:
		return nil
	case Suspended:
	case Destroyed:
		return ErrClosed
	default:
		return fmt.Errorf("%w: resume from %s", ErrInvalidState, n.State())
	}

	n.setState(Streaming)

	if err := n.stream.Start(); err != nil {
		n.setState(Suspended)
		return fmt.Errorf("stream: resume %s: %w", n.host.Name(), err)
	}

	return nil
}

// Close detaches the node from its engine and releases its processor.
func (n *Node) Close() error {
	return n.engine.Detach(n)
}

// render is the host callback. It runs exactly one pass of the frame
// pipeline per block and must not allocate, lock or log.
func (n *Node) render(out []float64) {
	start := n.now()

	proc := n.proc.Load()
	if proc == nil || n.State() != Streaming {
		clear(out)
		return
	}

	if snap := n.mailbox.take(); snap != nil {
		n.active = snap
		n.updates.Add(1)
	}

	var src []float64
	if n.source != nil && n.source.ReadBlock(n.in) {
		src = n.in
	} else {
		n.missing.Add(1)
	}

	if err := proc.ProcessBlockTo(out, src, n.active.mask, n.active.params.Gain); err != nil {
		clear(out)
		n.errors.Add(1)
	}

	if n.monitor != nil {
		n.monitor.write(out)
	}

	n.blocks.Add(1)

	if n.now().Sub(start) > n.deadline {
		n.underruns.Add(1)
	}
}
