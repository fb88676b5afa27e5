package stream

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cwbudde/algo-plateau/dsp/core"
	"github.com/cwbudde/algo-plateau/dsp/spectral"
	"github.com/cwbudde/algo-plateau/dsp/window"
)

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithConfig sets the processor configuration shared by all nodes.
func WithConfig(cfg core.ProcessorConfig) EngineOption {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithProcessorOptions applies core processor options on top of the current
// configuration.
func WithProcessorOptions(opts ...core.ProcessorOption) EngineOption {
	return func(e *Engine) {
		for _, opt := range opts {
			opt(&e.cfg)
		}
	}
}

// WithSpectralOptions passes options to every node's spectral processor.
func WithSpectralOptions(opts ...spectral.Option) EngineOption {
	return func(e *Engine) {
		e.procOpts = append(e.procOpts, opts...)
	}
}

// WithHosts sets the hosts Attach tries, in order. The default is the oto
// device host followed by a fallback host that discards its output.
func WithHosts(hosts ...Host) EngineOption {
	return func(e *Engine) {
		e.hosts = append([]Host{}, hosts...)
	}
}

// WithLogger sets the logger for lifecycle events. Nodes never log from
// the render callback.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// Engine owns the host list and the shared stream configuration. Nodes are
// created from it, attached to a host stream, and detached again before
// the engine is disposed.
type Engine struct {
	cfg      core.ProcessorConfig
	procOpts []spectral.Option
	hosts    []Host
	logger   *slog.Logger
	windows  *window.Cache

	mu     sync.Mutex
	nodes  map[*Node]struct{}
	closed bool
}

// NewEngine validates the configuration and creates an engine.
func NewEngine(opts ...EngineOption) (*Engine, error) {
	e := &Engine{
		cfg:     core.DefaultProcessorConfig(),
		logger:  slog.Default(),
		windows: window.NewCache(window.TypeHann),
		nodes:   make(map[*Node]struct{}),
	}

	for _, opt := range opts {
		opt(e)
	}

	if err := e.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("stream: %w", err)
	}

	if e.hosts == nil {
		e.hosts = []Host{NewOtoHost(), NewFallbackHost(nil)}
	}

	return e, nil
}

// Config returns the processor configuration.
func (e *Engine) Config() core.ProcessorConfig { return e.cfg }

// Hosts returns the hosts Attach tries, in order.
func (e *Engine) Hosts() []Host {
	return append([]Host(nil), e.hosts...)
}

// NewNode builds a Ready node reading from src. A nil src renders silence.
func (e *Engine) NewNode(src Source, opts ...NodeOption) (*Node, error) {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()

	if closed {
		return nil, ErrClosed
	}

	n, err := newNode(e, src, opts...)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("node created",
		"sample_rate", e.cfg.SampleRate,
		"block_size", e.cfg.BlockSize,
		"fft_size", e.cfg.FFTSize,
		"backend", n.backend,
		"params", n.Params().String())

	return n, nil
}

// Attach opens a host stream for n, trying the hosts in order. Real-time
// hosts come first by default; when one fails the next host is used with
// the same block math. If no host opens, n is left Uninitialized, renders
// silence, and the returned error wraps ErrNoHost.
func (e *Engine) Attach(n *Node) error {
	if n.engine != e {
		return ErrNotAttached
	}

	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()

	if closed {
		return ErrClosed
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	switch n.State() {
	case Destroyed:
		return ErrClosed
	case Ready, Uninitialized:
	default:
		return fmt.Errorf("%w: attach from %s", ErrInvalidState, n.State())
	}

	if n.attached {
		return nil
	}

	cfg := StreamConfig{SampleRate: n.cfg.SampleRate, BlockSize: n.cfg.BlockSize}

	var errs []error

	for i, h := range e.hosts {
		st, err := h.Open(cfg, n.render)
		if err != nil {
			e.logger.Warn("audio host unavailable", "host", h.Name(), "error", err)
			errs = append(errs, err)

			continue
		}

		if i > 0 {
			e.logger.Info("using fallback host", "host", h.Name(), "realtime", h.Realtime())
		} else {
			e.logger.Info("audio host selected", "host", h.Name(), "realtime", h.Realtime())
		}

		n.host = h
		n.stream = st
		n.attached = true

		e.mu.Lock()
		e.nodes[n] = struct{}{}
		e.mu.Unlock()

		n.setState(Ready)

		return nil
	}

	n.setState(Uninitialized)
	e.logger.Error("no audio host available", "tried", len(e.hosts))

	return errors.Join(append([]error{ErrNoHost}, errs...)...)
}

// Detach stops n, closes its host stream and releases the processor and
// its overlap buffer. The node ends Destroyed. Detaching twice is a no-op.
func (e *Engine) Detach(n *Node) error {
	if n.engine != e {
		return ErrNotAttached
	}

	n.mu.Lock()

	if n.State() == Destroyed {
		n.mu.Unlock()
		return nil
	}

	n.setState(Destroyed)

	if n.stopCtx != nil {
		n.stopCtx()
		n.stopCtx = nil
	}

	var err error
	if n.stream != nil {
		if cerr := n.stream.Close(); cerr != nil {
			err = fmt.Errorf("stream: close %s: %w", n.host.Name(), cerr)
		}
	}

	n.proc.Store(nil)
	n.stream = nil
	n.attached = false
	n.mu.Unlock()

	e.mu.Lock()
	delete(e.nodes, n)
	e.mu.Unlock()

	e.logger.Debug("node detached")

	return err
}

// Dispose detaches every node. Further calls on the engine return
// ErrClosed.
func (e *Engine) Dispose() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}

	e.closed = true

	nodes := make([]*Node, 0, len(e.nodes))
	for n := range e.nodes {
		nodes = append(nodes, n)
	}
	e.mu.Unlock()

	var errs []error
	for _, n := range nodes {
		if err := e.Detach(n); err != nil {
			errs = append(errs, err)
		}
	}

	e.logger.Debug("engine disposed", "nodes", len(nodes))

	return errors.Join(errs...)
}
