package stream

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// oto allows a single context per process.
var (
	otoOnce    sync.Once
	otoCtx     *oto.Context
	otoRate    int
	otoInitErr error
)

func initOto(sampleRate int, buffer time.Duration) (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 1,
			Format:       oto.FormatFloat32LE,
			BufferSize:   buffer,
		}

		var ready chan struct{}
		otoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr == nil {
			<-ready
			otoRate = sampleRate
		}
	})

	if otoInitErr != nil {
		return nil, otoInitErr
	}

	if otoRate != sampleRate {
		return nil, fmt.Errorf("audio device already opened at %d Hz, want %d Hz", otoRate, sampleRate)
	}

	return otoCtx, nil
}

// OtoHost plays through the system audio device. oto pulls samples from its
// own goroutine, which becomes the render thread.
type OtoHost struct {
	// BufferSize is the device buffer. Zero uses two blocks.
	BufferSize time.Duration
}

// NewOtoHost creates a real-time device host.
func NewOtoHost() *OtoHost {
	return &OtoHost{}
}

// Name implements Host.
func (h *OtoHost) Name() string { return "oto" }

// Realtime implements Host.
func (h *OtoHost) Realtime() bool { return true }

// Open implements Host.
func (h *OtoHost) Open(cfg StreamConfig, render RenderFunc) (Stream, error) {
	buffer := h.BufferSize
	if buffer == 0 {
		buffer = 2 * time.Duration(float64(cfg.BlockSize)/cfg.SampleRate*float64(time.Second))
	}

	ctx, err := initOto(int(cfg.SampleRate), buffer)
	if err != nil {
		return nil, fmt.Errorf("stream: oto: %w", err)
	}

	r := newRenderReader(cfg.BlockSize, render)

	return &otoStream{player: ctx.NewPlayer(r)}, nil
}

type otoStream struct {
	player *oto.Player
}

func (s *otoStream) Start() error {
	s.player.Play()
	return nil
}

func (s *otoStream) Pause() error {
	s.player.Pause()
	return nil
}

func (s *otoStream) Close() error {
	s.player.Pause()
	return s.player.Close()
}

// renderReader adapts a RenderFunc to the io.Reader oto pulls from, encoding
// blocks as mono float32 little endian.
type renderReader struct {
	render  RenderFunc
	block   []float64
	encoded []byte
	pending []byte
}

func newRenderReader(blockSize int, render RenderFunc) *renderReader {
	return &renderReader{
		render:  render,
		block:   make([]float64, blockSize),
		encoded: make([]byte, 4*blockSize),
	}
}

func (r *renderReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(r.pending) == 0 {
			r.render(r.block)
			encodeFloat32LE(r.encoded, r.block)
			r.pending = r.encoded
		}

		c := copy(p[n:], r.pending)
		r.pending = r.pending[c:]
		n += c
	}

	return n, nil
}

func encodeFloat32LE(dst []byte, src []float64) {
	for i, v := range src {
		v = math.Max(-1, math.Min(1, v))
		binary.LittleEndian.PutUint32(dst[4*i:], math.Float32bits(float32(v)))
	}
}
