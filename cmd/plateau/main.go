// Command plateau runs a plateau spectral filter on a noise, sine or WAV
// input and plays it through the audio device.
//
// Usage:
//
//	plateau [flags]
//
// Parameters can be changed while running by typing commands on stdin:
//
//	center=1200 width=400 flat=150 gain=0.8
//	gain-db=-6
//	add gaussian center=1500 width=200 skew=1
//	set 0 kurtosis=2
//	remove 0
//	suspend
//	resume
//	response
//	quit
//
// Examples:
//
//	plateau -source sine -freq 1000
//	plateau -in voice.wav -center 2000 -width 1500 -flat 800
//	plateau -out filtered.wav -duration 10s
//	plateau -host fallback -analyze
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/cwbudde/algo-plateau/dsp/plateau"
	"github.com/cwbudde/algo-plateau/dsp/resample"
	dspsignal "github.com/cwbudde/algo-plateau/dsp/signal"
	"github.com/cwbudde/algo-plateau/dsp/spectrum"
	"github.com/cwbudde/algo-plateau/internal/config"
	"github.com/cwbudde/algo-plateau/stream"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "plateau:", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	save       bool
	out        string
	analyze    bool
	duration   time.Duration
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if opts.save {
		if err := cfg.Save(opts.configPath); err != nil {
			return err
		}

		logger.Info("settings saved", "path", opts.configPath)
	}

	src, err := openSource(cfg, logger)
	if err != nil {
		return err
	}

	hosts, err := selectHosts(cfg, opts, logger)
	if err != nil {
		return err
	}

	engine, err := stream.NewEngine(
		stream.WithConfig(cfg.ProcessorConfig()),
		stream.WithHosts(hosts...),
		stream.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer engine.Dispose()

	backend, err := stream.ParseBackend(cfg.Audio.FFTBackend)
	if err != nil {
		return err
	}

	shapes, err := cfg.BandShapes()
	if err != nil {
		return err
	}

	nodeOpts := []stream.NodeOption{
		stream.WithParams(cfg.Params()),
		stream.WithShapes(shapes...),
		stream.WithBackend(backend),
	}

	var an *analysis
	if opts.analyze {
		an, err = newAnalysis(cfg)
		if err != nil {
			return err
		}

		nodeOpts = append(nodeOpts, stream.WithMonitor(an.monitor))
	}

	node, err := engine.NewNode(src, nodeOpts...)
	if err != nil {
		return err
	}

	if err := engine.Attach(node); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.duration)
		defer cancel()
	}

	if err := node.Start(ctx); err != nil {
		return err
	}

	st := node.Stats()
	fmt.Fprintf(stdout, "%s on %s (realtime=%t)\n", node.Params(), st.Host, st.Realtime)

	return loop(ctx, node, an, stdin, stdout, logger)
}

func parseFlags(args []string, stderr io.Writer) (*config.Config, options, error) {
	var opts options

	defPath, err := config.DefaultPath()
	if err != nil {
		defPath = "settings.yaml"
	}

	fs := flag.NewFlagSet("plateau", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.configPath, "config", defPath, "settings file")
	fs.BoolVar(&opts.save, "save", false, "write the effective settings back to -config")
	fs.StringVar(&opts.out, "out", "", "record output to a WAV file through the fallback host")
	fs.BoolVar(&opts.analyze, "analyze", false, "print the dominant output frequency every second")
	fs.DurationVar(&opts.duration, "duration", 0, "stop after this long (0 runs until quit)")

	sampleRate := fs.Float64("sample-rate", 0, "sample rate in Hz")
	block := fs.Int("block", 0, "block size in samples")
	fftSize := fs.Int("fft", 0, "FFT size (power of two)")
	host := fs.String("host", "", "audio host: auto, realtime or fallback")
	backend := fs.String("backend", "", "FFT backend: recursive or plan")
	center := fs.Float64("center", 0, "centre frequency in Hz")
	width := fs.Float64("width", 0, "total width in Hz")
	flatWidth := fs.Float64("flat", 0, "flat-top width in Hz")
	gain := fs.Float64("gain", 0, "linear gain")
	source := fs.String("source", "", "input: noise, sine or wav")
	rng := fs.String("rng", "", "noise distribution: uniform or standard_normal")
	amp := fs.Float64("amp", 0, "input amplitude")
	freq := fs.Float64("freq", 0, "sine frequency in Hz")
	in := fs.String("in", "", "input WAV file (implies -source wav)")
	logLevel := fs.String("log-level", "", "debug, info, warn or error")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: plateau [flags]\n\n")
		fmt.Fprintf(stderr, "Runs a plateau band filter. Type 'help' while running for commands.\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, opts, err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, opts, err
	}

	// Flags override the file only when given.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "sample-rate":
			cfg.Audio.SampleRate = *sampleRate
		case "block":
			cfg.Audio.BlockSize = *block
		case "fft":
			cfg.Audio.FFTSize = *fftSize
		case "host":
			cfg.Audio.Host = *host
		case "backend":
			cfg.Audio.FFTBackend = *backend
		case "center":
			cfg.Filter.CenterFreq = *center
		case "width":
			cfg.Filter.Width = *width
		case "flat":
			cfg.Filter.FlatWidth = *flatWidth
		case "gain":
			cfg.Filter.Gain = *gain
		case "source":
			cfg.Source.Type = *source
		case "rng":
			cfg.Source.RNG = *rng
		case "amp":
			cfg.Source.Amplitude = *amp
		case "freq":
			cfg.Source.Frequency = *freq
		case "in":
			cfg.Source.Type = config.SourceWAV
			cfg.Source.Path = *in
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, opts, err
	}

	return cfg, opts, nil
}

func openSource(cfg *config.Config, logger *slog.Logger) (stream.Source, error) {
	switch cfg.Source.Type {
	case config.SourceSine:
		return stream.NewSineSource(cfg.Source.Frequency, cfg.Source.Amplitude, cfg.Audio.SampleRate)
	case config.SourceWAV:
		src, err := stream.OpenWAVSource(cfg.Source.Path, cfg.Source.Loop)
		if err != nil {
			return nil, err
		}

		if rate := src.SampleRate(); float64(rate) != cfg.Audio.SampleRate {
			if err := src.Resample(cfg.Audio.SampleRate, resample.QualityBalanced); err != nil {
				return nil, err
			}

			logger.Info("wav resampled", "from", rate, "to", cfg.Audio.SampleRate)
		}

		logger.Info("wav input", "path", cfg.Source.Path, "channels", src.Channels(), "samples", src.Len())

		return src, nil
	default:
		dist, err := dspsignal.ParseDistribution(cfg.Source.RNG)
		if err != nil {
			return nil, err
		}

		return stream.NewNoiseSource(dist, cfg.Source.Amplitude, cfg.Source.Seed)
	}
}

func selectHosts(cfg *config.Config, opts options, logger *slog.Logger) ([]stream.Host, error) {
	if opts.out != "" {
		sink, err := stream.CreateWAVSink(opts.out, int(cfg.Audio.SampleRate))
		if err != nil {
			return nil, err
		}

		fh := stream.NewFallbackHost(sink)
		fh.Logger = logger

		return []stream.Host{fh}, nil
	}

	fallback := stream.NewFallbackHost(nil)
	fallback.Logger = logger

	switch cfg.Audio.Host {
	case config.HostRealtime:
		return []stream.Host{stream.NewOtoHost()}, nil
	case config.HostFallback:
		return []stream.Host{fallback}, nil
	default:
		return []stream.Host{stream.NewOtoHost(), fallback}, nil
	}
}

func loop(ctx context.Context, node *stream.Node, an *analysis, stdin io.Reader, stdout io.Writer, logger *slog.Logger) error {
	lines := make(chan string)

	go func() {
		defer close(lines)

		sc := bufio.NewScanner(stdin)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	var tick <-chan time.Time
	if an != nil {
		t := time.NewTicker(time.Second)
		defer t.Stop()

		tick = t.C
	}

	bounds := plateau.DefaultBounds()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
			an.report(stdout, node.Params())
		case line, ok := <-lines:
			if !ok {
				// Without a terminal, keep running until the context ends.
				lines = nil
				continue
			}

			cmd, err := parseCommand(line, bounds)
			if errors.Is(err, errEmptyCommand) {
				continue
			}

			if err != nil {
				fmt.Fprintln(stdout, "error:", err)
				continue
			}

			if quit := execute(cmd, node, stdout, logger); quit {
				return nil
			}
		}
	}
}

func execute(cmd command, node *stream.Node, stdout io.Writer, logger *slog.Logger) (quit bool) {
	switch cmd.action {
	case actionUpdate:
		node.Post(cmd.update)
		fmt.Fprintln(stdout, node.Params())
	case actionSuspend:
		if err := node.Suspend(); err != nil {
			logger.Error("suspend failed", "error", err)
		}
	case actionResume:
		if err := node.Resume(); err != nil {
			logger.Error("resume failed", "error", err)
		}
	case actionAddShape, actionSetShape:
		if err := applyShapeCommand(cmd, node); err != nil {
			fmt.Fprintln(stdout, "error:", err)
			return false
		}

		printShapes(stdout, node)
	case actionRemoveShape:
		if err := node.RemoveShape(cmd.index); err != nil {
			fmt.Fprintln(stdout, "error:", err)
			return false
		}

		printShapes(stdout, node)
	case actionListShapes:
		printShapes(stdout, node)
	case actionResponse:
		printResponse(stdout, node)
	case actionStats:
		st := node.Stats()
		fmt.Fprintf(stdout, "host=%s blocks=%d underruns=%d updates=%d missing=%d errors=%d\n",
			st.Host, st.Blocks, st.Underruns, st.UpdatesApplied, st.MissingInputs, st.Errors)
	case actionHelp:
		fmt.Fprintln(stdout, helpText)
	case actionQuit:
		return true
	}

	return false
}

func applyShapeCommand(cmd command, node *stream.Node) error {
	var (
		sc  config.ShapeConfig
		err error
	)

	if cmd.action == actionAddShape {
		sc, err = config.DefaultShape(cmd.shapeType)
	} else {
		shapes := node.Shapes()
		if cmd.index < 0 || cmd.index >= len(shapes) {
			return fmt.Errorf("%w: index %d of %d", stream.ErrInvalidShape, cmd.index, len(shapes))
		}

		sc, err = config.ShapeConfigOf(shapes[cmd.index])
	}

	if err != nil {
		return err
	}

	applyShapeFields(&sc, cmd.fields, plateau.DefaultBounds())

	s, err := sc.Shape()
	if err != nil {
		return err
	}

	if cmd.action == actionAddShape {
		_, err = node.AddShape(s)
		return err
	}

	return node.SetShape(cmd.index, s)
}

func printShapes(w io.Writer, node *stream.Node) {
	fmt.Fprintf(w, "base  %s\n", node.Params())

	for i, s := range node.Shapes() {
		fmt.Fprintf(w, "%4d  %s\n", i, s)
	}
}

func printResponse(w io.Writer, node *stream.Node) {
	p := node.Params()

	lo := max(0, p.CenterFreq-p.Width)
	hi := min(node.Config().SampleRate/2, p.CenterFreq+p.Width)

	pts, err := node.Response(lo, hi, 21)
	if err != nil {
		fmt.Fprintln(w, "error:", err)
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Hz\tgain\tdB\t")

	for _, pt := range pts {
		fmt.Fprintf(tw, "%.1f\t%.4f\t%.1f\t\n", pt.Freq, pt.Gain, plateau.Params{Gain: pt.Gain}.GainDB())
	}

	tw.Flush()
}

// analysis reports the output spectrum from a node monitor.
type analysis struct {
	monitor    *stream.Monitor
	analyzer   *spectrum.Analyzer
	buf        []float64
	sampleRate float64
}

func newAnalysis(cfg *config.Config) (*analysis, error) {
	size := cfg.Audio.FFTSize

	an, err := spectrum.NewAnalyzer(cfg.Audio.SampleRate, size, cfg.AnalyzerOptions()...)
	if err != nil {
		return nil, err
	}

	return &analysis{
		monitor:    stream.NewMonitor(size),
		analyzer:   an,
		buf:        make([]float64, size),
		sampleRate: cfg.Audio.SampleRate,
	}, nil
}

func (a *analysis) report(w io.Writer, p plateau.Params) {
	if a.monitor.Snapshot(a.buf) < len(a.buf) {
		return
	}

	line, err := a.describe(p)
	if err != nil {
		fmt.Fprintln(w, "analyze:", err)
		return
	}

	fmt.Fprintln(w, line)
}

// describe summarises the spectrum of a.buf. The centre level is left out
// when the centre lies above Nyquist.
func (a *analysis) describe(p plateau.Params) (string, error) {
	if _, _, err := a.analyzer.Analyze(a.buf); err != nil {
		return "", err
	}

	freq, db := a.analyzer.Peak()
	line := fmt.Sprintf("peak %.0f Hz %.1f dB", freq, db)

	if p.CenterFreq > a.sampleRate/2 {
		return line, nil
	}

	level, err := spectrum.ToneAmplitude(a.buf, p.CenterFreq, a.sampleRate)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s, centre %.0f Hz level %.4f", line, p.CenterFreq, level), nil
}
