package main

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/cwbudde/algo-plateau/dsp/plateau"
	"github.com/cwbudde/algo-plateau/internal/config"
	"github.com/cwbudde/algo-plateau/stream"
)

func TestParseCommandUpdate(t *testing.T) {
	b := plateau.DefaultBounds()

	cmd, err := parseCommand("center=1200 width=400 flat=150 gain=0.8", b)
	if err != nil {
		t.Fatalf("parseCommand: %v", err)
	}

	if cmd.action != actionUpdate {
		t.Fatalf("action = %v, want update", cmd.action)
	}

	got, _ := cmd.update.Apply(plateau.DefaultParams())
	want := plateau.Params{CenterFreq: 1200, Width: 400, FlatWidth: 150, Gain: 0.8}

	if got != want {
		t.Fatalf("applied = %+v, want %+v", got, want)
	}
}

func TestParseCommandClamps(t *testing.T) {
	b := plateau.DefaultBounds()

	cmd, err := parseCommand("center=5 gain=50 width=0", b)
	if err != nil {
		t.Fatalf("parseCommand: %v", err)
	}

	got, _ := cmd.update.Apply(plateau.Params{CenterFreq: 1000, Width: 200, FlatWidth: 0, Gain: 1})
	if got.CenterFreq != 20 || got.Gain != 10 || got.Width != 1 {
		t.Fatalf("applied = %+v", got)
	}
}

func TestParseCommandGainDB(t *testing.T) {
	cmd, err := parseCommand("gain-db=-200", plateau.DefaultBounds())
	if err != nil {
		t.Fatalf("parseCommand: %v", err)
	}

	got, _ := cmd.update.Apply(plateau.DefaultParams())
	if got.Gain != 0 {
		t.Fatalf("gain = %v, want 0", got.Gain)
	}
}

func TestParseCommandActions(t *testing.T) {
	for line, want := range map[string]action{
		"suspend":  actionSuspend,
		"Resume":   actionResume,
		"response": actionResponse,
		"stats":    actionStats,
		"help":     actionHelp,
		" quit ":   actionQuit,
	} {
		cmd, err := parseCommand(line, plateau.DefaultBounds())
		if err != nil || cmd.action != want {
			t.Fatalf("parseCommand(%q) = %v, %v; want %v", line, cmd.action, err, want)
		}
	}
}

func TestParseCommandErrors(t *testing.T) {
	b := plateau.DefaultBounds()

	if _, err := parseCommand("   ", b); !errors.Is(err, errEmptyCommand) {
		t.Fatalf("blank line: %v, want errEmptyCommand", err)
	}

	for _, line := range []string{"jump", "center", "center=abc", "q=3", "gain=NaN"} {
		if _, err := parseCommand(line, b); err == nil {
			t.Fatalf("parseCommand(%q) succeeded", line)
		}
	}
}

func TestParseShapeCommands(t *testing.T) {
	b := plateau.DefaultBounds()

	cmd, err := parseCommand("add Gaussian center=1500 skew=20 kurtosis=2", b)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if cmd.action != actionAddShape || cmd.shapeType != config.ShapeGaussian || len(cmd.fields) != 3 {
		t.Fatalf("add = %+v", cmd)
	}

	sc, _ := config.DefaultShape(cmd.shapeType)
	applyShapeFields(&sc, cmd.fields, b)

	if sc.CenterFreq != 1500 || sc.Skew != config.MaxSkew || sc.Kurtosis != 2 || sc.Width != 100 {
		t.Fatalf("applied = %+v", sc)
	}

	cmd, err = parseCommand("set 2 gain-db=-6", b)
	if err != nil || cmd.action != actionSetShape || cmd.index != 2 {
		t.Fatalf("set = %+v, %v", cmd, err)
	}

	cmd, err = parseCommand("remove 1", b)
	if err != nil || cmd.action != actionRemoveShape || cmd.index != 1 {
		t.Fatalf("remove = %+v, %v", cmd, err)
	}

	cmd, err = parseCommand("shapes", b)
	if err != nil || cmd.action != actionListShapes {
		t.Fatalf("shapes = %+v, %v", cmd, err)
	}

	for _, line := range []string{"add", "add notch", "add parabolic q=1", "set x gain=1", "remove", "remove one"} {
		if _, err := parseCommand(line, b); err == nil {
			t.Fatalf("parseCommand(%q) succeeded", line)
		}
	}
}

func TestShapeCommandsDriveNode(t *testing.T) {
	b := plateau.DefaultBounds()
	host := stream.NewManualHost("manual", true)

	e, err := stream.NewEngine(stream.WithHosts(host), stream.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatal(err)
	}
	defer e.Dispose()

	node, err := e.NewNode(nil)
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer

	for _, line := range []string{"add parabolic width=300", "add gaussian", "set 0 center=2000", "remove 1"} {
		cmd, err := parseCommand(line, b)
		if err != nil {
			t.Fatalf("parseCommand(%q): %v", line, err)
		}

		execute(cmd, node, &out, slog.Default())
	}

	shapes := node.Shapes()
	want := plateau.Parabolic{CenterFreq: 2000, Width: 300, Gain: 1}

	if len(shapes) != 1 || shapes[0] != plateau.Shape(want) {
		t.Fatalf("shapes = %v, want [%v]", shapes, want)
	}

	cmd, _ := parseCommand("set 5 gain=1", b)
	out.Reset()
	execute(cmd, node, &out, slog.Default())

	if !strings.Contains(out.String(), "error:") {
		t.Fatalf("out-of-range set printed %q", out.String())
	}
}
