package main

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-plateau/dsp/core"
	"github.com/cwbudde/algo-plateau/dsp/plateau"
	"github.com/cwbudde/algo-plateau/internal/config"
)

type action int

const (
	actionUpdate action = iota
	actionSuspend
	actionResume
	actionResponse
	actionStats
	actionHelp
	actionQuit
	actionAddShape
	actionSetShape
	actionRemoveShape
	actionListShapes
)

var errEmptyCommand = errors.New("empty command")

// command is one parsed control line.
type command struct {
	action action
	update plateau.Update

	// Shape commands.
	index     int
	shapeType string
	fields    []shapeField
}

type shapeField struct {
	key   string
	value float64
}

// parseCommand parses a control line such as "center=1200 width=400" or
// "suspend". Values are clamped to the control-surface bounds.
func parseCommand(line string, b plateau.Bounds) (command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return command{}, errEmptyCommand
	}

	switch strings.ToLower(fields[0]) {
	case "add":
		return parseShapeCommand(actionAddShape, fields[1:])
	case "set":
		return parseShapeCommand(actionSetShape, fields[1:])
	case "remove", "rm":
		if len(fields) != 2 {
			return command{}, errors.New("usage: remove <index>")
		}

		i, err := strconv.Atoi(fields[1])
		if err != nil {
			return command{}, fmt.Errorf("remove: %w", err)
		}

		return command{action: actionRemoveShape, index: i}, nil
	}

	if len(fields) == 1 && !strings.Contains(fields[0], "=") {
		switch strings.ToLower(fields[0]) {
		case "suspend", "pause":
			return command{action: actionSuspend}, nil
		case "resume", "play":
			return command{action: actionResume}, nil
		case "response":
			return command{action: actionResponse}, nil
		case "stats":
			return command{action: actionStats}, nil
		case "shapes":
			return command{action: actionListShapes}, nil
		case "help", "?":
			return command{action: actionHelp}, nil
		case "quit", "exit", "q":
			return command{action: actionQuit}, nil
		default:
			return command{}, fmt.Errorf("unknown command %q", fields[0])
		}
	}

	var u plateau.Update

	for _, f := range fields {
		key, v, err := parseField(f)
		if err != nil {
			return command{}, err
		}

		switch key {
		case "center", "freq":
			u = u.SetCenterFreq(core.Clamp(v, b.MinCenterFreq, b.MaxCenterFreq))
		case "width":
			u = u.SetWidth(core.Clamp(v, b.MinWidth, b.MaxWidth))
		case "flat":
			u = u.SetFlatWidth(core.Clamp(v, b.MinFlatWidth, b.MaxFlatWidth))
		case "gain":
			u = u.SetGain(core.Clamp(v, b.MinGain, b.MaxGain))
		case "gain-db":
			u = u.SetGainDB(core.Clamp(v, core.SilenceDB, core.GainToDB(b.MaxGain)))
		default:
			return command{}, fmt.Errorf("unknown parameter %q", key)
		}
	}

	return command{action: actionUpdate, update: u}, nil
}

func parseField(f string) (string, float64, error) {
	key, raw, ok := strings.Cut(f, "=")
	if !ok {
		return "", 0, fmt.Errorf("expected key=value, got %q", f)
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", 0, fmt.Errorf("%s: %w", key, err)
	}

	if math.IsNaN(v) {
		return "", 0, fmt.Errorf("%s: not a number", key)
	}

	return strings.ToLower(key), v, nil
}

// parseShapeCommand parses "add <type> key=value..." or
// "set <index> key=value...".
func parseShapeCommand(act action, args []string) (command, error) {
	if len(args) == 0 {
		return command{}, errors.New("usage: add <gaussian|parabolic|plateau> [key=value...] or set <index> key=value...")
	}

	cmd := command{action: act}

	if act == actionAddShape {
		cmd.shapeType = strings.ToLower(args[0])
		if _, err := config.DefaultShape(cmd.shapeType); err != nil {
			return command{}, err
		}
	} else {
		i, err := strconv.Atoi(args[0])
		if err != nil {
			return command{}, fmt.Errorf("set: %w", err)
		}

		cmd.index = i
	}

	for _, f := range args[1:] {
		key, v, err := parseField(f)
		if err != nil {
			return command{}, err
		}

		switch key {
		case "center", "freq", "width", "flat", "skew", "kurtosis", "gain", "gain-db":
		default:
			return command{}, fmt.Errorf("unknown shape parameter %q", key)
		}

		cmd.fields = append(cmd.fields, shapeField{key: key, value: v})
	}

	return cmd, nil
}

// applyShapeFields overlays fields on sc, clamping to the control-surface
// bounds.
func applyShapeFields(sc *config.ShapeConfig, fields []shapeField, b plateau.Bounds) {
	for _, f := range fields {
		switch f.key {
		case "center", "freq":
			sc.CenterFreq = core.Clamp(f.value, b.MinCenterFreq, b.MaxCenterFreq)
		case "width":
			sc.Width = core.Clamp(f.value, b.MinWidth, b.MaxWidth)
		case "flat":
			sc.FlatWidth = core.Clamp(f.value, b.MinFlatWidth, b.MaxFlatWidth)
		case "skew":
			sc.Skew = core.Clamp(f.value, -config.MaxSkew, config.MaxSkew)
		case "kurtosis":
			sc.Kurtosis = core.Clamp(f.value, config.MinKurtosis, config.MaxKurtosis)
		case "gain":
			sc.Gain = core.Clamp(f.value, b.MinGain, b.MaxGain)
		case "gain-db":
			sc.Gain = core.Clamp(core.DBToGain(f.value), b.MinGain, b.MaxGain)
		}
	}
}

const helpText = `commands:
  center=<Hz> width=<Hz> flat=<Hz> gain=<x> gain-db=<dB>   update parameters
  suspend | resume                                        pause or restart output
  add gaussian|parabolic|plateau [key=value...]           add an extra band shape
  set <i> key=value...                                    change extra shape i
  remove <i>                                              drop extra shape i
  shapes                                                  list the extra shapes
  response                                                print the frequency response
  stats                                                   print render counters
  quit`
