package plateau

import "github.com/cwbudde/algo-plateau/dsp/core"

// Update is a sparse parameter change. Nil fields keep their previous value.
type Update struct {
	CenterFreq *float64
	Width      *float64
	FlatWidth  *float64
	Gain       *float64
}

// SetCenterFreq returns u with the centre frequency set.
func (u Update) SetCenterFreq(hz float64) Update {
	u.CenterFreq = &hz
	return u
}

// SetWidth returns u with the total width set.
func (u Update) SetWidth(hz float64) Update {
	u.Width = &hz
	return u
}

// SetFlatWidth returns u with the flat width set.
func (u Update) SetFlatWidth(hz float64) Update {
	u.FlatWidth = &hz
	return u
}

// SetGain returns u with the linear gain set.
func (u Update) SetGain(gain float64) Update {
	u.Gain = &gain
	return u
}

// SetGainDB returns u with the gain given in dB. Levels at or below
// core.SilenceDB mute the filter.
func (u Update) SetGainDB(db float64) Update {
	return u.SetGain(core.DBToGain(db))
}

// Empty reports whether u changes nothing.
func (u Update) Empty() bool {
	return u.CenterFreq == nil && u.Width == nil && u.FlatWidth == nil && u.Gain == nil
}

// Merge returns u overlaid by later. Fields set in later win.
func (u Update) Merge(later Update) Update {
	if later.CenterFreq != nil {
		u.CenterFreq = later.CenterFreq
	}
	if later.Width != nil {
		u.Width = later.Width
	}
	if later.FlatWidth != nil {
		u.FlatWidth = later.FlatWidth
	}
	if later.Gain != nil {
		u.Gain = later.Gain
	}

	return u
}

// Apply overlays u on p and re-enforces Width > FlatWidth. shapeChanged
// reports whether the mask has to be regenerated.
func (u Update) Apply(p Params) (next Params, shapeChanged bool) {
	next = p

	if u.CenterFreq != nil {
		next.CenterFreq = *u.CenterFreq
	}
	if u.Width != nil {
		next.Width = *u.Width
	}
	if u.FlatWidth != nil {
		next.FlatWidth = *u.FlatWidth
	}
	if u.Gain != nil {
		next.Gain = *u.Gain
	}

	next = next.Normalize()

	return next, !next.SameShape(p)
}
