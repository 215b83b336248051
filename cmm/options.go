package cmm

import (
	"fmt"
	"log/slog"

	"github.com/kovidgoyal/iccmm/icc"
)

var _ = fmt.Print

type Interpolation int

const (
	Linear Interpolation = iota
	// Tetrahedral only affects three input CLUTs
	Tetrahedral
)

func (i Interpolation) String() string {
	if i == Tetrahedral {
		return "tetrahedral"
	}
	return "linear"
}

// LutType selects the family of tags a stage is built from.
type LutType int

const (
	LutColor LutType = iota
	LutNamedColor
	LutPreview
	LutGamut
)

func (t LutType) String() string {
	switch t {
	case LutColor:
		return "color"
	case LutNamedColor:
		return "named color"
	case LutPreview:
		return "preview"
	case LutGamut:
		return "gamut"
	}
	return fmt.Sprintf("LutType(%d)", int(t))
}

type config struct {
	logger *slog.Logger
}

// Option configures a Cmm.
type Option func(*config)

// WithLogger sets the logger construction failures are reported to at
// debug level. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

type xform_config struct {
	intent    icc.RenderingIntent
	interp    Interpolation
	lut_type  LutType
	use_mpe   bool
	read_opts []icc.ReadOption
}

// XformOption configures one stage added to a Cmm.
type XformOption func(*xform_config)

// Intent selects the rendering intent. icc.UnknownRenderingIntent, the
// default, uses the profile header intent for the first stage and the
// previous stage's intent after that.
func Intent(ri icc.RenderingIntent) XformOption {
	return func(c *xform_config) {
		c.intent = ri
	}
}

func Interp(i Interpolation) XformOption {
	return func(c *xform_config) {
		c.interp = i
	}
}

func WithLutType(t LutType) XformOption {
	return func(c *xform_config) {
		c.lut_type = t
	}
}

// UseMPE prefers the D2Bx/B2Dx multi process element tags when the profile
// has them.
func UseMPE(enabled bool) XformOption {
	return func(c *xform_config) {
		c.use_mpe = enabled
	}
}

// ReadOptions are used when the stage loads its profile from a file or a
// buffer.
func ReadOptions(opts ...icc.ReadOption) XformOption {
	return func(c *xform_config) {
		c.read_opts = append(c.read_opts, opts...)
	}
}

func new_xform_config(opts []XformOption) *xform_config {
	ans := &xform_config{intent: icc.UnknownRenderingIntent, interp: Linear, lut_type: LutColor}
	for _, o := range opts {
		o(ans)
	}
	return ans
}
