// Package cmm chains ICC profiles into color transforms.
//
// A Cmm is built by adding profiles with the AddXform methods, finalized with
// Begin and then used to convert pixels in the internal encoding: device
// values in [0, 1] and PCS values as described by icc.XYZScaleFactor. After
// Begin a Cmm is read only. Its Apply methods use a default apply context
// and must not be called concurrently, use NewApplyCmm to get one context
// per goroutine.
package cmm

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/kovidgoyal/iccmm/icc"
)

var _ = fmt.Print

type Cmm struct {
	src_space, dst_space icc.Signature
	named                bool

	xforms      []xform
	last_space  icc.Signature
	last_intent icc.RenderingIntent
	// true when the next stage reads from the PCS
	last_input bool

	valid  bool
	apply  *ApplyCmm
	logger *slog.Logger
}

// New creates an empty Cmm converting from src to dst. Either may be
// icc.UnknownData to be taken from the first and last stages.
// first_input selects the direction of the first profile: device to PCS
// when true.
func New(src, dst icc.Signature, first_input bool, opts ...Option) *Cmm {
	cfg := config{logger: slog.Default()}
	for _, o := range opts {
		o(&cfg)
	}
	return &Cmm{
		src_space: normalize_space(src), dst_space: normalize_space(dst),
		last_space: normalize_space(src), last_intent: icc.UnknownRenderingIntent, last_input: !first_input,
		logger: cfg.logger,
	}
}

func normalize_space(s icc.Signature) icc.Signature {
	return icc.IfElse(s == icc.UnknownSignature, icc.UnknownData, s)
}

func (c *Cmm) fail(err error, profile string) error {
	c.logger.Debug("cmm setup failed", slog.String("profile", profile), slog.Any("error", err))
	return err
}

// AddXformFile loads the profile at path and appends it as a stage.
func (c *Cmm) AddXformFile(path string, opts ...XformOption) error {
	cfg := new_xform_config(opts)
	p, err := icc.OpenProfile(path, cfg.read_opts...)
	if err != nil {
		return c.fail(fmt.Errorf("%s: %s: %w", path, err, StatusCantOpenProfile), path)
	}
	if err = p.LoadAll(); err == nil {
		err = p.Close()
	}
	if err != nil {
		return c.fail(fmt.Errorf("%s: %s: %w", path, err, StatusInvalidProfile), path)
	}
	return c.add_xform(p, cfg)
}

// AddXformBytes parses data as a profile and appends it as a stage.
func (c *Cmm) AddXformBytes(data []byte, opts ...XformOption) error {
	cfg := new_xform_config(opts)
	p, err := icc.ReadProfile(data, cfg.read_opts...)
	if err != nil {
		return c.fail(fmt.Errorf("%s: %w", err, StatusCantOpenProfile), "<memory>")
	}
	return c.add_xform(p, cfg)
}

// AddXformProfile appends p as a stage. The Cmm takes ownership of p, the
// caller must not modify it afterwards.
func (c *Cmm) AddXformProfile(p *icc.Profile, opts ...XformOption) error {
	return c.add_xform(p, new_xform_config(opts))
}

// AddXformCopy appends a deep copy of p as a stage.
func (c *Cmm) AddXformCopy(p *icc.Profile, opts ...XformOption) error {
	q, err := p.Clone()
	if err != nil {
		return c.fail(fmt.Errorf("%s: %w", err, StatusInvalidProfile), p.Description())
	}
	return c.add_xform(q, new_xform_config(opts))
}

// stage_spaces resolves direction and the spaces a profile connects.
func (c *Cmm) stage_spaces(p *icc.Profile, cfg *xform_config, is_input bool) (src, dst icc.Signature, input bool, err error) {
	h := &p.Header
	switch {
	case cfg.lut_type == LutPreview:
		return h.PCS, h.PCS, true, nil
	case cfg.lut_type == LutGamut:
		return h.PCS, icc.GamutData, true, nil
	case h.Class == icc.LinkClass:
		if !is_input {
			return 0, 0, false, wrap(StatusBadSpaceLink, "device link %s cannot be used from the PCS", p.Description())
		}
		return h.ColorSpace, h.PCS, true, nil
	case h.Class == icc.AbstractClass:
		return h.PCS, h.PCS, true, nil
	case h.Class == icc.NamedColorClass || cfg.lut_type == LutNamedColor:
		switch {
		case c.last_space == icc.NamedData:
			src = icc.NamedData
			dst = icc.IfElse(c.dst_space == h.ColorSpace, h.ColorSpace, h.PCS)
		case icc.IsSpacePCS(c.last_space):
			src = h.PCS
			dst = icc.IfElse(c.dst_space == icc.NamedData, icc.NamedData, h.ColorSpace)
		default:
			src = h.ColorSpace
			dst = icc.IfElse(c.dst_space == icc.NamedData, icc.NamedData, h.PCS)
		}
		return src, dst, !icc.IsSpacePCS(src), nil
	case is_input:
		return h.ColorSpace, h.PCS, true, nil
	}
	return h.PCS, h.ColorSpace, false, nil
}

func (c *Cmm) add_xform(p *icc.Profile, cfg *xform_config) error {
	name := p.Description()
	if c.valid {
		return c.fail(wrap(StatusIncorrectApply, "cannot add %s after Begin", name), name)
	}
	is_input := !c.last_input
	src, dst, is_input, err := c.stage_spaces(p, cfg, is_input)
	if err != nil {
		return c.fail(err, name)
	}
	if c.last_space != icc.UnknownData && !icc.IsCompatSpace(c.last_space, src) {
		return c.fail(wrap(StatusBadSpaceLink, "%s expects %s but receives %s", name, src, c.last_space), name)
	}
	if (src == icc.NamedData || dst == icc.NamedData) && !c.named {
		return c.fail(wrap(StatusBadSpaceLink, "%s: named color input or output needs a NamedColorCmm", name), name)
	}
	if src == icc.NamedData && len(c.xforms) > 0 {
		return c.fail(wrap(StatusBadSpaceLink, "%s: named colors can only be the first stage", name), name)
	}
	if n := len(c.xforms); n > 0 && c.xforms[n-1].dst_space() == icc.NamedData {
		return c.fail(wrap(StatusBadSpaceLink, "%s: nothing can follow a stage producing named colors", name), name)
	}
	ri := cfg.intent
	if ri == icc.UnknownRenderingIntent {
		switch {
		case is_input:
			ri = p.Header.RenderingIntent
		case c.last_intent != icc.UnknownRenderingIntent:
			ri = c.last_intent
		default:
			ri = icc.PerceptualRenderingIntent
		}
	}
	x, err := new_xform(p, cfg, ri, is_input, src, dst)
	if err != nil {
		return c.fail(err, name)
	}
	c.xforms = append(c.xforms, x)
	c.last_space = x.dst_space()
	c.last_intent = x.intent()
	c.last_input = icc.IsSpacePCS(c.last_space)
	c.logger.Debug("added transform", slog.String("profile", name), slog.String("stage", x.String()))
	return nil
}

// Begin finalizes the Cmm. No stages can be added afterwards.
func (c *Cmm) Begin() error {
	if c.valid {
		return nil
	}
	if len(c.xforms) == 0 {
		return c.fail(wrap(StatusBadXform, "no profiles have been added"), "")
	}
	if c.dst_space == icc.UnknownData {
		c.dst_space = c.last_space
	} else if !icc.IsCompatSpace(c.dst_space, c.last_space) {
		return c.fail(wrap(StatusBadSpaceLink, "last stage produces %s not %s", c.last_space, c.dst_space), "")
	}
	if c.src_space == icc.UnknownData {
		c.src_space = c.xforms[0].src_space()
	}
	for _, x := range c.xforms {
		if err := x.begin(); err != nil {
			return c.fail(err, x.String())
		}
	}
	c.valid = true
	c.apply = c.new_apply_cmm()
	return nil
}

// Valid reports whether Begin has succeeded.
func (c *Cmm) Valid() bool                { return c.valid }
func (c *Cmm) SourceSpace() icc.Signature { return c.src_space }
func (c *Cmm) DestSpace() icc.Signature   { return c.dst_space }
func (c *Cmm) SourceSamples() int         { return icc.SpaceSamples(c.src_space) }
func (c *Cmm) DestSamples() int           { return icc.SpaceSamples(c.dst_space) }
func (c *Cmm) NumXforms() int             { return len(c.xforms) }

// LastIntent is the rendering intent of the most recently added stage.
func (c *Cmm) LastIntent() icc.RenderingIntent { return c.last_intent }

func (c *Cmm) String() string {
	items := make([]string, len(c.xforms))
	for i, x := range c.xforms {
		items[i] = x.String()
	}
	return strings.Join(items, " → ")
}
