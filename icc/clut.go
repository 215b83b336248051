package icc

import (
	"fmt"
	"strings"

	"github.com/kovidgoyal/iccmm/iccio"
)

const (
	MaxCLUTInputs = 15
	// upper bound on the number of samples in a single table
	MaxCLUTSamples = 1 << 28
)

// CLUT is a multidimensional lookup table with per axis grid sizes. Samples
// are stored with the first input as the slowest varying axis and the output
// channels of one node contiguous. After Begin the table must not change.
type CLUT struct {
	nInput, nOutput int
	GridPoints      []int
	Data            []Float
	// Precision is the width of one sample on disk: 1 or 2 bytes for LUT
	// tags, 4 for the float32 samples of multi process elements.
	Precision int

	dimSize      []int
	maxGridPoint []int
	nodes        int
	offsets      []int
	n001, n010, n011, n100, n101, n110, n111 int
	begun        bool
}

// NewCLUT creates a zero filled table. A single grid size applies to every
// input axis.
func NewCLUT(num_inputs, num_outputs int, grid_points ...int) (*CLUT, error) {
	if num_inputs < 1 || num_inputs > MaxCLUTInputs {
		return nil, fmt.Errorf("CLUT cannot have %d inputs: %w", num_inputs, ErrInvalidTag)
	}
	if num_outputs < 1 {
		return nil, fmt.Errorf("CLUT cannot have %d outputs: %w", num_outputs, ErrInvalidTag)
	}
	c := &CLUT{nInput: num_inputs, nOutput: num_outputs, Precision: 2}
	g := make([]int, num_inputs)
	for i := range g {
		g[i] = grid_points[min(i, len(grid_points)-1)]
	}
	if err := c.Init(g); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *CLUT) Inputs() int  { return c.nInput }
func (c *CLUT) Outputs() int { return c.nOutput }

// DimSize returns the stride, in samples, of each input axis.
func (c *CLUT) DimSize() []int { return c.dimSize }

// NumPoints is the number of grid nodes.
func (c *CLUT) NumPoints() int {
	if len(c.dimSize) == 0 {
		return 0
	}
	return c.GridPoints[0] * c.dimSize[0] / c.nOutput
}

// clut_samples returns the number of samples a table with the given grid
// and output count holds, without allocating it.
func clut_samples(grid_points []int, num_outputs int) (int, error) {
	total := num_outputs
	for _, g := range grid_points {
		if g < 1 {
			return 0, fmt.Errorf("CLUT with grid %v is not allowed: %w", grid_points, ErrInvalidTag)
		}
		total *= g
		if total > MaxCLUTSamples {
			return 0, fmt.Errorf("CLUT with grid %v is too large: %w", grid_points, ErrInvalidTag)
		}
	}
	return total, nil
}

// Init sets the grid sizes and allocates zeroed sample storage.
func (c *CLUT) Init(grid_points []int) error {
	if len(grid_points) != c.nInput {
		return fmt.Errorf("CLUT needs %d grid sizes got %d: %w", c.nInput, len(grid_points), ErrInvalidTag)
	}
	total, err := clut_samples(grid_points, c.nOutput)
	if err != nil {
		return err
	}
	c.GridPoints = append([]int(nil), grid_points...)
	c.dimSize = make([]int, c.nInput)
	c.dimSize[c.nInput-1] = c.nOutput
	for i := c.nInput - 1; i > 0; i-- {
		c.dimSize[i-1] = c.dimSize[i] * c.GridPoints[i]
	}
	c.Data = make([]Float, total)
	c.begun = false
	return nil
}

// init_from_tag is Init for tables read from a tag, where the samples, of
// width bytes each, must fit in the available bytes.
func (c *CLUT) init_from_tag(grid_points []int, width int, available int64) error {
	if len(grid_points) != c.nInput {
		return fmt.Errorf("CLUT needs %d grid sizes got %d: %w", c.nInput, len(grid_points), ErrInvalidTag)
	}
	total, err := clut_samples(grid_points, c.nOutput)
	if err != nil {
		return err
	}
	if needed := int64(total) * int64(width); needed > available {
		return fmt.Errorf("CLUT with grid %v needs %d bytes but only %d are left: %w", grid_points, needed, available, ErrTagTooSmall)
	}
	return c.Init(grid_points)
}

// Begin precomputes the corner offsets used by interpolation. Every axis must
// have at least two grid points.
func (c *CLUT) Begin() error {
	if c.begun {
		return nil
	}
	c.maxGridPoint = make([]int, c.nInput)
	for i, g := range c.GridPoints {
		if g < 2 {
			return fmt.Errorf("CLUT axis %d has %d grid points, at least 2 are needed: %w", i, g, ErrInvalidTag)
		}
		c.maxGridPoint[i] = g - 1
	}
	c.nodes = 1 << c.nInput
	c.offsets = make([]int, c.nodes)
	for j := range c.nodes {
		off := 0
		for i := range c.nInput {
			if j&(1<<(c.nInput-1-i)) != 0 {
				off += c.dimSize[i]
			}
		}
		c.offsets[j] = off
	}
	if c.nInput >= 3 {
		c.n001 = c.dimSize[0]
		c.n010 = c.dimSize[1]
		c.n011 = c.n001 + c.n010
		c.n100 = c.dimSize[2]
		c.n101 = c.n100 + c.n001
		c.n110 = c.n100 + c.n010
		c.n111 = c.n110 + c.n001
	}
	c.begun = true
	return nil
}

// GridIndex returns the offset of the first output of the node with the given
// per axis indices.
func (c *CLUT) GridIndex(idx ...int) int {
	off := 0
	for i, x := range idx {
		off += x * c.dimSize[i]
	}
	return off
}

// Fill calls f for every grid node with the normalized coordinates of the
// node and the node's output samples.
func (c *CLUT) Fill(f func(in, out []Float)) {
	idx := make([]int, c.nInput)
	in := make([]Float, c.nInput)
	for node := range c.NumPoints() {
		rem := node
		for i := c.nInput - 1; i >= 0; i-- {
			idx[i] = rem % c.GridPoints[i]
			rem /= c.GridPoints[i]
			in[i] = Float(idx[i]) / Float(c.GridPoints[i]-1)
		}
		off := node * c.nOutput
		f(in, c.Data[off:off+c.nOutput])
	}
	c.begun = false
}

func (c *CLUT) read_data(r *iccio.Reader, precision int) (err error) {
	c.Precision = precision
	switch precision {
	case 1:
		_, err = iccio.Read8Floats(r, c.Data)
	case 2:
		_, err = iccio.Read16Floats(r, c.Data)
	case 4:
		_, err = iccio.ReadFloat32s(r, c.Data)
	default:
		err = fmt.Errorf("CLUT precision %d is not supported: %w", precision, ErrInvalidTag)
	}
	return
}

func (c *CLUT) write_data(w *iccio.Writer, precision int) (err error) {
	switch precision {
	case 1:
		_, err = iccio.Write8Floats(w, c.Data)
	case 2:
		_, err = iccio.Write16Floats(w, c.Data)
	case 4:
		_, err = iccio.WriteFloat32s(w, c.Data)
	default:
		err = fmt.Errorf("CLUT precision %d is not supported: %w", precision, ErrInvalidTag)
	}
	return
}

// read_grid reads the 16 byte grid size array used by mAB, mBA and the
// multi process CLUT element.
func (c *CLUT) read_grid(r *iccio.Reader) ([]int, error) {
	var g [16]uint8
	if _, err := r.Read8s(g[:]); err != nil {
		return nil, err
	}
	grid := make([]int, c.nInput)
	for i := range grid {
		grid[i] = int(g[i])
	}
	return grid, nil
}

func (c *CLUT) write_grid(w *iccio.Writer) error {
	var g [16]uint8
	for i, x := range c.GridPoints {
		g[i] = uint8(x)
	}
	_, err := w.Write8s(g[:])
	return err
}

// read_lut_ab reads a CLUT as embedded in mAB and mBA tags, data runs from
// the start of the CLUT to the end of the tag.
func (c *CLUT) read_lut_ab(data []byte) error {
	if len(data) < 20 {
		return fmt.Errorf("CLUT header of %d bytes: %w", len(data), ErrTagTooSmall)
	}
	r := iccio.NewBytesReader(data)
	grid, err := c.read_grid(r)
	if err != nil {
		return err
	}
	var p [4]uint8
	if _, err := r.Read8s(p[:]); err != nil {
		return err
	}
	precision := int(p[0])
	if precision != 1 && precision != 2 {
		return fmt.Errorf("CLUT precision %d is not supported: %w", precision, ErrInvalidTag)
	}
	if err = c.init_from_tag(grid, precision, int64(len(data)-20)); err != nil {
		return err
	}
	return c.read_data(r, precision)
}

func (c *CLUT) write_lut_ab(w *iccio.Writer) error {
	if err := c.write_grid(w); err != nil {
		return err
	}
	precision := IfElse(c.Precision == 1, 1, 2)
	if _, err := w.Write8s([]uint8{uint8(precision), 0, 0, 0}); err != nil {
		return err
	}
	if err := c.write_data(w, precision); err != nil {
		return err
	}
	return w.Align32()
}

func (c *CLUT) Describe(sb *strings.Builder) {
	fmt.Fprintf(sb, "CLUT: Input Channels = %d, Output Channels = %d\nGrid Points = %v\n", c.nInput, c.nOutput, c.GridPoints)
	const limit = 4096
	idx := make([]int, c.nInput)
	for node := range min(c.NumPoints(), limit) {
		rem := node
		for i := c.nInput - 1; i >= 0; i-- {
			idx[i] = rem % c.GridPoints[i]
			rem /= c.GridPoints[i]
		}
		fmt.Fprintf(sb, "%v", idx)
		for _, v := range c.Data[node*c.nOutput : (node+1)*c.nOutput] {
			fmt.Fprintf(sb, " %.4f", v)
		}
		sb.WriteString("\n")
	}
	if c.NumPoints() > limit {
		fmt.Fprintf(sb, "... %d more grid points\n", c.NumPoints()-limit)
	}
}

func (c *CLUT) Validate(sig Signature, rep *Report) Severity {
	rv := ValidateOK
	for i, g := range c.GridPoints {
		if g < 2 {
			rv = max(rv, rep.Add(ValidateCriticalError, sig, "CLUT axis %d has %d grid points, at least 2 are required.", i, g))
		}
	}
	if len(c.Data) != c.NumPoints()*c.nOutput {
		rv = max(rv, rep.Add(ValidateCriticalError, sig, "CLUT sample count does not match its grid."))
	}
	return rv
}

func (c *CLUT) Clone() *CLUT {
	ans := *c
	ans.GridPoints = append([]int(nil), c.GridPoints...)
	ans.Data = append([]Float(nil), c.Data...)
	ans.dimSize = append([]int(nil), c.dimSize...)
	ans.begun = false
	return &ans
}
