// Package dump reads LAMMPS trajectory dump files. The reader is stateful in
// the manner of a trajectory object: frames are pulled one at a time with
// Next until ErrNoMoreFrames, so arbitrarily long dumps can be scanned
// without holding more than one frame in memory. Truncated output from a
// killed run yields every complete frame and then a clean end-of-trajectory.
package dump

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// ErrNoMoreFrames signals the normal end of a trajectory.
var ErrNoMoreFrames = errors.New("no more frames")

// Frame is one snapshot of a dump file. Columns holds the per-atom fields by
// sanitized field name, each a column of NAtoms raw tokens; use Floats to
// decode a numeric field.
type Frame struct {
	Timestep  int
	NAtoms    int
	Cell      *mat.Dense // rows are the lattice vectors
	PBC       [3]string  // lo/hi flag pairs: pp, ff, sm...
	Triclinic bool
	Fields    []string
	Columns   map[string][]string
	Lines     []string // raw dump text of the frame, without trailing newline
}

// Floats decodes a per-atom field as float64 values.
func (F *Frame) Floats(field string) ([]float64, error) {
	col, ok := F.Columns[field]
	if !ok {
		return nil, Error{message: fmt.Sprintf("no field %q in frame", field), deco: []string{"Floats"}}
	}
	out := make([]float64, len(col))
	for i, tok := range col {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, Error{message: fmt.Sprintf("field %q row %d: %v", field, i, err), deco: []string{"Floats"}}
		}
		out[i] = v
	}
	return out, nil
}

// Positions returns an NAtoms x 3 matrix with the given position fields,
// defaulting to x, y and z.
func (F *Frame) Positions(fields ...string) (*mat.Dense, error) {
	if len(fields) == 0 {
		fields = []string{"x", "y", "z"}
	}
	if len(fields) != 3 {
		return nil, Error{message: "exactly three position fields required", deco: []string{"Positions"}}
	}
	pos := mat.NewDense(F.NAtoms, 3, nil)
	for j, field := range fields {
		col, err := F.Floats(field)
		if err != nil {
			return nil, errDecorate(err, "Positions")
		}
		for i, v := range col {
			pos.Set(i, j, v)
		}
	}
	return pos, nil
}

// Reader scans a dump stream frame by frame.
type Reader struct {
	scanner  *bufio.Scanner
	filename string
	peeked   *string
	done     bool
}

// NewReader wraps an io.Reader holding dump-formatted text.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &Reader{scanner: scanner}
}

// Open opens a dump file for reading. The caller owns the returned closer.
func Open(name string) (*Reader, io.Closer, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, nil, Error{message: err.Error(), filename: name, deco: []string{"Open"}}
	}
	r := NewReader(f)
	r.filename = name
	return r, f, nil
}

func (D *Reader) nextLine() (string, bool) {
	if D.peeked != nil {
		line := *D.peeked
		D.peeked = nil
		return line, true
	}
	if !D.scanner.Scan() {
		return "", false
	}
	return D.scanner.Text(), true
}

func (D *Reader) unread(line string) {
	D.peeked = &line
}

var fieldSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// Next reads the next frame. It returns ErrNoMoreFrames once the stream is
// exhausted, which includes the case of a final frame cut short by a crashed
// or killed run.
func (D *Reader) Next() (*Frame, error) {
	if D.done {
		return nil, ErrNoMoreFrames
	}
	frame, err := D.parseFrame()
	if err != nil {
		D.done = true
	}
	return frame, err
}

// ReadAll drains the reader, returning every complete frame.
func (D *Reader) ReadAll() ([]*Frame, error) {
	var frames []*Frame
	for {
		frame, err := D.Next()
		if errors.Is(err, ErrNoMoreFrames) {
			return frames, nil
		}
		if err != nil {
			return frames, err
		}
		frames = append(frames, frame)
	}
}

func (D *Reader) parseFrame() (*Frame, error) {
	// find the TIMESTEP item; anything before it is inter-frame noise
	var lines []string
	for {
		line, ok := D.nextLine()
		if !ok {
			return nil, ErrNoMoreFrames
		}
		if strings.Contains(line, "ITEM: TIMESTEP") {
			lines = append(lines, line)
			break
		}
	}
	frame := &Frame{Columns: make(map[string][]string)}

	tsLine, ok := D.nextLine()
	if !ok {
		return nil, ErrNoMoreFrames
	}
	lines = append(lines, tsLine)
	ts, err := strconv.Atoi(strings.TrimSpace(tsLine))
	if err != nil {
		return nil, Error{message: "malformed TIMESTEP value: " + tsLine, filename: D.filename, deco: []string{"Next"}}
	}
	frame.Timestep = ts

	header, ok := D.nextLine()
	if !ok {
		return nil, ErrNoMoreFrames
	}
	lines = append(lines, header)
	if !strings.Contains(header, "ITEM: NUMBER OF ATOMS") {
		return nil, Error{message: "expected ITEM: NUMBER OF ATOMS, got: " + header, filename: D.filename, deco: []string{"Next"}}
	}
	nLine, ok := D.nextLine()
	if !ok {
		return nil, ErrNoMoreFrames
	}
	lines = append(lines, nLine)
	natoms, err := strconv.Atoi(strings.TrimSpace(nLine))
	if err != nil {
		return nil, Error{message: "malformed atom count: " + nLine, filename: D.filename, deco: []string{"Next"}}
	}
	frame.NAtoms = natoms

	boxHeader, ok := D.nextLine()
	if !ok {
		return nil, ErrNoMoreFrames
	}
	lines = append(lines, boxHeader)
	if !strings.Contains(boxHeader, "ITEM: BOX BOUNDS") {
		return nil, Error{message: "expected ITEM: BOX BOUNDS, got: " + boxHeader, filename: D.filename, deco: []string{"Next"}}
	}
	frame.Triclinic = strings.Contains(boxHeader, "xy xz yz")
	if err := parsePBC(boxHeader, frame); err != nil {
		return nil, err
	}

	bounds := make([][]float64, 3)
	for i := 0; i < 3; i++ {
		line, ok := D.nextLine()
		if !ok {
			return nil, ErrNoMoreFrames
		}
		lines = append(lines, line)
		row, err := parseFloats(line)
		if err != nil || len(row) < 2 {
			return nil, Error{message: "malformed box bounds: " + line, filename: D.filename, deco: []string{"Next"}}
		}
		if len(row) == 2 {
			row = append(row, 0)
		}
		bounds[i] = row
	}
	frame.Cell = cellFromBounds(bounds)

	atomsHeader, ok := D.nextLine()
	if !ok {
		return nil, ErrNoMoreFrames
	}
	lines = append(lines, atomsHeader)
	if !strings.Contains(atomsHeader, "ITEM: ATOMS") {
		return nil, Error{message: "expected ITEM: ATOMS, got: " + atomsHeader, filename: D.filename, deco: []string{"Next"}}
	}
	for _, raw := range strings.Fields(atomsHeader)[2:] {
		frame.Fields = append(frame.Fields, fieldSanitizer.ReplaceAllString(raw, "__"))
	}
	for _, field := range frame.Fields {
		frame.Columns[field] = make([]string, 0, natoms)
	}

	for i := 0; i < natoms; i++ {
		line, ok := D.nextLine()
		if !ok {
			// truncated mid-frame: drop the partial frame
			return nil, ErrNoMoreFrames
		}
		if strings.Contains(line, "ITEM: TIMESTEP") {
			// short frame, the next one already started
			D.unread(line)
			return nil, ErrNoMoreFrames
		}
		tokens := strings.Fields(line)
		if len(tokens) != len(frame.Fields) {
			if _, more := D.nextLine(); !more {
				// last line cut mid-write by a killed run
				return nil, ErrNoMoreFrames
			}
			return nil, Error{message: fmt.Sprintf("atom row %d has %d fields, want %d", i, len(tokens), len(frame.Fields)), filename: D.filename, deco: []string{"Next"}}
		}
		lines = append(lines, line)
		for j, field := range frame.Fields {
			frame.Columns[field] = append(frame.Columns[field], tokens[j])
		}
	}
	frame.Lines = lines
	return frame, nil
}

// parsePBC pulls the boundary flag pairs out of a BOX BOUNDS header. The
// header carries optional tilt keywords before the three flag pairs, so the
// flags are always the last three tokens.
func parsePBC(header string, frame *Frame) error {
	tokens := strings.Fields(header)
	if len(tokens) < 6 {
		// BOX BOUNDS without flags; LAMMPS always writes them, but be lenient
		frame.PBC = [3]string{"pp", "pp", "pp"}
		return nil
	}
	flags := tokens[len(tokens)-3:]
	for i, flag := range flags {
		frame.PBC[i] = flag
	}
	return nil
}

func parseFloats(line string) ([]float64, error) {
	fields := strings.Fields(line)
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// cellFromBounds recovers the cell vectors from the dumped bounding box.
// LAMMPS widens the bounds of a triclinic box by the tilt factors, so the
// original lo/hi values have to be recovered before building the cell
// (see the LAMMPS Howto_triclinic documentation).
func cellFromBounds(bounds [][]float64) *mat.Dense {
	xy, xz, yz := bounds[0][2], bounds[1][2], bounds[2][2]

	xlo := bounds[0][0] - math.Min(0, math.Min(xy, math.Min(xz, xy+xz)))
	xhi := bounds[0][1] - math.Max(0, math.Max(xy, math.Max(xz, xy+xz)))
	ylo := bounds[1][0] - math.Min(0, yz)
	yhi := bounds[1][1] - math.Max(0, yz)
	zlo := bounds[2][0]
	zhi := bounds[2][1]

	return mat.NewDense(3, 3, []float64{
		xhi - xlo, 0, 0,
		xy, yhi - ylo, 0,
		xz, yz, zhi - zlo,
	})
}
