// Package logfile parses the textual output LAMMPS writes to stdout
// (conventionally retrieved as lammps.out). The file is semi-structured and
// its layout shifts with the input script: every run or minimize command
// opens a thermo table whose columns follow the thermo_style of the moment,
// minimizations append a stats block, and errors abort the file mid-table.
// The parser is a line-oriented state machine that tolerates truncated
// output, returning everything recovered up to the cut.
package logfile

import (
	"bufio"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// RunError is an error banner emitted by LAMMPS, with the echoed input
// command that triggered it when LAMMPS reported one.
type RunError struct {
	Message     string
	LastCommand string
}

// Minimization holds the stats block LAMMPS prints after a minimize command.
type Minimization struct {
	StopCriterion            string
	EnergyInitial            float64
	EnergyNextToLast         float64
	EnergyFinal              float64
	EnergyRelativeDifference float64
	ForceTwoNormInitial      float64
	ForceTwoNormFinal        float64
	ForceMaxInitial          float64
	ForceMaxFinal            float64
	LineSearchAlpha          float64
	MaxAtomMove              float64
	Iterations               int
	ForceEvaluations         int
}

// Report is everything recovered from a lammps.out file.
type Report struct {
	UnitsStyle       string
	TotalWallTime    string
	TotalWallSeconds float64
	StepsPerSecond   []float64
	Binsize          float64
	Bins             []int
	Minimization     *Minimization
	Errors           []RunError
	Warnings         []string
	Series           *Series
	// Complete reports whether the epilogue (Total wall time) was reached;
	// false means the run crashed, was killed or is still going.
	Complete bool
}

// Failed reports whether LAMMPS emitted any error banner.
func (R *Report) Failed() bool {
	return len(R.Errors) > 0
}

var (
	performanceRe = regexp.MustCompile(`^Performance:.*\s([0-9.eE+-]+)\s+timesteps/s`)
	binsRe        = regexp.MustCompile(`binsize = ([0-9.eE+-]+), bins = (\d+) (\d+) (\d+)`)
)

// ParseFile parses a lammps.out file on disk.
func ParseFile(name string) (*Report, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, Error{message: err.Error(), filename: name, deco: []string{"ParseFile"}}
	}
	defer f.Close()
	report, err := Parse(f)
	if err != nil {
		if e, ok := err.(Error); ok {
			e.filename = name
			return report, e
		}
	}
	return report, err
}

// Parse scans a lammps.out stream. The returned report is never nil: on a
// malformed tail everything parsed before the problem is still returned.
func Parse(r io.Reader) (*Report, error) {
	p := &parser{report: &Report{Series: NewSeries()}}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		p.line(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return p.report, Error{message: err.Error(), deco: []string{"Parse"}}
	}
	return p.report, nil
}

type parser struct {
	report *Report

	columns        []string // nil when outside a thermo table
	awaitLastCmd   bool
	awaitEnergies  bool
	minStatsActive bool
}

func (p *parser) line(raw string) {
	line := strings.TrimSpace(raw)
	if line == "" {
		return
	}

	if p.awaitLastCmd {
		p.awaitLastCmd = false
		if strings.HasPrefix(line, "Last command:") {
			last := &p.report.Errors[len(p.report.Errors)-1]
			last.LastCommand = strings.TrimSpace(strings.TrimPrefix(line, "Last command:"))
			return
		}
	}
	if p.awaitEnergies {
		p.awaitEnergies = false
		if vals, err := parseFloats(line); err == nil && len(vals) == 3 {
			p.setEnergies(vals)
			return
		}
	}

	switch {
	case strings.HasPrefix(line, "ERROR"):
		p.report.Errors = append(p.report.Errors, RunError{Message: line})
		p.awaitLastCmd = true
		p.columns = nil
		return
	case strings.HasPrefix(line, "WARNING"):
		p.report.Warnings = append(p.report.Warnings, line)
		return
	}

	if p.columns != nil {
		p.tableLine(line)
		return
	}
	if p.minStatsActive && p.minimizationLine(line) {
		return
	}

	switch {
	case strings.HasPrefix(line, "units "):
		if fields := strings.Fields(line); len(fields) >= 2 {
			p.report.UnitsStyle = fields[1]
		}
	case strings.HasPrefix(line, "Total wall time:"):
		fields := strings.Fields(line)
		p.report.TotalWallTime = fields[len(fields)-1]
		p.report.TotalWallSeconds = wallSeconds(p.report.TotalWallTime)
		p.report.Complete = true
	case strings.HasPrefix(line, "Minimization stats:"):
		p.report.Minimization = &Minimization{}
		p.minStatsActive = true
	default:
		if m := performanceRe.FindStringSubmatch(line); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				p.report.StepsPerSecond = append(p.report.StepsPerSecond, v)
			}
			return
		}
		if m := binsRe.FindStringSubmatch(line); m != nil {
			p.report.Binsize, _ = strconv.ParseFloat(m[1], 64)
			p.report.Bins = nil
			for _, tok := range m[2:] {
				n, _ := strconv.Atoi(tok)
				p.report.Bins = append(p.report.Bins, n)
			}
			return
		}
		if cols, ok := thermoHeader(line); ok {
			p.columns = cols
		}
	}
}

// tableLine consumes one line while inside a thermo table. Numeric rows are
// appended to the series; "Loop time of" closes the table; anything else
// means the table was cut short (crash, wall-clock kill) and the line is
// handed back to the normal scanner state.
func (p *parser) tableLine(line string) {
	if strings.HasPrefix(line, "Loop time of") {
		p.columns = nil
		return
	}
	vals, err := parseFloats(line)
	if err == nil && len(vals) == len(p.columns) {
		p.report.Series.Append(p.columns, vals)
		return
	}
	p.columns = nil
	p.line(line)
}

func (p *parser) minimizationLine(line string) bool {
	m := p.report.Minimization
	key, rest, found := strings.Cut(line, "=")
	if !found {
		p.minStatsActive = false
		return false
	}
	key = strings.TrimSpace(key)
	rest = strings.TrimSpace(rest)
	switch key {
	case "Stopping criterion":
		m.StopCriterion = rest
	case "Energy initial, next-to-last, final":
		vals, err := parseFloats(rest)
		if err == nil && len(vals) == 3 {
			p.setEnergies(vals)
		} else {
			// values wrapped to the next line
			p.awaitEnergies = true
		}
	case "Force two-norm initial, final":
		if vals, err := parseFloats(rest); err == nil && len(vals) == 2 {
			m.ForceTwoNormInitial, m.ForceTwoNormFinal = vals[0], vals[1]
		}
	case "Force max component initial, final":
		if vals, err := parseFloats(rest); err == nil && len(vals) == 2 {
			m.ForceMaxInitial, m.ForceMaxFinal = vals[0], vals[1]
		}
	case "Final line search alpha, max atom move":
		if vals, err := parseFloats(rest); err == nil && len(vals) == 2 {
			m.LineSearchAlpha, m.MaxAtomMove = vals[0], vals[1]
		}
	case "Iterations, force evaluations":
		if vals, err := parseFloats(rest); err == nil && len(vals) == 2 {
			m.Iterations, m.ForceEvaluations = int(vals[0]), int(vals[1])
		}
		p.minStatsActive = false
	default:
		p.minStatsActive = false
		return false
	}
	return true
}

func (p *parser) setEnergies(vals []float64) {
	m := p.report.Minimization
	m.EnergyInitial, m.EnergyNextToLast, m.EnergyFinal = vals[0], vals[1], vals[2]
	diff := math.Abs(m.EnergyFinal - m.EnergyNextToLast)
	if m.EnergyFinal != 0 {
		m.EnergyRelativeDifference = diff / math.Abs(m.EnergyFinal)
	} else {
		m.EnergyRelativeDifference = diff
	}
}

var headerSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// thermoHeader recognizes the column header of a thermo table: the first
// column is always Step (the input generator forces it there) and no token
// parses as a number.
func thermoHeader(line string) ([]string, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != "Step" {
		return nil, false
	}
	cols := make([]string, len(fields))
	for i, f := range fields {
		if _, err := strconv.ParseFloat(f, 64); err == nil {
			return nil, false
		}
		cols[i] = headerSanitizer.ReplaceAllString(f, "__")
	}
	return cols, true
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

// wallSeconds converts the h:mm:ss format of the Total wall time line.
// Returns -1 when the format is not recognized.
func wallSeconds(s string) float64 {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return -1
	}
	var total float64
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return -1
		}
		total = total*60 + float64(n)
	}
	return total
}
