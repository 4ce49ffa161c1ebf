package logfile

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Row is one thermo line seen while following a growing log file.
type Row struct {
	Columns []string
	Values  []float64
}

// Step returns the timestep of the row.
func (r Row) Step() float64 {
	for i, col := range r.Columns {
		if col == "Step" {
			return r.Values[i]
		}
	}
	return -1
}

// Follow tails a lammps.out file that is still being written, sending every
// thermo row over rows as it appears. It watches the containing directory,
// so the file may not exist yet when Follow is called. It returns when the
// epilogue is seen, the context ends, or the watch fails; rows is closed on
// return.
func Follow(ctx context.Context, path string, rows chan<- Row) error {
	defer close(rows)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return Error{message: err.Error(), filename: path, deco: []string{"Follow"}}
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return Error{message: err.Error(), filename: path, deco: []string{"Follow"}}
	}

	var f *os.File
	defer func() {
		if f != nil {
			f.Close()
		}
	}()

	var pending strings.Builder
	var columns []string
	buf := make([]byte, 64*1024)

	drain := func() (done bool) {
		if f == nil {
			var err error
			if f, err = os.Open(path); err != nil {
				return false
			}
		}
		for {
			n, err := f.Read(buf)
			if n > 0 {
				pending.Write(buf[:n])
				text := pending.String()
				pending.Reset()
				for {
					line, rest, found := strings.Cut(text, "\n")
					if !found {
						// keep the partial tail for the next read
						pending.WriteString(line)
						break
					}
					text = rest
					if stop := followLine(line, &columns, rows, ctx); stop {
						return true
					}
				}
			}
			if err == io.EOF {
				return false
			}
			if err != nil {
				return true
			}
		}
	}

	if drain() {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != path {
				continue
			}
			if drain() {
				return nil
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			_ = err
		case <-time.After(500 * time.Millisecond):
			// fsnotify misses writes on some filesystems; poll as a fallback
			if drain() {
				return nil
			}
		}
	}
}

// followLine feeds one complete line to the follower state. It reports true
// when the run epilogue is reached.
func followLine(raw string, columns *[]string, rows chan<- Row, ctx context.Context) bool {
	line := strings.TrimSpace(raw)
	if line == "" {
		return false
	}
	if strings.HasPrefix(line, "Total wall time:") {
		return true
	}
	if cols, ok := thermoHeader(line); ok {
		*columns = cols
		return false
	}
	if *columns == nil {
		return false
	}
	if strings.HasPrefix(line, "Loop time of") {
		*columns = nil
		return false
	}
	vals, err := parseFloats(line)
	if err != nil || len(vals) != len(*columns) {
		return false
	}
	select {
	case rows <- Row{Columns: append([]string(nil), *columns...), Values: vals}:
	case <-ctx.Done():
		return true
	}
	return false
}
