package input

import "strings"

// Error is the package's error type. It accumulates context as it travels
// up the call stack.
type Error struct {
	message  string
	filename string
	deco     []string
	critical bool
}

func (err Error) Error() string { return "lammpsinput: " + err.message }

// Decorate adds dec to the error's trail and returns the trail.
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

// FileName returns the file the error refers to, if any.
func (err Error) FileName() string { return err.filename }

// Critical reports whether the error invalidates the whole script.
func (err Error) Critical() bool { return err.critical }

// Trail returns the accumulated decorations as one string.
func (err Error) Trail() string { return strings.Join(err.deco, " ") }
