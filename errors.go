package lammps

import (
	"fmt"
	"strings"
)

// Error is the error convention shared by the parsing subpackages. It keeps
// the file the problem was found in plus a decoration trail of the call sites
// the error bubbled through.
type Error struct {
	message  string
	filename string
	deco     []string
	critical bool
}

// NewError builds an Error for the given file with an initial decoration.
func NewError(message, filename string, deco ...string) Error {
	return Error{message: message, filename: filename, deco: deco}
}

func (err Error) Error() string {
	if err.filename == "" {
		return err.message
	}
	return fmt.Sprintf("%s: %s", err.filename, err.message)
}

// Decorate adds new information to the error and returns the trail.
func (E Error) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

// FileName returns the file associated to the error, if any.
func (err Error) FileName() string { return err.filename }

// Critical returns true if the error should abort the whole job.
func (err Error) Critical() bool { return err.critical }

// Trail returns the decoration trail joined for display.
func (err Error) Trail() string { return strings.Join(err.deco, "/") }
