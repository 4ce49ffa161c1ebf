package dump

import "fmt"

// Error reports a problem with a dump file or frame.
type Error struct {
	message  string
	filename string
	deco     []string
	critical bool
}

func (err Error) Error() string {
	if err.filename == "" {
		return fmt.Sprintf("dump error: %s", err.message)
	}
	return fmt.Sprintf("dump file %s error: %s", err.filename, err.message)
}

// Decorate adds new information to the error.
func (E Error) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

// FileName returns the file to which the failing dump was associated.
func (err Error) FileName() string { return err.filename }

// Format returns the format of the file associated to the error.
func (err Error) Format() string { return "lammpsdump" }

// Critical returns true if the error is critical, false otherwise.
func (err Error) Critical() bool { return err.critical }

type decorable interface {
	Decorate(string) []string
}

func errDecorate(err error, caller string) error {
	if d, ok := err.(decorable); ok {
		d.Decorate(caller)
	}
	return err
}
