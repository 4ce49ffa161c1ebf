package logfile

import "fmt"

// Error reports a problem reading or scanning a log file.
type Error struct {
	message  string
	filename string
	deco     []string
	critical bool
}

func (err Error) Error() string {
	if err.filename == "" {
		return fmt.Sprintf("logfile error: %s", err.message)
	}
	return fmt.Sprintf("logfile %s error: %s", err.filename, err.message)
}

// Decorate adds new information to the error.
func (E Error) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

// FileName returns the file associated to the error.
func (err Error) FileName() string { return err.filename }

// Critical returns true if the error is critical, false otherwise.
func (err Error) Critical() bool { return err.critical }
