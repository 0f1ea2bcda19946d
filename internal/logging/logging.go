package logging

import (
	"io"
	"log"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
)

// New returns a logger writing to w. Info logs at V(n) are shown when
// verbosity >= n; errors are always shown.
func New(w io.Writer, name string, verbosity int) logr.Logger {
	std := log.New(w, "", log.LstdFlags)
	stdr.SetVerbosity(verbosity)
	return stdr.NewWithOptions(std, stdr.Options{LogCaller: stdr.None}).WithName(name)
}
