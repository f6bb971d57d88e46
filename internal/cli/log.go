package cli

import (
	"os"

	"github.com/op/go-logging"
)

const formatSpec = "%{color:bold}%{level:6s}%{color:reset} %{module:-20s} | %{message}"

var log = logging.MustGetLogger("m2vdec")

// StartLogging installs a stderr backend for all modules. The decoder logs at
// INFO, or DEBUG when verbose is set.
func StartLogging(program string, verbose bool) {
	backend := logging.NewLogBackend(os.Stderr, program+": ", 0)
	formatter := logging.MustStringFormatter(formatSpec)
	formatted := logging.NewBackendFormatter(backend, formatter)
	leveled := logging.AddModuleLevel(formatted)

	level := logging.INFO
	if verbose {
		level = logging.DEBUG
	}
	leveled.SetLevel(level, "")
	logging.SetBackend(leveled)
}
