/*
Package logging builds the process-wide zerolog logger.

Development gets the human console writer, everything else structured JSON
on stdout. Packages derive component loggers from the one returned here.
*/
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns the root logger for a process.
func New(service, environment string) zerolog.Logger {
	var output io.Writer = os.Stdout
	if environment == "development" {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	return zerolog.New(output).
		With().
		Timestamp().
		Str("service", service).
		Logger()
}
