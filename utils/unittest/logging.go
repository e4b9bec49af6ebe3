package unittest

import (
	"flag"
	"io"
	"os"

	"github.com/rs/zerolog"
)

var verbose = flag.Bool("vv", false, "print debugging logs")

// Logger discards everything unless tests run with -vv, in which case debug
// logs go to stderr in console format.
func Logger() zerolog.Logger {
	var writer io.Writer = io.Discard
	if *verbose {
		writer = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	return zerolog.New(writer).Level(zerolog.DebugLevel).With().Timestamp().Logger()
}
