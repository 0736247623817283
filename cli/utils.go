package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"go.viam.com/tagcal/logging"
)

var (
	warningPrefix = color.New(color.FgYellow, color.Bold)
	errorPrefix   = color.New(color.FgRed, color.Bold)
)

// Errorf prints a message prefixed with a bold red "Error: ".
func Errorf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, errorPrefix.Sprint("Error:")+" "+format+"\n", a...)
}

// printf prints a message with no prefix.
func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}

// warningf prints a message prefixed with a bold yellow "Warning: ".
func warningf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, warningPrefix.Sprint("Warning:")+" "+format+"\n", a...)
}

// newLogger builds the command's logger. Logs go to the app's error writer and, with --log-file, to a
// rotated file. The returned function flushes and closes everything.
func newLogger(c *cli.Context, name string) (logging.Logger, func() error) {
	logger := logging.NewBlankLogger(name)
	logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))
	if c.Bool(generalFlagDebug) {
		logger.SetLevel(logging.DEBUG)
	} else {
		logger.SetLevel(logging.WARN)
	}

	var closer io.Closer
	if path := c.Path(generalFlagLogFile); path != "" {
		var appender logging.ConsoleAppender
		appender, closer = logging.NewFileAppender(path)
		logger.AddAppender(appender)
	}
	return logger, func() error {
		err := logger.Sync()
		if closer != nil {
			err = multierr.Combine(err, closer.Close())
		}
		return err
	}
}

func formatVector(v [3]float64, precision int) string {
	parts := make([]string, 0, len(v))
	for _, x := range v {
		parts = append(parts, fmt.Sprintf("%.*f", precision, x))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
