package log

import (
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

const appName = "chattmpl"

// Logger is usable before Init; it writes warnings and errors to stderr.
var Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.WarnLevel).With().Timestamp().Logger()

// Init points Logger at stderr and the log file. debug wins over verbose.
func Init(verbose, debug bool, logFile string) {
	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: zerolog.TimeFormatUnix,
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}

	fileWriter, finalLogPath := openLogFile(logFile)

	writers := io.MultiWriter(consoleWriter, fileWriter)
	Logger = zerolog.New(writers).With().Timestamp().Logger().Level(Level(verbose, debug))

	zlog.Logger = Logger

	if finalLogPath != "" {
		Logger.Debug().Str("log_file_path", finalLogPath).Msg("Logger initialized.")
	} else {
		Logger.Debug().Msg("Logger initialized without a log file.")
	}
}

// Level maps the command line switches to a zerolog level.
func Level(verbose, debug bool) zerolog.Level {
	switch {
	case debug:
		return zerolog.DebugLevel
	case verbose:
		return zerolog.InfoLevel
	default:
		return zerolog.WarnLevel
	}
}

// DefaultPath follows the XDG spec and keeps the log in state home.
// https://specifications.freedesktop.org/basedir-spec/latest/#variables
func DefaultPath() string {
	xdgStateHome := os.Getenv("XDG_STATE_HOME")
	if xdgStateHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			zlog.Err(err).Msg("Failed to get user home directory, cannot set default log file path.")
			return ""
		}
		xdgStateHome = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(xdgStateHome, appName, appName+".log")
}

func openLogFile(logFile string) (io.Writer, string) {
	path := logFile
	if path == "" {
		path = DefaultPath()
	}
	if path == "" {
		return io.Discard, ""
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		zlog.Err(err).Str("path", path).Msg("Failed to create log directory.")
		return io.Discard, ""
	}

	handle, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		zlog.Err(err).Str("path", path).Msg("Failed to open log file.")
		return io.Discard, ""
	}
	return handle, path
}
