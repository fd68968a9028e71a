// Package logging configures the global zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	fileMaxSizeMB  = 10
	fileMaxBackups = 3
	fileMaxAgeDays = 28
)

// Setup points the global logger at w with human readable console output.
// Unknown levels fall back to info. A nil w means stderr.
func Setup(level string, w io.Writer) zerolog.Level {
	return setup(level, w, nil)
}

// SetupWithFile is Setup plus a rotating JSON log at path. An empty path
// behaves like Setup. The returned closer flushes the file.
func SetupWithFile(level string, w io.Writer, path string) (zerolog.Level, io.Closer) {
	if path == "" {
		return setup(level, w, nil), io.NopCloser(nil)
	}
	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    fileMaxSizeMB,
		MaxBackups: fileMaxBackups,
		MaxAge:     fileMaxAgeDays,
		Compress:   true,
	}
	return setup(level, w, file), file
}

func setup(level string, w io.Writer, file io.Writer) zerolog.Level {
	if w == nil {
		w = os.Stderr
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	var out io.Writer = consoleWriter(w)
	if file != nil {
		out = zerolog.MultiLevelWriter(out, file)
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return lvl
}

func consoleWriter(w io.Writer) zerolog.ConsoleWriter {
	f, ok := w.(*os.File)
	if ok && isatty.IsTerminal(f.Fd()) {
		return zerolog.ConsoleWriter{Out: colorable.NewColorable(f), TimeFormat: time.DateTime}
	}
	return zerolog.ConsoleWriter{Out: w, TimeFormat: time.DateTime, NoColor: true}
}
