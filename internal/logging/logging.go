package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"bingo-live/internal/config"
)

var (
	mu  sync.Mutex
	out io.Writer = os.Stdout
)

// Init configures the global zerolog logger from LogConfig and returns
// a close function for the log file, if one is in use.
func Init(cfg config.LogConfig) func() {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var dst io.Writer = os.Stdout
	closeFn := func() {}
	if cfg.File != "" {
		if w, werr := newBoundedWriter(cfg.File, cfg.MaxMB); werr == nil {
			dst = w
			closeFn = func() { _ = w.Close() }
		}
	}
	setWriter(dst)
	if cfg.Pretty {
		dst = zerolog.ConsoleWriter{Out: dst}
	}

	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(dst).With().Timestamp().Logger()
	if cfg.SampleEvery > 1 {
		logger = logger.Sample(&zerolog.BasicSampler{N: uint32(cfg.SampleEvery)})
	}
	log.Logger = logger
	return closeFn
}

// Writer is the raw destination Init configured, for sharing with
// other log producers such as the HTTP request logger.
func Writer() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return out
}

func setWriter(w io.Writer) {
	mu.Lock()
	out = w
	mu.Unlock()
}
