// Package tail follows an append-only log file, delivering new lines as
// they are written. It waits for the file to appear, skips history on
// seekable files, and survives rotation and truncation.
package tail

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Config holds tailer configuration.
type Config struct {
	Path string
	// PollInterval bounds how long a read can wait when no filesystem
	// event arrives. fsnotify misses events on some mounts.
	PollInterval time.Duration
	// WaitExist is the retry interval while the file does not exist yet.
	WaitExist time.Duration
}

// DefaultConfig returns the reference configuration for a log path.
func DefaultConfig(path string) Config {
	return Config{
		Path:         path,
		PollInterval: 100 * time.Millisecond,
		WaitExist:    2 * time.Second,
	}
}

// Tailer follows a single log file.
type Tailer struct {
	cfg Config
}

// New creates a Tailer with the given config.
func New(cfg Config) *Tailer {
	return &Tailer{cfg: cfg}
}

// Follow streams lines appended to the file. The returned channel is closed
// when ctx is cancelled. Lines present before Follow starts are skipped on
// seekable files; non-seekable sources (named pipes) stream from their
// current position.
func (t *Tailer) Follow(ctx context.Context) <-chan string {
	lines := make(chan string)
	go t.run(ctx, lines)
	return lines
}

func (t *Tailer) run(ctx context.Context, lines chan<- string) {
	defer close(lines)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn().Err(err).Msg("fsnotify unavailable, polling only")
		watcher = nil
	} else {
		defer watcher.Close()
		if err := watcher.Add(filepath.Dir(t.cfg.Path)); err != nil {
			log.Warn().Err(err).Str("path", t.cfg.Path).Msg("cannot watch log directory, polling only")
			watcher.Close()
			watcher = nil
		}
	}

	file := t.waitOpen(ctx, watcher)
	if file == nil {
		return
	}
	defer func() { file.Close() }()

	seekable := true
	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		log.Warn().Str("path", t.cfg.Path).Msg("log stream is not seekable, reading from current position")
		seekable = false
	}

	reader := bufio.NewReader(file)
	var partial strings.Builder

	for {
		chunk, err := reader.ReadString('\n')
		if err == nil {
			line := partial.String() + strings.TrimRight(chunk, "\r\n")
			partial.Reset()
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
			continue
		}

		// Incomplete line: hold it until the rest arrives.
		partial.WriteString(chunk)
		if err != io.EOF {
			log.Debug().Err(err).Str("path", t.cfg.Path).Msg("read error, waiting")
		}

		if !t.waitMore(ctx, watcher) {
			return
		}

		if seekable {
			if reopened := t.reopenIfRotated(file, reader); reopened != nil {
				file.Close()
				file = reopened
				reader = bufio.NewReader(file)
				partial.Reset()
			}
		}
	}
}

// waitOpen blocks until the file exists and opens it. Returns nil when ctx
// is cancelled.
func (t *Tailer) waitOpen(ctx context.Context, watcher *fsnotify.Watcher) *os.File {
	logged := false
	for {
		file, err := os.Open(t.cfg.Path)
		if err == nil {
			log.Info().Str("path", t.cfg.Path).Msg("tailing log file")
			return file
		}
		if !logged {
			log.Info().Str("path", t.cfg.Path).Msg("waiting for log file to be created")
			logged = true
		}
		if !t.wait(ctx, watcher, t.cfg.WaitExist) {
			return nil
		}
	}
}

// waitMore blocks until new data may be available. Returns false when ctx is
// cancelled.
func (t *Tailer) waitMore(ctx context.Context, watcher *fsnotify.Watcher) bool {
	return t.wait(ctx, watcher, t.cfg.PollInterval)
}

func (t *Tailer) wait(ctx context.Context, watcher *fsnotify.Watcher, timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	if watcher == nil {
		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
			return true
		}
	}

	for {
		select {
		case <-ctx.Done():
			return false
		case event := <-watcher.Events:
			if filepath.Clean(event.Name) == filepath.Clean(t.cfg.Path) {
				return true
			}
		case err := <-watcher.Errors:
			log.Debug().Err(err).Msg("fsnotify error")
			return true
		case <-timer.C:
			return true
		}
	}
}

// reopenIfRotated returns a fresh handle positioned at the start of the file
// when the path now refers to a different file or the file shrank below the
// consumed offset. Returns nil when the current handle is still good.
func (t *Tailer) reopenIfRotated(file *os.File, reader *bufio.Reader) *os.File {
	current, err := file.Stat()
	if err != nil {
		return nil
	}
	onDisk, err := os.Stat(t.cfg.Path)
	if err != nil {
		// Removed; keep the handle and wait for recreation.
		return nil
	}

	rotated := !os.SameFile(current, onDisk)
	if !rotated {
		pos, err := file.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil
		}
		consumed := pos - int64(reader.Buffered())
		rotated = onDisk.Size() < consumed
	}
	if !rotated {
		return nil
	}

	reopened, err := os.Open(t.cfg.Path)
	if err != nil {
		return nil
	}
	log.Info().Str("path", t.cfg.Path).Msg("log file rotated, reopening")
	return reopened
}
