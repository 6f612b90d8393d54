package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultPollInterval bounds how long a tail waits when the watcher misses
// an event, as it can on network filesystems.
const defaultPollInterval = 500 * time.Millisecond

// tailReader reads a file that is still being written. At the end of the
// file it blocks until the file grows, then continues. It returns io.EOF
// once ctx is done or the file is removed or renamed, so a consumer sees a
// normal end of input.
type tailReader struct {
	ctx     context.Context
	f       *os.File
	watcher *fsnotify.Watcher
	poll    time.Duration
	offset  int64
	gone    bool
}

func openTail(ctx context.Context, path string) (*tailReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("follow: %w", err)
	}
	if err := w.Add(path); err != nil {
		w.Close()
		f.Close()
		return nil, fmt.Errorf("follow: watch %s: %w", path, err)
	}
	return &tailReader{ctx: ctx, f: f, watcher: w, poll: defaultPollInterval}, nil
}

func (t *tailReader) Read(p []byte) (int, error) {
	for {
		n, err := t.f.Read(p)
		t.offset += int64(n)
		if n > 0 {
			return n, nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, err
		}
		// Everything written before the stop condition has been read by now.
		if t.gone || t.ctx.Err() != nil {
			return 0, io.EOF
		}
		if err := t.wait(); err != nil {
			return 0, err
		}
	}
}

// wait blocks until the file may have grown.
func (t *tailReader) wait() error {
	timer := time.NewTimer(t.poll)
	defer timer.Stop()

	select {
	case <-t.ctx.Done():
		return nil
	case ev, ok := <-t.watcher.Events:
		if !ok || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
			t.gone = true
			return nil
		}
	case err, ok := <-t.watcher.Errors:
		if !ok {
			t.gone = true
			return nil
		}
		return fmt.Errorf("follow: %w", err)
	case <-timer.C:
	}
	return t.rewindIfTruncated()
}

// rewindIfTruncated restarts from the top when the file shrank under us.
func (t *tailReader) rewindIfTruncated() error {
	fi, err := t.f.Stat()
	if err != nil {
		return err
	}
	if fi.Size() < t.offset {
		if _, err := t.f.Seek(0, io.SeekStart); err != nil {
			return err
		}
		t.offset = 0
	}
	return nil
}

func (t *tailReader) Close() error {
	return errors.Join(t.watcher.Close(), t.f.Close())
}
