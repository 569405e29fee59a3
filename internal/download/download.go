// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/examfetch/internal/httputil"
	"github.com/pdiddy/examfetch/pkg/types"
)

// ErrStalled marks a download abandoned because no data arrived for the
// configured timeout.
var ErrStalled = errors.New("download stalled")

// Download fetches task.URL into task.Path. If the destination already
// exists nothing is requested and skipped is true.
//
// The body is streamed in cfg.ChunkSize pieces into a temporary file next to
// the destination, which is renamed into place only after the whole body has
// been written. On any failure the temporary file is removed, so a failed
// download never leaves a partial file behind.
//
// cfg.Timeout is an idle limit, not a deadline: the download is abandoned
// only when that long passes without a byte arriving, so a large file on a
// slow link still completes.
func Download(ctx context.Context, client *http.Client, task Task, cfg types.FetchConfig) (skipped bool, err error) {
	if _, err := os.Stat(task.Path); err == nil {
		return true, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("checking %s: %w", task.Path, err)
	}

	ctx, watch := watchIdle(ctx, cfg.Timeout)
	defer watch.stop()

	resp, err := httputil.Get(ctx, client, task.URL, cfg.HTTPConfig)
	if err != nil {
		return false, watch.wrap(err)
	}
	defer resp.Body.Close()

	tmpFile, err := os.CreateTemp(filepath.Dir(task.Path), ".examfetch-*.tmp")
	if err != nil {
		return false, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := copyChunks(tmpFile, watch.reader(resp.Body), cfg.ChunkSize)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return false, fmt.Errorf("writing %s: %w", task.Path, watch.wrap(copyErr))
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return false, fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, task.Path); err != nil {
		os.Remove(tmpPath)
		return false, fmt.Errorf("renaming temp file: %w", err)
	}
	return false, nil
}

// writerOnly hides ReaderFrom so io.CopyBuffer uses the supplied buffer.
type writerOnly struct{ io.Writer }

func copyChunks(dst io.Writer, src io.Reader, size int) (int64, error) {
	if size <= 0 {
		size = types.DefaultChunkSize
	}
	return io.CopyBuffer(writerOnly{dst}, src, make([]byte, size))
}

// idleWatch cancels a download once no bytes have arrived for d.
// With d <= 0 it does nothing.
type idleWatch struct {
	ctx    context.Context
	d      time.Duration
	timer  *time.Timer
	cancel context.CancelCauseFunc
}

func watchIdle(ctx context.Context, d time.Duration) (context.Context, *idleWatch) {
	w := &idleWatch{d: d}
	if d <= 0 {
		return ctx, w
	}
	w.ctx, w.cancel = context.WithCancelCause(ctx)
	w.timer = time.AfterFunc(d, func() { w.cancel(ErrStalled) })
	return w.ctx, w
}

func (w *idleWatch) stop() {
	if w.timer == nil {
		return
	}
	w.timer.Stop()
	w.cancel(nil)
}

// wrap tags err with ErrStalled when the idle timer caused it.
func (w *idleWatch) wrap(err error) error {
	if w.ctx != nil && errors.Is(context.Cause(w.ctx), ErrStalled) {
		return fmt.Errorf("%w: nothing received for %s: %w", ErrStalled, w.d, err)
	}
	return err
}

// reader returns r with every successful read pushing the idle timer back.
func (w *idleWatch) reader(r io.Reader) io.Reader {
	if w.timer == nil {
		return r
	}
	return idleReader{r: r, w: w}
}

type idleReader struct {
	r io.Reader
	w *idleWatch
}

func (ir idleReader) Read(p []byte) (int, error) {
	n, err := ir.r.Read(p)
	if n > 0 {
		ir.w.timer.Reset(ir.w.d)
	}
	return n, err
}
