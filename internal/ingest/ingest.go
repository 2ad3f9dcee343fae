// Package ingest gets sheet data into the program: Google sheet CSV exports
// over HTTP and local xlsx, xls and csv files from disk.
package ingest

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/nxadm/tail"

	"sheetview/internal/util/logx"
)

var ErrWatchUnsupported = errors.New("live watch is only available for .csv files")

// Quiet is how long Watch waits after the last appended line before it
// reports a change, so a burst of writes yields one tick.
var Quiet = 300 * time.Millisecond

// CanWatch reports whether Watch supports the file at path.
func CanWatch(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".csv")
}

// Watch follows appends to a CSV file and sends on the returned channel
// once per burst of new lines. The channel is closed when ctx is done or the
// file can no longer be followed.
func Watch(ctx context.Context, path string) (<-chan struct{}, error) {
	if !CanWatch(path) {
		return nil, ErrWatchUnsupported
	}
	t, err := tail.TailFile(path, tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: true,
		Logger:    tail.DiscardingLogger,
		Poll:      true,
		Location:  &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd},
	})
	if err != nil {
		return nil, err
	}
	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer t.Cleanup()
		var quiet <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				_ = t.Stop()
				return
			case l, ok := <-t.Lines:
				if !ok {
					return
				}
				if l.Err != nil {
					logx.Warnf("watch: %s: %v", path, l.Err)
					continue
				}
				quiet = time.After(Quiet)
			case <-quiet:
				quiet = nil
				select {
				case out <- struct{}{}:
				default:
					// a tick is already pending
				}
			}
		}
	}()
	return out, nil
}
