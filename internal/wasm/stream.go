package wasm

import (
	"bufio"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// guestStream logs each complete line a guest writes to stdout or stderr.
// Guests write in fragments, so writes are joined before logging.
type guestStream struct {
	w    *io.PipeWriter
	done chan struct{}
}

func newGuestStream(logger *zap.Logger, level zapcore.Level) *guestStream {
	r, w := io.Pipe()
	s := &guestStream{w: w, done: make(chan struct{})}

	go func() {
		defer close(s.done)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			logger.Log(level, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			logger.Warn("Dropping guest output", zap.Error(err))
		}
		// Keep the guest from blocking on a stream nobody reads.
		_, _ = io.Copy(io.Discard, r)
	}()

	return s
}

func (s *guestStream) Write(p []byte) (int, error) {
	return s.w.Write(p)
}

// Close flushes a trailing partial line and waits for the reader.
func (s *guestStream) Close() {
	_ = s.w.Close()
	<-s.done
}
