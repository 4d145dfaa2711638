package wasmguest

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/woxQAQ/vpxplugin-go/pkg/protocol"
)

// sinkFunc receives one encoded log line and its protocol log level.
type sinkFunc func(level uint32, line string)

// hostCore is a zapcore.Core that hands each entry to the host logger, which
// adds its own timestamp and level.
type hostCore struct {
	zapcore.LevelEnabler
	enc  zapcore.Encoder
	sink sinkFunc
}

func newHostCore(level zapcore.LevelEnabler, sink sinkFunc) zapcore.Core {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.TimeKey = ""
	cfg.LevelKey = ""
	cfg.CallerKey = ""
	cfg.StacktraceKey = ""
	cfg.LineEnding = ""
	return &hostCore{LevelEnabler: level, enc: zapcore.NewConsoleEncoder(cfg), sink: sink}
}

func (c *hostCore) With(fields []zapcore.Field) zapcore.Core {
	clone := &hostCore{LevelEnabler: c.LevelEnabler, enc: c.enc.Clone(), sink: c.sink}
	for _, f := range fields {
		f.AddTo(clone.enc)
	}
	return clone
}

func (c *hostCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *hostCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	buf, err := c.enc.EncodeEntry(ent, fields)
	if err != nil {
		return err
	}
	c.sink(hostLevel(ent.Level), buf.String())
	buf.Free()
	return nil
}

func (c *hostCore) Sync() error {
	return nil
}

func hostLevel(l zapcore.Level) uint32 {
	switch {
	case l <= zapcore.DebugLevel:
		return protocol.LogDebug
	case l == zapcore.InfoLevel:
		return protocol.LogInfo
	case l == zapcore.WarnLevel:
		return protocol.LogWarn
	default:
		return protocol.LogError
	}
}
