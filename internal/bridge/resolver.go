package bridge

import (
	"go.uber.org/zap"

	"github.com/woxQAQ/vpxplugin-go/pkg/protocol"
)

// Resolver maps namespace/name pairs to host message ids.
// It does not cache: the host is authoritative and may assign ids lazily.
// Every successful lookup is remembered so it can be released at unload.
type Resolver struct {
	bus      HostMessageBus
	acquired []protocol.MessageID
	logger   *zap.Logger
}

// NewResolver creates a resolver over bus.
func NewResolver(bus HostMessageBus, logger *zap.Logger) *Resolver {
	return &Resolver{
		bus:    bus,
		logger: logger.With(zap.String("component", "resolver")),
	}
}

// Resolve looks up the id of namespace/name with exactly one host call.
func (r *Resolver) Resolve(namespace, name string) (protocol.MessageID, error) {
	if err := checkCStrings("namespace", namespace, "message name", name); err != nil {
		return 0, err
	}

	id, err := r.bus.GetMessageID(namespace, name)
	if err != nil {
		return 0, &UnknownMessageError{Namespace: namespace, Name: name, Err: err}
	}
	r.acquired = append(r.acquired, id)

	r.logger.Debug("Resolved message id",
		zap.String("namespace", namespace),
		zap.String("name", name),
		zap.Uint32("message_id", uint32(id)),
	)
	return id, nil
}

// Acquired returns the number of lookups not yet released.
func (r *Resolver) Acquired() int {
	return len(r.acquired)
}

// ReleaseAll releases every id obtained through Resolve, once per lookup.
func (r *Resolver) ReleaseAll() {
	for _, id := range r.acquired {
		if err := r.bus.ReleaseMessageID(id); err != nil {
			r.logger.Warn("Failed to release message id",
				zap.Uint32("message_id", uint32(id)),
				zap.Error(err),
			)
		}
	}
	r.acquired = nil
}
