package session

import "go.uber.org/zap"

// StateStore is the key/value contract for client-side session retention.
// The server never persists filter state; NopStore is the only
// implementation and every Get misses.
type StateStore interface {
	Set(key string, value []byte)
	Get(key string) ([]byte, bool)
	Remove(key string)
	Clear()
}

// Compile-time interface guard.
var _ StateStore = (*NopStore)(nil)

// NopStore discards everything written to it.
type NopStore struct {
	logger *zap.Logger
}

// NewNopStore returns a NopStore that logs calls at debug level.
func NewNopStore(logger *zap.Logger) *NopStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NopStore{logger: logger}
}

func (s *NopStore) Set(key string, value []byte) {
	s.logger.Debug("session state set ignored", zap.String("key", key), zap.Int("bytes", len(value)))
}

func (s *NopStore) Get(key string) ([]byte, bool) {
	s.logger.Debug("session state get miss", zap.String("key", key))
	return nil, false
}

func (s *NopStore) Remove(key string) {
	s.logger.Debug("session state remove ignored", zap.String("key", key))
}

func (s *NopStore) Clear() {
	s.logger.Debug("session state clear ignored")
}
