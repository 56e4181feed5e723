package output

import (
	"github.com/cashflow/bkm-gateway/internal/core"
)

// NonceMessaging is an output port for queueing nonces
type NonceMessaging interface {
	// PublishNonce publishes a nonce for the worker
	PublishNonce(nonce core.Nonce) error
	// Close closes the messaging connection
	Close() error
}
