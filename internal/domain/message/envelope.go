package message

import (
	"errors"

	"github.com/vigild/vigil/internal/domain/account"
)

// Envelope is the wire format carried on the decoupling channel. The
// account id rides both in the envelope and as the partition key, so a
// payload alone is self-describing.
type Envelope struct {
	AccountID account.ID `json:"account_id"`
	Message   Message    `json:"message"`
}

// Validate rejects envelopes that cannot be routed or keyed. Payloads
// failing it are dropped by the consumer, never redelivered.
func (e Envelope) Validate() error {
	if e.AccountID == "" {
		return errors.New("envelope without account_id")
	}
	if e.Message.Hostname == "" {
		return errors.New("envelope without hostname")
	}
	return nil
}
