package message

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/vigild/vigil/internal/domain/account"
)

// Message is one status/heartbeat report from an agent. Immutable once
// stored; the timestamp is assigned by the ingesting side.
type Message struct {
	Hostname  string    `json:"hostname"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

// Key identifies one logical stream of messages: one reporting source
// for one account.
type Key struct {
	AccountID account.ID
	Hostname  string
}

// Fingerprint identifies a logical message for dedupe under
// at-least-once delivery. Two deliveries of the same published message
// carry the same fingerprint; a re-sent report with a fresh timestamp
// does not.
func (m Message) Fingerprint() string {
	h := sha256.New()
	h.Write([]byte(m.Hostname))
	h.Write([]byte{0})
	h.Write([]byte(m.Title))
	h.Write([]byte{0})
	h.Write([]byte(m.Body))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(m.Timestamp.UnixNano(), 10)))
	return hex.EncodeToString(h.Sum(nil))
}
