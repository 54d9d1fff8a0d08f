package covalue

// MaxRecommendedTxSize bounds the payload bytes a session accumulates
// before a checkpoint signature is due and before a sync piece is closed.
const MaxRecommendedTxSize = 100 * 1024 // 100 KiB

// Privacy discriminates how a transaction's changes were recorded.
type Privacy string

const (
	// PrivacyPrivate transactions carry changes encrypted under a
	// group/account key; the core verifies their hash chain and
	// signatures but never inspects their plaintext.
	PrivacyPrivate Privacy = "private"

	// PrivacyTrusting transactions carry changes in the clear, trusting
	// the ruleset's permission model rather than encryption.
	PrivacyTrusting Privacy = "trusting"
)

// Transaction is one entry in a session's append-only log.
type Transaction struct {
	MadeAt  uint64  `json:"madeAt"`
	Privacy Privacy `json:"privacy"`

	// KeyUsed and EncryptedChanges are set when Privacy == PrivacyPrivate.
	KeyUsed          string `json:"keyUsed,omitempty"`
	EncryptedChanges []byte `json:"encryptedChanges,omitempty"`

	// Changes is set when Privacy == PrivacyTrusting.
	Changes []byte `json:"changes,omitempty"`
}

// NewTrustingTransaction builds a Transaction whose changes are recorded
// in the clear.
func NewTrustingTransaction(madeAt uint64, changes []byte) Transaction {
	return Transaction{MadeAt: madeAt, Privacy: PrivacyTrusting, Changes: changes}
}

// NewPrivateTransaction builds a Transaction whose changes are already
// encrypted by the caller under keyUsed.
func NewPrivateTransaction(madeAt uint64, keyUsed string, encryptedChanges []byte) Transaction {
	return Transaction{MadeAt: madeAt, Privacy: PrivacyPrivate, KeyUsed: keyUsed, EncryptedChanges: encryptedChanges}
}

// PayloadSize is the byte count that counts against MaxRecommendedTxSize
// for checkpoint and sync-piece accounting.
func (t Transaction) PayloadSize() int {
	if t.Privacy == PrivacyPrivate {
		return len(t.EncryptedChanges)
	}
	return len(t.Changes)
}
