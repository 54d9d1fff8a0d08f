package covalue

import (
	"crypto/rand"
	"errors"
	"testing"
	"time"

	"github.com/covalue-sync/core/pkg/coerrs"
	"github.com/covalue-sync/core/pkg/crypto"
	"github.com/covalue-sync/core/pkg/id"
)

func newTestSigner(t *testing.T) (crypto.SignerSecret, crypto.SignerID) {
	t.Helper()
	secret, err := crypto.GenerateSignerSecret(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	return secret, secret.VerifyingKey()
}

func newTestVerifiedState(t *testing.T) (*VerifiedState, id.SessionID, crypto.SignerSecret) {
	t.Helper()
	h := Header{
		Type:       "comap",
		Ruleset:    Ruleset{Type: RulesetUnsafeAllowAll},
		Uniqueness: "test",
		CreatedAt:  time.Unix(1700000000, 0).UTC(),
	}
	vs, err := NewVerifiedState(h)
	if err != nil {
		t.Fatal(err)
	}
	secret, signer := newTestSigner(t)
	sid := id.SessionID{AccountID: vs.ID(), Nonce: "device-1"}
	_ = signer
	return vs, sid, secret
}

// appendSigned computes the expected hash, signs it, and appends via
// TryAddTransactions — the shape every real caller follows.
func appendSigned(t *testing.T, vs *VerifiedState, sid id.SessionID, secret crypto.SignerSecret, txs ...Transaction) error {
	t.Helper()
	expected, err := vs.ExpectedNewHashAfter(sid, txs)
	if err != nil {
		t.Fatal(err)
	}
	sig, err := secret.Sign(expected.String())
	if err != nil {
		t.Fatal(err)
	}
	return vs.TryAddTransactions(AddTransactionsInput{
		SessionID:       sid,
		Signer:          secret.VerifyingKey(),
		NewTransactions: txs,
		ExpectedNewHash: expected,
		NewSignature:    sig,
	})
}

func TestTryAddTransactionsAcceptsValidAppend(t *testing.T) {
	vs, sid, secret := newTestVerifiedState(t)
	tx := NewTrustingTransaction(1, []byte("hello"))

	if err := appendSigned(t, vs, sid, secret, tx); err != nil {
		t.Fatalf("expected valid append to succeed: %v", err)
	}

	known := vs.KnownState()
	if known.Sessions[sid.String()] != 1 {
		t.Fatalf("expected 1 transaction recorded, got %d", known.Sessions[sid.String()])
	}
}

func TestTryAddTransactionsRejectsHashMismatch(t *testing.T) {
	vs, sid, secret := newTestVerifiedState(t)
	tx := NewTrustingTransaction(1, []byte("hello"))

	sig, err := secret.Sign("hash_zWrongDigest")
	if err != nil {
		t.Fatal(err)
	}
	err = vs.TryAddTransactions(AddTransactionsInput{
		SessionID:       sid,
		Signer:          secret.VerifyingKey(),
		NewTransactions: []Transaction{tx},
		ExpectedNewHash: crypto.Hash{0xFF},
		NewSignature:    sig,
	})
	var mismatch *coerrs.HashMismatch
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected HashMismatch, got %v", err)
	}
}

func TestTryAddTransactionsRejectsInvalidSignature(t *testing.T) {
	vs, sid, secret := newTestVerifiedState(t)
	tx := NewTrustingTransaction(1, []byte("hello"))

	expected, err := vs.ExpectedNewHashAfter(sid, []Transaction{tx})
	if err != nil {
		t.Fatal(err)
	}
	wrongSecret, _ := newTestSigner(t)
	badSig, err := wrongSecret.Sign(expected.String())
	if err != nil {
		t.Fatal(err)
	}

	err = vs.TryAddTransactions(AddTransactionsInput{
		SessionID:       sid,
		Signer:          secret.VerifyingKey(), // claims to be `secret`, signed by `wrongSecret`
		NewTransactions: []Transaction{tx},
		ExpectedNewHash: expected,
		NewSignature:    badSig,
	})
	if !errors.Is(err, coerrs.ErrSignatureInvalid) {
		t.Fatalf("expected signature-invalid error, got %v", err)
	}
}

func TestTryAddTransactionsChainsAcrossAppends(t *testing.T) {
	vs, sid, secret := newTestVerifiedState(t)

	if err := appendSigned(t, vs, sid, secret, NewTrustingTransaction(1, []byte("a"))); err != nil {
		t.Fatal(err)
	}
	if err := appendSigned(t, vs, sid, secret, NewTrustingTransaction(2, []byte("b"))); err != nil {
		t.Fatal(err)
	}

	known := vs.KnownState()
	if known.Sessions[sid.String()] != 2 {
		t.Fatalf("expected 2 transactions recorded, got %d", known.Sessions[sid.String()])
	}
}

func TestCheckpointRecordedOncePayloadCrossesThreshold(t *testing.T) {
	vs, sid, secret := newTestVerifiedState(t)
	big := make([]byte, MaxRecommendedTxSize+1)

	if err := appendSigned(t, vs, sid, secret, NewTrustingTransaction(1, big)); err != nil {
		t.Fatal(err)
	}

	vs.mu.RLock()
	sess := vs.sessions[sid]
	vs.mu.RUnlock()

	if len(sess.signatureAfter) != 1 || sess.signatureAfter[0] == nil {
		t.Fatalf("expected a checkpoint at index 0 for an oversized first transaction, got %+v", sess.signatureAfter)
	}
}

func TestNoCheckpointBelowThreshold(t *testing.T) {
	vs, sid, secret := newTestVerifiedState(t)

	if err := appendSigned(t, vs, sid, secret, NewTrustingTransaction(1, []byte("small"))); err != nil {
		t.Fatal(err)
	}

	vs.mu.RLock()
	sess := vs.sessions[sid]
	vs.mu.RUnlock()

	if len(sess.signatureAfter) != 1 || sess.signatureAfter[0] != nil {
		t.Fatalf("expected no checkpoint for a small transaction, got %+v", sess.signatureAfter)
	}
}

func TestExpectedNewHashAfterDoesNotMutateState(t *testing.T) {
	vs, sid, _ := newTestVerifiedState(t)
	tx := NewTrustingTransaction(1, []byte("hello"))

	h1, err := vs.ExpectedNewHashAfter(sid, []Transaction{tx})
	if err != nil {
		t.Fatal(err)
	}
	h2, err := vs.ExpectedNewHashAfter(sid, []Transaction{tx})
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Fatalf("expected preview to be side-effect-free and repeatable")
	}
	if known := vs.KnownState(); known.Sessions[sid.String()] != 0 {
		t.Fatalf("expected no transactions recorded after only previewing, got %d", known.Sessions[sid.String()])
	}
}
