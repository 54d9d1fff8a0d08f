package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"io"

	"github.com/covalue-sync/core/pkg/coerrs"
	"github.com/mr-tron/base58"
)

const (
	signerPrefix       = "signer_z"
	signerSecretPrefix = "signerSecret_z"
	signaturePrefix    = "signature_z"
)

// SignerID is an Ed25519 public key: the identity a session's transactions
// are signed under.
type SignerID [ed25519.PublicKeySize]byte

// SignerSecret is an Ed25519 seed. The full signing key is derived from it
// on demand rather than stored expanded, keeping the textual encoding at the
// 32-byte seed length rather than the stdlib's 64-byte expanded form.
type SignerSecret [ed25519.SeedSize]byte

// Signature is a raw 64-byte Ed25519 signature.
type Signature [ed25519.SignatureSize]byte

// GenerateSignerSecret creates a new random signing key using r as the
// entropy source (crypto/rand.Reader in production code, a deterministic
// reader in tests).
func GenerateSignerSecret(r io.Reader) (SignerSecret, error) {
	if r == nil {
		r = rand.Reader
	}
	_, priv, err := ed25519.GenerateKey(r)
	if err != nil {
		return SignerSecret{}, err
	}
	var s SignerSecret
	copy(s[:], priv.Seed())
	return s, nil
}

func (s SignerSecret) privateKey() ed25519.PrivateKey {
	return ed25519.NewKeyFromSeed(s[:])
}

// VerifyingKey derives the SignerID that validates signatures made with s.
func (s SignerSecret) VerifyingKey() SignerID {
	pub := s.privateKey().Public().(ed25519.PublicKey)
	var id SignerID
	copy(id[:], pub)
	return id
}

// Sign canonical-JSON-encodes message and produces an Ed25519 signature of
// the resulting bytes. message is typically the textual form of a Hash
// (e.g. the session's prospective streaming-hash digest after an append).
func (s SignerSecret) Sign(message any) (Signature, error) {
	b, err := CanonicalJSON(message)
	if err != nil {
		return Signature{}, err
	}
	sig := ed25519.Sign(s.privateKey(), b)
	var out Signature
	copy(out[:], sig)
	return out, nil
}

// Verify canonical-JSON-encodes message the same way Sign does and checks
// sig against it under id. It returns coerrs.ErrSignatureInvalid (wrapped,
// so errors.Is still matches) when verification fails.
func (id SignerID) Verify(message any, sig Signature) error {
	b, err := CanonicalJSON(message)
	if err != nil {
		return err
	}
	if !ed25519.Verify(ed25519.PublicKey(id[:]), b, sig[:]) {
		return &coerrs.SignatureInvalid{SignerID: id.String()}
	}
	return nil
}

func (id SignerID) String() string {
	return signerPrefix + base58.Encode(id[:])
}

func (id SignerID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *SignerID) UnmarshalText(text []byte) error {
	parsed, err := ParseSignerID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseSignerID decodes the "signer_z"-prefixed textual form of a SignerID.
func ParseSignerID(s string) (SignerID, error) {
	var id SignerID
	if len(s) < len(signerPrefix) || s[:len(signerPrefix)] != signerPrefix {
		return id, &coerrs.MalformedEncoding{Kind: "SignerID", Text: s, Reason: "missing signer_z prefix"}
	}
	decoded, err := base58.Decode(s[len(signerPrefix):])
	if err != nil {
		return id, &coerrs.MalformedEncoding{Kind: "SignerID", Text: s, Reason: err.Error()}
	}
	if len(decoded) != len(id) {
		return id, &coerrs.MalformedEncoding{Kind: "SignerID", Text: s, Reason: "decoded length is not 32 bytes"}
	}
	copy(id[:], decoded)
	return id, nil
}

func (s SignerSecret) String() string {
	return signerSecretPrefix + base58.Encode(s[:])
}

// ParseSignerSecret decodes the "signerSecret_z"-prefixed textual form of a
// SignerSecret.
func ParseSignerSecret(text string) (SignerSecret, error) {
	var s SignerSecret
	if len(text) < len(signerSecretPrefix) || text[:len(signerSecretPrefix)] != signerSecretPrefix {
		return s, &coerrs.MalformedEncoding{Kind: "SignerSecret", Text: text, Reason: "missing signerSecret_z prefix"}
	}
	decoded, err := base58.Decode(text[len(signerSecretPrefix):])
	if err != nil {
		return s, &coerrs.MalformedEncoding{Kind: "SignerSecret", Text: text, Reason: err.Error()}
	}
	if len(decoded) != len(s) {
		return s, &coerrs.MalformedEncoding{Kind: "SignerSecret", Text: text, Reason: "decoded length is not 32 bytes"}
	}
	copy(s[:], decoded)
	return s, nil
}

func (sig Signature) String() string {
	return signaturePrefix + base58.Encode(sig[:])
}

func (sig Signature) MarshalText() ([]byte, error) {
	return []byte(sig.String()), nil
}

func (sig *Signature) UnmarshalText(text []byte) error {
	parsed, err := ParseSignature(string(text))
	if err != nil {
		return err
	}
	*sig = parsed
	return nil
}

// ParseSignature decodes the "signature_z"-prefixed textual form of a
// Signature.
func ParseSignature(s string) (Signature, error) {
	var sig Signature
	if len(s) < len(signaturePrefix) || s[:len(signaturePrefix)] != signaturePrefix {
		return sig, &coerrs.MalformedEncoding{Kind: "Signature", Text: s, Reason: "missing signature_z prefix"}
	}
	decoded, err := base58.Decode(s[len(signaturePrefix):])
	if err != nil {
		return sig, &coerrs.MalformedEncoding{Kind: "Signature", Text: s, Reason: err.Error()}
	}
	if len(decoded) != len(sig) {
		return sig, &coerrs.MalformedEncoding{Kind: "Signature", Text: s, Reason: "decoded length is not 64 bytes"}
	}
	copy(sig[:], decoded)
	return sig, nil
}
