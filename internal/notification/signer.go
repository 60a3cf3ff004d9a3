package notification

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
)

// Signer produces a detached hex signature over outgoing notification
// payloads so receiving systems can verify the sender.
type Signer struct {
	key *rsa.PrivateKey
}

// NewSigner parses an RSA private key in PEM form. An empty input returns a
// nil signer, which disables signing.
func NewSigner(pemKey string) (*Signer, error) {
	if pemKey == "" {
		return nil, nil
	}
	block, _ := pem.Decode([]byte(pemKey))
	if block == nil {
		return nil, fmt.Errorf("signing key is not valid PEM")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return &Signer{key: key}, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse signing key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("signing key is not RSA")
	}
	return &Signer{key: key}, nil
}

func (s *Signer) Sign(payload []byte) (string, error) {
	digest := sha256.Sum256(payload)
	sig, err := rsa.SignPKCS1v15(nil, s.key, crypto.SHA256, digest[:])
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(sig), nil
}

// Verify checks a hex signature against a payload with the given public key.
func Verify(pub *rsa.PublicKey, payload []byte, hexSig string) error {
	sig, err := hex.DecodeString(hexSig)
	if err != nil {
		return err
	}
	digest := sha256.Sum256(payload)
	return rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], sig)
}
