// Package randsrc generates the random values used by the login flow:
// nonces, state identifiers, session identifiers and PKCE pairs.
package randsrc

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"math/big"
)

const MethodS256 = "S256"

// PKCE is a verifier/challenge pair for the authorization-code grant.
type PKCE struct {
	Verifier  string
	Challenge string
	Method    string
}

type Source struct{}

func (s Source) randBytes(n int) []byte {
	b := make([]byte, n)
	_, _ = rand.Read(b)

	return b
}

func (s Source) randString(n int) string {
	const letters = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-"

	ret := make([]byte, n)
	for i := range n {
		num, _ := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		ret[i] = letters[num.Int64()]
	}

	return string(ret)
}

func (s Source) PKCE() PKCE {
	const n = 32

	verifierBuf := make([]byte, base64.RawURLEncoding.EncodedLen(n))
	base64.RawURLEncoding.Encode(verifierBuf, s.randBytes(n))

	challengeSHA := sha256.Sum256(verifierBuf)
	challengeBuf := make([]byte, base64.RawURLEncoding.EncodedLen(len(challengeSHA)))
	base64.RawURLEncoding.Encode(challengeBuf, challengeSHA[:])

	return PKCE{
		Verifier:  string(verifierBuf),
		Challenge: string(challengeBuf),
		Method:    MethodS256,
	}
}

// Nonce returns a single-use value binding one authorization request to its callback.
func (s Source) Nonce() string {
	return s.randString(43)
}

func (s Source) State() string {
	return s.randString(64)
}

func (s Source) SessionID() string {
	return s.randString(32) // Entropy E = L * log2(63) = 32 * log2(63) = 191.3 bits
}
