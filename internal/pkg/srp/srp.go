// Package srp implements SRP-6a over the RFC 5054 2048-bit group with SHA-256.
//
// Both halves of the exchange live here: the server side is used by the
// credential verifier, the client side by device clients and tests.
package srp

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/crypto/argon2"
)

const Algorithm = "SRP-6a-2048-SHA256"

const modulusHex = "AC6BDB41324A9A9BF166DE5E1389582FAF72B6651987EE07FC3192943DB56050" +
	"A37329CBB4A099ED8193E0757767A13DD52312AB4B03310DCD7F48A9DA04FD50" +
	"E8083969EDB767B0CF6095179A163AB3661A05FBD5FAAAE82918A9962F0B93B8" +
	"55F97993EC975EEAA80D740ADBF4FF747359D041D5C33EA71D281E446B14773B" +
	"CA97B43A23FB801676BD207A436C6481F1D2B9078717461A5B9D32E688F87748" +
	"544523B524B0D57D5EA77A2775D2ECFA032CFBDBF52FB3786160279004E57AE6" +
	"AF874E7303CE53299CCC041C7BC308D82A5698F3A8D0C38271AE35F8E9DBFBB6" +
	"94B5C803D89F7AE435DE236D525F54759B65E372FCD68EF20FA7111F9E4AFF73"

const secretBytes = 32

var (
	ErrInvalidPublic = errors.New("srp: invalid public ephemeral")
	ErrProofMismatch = errors.New("srp: proof mismatch")
	ErrInvalidKDF    = errors.New("srp: invalid kdf parameters")
)

var (
	n      = mustParseHex(modulusHex)
	g      = big.NewInt(2)
	padLen = (n.BitLen() + 7) / 8
	k      = new(big.Int).SetBytes(hash(pad(n), pad(g)))
)

// Modulus returns a copy of the group prime N.
func Modulus() *big.Int { return new(big.Int).Set(n) }

// ModulusHex returns N as upper-case hex, as advertised to clients.
func ModulusHex() string { return modulusHex }

// Generator returns the group generator g.
func Generator() int { return int(g.Int64()) }

// Pad left-pads x to the byte length of N.
func Pad(x *big.Int) []byte { return pad(x) }

// Decode parses a big-endian unsigned integer.
func Decode(b []byte) *big.Int { return new(big.Int).SetBytes(b) }

// PrivateKey derives x from the password with Argon2id. The username is bound
// into the digest so equal passwords under equal salts never collide.
func PrivateKey(kdf KDFParams, username, password string) (*big.Int, error) {
	if err := kdf.Validate(); err != nil {
		return nil, err
	}
	stretched := argon2.IDKey([]byte(password), kdf.Salt, kdf.Time, kdf.MemoryKiB, kdf.Parallelism, kdf.KeyLen)
	return new(big.Int).SetBytes(hash([]byte(username), []byte{0}, stretched)), nil
}

// Verifier computes v = g^x mod N.
func Verifier(x *big.Int) *big.Int {
	return new(big.Int).Exp(g, x, n)
}

// ValidVerifier reports whether 0 < v < N.
func ValidVerifier(v *big.Int) bool {
	return v != nil && v.Sign() > 0 && v.Cmp(n) < 0
}

// ValidPublic reports whether an ephemeral public value is usable, rejecting
// values congruent to zero mod N.
func ValidPublic(x *big.Int) bool {
	if x == nil || x.Sign() <= 0 {
		return false
	}
	return new(big.Int).Mod(x, n).Sign() != 0
}

// Server holds one side of a single login exchange.
type Server struct {
	v   *big.Int
	b   *big.Int
	pub *big.Int
}

// NewServer draws a fresh ephemeral b and computes B = k*v + g^b mod N.
func NewServer(verifier *big.Int) (*Server, error) {
	if !ValidVerifier(verifier) {
		return nil, fmt.Errorf("srp: verifier out of range")
	}
	for {
		b, err := randomSecret()
		if err != nil {
			return nil, err
		}
		kv := new(big.Int).Mul(k, verifier)
		gb := new(big.Int).Exp(g, b, n)
		pub := kv.Add(kv, gb)
		pub.Mod(pub, n)
		if pub.Sign() != 0 {
			return &Server{v: verifier, b: b, pub: pub}, nil
		}
	}
}

// RestoreServer rebuilds a server side from a persisted handshake.
func RestoreServer(verifier, secret, public *big.Int) *Server {
	return &Server{v: verifier, b: secret, pub: public}
}

func (s *Server) Public() *big.Int { return s.pub }

func (s *Server) Secret() *big.Int { return s.b }

// VerifyClient checks the client proof M1 and returns the shared session key K
// together with the server proof M2.
func (s *Server) VerifyClient(clientPublic *big.Int, m1 []byte) (key, m2 []byte, err error) {
	if !ValidPublic(clientPublic) {
		return nil, nil, ErrInvalidPublic
	}
	u := scramble(clientPublic, s.pub)
	if u.Sign() == 0 {
		return nil, nil, ErrInvalidPublic
	}

	vu := new(big.Int).Exp(s.v, u, n)
	base := vu.Mul(clientPublic, vu)
	base.Mod(base, n)
	secret := new(big.Int).Exp(base, s.b, n)

	key = hash(pad(secret))
	expected := clientProof(clientPublic, s.pub, key)
	if subtle.ConstantTimeCompare(expected, m1) != 1 {
		return nil, nil, ErrProofMismatch
	}
	return key, serverProof(clientPublic, expected, key), nil
}

// Client holds the device side of a single login exchange.
type Client struct {
	a   *big.Int
	pub *big.Int
	m1  []byte
	key []byte
}

// NewClient draws a fresh ephemeral a and computes A = g^a mod N.
func NewClient() (*Client, error) {
	a, err := randomSecret()
	if err != nil {
		return nil, err
	}
	return &Client{a: a, pub: new(big.Int).Exp(g, a, n)}, nil
}

func (c *Client) Public() *big.Int { return c.pub }

// Proof computes M1 for the server's B and remembers K for VerifyServer.
func (c *Client) Proof(x, serverPublic *big.Int) ([]byte, error) {
	if !ValidPublic(serverPublic) {
		return nil, ErrInvalidPublic
	}
	u := scramble(c.pub, serverPublic)
	if u.Sign() == 0 {
		return nil, ErrInvalidPublic
	}

	kgx := new(big.Int).Exp(g, x, n)
	kgx.Mul(kgx, k)
	base := new(big.Int).Sub(serverPublic, kgx)
	base.Mod(base, n)

	exp := new(big.Int).Mul(u, x)
	exp.Add(exp, c.a)
	secret := new(big.Int).Exp(base, exp, n)

	c.key = hash(pad(secret))
	c.m1 = clientProof(c.pub, serverPublic, c.key)
	return c.m1, nil
}

// VerifyServer checks M2 against the proof sent by Proof.
func (c *Client) VerifyServer(m2 []byte) bool {
	if c.m1 == nil {
		return false
	}
	return subtle.ConstantTimeCompare(serverProof(c.pub, c.m1, c.key), m2) == 1
}

// SessionKey returns K after a successful Proof.
func (c *Client) SessionKey() []byte { return c.key }

func scramble(a, b *big.Int) *big.Int {
	return new(big.Int).SetBytes(hash(pad(a), pad(b)))
}

func clientProof(a, b *big.Int, key []byte) []byte {
	return hash(pad(a), pad(b), key)
}

func serverProof(a *big.Int, m1, key []byte) []byte {
	return hash(pad(a), m1, key)
}

func hash(parts ...[]byte) []byte {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}

func pad(x *big.Int) []byte {
	b := x.Bytes()
	if len(b) >= padLen {
		return b
	}
	out := make([]byte, padLen)
	copy(out[padLen-len(b):], b)
	return out
}

func randomSecret() (*big.Int, error) {
	buf := make([]byte, secretBytes)
	for {
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("srp: reading random: %w", err)
		}
		x := new(big.Int).SetBytes(buf)
		if x.Sign() != 0 {
			return x, nil
		}
	}
}

func mustParseHex(s string) *big.Int {
	x, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("srp: invalid modulus")
	}
	return x
}
