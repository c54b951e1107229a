package token

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
	"time"
)

// legacyVersion is the wire-format discriminator. Tokens carrying any
// other version are rejected outright.
const legacyVersion = 2

// Delimiters reserved by the legacy wire format. Claim keys and values
// containing any of them cannot be represented and are skipped.
const (
	fieldDelimiter  = "|"
	headerDelimiter = "#"
	entryDelimiter  = "&"
	pairDelimiter   = ":"
)

// Legacy is the delimiter-based codec:
//
//	signature|subject|authenticity|expiry|version#k1:v1&k2:v2
//
// The signature is HMAC-SHA512 over the serialized claims, the extra
// fields, the version, and the shared secret, keyed by the sign key.
// Expiry is encoded as unix seconds; 0 means session-scoped.
type Legacy struct {
	secret  string
	signKey []byte
	opts    options
}

// NewLegacy creates a legacy codec. The secret is mixed into the signed
// payload; the sign key keys the HMAC.
func NewLegacy(secret, signKey string, opts ...Option) (*Legacy, error) {
	if secret == "" || signKey == "" {
		return nil, ErrNoSecret
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &Legacy{secret: secret, signKey: []byte(signKey), opts: o}, nil
}

// Encode builds the delimiter token. Claim entries containing reserved
// delimiters are silently dropped; this mirrors the state layer, which
// refuses to store them in the first place.
func (c *Legacy) Encode(t Token) (string, error) {
	payload := serializeClaims(t.Claims)
	expiry := encodeExpiry(t.Expiry)
	version := strconv.Itoa(legacyVersion)

	sig := c.sign(payload, t.Subject, t.Authenticity, expiry, version)

	var b strings.Builder
	b.WriteString(sig)
	b.WriteString(fieldDelimiter)
	b.WriteString(t.Subject)
	b.WriteString(fieldDelimiter)
	b.WriteString(t.Authenticity)
	b.WriteString(fieldDelimiter)
	b.WriteString(expiry)
	b.WriteString(fieldDelimiter)
	b.WriteString(version)
	b.WriteString(headerDelimiter)
	b.WriteString(payload)

	if c.opts.encryptionKey != nil {
		return seal(c.opts.encryptionKey, []byte(b.String()))
	}
	return b.String(), nil
}

// Decode verifies structure, version, signature, and freshness, in that
// order. Any failure yields ok=false.
func (c *Legacy) Decode(raw string) (Token, bool) {
	if raw == "" {
		return Token{}, false
	}

	if c.opts.encryptionKey != nil {
		plain, err := open(c.opts.encryptionKey, raw)
		if err != nil {
			return Token{}, false
		}
		raw = string(plain)
	}

	header, payload, found := strings.Cut(raw, headerDelimiter)
	if !found {
		return Token{}, false
	}

	fields := strings.Split(header, fieldDelimiter)
	if len(fields) != 5 {
		return Token{}, false
	}
	sig, subject, authenticity, expiry, version := fields[0], fields[1], fields[2], fields[3], fields[4]

	if version != strconv.Itoa(legacyVersion) {
		return Token{}, false
	}

	expected := c.sign(payload, subject, authenticity, expiry, version)
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return Token{}, false
	}

	expires, ok := decodeExpiry(expiry)
	if !ok {
		return Token{}, false
	}
	if !expires.IsZero() && c.opts.now().After(expires.Add(c.opts.leeway)) {
		return Token{}, false
	}

	claims, ok := deserializeClaims(payload)
	if !ok {
		return Token{}, false
	}

	return Token{
		Claims:       claims,
		Subject:      subject,
		Authenticity: authenticity,
		Expiry:       expires,
	}, true
}

func (c *Legacy) sign(payload, subject, authenticity, expiry, version string) string {
	mac := hmac.New(sha512.New, c.signKey)
	mac.Write([]byte(payload))
	mac.Write([]byte(subject))
	mac.Write([]byte(authenticity))
	mac.Write([]byte(expiry))
	mac.Write([]byte(version))
	mac.Write([]byte(c.secret))
	return hex.EncodeToString(mac.Sum(nil))
}

// serializeClaims renders claims as k:v pairs joined by &, keys sorted
// for a deterministic field order.
func serializeClaims(claims map[string]string) string {
	if len(claims) == 0 {
		return ""
	}

	keys := make([]string, 0, len(claims))
	for k := range claims {
		if representable(k) && representable(claims[k]) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+pairDelimiter+claims[k])
	}
	return strings.Join(pairs, entryDelimiter)
}

func deserializeClaims(payload string) (map[string]string, bool) {
	claims := map[string]string{}
	if payload == "" {
		return claims, true
	}

	for _, pair := range strings.Split(payload, entryDelimiter) {
		k, v, found := strings.Cut(pair, pairDelimiter)
		if !found || k == "" {
			return nil, false
		}
		claims[k] = v
	}
	return claims, true
}

func representable(s string) bool {
	return !strings.ContainsAny(s, fieldDelimiter+headerDelimiter+entryDelimiter+pairDelimiter)
}

func encodeExpiry(t time.Time) string {
	if t.IsZero() {
		return "0"
	}
	return strconv.FormatInt(t.Unix(), 10)
}

func decodeExpiry(s string) (time.Time, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return time.Time{}, false
	}
	if n == 0 {
		return time.Time{}, true
	}
	return time.Unix(n, 0), true
}

var _ Codec = (*Legacy)(nil)
