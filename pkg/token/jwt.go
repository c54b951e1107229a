package token

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claim names used inside JWT payloads.
const (
	claimData         = "data"
	claimAuthenticity = "authenticity"
)

// JWT is the canonical codec. Tokens are HS512-signed JWTs, optionally
// wrapped in AES-256-GCM when an encryption key is configured.
type JWT struct {
	secret []byte
	opts   options
}

// NewJWT creates a JWT codec signing with the given secret.
func NewJWT(secret string, opts ...Option) (*JWT, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &JWT{secret: []byte(secret), opts: o}, nil
}

// Encode builds the compact token string.
func (c *JWT) Encode(t Token) (string, error) {
	claims := jwt.MapClaims{}

	if len(t.Claims) > 0 {
		data := make(map[string]string, len(t.Claims))
		for k, v := range t.Claims {
			data[k] = v
		}
		claims[claimData] = data
	}
	if t.Authenticity != "" {
		claims[claimAuthenticity] = t.Authenticity
	}
	if t.Subject != "" {
		claims["sub"] = t.Subject
	}
	if !t.Expiry.IsZero() {
		claims["exp"] = jwt.NewNumericDate(t.Expiry)
	}
	claims["iat"] = jwt.NewNumericDate(c.opts.now())
	if c.opts.issuer != "" {
		claims["iss"] = c.opts.issuer
	}
	if c.opts.audience != "" {
		claims["aud"] = c.opts.audience
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(c.secret)
	if err != nil {
		return "", err
	}

	if c.opts.encryptionKey != nil {
		return seal(c.opts.encryptionKey, []byte(signed))
	}
	return signed, nil
}

// Decode verifies and unpacks a token. A token without an exp claim is
// session-scoped and valid regardless of elapsed wall-clock time.
func (c *JWT) Decode(raw string) (Token, bool) {
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

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithTimeFunc(c.opts.now),
		jwt.WithLeeway(c.opts.leeway),
	}
	if c.opts.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(c.opts.issuer))
	}
	if c.opts.audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(c.opts.audience))
	}

	parsed, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
		return c.secret, nil
	}, parserOpts...)
	if err != nil || !parsed.Valid {
		return Token{}, false
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Token{}, false
	}

	t := Token{Claims: map[string]string{}}

	if data, ok := claims[claimData].(map[string]any); ok {
		for k, v := range data {
			if s, ok := v.(string); ok {
				t.Claims[k] = s
			}
		}
	}
	if s, ok := claims[claimAuthenticity].(string); ok {
		t.Authenticity = s
	}
	if sub, err := claims.GetSubject(); err == nil {
		t.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		t.Expiry = exp.Time
	}

	return t, true
}

var _ Codec = (*JWT)(nil)
