// Package token encodes and decodes the signed, optionally encrypted
// compact strings that carry session, authentication, and flash state
// inside cookies.
//
// Two codecs implement the same [Codec] contract:
//
//   - [NewJWT] builds HS512-signed JWTs (the canonical format), with a
//     configurable leeway applied to time-based claims.
//   - [NewLegacy] builds the delimiter-based format
//     "signature|subject|authenticity|expiry|version#claims" signed with
//     HMAC-SHA512. It remains readable for cookies issued by older
//     deployments and can still be selected per cookie kind.
//
// Both codecs can additionally encrypt the whole token with AES-256-GCM
// when an encryption key is configured via [WithEncryption].
//
// Decode never returns an error: any failure (bad signature, failed
// decryption, malformed structure, expired token) yields ok=false so a
// forged or stale cookie degrades to an empty state instead of
// interrupting request handling.
package token
