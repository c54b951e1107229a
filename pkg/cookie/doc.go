// Package cookie adapts the token codec to the three cookie-borne state
// kinds: session, authentication, and flash. Each kind has its own
// cookie name, codec (and therefore secret), and lifetime policy.
//
// Reading never fails: an absent cookie yields a fresh default state,
// and a cookie that fails to decode yields a fresh state marked
// invalid, which makes the write side clear the stale cookie.
//
// Writing is a three-way decision per kind:
//
//  1. invalid or logged-out state — emit an immediately-expiring cookie;
//  2. unchanged state — emit nothing at all;
//  3. changed state — encode and emit a fresh cookie.
//
// Session, authentication, and flash cookies always carry Secure,
// HttpOnly, and SameSite=Strict. This is not configurable.
package cookie
