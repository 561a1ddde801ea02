package queue

import "strings"

// The appointment service cannot accept dots in path components, so an email
// used as a path parameter has every '.' in its domain part swapped for a
// comma. A comma can never occur in a valid domain, which makes the swap
// lossless. This encoding is applied at the service boundary and nowhere else.
const domainDotSentinel = ","

// EncodeIdentity converts an email identity to its wire form. Non-email
// identities (no '@') pass through untouched.
func EncodeIdentity(identity string) string {
	at := strings.LastIndex(identity, "@")
	if at < 0 {
		return identity
	}
	local, domain := identity[:at], identity[at+1:]
	return local + "@" + strings.ReplaceAll(domain, ".", domainDotSentinel)
}

// DecodeIdentity undoes EncodeIdentity.
func DecodeIdentity(wire string) string {
	at := strings.LastIndex(wire, "@")
	if at < 0 {
		return wire
	}
	local, domain := wire[:at], wire[at+1:]
	return local + "@" + strings.ReplaceAll(domain, domainDotSentinel, ".")
}
