package validators

import (
	"context"
	"net"
	"strings"
	"time"
)

// Resolver is the subset of net.Resolver used for email domain checks.
type Resolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// IsEmailDomainValid reports whether the domain part of email resolves to a
// mail exchanger or, failing that, to any address.
func IsEmailDomainValid(ctx context.Context, r Resolver, email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return false
	}

	domain := email[at+1:]

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if mx, err := r.LookupMX(ctx, domain); err == nil && len(mx) > 0 {
		return true
	}

	if ips, err := r.LookupIPAddr(ctx, domain); err == nil && len(ips) > 0 {
		return true
	}

	return false
}
