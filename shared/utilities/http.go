package utilities

import (
	"fmt"
	"net"
	"net/netip"
	"net/http"
	"net/url"
	"strings"
)

// ClientIPResolver extracts the originating client address. Forwarding
// headers are honoured only when the connection comes from a trusted proxy;
// anyone else could set them to any value.
type ClientIPResolver struct {
	trusted []netip.Prefix
}

// NewClientIPResolver accepts CIDR ranges or bare addresses of the reverse
// proxies in front of the service. With no proxies every header is ignored.
func NewClientIPResolver(proxies []string) (*ClientIPResolver, error) {
	trusted := make([]netip.Prefix, 0, len(proxies))
	for _, proxy := range proxies {
		proxy = strings.TrimSpace(proxy)
		if proxy == "" {
			continue
		}

		if strings.Contains(proxy, "/") {
			prefix, err := netip.ParsePrefix(proxy)
			if err != nil {
				return nil, fmt.Errorf("invalid trusted proxy %q: %w", proxy, err)
			}
			trusted = append(trusted, prefix.Masked())
			continue
		}

		addr, err := netip.ParseAddr(proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", proxy, err)
		}
		addr = addr.Unmap()
		trusted = append(trusted, netip.PrefixFrom(addr, addr.BitLen()))
	}

	return &ClientIPResolver{trusted: trusted}, nil
}

// ClientIP returns the caller's address. X-Forwarded-For is walked from the
// right, skipping trusted hops, so entries prepended by the client are never
// reached. A nil resolver trusts no one.
func (c *ClientIPResolver) ClientIP(r *http.Request) string {
	remote := RemoteIP(r)
	if c == nil || !c.isTrusted(remote) {
		return remote
	}

	if forwarded := r.Header.Values("X-Forwarded-For"); len(forwarded) > 0 {
		hops := strings.Split(strings.Join(forwarded, ","), ",")
		for i := len(hops) - 1; i >= 0; i-- {
			addr, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil {
				break
			}
			if !c.isTrusted(addr.Unmap().String()) {
				return addr.Unmap().String()
			}
		}
	}

	if addr, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return addr.Unmap().String()
	}

	return remote
}

func (c *ClientIPResolver) isTrusted(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()

	for _, prefix := range c.trusted {
		if prefix.Contains(addr) {
			return true
		}
	}

	return false
}

// RemoteIP returns the host part of the connection's remote address.
func RemoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}

// RefererPath returns the path of the Referer header when it points to the
// same host as the request. Foreign or unparsable referers yield "".
func RefererPath(r *http.Request) string {
	referer := r.Header.Get("Referer")
	if referer == "" {
		return ""
	}

	u, err := url.Parse(referer)
	if err != nil {
		return ""
	}

	if u.Host != "" && u.Host != r.Host {
		return ""
	}

	// Browsers treat "//host" and "/\host" as protocol-relative URLs.
	if !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") || strings.HasPrefix(u.Path, "/\\") {
		return ""
	}

	return u.Path
}

// RequestOrigin returns scheme://host for the request as the client saw it.
func RequestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}

	return scheme + "://" + r.Host
}
