// internal/discovery/scope.go
package discovery

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// SiteScope restricts candidate pages to the organization that owns the start URL.
type SiteScope struct {
	rootDomain string
}

// NewSiteScope derives the scope from the start URL's registrable domain (eTLD+1).
func NewSiteScope(startURL string) (*SiteScope, error) {
	u, err := url.Parse(startURL)
	if err != nil {
		return nil, err
	}

	hostname := u.Hostname()
	if hostname == "" {
		return nil, fmt.Errorf("start URL must have a hostname: %s", startURL)
	}

	// The public suffix list handles hosts like 'shop.example.co.uk'.
	domain, err := publicsuffix.EffectiveTLDPlusOne(hostname)
	if err != nil {
		return nil, fmt.Errorf("could not determine effective TLD+1 for %s: %w", hostname, err)
	}
	return &SiteScope{rootDomain: domain}, nil
}

// Contains reports whether u is on the root domain or one of its subdomains.
func (s *SiteScope) Contains(u *url.URL) bool {
	host := strings.ToLower(u.Hostname())
	return host == s.rootDomain || strings.HasSuffix(host, "."+s.rootDomain)
}

// RootDomain returns the eTLD+1 defining the scope.
func (s *SiteScope) RootDomain() string {
	return s.rootDomain
}
