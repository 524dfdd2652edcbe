package session

import (
	"sort"
	"strings"
)

// CookieStore maps a domain to the cookies issued for it.
//
// Set merges into the existing per-domain map: a later Set-Cookie for a name
// overwrites only that name. There is no removal and expiry attributes are
// ignored; a store lives for exactly one login session and is then dropped.
//
// Cookie names keep their first-seen order so Header output is stable.
// A CookieStore is not safe for concurrent use; each session owns its own.
type CookieStore struct {
	domains map[string]*domainCookies
}

// domainCookies holds the cookies of one domain in insertion order.
type domainCookies struct {
	names  []string
	values map[string]string
}

// NewCookieStore creates an empty CookieStore.
func NewCookieStore() *CookieStore {
	return &CookieStore{domains: make(map[string]*domainCookies)}
}

// Set parses raw Set-Cookie header values and upserts them under domain.
//
// For each header only the part before the first ';' is used, split on the
// first '=' into name and value. Headers with an empty name are skipped.
func (s *CookieStore) Set(domain string, setCookieHeaders []string) {
	if s.domains == nil {
		s.domains = make(map[string]*domainCookies)
	}

	dc, ok := s.domains[domain]
	if !ok {
		dc = &domainCookies{values: make(map[string]string)}
		s.domains[domain] = dc
	}

	for _, header := range setCookieHeaders {
		pair, _, _ := strings.Cut(header, ";")
		name, value, _ := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, exists := dc.values[name]; !exists {
			dc.names = append(dc.names, name)
		}
		dc.values[name] = strings.TrimSpace(value)
	}
}

// Header renders the cookies of domain as a Cookie request header value:
// "name=value; name=value". Unknown domains render as "".
func (s *CookieStore) Header(domain string) string {
	dc, ok := s.domains[domain]
	if !ok || len(dc.names) == 0 {
		return ""
	}

	var b strings.Builder
	for i, name := range dc.names {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(dc.values[name])
	}
	return b.String()
}

// Get returns the value of one cookie.
func (s *CookieStore) Get(domain, name string) (string, bool) {
	dc, ok := s.domains[domain]
	if !ok {
		return "", false
	}
	v, ok := dc.values[name]
	return v, ok
}

// Len returns the number of cookies held for domain.
func (s *CookieStore) Len(domain string) int {
	dc, ok := s.domains[domain]
	if !ok {
		return 0
	}
	return len(dc.names)
}

// Names returns the cookie names held for domain in first-seen order.
func (s *CookieStore) Names(domain string) []string {
	dc, ok := s.domains[domain]
	if !ok {
		return nil
	}
	out := make([]string, len(dc.names))
	copy(out, dc.names)
	return out
}

// Domains returns the known domains, sorted.
func (s *CookieStore) Domains() []string {
	out := make([]string, 0, len(s.domains))
	for d := range s.domains {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Clone returns a deep copy. Stages clone the store they receive so the
// caller's value is never mutated behind its back.
func (s *CookieStore) Clone() *CookieStore {
	out := NewCookieStore()
	for domain, dc := range s.domains {
		copied := &domainCookies{
			names:  make([]string, len(dc.names)),
			values: make(map[string]string, len(dc.values)),
		}
		copy(copied.names, dc.names)
		for k, v := range dc.values {
			copied.values[k] = v
		}
		out.domains[domain] = copied
	}
	return out
}
