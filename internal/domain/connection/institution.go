package connection

import (
	"log"
	"net/url"
	"strings"
)

// Institution is the normalized identity of a financial institution as
// derived from the bridge's raw organization data.
type Institution struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name,omitempty"`
	Domain string `json:"domain,omitempty"`
	URL    string `json:"url,omitempty"`
}

// ResolveInstitution normalizes raw organization data. The bridge spells the
// site URL as either "url" or "sfin-url"; both are accepted. When no explicit
// domain is present one is derived from the URL's host, stripping a leading
// "www." label. An unparsable URL logs a warning and leaves the domain unset;
// a single malformed organization must never fail an import.
func ResolveInstitution(org map[string]any) Institution {
	inst := Institution{
		ID:     stringField(org, "id"),
		Name:   stringField(org, "name"),
		Domain: stringField(org, "domain"),
	}

	inst.URL = stringField(org, "url")
	if inst.URL == "" {
		inst.URL = stringField(org, "sfin-url")
	}

	if inst.Domain == "" && inst.URL != "" {
		parsed, err := url.Parse(inst.URL)
		if err != nil {
			log.Printf("Warning: invalid institution URL %q: %v", inst.URL, err)
		} else if host := parsed.Hostname(); host != "" {
			inst.Domain = strings.TrimPrefix(host, "www.")
		}
	}

	return inst
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}
