package providers

import (
	"fmt"
	"strings"
)

// Second-level registrations under country code TLDs. Names ending in one
// of these keep three labels as the registrable root, e.g.
// "home.example.co.uk" splits into "example.co.uk" + "home".
var countrySecondLevels = map[string][]string{
	"uk": {"co", "org", "net", "ac", "gov"},
	"au": {"com", "net", "org", "edu", "gov"},
	"nz": {"co", "net", "org", "ac", "govt"},
	"za": {"co", "net", "org", "ac", "gov"},
	"br": {"com", "net", "org", "edu", "gov"},
	"in": {"co", "net", "org", "edu", "gov"},
}

// splitDomain separates a fully qualified record name into the registrable
// root providers address zones by and the remaining subdomain part.
// "home.example.org" yields ("example.org", "home"); a bare root yields an
// empty subdomain.
func splitDomain(fqdn string) (root, sub string, err error) {
	name := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(fqdn), "."))
	if name == "" {
		return "", "", fmt.Errorf("empty domain name")
	}

	parts := strings.Split(name, ".")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("domain %q has no registrable root", fqdn)
	}
	for _, p := range parts {
		if p == "" {
			return "", "", fmt.Errorf("domain %q has an empty label", fqdn)
		}
	}

	rootLabels := 2
	if len(parts) >= 3 {
		last := parts[len(parts)-1]
		secondLast := parts[len(parts)-2]
		for _, valid := range countrySecondLevels[last] {
			if secondLast == valid {
				rootLabels = 3
				break
			}
		}
	}
	if len(parts) < rootLabels {
		return "", "", fmt.Errorf("domain %q has no registrable root", fqdn)
	}

	root = strings.Join(parts[len(parts)-rootLabels:], ".")
	sub = strings.Join(parts[:len(parts)-rootLabels], ".")
	return root, sub, nil
}
