package annoservice

import (
	"errors"
	"strings"
)

const (
	wsRoot = "cellbase/rest/"
	wsName = "genomic/variant/consequence_type"
)

// ErrIncompleteConfig is returned by ComposeURL when any of host_url,
// version or species is unset, per spec §4.E: composition fails and
// the run aborts before the reader starts.
var ErrIncompleteConfig = errors.New("annoservice: host_url, version and species are all required")

// ComposeURL builds "<hostURL>/cellbase/rest/<version>/<species>/genomic/variant/consequence_type",
// inserting '/' between parts that don't already end with one.
func ComposeURL(hostURL, version, species string) (string, error) {
	if hostURL == "" || version == "" || species == "" {
		return "", ErrIncompleteConfig
	}
	var b strings.Builder
	b.WriteString(hostURL)
	ensureSlash(&b)
	b.WriteString(wsRoot)
	b.WriteString(version)
	ensureSlash(&b)
	b.WriteString(species)
	ensureSlash(&b)
	b.WriteString(wsName)
	return b.String(), nil
}

func ensureSlash(b *strings.Builder) {
	s := b.String()
	if len(s) > 0 && s[len(s)-1] != '/' {
		b.WriteByte('/')
	}
}
