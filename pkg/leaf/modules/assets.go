package modules

import (
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/benjaminschreck/go-leaf/pkg/leaf"
	"github.com/benjaminschreck/go-leaf/pkg/leaf/dom"
)

// FingerprintAttribute marks elements whose src or href gets a content hash
const FingerprintAttribute = "fingerprint"

// FingerprintLength is the number of hex digits of the hash appended as ?v=
const FingerprintLength = 12

var fingerprintTargets = []string{"src", "href"}

// Fingerprint returns the short blake3 fingerprint of content
func Fingerprint(content string) string {
	sum := blake3.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])[:FingerprintLength]
}

// NewAssets returns the assets module. Any element carrying a fingerprint
// attribute has its local src and href rewritten to path?v=<hash>, with the
// file resolved relative to the element's source.
func NewAssets() *leaf.Module {
	return leaf.NewModule(func(s *leaf.Session, _ ...leaf.ModuleFunc) error {
		s.Directive(leaf.Directive{
			Name: "fingerprint",
			Matches: func(el *dom.Selection) bool {
				return el.HasAttr(FingerprintAttribute)
			},
			Logic: func(el *dom.Selection, _ leaf.Context) error {
				el.RemoveAttr(FingerprintAttribute)
				for _, attr := range fingerprintTargets {
					ref, ok := el.Attr(attr)
					if !ok || !isLocalRef(ref) {
						continue
					}
					versioned, err := fingerprintRef(s, ref, el.Source())
					if err != nil {
						return err
					}
					el.SetAttr(attr, versioned)
				}
				return nil
			},
		})
		return nil
	})
}

func isLocalRef(ref string) bool {
	switch {
	case ref == "", strings.HasPrefix(ref, "#"), strings.HasPrefix(ref, "//"):
		return false
	case strings.Contains(ref, "://"), strings.HasPrefix(ref, "data:"), strings.HasPrefix(ref, "mailto:"):
		return false
	}
	return true
}

func fingerprintRef(s *leaf.Session, ref, source string) (string, error) {
	path, suffix := ref, ""
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		path, suffix = ref[:i], ref[i:]
	}

	file := path
	if !filepath.IsAbs(file) {
		file = filepath.Join(leaf.BaseDir(source), filepath.FromSlash(path))
	}

	v, err := s.Cache().NS("fingerprints").Memo(file, func() (interface{}, error) {
		content, err := s.LoadFile(file)
		if err != nil {
			return nil, err
		}
		return Fingerprint(content), nil
	})
	if err != nil {
		return "", fmt.Errorf("fingerprint %s: %w", ref, err)
	}

	query, fragment := suffix, ""
	if i := strings.Index(suffix, "#"); i >= 0 {
		query, fragment = suffix[:i], suffix[i:]
	}
	separator := "?"
	if query != "" {
		separator = "&"
	}
	return path + query + separator + "v=" + v.(string) + fragment, nil
}
