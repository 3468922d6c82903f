package vault

import (
	"os"
	"path/filepath"

	"github.com/ppiankov/contexttlp/internal/frontmatter"
	"github.com/ppiankov/contexttlp/internal/tlp"
)

// Classification is the effective level of one file.
type Classification struct {
	Level tlp.Level `json:"level"`
	// RelPath is slash-separated and relative to Root.
	RelPath string `json:"path"`
	Root    string `json:"vault"`
	// PathLevel is what the policy alone assigns, before any frontmatter
	// override. Equal to Level when ConfigError is set.
	PathLevel tlp.Level `json:"path_level"`
	// ConfigError means the policy could not be read and Level is RED.
	ConfigError bool   `json:"config_error"`
	PolicyHash  string `json:"policy_hash,omitempty"`
}

// ClassifyFile classifies a file by the policy of the vault containing it.
// It returns false when no vault encloses the path. An unreadable policy
// classifies everything RED with ConfigError set. A frontmatter "tlp" value
// can only raise the level the policy assigns.
func ClassifyFile(path string) (*Classification, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, false
	}
	root, ok := Find(abs)
	if !ok {
		return nil, false
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return nil, false
	}
	c := &Classification{RelPath: filepath.ToSlash(rel), Root: root}

	policy, hash, err := ReadPolicy(root)
	if err != nil {
		c.Level, c.PathLevel, c.ConfigError = tlp.Red, tlp.Red, true
		return c, true
	}
	c.PolicyHash = hash
	c.PathLevel = tlp.Classify(c.RelPath, policy)
	c.Level = c.PathLevel

	if content, err := os.ReadFile(abs); err == nil {
		if v, ok := frontmatter.GetValue(string(content), OverrideKey); ok {
			if lvl, ok := tlp.ParseLevel(v); ok {
				c.Level = tlp.MostRestrictive(c.Level, lvl)
			}
		}
	}
	return c, true
}
