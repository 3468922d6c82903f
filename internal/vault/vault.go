// Package vault locates TLP-governed vaults and classifies the files in them.
package vault

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// PolicyFileName marks a vault root and holds its classification policy.
const PolicyFileName = ".tlp"

// OverrideKey is the frontmatter field a document uses to declare its level.
const OverrideKey = "tlp"

// FindFromDir walks up from dir looking for the policy file.
func FindFromDir(dir string) (string, bool) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, PolicyFileName)); err == nil {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// Find walks up from the file's parent directory looking for the policy file.
func Find(filePath string) (string, bool) {
	return FindFromDir(filepath.Dir(filePath))
}

// FindFromCwd walks up from the working directory.
func FindFromCwd() (string, bool) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", false
	}
	return FindFromDir(cwd)
}

// ReadPolicy reads the vault's policy text and its content hash.
func ReadPolicy(root string) (string, string, error) {
	data, err := os.ReadFile(filepath.Join(root, PolicyFileName))
	if err != nil {
		return "", "", fmt.Errorf("failed to read policy: %w", err)
	}
	h := sha256.Sum256(data)
	return string(data), "sha256:" + hex.EncodeToString(h[:]), nil
}

// PolicyHash returns the "sha256:<hex>" digest of the vault policy.
func PolicyHash(root string) (string, error) {
	_, hash, err := ReadPolicy(root)
	return hash, err
}
