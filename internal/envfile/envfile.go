// Package envfile edits dotenv files in place.
package envfile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var keyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Upsert sets key=value in the file at path. An existing KEY= line is replaced
// in place; otherwise the pair is appended. Every other line is kept verbatim.
// A missing file is created.
func Upsert(path, key, value string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("envfile: invalid key %q", key)
	}
	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("envfile: value for %s contains a newline", key)
	}

	content, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("envfile: read %s: %w", path, err)
	}

	perm := os.FileMode(0o600)
	if info, statErr := os.Stat(path); statErr == nil {
		perm = info.Mode().Perm()
	}

	return writeAtomic(path, Apply(content, key, value), perm)
}

// Apply returns content with key set to value.
func Apply(content []byte, key, value string) []byte {
	line := key + "=" + value
	re := regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(key) + `=.*$`)

	if re.Match(content) {
		replaced := false
		return re.ReplaceAllFunc(content, func(m []byte) []byte {
			if replaced {
				return m
			}
			replaced = true
			// keep a trailing \r so CRLF files stay CRLF
			if bytes.HasSuffix(m, []byte("\r")) {
				return []byte(line + "\r")
			}
			return []byte(line)
		})
	}

	out := make([]byte, 0, len(content)+len(line)+1)
	out = append(out, content...)
	if len(out) > 0 && out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	out = append(out, line...)
	out = append(out, '\n')
	return out
}

func writeAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("envfile: create temp: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("envfile: write temp: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("envfile: chmod temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("envfile: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("envfile: rename: %w", err)
	}
	return nil
}
