package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/krazybird78/travel-plug-checker/internal/core"
)

// Encode renders profiles as the canonical artifact: a JSON array with
// two-space indentation and a trailing newline. Empty sets encode as [].
// The same input always yields the same bytes.
func Encode(profiles []core.Profile) ([]byte, error) {
	out := make([]core.Profile, len(profiles))
	for i, p := range profiles {
		out[i] = core.Profile{
			Name:        p.Name,
			Code:        p.Code,
			Frequencies: nonNil(p.Frequencies),
			Plugs:       nonNil(p.Plugs),
			Voltages:    nonNil(p.Voltages),
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("encode artifact: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteArtifact writes profiles to path all-or-nothing: the data is encoded
// and written to a temporary file next to path, synced, and renamed over
// path. On any error the existing file is left untouched.
func WriteArtifact(path string, profiles []core.Profile) error {
	data, err := Encode(profiles)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp artifact: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp artifact: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp artifact: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename artifact: %w", err)
	}

	committed = true
	return nil
}

// ReadArtifact loads the profiles previously written by WriteArtifact.
func ReadArtifact(path string) ([]core.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}

	var profiles []core.Profile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", path, err)
	}
	return profiles, nil
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
