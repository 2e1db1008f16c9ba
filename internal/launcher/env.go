package launcher

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Environment is an activated virtualenv-style runtime directory.
type Environment struct {
	Dir string // absolute path of the environment root
}

// ActivateEnvironment validates the environment at dir (relative paths resolve against base).
//
// The directory must contain bin/activate. An empty dir returns a nil Environment, meaning activation is disabled.
func ActivateEnvironment(base, dir string) (*Environment, error) {
	if dir == "" {
		return nil, nil
	}

	if !filepath.IsAbs(dir) {
		dir = filepath.Join(base, dir)
	}

	script := filepath.Join(dir, "bin", "activate")
	info, err := os.Stat(script)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnvironment, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrEnvironment, script)
	}

	return &Environment{Dir: filepath.Clean(dir)}, nil
}

// BinDir returns the directory holding the environment's executables.
func (e *Environment) BinDir() string {
	return filepath.Join(e.Dir, "bin")
}

// Apply returns environ with the environment activated, matching what sourcing bin/activate does:
// VIRTUAL_ENV set, bin/ prepended to PATH, PYTHONHOME removed.
func (e *Environment) Apply(environ []string) []string {
	if e == nil {
		return environ
	}

	out := make([]string, 0, len(environ)+2)
	path := ""
	for _, kv := range environ {
		key, value, _ := strings.Cut(kv, "=")
		switch key {
		case "PYTHONHOME", "VIRTUAL_ENV":
			continue
		case "PATH":
			path = value
			continue
		}
		out = append(out, kv)
	}

	if path == "" {
		path = e.BinDir()
	} else {
		path = e.BinDir() + string(os.PathListSeparator) + path
	}

	return append(out, "VIRTUAL_ENV="+e.Dir, "PATH="+path)
}

// LookPath resolves program the way a shell would after activation:
// names without a separator search the activated PATH, anything else resolves against base.
func (e *Environment) LookPath(base, program string) string {
	if strings.ContainsRune(program, os.PathSeparator) {
		if filepath.IsAbs(program) {
			return program
		}
		return filepath.Join(base, program)
	}

	if e != nil {
		candidate := filepath.Join(e.BinDir(), program)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() && info.Mode()&0111 != 0 {
			return candidate
		}
	}
	return program
}
