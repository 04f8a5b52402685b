package config

import (
	"fmt"
	"os"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/cespare/xxhash/v2"
)

// Loader compiles and validates configuration files. Compiled values are
// cached by content, so loading the same file twice compiles it once.
type Loader struct {
	mu       sync.Mutex
	ctx      *cue.Context
	compiled map[uint64]cue.Value
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{
		ctx:      cuecontext.New(),
		compiled: make(map[uint64]cue.Value),
	}
}

// Load reads the CUE file at path and returns the resulting configuration.
// An empty path yields the defaults.
func (l *Loader) Load(path string) (*Config, error) {
	if path == "" {
		return l.LoadBytes("", nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return l.LoadBytes(path, data)
}

// LoadBytes unifies CUE source with the schema, validates it and decodes the
// result. filename is only used in error messages.
func (l *Loader) LoadBytes(filename string, data []byte) (*Config, error) {
	schema, err := l.compile("schema.cue", schemaSource)
	if err != nil {
		return nil, fmt.Errorf("failed to compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath(schemaPath))
	if !def.Exists() {
		return nil, fmt.Errorf("config schema does not define %s", schemaPath)
	}

	user, err := l.compile(filename, data)
	if err != nil {
		return nil, fmt.Errorf("failed to compile config %s: %w", filename, err)
	}

	value := def.Unify(user)
	if err := value.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", filename, err)
	}

	var cfg Config
	if err := value.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", filename, err)
	}

	if _, err := cfg.EnabledKinds(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", filename, err)
	}

	return &cfg, nil
}

// CachedValues returns the number of compiled sources held by the loader
func (l *Loader) CachedValues() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.compiled)
}

// compile builds CUE source, reusing an earlier result for identical input.
// The cue.Context is not safe for concurrent use, so compilation happens
// under the loader's lock.
func (l *Loader) compile(filename string, data []byte) (cue.Value, error) {
	key := xxhash.Sum64(data)

	l.mu.Lock()
	defer l.mu.Unlock()

	if v, ok := l.compiled[key]; ok {
		return v, nil
	}

	var opts []cue.BuildOption
	if filename != "" {
		opts = append(opts, cue.Filename(filename))
	}

	v := l.ctx.CompileBytes(data, opts...)
	if err := v.Err(); err != nil {
		return cue.Value{}, err
	}

	l.compiled[key] = v
	return v, nil
}

// Load reads a configuration file with a fresh loader
func Load(path string) (*Config, error) {
	return NewLoader().Load(path)
}

// Default returns the schema defaults
func Default() *Config {
	cfg, err := NewLoader().LoadBytes("", nil)
	if err != nil {
		panic(fmt.Sprintf("embedded config schema is invalid: %v", err))
	}
	return cfg
}
