package handler

import (
	"log/slog"
	"sync"

	"github.com/koopa0/nlqagent/internal/apperrors"
)

// Constructor builds a Handler from a ConnectionConfig. Each handler
// subpackage exposes exactly one of these and registers it on a Registry
// at process start, mirroring the teacher's ai.Factory
// RegisterProvider/CreateProvider split: registration is static, but the
// underlying driver package is only imported (and therefore only linked
// in) by whichever cmd wires it up.
type Constructor func(cfg ConnectionConfig, logger *slog.Logger) (Handler, error)

// Registry enumerates supported backend kinds, describes their
// ConnectionConfig fields, and lazily constructs Handler instances.
// Unsupported-but-describable kinds (redis, oracle, mssql) are registered
// with DescribeFunc but no Constructor; Make on them fails with
// UnsupportedKind.
type Registry struct {
	logger       *slog.Logger
	mu           sync.RWMutex
	constructors map[Kind]Constructor
	describers   map[Kind]func() []FieldSchema
}

// NewRegistry creates an empty Registry. Concrete kinds register
// themselves via Register/RegisterDescribeOnly.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:       logger,
		constructors: make(map[Kind]Constructor),
		describers:   make(map[Kind]func() []FieldSchema),
	}
}

// Register installs a Constructor for kind, making it available to Make.
func (r *Registry) Register(kind Kind, describe func() []FieldSchema, construct Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.describers[kind] = describe
	r.constructors[kind] = construct
}

// RegisterDescribeOnly installs a describe function for a kind with no
// installed handler (redis, oracle, mssql): it appears in SupportedKinds
// and Describe output, but Make fails with UnsupportedKind.
func (r *Registry) RegisterDescribeOnly(kind Kind, describe func() []FieldSchema) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.describers[kind] = describe
}

// SupportedKinds returns every kind known to the registry, installed or
// describe-only.
func (r *Registry) SupportedKinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]Kind, 0, len(r.describers))
	for kind := range r.describers {
		kinds = append(kinds, kind)
	}
	return kinds
}

// Describe returns the field schema for kind, or nil if the kind is
// entirely unknown to the registry.
func (r *Registry) Describe(kind Kind) []FieldSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	describe, ok := r.describers[kind]
	if !ok {
		return nil
	}
	return describe()
}

// Make validates cfg's required fields against Describe(cfg.Kind) and
// constructs a Handler. Returns ConfigInvalid listing offending fields, or
// UnsupportedKind if no constructor is installed for cfg.Kind.
func (r *Registry) Make(cfg ConnectionConfig) (Handler, error) {
	r.mu.RLock()
	construct, hasConstructor := r.constructors[cfg.Kind]
	describe, hasDescribe := r.describers[cfg.Kind]
	r.mu.RUnlock()

	if !hasDescribe {
		return nil, apperrors.NewUnsupportedKind(string(cfg.Kind))
	}
	if !hasConstructor {
		return nil, apperrors.NewUnsupportedKind(string(cfg.Kind))
	}

	if missing := missingRequiredFields(cfg, describe()); len(missing) > 0 {
		return nil, apperrors.NewConfigInvalid("missing required fields", missing...)
	}

	return construct(cfg, r.logger)
}

func missingRequiredFields(cfg ConnectionConfig, fields []FieldSchema) []string {
	var missing []string
	for _, f := range fields {
		if !f.Required {
			continue
		}
		if fieldEmpty(cfg, f.Name) {
			missing = append(missing, f.Name)
		}
	}
	return missing
}

// fieldEmpty inspects the well-known ConnectionConfig field named name.
// Kind-specific extra fields beyond this set are validated by the
// concrete handler's own constructor instead.
func fieldEmpty(cfg ConnectionConfig, name string) bool {
	switch name {
	case "host":
		return cfg.Host == ""
	case "port":
		return cfg.Port == 0
	case "database":
		return cfg.Database == ""
	case "username":
		return cfg.Username == ""
	case "password":
		return cfg.Password == ""
	case "filePath":
		return cfg.FilePath == ""
	case "base_url":
		return cfg.BaseURL == ""
	case "api_key":
		return cfg.APIKey == ""
	case "connectionString":
		return cfg.ConnectionString == ""
	default:
		return false
	}
}
