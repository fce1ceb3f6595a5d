// Package persistence durably stores the Connection Manager's
// ConnectionConfig set as the single JSON array of spec.md §6: "the only
// durable state of the core." Writes are atomic (write-temp + rename);
// credential fields are sealed with chacha20poly1305 before they touch
// disk.
//
// No corpus source file demonstrates a write-temp-then-rename atomic
// writer or chacha20poly1305 sealing directly (they are real teacher
// go.mod dependencies exercised only implicitly), so this package follows
// golang.org/x/crypto/chacha20poly1305's own public API and the standard
// os.Rename-for-atomicity idiom (see DESIGN.md).
package persistence

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/koopa0/nlqagent/internal/handler"
)

// Record is the persisted, sealed form of one ConnectionConfig: every
// credential-bearing field (Password, APIKey, ConnectionString) is
// encrypted independently so that the rest of the record stays
// human-readable on disk.
type Record struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Kind     handler.Kind `json:"kind"`
	Host     string      `json:"host,omitempty"`
	Port     int         `json:"port,omitempty"`
	Database string      `json:"database,omitempty"`
	Username string      `json:"username,omitempty"`
	SSL      bool        `json:"ssl,omitempty"`
	Schema   string      `json:"schema,omitempty"`
	AuthSource string    `json:"auth_source,omitempty"`
	FilePath string      `json:"file_path,omitempty"`
	Mode     string      `json:"mode,omitempty"`
	BaseURL  string      `json:"base_url,omitempty"`

	// Sealed, base64-encoded ciphertext for each credential field; empty
	// when the corresponding plaintext field was empty.
	SealedPassword         string `json:"sealed_password,omitempty"`
	SealedAPIKey           string `json:"sealed_api_key,omitempty"`
	SealedConnectionString string `json:"sealed_connection_string,omitempty"`

	VirtualTables map[string]handler.VirtualTableSpec `json:"virtual_tables,omitempty"`
}

// Store reads and atomically writes the connections JSON file, sealing
// credentials with a chacha20poly1305 key supplied at construction.
type Store struct {
	path string
	seal *sealer
	mu   sync.Mutex
}

// NewStore creates a Store backed by path, sealing credentials with the
// 32-byte key decoded from keyBase64. An empty keyBase64 disables sealing
// (credentials are stored in plaintext) — intended only for local
// development, never production use.
func NewStore(path, keyBase64 string) (*Store, error) {
	s, err := newSealer(keyBase64)
	if err != nil {
		return nil, fmt.Errorf("persistence: %w", err)
	}
	return &Store{path: path, seal: s}, nil
}

// Load reads every persisted ConnectionConfig, unsealing credentials. A
// missing file is treated as an empty store, not an error.
func (s *Store) Load() ([]handler.ConnectionConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("persistence: read %s: %w", s.path, err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("persistence: decode %s: %w", s.path, err)
	}

	configs := make([]handler.ConnectionConfig, 0, len(records))
	for _, r := range records {
		cfg, err := s.toConfig(r)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

// Save writes the full set of ConnectionConfigs, sealing credentials,
// atomically (write-temp + rename) so a crash mid-write never corrupts
// the previous state.
func (s *Store) Save(configs []handler.ConnectionConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]Record, 0, len(configs))
	for _, cfg := range configs {
		r, err := s.toRecord(cfg)
		if err != nil {
			return err
		}
		records = append(records, r)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("persistence: encode: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("persistence: mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".connections-*.json.tmp")
	if err != nil {
		return fmt.Errorf("persistence: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("persistence: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("persistence: close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("persistence: rename into place: %w", err)
	}
	return nil
}

func (s *Store) toRecord(cfg handler.ConnectionConfig) (Record, error) {
	r := Record{
		ID: cfg.ID, Name: cfg.Name, Kind: cfg.Kind,
		Host: cfg.Host, Port: cfg.Port, Database: cfg.Database, Username: cfg.Username,
		SSL: cfg.SSL, Schema: cfg.Schema, AuthSource: cfg.AuthSource,
		FilePath: cfg.FilePath, Mode: cfg.Mode, BaseURL: cfg.BaseURL,
		VirtualTables: cfg.VirtualTables,
	}

	var err error
	if r.SealedPassword, err = s.seal.seal(cfg.Password); err != nil {
		return Record{}, err
	}
	if r.SealedAPIKey, err = s.seal.seal(cfg.APIKey); err != nil {
		return Record{}, err
	}
	if r.SealedConnectionString, err = s.seal.seal(cfg.ConnectionString); err != nil {
		return Record{}, err
	}
	return r, nil
}

func (s *Store) toConfig(r Record) (handler.ConnectionConfig, error) {
	cfg := handler.ConnectionConfig{
		ID: r.ID, Name: r.Name, Kind: r.Kind,
		Host: r.Host, Port: r.Port, Database: r.Database, Username: r.Username,
		SSL: r.SSL, Schema: r.Schema, AuthSource: r.AuthSource,
		FilePath: r.FilePath, Mode: r.Mode, BaseURL: r.BaseURL,
		VirtualTables: r.VirtualTables,
	}

	var err error
	if cfg.Password, err = s.seal.unseal(r.SealedPassword); err != nil {
		return handler.ConnectionConfig{}, err
	}
	if cfg.APIKey, err = s.seal.unseal(r.SealedAPIKey); err != nil {
		return handler.ConnectionConfig{}, err
	}
	if cfg.ConnectionString, err = s.seal.unseal(r.SealedConnectionString); err != nil {
		return handler.ConnectionConfig{}, err
	}
	return cfg, nil
}

// sealer wraps a chacha20poly1305 AEAD, or is a no-op when no key was
// configured.
type sealer struct {
	aead cipherAEAD
}

// cipherAEAD is the subset of cipher.AEAD sealer uses; declared locally
// so sealer can be constructed with a nil AEAD for the no-op case without
// importing crypto/cipher just for the interface name.
type cipherAEAD interface {
	NonceSize() int
	Seal(dst, nonce, plaintext, additionalData []byte) []byte
	Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
}

func newSealer(keyBase64 string) (*sealer, error) {
	if keyBase64 == "" {
		return &sealer{}, nil
	}
	key, err := base64.StdEncoding.DecodeString(keyBase64)
	if err != nil {
		return nil, fmt.Errorf("decode seal key: %w", err)
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	return &sealer{aead: aead}, nil
}

func (s *sealer) seal(plaintext string) (string, error) {
	if plaintext == "" || s.aead == nil {
		return base64.StdEncoding.EncodeToString([]byte(plaintext)), nil
	}
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	ciphertext := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func (s *sealer) unseal(sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}
	data, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("decode sealed value: %w", err)
	}
	if s.aead == nil {
		return string(data), nil
	}
	nonceSize := s.aead.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("sealed value too short")
	}
	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("unseal value: %w", err)
	}
	return string(plaintext), nil
}
