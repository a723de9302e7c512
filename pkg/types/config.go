package types

// Config selects and parameterizes the storage backend.
type Config struct {
	Backend string `json:"backend" yaml:"backend"`
	DataDir string `json:"data_dir" yaml:"data_dir"`
	DSN     string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
	Secrets string `json:"secrets,omitempty" yaml:"secrets,omitempty"`
}

// Supported backend names.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendJSONL    = "jsonl"
	BackendMemory   = "memory"
)

// Supported secrets stores. SecretsStore keeps the session token in the main
// backend; SecretsKeyring uses the OS keyring.
const (
	SecretsStore   = "store"
	SecretsKeyring = "keyring"
)

var knownBackends = map[string]bool{
	BackendSQLite:   true,
	BackendPostgres: true,
	BackendJSONL:    true,
	BackendMemory:   true,
}

// Validate checks that the Config is well-formed.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.Backend == BackendPostgres && c.DSN == "" {
		return ErrDSNRequired
	}
	switch c.Secrets {
	case "", SecretsStore, SecretsKeyring:
	default:
		return ErrSecretsUnknown
	}
	return nil
}
