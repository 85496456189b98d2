package server

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dekarrin/gramq/server/api"
	"github.com/dekarrin/gramq/server/dao"
	"github.com/dekarrin/gramq/server/dao/inmem"
	"github.com/dekarrin/gramq/server/dao/sqlite"
	"github.com/dekarrin/gramq/server/gramqs"
)

// DBType is the type of a Database connection.
type DBType string

func (dbt DBType) String() string {
	return string(dbt)
}

const (
	DatabaseNone     DBType = "none"
	DatabaseSQLite   DBType = "sqlite"
	DatabaseInMemory DBType = "inmem"
)

// Token secrets are used as HS512 keys and must fall within these sizes.
const (
	MaxSecretSize = 64
	MinSecretSize = 32
)

// ParseDBType parses the engine part of a connection string. Case is ignored.
func ParseDBType(s string) (DBType, error) {
	switch dbt := DBType(strings.ToLower(s)); dbt {
	case DatabaseSQLite, DatabaseInMemory:
		return dbt, nil
	default:
		return DatabaseNone, fmt.Errorf("DB type not one of 'sqlite' or 'inmem': %q", s)
	}
}

// Database says where grammars, corpora, and users are persisted.
type Database struct {
	Type DBType

	// DataDir is the directory that holds the SQLite data file. Only used when
	// Type is DatabaseSQLite.
	DataDir string
}

// Connect opens the configured store. For sqlite the data directory is
// created if it does not yet exist.
func (db Database) Connect() (dao.Store, error) {
	if err := db.Validate(); err != nil {
		return nil, err
	}

	if db.Type == DatabaseInMemory {
		return inmem.NewDatastore(), nil
	}

	if err := os.MkdirAll(db.DataDir, 0770); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	store, err := sqlite.NewDatastore(db.DataDir)
	if err != nil {
		return nil, fmt.Errorf("initialize sqlite: %w", err)
	}
	return store, nil
}

// Validate returns an error if db is not a usable connection config.
func (db Database) Validate() error {
	switch db.Type {
	case DatabaseInMemory:
		return nil
	case DatabaseSQLite:
		if db.DataDir == "" {
			return fmt.Errorf("DataDir not set to path")
		}
		return nil
	case DatabaseNone:
		return fmt.Errorf("'none' DB is not valid")
	default:
		return fmt.Errorf("unknown database type: %q", db.Type.String())
	}
}

// ParseDBConnString parses a connection string of the form "engine:params",
// or just "engine" for engines that take no params. "inmem" keeps everything
// in memory; "sqlite:/var/lib/gramq" stores a data.db file in that directory.
func ParseDBConnString(s string) (Database, error) {
	engStr, paramStr, _ := strings.Cut(s, ":")
	paramStr = strings.TrimSpace(paramStr)

	eng, err := ParseDBType(strings.TrimSpace(engStr))
	if err != nil {
		return Database{}, fmt.Errorf("unsupported DB engine: %w", err)
	}

	if eng == DatabaseInMemory {
		if paramStr != "" {
			return Database{}, fmt.Errorf("unsupported param(s) for in-memory DB engine: %s", paramStr)
		}
		return Database{Type: DatabaseInMemory}, nil
	}

	if paramStr == "" {
		return Database{}, fmt.Errorf("sqlite DB engine requires path to data directory after ':'")
	}
	return Database{Type: DatabaseSQLite, DataDir: paramStr}, nil
}

// Config holds every parameter of a GramqServer.
type Config struct {
	// TokenSecret signs issued tokens. If not provided, a fixed development
	// key is used.
	TokenSecret []byte

	// DB defaults to an in-memory store.
	DB Database

	// UnauthDelayMillis is the extra time in milliseconds to wait before
	// answering a request that failed authentication, to slow down naive
	// credential guessing. 0 gives the default of one second and any negative
	// number disables the delay.
	UnauthDelayMillis int

	// AnalysisCacheSize is how many stored grammars keep their computed sets
	// in memory between requests. 0 gives gramqs.DefaultCacheSize and any
	// negative number disables the cache.
	AnalysisCacheSize int

	// MaxLookahead is the widest k a client may request. 0 gives the API
	// default.
	MaxLookahead int

	// MaxFuzzCount is the most words a client may request in one corpus. 0
	// gives the API default.
	MaxFuzzCount int

	// MaxWordLen is the longest word, in terminals, that a client may submit
	// for recognition or have generated. Corpus requests without a max length
	// are capped to it. 0 gives the API default.
	MaxWordLen int
}

// Limits returns the request limits of cfg.
func (cfg Config) Limits() api.Limits {
	return api.Limits{
		MaxK:       cfg.MaxLookahead,
		MaxCount:   cfg.MaxFuzzCount,
		MaxWordLen: cfg.MaxWordLen,
	}.FillDefaults()
}

// UnauthDelay returns UnauthDelayMillis as a time.Duration, which is 0 when
// the delay is disabled.
func (cfg Config) UnauthDelay() time.Duration {
	if cfg.UnauthDelayMillis < 1 {
		return 0
	}
	return time.Millisecond * time.Duration(cfg.UnauthDelayMillis)
}

// FillDefaults returns a copy of cfg with unset values set to their defaults.
func (cfg Config) FillDefaults() Config {
	if cfg.TokenSecret == nil {
		cfg.TokenSecret = []byte("GRAMQ_DEFAULT_TOKEN_SECRET-DO_NOT_USE_IN_PROD!")
	}
	if cfg.DB.Type == "" || cfg.DB.Type == DatabaseNone {
		cfg.DB = Database{Type: DatabaseInMemory}
	}
	if cfg.UnauthDelayMillis == 0 {
		cfg.UnauthDelayMillis = 1000
	}
	if cfg.AnalysisCacheSize == 0 {
		cfg.AnalysisCacheSize = gramqs.DefaultCacheSize
	}

	lim := cfg.Limits()
	cfg.MaxLookahead = lim.MaxK
	cfg.MaxFuzzCount = lim.MaxCount
	cfg.MaxWordLen = lim.MaxWordLen
	return cfg
}

// Validate returns an error if cfg has invalid field values set. Unset values
// are invalid; call Validate on the result of FillDefaults if defaults are
// intended.
func (cfg Config) Validate() error {
	if len(cfg.TokenSecret) < MinSecretSize {
		return fmt.Errorf("token secret: must be at least %d bytes, but is %d", MinSecretSize, len(cfg.TokenSecret))
	}
	if len(cfg.TokenSecret) > MaxSecretSize {
		return fmt.Errorf("token secret: must be no more than %d bytes, but is %d", MaxSecretSize, len(cfg.TokenSecret))
	}
	if err := cfg.DB.Validate(); err != nil {
		return fmt.Errorf("db: %w", err)
	}
	if cfg.MaxLookahead < 1 {
		return fmt.Errorf("max lookahead: must be at least 1 but is %d", cfg.MaxLookahead)
	}
	if cfg.MaxFuzzCount < 1 {
		return fmt.Errorf("max fuzz count: must be at least 1 but is %d", cfg.MaxFuzzCount)
	}
	if cfg.MaxWordLen < 1 {
		return fmt.Errorf("max word length: must be at least 1 but is %d", cfg.MaxWordLen)
	}
	return nil
}
