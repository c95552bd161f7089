// Package settings loads the lookconf configuration file. Settings cover
// the collaborators around the engine (authoring endpoint, snapshot cache,
// report store); document and configuration inputs always come from the
// command line.
package settings

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/plmtools/lookconf/pkg/authoring"
	"github.com/plmtools/lookconf/pkg/errors"
)

// Settings is the root of the TOML configuration file.
type Settings struct {
	Authoring Authoring `toml:"authoring"`
	Cache     CacheCfg  `toml:"cache"`
	Report    Report    `toml:"report"`
}

// Authoring configures the authoring service endpoint.
type Authoring struct {
	Host           string `toml:"host"`
	Port           int    `toml:"port"`
	APIVersion     string `toml:"api_version"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	Retries        int    `toml:"retries"`
}

// ClientConfig converts the settings to a client configuration.
func (a Authoring) ClientConfig() authoring.Config {
	return authoring.Config{
		Host:       a.Host,
		Port:       a.Port,
		APIVersion: a.APIVersion,
		Timeout:    time.Duration(a.TimeoutSeconds) * time.Second,
		Retries:    a.Retries,
	}
}

// Cache backends.
const (
	CacheBackendFile  = "file"
	CacheBackendRedis = "redis"
	CacheBackendNone  = "none"
)

// CacheCfg configures the document snapshot cache.
type CacheCfg struct {
	Backend  string `toml:"backend"` // "file", "redis" or "none"
	Dir      string `toml:"dir"`     // file backend; empty means the user cache dir
	Redis    string `toml:"redis"`   // redis backend address, host:port
	TTLHours int    `toml:"ttl_hours"`
}

// TTL returns the configured entry lifetime.
func (c CacheCfg) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// Report configures the optional MongoDB apply-report store. An empty URI
// disables reporting.
type Report struct {
	MongoURI   string `toml:"mongo_uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// Enabled reports whether a report store is configured.
func (r Report) Enabled() bool { return r.MongoURI != "" }

// Default returns the settings used when no file exists.
func Default() Settings {
	return Settings{
		Authoring: Authoring{
			Host:           "localhost",
			Port:           authoring.DefaultPort,
			APIVersion:     authoring.DefaultAPIVersion,
			TimeoutSeconds: int(authoring.DefaultTimeout / time.Second),
			Retries:        authoring.DefaultRetries,
		},
		Cache: CacheCfg{
			Backend:  CacheBackendFile,
			TTLHours: 24 * 7,
		},
		Report: Report{
			Database:   "lookconf",
			Collection: "applies",
		},
	}
}

// DefaultPath returns the per-user settings file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "lookconf", "config.toml"), nil
}

// Load reads settings from path. A missing file yields Default() without
// error; a present but unparseable file is an error. Fields absent from
// the file keep their defaults.
func Load(path string) (Settings, error) {
	s := Default()

	meta, err := toml.DecodeFile(path, &s)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Settings{}, errors.Wrap(errors.ErrCodeParseFailed, err, "settings file %s", path)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Settings{}, errors.New(errors.ErrCodeInvalidInput,
			"settings file %s: unknown key %s", path, undecoded[0].String())
	}

	switch s.Cache.Backend {
	case CacheBackendFile, CacheBackendRedis, CacheBackendNone:
	default:
		return Settings{}, errors.New(errors.ErrCodeInvalidInput,
			"settings file %s: unknown cache backend %q", path, s.Cache.Backend)
	}

	return s, nil
}
