package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	// DatadirKey is the local data directory to store the internal state of
	// the daemon
	DatadirKey = "DATA_DIR_PATH"
	// PortKey is the port where the HTTP interface will listen on
	PortKey = "PORT"
	// LogLevelKey are the different logging levels. For reference on the
	// values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// DbTypeKey is the type of storage, either "badger" or "inmemory"
	DbTypeKey = "DB_TYPE"
	// CryptoEngineKey is the encryption provider, either "soft" for the
	// embedded engine or "remote" for an external one
	CryptoEngineKey = "CRYPTO_ENGINE"
	// EngineEndpointKey is the base url of the remote encryption provider API
	EngineEndpointKey = "ENGINE_ENDPOINT"
	// EngineRateLimitKey is the number of requests per second granted to the
	// remote encryption provider client
	EngineRateLimitKey = "ENGINE_RATE_LIMIT"
	// CheckRateLimitKey is the number of screening checks per second accepted
	// by the public interface, 0 disables the limiter
	CheckRateLimitKey = "CHECK_RATE_LIMIT"
	// VaultPasswordKey is the password unlocking the encrypted stores of the
	// daemon
	VaultPasswordKey = "VAULT_PASSWORD"
	// OwnerKey is the party id the access registry is initialized with at the
	// first start
	OwnerKey = "OWNER"
	// NoMacaroonsKey is used to start the daemon without macaroons auth on
	// the operator interface
	NoMacaroonsKey = "NO_MACAROONS"
	// NoTLSKey is used to serve the HTTP interface without TLS encryption
	NoTLSKey = "NO_TLS"
	// ExtraIPsKey are additional ips to include in the TLS certificate
	ExtraIPsKey = "EXTRA_IPS"
	// ExtraDomainsKey are additional domains to include in the TLS
	// certificate
	ExtraDomainsKey = "EXTRA_DOMAINS"
	// EnableProfilerKey enables profiler that can be used to investigate
	// performance issues
	EnableProfilerKey = "ENABLE_PROFILER"
	// StatsIntervalKey defines the interval in seconds for printing basic
	// memory statistics
	StatsIntervalKey = "STATS_INTERVAL"

	DbLocation        = "db"
	TLSLocation       = "tls"
	MacaroonsLocation = "macaroons"
	ProfilerLocation  = "stats"

	DbBadger   = "badger"
	DbInMemory = "inmemory"

	EngineSoft   = "soft"
	EngineRemote = "remote"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("vigild", false)

func init() {
	vip = viper.New()
	vip.SetEnvPrefix("VIGIL")
	vip.AutomaticEnv()

	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(PortKey, 9000)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(DbTypeKey, DbBadger)
	vip.SetDefault(CryptoEngineKey, EngineSoft)
	vip.SetDefault(EngineRateLimitKey, 50)
	vip.SetDefault(CheckRateLimitKey, 20)
	vip.SetDefault(NoMacaroonsKey, false)
	vip.SetDefault(NoTLSKey, false)
	vip.SetDefault(EnableProfilerKey, false)
	vip.SetDefault(StatsIntervalKey, 600)

	if err := validate(); err != nil {
		log.WithError(err).Panic("error while validating config")
	}

	if err := initDatadir(); err != nil {
		log.WithError(err).Panic("error while creating datadir")
	}
}

//GetString ...
func GetString(key string) string {
	return vip.GetString(key)
}

//GetInt ...
func GetInt(key string) int {
	return vip.GetInt(key)
}

//GetDuration ...
func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

//GetBool ...
func GetBool(key string) bool {
	return vip.GetBool(key)
}

//GetStringSlice ...
func GetStringSlice(key string) []string {
	return vip.GetStringSlice(key)
}

//GetDatadir ...
func GetDatadir() string {
	return GetString(DatadirKey)
}

// GetListenAddress returns the host:port pair the HTTP interface binds to.
func GetListenAddress() string {
	return fmt.Sprintf(":%d", GetInt(PortKey))
}

// Set a value for the given key
func Set(key string, value interface{}) {
	vip.Set(key, value)
}

// IsSet returns whether the given key is set
func IsSet(key string) bool {
	return vip.IsSet(key)
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("datadir must not be null")
	}

	if port := GetInt(PortKey); port <= 0 || port > 65535 {
		return fmt.Errorf("port must be in range [1, 65535]")
	}

	if dbType := GetString(DbTypeKey); dbType != DbBadger &&
		dbType != DbInMemory {
		return fmt.Errorf(
			"db type must be either '%s' or '%s'", DbBadger, DbInMemory,
		)
	}

	engineType := GetString(CryptoEngineKey)
	if engineType != EngineSoft && engineType != EngineRemote {
		return fmt.Errorf(
			"crypto engine must be either '%s' or '%s'",
			EngineSoft, EngineRemote,
		)
	}
	if engineType == EngineRemote {
		endpoint := GetString(EngineEndpointKey)
		if endpoint == "" {
			return fmt.Errorf(
				"engine endpoint must be defined for the remote crypto engine",
			)
		}
		if _, err := url.Parse(endpoint); err != nil {
			return fmt.Errorf("engine endpoint is not a valid url: %s", err)
		}
		if GetInt(EngineRateLimitKey) <= 0 {
			return fmt.Errorf("engine rate limit must be a positive number")
		}
	}

	if GetInt(CheckRateLimitKey) < 0 {
		return fmt.Errorf("check rate limit must not be a negative number")
	}

	return nil
}

func initDatadir() error {
	datadir := GetDatadir()
	if err := makeDirectoryIfNotExists(
		filepath.Join(datadir, DbLocation),
	); err != nil {
		return err
	}

	if GetBool(EnableProfilerKey) {
		if err := makeDirectoryIfNotExists(
			filepath.Join(datadir, ProfilerLocation),
		); err != nil {
			return err
		}
	}

	if !GetBool(NoMacaroonsKey) {
		if err := makeDirectoryIfNotExists(
			filepath.Join(datadir, MacaroonsLocation),
		); err != nil {
			return err
		}
	}
	if !GetBool(NoTLSKey) {
		if err := makeDirectoryIfNotExists(
			filepath.Join(datadir, TLSLocation),
		); err != nil {
			return err
		}
	}
	return nil
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
