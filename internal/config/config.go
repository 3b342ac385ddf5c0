// Package config loads pve-network's layered configuration: flags
// override environment variables (PVE_NETWORK_*) override the config
// file (/etc/pve/network.yaml by default, overridable via
// PVE_NETWORK_CONFIG or --config) override the defaults below.
// Grounded on Cray-HPE-cray-site-init's cmd/root.go initConfig/
// envPrefix/BindPFlags convention, generalized from its single global
// viper.GetViper() to an explicit *Config value threaded through
// constructors instead of read from package-level state.
package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "pve_network"

// Config is the resolved, typed configuration pve-network's
// subcommands and daemon build their components from.
type Config struct {
	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string
	// LogDevelopment switches the logger to human-readable console output.
	LogDevelopment bool

	// InterfacesPath is the interfaces(5) file the codec/applier read
	// and write.
	InterfacesPath string
	// SDNConfigDir is loaded from sdn_config_dir but no component reads
	// it: internal/sdnstore is rooted at <ClusterStorePath>/sdn.
	SDNConfigDir string
	// ClusterStorePath is the base directory internal/clusterstore (and
	// the sdnstore built on it) resolves every cluster path against.
	ClusterStorePath string
	// IPAMStoragePath is loaded from ipam_storage_path but is not passed
	// to the built-in IPAM allocator, which resolves its own directory
	// from PVE_IPAM_STORAGE_PATH or its built-in default.
	IPAMStoragePath string

	// ListenAddress is reported in `pve-network serve`'s startup log;
	// serve opens no listener on it.
	ListenAddress string
}

func defaults() Config {
	return Config{
		LogLevel:         "info",
		InterfacesPath:   "/etc/network/interfaces",
		SDNConfigDir:     "/etc/pve/sdn",
		ClusterStorePath: "/etc/pve",
		IPAMStoragePath:  "/etc/pve/priv/ipam.db",
		ListenAddress:    "127.0.0.1:8443",
	}
}

// Load resolves configuration from, in increasing precedence: built-in
// defaults, the config file (configFile if non-empty, else
// PVE_NETWORK_CONFIG, else /etc/pve/network.yaml — missing is not an
// error), PVE_NETWORK_* environment variables, and flags already
// parsed onto fs.
func Load(configFile string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	d := defaults()
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_development", d.LogDevelopment)
	v.SetDefault("interfaces_path", d.InterfacesPath)
	v.SetDefault("sdn_config_dir", d.SDNConfigDir)
	v.SetDefault("cluster_store_path", d.ClusterStorePath)
	v.SetDefault("ipam_storage_path", d.IPAMStoragePath)
	v.SetDefault("listen_address", d.ListenAddress)

	path := configFile
	if path == "" {
		path = os.Getenv("PVE_NETWORK_CONFIG")
	}
	if path == "" {
		path = "/etc/pve/network.yaml"
	}
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound && !os.IsNotExist(err) {
			return nil, errors.Wrap(err, "read config file")
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, errors.Wrap(err, "bind flags")
		}
	}

	cfg := &Config{
		LogLevel:         v.GetString("log_level"),
		LogDevelopment:   v.GetBool("log_development"),
		InterfacesPath:   v.GetString("interfaces_path"),
		SDNConfigDir:     v.GetString("sdn_config_dir"),
		ClusterStorePath: v.GetString("cluster_store_path"),
		IPAMStoragePath:  v.GetString("ipam_storage_path"),
		ListenAddress:    v.GetString("listen_address"),
	}
	return cfg, nil
}

// Defaults returns the built-in configuration with no file, env or
// flag overrides applied.
func Defaults() Config {
	return defaults()
}
