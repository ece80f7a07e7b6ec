// Copyright 2025 The fawa Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/fawa-io/savebridge/pkg/fwlog"
)

// StorageConfig describes the host the bridge writes on behalf of.
type StorageConfig struct {
	PublicDownloadsDir string `mapstructure:"publicDownloadsDir"`
	AppDownloadsDir    string `mapstructure:"appDownloadsDir"`
	PlatformVersion    int    `mapstructure:"platformVersion"`
	RestrictedSince    int    `mapstructure:"restrictedSince"`
	Namespace          string `mapstructure:"namespace"`
}

type NotifyConfig struct {
	RedisAddr string `mapstructure:"redisAddr"`
	Channel   string `mapstructure:"channel"`
}

type ArchiveConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"accessKeyID"`
	SecretAccessKey string `mapstructure:"secretAccessKey"`
	Bucket          string `mapstructure:"bucket"`
	UseSSL          bool   `mapstructure:"useSSL"`
}

// Enabled reports whether enough is configured to reach an object store.
func (a ArchiveConfig) Enabled() bool {
	return a.Endpoint != "" && a.Bucket != ""
}

type Config struct {
	Addr     string        `mapstructure:"addr"`
	CertFile string        `mapstructure:"certFile"`
	KeyFile  string        `mapstructure:"keyFile"`
	LogLevel string        `mapstructure:"logLevel"`
	Storage  StorageConfig `mapstructure:"storage"`
	Notify   NotifyConfig  `mapstructure:"notify"`
	Archive  ArchiveConfig `mapstructure:"archive"`
}

var (
	once sync.Once

	mu sync.RWMutex

	config Config
)

// InitConfig loads the process configuration from the command line flags
// and the config file, then keeps watching the file for changes.
func InitConfig() error {
	var initErr error
	once.Do(func() {
		RegisterFlags(pflag.CommandLine)
		pflag.Parse()
		initErr = LoadAndWatch(viper.GetViper(), pflag.CommandLine)
	})
	return initErr
}

func Get() Config {
	mu.RLock()
	defer mu.RUnlock()
	return config
}

// RegisterFlags adds the bridge flags to fs. Flag names match config keys.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("addr", "", "HTTP service address (e.g., '127.0.0.1:9090')")
	fs.String("certFile", "", "Path to the TLS certificate file.")
	fs.String("keyFile", "", "Path to the TLS private key file.")
	fs.String("logLevel", "", "Log level: debug, info, warn, error.")
	fs.String("storage.publicDownloadsDir", "", "Shared, user-visible downloads root.")
	fs.String("storage.appDownloadsDir", "", "App-scoped downloads root used as fallback.")
	fs.Int("storage.platformVersion", 0, "Platform API level of the host.")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", "127.0.0.1:8080")
	v.SetDefault("logLevel", "info")
	v.SetDefault("storage.restrictedSince", 29)
	v.SetDefault("storage.namespace", "PolarJoin")
	v.SetDefault("notify.channel", "polarjoin:notifications")
}

// Load reads the configuration into a Config without touching the
// process-wide value. Flags that were not set on the command line
// do not override the config file.
func Load(v *viper.Viper, fs *pflag.FlagSet) (Config, error) {
	setDefaults(v)

	if fs != nil {
		var bindErr error
		fs.VisitAll(func(f *pflag.Flag) {
			if bindErr != nil || !f.Changed {
				return
			}
			bindErr = v.BindPFlag(f.Name, f)
		})
		if bindErr != nil {
			return Config{}, fmt.Errorf("failed to bind pflags: %w", bindErr)
		}
	}

	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/polarjoin/")
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			fwlog.Infof("Config file not found.")
		} else {
			return Config{}, fmt.Errorf("fatal error config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("the initial configuration cannot be decoded into the struct: %w", err)
	}
	return cfg, nil
}

// LoadAndWatch loads the configuration into the process-wide value and
// reloads it whenever the config file changes. A reload also applies
// the new log level.
func LoadAndWatch(v *viper.Viper, fs *pflag.FlagSet) error {
	cfg, err := Load(v, fs)
	if err != nil {
		return err
	}

	mu.Lock()
	config = cfg
	mu.Unlock()

	v.OnConfigChange(func(e fsnotify.Event) {
		fwlog.Infof("Config file changed: %s, reloading...", e.Name)

		var next Config
		if err := v.Unmarshal(&next); err != nil {
			fwlog.Errorf("Error while reloading config: %v", err)
			return
		}

		mu.Lock()
		config = next
		mu.Unlock()

		newLogLevel, err := fwlog.ParseLevel(next.LogLevel)
		if err != nil {
			fwlog.Warnf("New log level in config is invalid: %v. Keeping previous level.", err)
			return
		}
		fwlog.SetLevel(newLogLevel)
		fwlog.Infof("Log level reloaded successfully to: %s", next.LogLevel)
	})
	if v.ConfigFileUsed() != "" {
		v.WatchConfig()
	}

	return nil
}
