// Copyright (c) YugaByte, Inc.

package util

import (
	"sync"
	"time"

	"github.com/spf13/viper"
)

// Config keys.
var (
	MetadataHostsKey    = "metadata.hosts"
	MetadataKeyspaceKey = "metadata.keyspace"
	MetadataTableKey    = "metadata.table"
	MetadataTimeoutKey  = "metadata.timeout_sec"

	CommitterMaxMemoryKey  = "committer.max_memory_bytes"
	CommitterMaxLatencyKey = "committer.max_latency_ms"
	CommitterWorkersKey    = "committer.workers"

	LogLevelKey = "log.level"
)

var (
	configInstance *Config
	onceConfig     = &sync.Once{}
)

// Config wraps a viper instance behind typed accessors. All readers share one
// instance; writes go through Update and hold the lock.
type Config struct {
	rwLock        *sync.RWMutex
	viperInstance *viper.Viper
}

// GetConfig returns the config instance, creating it with defaults on first
// use.
func GetConfig() *Config {
	onceConfig.Do(func() {
		v := viper.New()
		setDefaults(v)
		configInstance = &Config{rwLock: &sync.RWMutex{}, viperInstance: v}
	})
	return configInstance
}

// InitConfig reads the named config file from the given directory into the
// shared instance. Missing file is not an error; defaults apply.
func InitConfig(configDir, configName string) error {
	config := GetConfig()
	config.rwLock.Lock()
	defer config.rwLock.Unlock()
	config.viperInstance.SetConfigName(configName)
	config.viperInstance.SetConfigType("yml")
	config.viperInstance.AddConfigPath(configDir)
	if err := config.viperInstance.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return err
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(MetadataHostsKey, []string{"127.0.0.1"})
	v.SetDefault(MetadataKeyspaceKey, "system_tablet_state")
	v.SetDefault(MetadataTableKey, "tablet_metadata")
	v.SetDefault(MetadataTimeoutKey, 12)
	v.SetDefault(CommitterMaxMemoryKey, 200*1024*1024)
	v.SetDefault(CommitterMaxLatencyKey, 1000)
	v.SetDefault(CommitterWorkersKey, 4)
	v.SetDefault(LogLevelKey, "info")
}

// GetString returns the string value for the key.
func (config *Config) GetString(key string) string {
	config.rwLock.RLock()
	defer config.rwLock.RUnlock()
	return config.viperInstance.GetString(key)
}

// GetStringSlice returns the string slice value for the key.
func (config *Config) GetStringSlice(key string) []string {
	config.rwLock.RLock()
	defer config.rwLock.RUnlock()
	return config.viperInstance.GetStringSlice(key)
}

// GetInt returns the int value for the key.
func (config *Config) GetInt(key string) int {
	config.rwLock.RLock()
	defer config.rwLock.RUnlock()
	return config.viperInstance.GetInt(key)
}

// GetInt64 returns the int64 value for the key.
func (config *Config) GetInt64(key string) int64 {
	config.rwLock.RLock()
	defer config.rwLock.RUnlock()
	return config.viperInstance.GetInt64(key)
}

// GetDuration interprets the key's integer value in the given unit.
func (config *Config) GetDuration(key string, unit time.Duration) time.Duration {
	return time.Duration(config.GetInt64(key)) * unit
}

// Update sets the value for the key in memory.
func (config *Config) Update(key string, value any) {
	config.rwLock.Lock()
	defer config.rwLock.Unlock()
	config.viperInstance.Set(key, value)
}
