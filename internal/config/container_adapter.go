package config

import (
	"github.com/garyjia/funding-workflow/internal/container"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	roles := make(map[string][]string, len(c.Roles))
	for _, ra := range c.Roles {
		roles[ra.Email] = append(roles[ra.Email], ra.Roles...)
	}

	return &container.Config{
		Store: container.StoreConfig{
			Driver:            c.Store.Driver,
			Path:              c.Store.Path,
			MaxOpenConns:      c.Store.MaxOpenConns,
			MaxIdleConns:      c.Store.MaxIdleConns,
			ConnMaxLifetime:   c.Store.ConnMaxLifetime,
			RedisAddr:         c.Store.RedisAddr,
			RedisPassword:     c.Store.RedisPassword,
			RedisDB:           c.Store.RedisDB,
			RedisPoolSize:     c.Store.RedisPoolSize,
			KeyPrefix:         c.Store.KeyPrefix,
			LockTTL:           c.Store.LockTTL,
			LockRetryInterval: c.Store.LockRetryInterval,
			LockRetries:       c.Store.LockRetries,
			UpdateAttempts:    c.Store.UpdateAttempts,
			UpdateBackoff:     c.Store.UpdateBackoff,
		},
		Notifier: container.NotifierConfig{
			Driver:    c.Notifier.Driver,
			AppID:     c.Notifier.AppID,
			AppSecret: c.Notifier.AppSecret,
		},
		Server: container.ServerConfig{
			Host:         c.Server.Host,
			Port:         c.Server.Port,
			ReadTimeout:  c.Server.ReadTimeout,
			WriteTimeout: c.Server.WriteTimeout,
			BaseURL:      c.Server.BaseURL,
			Organization: c.Server.Organization,
		},
		Roles: roles,
	}
}
