package config

import "time"

type Config interface {
	Host() string
	HTTPPort() string

	BufferSize() int
	MaxBufferSize() int
	MaxConnections() int
	IdleTimeout() time.Duration

	HealthEnabled() bool
	HealthPort() string

	PprofEnabled() bool
	PprofPort() string

	LogLevel() string
	LogDevelopment() bool
}

func MustLoad() (Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	cfg, err := parse()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *config) Host() string               { return c.host }
func (c *config) HTTPPort() string           { return c.httpPort }
func (c *config) BufferSize() int            { return c.bufferSize }
func (c *config) MaxBufferSize() int         { return c.maxBufferSize }
func (c *config) MaxConnections() int        { return c.maxConnections }
func (c *config) IdleTimeout() time.Duration { return c.idleTimeout }
func (c *config) HealthEnabled() bool        { return c.healthEnabled }
func (c *config) HealthPort() string         { return c.healthPort }
func (c *config) PprofEnabled() bool         { return c.pprofEnabled }
func (c *config) PprofPort() string          { return c.pprofPort }
func (c *config) LogLevel() string           { return c.logLevel }
func (c *config) LogDevelopment() bool       { return c.logDevelopment }
