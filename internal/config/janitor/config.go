package janitor_config

import (
	"github.com/vigild/vigil/internal/obs"
	pginfra "github.com/vigild/vigil/internal/repository/postgres"
)

type Purge struct {
	Schedule string `mapstructure:"schedule"`
}

type Server struct {
	MetricsAddr string `mapstructure:"metrics_addr"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
	Dir    string `mapstructure:"dir"`
	Env    string `mapstructure:"env"`
	Ver    string `mapstructure:"ver"`
}

func (l Log) AsLoggerConfig(app string) obs.LogConfig {
	return obs.LogConfig{Level: l.Level, Pretty: l.Pretty, Dir: l.Dir, App: app, Env: l.Env, Ver: l.Ver}
}

type Config struct {
	DB     pginfra.Config `mapstructure:"db"`
	Purge  Purge          `mapstructure:"purge"`
	Server Server         `mapstructure:"server"`
	Log    Log            `mapstructure:"log"`
}
