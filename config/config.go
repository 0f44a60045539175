package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Game     GameConfig     `mapstructure:"game"`
}

type ServerConfig struct {
	HTTPAddress    string `mapstructure:"http_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
	MetricsAddress string `mapstructure:"metrics_address"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// GameConfig holds the gameplay settings. MaxRounds is odd by convention
// so a majority of round wins is always reachable.
type GameConfig struct {
	MaxRounds     int `mapstructure:"max_rounds"`
	RoundTime     int `mapstructure:"round_time"`  // seconds
	VotingTime    int `mapstructure:"voting_time"` // seconds
	LobbyTTLHours int `mapstructure:"lobby_ttl_hours"`
}

func LoadConfig(path string) (config *Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("game.max_rounds", 3)
	viper.SetDefault("game.round_time", 480)
	viper.SetDefault("game.voting_time", 60)
	viper.SetDefault("game.lobby_ttl_hours", 24)

	viper.AutomaticEnv()

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
