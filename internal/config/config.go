package config

import (
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string     `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer HTTPServer `yaml:"http_server"`
	WSServer   WSServer   `yaml:"ws_server"`
	Storage    Storage    `yaml:"storage"`
	Events     Events     `yaml:"events"`
	Oracle     Oracle     `yaml:"oracle"`
	Registry   Registry   `yaml:"registry"`
	Ledger     Ledger     `yaml:"ledger"`
	Operator   Operator   `yaml:"operator"`
	Settlement Settlement `yaml:"settlement"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type WSServer struct {
	Address     string        `yaml:"address" env-default:"localhost:8081"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type Storage struct {
	DSN string `yaml:"dsn" env:"STORAGE_DSN" env-default:"root:123@tcp(localhost:3309)/jackpot?charset=utf8mb4,utf8&parseTime=True&loc=Local"`
}

type Events struct {
	Driver  string `yaml:"driver" env-default:"ws"`
	HubURL  string `yaml:"hub_url" env-default:"ws://localhost:8081/ws?channel=draws"`
	Channel string `yaml:"channel" env-default:"draws"`
	Pusher  Pusher `yaml:"pusher"`
}

type Pusher struct {
	AppID   string `yaml:"app_id" env:"PUSHER_APP_ID"`
	Key     string `yaml:"key" env:"PUSHER_KEY"`
	Secret  string `yaml:"secret" env:"PUSHER_SECRET"`
	Cluster string `yaml:"cluster" env-default:"eu"`
}

type Oracle struct {
	BaseURL      string        `yaml:"base_url" env-default:"http://localhost:8090"`
	CallbackURL  string        `yaml:"callback_url" env-default:"http://localhost:8080/api/oracle/callback"`
	ComponentKey string        `yaml:"component_key" env:"ORACLE_COMPONENT_KEY"`
	Timeout      time.Duration `yaml:"timeout" env-default:"5s"`
}

type Registry struct {
	BaseURL string        `yaml:"base_url" env-default:"http://localhost:8091"`
	Timeout time.Duration `yaml:"timeout" env-default:"5s"`
}

type Ledger struct {
	BaseURL      string        `yaml:"base_url" env-default:"http://localhost:8092"`
	ComponentKey string        `yaml:"component_key" env:"LEDGER_COMPONENT_KEY"`
	Timeout      time.Duration `yaml:"timeout" env-default:"5s"`
}

type Operator struct {
	ComponentKey string `yaml:"component_key" env:"OPERATOR_COMPONENT_KEY"`
}

type Settlement struct {
	// PrizeAmount is the fixed protocol prize in cents; deposits must match it exactly.
	PrizeAmount int64         `yaml:"prize_amount" env-default:"250000"`
	PurgeDelay  time.Duration `yaml:"purge_delay" env-default:"24h"`
	Workers     int           `yaml:"workers" env-default:"4"`
	// PrizeKey and DrawKey are the identities the two coordinators present
	// to each other on internal calls.
	PrizeKey string `yaml:"prize_key" env:"PRIZE_COMPONENT_KEY"`
	DrawKey  string `yaml:"draw_key" env:"DRAW_COMPONENT_KEY"`
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/local.yaml"
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}

	return &cfg
}
