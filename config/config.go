package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del escrow.
type Config struct {
	Escrow  EscrowConfig  `yaml:"escrow"`
	Storage StorageConfig `yaml:"storage"`
	Redis   RedisConfig   `yaml:"redis"`
	Log     LogConfig     `yaml:"log"`
}

// EscrowConfig controla el servicio de escrow.
type EscrowConfig struct {
	// Program identifica este despliegue: todas las direcciones derivadas
	// (mercado, vault) dependen de él.
	Program             string `yaml:"program"`
	BettingHorizonHours int    `yaml:"betting_horizon_hours"` // ventana de mercados con deadline
	LockBackend         string `yaml:"lock_backend"`          // local | redis
	LockTTLSeconds      int    `yaml:"lock_ttl_seconds"`
	LockWaitSeconds     int    `yaml:"lock_wait_seconds"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// RedisConfig se usa para el lock distribuido y el stream de auditoría.
// Addr vacío desactiva ambos.
type RedisConfig struct {
	Addr         string `yaml:"addr"`
	Password     string `yaml:"password"`
	DB           int    `yaml:"db"`
	AuditStream  string `yaml:"audit_stream"`
	StreamMaxLen int64  `yaml:"stream_max_len"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
// Un path inexistente no es error: se usan defaults + entorno.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// BettingHorizon devuelve la ventana de apuestas como time.Duration.
func (c *Config) BettingHorizon() time.Duration {
	return time.Duration(c.Escrow.BettingHorizonHours) * time.Hour
}

// LockTTL devuelve la vida máxima de un lock redis.
func (c *Config) LockTTL() time.Duration {
	return time.Duration(c.Escrow.LockTTLSeconds) * time.Second
}

// LockWait devuelve cuánto se espera un lock ocupado.
func (c *Config) LockWait() time.Duration {
	return time.Duration(c.Escrow.LockWaitSeconds) * time.Second
}

// ProgramAddress devuelve Program como dirección.
func (c *Config) ProgramAddress() common.Address {
	return common.HexToAddress(c.Escrow.Program)
}

func (c *Config) validate() error {
	if !common.IsHexAddress(c.Escrow.Program) {
		return fmt.Errorf("escrow.program %q is not an address", c.Escrow.Program)
	}
	switch c.Escrow.LockBackend {
	case "local":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("escrow.lock_backend redis needs redis.addr")
		}
	default:
		return fmt.Errorf("escrow.lock_backend %q: want local or redis", c.Escrow.LockBackend)
	}
	return nil
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ESCROW_PROGRAM"); v != "" {
		cfg.Escrow.Program = v
	}
	if v := os.Getenv("ESCROW_BETTING_HORIZON_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Escrow.BettingHorizonHours = n
		}
	}
	if v := os.Getenv("ESCROW_LOCK_BACKEND"); v != "" {
		cfg.Escrow.LockBackend = v
	}
	if v := os.Getenv("ESCROW_DB"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("ESCROW_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("ESCROW_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Escrow.Program == "" {
		cfg.Escrow.Program = "0x0000000000000000000000000000000000e5c200"
	}
	if cfg.Escrow.BettingHorizonHours <= 0 {
		cfg.Escrow.BettingHorizonHours = 24
	}
	if cfg.Escrow.LockBackend == "" {
		cfg.Escrow.LockBackend = "local"
	}
	if cfg.Escrow.LockTTLSeconds <= 0 {
		cfg.Escrow.LockTTLSeconds = 10
	}
	if cfg.Escrow.LockWaitSeconds <= 0 {
		cfg.Escrow.LockWaitSeconds = 5
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "escrow.db"
	}
	if cfg.Redis.AuditStream == "" {
		cfg.Redis.AuditStream = "escrow:audit"
	}
	if cfg.Redis.StreamMaxLen <= 0 {
		cfg.Redis.StreamMaxLen = 10000
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
