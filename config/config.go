package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del backtester.
type Config struct {
	Data     DataConfig     `yaml:"data"`
	Backtest BacktestConfig `yaml:"backtest"`
	Report   ReportConfig   `yaml:"report"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

// DataConfig indica de dónde se leen las klines.
type DataConfig struct {
	Path string `yaml:"path"` // .tar.gz, directorio extraído o fichero suelto
}

// BacktestConfig controla la concurrencia del run.
type BacktestConfig struct {
	Workers int    `yaml:"workers"` // evaluaciones simultáneas como máximo
	Mode    string `yaml:"mode"`    // batch | pool
}

// ReportConfig controla la salida del reporte.
type ReportConfig struct {
	Path  string `yaml:"path"`  // fichero con el detalle de trades
	Top   int    `yaml:"top"`   // filas de la tabla de consola
	Table bool   `yaml:"table"` // imprimir tabla además de la línea resumen
}

// StorageConfig controla dónde se guarda el histórico de runs.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, ":memory:", o vacío para desactivar
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate comprueba los valores que no tienen default razonable.
func (c *Config) Validate() error {
	if c.Backtest.Workers < 1 {
		return fmt.Errorf("config: backtest.workers must be >= 1, got %d", c.Backtest.Workers)
	}
	switch c.Backtest.Mode {
	case "batch", "pool":
	default:
		return fmt.Errorf("config: backtest.mode must be batch or pool, got %q", c.Backtest.Mode)
	}
	if c.Data.Path == "" {
		return fmt.Errorf("config: data.path is required")
	}
	return nil
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("KLINE_DATA_PATH"); v != "" {
		cfg.Data.Path = v
	}
	if v := os.Getenv("BACKTEST_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: BACKTEST_WORKERS=%q: %w", v, err)
		}
		cfg.Backtest.Workers = n
	}
	if v := os.Getenv("BACKTEST_MODE"); v != "" {
		cfg.Backtest.Mode = v
	}
	if v := os.Getenv("REPORT_PATH"); v != "" {
		cfg.Report.Path = v
	}
	if v := os.Getenv("STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	return nil
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Data.Path == "" {
		cfg.Data.Path = "v3_kline_2021_06_23.tar.gz"
	}
	if cfg.Backtest.Workers == 0 {
		cfg.Backtest.Workers = 8
	}
	if cfg.Backtest.Mode == "" {
		cfg.Backtest.Mode = "batch"
	}
	if cfg.Report.Path == "" {
		cfg.Report.Path = "./result.data"
	}
	if cfg.Report.Top <= 0 {
		cfg.Report.Top = 20
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
