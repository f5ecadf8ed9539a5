package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// clientSlack запас клиента API сверх таймаута детектора на сервере:
// загрузка кадра, запись в журнал и ответ.
const clientSlack = 5 * time.Second

const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"

	DetectorRemote = "remote"
	DetectorGoCV   = "gocv"
)

type Config struct {
	// HTTP API
	HTTPAddr  string `mapstructure:"http_addr"`
	ServerURL string `mapstructure:"server_url"` // адрес API для watch --remote и dashboard

	// Хранилище аудита
	StorageDriver string `mapstructure:"storage_driver"`
	DBPath        string `mapstructure:"db_path"`

	// Детектор
	Detector        string        `mapstructure:"detector"`
	ModelPath       string        `mapstructure:"model_path"`
	InferenceURL    string        `mapstructure:"inference_url"`
	DetectorTimeout time.Duration `mapstructure:"detector_timeout"`
	Confidence      float64       `mapstructure:"confidence"`
	FrameStride     int           `mapstructure:"frame_stride"`

	// Прочее
	TelegramToken    string        `mapstructure:"telegram_token"`
	LogLevel         string        `mapstructure:"log_level"`
	DashboardRefresh time.Duration `mapstructure:"dashboard_refresh"`
}

// Load читает конфигурацию: .env, затем переменные окружения, затем
// необязательный ./configs/config.yaml; значения по умолчанию в конце.
func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("cannot decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_addr", ":8000")
	v.SetDefault("server_url", "http://127.0.0.1:8000")
	v.SetDefault("storage_driver", StorageSQLite)
	v.SetDefault("db_path", "clearoute_local.db")
	v.SetDefault("detector", DetectorRemote)
	v.SetDefault("model_path", "./models/best.onnx")
	v.SetDefault("inference_url", "http://127.0.0.1:5000/predict")
	v.SetDefault("detector_timeout", 10*time.Second)
	v.SetDefault("confidence", 0.25)
	v.SetDefault("frame_stride", 5)
	v.SetDefault("telegram_token", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("dashboard_refresh", 2*time.Second)
}

// ClientTimeout таймаут HTTP-клиента API. Он длиннее DETECTOR_TIMEOUT, чтобы
// клиент не бросал кадр, который сервер успел проанализировать и записать.
func (c *Config) ClientTimeout() time.Duration {
	return c.DetectorTimeout + clientSlack
}

// Validate проверяет согласованность значений.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageSQLite:
		if c.DBPath == "" {
			return errors.New("DB_PATH is required for sqlite storage")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	switch c.Detector {
	case DetectorRemote:
		if c.InferenceURL == "" {
			return errors.New("INFERENCE_URL is required for remote detector")
		}
	case DetectorGoCV:
		if c.ModelPath == "" {
			return errors.New("MODEL_PATH is required for gocv detector")
		}
	default:
		return fmt.Errorf("unknown DETECTOR %q", c.Detector)
	}

	if c.DetectorTimeout <= 0 {
		return errors.New("DETECTOR_TIMEOUT must be positive")
	}
	if c.Confidence <= 0 || c.Confidence >= 1 {
		return fmt.Errorf("CONFIDENCE must be in (0, 1), got %v", c.Confidence)
	}
	if c.FrameStride < 1 {
		return fmt.Errorf("FRAME_STRIDE must be at least 1, got %d", c.FrameStride)
	}
	if c.DashboardRefresh <= 0 {
		return errors.New("DASHBOARD_REFRESH must be positive")
	}
	return nil
}
