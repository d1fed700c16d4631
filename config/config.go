package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/webitel/table-importer/internal/errors"
)

type AppConfig struct {
	File     string          `json:"-"`
	Consul   *ConsulConfig   `json:"consul,omitempty"`
	Redis    *RedisConfig    `json:"redis,omitempty"`
	Database *DatabaseConfig `json:"database,omitempty"`
	Storage  *StorageConfig  `json:"storage,omitempty"`
	Import   *ImportConfig   `json:"import,omitempty"`
}

type ConsulConfig struct {
	Id            string `json:"id"`
	Address       string `json:"address"`
	PublicAddress string `json:"publicAddress"`
}

type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type DatabaseConfig struct {
	Url string `json:"url"`
}

// StorageConfig points at the S3 bucket mirroring staged import files.
type StorageConfig struct {
	Endpoint  string `json:"endpoint"`
	Region    string `json:"region"`
	Bucket    string `json:"bucket"`
	AccessKey string `json:"accessKey"`
	SecretKey string `json:"secretKey"`
}

// ImportConfig drives the conversion pipeline.
type ImportConfig struct {
	ConverterPath string `json:"converterPath"`
	StagingRoot   string `json:"stagingRoot"`
	AuthToken     string `json:"authToken"`

	// LockBackend selects "file" or "redis"; the converter is serialized
	// process-wide (or cluster-wide with redis) through a single lock.
	LockBackend   string        `json:"lockBackend"`
	LockFile      string        `json:"lockFile"`
	LockRetries   int           `json:"lockRetries"`
	LockInterval  time.Duration `json:"lockInterval"`
	OutputWait    time.Duration `json:"outputWait"`
	ImportTimeout time.Duration `json:"importTimeout"`

	SweepInterval time.Duration `json:"sweepInterval"`
	StaleAfter    time.Duration `json:"staleAfter"`
}

func LoadConfig() (*AppConfig, error) {
	bindFlagsAndEnv()

	configFile := getConfigFilePath()
	if configFile != "" {
		if err := loadFromFile(configFile); err != nil {
			return nil, err
		}
	}

	cfg := buildAppConfig(configFile)
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func bindFlagsAndEnv() {
	pflag.String("config_file", "", "Configuration file in JSON format")

	// database
	pflag.String("data_source", "", "Data source")

	// consul
	pflag.String("id", "", "Service id")
	pflag.String("consul", "", "Host to consul")
	pflag.String("http_addr", "", "Public HTTP address with port")

	// redis
	pflag.String("redis_addr", "localhost:6379", "Redis address")
	pflag.String("redis_password", "", "Redis password")
	pflag.Int("redis_db", 0, "Redis DB number")

	// storage
	pflag.String("s3_endpoint", "", "S3-compatible endpoint (empty for AWS)")
	pflag.String("s3_region", "us-east-1", "S3 region")
	pflag.String("s3_bucket", "", "S3 bucket for mirrored import files")
	pflag.String("s3_access_key", "", "S3 access key")
	pflag.String("s3_secret_key", "", "S3 secret key")

	// import pipeline
	pflag.String("converter_path", "", "Path to the external conversion executable")
	pflag.String("staging_root", os.TempDir(), "Root directory for per-tenant staging")
	pflag.String("auth_token", "", "Static bearer token protecting the API")
	pflag.String("lock_backend", "file", "Converter lock backend: file or redis")
	pflag.String("lock_file", "", "Sentinel lock file path (defaults under staging root)")
	pflag.Int("lock_retries", 60, "Lock acquisition attempts before reporting busy")
	pflag.Duration("lock_interval", time.Second, "Delay between lock attempts")
	pflag.Duration("output_wait", 10*time.Second, "How long to wait for converter output")
	pflag.Duration("import_timeout", 5*time.Minute, "Deadline for a whole import job")
	pflag.Duration("sweep_interval", 10*time.Minute, "Stale staging sweep period")
	pflag.Duration("stale_after", time.Hour, "Age after which staging debris is swept")

	pflag.Parse()

	_ = viper.BindPFlags(pflag.CommandLine)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Explicit mapping
	_ = viper.BindEnv("id", "CONSUL_ID")
	_ = viper.BindEnv("consul", "CONSUL_HOST")
	_ = viper.BindEnv("http_addr", "HTTP_ADDR")
	_ = viper.BindEnv("redis_addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis_password", "REDIS_PASSWORD")
	_ = viper.BindEnv("redis_db", "REDIS_DB")
	_ = viper.BindEnv("s3_access_key", "AWS_ACCESS_KEY_ID")
	_ = viper.BindEnv("s3_secret_key", "AWS_SECRET_ACCESS_KEY")
	_ = viper.BindEnv("converter_path", "CONVERTER_PATH")
	_ = viper.BindEnv("auth_token", "IMPORT_AUTH_TOKEN")
}

func getConfigFilePath() string {
	file := viper.GetString("config_file")
	if file == "" {
		file = os.Getenv("TABLE_IMPORTER_CONFIG_FILE")
	}
	return file
}

func loadFromFile(path string) error {
	viper.SetConfigFile(path)
	viper.SetConfigType("json")
	if err := viper.ReadInConfig(); err != nil {
		return errors.New(fmt.Sprintf("could not load config file: %s", err.Error()))
	}
	return nil
}

func buildAppConfig(file string) *AppConfig {
	return &AppConfig{
		File:     file,
		Database: &DatabaseConfig{Url: viper.GetString("data_source")},
		Consul: &ConsulConfig{
			Id:            viper.GetString("id"),
			Address:       viper.GetString("consul"),
			PublicAddress: viper.GetString("http_addr"),
		},
		Redis: &RedisConfig{
			Addr:     viper.GetString("redis_addr"),
			Password: viper.GetString("redis_password"),
			DB:       viper.GetInt("redis_db"),
		},
		Storage: &StorageConfig{
			Endpoint:  viper.GetString("s3_endpoint"),
			Region:    viper.GetString("s3_region"),
			Bucket:    viper.GetString("s3_bucket"),
			AccessKey: viper.GetString("s3_access_key"),
			SecretKey: viper.GetString("s3_secret_key"),
		},
		Import: &ImportConfig{
			ConverterPath: viper.GetString("converter_path"),
			StagingRoot:   viper.GetString("staging_root"),
			AuthToken:     viper.GetString("auth_token"),
			LockBackend:   viper.GetString("lock_backend"),
			LockFile:      viper.GetString("lock_file"),
			LockRetries:   viper.GetInt("lock_retries"),
			LockInterval:  viper.GetDuration("lock_interval"),
			OutputWait:    viper.GetDuration("output_wait"),
			ImportTimeout: viper.GetDuration("import_timeout"),
			SweepInterval: viper.GetDuration("sweep_interval"),
			StaleAfter:    viper.GetDuration("stale_after"),
		},
	}
}

func validateConfig(cfg *AppConfig) error {
	if cfg.Database.Url == "" {
		return errors.New("Data source is required")
	}
	if cfg.Consul.Id == "" {
		return errors.New("Service id is required")
	}
	if cfg.Consul.Address == "" {
		return errors.New("Consul address is required")
	}
	if cfg.Consul.PublicAddress == "" {
		return errors.New("HTTP address is required")
	}
	if cfg.Redis.Addr == "" {
		return errors.New("Redis address is required")
	}
	if cfg.Storage.Bucket == "" {
		return errors.New("S3 bucket is required")
	}
	if cfg.Import.ConverterPath == "" {
		return errors.New("Converter path is required")
	}
	if cfg.Import.LockBackend != "file" && cfg.Import.LockBackend != "redis" {
		return errors.New("Lock backend must be file or redis")
	}
	return nil
}
