package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	ConfigFile      = "./config.yml"
	ConfigEnvFile   = "./config.env"
	ConfigEnvPrefix = "BOOKAPI"
)

// Config defines the structure of the configuration file.
type Config struct {
	GitCommit               string         `yaml:"git_commit" envconfig:"BOOKAPI_GIT_COMMIT"`
	GitTag                  string         `yaml:"git_tag" envconfig:"BOOKAPI_GIT_TAG"`
	BuildTime               string         `yaml:"build_time" envconfig:"BOOKAPI_BUILD_TIME"`
	IsProduction            bool           `yaml:"is_production" envconfig:"BOOKAPI_IS_PRODUCTION"`
	LogLevel                zapcore.Level  `yaml:"log_level" envconfig:"BOOKAPI_LOG_LEVEL"`
	LogFolder               string         `yaml:"log_folder" envconfig:"BOOKAPI_LOG_FOLDER"`
	LogMaxSize              int            `yaml:"log_max_size" envconfig:"BOOKAPI_LOG_MAX_SIZE"`
	OpsEndpointsEnable      bool           `yaml:"ops_endpoints_enable" envconfig:"BOOKAPI_OPS_ENDPOINTS_ENABLE"`
	ProfilerEndpointsEnable bool           `yaml:"profiler_endpoints_enable" envconfig:"BOOKAPI_PROFILER_ENDPOINTS_ENABLE"`
	StrictNotFound          bool           `yaml:"strict_not_found" envconfig:"BOOKAPI_STRICT_NOT_FOUND"`
	Server                  ServerConfig   `yaml:"server"`
	Database                DatabaseConfig `yaml:"database"`
	Replica                 ReplicaConfig  `yaml:"replica"`
	Redis                   RedisConfig    `yaml:"redis"`
	BoltDB                  BoltDBConfig   `yaml:"boltdb"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"BOOKAPI_SERVER_HOST"`
	Port            string        `yaml:"port" envconfig:"BOOKAPI_SERVER_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"BOOKAPI_SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"BOOKAPI_SERVER_WRITE_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"BOOKAPI_SERVER_REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"BOOKAPI_SERVER_SHUTDOWN_TIMEOUT"`
}

type DatabaseConfig struct {
	FilePath     string        `yaml:"file_path" envconfig:"BOOKAPI_DATABASE_FILE_PATH"`
	MaxOpenConns int           `yaml:"max_open_conns" envconfig:"BOOKAPI_DATABASE_MAX_OPEN_CONNS"`
	BusyTimeout  time.Duration `yaml:"busy_timeout" envconfig:"BOOKAPI_DATABASE_BUSY_TIMEOUT"`
	SlowQuery    time.Duration `yaml:"slow_query" envconfig:"BOOKAPI_DATABASE_SLOW_QUERY"`
}

// ReplicaConfig controls the replication of every book change
// through redis queues into the boltdb mirror file.
type ReplicaConfig struct {
	Enabled bool `yaml:"enabled" envconfig:"BOOKAPI_REPLICA_ENABLED"`
}

type RedisConfig struct {
	Host          string        `yaml:"host" envconfig:"BOOKAPI_REDIS_HOST"`
	Port          string        `yaml:"port" envconfig:"BOOKAPI_REDIS_PORT"`
	DialTimeout   time.Duration `yaml:"dial_timeout" envconfig:"BOOKAPI_REDIS_DIAL_TIMEOUT"`
	ReadTimeout   time.Duration `yaml:"read_timeout" envconfig:"BOOKAPI_REDIS_READ_TIMEOUT"`
	WriteTimeout  time.Duration `yaml:"write_timeout" envconfig:"BOOKAPI_REDIS_WRITE_TIMEOUT"`
	PoolSize      int           `yaml:"pool_size" envconfig:"BOOKAPI_REDIS_POOL_SIZE"`
	PoolTimeout   time.Duration `yaml:"pool_timeout" envconfig:"BOOKAPI_REDIS_POOL_TIMEOUT"`
	Username      string        `yaml:"username" envconfig:"BOOKAPI_REDIS_USERNAME"`
	Password      string        `yaml:"password" envconfig:"BOOKAPI_REDIS_PASSWORD" json:"-"`
	DatabaseIndex int           `yaml:"db_index" envconfig:"BOOKAPI_REDIS_DATABASE_INDEX"`
}

type BoltDBConfig struct {
	FilePath   string        `yaml:"filepath" envconfig:"BOOKAPI_BOLTDB_FILE_PATH"`
	Timeout    time.Duration `yaml:"timeout" envconfig:"BOOKAPI_BOLTDB_TIMEOUT"`
	BucketName string        `yaml:"bucket_name" envconfig:"BOOKAPI_BOLTDB_BUCKET_NAME"`
}

// LoadConfigFile provides an instance of config structure for the all application.
func LoadConfigFile(configFile string) (*Config, error) {
	file, err := os.Open(configFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	cfg := &Config{}
	if err = yaml.NewDecoder(file).Decode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigEnvs reads the environments variables and overrides the App config.
func LoadConfigEnvs(prefix string, config *Config) error {
	return envconfig.Process(prefix, config)
}

// LoadEnvFile sets the variables of the env file into the process
// environment. A missing file is not an error.
func LoadEnvFile(path string) error {
	err := godotenv.Load(path)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// InitConfig setup defaults values for non provided parameters
// and configures build tags values to be used if provided.
func InitConfig(config *Config, gitCommit, gitTag, buildTime string) error {
	if len(gitCommit) != 0 {
		config.GitCommit = gitCommit
	}

	if len(gitTag) != 0 {
		config.GitTag = gitTag
	}

	if len(buildTime) != 0 {
		config.BuildTime = buildTime
	}

	if len(config.Server.Host) == 0 {
		config.Server.Host = "0.0.0.0"
	}

	if len(config.Server.Port) == 0 {
		config.Server.Port = "3000"
	}

	if config.Server.RequestTimeout == 0 {
		config.Server.RequestTimeout = 30 * time.Second
	}

	if config.Server.ShutdownTimeout == 0 {
		config.Server.ShutdownTimeout = 10 * time.Second
	}

	if len(config.LogFolder) == 0 {
		config.LogFolder = "./logs"
	}

	if config.LogMaxSize <= 0 {
		config.LogMaxSize = 10
	}

	if len(config.Database.FilePath) == 0 {
		config.Database.FilePath = "database.db"
	}

	if config.Database.MaxOpenConns <= 0 {
		config.Database.MaxOpenConns = 1
	}

	if config.Database.BusyTimeout == 0 {
		config.Database.BusyTimeout = 5 * time.Second
	}

	if !config.Replica.Enabled {
		return nil
	}

	if len(config.Redis.Host) == 0 || len(config.Redis.Port) == 0 {
		return errors.New("replica enabled: make sure to set valid redis address and port in configuration file")
	}

	if len(config.BoltDB.FilePath) == 0 {
		return errors.New("replica enabled: make sure to set valid boltdb file path in configuration file")
	}

	if len(config.BoltDB.BucketName) == 0 {
		config.BoltDB.BucketName = "books"
	}

	return nil
}

// LoadAndInitConfigs loads in order the configs from various predefined sources
// then build the App configuration data.
func LoadAndInitConfigs(gitCommit, gitTag, buildTime string) (*Config, error) {
	config, err := LoadConfigFile(ConfigFile)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from file: %s", err)
	}

	err = LoadEnvFile(ConfigEnvFile)
	if err != nil {
		return config, fmt.Errorf("failed to set environment configurations: %s", err)
	}

	// Use environment variables with prefix `BOOKAPI`.
	err = LoadConfigEnvs(ConfigEnvPrefix, config)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from environment: %s", err)
	}

	err = InitConfig(config, gitCommit, gitTag, buildTime)
	if err != nil {
		return config, fmt.Errorf("failed to initialize configurations: %s", err)
	}
	return config, nil
}
