package config

import (
	"log"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	App       AppConfig
	Cache     CacheConfig
	Planner   PlannerConfig
	Sources   SourcesConfig
	Reference ReferenceStoreConfig
	Storage   StorageConfig
	Drive     DriveConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	LogLevel       string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type AppConfig struct {
	DataDir string
}

// CacheConfig selects the source cache backend: "memory", "redis" or "none".
type CacheConfig struct {
	Backend       string
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
}

type PlannerConfig struct {
	ShiftHours         float64
	DefaultRatePercent float64
	UrgentThreshold    int
	HorizonDays        int
	RefreshInterval    time.Duration
}

// SourcesConfig holds the location of each input table and how long a fetched
// copy stays fresh.
type SourcesConfig struct {
	Reference          string
	Demand             string
	Floor              string
	ReferenceFreshness time.Duration
	DemandFreshness    time.Duration
	FloorFreshness     time.Duration
	HTTPTimeout        time.Duration
	// DriveWatchInterval polls Drive sources for a new revision. Zero disables it.
	DriveWatchInterval time.Duration
}

// ReferenceStoreConfig selects where reference rows are kept: "csv" or "postgres".
type ReferenceStoreConfig struct {
	Backend string
	CSVPath string
}

type StorageConfig struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	Bucket       string
	Region       string
	UseSSL       bool
	ExportPrefix string
}

type DriveConfig struct {
	CredentialsJSON string
	CredentialsFile string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		setDefaults()

		// Read from environment variables
		viper.AutomaticEnv()

		ensureDir(viper.GetString("APP_DATA_DIR"))

		instance = fromViper()
	})

	return instance
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_MODE", "debug")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("SERVER_READ_TIMEOUT", 15)
	viper.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_NAME", "shipment_priority")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("APP_DATA_DIR", "./data")
	viper.SetDefault("CACHE_BACKEND", "memory")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("REDIS_HOST", "127.0.0.1")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("PLANNER_SHIFT_HOURS", 22.5)
	viper.SetDefault("PLANNER_DEFAULT_RATE_PERCENT", 100)
	viper.SetDefault("PLANNER_URGENT_THRESHOLD", 3)
	viper.SetDefault("PLANNER_HORIZON_DAYS", 0)
	viper.SetDefault("PLANNER_REFRESH_INTERVAL", "30m")
	viper.SetDefault("SOURCE_REFERENCE", "store://references")
	viper.SetDefault("SOURCE_DEMAND", "./data/prp.csv")
	viper.SetDefault("SOURCE_FLOOR", "./data/live.csv")
	viper.SetDefault("SOURCE_REFERENCE_FRESHNESS", "30m")
	viper.SetDefault("SOURCE_DEMAND_FRESHNESS", "30m")
	viper.SetDefault("SOURCE_FLOOR_FRESHNESS", "30m")
	viper.SetDefault("SOURCE_HTTP_TIMEOUT", "30s")
	viper.SetDefault("SOURCE_DRIVE_WATCH_INTERVAL", "2m")
	viper.SetDefault("REFERENCE_STORE", "csv")
	viper.SetDefault("REFERENCE_CSV_PATH", "./data/ref.csv")
	viper.SetDefault("STORAGE_ENDPOINT", "")
	viper.SetDefault("STORAGE_REGION", "us-east-1")
	viper.SetDefault("STORAGE_USE_SSL", true)
	viper.SetDefault("STORAGE_EXPORT_PREFIX", "exports/")
	viper.SetDefault("GOOGLE_CREDENTIALS_JSON", "")
	viper.SetDefault("GOOGLE_CREDENTIALS_FILE", "")
}

func fromViper() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Mode:           viper.GetString("SERVER_MODE"),
			LogLevel:       viper.GetString("LOG_LEVEL"),
			ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			DBName:   viper.GetString("DB_NAME"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
		},
		App: AppConfig{
			DataDir: viper.GetString("APP_DATA_DIR"),
		},
		Cache: CacheConfig{
			Backend:       viper.GetString("CACHE_BACKEND"),
			RedisURL:      viper.GetString("REDIS_URL"),
			RedisHost:     viper.GetString("REDIS_HOST"),
			RedisPort:     viper.GetString("REDIS_PORT"),
			RedisPassword: viper.GetString("REDIS_PASSWORD"),
			RedisDB:       viper.GetInt("REDIS_DB"),
		},
		Planner: PlannerConfig{
			ShiftHours:         viper.GetFloat64("PLANNER_SHIFT_HOURS"),
			DefaultRatePercent: viper.GetFloat64("PLANNER_DEFAULT_RATE_PERCENT"),
			UrgentThreshold:    viper.GetInt("PLANNER_URGENT_THRESHOLD"),
			HorizonDays:        viper.GetInt("PLANNER_HORIZON_DAYS"),
			RefreshInterval:    viper.GetDuration("PLANNER_REFRESH_INTERVAL"),
		},
		Sources: SourcesConfig{
			Reference:          viper.GetString("SOURCE_REFERENCE"),
			Demand:             viper.GetString("SOURCE_DEMAND"),
			Floor:              viper.GetString("SOURCE_FLOOR"),
			ReferenceFreshness: viper.GetDuration("SOURCE_REFERENCE_FRESHNESS"),
			DemandFreshness:    viper.GetDuration("SOURCE_DEMAND_FRESHNESS"),
			FloorFreshness:     viper.GetDuration("SOURCE_FLOOR_FRESHNESS"),
			HTTPTimeout:        viper.GetDuration("SOURCE_HTTP_TIMEOUT"),
			DriveWatchInterval: viper.GetDuration("SOURCE_DRIVE_WATCH_INTERVAL"),
		},
		Reference: ReferenceStoreConfig{
			Backend: viper.GetString("REFERENCE_STORE"),
			CSVPath: viper.GetString("REFERENCE_CSV_PATH"),
		},
		Storage: StorageConfig{
			Endpoint:     viper.GetString("STORAGE_ENDPOINT"),
			AccessKey:    viper.GetString("STORAGE_ACCESS_KEY"),
			SecretKey:    viper.GetString("STORAGE_SECRET_KEY"),
			Bucket:       viper.GetString("STORAGE_BUCKET"),
			Region:       viper.GetString("STORAGE_REGION"),
			UseSSL:       viper.GetBool("STORAGE_USE_SSL"),
			ExportPrefix: viper.GetString("STORAGE_EXPORT_PREFIX"),
		},
		Drive: DriveConfig{
			CredentialsJSON: viper.GetString("GOOGLE_CREDENTIALS_JSON"),
			CredentialsFile: viper.GetString("GOOGLE_CREDENTIALS_FILE"),
		},
	}
}

// StorageEnabled reports whether object storage is configured.
func (c StorageConfig) StorageEnabled() bool {
	return c.Endpoint != "" && c.Bucket != ""
}

// DriveCredentials returns the service-account JSON, reading CredentialsFile when set.
func (c DriveConfig) DriveCredentials() (string, error) {
	if c.CredentialsJSON != "" {
		return c.CredentialsJSON, nil
	}
	if c.CredentialsFile == "" {
		return "", nil
	}
	data, err := os.ReadFile(c.CredentialsFile)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func ensureDir(dir string) {
	if dir == "" {
		return
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
