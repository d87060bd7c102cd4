// config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

type ServerConfig struct {
	Port string `yaml:"port"`
}

// DatabaseConfig holds the connection parameters for a MySQL workspace.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

// WorkspaceConfig selects the data store that holds the feature class.
// Driver "sqlite" stores it in a GeoPackage file at Path, driver "mysql"
// uses the MySQL schema described by MySQL.
type WorkspaceConfig struct {
	Driver string         `yaml:"driver"`
	Path   string         `yaml:"path"`
	MySQL  DatabaseConfig `yaml:"mysql"`
}

type FeatureClassConfig struct {
	Name    string `yaml:"name"`
	SRSID   int    `yaml:"srs_id"`
	SRSName string `yaml:"srs_name"`
	// PrjFile points at an ESRI .prj file; its WKT becomes the spatial
	// reference definition when the feature class is created.
	PrjFile             string `yaml:"prj_file"`
	SpatialReferenceWKT string `yaml:"-"`
}

type ReportsConfig struct {
	Directory string `yaml:"directory"`
	Extension string `yaml:"extension"`
	FeedURL   string `yaml:"feed_url"`
}

type ScheduleConfig struct {
	Cron          string        `yaml:"cron"`
	DebounceStr   string        `yaml:"watch_debounce"`
	WatchDebounce time.Duration `yaml:"-"` // Parsed duration
}

type Config struct {
	Workspace    WorkspaceConfig    `yaml:"workspace"`
	FeatureClass FeatureClassConfig `yaml:"feature_class"`
	Reports      ReportsConfig      `yaml:"reports"`
	Schedule     ScheduleConfig     `yaml:"schedule"`
	Server       ServerConfig       `yaml:"server"`
}

var AppConfig = Defaults()

// Defaults returns the configuration used when no config file is present.
func Defaults() Config {
	return Config{
		Workspace: WorkspaceConfig{
			Driver: DriverSQLite,
			Path:   "data/gaslines.gpkg",
			MySQL: DatabaseConfig{
				Host:   "localhost",
				Port:   "3306",
				DBName: "gaslines",
			},
		},
		FeatureClass: FeatureClassConfig{
			Name:    "Gas_Lines",
			SRSID:   4326,
			SRSName: "WGS 84",
		},
		Reports: ReportsConfig{
			Directory: "reports",
			Extension: ".txt",
		},
		Schedule: ScheduleConfig{
			Cron:          "@daily",
			WatchDebounce: 500 * time.Millisecond,
		},
		Server: ServerConfig{
			Port: "8080",
		},
	}
}

// LoadConfig loads configuration into AppConfig. See Load.
func LoadConfig(configPath string) error {
	cfg, err := Load(configPath)
	if err != nil {
		return err
	}
	AppConfig = *cfg
	return nil
}

// Load builds a Config from defaults, the YAML file at configPath (if any),
// a .env file in the working directory and GASLINES_* environment variables,
// in that order of precedence (last wins).
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	if configPath == "" {
		potentialPaths := []string{
			"config.yaml",
			"config/config.yaml",
		}
		for _, p := range potentialPaths {
			if _, err := os.Stat(p); err == nil {
				configPath = p
				break
			}
		}
	}

	if configPath != "" {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(file, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	applyEnv(&cfg)

	if cfg.Schedule.DebounceStr != "" {
		d, err := time.ParseDuration(cfg.Schedule.DebounceStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse watch_debounce: %w", err)
		}
		cfg.Schedule.WatchDebounce = d
	}

	if cfg.FeatureClass.PrjFile != "" {
		wkt, err := os.ReadFile(cfg.FeatureClass.PrjFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read projection file %s: %w", cfg.FeatureClass.PrjFile, err)
		}
		cfg.FeatureClass.SpatialReferenceWKT = strings.TrimSpace(string(wkt))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports configuration values that would make a run impossible.
func (c *Config) Validate() error {
	switch c.Workspace.Driver {
	case DriverSQLite:
		if c.Workspace.Path == "" {
			return fmt.Errorf("workspace.path is required for the %s driver", DriverSQLite)
		}
	case DriverMySQL:
		if c.Workspace.MySQL.DBName == "" {
			return fmt.Errorf("workspace.mysql.dbname is required for the %s driver", DriverMySQL)
		}
	default:
		return fmt.Errorf("unsupported workspace driver %q", c.Workspace.Driver)
	}
	if c.FeatureClass.Name == "" {
		return fmt.Errorf("feature_class.name must not be empty")
	}
	if c.Reports.Directory == "" {
		return fmt.Errorf("reports.directory must not be empty")
	}
	if !strings.HasPrefix(c.Reports.Extension, ".") {
		return fmt.Errorf("reports.extension %q must start with a dot", c.Reports.Extension)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Workspace.Driver = getEnv("GASLINES_DB_DRIVER", cfg.Workspace.Driver)
	cfg.Workspace.Path = getEnv("GASLINES_DB_PATH", cfg.Workspace.Path)
	cfg.Workspace.MySQL.Host = getEnv("GASLINES_DB_HOST", cfg.Workspace.MySQL.Host)
	cfg.Workspace.MySQL.Port = getEnv("GASLINES_DB_PORT", cfg.Workspace.MySQL.Port)
	cfg.Workspace.MySQL.User = getEnv("GASLINES_DB_USER", cfg.Workspace.MySQL.User)
	cfg.Workspace.MySQL.Password = getEnv("GASLINES_DB_PASSWORD", cfg.Workspace.MySQL.Password)
	cfg.Workspace.MySQL.DBName = getEnv("GASLINES_DB_NAME", cfg.Workspace.MySQL.DBName)
	cfg.FeatureClass.Name = getEnv("GASLINES_FEATURE_CLASS", cfg.FeatureClass.Name)
	cfg.FeatureClass.SRSID = getEnvAsInt("GASLINES_SRS_ID", cfg.FeatureClass.SRSID)
	cfg.FeatureClass.PrjFile = getEnv("GASLINES_PRJ_FILE", cfg.FeatureClass.PrjFile)
	cfg.Reports.Directory = getEnv("GASLINES_REPORT_DIR", cfg.Reports.Directory)
	cfg.Reports.FeedURL = getEnv("GASLINES_FEED_URL", cfg.Reports.FeedURL)
	cfg.Schedule.Cron = getEnv("GASLINES_SCHEDULE", cfg.Schedule.Cron)
	cfg.Server.Port = getEnv("GASLINES_SERVER_PORT", cfg.Server.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
