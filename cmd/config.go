package cmd

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	go_ora "github.com/sijms/go-ora/v2"
	"github.com/spf13/viper"
)

const (
	RoleSource      = "source"
	RoleDestination = "destination"
)

type DBConfig struct {
	Name     string `mapstructure:"name"`
	Role     string `mapstructure:"role"`
	Driver   string `mapstructure:"driver"`
	DSN      string `mapstructure:"dsn"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Service  string `mapstructure:"service"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// Settings are the run options shared by the migrate and clean commands.
type Settings struct {
	BatchSize int      `mapstructure:"batch_size"`
	Tables    []string `mapstructure:"tables"`
	OnError   string   `mapstructure:"on_error"`
	Verify    bool     `mapstructure:"verify"`
}

func init() {
	viper.SetDefault("settings.batch_size", 500)
	viper.SetDefault("settings.on_error", "continue")
	viper.SetDefault("settings.verify", true)
}

// GetDBConfig returns the database entry playing role. A DSN given on the
// command line wins over the config file.
func GetDBConfig(role string) (*DBConfig, error) {
	override := sourceDSN
	if role == RoleDestination {
		override = destDSN
	}
	if override != "" {
		return &DBConfig{Name: "command line", Role: role, Driver: DetectDriver(role, override), DSN: override}, nil
	}

	var configs []DBConfig
	if err := viper.UnmarshalKey("databases", &configs); err != nil {
		return nil, fmt.Errorf("failed to parse databases config: %w", err)
	}

	var found *DBConfig
	count := 0
	for i := range configs {
		if strings.EqualFold(configs[i].Role, role) {
			found = &configs[i]
			count++
		}
	}

	if count == 0 {
		return nil, fmt.Errorf("no %s database found in config (set role: %s or pass --%s)", role, role, dsnFlag(role))
	}
	if count > 1 {
		return nil, fmt.Errorf("multiple %s databases found (only one can have role %s)", role, role)
	}
	if found.Driver == "" {
		found.Driver = DetectDriver(role, found.DSN)
	}
	return found, nil
}

func dsnFlag(role string) string {
	if role == RoleDestination {
		return "dest-dsn"
	}
	return "source-dsn"
}

// DetectDriver guesses the database/sql driver name from a DSN. The
// destination is always Oracle.
func DetectDriver(role, dsn string) string {
	if role == RoleDestination {
		return "oracle"
	}
	switch {
	case strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "sslmode"):
		return "postgres"
	case strings.HasPrefix(dsn, "sqlserver://"):
		return "sqlserver"
	default:
		return "mysql"
	}
}

// BuildDSN returns the connection string for the configured driver, either
// normalizing the given DSN or assembling one from the discrete fields.
func (c *DBConfig) BuildDSN() (string, error) {
	switch c.Driver {
	case "mysql":
		return c.mysqlDSN()
	case "oracle":
		if c.DSN != "" {
			return c.DSN, nil
		}
		if c.Host == "" || c.Service == "" {
			return "", fmt.Errorf("database %q: oracle needs dsn or host and service", c.Name)
		}
		return go_ora.BuildUrl(c.Host, c.portOr(1521), c.Service, c.User, c.Password, nil), nil
	case "postgres":
		if c.DSN != "" {
			return c.DSN, nil
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.User, c.Password),
			Host:     net.JoinHostPort(c.hostOr("localhost"), strconv.Itoa(c.portOr(5432))),
			Path:     "/" + c.Database,
			RawQuery: "sslmode=disable",
		}
		return u.String(), nil
	case "sqlserver", "mssql":
		if c.DSN != "" {
			return c.DSN, nil
		}
		u := url.URL{
			Scheme:   "sqlserver",
			User:     url.UserPassword(c.User, c.Password),
			Host:     net.JoinHostPort(c.hostOr("localhost"), strconv.Itoa(c.portOr(1433))),
			RawQuery: url.Values{"database": {c.Database}}.Encode(),
		}
		return u.String(), nil
	default:
		return "", fmt.Errorf("database %q: unsupported driver %q", c.Name, c.Driver)
	}
}

// mysqlDSN always turns parseTime on so DATETIME columns arrive as time.Time.
func (c *DBConfig) mysqlDSN() (string, error) {
	var cfg *mysql.Config
	if c.DSN != "" {
		parsed, err := mysql.ParseDSN(c.DSN)
		if err != nil {
			return "", fmt.Errorf("parse mysql dsn: %w", err)
		}
		cfg = parsed
	} else {
		cfg = mysql.NewConfig()
		cfg.User = c.User
		cfg.Passwd = c.Password
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(c.hostOr("localhost"), strconv.Itoa(c.portOr(3306)))
		cfg.DBName = c.Database
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

func (c *DBConfig) hostOr(def string) string {
	if c.Host == "" {
		return def
	}
	return c.Host
}

func (c *DBConfig) portOr(def int) int {
	if c.Port == 0 {
		return def
	}
	return c.Port
}

// loadSettings reads the settings block. Flags bound to viper keys take
// precedence; the tables flag is applied by the caller.
func loadSettings() (*Settings, error) {
	var s Settings
	if err := viper.UnmarshalKey("settings", &s); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	s.BatchSize = viper.GetInt("settings.batch_size")
	s.OnError = viper.GetString("settings.on_error")
	s.Verify = viper.GetBool("settings.verify")
	if s.BatchSize <= 0 {
		return nil, fmt.Errorf("settings.batch_size must be positive, got %d", s.BatchSize)
	}
	return &s, nil
}
