package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// AuthConfig protects the operator API. An empty JWTSecret disables token checks.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// WordPressConfig holds the remote behaviour knobs handed to the publish pipeline.
type WordPressConfig struct {
	ProbeTimeout      time.Duration `mapstructure:"probe_timeout"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	UploadTimeout     time.Duration `mapstructure:"upload_timeout"`
	VerifyRetries     int           `mapstructure:"verify_retries"`
	VerifyBackoff     time.Duration `mapstructure:"verify_backoff"`
	CookieLogin       bool          `mapstructure:"cookie_login"`
	AnonymousFallback bool          `mapstructure:"anonymous_fallback"`
	UserAgent         string        `mapstructure:"user_agent"`
	MaxImageBytes     int64         `mapstructure:"max_image_bytes"`
}

// SecretsConfig names the Secret Manager entries read at startup. Nothing is
// fetched when ProjectID is empty.
type SecretsConfig struct {
	ProjectID        string `mapstructure:"project_id"`
	DBPasswordSecret string `mapstructure:"db_password_secret"`
	JWTSecretName    string `mapstructure:"jwt_secret_name"`
}

type AppConfig struct {
	Env       string          `mapstructure:"env"`
	Port      string          `mapstructure:"port"`
	DB        DBConfig        `mapstructure:"db"`
	Auth      AuthConfig      `mapstructure:"auth"`
	CORS      CORSConfig      `mapstructure:"cors"`
	WordPress WordPressConfig `mapstructure:"wordpress"`
	Secrets   SecretsConfig   `mapstructure:"secrets"`
}

// SecretInjector overwrites sensitive config values after the file is read.
type SecretInjector interface {
	InjectSecrets(cfg *AppConfig) error
}

var (
	C        AppConfig
	loadOnce sync.Once
	loadErr  error
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_conns", 10)
	v.SetDefault("wordpress.probe_timeout", "20s")
	v.SetDefault("wordpress.request_timeout", "30s")
	v.SetDefault("wordpress.upload_timeout", "0s")
	v.SetDefault("wordpress.verify_retries", 2)
	v.SetDefault("wordpress.verify_backoff", "500ms")
	v.SetDefault("wordpress.cookie_login", true)
	v.SetDefault("wordpress.anonymous_fallback", true)
	v.SetDefault("wordpress.user_agent", "courier/1.0")
	v.SetDefault("wordpress.max_image_bytes", 20<<20)
}

// LoadConfig reads config.<env>.yaml from CONFIG_DIR (default ./config) once
// per process. Environment variables override file values, with dots replaced
// by underscores (WORDPRESS_COOKIE_LOGIN=false).
func LoadConfig(env string, injector SecretInjector) (AppConfig, error) {
	loadOnce.Do(func() {
		if env == "" {
			env = "local"
		}
		if err := os.Setenv("APP_ENV", env); err != nil {
			loadErr = err
			return
		}

		configDir := os.Getenv("CONFIG_DIR")
		if configDir == "" {
			configDir = "./config"
		}

		log.Printf("Loading config for: %s environment\n", env)

		v := viper.New()
		v.SetConfigName("config." + env)
		v.SetConfigType("yaml")
		v.AddConfigPath(configDir)
		v.AutomaticEnv()
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		setDefaults(v)

		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				loadErr = fmt.Errorf("Config file not found for %s environment in %s: %w", env, configDir, err)
				return
			}
			loadErr = err
			return
		}

		var cfg AppConfig
		if err := v.Unmarshal(&cfg); err != nil {
			loadErr = err
			return
		}

		if injector != nil {
			if err := injector.InjectSecrets(&cfg); err != nil {
				loadErr = fmt.Errorf("injecting secrets: %w", err)
				return
			}
		}

		C = cfg
		log.Printf("Loaded config for: %s environment\n", C.Env)
	})

	return C, loadErr
}
