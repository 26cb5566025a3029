package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Razorpay RazorpayConfig
	Mail     MailConfig
	GCP      GCPConfig
	GCS      GCSConfig
	Org      OrgConfig
	Receipts ReceiptsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"WECANTRUST_APP_ENV" required:"true"`
	Port         string `envconfig:"WECANTRUST_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"WECANTRUST_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"WECANTRUST_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"WECANTRUST_DB_DSN"`
	Driver string `envconfig:"WECANTRUST_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"WECANTRUST_DB_HOST"`
	LegacyPort     int    `envconfig:"WECANTRUST_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"WECANTRUST_DB_USER"`
	LegacyPassword string `envconfig:"WECANTRUST_DB_PASSWORD"`
	LegacyName     string `envconfig:"WECANTRUST_DB_NAME"`
	LegacySSLMode  string `envconfig:"WECANTRUST_DB_SSLMODE" default:"disable"`

	AutoMigrate bool `envconfig:"WECANTRUST_AUTO_MIGRATE" default:"false"`

	MaxOpenConns    int           `envconfig:"WECANTRUST_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"WECANTRUST_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"WECANTRUST_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"WECANTRUST_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"WECANTRUST_REDIS_URL" required:"true"`
	Password     string        `envconfig:"WECANTRUST_REDIS_PASSWORD"`
	DB           int           `envconfig:"WECANTRUST_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"WECANTRUST_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"WECANTRUST_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"WECANTRUST_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"WECANTRUST_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"WECANTRUST_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"WECANTRUST_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"WECANTRUST_JWT_ISSUER" default:"wecantrust"`
	ExpirationMinutes int    `envconfig:"WECANTRUST_JWT_EXPIRATION_MINUTES" default:"1440"`
}

func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type RazorpayConfig struct {
	KeyID     string `envconfig:"WECANTRUST_RAZORPAY_KEY_ID" required:"true"`
	KeySecret string `envconfig:"WECANTRUST_RAZORPAY_KEY_SECRET" required:"true"`
}

type MailConfig struct {
	SendgridAPIKey string `envconfig:"WECANTRUST_SENDGRID_API_KEY"`
	FromEmail      string `envconfig:"WECANTRUST_MAIL_FROM_EMAIL" default:"receipts@wecantrust.org"`
	FromName       string `envconfig:"WECANTRUST_MAIL_FROM_NAME" default:"We Can Trust"`
}

func (m MailConfig) Enabled() bool {
	return strings.TrimSpace(m.SendgridAPIKey) != ""
}

type GCPConfig struct {
	ProjectID       string `envconfig:"WECANTRUST_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"WECANTRUST_GCP_CREDENTIALS_JSON"`
	CredentialsFile string `envconfig:"WECANTRUST_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName string `envconfig:"WECANTRUST_GCS_BUCKET_NAME" required:"true"`
	Prefix     string `envconfig:"WECANTRUST_GCS_PREFIX" default:"receipts"`
}

type OrgConfig struct {
	Name               string `envconfig:"WECANTRUST_ORG_NAME" default:"We Can Trust"`
	RegistrationNumber string `envconfig:"WECANTRUST_ORG_REGISTRATION_NUMBER"`
	PANNumber          string `envconfig:"WECANTRUST_ORG_PAN_NUMBER"`
	Address            string `envconfig:"WECANTRUST_ORG_ADDRESS"`
	Phone              string `envconfig:"WECANTRUST_ORG_PHONE"`
	Email              string `envconfig:"WECANTRUST_ORG_EMAIL"`
	Website            string `envconfig:"WECANTRUST_ORG_WEBSITE" default:"https://wecantrust.org"`
	Section80G         string `envconfig:"WECANTRUST_ORG_80G_NUMBER"`
}

type ReceiptsConfig struct {
	PublicBaseURL   string        `envconfig:"WECANTRUST_RECEIPTS_PUBLIC_BASE_URL" required:"true"`
	RenderTimeout   time.Duration `envconfig:"WECANTRUST_RECEIPTS_RENDER_TIMEOUT" default:"30s"`
	PipelineLockTTL time.Duration `envconfig:"WECANTRUST_RECEIPTS_PIPELINE_LOCK_TTL" default:"2m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
