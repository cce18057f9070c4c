package config

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
)

type Config struct {
	Env         string   `default:"development" usage:"development or production"`
	Port        string   `default:"8080" usage:"HTTP listen port"`
	ServerURL   string   `default:"http://localhost:8080" usage:"Public base URL of this API, used in mailed links"`
	FrontendURL string   `default:"http://localhost:3000" usage:"Base URL of the web client"`
	CORSOrigins []string `default:"*" usage:"Allowed CORS origins"`

	Mongo     MongoConfig
	Redis     RedisConfig
	Token     TokenConfig
	Storage   StorageConfig
	MinIO     MinIOConfig `env:"MINIO"`
	Elastic   ElasticConfig
	Scylla    ScyllaConfig
	Kafka     KafkaConfig
	SMTP      SMTPConfig `env:"SMTP"`
	Razorpay  RazorpayConfig
	Stripe    StripeConfig
	Google    GoogleConfig
	Invoice   InvoiceConfig
	RateLimit RateLimitConfig
	Graceful  GracefulConfig
}

type MongoConfig struct {
	URI      string `usage:"MongoDB connection string"`
	Database string `default:"e-commerce"`
}

type RedisConfig struct {
	Addr     string `default:"localhost:6379"`
	Password string
	DB       int `default:"0"`
}

type TokenConfig struct {
	AccessSecret  string
	AccessExpiry  time.Duration `default:"24h"`
	RefreshSecret string
	RefreshExpiry time.Duration `default:"240h"`
}

type StorageConfig struct {
	LocalDir string `default:"public/images" usage:"Directory for uploads when MinIO is not configured"`
}

type MinIOConfig struct {
	Endpoint  string `env:"ENDPOINT"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	Bucket    string `env:"BUCKET" default:"shopkart"`
	UseSSL    bool   `env:"USE_SSL" default:"false"`
	PublicURL string `env:"PUBLIC_URL" usage:"Base URL objects are served from, defaults to the endpoint"`
}

type ElasticConfig struct {
	Addresses []string
	Username  string
	Password  string
	Index     string `default:"products"`
}

type ScyllaConfig struct {
	Hosts    []string
	Keyspace string `default:"shopkart"`
	Username string
	Password string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string `default:"orders"`
}

type SMTPConfig struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" default:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM" default:"noreply@shopkart.dev"`
}

type RazorpayConfig struct {
	KeyID     string
	KeySecret string
	BaseURL   string `default:"https://api.razorpay.com/v1"`
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

type GoogleConfig struct {
	ClientID      string
	ClientSecret  string
	CallbackURL   string
	SessionSecret string
}

type InvoiceConfig struct {
	Enabled bool          `default:"false" usage:"Render PDF invoices with headless Chrome"`
	Timeout time.Duration `default:"30s"`
}

type RateLimitConfig struct {
	LoginMaxAttempts int           `default:"5"`
	LoginCooldown    time.Duration `default:"15m"`
}

type GracefulConfig struct {
	ShutdownTimeout time.Duration `default:"15s"`
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads .env when present, then binds SHOPKART_* environment variables
// and an optional config.yaml on top of the defaults.
func Load() (*Config, error) {
	// .env is optional; the process environment is used without it.
	_ = godotenv.Load(".env")

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix:          "SHOPKART",
		SkipFlags:          true,
		AllowUnknownEnvs:   true,
		AllowUnknownFields: true,
		Files:              []string{"config.yaml", "/etc/shopkart/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults honours the unprefixed names most hosts inject.
func (c *Config) applyPlatformDefaults() {
	if port := os.Getenv("PORT"); port != "" && c.Port == "8080" {
		c.Port = port
	}
	if c.Mongo.URI == "" {
		c.Mongo.URI = os.Getenv("MONGODB_URI")
	}
}

func (c *Config) validate() error {
	switch {
	case c.Mongo.URI == "":
		return errors.New("mongo URI is required: set SHOPKART_MONGO_URI or MONGODB_URI")
	case c.Token.AccessSecret == "" || c.Token.RefreshSecret == "":
		return errors.New("token secrets are required: set SHOPKART_TOKEN_ACCESS_SECRET and SHOPKART_TOKEN_REFRESH_SECRET")
	case c.Razorpay.KeyID != "" && c.Razorpay.KeySecret == "":
		return errors.New("razorpay key secret is required when SHOPKART_RAZORPAY_KEY_ID is set")
	case c.Stripe.SecretKey != "" && c.Stripe.WebhookSecret == "":
		return errors.New("stripe webhook secret is required when SHOPKART_STRIPE_SECRET_KEY is set")
	}
	return nil
}
