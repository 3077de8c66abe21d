package config

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"trusthire/internal/project/lifecycle"
	"trusthire/internal/project/pricing"
)

const DefaultPath = "config/config.yaml"

type Config struct {
	Server struct {
		Address        string   `yaml:"address"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	Database struct {
		Driver string `yaml:"driver"`
		URL    string `yaml:"url"`
	} `yaml:"database"`
	Auth struct {
		JWTSecret  string        `yaml:"jwt_secret"`
		AccessTTL  time.Duration `yaml:"access_ttl"`
		RefreshTTL time.Duration `yaml:"refresh_ttl"`
	} `yaml:"auth"`
	Escrow struct {
		// AmountStrategy picks the escrowed amount from the job budget: midpoint, min, max or agreed.
		AmountStrategy string                    `yaml:"amount_strategy"`
		Stages         []lifecycle.StageTemplate `yaml:"stages"`
	} `yaml:"escrow"`
	Payments struct {
		SimulatedEnabled bool          `yaml:"simulated_enabled"`
		Currency         string        `yaml:"currency"`
		OrderTTL         time.Duration `yaml:"order_ttl"`
		CleanupInterval  time.Duration `yaml:"cleanup_interval"`
		IdempotencyTTL   time.Duration `yaml:"idempotency_ttl"`
	} `yaml:"payments"`
	Razorpay struct {
		KeyID     string `yaml:"key_id"`
		KeySecret string `yaml:"key_secret"`
	} `yaml:"razorpay"`
	Wallet struct {
		RPCURL           string `yaml:"rpc_url"`
		EscrowAddress    string `yaml:"escrow_address"`
		MinConfirmations uint64 `yaml:"min_confirmations"`
		// WeiPerUnit is a decimal integer; empty disables the transfer value check.
		WeiPerUnit string `yaml:"wei_per_unit"`
	} `yaml:"wallet"`
	Video struct {
		AppID string `yaml:"app_id"`
	} `yaml:"video"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	AMQP struct {
		URL      string `yaml:"url"`
		Exchange string `yaml:"exchange"`
		Queue    string `yaml:"queue"`
	} `yaml:"amqp"`
	S3 struct {
		Endpoint  string `yaml:"endpoint"`
		Region    string `yaml:"region"`
		Bucket    string `yaml:"bucket"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		PublicURL string `yaml:"public_url"`
	} `yaml:"s3"`
	Firebase struct {
		CredentialsFile string `yaml:"credentials_file"`
	} `yaml:"firebase"`
}

// Load reads the YAML file at path, applies environment overrides and defaults.
// A missing file is not an error; every value can come from the environment.
func Load(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}
	cfg.applyEnv(os.Getenv)
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Database.URL, "DATABASE_URL")
	set(&c.Auth.JWTSecret, "JWT_SECRET")
	set(&c.Razorpay.KeyID, "RAZORPAY_KEY_ID")
	set(&c.Razorpay.KeySecret, "RAZORPAY_KEY_SECRET")
	set(&c.Wallet.EscrowAddress, "ESCROW_WALLET_ADDRESS")
	set(&c.Wallet.RPCURL, "WALLET_RPC_URL")
	set(&c.Wallet.WeiPerUnit, "WALLET_WEI_PER_UNIT")
	set(&c.Video.AppID, "VIDEO_APP_ID")
	set(&c.Redis.Addr, "REDIS_ADDR")
	set(&c.Redis.Password, "REDIS_PASSWORD")
	set(&c.AMQP.URL, "AMQP_URL")
	set(&c.S3.Endpoint, "S3_ENDPOINT")
	set(&c.S3.Region, "S3_REGION")
	set(&c.S3.Bucket, "S3_BUCKET")
	set(&c.S3.AccessKey, "S3_ACCESS_KEY")
	set(&c.S3.SecretKey, "S3_SECRET_KEY")
	set(&c.S3.PublicURL, "S3_PUBLIC_URL")
	set(&c.Firebase.CredentialsFile, "FIREBASE_CREDENTIALS")
	if port := strings.TrimSpace(getenv("PORT")); port != "" {
		c.Server.Address = ":" + strings.TrimPrefix(port, ":")
	}
	if v := getenv("PAYMENTS_SIMULATED_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Payments.SimulatedEnabled = b
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":4001"
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Auth.AccessTTL == 0 {
		c.Auth.AccessTTL = 15 * time.Minute
	}
	if c.Auth.RefreshTTL == 0 {
		c.Auth.RefreshTTL = 30 * 24 * time.Hour
	}
	if c.Escrow.AmountStrategy == "" {
		c.Escrow.AmountStrategy = pricing.StrategyMidpoint
	}
	if len(c.Escrow.Stages) == 0 {
		c.Escrow.Stages = lifecycle.DefaultStages
	}
	if c.Payments.Currency == "" {
		c.Payments.Currency = "INR"
	}
	if c.Payments.OrderTTL == 0 {
		c.Payments.OrderTTL = 30 * time.Minute
	}
	if c.Payments.CleanupInterval == 0 {
		c.Payments.CleanupInterval = 5 * time.Minute
	}
	if c.Payments.IdempotencyTTL == 0 {
		c.Payments.IdempotencyTTL = 30 * time.Second
	}
	if c.Wallet.MinConfirmations == 0 {
		c.Wallet.MinConfirmations = 1
	}
	if c.AMQP.Exchange == "" {
		c.AMQP.Exchange = "trusthire.events"
	}
	if c.AMQP.Queue == "" {
		c.AMQP.Queue = "trusthire.notifications"
	}
	if c.S3.Region == "" {
		c.S3.Region = "us-east-1"
	}
}

// Validate reports every required value that is missing or malformed.
func (c Config) Validate() error {
	var errs []error
	if c.Database.URL == "" {
		errs = append(errs, errors.New("database url is required (DATABASE_URL)"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("jwt secret is required (JWT_SECRET)"))
	}
	if !pricing.ValidStrategy(c.Escrow.AmountStrategy) {
		errs = append(errs, fmt.Errorf("unknown escrow amount strategy %q", c.Escrow.AmountStrategy))
	}
	if c.Wallet.RPCURL != "" && c.Wallet.EscrowAddress == "" {
		errs = append(errs, errors.New("wallet escrow address is required when rpc url is set (ESCROW_WALLET_ADDRESS)"))
	}
	if c.Wallet.RPCURL != "" && strings.TrimSpace(c.Wallet.WeiPerUnit) == "" {
		errs = append(errs, errors.New("wallet wei_per_unit is required when rpc url is set (WALLET_WEI_PER_UNIT)"))
	}
	if _, err := c.WeiPerUnit(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// WeiPerUnit parses wallet.wei_per_unit. Nil means not configured.
func (c Config) WeiPerUnit() (*big.Int, error) {
	s := strings.TrimSpace(c.Wallet.WeiPerUnit)
	if s == "" {
		return nil, nil
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() <= 0 {
		return nil, fmt.Errorf("invalid wallet wei_per_unit %q", s)
	}
	return n, nil
}
