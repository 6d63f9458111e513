package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	SessionSecret       string
	DatabaseURL         string
	RedisURL            string
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string

	Storage StorageConfig
	Chain   ChainConfig

	NatsURL          string
	SendinblueAPIKey string
	MailFrom         string

	DocumentSweepSchedule string
	DocumentSweepGrace    time.Duration
}

// StorageConfig selects and configures the MOU object store.
type StorageConfig struct {
	Driver            string // s3 | supabase | memory
	Bucket            string
	S3Endpoint        string
	S3Region          string
	S3AccessKey       string
	S3SecretKey       string
	S3ForcePathStyle  bool
	S3PublicBaseURL   string
	SupabaseURL       string
	SupabaseSecretKey string // service_role key, the anon key cannot write to storage
}

// ChainConfig describes the settlement network and the wallet endpoint the adapter signs with.
type ChainConfig struct {
	WalletRPCURL    string
	ChainID         int64
	ChainName       string
	PublicRPCURL    string
	ExplorerURL     string
	ContractAddress string
	PollInterval    time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("STORAGE_DRIVER", "memory")
	v.SetDefault("DOCUMENTS_BUCKET", "mou-documents")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_FORCE_PATH_STYLE", true)
	v.SetDefault("CHAIN_ID", 11155111)
	v.SetDefault("CHAIN_NAME", "OpenCampus CodeX Sepolia")
	v.SetDefault("CHAIN_PUBLIC_RPC_URL", "https://rpc.codex.opencampus.sh")
	v.SetDefault("CHAIN_EXPLORER_URL", "https://explorer.codex.opencampus.sh")
	v.SetDefault("CONTRACT_ADDRESS", "0xcB693B3Fe7FB2C44921B3D43779f8040B2f53AbD")
	v.SetDefault("CHAIN_POLL_INTERVAL", "2s")
	v.SetDefault("MAIL_FROM", "noreply@ideanest.app")
	v.SetDefault("DOCUMENT_SWEEP_SCHEDULE", "@every 6h")
	v.SetDefault("DOCUMENT_SWEEP_GRACE", "24h")
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)
	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings that cannot run in the configured environment.
func (c *Config) Validate() error {
	if c.Env == "production" && (c.Storage.Driver == "" || c.Storage.Driver == "memory") {
		return errors.New("STORAGE_DRIVER must be s3 or supabase in production: memory storage does not survive a restart")
	}
	return nil
}

func fromViper(v *viper.Viper) *Config {
	env := v.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	dbURL := v.GetString("DATABASE_URL_DEV")
	switch env {
	case "production":
		dbURL = v.GetString("DATABASE_URL_PROD")
	case "test":
		dbURL = v.GetString("DATABASE_URL_TEST")
	}

	return &Config{
		Env:                 env,
		Port:                v.GetString("PORT"),
		SessionSecret:       v.GetString("SESSION_SECRET"),
		DatabaseURL:         dbURL,
		RedisURL:            v.GetString("REDIS_URL"),
		FrontendURLEndsWith: v.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         v.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:   v.GetBool("ALLOW_CROSS_SITE_DEV"),
		HealthAdminKey:      v.GetString("HEALTH_ADMIN_KEY"),
		Storage: StorageConfig{
			Driver:            strings.ToLower(v.GetString("STORAGE_DRIVER")),
			Bucket:            v.GetString("DOCUMENTS_BUCKET"),
			S3Endpoint:        v.GetString("S3_ENDPOINT"),
			S3Region:          v.GetString("S3_REGION"),
			S3AccessKey:       v.GetString("S3_ACCESS_KEY"),
			S3SecretKey:       v.GetString("S3_SECRET_KEY"),
			S3ForcePathStyle:  v.GetBool("S3_FORCE_PATH_STYLE"),
			S3PublicBaseURL:   v.GetString("S3_PUBLIC_BASE_URL"),
			SupabaseURL:       v.GetString("SUPABASE_URL"),
			SupabaseSecretKey: v.GetString("SUPABASE_SECRET_KEY"),
		},
		Chain: ChainConfig{
			WalletRPCURL:    v.GetString("WALLET_RPC_URL"),
			ChainID:         v.GetInt64("CHAIN_ID"),
			ChainName:       v.GetString("CHAIN_NAME"),
			PublicRPCURL:    v.GetString("CHAIN_PUBLIC_RPC_URL"),
			ExplorerURL:     v.GetString("CHAIN_EXPLORER_URL"),
			ContractAddress: v.GetString("CONTRACT_ADDRESS"),
			PollInterval:    v.GetDuration("CHAIN_POLL_INTERVAL"),
		},
		NatsURL:               v.GetString("NATS_URL"),
		SendinblueAPIKey:      v.GetString("SENDINBLUE_API_KEY"),
		MailFrom:              v.GetString("MAIL_FROM"),
		DocumentSweepSchedule: v.GetString("DOCUMENT_SWEEP_SCHEDULE"),
		DocumentSweepGrace:    v.GetDuration("DOCUMENT_SWEEP_GRACE"),
	}
}
