package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViper_Defaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "mou-documents", cfg.Storage.Bucket)
	assert.True(t, cfg.Storage.S3ForcePathStyle)
	assert.Equal(t, int64(11155111), cfg.Chain.ChainID)
	assert.Equal(t, "OpenCampus CodeX Sepolia", cfg.Chain.ChainName)
	assert.Equal(t, "0xcB693B3Fe7FB2C44921B3D43779f8040B2f53AbD", cfg.Chain.ContractAddress)
	assert.Equal(t, 2*time.Second, cfg.Chain.PollInterval)
	assert.Equal(t, "@every 6h", cfg.DocumentSweepSchedule)
	assert.Equal(t, 24*time.Hour, cfg.DocumentSweepGrace)
}

func TestFromViper_DatabaseURLPerEnv(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("APP_ENV", "production")
	v.Set("DATABASE_URL_DEV", "postgres://dev")
	v.Set("DATABASE_URL_PROD", "postgres://prod")
	v.Set("STORAGE_DRIVER", "S3")
	v.Set("ALLOW_CROSS_SITE_DEV", "true")

	cfg := fromViper(v)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "postgres://prod", cfg.DatabaseURL)
	assert.Equal(t, "s3", cfg.Storage.Driver)
	assert.True(t, cfg.AllowCrossSiteDev)
}

func TestValidate_ProductionNeedsDurableStorage(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("APP_ENV", "production")
	cfg := fromViper(v)
	err := cfg.Validate()
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "STORAGE_DRIVER")
	}

	v.Set("STORAGE_DRIVER", "supabase")
	assert.NoError(t, fromViper(v).Validate())

	dev := viper.New()
	setDefaults(dev)
	assert.NoError(t, fromViper(dev).Validate())
}
