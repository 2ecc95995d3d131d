package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

type Reader interface {
	Read() (*Config, error)
}

type EnvReader struct{}

func NewEnvReader() EnvReader {
	return EnvReader{}
}

func (EnvReader) Read() (*Config, error) {
	cfg := new(Config)
	err := cleanenv.ReadEnv(cfg)
	if err != nil {
		return nil, err
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the cross-field rules that struct tags can't express.
func (c *Config) Validate() error {
	switch c.Env {
	case EnvDev, EnvProd, EnvLocal:
	default:
		return fmt.Errorf("unknown env: %s", c.Env)
	}

	switch c.Storage.Driver {
	case StorageDriverLocal:
		if c.Storage.Dir == "" {
			return fmt.Errorf("upload dir is required for the %s storage driver", StorageDriverLocal)
		}
	case StorageDriverS3:
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("s3 bucket is required for the %s storage driver", StorageDriverS3)
		}
	default:
		return fmt.Errorf("unknown storage driver: %s", c.Storage.Driver)
	}

	if c.Storage.MaxBytes <= 0 {
		return fmt.Errorf("upload max bytes must be positive, got %d", c.Storage.MaxBytes)
	}
	return nil
}
