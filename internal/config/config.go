package config

import "time"

const (
	EnvDev   = "dev"
	EnvProd  = "prod"
	EnvLocal = "local"
)

const (
	StorageDriverLocal = "local"
	StorageDriverS3    = "s3"
)

var globalConfig *Config

func Global() *Config {
	return globalConfig
}

func SetGlobal(cfg *Config) {
	globalConfig = cfg
}

type Config struct {
	Env     string `env:"ENV" env-required:"true"`
	HTTP    HTTPConfig
	Mongo   MongoConfig
	Redis   RedisConfig
	JWT     JWTConfig
	Storage StorageConfig
}

type HTTPConfig struct {
	Host            string        `env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port            string        `env:"PORT" env-default:"5000"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
	// ExposeErrors puts raw internal error messages into 500 responses.
	ExposeErrors bool `env:"HTTP_EXPOSE_ERRORS" env-default:"false"`
	// TrustedProxies lists the IPs or CIDRs allowed to set X-Forwarded-For.
	// Empty means the peer address is always the client IP.
	TrustedProxies []string `env:"HTTP_TRUSTED_PROXIES" env-separator:","`
}

type MongoConfig struct {
	URI            string        `env:"MONGO_URI" env-required:"true"`
	Database       string        `env:"MONGO_DATABASE" env-default:"taskapi"`
	ConnectTimeout time.Duration `env:"MONGO_CONNECT_TIMEOUT" env-default:"10s"`
	PingTimeout    time.Duration `env:"MONGO_PING_TIMEOUT" env-default:"10s"`
}

type RedisConfig struct {
	URL         string        `env:"REDIS_URL" env-default:"redis://localhost:6379/0"`
	PingTimeout time.Duration `env:"REDIS_PING_TIMEOUT" env-default:"5s"`
}

type JWTConfig struct {
	Secret          string        `env:"JWT_SECRET" env-required:"true"`
	Issuer          string        `env:"JWT_ISSUER" env-default:"go-task-api"`
	AccessTokenTTL  time.Duration `env:"JWT_ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenTTL time.Duration `env:"JWT_REFRESH_TOKEN_TTL" env-default:"720h"`
}

type StorageConfig struct {
	Driver   string `env:"STORAGE_DRIVER" env-default:"local"`
	Dir      string `env:"UPLOAD_DIR" env-default:"uploads"`
	MaxBytes int64  `env:"UPLOAD_MAX_BYTES" env-default:"5242880"`
	S3       S3Config
}

type S3Config struct {
	Bucket     string        `env:"S3_BUCKET"`
	Region     string        `env:"S3_REGION" env-default:"us-east-1"`
	Endpoint   string        `env:"S3_ENDPOINT"`
	AccessKey  string        `env:"S3_ACCESS_KEY"`
	SecretKey  string        `env:"S3_SECRET_KEY"`
	PresignTTL time.Duration `env:"S3_PRESIGN_TTL" env-default:"15m"`
}
