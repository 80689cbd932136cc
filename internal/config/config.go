package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	GraphNeo4j  = "neo4j"
	GraphMemory = "memory"
)

type Config struct {
	HTTPAddr  string `env:"HTTP_ADDR" envDefault:":8080"`
	AppEnv    string `env:"APP_ENV" envDefault:"prod"`
	JWTSecret string `env:"JWT_SECRET,required,notEmpty"`

	GraphBackend  string `env:"GRAPH_BACKEND" envDefault:"neo4j"`
	Neo4jURI      string `env:"NEO4J_URI" envDefault:"neo4j://127.0.0.1:7687"`
	Neo4jUser     string `env:"NEO4J_USER" envDefault:"neo4j"`
	Neo4jPassword string `env:"NEO4J_PASSWORD"`
	Neo4jDatabase string `env:"NEO4J_DATABASE" envDefault:"neo4j"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	MySQLDSN string `env:"MYSQL_DSN" envDefault:"user:password@tcp(127.0.0.1:3306)/community?charset=utf8mb4&parseTime=True"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"community-events"`

	NatsURL      string `env:"NATS_URL"`
	MediaBucket  string `env:"MEDIA_BUCKET" envDefault:"community-media"`
	MediaBaseURL string `env:"MEDIA_BASE_URL" envDefault:"/api/media"`

	UploadTimeout    time.Duration `env:"UPLOAD_TIMEOUT" envDefault:"10s"`
	RoleStoreTimeout time.Duration `env:"ROLE_STORE_TIMEOUT" envDefault:"5s"`

	TextClassifierURL  string        `env:"TEXT_CLASSIFIER_URL" envDefault:"http://127.0.0.1:8000"`
	ImageClassifierURL string        `env:"IMAGE_CLASSIFIER_URL" envDefault:"http://127.0.0.1:8001"`
	ClassifierTimeout  time.Duration `env:"CLASSIFIER_TIMEOUT" envDefault:"5s"`

	RosterURL     string        `env:"ROSTER_URL"`
	RosterTimeout time.Duration `env:"ROSTER_TIMEOUT" envDefault:"3s"`
	// RosterToken is the service bearer token sent to the roster endpoint.
	RosterToken string `env:"ROSTER_TOKEN"`

	InviteCodeTTL time.Duration `env:"INVITE_CODE_TTL" envDefault:"24h"`

	ReconcileInterval   time.Duration `env:"RECONCILE_INTERVAL" envDefault:"30s"`
	ReconcileBatchSize  int           `env:"RECONCILE_BATCH_SIZE" envDefault:"100"`
	ReconcileMaxRetry   int           `env:"RECONCILE_MAX_RETRY" envDefault:"10"`
	CounterInterval     time.Duration `env:"COUNTER_RECONCILE_INTERVAL" envDefault:"10m"`
	CounterBatchSize    int           `env:"COUNTER_RECONCILE_BATCH_SIZE" envDefault:"200"`
	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
