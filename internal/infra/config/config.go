package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPPort     int    `env:"HTTP_PORT"      envDefault:"5000"`
	UploadDir    string `env:"UPLOAD_DIR"     envDefault:"uploads"`
	MaxUploadMB  int64  `env:"MAX_UPLOAD_MB"  envDefault:"512"`
	StreamBuffer int    `env:"STREAM_BUFFER"  envDefault:"64"`
	CORSAllowAll bool   `env:"CORS_ALLOW_ALL" envDefault:"true"`

	AnalysisDecimation  int           `env:"ANALYSIS_DECIMATION"   envDefault:"5"`
	AnalysisEmitDelay   time.Duration `env:"ANALYSIS_EMIT_DELAY"   envDefault:"100ms"`
	AnalysisMaxSessions int64         `env:"ANALYSIS_MAX_SESSIONS" envDefault:"4"`
	AnalysisAutoSave    bool          `env:"ANALYSIS_AUTO_SAVE"    envDefault:"false"`
	AnalysisScorer      string        `env:"ANALYSIS_SCORER"       envDefault:"geometry"`
	AnalysisScorerSeed  uint64        `env:"ANALYSIS_SCORER_SEED"  envDefault:"0"`
	AnalysisLeftHanded  bool          `env:"ANALYSIS_LEFT_HANDED"  envDefault:"false"`

	CameraFrames int `env:"CAMERA_FRAMES" envDefault:"100"`
	CameraWidth  int `env:"CAMERA_WIDTH"  envDefault:"640"`
	CameraHeight int `env:"CAMERA_HEIGHT" envDefault:"480"`
	CameraFPS    int `env:"CAMERA_FPS"    envDefault:"30"`

	FFmpegPath  string `env:"FFMPEG_PATH"  envDefault:"ffmpeg"`
	FFprobePath string `env:"FFPROBE_PATH" envDefault:"ffprobe"`
	JPEGQuality int    `env:"JPEG_QUALITY" envDefault:"80"`

	PoseWorkerCmd     string        `env:"POSE_WORKER_CMD"`
	PoseWorkerArgs    []string      `env:"POSE_WORKER_ARGS"    envSeparator:" "`
	PoseWorkerTimeout time.Duration `env:"POSE_WORKER_TIMEOUT" envDefault:"2s"`

	RabbitMQURL           string `env:"RABBITMQ_URL"`
	RabbitMQExchange      string `env:"RABBITMQ_EXCHANGE"       envDefault:"pose.analysis"`
	RabbitMQAnalysisQueue string `env:"RABBITMQ_ANALYSIS_QUEUE" envDefault:"pose.analysis.requests"`
	RabbitMQStatusQueue   string `env:"RABBITMQ_STATUS_QUEUE"   envDefault:"pose.session.status"`
	RabbitMQDLQ           string `env:"RABBITMQ_DLQ"            envDefault:"pose.analysis.requests.dlq"`
	RabbitMQPrefetch      int    `env:"RABBITMQ_PREFETCH"       envDefault:"2"`
	WorkerCount           int    `env:"WORKER_COUNT"            envDefault:"2"`

	DatabaseURL string `env:"DATABASE_URL"`

	MinIOEndpoint     string `env:"MINIO_ENDPOINT"`
	MinIOAccessKey    string `env:"MINIO_ACCESS_KEY"    envDefault:"minioadmin"`
	MinIOSecretKey    string `env:"MINIO_SECRET_KEY"    envDefault:"minioadmin"`
	MinIOUseSSL       bool   `env:"MINIO_USE_SSL"       envDefault:"false"`
	MinIOUploadBucket string `env:"MINIO_UPLOAD_BUCKET" envDefault:"pose-uploads"`

	MQTTBroker      string   `env:"MQTT_BROKER"`
	MQTTClientID    string   `env:"MQTT_CLIENT_ID"    envDefault:"pose-analyzer"`
	MQTTTopicPrefix string   `env:"MQTT_TOPIC_PREFIX" envDefault:"pose/sessions"`
	MQTTQoS         byte     `env:"MQTT_QOS"          envDefault:"0"`
	MQTTTopics      []string `env:"MQTT_TOPICS"       envDefault:"metric-data,session-complete,session-error"`

	MetricsPort    int    `env:"METRICS_PORT"    envDefault:"8083"`
	JaegerEndpoint string `env:"JAEGER_ENDPOINT"`
	LogLevel       string `env:"LOG_LEVEL"       envDefault:"info"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
