package internal

import "time"

type Config struct {
	Host                 string        `env:"HOST,default=0.0.0.0"`
	Port                 int           `env:"PORT,required=true"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath        string        `env:"BLUGE_FILEPATH,required=true"`
	LogLevel             string        `env:"LOG_LEVEL,default=INFO"`
	BufferSize           int           `env:"BUFFER_SIZE,default=256"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,default=2s"`
	AuthTokenDuration    time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,default=30s"`
	DefaultMessageLimit  int           `env:"DEFAULT_MESSAGE_LIMIT,default=50"`
	MaxContentLength     int           `env:"MAX_CONTENT_LENGTH,default=4096"`
	SearchResultLimit    int           `env:"SEARCH_RESULT_LIMIT,default=20"`
	MaxAvatarBytes       int64         `env:"MAX_AVATAR_BYTES,default=1048576"`
	WSSkipOriginVerify   bool          `env:"WS_SKIP_ORIGIN_VERIFY,default=false"`
}
