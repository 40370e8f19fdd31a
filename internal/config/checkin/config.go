package checkin_config

import (
	"time"

	"github.com/NordCoder/autocheckin/internal/obs"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type Server struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

func (oc *OTEL) AsOTELConfig() *obs.OTELConfig {
	return &obs.OTELConfig{
		Enable:      oc.Enable,
		Endpoint:    oc.OTLPEndpoint,
		ServiceName: oc.ServiceName,
		SampleRatio: oc.SampleRatio,
	}
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type SchedCfg struct {
	Tick       time.Duration `mapstructure:"tick"`
	RunOnStart bool          `mapstructure:"run_on_start"`
}

// HTTPCfg tunes the outbound session client.
type HTTPCfg struct {
	Timeout    time.Duration `mapstructure:"timeout"`
	UserAgent  string        `mapstructure:"user_agent"`
	VerifyTLS  bool          `mapstructure:"verify_tls"`
	LoginDelay time.Duration `mapstructure:"login_delay"`
}

type RetryCfg struct {
	Step time.Duration `mapstructure:"step"`
}

type NotifyCfg struct {
	APIBase  string        `mapstructure:"api_base"`
	Timezone string        `mapstructure:"timezone"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type KafkaCfg struct {
	Enable            bool          `mapstructure:"enable"`
	Brokers           []string      `mapstructure:"brokers"`
	Topic             string        `mapstructure:"topic"`
	Partitions        int           `mapstructure:"partitions"`
	ReplicationFactor int           `mapstructure:"replication_factor"`
	TopicWait         time.Duration `mapstructure:"topic_wait"` // how long to wait for a new topic's partitions
}

type Config struct {
	App    App       `mapstructure:"app"`
	Server Server    `mapstructure:"server"`
	Log    Log       `mapstructure:"log"`
	OTEL   OTEL      `mapstructure:"otel"`
	Sched  SchedCfg  `mapstructure:"sched"`
	HTTP   HTTPCfg   `mapstructure:"http"`
	Retry  RetryCfg  `mapstructure:"retry"`
	Notify NotifyCfg `mapstructure:"notify"`
	Kafka  KafkaCfg  `mapstructure:"kafka"`
}

func (c *Config) AsLoggerConfig() obs.LogConfig {
	return obs.LogConfig{
		Level:  c.Log.Level,
		Pretty: c.Log.Pretty,
		App:    c.App.Name,
		Env:    c.App.Env,
		Ver:    c.App.Version,
	}
}

// ConfigError marks a problem with the effective settings. It is fatal to a run.
type ConfigError struct {
	Msg string
	Err error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *ConfigError) Unwrap() error { return e.Err }
