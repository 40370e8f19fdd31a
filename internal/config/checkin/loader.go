package checkin_config

import (
	"strings"

	"github.com/spf13/viper"
)

// Loader reads the service config once and the checkin overrides on every
// Settings call, so a run always sees the current environment.
type Loader struct {
	v *viper.Viper
}

func NewLoader(path string) *Loader {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		_ = v.ReadInConfig()
	}

	v.SetDefault("app.name", "autocheckin")
	v.SetDefault("app.env", "dev")

	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.metrics_addr", ":8082")
	v.SetDefault("server.read_timeout", "5s")
	v.SetDefault("server.write_timeout", "10m")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.graceful_timeout", "15s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("otel.enable", false)
	v.SetDefault("otel.service_name", "autocheckin")
	v.SetDefault("otel.sample_ratio", 1.0)
	v.SetDefault("otel.otlp_endpoint", "localhost:4317")

	v.SetDefault("sched.tick", "24h")
	v.SetDefault("sched.run_on_start", false)

	v.SetDefault("http.timeout", "15s")
	v.SetDefault("http.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/109.0.0.0 Safari/537.36")
	v.SetDefault("http.verify_tls", true)
	v.SetDefault("http.login_delay", "1s")

	v.SetDefault("retry.step", "2s")

	v.SetDefault("notify.api_base", "https://api.telegram.org")
	v.SetDefault("notify.timezone", "Asia/Shanghai")
	v.SetDefault("notify.timeout", "10s")

	v.SetDefault("kafka.enable", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9094"})
	v.SetDefault("kafka.topic", "autocheckin.reports")
	v.SetDefault("kafka.partitions", 1)
	v.SetDefault("kafka.replication_factor", 1)
	v.SetDefault("kafka.topic_wait", "5s")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}
}

func (l *Loader) Config() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.HTTP.Timeout <= 0 {
		return nil, &ConfigError{Msg: "http.timeout must be positive"}
	}
	return &cfg, nil
}

// Overrides returns the raw checkin override values currently visible.
func (l *Loader) Overrides() map[string]string {
	out := make(map[string]string, len(OverrideKeys))
	for _, k := range OverrideKeys {
		if s := l.v.GetString(k); s != "" {
			out[k] = s
		}
	}
	return out
}

func (l *Loader) Settings() (Settings, error) {
	return Resolve(DefaultSettings(), l.Overrides()), nil
}

// Load is a shortcut for NewLoader(path).Config().
func Load(path string) (*Config, *Loader, error) {
	l := NewLoader(path)
	cfg, err := l.Config()
	if err != nil {
		return nil, nil, err
	}
	return cfg, l, nil
}
