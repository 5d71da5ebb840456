package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	ctopics "github.com/charlieloganx23/apibet/pkg/contracts/topics"
)

// DefaultLeagues são as ligas oferecidas pelo provedor
var DefaultLeagues = []string{"express", "copa", "super", "euro", "premier"}

// Config centraliza variáveis de ambiente e parâmetros de execução
// Inclui conexões, credenciais do provedor, limiares de status e portas
type Config struct {
	Env         string `yaml:"env"` // "local", "dev", "prod"
	ServiceName string `yaml:"service_name"`
	LogLevel    string `yaml:"log_level"`

	DatabaseURL  string `yaml:"database_url"`
	RedisAddr    string `yaml:"redis_addr"`    // vazio desabilita cache e pub/sub
	KafkaBrokers string `yaml:"kafka_brokers"` // "a:9092,b:9092", vazio desabilita

	// Tópicos/canais
	TopicMatchUpdates  string `yaml:"topic_match_updates"`
	TopicMatchResults  string `yaml:"topic_match_results"`
	RedisPubSubChannel string `yaml:"redis_pubsub_channel"`

	// Provedor (RapidAPI)
	RapidAPIKey       string        `yaml:"rapidapi_key"`
	RapidAPIHost      string        `yaml:"rapidapi_host"`
	RapidAPIBaseURL   string        `yaml:"rapidapi_base_url"`
	ProviderBookmaker string        `yaml:"provider_bookmaker"`
	ProviderSportID   int           `yaml:"provider_sport_id"`
	ProviderTimeout   time.Duration `yaml:"provider_timeout"`
	Leagues           []string      `yaml:"leagues"`

	// Ingestão contínua
	ScraperInterval  time.Duration `yaml:"scraper_interval"`
	ScraperAutostart bool          `yaml:"scraper_autostart"`
	PruneRetention   time.Duration `yaml:"prune_retention"`

	// Relógio do site e limiares de status
	SiteTimeOffset       time.Duration `yaml:"site_time_offset"`
	StatusScheduledAfter time.Duration `yaml:"status_scheduled_after"`
	StatusFinishedAfter  time.Duration `yaml:"status_finished_after"`
	StatusRollover       time.Duration `yaml:"status_rollover"`

	// WebSocket
	WSPollInterval    time.Duration `yaml:"ws_poll_interval"`
	WSHeartbeatPeriod time.Duration `yaml:"ws_heartbeat_period"`

	// Portas
	APIHost     string `yaml:"api_host"`
	APIPort     string `yaml:"api_port"`     // API REST + /ws
	MetricsPort string `yaml:"metrics_port"` // /metrics e /healthz
}

// Defaults retorna a configuração padrão, sem ler ambiente
func Defaults() Config {
	return Config{
		Env:         "local",
		ServiceName: "apibet",
		LogLevel:    "info",

		DatabaseURL: "sqlite://bet365_virtual.db",

		TopicMatchUpdates:  ctopics.MatchUpdates,
		TopicMatchResults:  ctopics.MatchResults,
		RedisPubSubChannel: ctopics.WSBroadcastChannel,

		RapidAPIHost:      "futebol-virtual-bet3651.p.rapidapi.com",
		RapidAPIBaseURL:   "https://futebol-virtual-bet3651.p.rapidapi.com",
		ProviderBookmaker: "bet365",
		ProviderSportID:   1,
		ProviderTimeout:   30 * time.Second,
		Leagues:           append([]string(nil), DefaultLeagues...),

		ScraperInterval: 5 * time.Minute,
		PruneRetention:  24 * time.Hour,

		SiteTimeOffset:       4 * time.Hour,
		StatusScheduledAfter: 120 * time.Minute,
		StatusFinishedAfter:  30 * time.Minute,
		StatusRollover:       12 * time.Hour,

		WSPollInterval:    5 * time.Second,
		WSHeartbeatPeriod: 30 * time.Second,

		APIHost:     "0.0.0.0",
		APIPort:     "8000",
		MetricsPort: "9095",
	}
}

// Load carrega .env (se existir), o arquivo YAML de CONFIG_FILE (se definido)
// e por fim as variáveis de ambiente, que têm precedência
func Load() (Config, error) {
	_ = godotenv.Load() // .env é opcional

	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// loadFile sobrepõe os campos presentes no YAML
func loadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.Env = getEnv("ENV", cfg.Env)
	cfg.ServiceName = getEnv("SERVICE_NAME", cfg.ServiceName)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.KafkaBrokers = getEnv("KAFKA_BROKERS", cfg.KafkaBrokers)

	cfg.TopicMatchUpdates = getEnv("KAFKA_TOPIC_MATCHES", cfg.TopicMatchUpdates)
	cfg.TopicMatchResults = getEnv("KAFKA_TOPIC_RESULTS", cfg.TopicMatchResults)
	cfg.RedisPubSubChannel = getEnv("REDIS_PUBSUB_CHANNEL", cfg.RedisPubSubChannel)

	cfg.RapidAPIKey = getEnv("RAPIDAPI_KEY", cfg.RapidAPIKey)
	cfg.RapidAPIHost = getEnv("RAPIDAPI_HOST", cfg.RapidAPIHost)
	cfg.RapidAPIBaseURL = getEnv("RAPIDAPI_BASE_URL", cfg.RapidAPIBaseURL)
	cfg.ProviderBookmaker = getEnv("PROVIDER_BOOKMAKER", cfg.ProviderBookmaker)
	cfg.Leagues = getEnvList("LEAGUES", cfg.Leagues)

	cfg.APIHost = getEnv("API_HOST", cfg.APIHost)
	cfg.APIPort = getEnv("API_PORT", cfg.APIPort)
	cfg.MetricsPort = getEnv("METRICS_PORT", cfg.MetricsPort)

	var err error
	if cfg.ProviderSportID, err = getEnvInt("PROVIDER_SPORT_ID", cfg.ProviderSportID); err != nil {
		return err
	}
	if cfg.ScraperAutostart, err = getEnvBool("SCRAPER_AUTOSTART", cfg.ScraperAutostart); err != nil {
		return err
	}

	// intervalos em unidades inteiras (minutos/segundos)
	minutes, err := getEnvInt("SCRAPER_INTERVAL_MINUTES", int(cfg.ScraperInterval/time.Minute))
	if err != nil {
		return err
	}
	cfg.ScraperInterval = time.Duration(minutes) * time.Minute

	poll, err := getEnvInt("WS_POLL_SECONDS", int(cfg.WSPollInterval/time.Second))
	if err != nil {
		return err
	}
	cfg.WSPollInterval = time.Duration(poll) * time.Second

	hb, err := getEnvInt("WS_HEARTBEAT_SECONDS", int(cfg.WSHeartbeatPeriod/time.Second))
	if err != nil {
		return err
	}
	cfg.WSHeartbeatPeriod = time.Duration(hb) * time.Second

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"PROVIDER_TIMEOUT", &cfg.ProviderTimeout},
		{"PRUNE_RETENTION", &cfg.PruneRetention},
		{"SITE_TIME_OFFSET", &cfg.SiteTimeOffset},
		{"STATUS_SCHEDULED_AFTER", &cfg.StatusScheduledAfter},
		{"STATUS_FINISHED_AFTER", &cfg.StatusFinishedAfter},
		{"STATUS_ROLLOVER", &cfg.StatusRollover},
	}
	for _, d := range durations {
		if *d.dst, err = getEnvDuration(d.key, *d.dst); err != nil {
			return err
		}
	}
	return nil
}

// getEnv retorna o valor da variável de ambiente ou o default
func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n, nil
}

func getEnvBool(key string, def bool) (bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def, fmt.Errorf("%s: invalid bool %q", key, v)
	}
	return b, nil
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return def, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}

// getEnvList lê uma lista separada por vírgula, ignorando itens vazios
func getEnvList(key string, def []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(strings.ToLower(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// APIAddr retorna host:porta da API pública
func (c Config) APIAddr() string { return c.APIHost + ":" + c.APIPort }

// Brokers separa KAFKA_BROKERS; nil quando Kafka está desabilitado
func (c Config) Brokers() []string {
	if strings.TrimSpace(c.KafkaBrokers) == "" {
		return nil
	}
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
