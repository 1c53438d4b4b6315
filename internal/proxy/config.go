package proxy

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/config"
)

// Section is the section of config file that configures proxy.
const Section = "proxy"

// Config file options.
const (
	OptListen                 = "listen"
	OptUpstream               = "upstream"
	OptName                   = "name"
	OptTTLSeconds             = "ttl_seconds"
	OptStore                  = "store"
	OptRedisAddr              = "redis_addr"
	OptMemcachedAddr          = "memcached_addr"
	OptWarmKeys               = "warm_keys"
	OptWarmSchedule           = "warm_schedule"
	OptUpstreamTimeoutSeconds = "upstream_timeout_seconds"
)

// Store kinds.
const (
	StoreMemory    = "memory"
	StoreRedis     = "redis"
	StoreMemcached = "memcached"
	StoreGoCache   = "gocache"
)

// Config describes proxy instance.
type Config struct {
	Listen          string
	Upstream        string
	Name            string
	TTL             time.Duration
	Store           string
	RedisAddr       string
	MemcachedAddr   string
	WarmKeys        []string
	WarmSchedule    string
	UpstreamTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}

	if c.Name == "" {
		c.Name = "proxy"
	}

	if c.Store == "" {
		c.Store = StoreMemory
	}

	if c.WarmSchedule == "" {
		c.WarmSchedule = "@every 1m"
	}

	if c.UpstreamTimeout == 0 {
		c.UpstreamTimeout = 10 * time.Second
	}
}

func (c Config) validate() error {
	if c.Upstream == "" {
		return fmt.Errorf("%s: %s is required", Section, OptUpstream)
	}

	switch c.Store {
	case StoreMemory, StoreGoCache:
	case StoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("%s: %s is required for %s store", Section, OptRedisAddr, c.Store)
		}
	case StoreMemcached:
		if c.MemcachedAddr == "" {
			return fmt.Errorf("%s: %s is required for %s store", Section, OptMemcachedAddr, c.Store)
		}
	default:
		return fmt.Errorf("%s: unknown %s %q", Section, OptStore, c.Store)
	}

	return nil
}

// LoadConfig reads ini-style config file.
//
// Example:
//
//	[proxy]
//	listen: :8080
//	upstream: http://api.local/items
//	ttl_seconds: 30
//	store: redis
//	redis_addr: localhost:6379
//	warm_keys: home,top
func LoadConfig(path string) (Config, error) {
	c, err := config.ReadDefault(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	return parseConfig(c)
}

func parseConfig(c *config.Config) (Config, error) {
	var (
		cfg Config
		err error
	)

	str := func(opt string) string {
		if err != nil || !c.HasOption(Section, opt) {
			return ""
		}

		var s string

		s, err = c.String(Section, opt)

		return strings.TrimSpace(s)
	}

	seconds := func(opt string) time.Duration {
		if err != nil || !c.HasOption(Section, opt) {
			return 0
		}

		var f float64

		f, err = c.Float(Section, opt)

		return time.Duration(f * float64(time.Second))
	}

	cfg.Listen = str(OptListen)
	cfg.Upstream = strings.TrimRight(str(OptUpstream), "/")
	cfg.Name = str(OptName)
	cfg.TTL = seconds(OptTTLSeconds)
	cfg.Store = str(OptStore)
	cfg.RedisAddr = str(OptRedisAddr)
	cfg.MemcachedAddr = str(OptMemcachedAddr)
	cfg.WarmSchedule = str(OptWarmSchedule)
	cfg.UpstreamTimeout = seconds(OptUpstreamTimeoutSeconds)

	for _, k := range strings.Split(str(OptWarmKeys), ",") {
		if k = strings.TrimSpace(k); k != "" {
			cfg.WarmKeys = append(cfg.WarmKeys, k)
		}
	}

	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", Section, err)
	}

	cfg.applyDefaults()

	return cfg, cfg.validate()
}
