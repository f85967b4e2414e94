package config

import (
	"strconv"

	agollo "github.com/apolloconfig/agollo/v4"
	apconf "github.com/apolloconfig/agollo/v4/env/config"
	"github.com/apolloconfig/agollo/v4/storage"
)

// overrideFromApollo starts Apollo client and overrides config values if present.
// Returns a closer to stop the Apollo client.
func overrideFromApollo(cfg *Config, store *Store) (func(), error) {
	if cfg.Apollo.Addrs == "" || cfg.Apollo.AppID == "" {
		configLogger.Warn("apollo: missing APOLLO_ADDRS or APOLLO_APP_ID; skip")
		return nil, nil
	}

	appCfg := apolloAppConfig(cfg)
	ns := appCfg.NamespaceName

	client, err := agollo.StartWithConfig(func() (*apconf.AppConfig, error) { return appCfg, nil })
	if err != nil {
		return nil, err
	}

	applyOverrides(cacheGetter(client, ns), cfg)
	_ = store.UpdateValidated(cfg, map[string]bool{"apollo.init": true})

	client.AddChangeListener(&changeListener{ns: ns, client: client, store: store})

	// agollo v4 没有公开 Stop 接口，这里保留为空
	return func() {}, nil
}

// apolloAppConfig maps the APOLLO_* settings onto the agollo client config.
// IP carries the comma separated config server list.
func apolloAppConfig(cfg *Config) *apconf.AppConfig {
	ns := cfg.Apollo.Namespace
	if ns == "" {
		ns = "application"
	}
	return &apconf.AppConfig{
		AppID:         cfg.Apollo.AppID,
		Cluster:       cfg.Apollo.Cluster,
		NamespaceName: ns,
		IP:            cfg.Apollo.Addrs,
		Secret:        cfg.Apollo.AccessKey,
	}
}

// getter looks a key up in a remote namespace.
type getter func(key string) (string, bool)

func cacheGetter(client agollo.Client, namespace string) getter {
	return func(key string) (string, bool) {
		conf := client.GetConfig(namespace)
		if conf == nil {
			return "", false
		}
		s := conf.GetValue(key)
		return s, s != ""
	}
}

// applyOverrides copies every non-empty remote key onto cfg.
func applyOverrides(get getter, cfg *Config) {
	str := func(key string, dst *string) {
		if s, ok := get(key); ok && s != "" {
			*dst = s
		}
	}
	num := func(key string, dst *int) {
		if s, ok := get(key); ok && s != "" {
			if n, err := strconv.Atoi(s); err == nil {
				*dst = n
			}
		}
	}

	str("app.env", &cfg.AppEnv)
	str("server.addr", &cfg.Server.Addr)
	str("log.level", &cfg.Log.Level)
	str("log.format", &cfg.Log.Format)
	str("db.url", &cfg.DB.URL)
	num("db.max_open", &cfg.DB.MaxOpenConns)
	num("db.max_idle", &cfg.DB.MaxIdleConns)
	str("storage.public_base", &cfg.Storage.PublicBase)
	str("redis.addr", &cfg.Redis.Addr)
	num("redis.db", &cfg.Redis.DB)
	num("cache.ttl_sec", &cfg.Redis.TTLSec)
	str("mq.url", &cfg.MQ.URL)
	str("es.addrs", &cfg.ES.Addrs)
}

type changeListener struct {
	ns     string
	client agollo.Client
	store  *Store
}

func (c *changeListener) OnChange(e *storage.ChangeEvent) {
	configLogger.Sugar().Infof("apollo change: namespace=%s, changes=%d", e.Namespace, len(e.Changes))
	next := cloneConfig(c.store.Get())
	applyOverrides(cacheGetter(c.client, c.ns), next)
	changed := map[string]bool{}
	for k := range e.Changes {
		changed[k] = true
	}
	_ = c.store.UpdateValidated(next, changed)
}

func (c *changeListener) OnNewestChange(e *storage.FullChangeEvent) {
	configLogger.Sugar().Debugf("apollo newest change: namespace=%s, keys=%d", e.Namespace, len(e.Changes))
}
