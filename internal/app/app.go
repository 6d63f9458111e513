// Package app wires configuration into the running services.
package app

import (
	"context"
	"errors"
	"time"

	"ideanest-backend/internal/application/documents"
	"ideanest-backend/internal/application/health"
	"ideanest-backend/internal/application/investments"
	"ideanest-backend/internal/application/negotiation"
	"ideanest-backend/internal/application/notifications"
	"ideanest-backend/internal/application/profiles"
	"ideanest-backend/internal/application/projects"
	"ideanest-backend/internal/application/settlement"
	"ideanest-backend/internal/application/sweeper"
	"ideanest-backend/internal/config"
	"ideanest-backend/internal/infrastructure/chain"
	"ideanest-backend/internal/infrastructure/database"
	"ideanest-backend/internal/infrastructure/locks"
	"ideanest-backend/internal/infrastructure/metrics"
	"ideanest-backend/internal/infrastructure/storage"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const connectTimeout = 20 * time.Second

// Container holds every long-lived dependency of the API process.
type Container struct {
	Config  *config.Config
	DB      *gorm.DB
	Rdb     *redis.Client
	Metrics *metrics.Registry
	Objects storage.ObjectStore
	Wallet  *settlement.Adapter

	Profiles    *profiles.Service
	Projects    *projects.Service
	Investments *investments.Store
	Documents   *documents.Service
	Negotiation *negotiation.Service
	Sweeper     *sweeper.Sweeper
	Health      *health.Checker

	closers []func()
}

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Build opens the database, Redis, object store, wallet provider and notifiers
// described by cfg. Optional integrations (wallet, NATS, Brevo) are skipped with
// a log line when unconfigured or unreachable.
func Build(ctx context.Context, cfg *config.Config) (*Container, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("database url is not set for APP_ENV=" + cfg.Env)
	}
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)

	objects, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	c := &Container{Config: cfg, DB: db, Rdb: rdb, Metrics: metrics.New(), Objects: objects}
	c.closers = append(c.closers, func() { _ = rdb.Close() })
	if sqlDB, err := db.DB(); err == nil {
		c.closers = append(c.closers, func() { _ = sqlDB.Close() })
	}

	if err := c.connectWallet(ctx); err != nil {
		c.Close()
		return nil, err
	}
	c.wire(c.notifier())
	return c, nil
}

// New wires services over already-open stores. Tests and the ops CLI use it directly.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, objects storage.ObjectStore, wallet *settlement.Adapter, notifier notifications.Notifier) *Container {
	c := &Container{Config: cfg, DB: db, Rdb: rdb, Metrics: metrics.New(), Objects: objects, Wallet: wallet}
	c.wire(notifier)
	return c
}

func (c *Container) wire(notifier notifications.Notifier) {
	c.Profiles = &profiles.Service{DB: c.DB, Rdb: c.Rdb}
	c.Projects = &projects.Service{DB: c.DB}
	c.Investments = &investments.Store{DB: c.DB}
	c.Documents = &documents.Service{Store: c.Objects, Metrics: c.Metrics}
	c.Negotiation = &negotiation.Service{
		Store:     c.Investments,
		Projects:  c.Projects,
		Users:     c.Profiles,
		Documents: c.Documents,
		Notifier:  notifier,
		Metrics:   c.Metrics,
	}
	if c.Wallet != nil {
		c.Negotiation.Chain = c.Wallet
	}
	if c.Rdb != nil {
		c.Negotiation.Locks = &locks.Redis{Client: c.Rdb}
	}
	c.Sweeper = &sweeper.Sweeper{
		Store: c.Objects,
		Keys:  c.Investments,
		Grace: c.Config.DocumentSweepGrace,
	}
	c.Health = &health.Checker{
		Rdb:         c.Rdb,
		DB:          &gormDBPinger{db: c.DB},
		ChainRPCURL: c.Config.Chain.PublicRPCURL,
	}
	if c.Wallet != nil {
		c.Health.Wallet = c.Wallet
	}
}

// connectWallet dials the wallet provider behind a circuit breaker and runs the
// connect flow once. A missing or unreachable wallet leaves the adapter
// disconnected; chain routes then answer with a wallet-not-connected error.
func (c *Container) connectWallet(ctx context.Context) error {
	cc := c.Config.Chain
	var provider chain.Provider
	if cc.WalletRPCURL != "" {
		client, err := chain.Dial(ctx, cc.WalletRPCURL)
		if err != nil {
			log.Warn().Err(err).Msg("wallet provider unreachable; settlement disabled")
		} else {
			c.closers = append(c.closers, client.Close)
			provider = chain.NewBreaker("wallet", client)
		}
	}
	wallet, err := settlement.New(provider, settlement.Config{
		ChainID:         cc.ChainID,
		ChainName:       cc.ChainName,
		RPCURL:          cc.PublicRPCURL,
		ExplorerURL:     cc.ExplorerURL,
		ContractAddress: cc.ContractAddress,
		PollInterval:    cc.PollInterval,
	}, c.Metrics)
	if err != nil {
		return err
	}
	c.Wallet = wallet

	cctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if wallet.Connect(cctx) {
		st := wallet.Status()
		log.Info().Str("account", st.Account).Int64("chain_id", st.ChainID).Msg("wallet connected")
	}
	return nil
}

func (c *Container) notifier() notifications.Notifier {
	var fanout notifications.Fanout
	if url := c.Config.NatsURL; url != "" {
		nc, err := notifications.ConnectNATS(url)
		if err != nil {
			log.Warn().Err(err).Msg("nats unavailable; investment events will not be published")
		} else {
			c.closers = append(c.closers, func() { _ = nc.Drain() })
			fanout = append(fanout, &notifications.Publisher{Conn: nc})
		}
	}
	if key := c.Config.SendinblueAPIKey; key != "" {
		fanout = append(fanout, &notifications.BrevoClient{APIKey: key, MailFrom: c.Config.MailFrom})
	}
	if len(fanout) == 0 {
		return notifications.Nop{}
	}
	return fanout
}

// Close stops the sweeper and releases connections in reverse order of opening.
func (c *Container) Close() {
	if c.Sweeper != nil {
		c.Sweeper.Stop()
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
