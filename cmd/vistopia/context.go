package main

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rizkirmdhn/vistopia/internal/archiver"
	"github.com/rizkirmdhn/vistopia/internal/catalog"
	"github.com/rizkirmdhn/vistopia/internal/common/config"
	"github.com/rizkirmdhn/vistopia/internal/common/logger"
	"github.com/rizkirmdhn/vistopia/internal/common/messaging"
	"github.com/sirupsen/logrus"
)

type commandContext struct {
	configFlag  *string
	verboseFlag *bool
	runID       string

	configOnce sync.Once
	config     *config.Config
	configErr  error
	log        *logrus.Logger
}

func newCommandContext(configFlag *string, verboseFlag *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		verboseFlag: verboseFlag,
		runID:       uuid.NewString(),
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.Validate(); err != nil {
			c.configErr = err
			return
		}
		if c.verboseFlag != nil && *c.verboseFlag {
			cfg.App.LogLevel = int(logrus.DebugLevel)
		}
		c.config = cfg
		c.log = logger.New(cfg)

		c.log.WithFields(logrus.Fields{
			"component": "main",
			"run_id":    c.runID,
			"config":    path,
		}).Debug("Configuration loaded")
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() *logrus.Logger {
	if _, err := c.ensureConfig(); err != nil || c.log == nil {
		log := logrus.New()
		log.SetLevel(logrus.WarnLevel)
		return log
	}
	return c.log
}

func (c *commandContext) catalogClient() (*catalog.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, errors.New("configuration unavailable")
	}
	return catalog.NewClient(cfg.GetAPIConfig(), c.log)
}

// eventPublisher connects to RabbitMQ when a URL is configured and falls back to the log otherwise
func (c *commandContext) eventPublisher() (archiver.EventPublisher, func()) {
	cfg := c.config
	log := c.logger()
	noop := func() {}

	if cfg == nil || cfg.RabbitMq.URL == "" {
		return archiver.NewLogPublisher(log), noop
	}

	client, err := messaging.NewRabbitMQClient(cfg.GetRabbitMQConfig(), log)
	if err != nil {
		log.WithFields(logrus.Fields{
			"component": "main",
			"error":     err,
		}).Warn("RabbitMQ unavailable, events are only logged")
		return archiver.NewLogPublisher(log), noop
	}

	publisher, err := archiver.NewMessagingPublisher(client, cfg.GetRabbitMQConfig())
	if err != nil {
		client.Close()
		log.WithFields(logrus.Fields{
			"component": "main",
			"error":     err,
		}).Warn("RabbitMQ setup failed, events are only logged")
		return archiver.NewLogPublisher(log), noop
	}

	return publisher, func() { client.Close() }
}
