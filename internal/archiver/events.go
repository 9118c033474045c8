package archiver

import (
	"fmt"

	"github.com/rizkirmdhn/vistopia/internal/common/config"
	"github.com/rizkirmdhn/vistopia/internal/common/logger"
	"github.com/rizkirmdhn/vistopia/internal/common/messaging"
	"github.com/rizkirmdhn/vistopia/pkg/models"
	"github.com/sirupsen/logrus"
)

// EventPublisher receives the status of every episode and of the finished show
type EventPublisher interface {
	PublishEpisode(ev models.EpisodeLog) error
	PublishShow(ev models.ShowLog) error
}

// MessagingPublisher sends archive events to the RabbitMQ exchange
type MessagingPublisher struct {
	client messaging.Client
	cfg    *config.RabbitMQConfig
}

// NewMessagingPublisher declares the log queue and binds it to both event routing keys
func NewMessagingPublisher(client messaging.Client, cfg *config.RabbitMQConfig) (*MessagingPublisher, error) {
	p := &MessagingPublisher{client: client, cfg: cfg}
	if err := p.setupMessaging(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *MessagingPublisher) setupMessaging() error {
	if p.cfg.Queue == "" {
		return nil
	}

	if err := p.client.DeclareQueue(p.cfg.Queue); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", p.cfg.Queue, err)
	}

	for _, key := range []string{config.RoutingLogEpisode, config.RoutingLogShow} {
		if err := p.client.BindQueue(p.cfg.Queue, p.cfg.Exchange, key); err != nil {
			return fmt.Errorf("failed to bind queue %s to exchange %s with key %s: %w", p.cfg.Queue, p.cfg.Exchange, key, err)
		}
	}
	return nil
}

func (p *MessagingPublisher) PublishEpisode(ev models.EpisodeLog) error {
	return p.client.PublishJSON(p.cfg.Exchange, config.RoutingLogEpisode, ev)
}

func (p *MessagingPublisher) PublishShow(ev models.ShowLog) error {
	return p.client.PublishJSON(p.cfg.Exchange, config.RoutingLogShow, ev)
}

// LogPublisher writes events to the logger when no broker is configured
type LogPublisher struct {
	log *logger.ComponentLogger
}

func NewLogPublisher(log *logrus.Logger) *LogPublisher {
	return &LogPublisher{log: logger.NewComponentLogger(log, "events")}
}

func (p *LogPublisher) PublishEpisode(ev models.EpisodeLog) error {
	p.log.WithFields(logrus.Fields{
		"run_id":  ev.RunID,
		"show":    ev.Show,
		"episode": ev.SortNumber,
		"status":  ev.Status,
	}).Debug("Episode event")
	return nil
}

func (p *LogPublisher) PublishShow(ev models.ShowLog) error {
	p.log.WithFields(logrus.Fields{
		"run_id":    ev.RunID,
		"show":      ev.Show,
		"completed": ev.Stats.Completed,
		"failed":    ev.Stats.Failed,
		"skipped":   ev.Stats.Skipped,
	}).Debug("Show event")
	return nil
}
