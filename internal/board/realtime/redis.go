package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RedisFeed subscribes to a pub/sub channel fed by RegisterPublisher.
type RedisFeed struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

func NewRedisFeed(client *redis.Client, channel string, logger *zap.Logger) *RedisFeed {
	return &RedisFeed{client: client, channel: channel, logger: logger.Named("realtime.redis")}
}

// Subscribe forwards every message on the channel to handle. go-redis
// reconnects the pub/sub connection on its own.
func (f *RedisFeed) Subscribe(ctx context.Context, handle Handler) (Subscription, error) {
	pubsub := f.client.Subscribe(ctx, f.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", f.channel, err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	sub := newSubscription(cancel, pubsub.Close)
	messages := pubsub.Channel()
	f.logger.Info("Listening for changes", zap.String("channel", f.channel))

	go func() {
		defer close(sub.done)
		for {
			select {
			case <-runCtx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				if isBoardTable(msg.Payload) {
					handle(Change{Table: msg.Payload, At: time.Now()})
				}
			}
		}
	}()

	return sub, nil
}

// RegisterPublisher hooks gorm so that every successful write to a board
// table publishes the table name on channel.
func RegisterPublisher(db *gorm.DB, client *redis.Client, channel string, logger *zap.Logger) error {
	p := &publisher{client: client, channel: channel, logger: logger.Named("realtime.publisher")}
	cb := db.Callback()
	if err := cb.Create().After("gorm:create").Register("board:publish_create", p.publish); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("board:publish_update", p.publish); err != nil {
		return err
	}
	return cb.Delete().After("gorm:delete").Register("board:publish_delete", p.publish)
}

type publisher struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

func (p *publisher) publish(tx *gorm.DB) {
	if tx.Error != nil || tx.Statement == nil || !isBoardTable(tx.Statement.Table) {
		return
	}
	ctx := tx.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if err := p.client.Publish(ctx, p.channel, tx.Statement.Table).Err(); err != nil {
		p.logger.Warn("Publish change failed", zap.String("table", tx.Statement.Table), zap.Error(err))
	}
}
