package realtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const (
	minReconnectDelay = time.Second
	maxReconnectDelay = 30 * time.Second
)

// PostgresFeed listens on the channel the board triggers notify.
type PostgresFeed struct {
	dsn     string
	channel string
	logger  *zap.Logger
}

func NewPostgresFeed(dsn, channel string, logger *zap.Logger) *PostgresFeed {
	return &PostgresFeed{dsn: dsn, channel: channel, logger: logger.Named("realtime.pg")}
}

func (f *PostgresFeed) listen(ctx context.Context) (*pgx.Conn, error) {
	conn, err := pgx.Connect(ctx, f.dsn)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{f.channel}.Sanitize()); err != nil {
		conn.Close(context.Background())
		return nil, fmt.Errorf("listen %s: %w", f.channel, err)
	}
	return conn, nil
}

// Subscribe opens a dedicated connection and calls handle for every
// notification until the subscription is closed. Connection losses are
// retried; after a reconnect handle receives a Change with an empty Table.
func (f *PostgresFeed) Subscribe(ctx context.Context, handle Handler) (Subscription, error) {
	conn, err := f.listen(ctx)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	sub := newSubscription(cancel, nil)
	f.logger.Info("Listening for changes", zap.String("channel", f.channel))

	go func() {
		defer close(sub.done)
		delay := minReconnectDelay
		for {
			n, err := conn.WaitForNotification(runCtx)
			if err == nil {
				delay = minReconnectDelay
				if isBoardTable(n.Payload) {
					handle(Change{Table: n.Payload, At: time.Now()})
				}
				continue
			}

			conn.Close(context.Background())
			if runCtx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			f.logger.Warn("Change feed connection lost", zap.Error(err))

			for {
				if !sleepCtx(runCtx, delay) {
					return
				}
				conn, err = f.listen(runCtx)
				if err == nil {
					break
				}
				f.logger.Warn("Change feed reconnect failed", zap.Duration("retry_in", delay), zap.Error(err))
				delay *= 2
				if delay > maxReconnectDelay {
					delay = maxReconnectDelay
				}
			}
			f.logger.Info("Change feed resumed", zap.String("channel", f.channel))
			handle(Change{At: time.Now()})
		}
	}()

	return sub, nil
}
