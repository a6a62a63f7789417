package redis

import (
	"context"
	"strconv"
)

// LeagueChangesChannel carries the id of every league whose ledger changed
const LeagueChangesChannel = "league:changes"

// LeagueChanged publishes a league change to every API instance. Failures are logged.
func (c *Client) LeagueChanged(ctx context.Context, leagueID int) {
	if err := c.Publish(ctx, LeagueChangesChannel, strconv.Itoa(leagueID)).Err(); err != nil {
		c.logger.Warn().Err(err).Int("league_id", leagueID).Msg("failed to publish league change")
	}
}

// SubscribeLeagueChanges calls handle for each published league change until ctx is done
func (c *Client) SubscribeLeagueChanges(ctx context.Context, handle func(ctx context.Context, leagueID int)) error {
	sub := c.Subscribe(ctx, LeagueChangesChannel)
	defer sub.Close()

	// Wait for the subscription to be confirmed
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	c.logger.Info().Str("channel", LeagueChangesChannel).Msg("subscribed")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			leagueID, err := strconv.Atoi(msg.Payload)
			if err != nil {
				c.logger.Warn().Str("payload", msg.Payload).Msg("ignoring malformed league change")
				continue
			}
			handle(ctx, leagueID)
		}
	}
}
