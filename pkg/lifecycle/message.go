package lifecycle

import (
	"context"
)

// MessageClearCache requests deletion of every cache partition.
const MessageClearCache = "CLEAR_CACHE"

// Message is a typed control channel request from the foreground application.
type Message struct {
	Type string `json:"type"`
}

// HandleMessage dispatches a control channel message. Unknown types are
// ignored. The transport is fire-and-forget (no acknowledgment is sent
// back); the returned error exists for direct callers and tests.
//
// CLEAR_CACHE deletes every partition under the configured prefix. The
// favorites store is separate and is never touched.
func (c *Controller) HandleMessage(ctx context.Context, msg Message) error {
	switch msg.Type {
	case MessageClearCache:
		c.logger.Info().Msg("Clearing all cache partitions")
		if err := c.cache.DeleteAll(ctx); err != nil {
			c.logger.Error().Err(err).Msg("Cache clear failed")
			return err
		}
		return nil
	default:
		c.logger.Debug().Str("type", msg.Type).Msg("Ignoring unknown control message")
		return nil
	}
}
