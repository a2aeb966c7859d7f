package sse

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrSlowConsumer is returned when a client's outbound buffer is full.
	// The message is dropped rather than blocking the broadcast path; the
	// client catches up on the next update.
	ErrSlowConsumer = errors.New("sse: outbound buffer full")
	// ErrClientClosed is returned when emitting to a closed client.
	ErrClientClosed = errors.New("sse: client closed")
)

const outboundBuffer = 16

// Client is the channel-backed Sink serving one open stream.
type Client struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Outbound chan Message

	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(userID uuid.UUID) *Client {
	return &Client{
		ID:       uuid.New(),
		UserID:   userID,
		Outbound: make(chan Message, outboundBuffer),
		done:     make(chan struct{}),
	}
}

// Emit queues msg for delivery without ever blocking the caller.
func (c *Client) Emit(msg Message) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}
	select {
	case c.Outbound <- msg:
		return nil
	case <-c.done:
		return ErrClientClosed
	default:
		return ErrSlowConsumer
	}
}

// Close releases the client. The outbound channel is left open so a
// concurrent Emit can never hit a closed channel.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
