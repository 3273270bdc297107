package mailbox

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dhcgn/llm-assist/filter"
	"github.com/dhcgn/llm-assist/model"
)

// DefaultBatchSize bounds how many messages a single fetch round trip requests during a search.
const DefaultBatchSize = 50

// Session is one authenticated connection with the inbox selected.
type Session interface {
	// SeqNums lists every message sequence number in arrival order.
	SeqNums(ctx context.Context) ([]uint32, error)
	// Fetch returns the raw message bytes keyed by sequence number.
	Fetch(ctx context.Context, seqNums []uint32) (map[uint32][]byte, error)
	Close() error
}

// Dialer opens a fresh Session. Every Client operation dials once and closes before returning.
type Dialer interface {
	Dial(ctx context.Context) (Session, error)
}

type Options struct {
	Preview   model.Truncation
	BatchSize int
}

// Client retrieves and filters mail through a Dialer.
type Client struct {
	dialer Dialer
	opts   Options
	logger *slog.Logger
}

func New(dialer Dialer, opts Options, logger *slog.Logger) (*Client, error) {
	if dialer == nil {
		return nil, fmt.Errorf("mailbox dialer must not be nil")
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	return &Client{dialer: dialer, opts: opts, logger: logger}, nil
}

// FetchRecent returns the last n messages of the inbox, most recent first.
// It validates n before any network call.
func (c *Client) FetchRecent(ctx context.Context, n int) ([]model.Message, error) {
	if n <= 0 {
		return nil, model.NewError(model.KindValidation, "fetch recent", fmt.Errorf("%w: got %d", model.ErrNonPositiveCount, n))
	}

	session, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer c.close(session)

	seqNums, err := session.SeqNums(ctx)
	if err != nil {
		return nil, connectionError("list messages", err)
	}
	if len(seqNums) > n {
		seqNums = seqNums[len(seqNums)-n:]
	}
	if len(seqNums) == 0 {
		return nil, nil
	}

	raw, err := session.Fetch(ctx, seqNums)
	if err != nil {
		return nil, connectionError("fetch messages", err)
	}

	msgs := make([]model.Message, 0, len(seqNums))
	for i := len(seqNums) - 1; i >= 0; i-- {
		data, ok := raw[seqNums[i]]
		if !ok {
			if c.logger != nil {
				c.logger.Warn("message missing from fetch response", "seq", seqNums[i])
			}
			continue
		}
		msgs = append(msgs, Decode(seqNums[i], data, false))
	}

	if c.logger != nil {
		c.logger.Debug("fetched recent messages", "requested", n, "returned", len(msgs))
	}
	return msgs, nil
}

// SearchByKeyword scans every message of the inbox, most recent first, and
// returns those whose subject or sender contains keyword case-insensitively.
// Bodies of matches are truncated to the preview policy.
func (c *Client) SearchByKeyword(ctx context.Context, keyword string) ([]model.Message, error) {
	f, err := filter.New(filter.Options{Keyword: keyword})
	if err != nil {
		return nil, err
	}

	session, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer c.close(session)

	seqNums, err := session.SeqNums(ctx)
	if err != nil {
		return nil, connectionError("list messages", err)
	}

	newestFirst := make([]uint32, len(seqNums))
	for i, num := range seqNums {
		newestFirst[len(seqNums)-1-i] = num
	}

	var matched []model.Message
	for start := 0; start < len(newestFirst); start += c.opts.BatchSize {
		end := min(start+c.opts.BatchSize, len(newestFirst))
		batch := newestFirst[start:end]

		raw, err := session.Fetch(ctx, batch)
		if err != nil {
			return nil, connectionError("fetch messages", err)
		}

		for _, num := range batch {
			data, ok := raw[num]
			if !ok {
				continue
			}
			msg := Decode(num, data, true)
			if !f.Matches(msg) {
				continue
			}
			msg.Body = c.opts.Preview.Apply(msg.Body)
			matched = append(matched, msg)
		}
	}

	if c.logger != nil {
		c.logger.Debug("keyword search finished", "keyword", f.Keyword(), "scanned", len(seqNums), "matched", len(matched))
	}
	return matched, nil
}

func (c *Client) dial(ctx context.Context) (Session, error) {
	session, err := c.dialer.Dial(ctx)
	if err != nil {
		return nil, connectionError("connect", err)
	}
	return session, nil
}

func (c *Client) close(session Session) {
	if err := session.Close(); err != nil && c.logger != nil {
		c.logger.Debug("mailbox session closed", "err", err)
	}
}

func connectionError(op string, err error) error {
	if model.KindOf(err) != model.KindUnknown {
		return err
	}
	return model.NewError(model.KindConnection, op, err)
}
