package mbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	mboxlib "github.com/emersion/go-mbox"

	"github.com/dhcgn/llm-assist/mailbox"
)

type Options struct {
	Path string
	// Open overrides how the file is opened; tests use it to serve embedded data.
	Open func() (io.ReadCloser, error)
}

// Dialer serves a local mbox file as a read-only mailbox. Messages keep file
// order, so the last message in the file is the most recent one.
type Dialer struct {
	opts   Options
	logger *slog.Logger
}

var _ mailbox.Dialer = (*Dialer)(nil)

func NewDialer(opts Options, logger *slog.Logger) (*Dialer, error) {
	opts.Path = strings.TrimSpace(opts.Path)
	if opts.Path == "" && opts.Open == nil {
		return nil, fmt.Errorf("mbox path is empty")
	}
	if opts.Open == nil {
		path := opts.Path
		opts.Open = func() (io.ReadCloser, error) {
			return os.Open(path)
		}
	}
	return &Dialer{opts: opts, logger: logger}, nil
}

// Dial reads the whole file into memory. Unreadable messages are skipped.
func (d *Dialer) Dial(ctx context.Context) (mailbox.Session, error) {
	file, err := d.opts.Open()
	if err != nil {
		return nil, fmt.Errorf("open mbox: %w", err)
	}
	defer file.Close()

	reader := mboxlib.NewReader(file)
	var messages [][]byte
	for idx := 0; ; idx++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		msgReader, err := reader.NextMessage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("mbox message %d: %w", idx, err)
		}

		raw, err := io.ReadAll(msgReader)
		if err != nil {
			if d.logger != nil {
				d.logger.Warn("skipping unreadable mbox message", "path", d.opts.Path, "index", idx, "err", err)
			}
			continue
		}
		messages = append(messages, raw)
	}

	if d.logger != nil {
		d.logger.Debug("mbox loaded", "path", d.opts.Path, "messages", len(messages))
	}
	return &session{messages: messages}, nil
}

type session struct {
	messages [][]byte
}

func (s *session) SeqNums(context.Context) ([]uint32, error) {
	nums := make([]uint32, len(s.messages))
	for i := range nums {
		nums[i] = uint32(i + 1)
	}
	return nums, nil
}

func (s *session) Fetch(_ context.Context, seqNums []uint32) (map[uint32][]byte, error) {
	out := make(map[uint32][]byte, len(seqNums))
	for _, num := range seqNums {
		if num == 0 || int(num) > len(s.messages) {
			continue
		}
		out[num] = s.messages[num-1]
	}
	return out, nil
}

func (s *session) Close() error {
	return nil
}
