package imap

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	imapv2 "github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/dhcgn/llm-assist/mailbox"
	"github.com/dhcgn/llm-assist/model"
)

type Options struct {
	Host               string
	Port               int
	Username           string
	Password           string
	UseTLS             bool
	InsecureSkipVerify bool
	Mailbox            string
}

// Dialer opens read-only IMAP sessions on a single mailbox.
type Dialer struct {
	opts   Options
	logger *slog.Logger
}

var _ mailbox.Dialer = (*Dialer)(nil)

func NewDialer(opts Options, logger *slog.Logger) (*Dialer, error) {
	if opts.Host == "" {
		return nil, fmt.Errorf("imap host is empty")
	}
	if opts.Port <= 0 {
		return nil, fmt.Errorf("imap port must be positive")
	}
	return &Dialer{opts: opts, logger: logger}, nil
}

func (d *Dialer) mailboxName() string {
	if d.opts.Mailbox == "" {
		return "INBOX"
	}
	return d.opts.Mailbox
}

// Dial connects, authenticates and selects the mailbox read-only.
func (d *Dialer) Dial(ctx context.Context) (mailbox.Session, error) {
	if d.opts.Username == "" || d.opts.Password == "" {
		return nil, model.NewError(model.KindConfiguration, "imap login", model.ErrMissingCredential)
	}

	address := net.JoinHostPort(d.opts.Host, strconv.Itoa(d.opts.Port))
	options := &imapclient.Options{}
	if d.opts.UseTLS {
		options.TLSConfig = &tls.Config{
			ServerName:         d.opts.Host,
			InsecureSkipVerify: d.opts.InsecureSkipVerify,
		}
	}

	var (
		client *imapclient.Client
		err    error
	)
	if d.opts.UseTLS {
		client, err = imapclient.DialTLS(address, options)
	} else {
		client, err = imapclient.DialInsecure(address, options)
	}
	if err != nil {
		return nil, fmt.Errorf("dial imap %s: %w", address, err)
	}

	stopClose := context.AfterFunc(ctx, func() {
		_ = client.Close()
	})

	if err := client.Login(d.opts.Username, d.opts.Password).Wait(); err != nil {
		stopClose()
		_ = client.Close()
		return nil, fmt.Errorf("imap login failed: %w", err)
	}

	selected, err := client.Select(d.mailboxName(), &imapv2.SelectOptions{ReadOnly: true}).Wait()
	if err != nil {
		stopClose()
		_ = client.Logout().Wait()
		_ = client.Close()
		return nil, fmt.Errorf("select mailbox %s: %w", d.mailboxName(), err)
	}

	if d.logger != nil {
		d.logger.Debug("imap connection established", "address", address, "user", d.opts.Username, "mailbox", d.mailboxName(), "messages", selected.NumMessages, "tls", d.opts.UseTLS)
	}

	return &session{
		client:    client,
		count:     selected.NumMessages,
		stopClose: stopClose,
		logger:    d.logger,
	}, nil
}

type session struct {
	client    *imapclient.Client
	count     uint32
	stopClose func() bool
	logger    *slog.Logger
}

func (s *session) SeqNums(context.Context) ([]uint32, error) {
	nums := make([]uint32, s.count)
	for i := range nums {
		nums[i] = uint32(i + 1)
	}
	return nums, nil
}

// Fetch peeks at the full RFC 5322 text so \Seen flags stay untouched.
func (s *session) Fetch(ctx context.Context, seqNums []uint32) (map[uint32][]byte, error) {
	out := make(map[uint32][]byte, len(seqNums))
	if len(seqNums) == 0 {
		return out, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	section := &imapv2.FetchItemBodySection{Peek: true}
	fetchOptions := &imapv2.FetchOptions{BodySection: []*imapv2.FetchItemBodySection{section}}

	msgs, err := s.client.Fetch(imapv2.SeqSetNum(seqNums...), fetchOptions).Collect()
	if err != nil {
		return nil, fmt.Errorf("imap fetch: %w", err)
	}
	for _, msg := range msgs {
		body := msg.FindBodySection(section)
		if body == nil {
			continue
		}
		out[msg.SeqNum] = body
	}
	return out, nil
}

func (s *session) Close() error {
	s.stopClose()
	if err := s.client.Logout().Wait(); err != nil && s.logger != nil {
		s.logger.Warn("imap logout failed", "err", err)
	}
	return s.client.Close()
}
