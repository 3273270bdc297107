package smtp

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	gosmtp "github.com/emersion/go-smtp"

	"github.com/dhcgn/llm-assist/model"
)

// DefaultSubject is used by the chat tool for every outgoing message.
const DefaultSubject = "Message from Your AI Chatbot"

type Options struct {
	Host               string
	Port               int
	Username           string
	Password           string
	From               string
	InsecureSkipVerify bool
}

// client is the subset of *gosmtp.Client a Sender drives.
type client interface {
	Auth(a sasl.Client) error
	Mail(from string, opts *gosmtp.MailOptions) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

type dialFunc func(addr string, cfg *tls.Config) (client, error)

func dialTLS(addr string, cfg *tls.Config) (client, error) {
	return gosmtp.DialTLS(addr, cfg)
}

// Sender submits plain-text messages over implicit TLS. Each Send uses its own connection.
type Sender struct {
	opts   Options
	dial   dialFunc
	now    func() time.Time
	logger *slog.Logger
}

func NewSender(opts Options, logger *slog.Logger) (*Sender, error) {
	if opts.Host == "" {
		return nil, fmt.Errorf("smtp host is empty")
	}
	if opts.Port <= 0 {
		return nil, fmt.Errorf("smtp port must be positive")
	}
	if opts.From == "" {
		opts.From = opts.Username
	}
	return &Sender{opts: opts, dial: dialTLS, now: time.Now, logger: logger}, nil
}

// Send delivers body to recipient. An unparsable recipient is rejected before dialing.
func (s *Sender) Send(ctx context.Context, subject, body, recipient string) error {
	to, err := mail.ParseAddress(strings.TrimSpace(recipient))
	if err != nil {
		return model.NewError(model.KindValidation, "send mail", fmt.Errorf("invalid recipient %q: %w", recipient, err))
	}
	if s.opts.Username == "" || s.opts.Password == "" {
		return model.NewError(model.KindConfiguration, "send mail", model.ErrMissingCredential)
	}
	from, err := mail.ParseAddress(s.opts.From)
	if err != nil {
		return model.NewError(model.KindConfiguration, "send mail", fmt.Errorf("invalid sender %q: %w", s.opts.From, err))
	}

	raw, err := s.compose(from, to, subject, body)
	if err != nil {
		return model.NewError(model.KindDelivery, "compose mail", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.submit(from.Address, to.Address, raw); err != nil {
		return model.NewError(model.KindDelivery, "send mail", err)
	}

	if s.logger != nil {
		s.logger.Debug("mail sent", "to", to.Address, "subject", subject, "size", len(raw))
	}
	return nil
}

func (s *Sender) compose(from, to *mail.Address, subject, body string) ([]byte, error) {
	var h mail.Header
	h.SetDate(s.now())
	h.SetAddressList("From", []*mail.Address{from})
	h.SetAddressList("To", []*mail.Address{to})
	h.SetSubject(subject)
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("message id: %w", err)
	}

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(w, body); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Sender) submit(from, to string, raw []byte) error {
	address := net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
	c, err := s.dial(address, &tls.Config{
		ServerName:         s.opts.Host,
		InsecureSkipVerify: s.opts.InsecureSkipVerify,
	})
	if err != nil {
		return fmt.Errorf("dial smtp %s: %w", address, err)
	}
	defer c.Close()

	if err := c.Auth(sasl.NewPlainClient("", s.opts.Username, s.opts.Password)); err != nil {
		return fmt.Errorf("smtp auth failed: %w", err)
	}
	if err := c.Mail(from, nil); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := c.Rcpt(to); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		_ = w.Close()
		return fmt.Errorf("data write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("data close: %w", err)
	}

	if err := c.Quit(); err != nil && s.logger != nil {
		s.logger.Debug("smtp quit", "err", err)
	}
	return nil
}
