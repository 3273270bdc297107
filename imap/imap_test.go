package imap

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"testing"

	imapv2 "github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-imap/v2/imapserver"
	"github.com/emersion/go-imap/v2/imapserver/imapmemserver"

	"github.com/dhcgn/llm-assist/mailbox"
	"github.com/dhcgn/llm-assist/model"
)

const (
	testUser = "me@example.com"
	testPass = "secret"
)

func startServer(t *testing.T) (host string, port int) {
	t.Helper()

	mem := imapmemserver.New()
	user := imapmemserver.NewUser(testUser, testPass)
	if err := user.Create("INBOX", nil); err != nil {
		t.Fatalf("create INBOX: %v", err)
	}
	mem.AddUser(user)

	server := imapserver.New(&imapserver.Options{
		NewSession: func(*imapserver.Conn) (imapserver.Session, *imapserver.GreetingData, error) {
			return mem.NewSession(), nil, nil
		},
		Caps:         imapv2.CapSet{imapv2.CapIMAP4rev1: {}, imapv2.CapIMAP4rev2: {}},
		InsecureAuth: true,
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() {
		_ = server.Serve(ln)
	}()
	t.Cleanup(func() {
		_ = server.Close()
	})

	addr := ln.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port
}

func appendMessages(t *testing.T, host string, port int, raws ...string) {
	t.Helper()
	client, err := imapclient.DialInsecure(net.JoinHostPort(host, strconv.Itoa(port)), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()
	if err := client.Login(testUser, testPass).Wait(); err != nil {
		t.Fatalf("login: %v", err)
	}
	for _, raw := range raws {
		cmd := client.Append("INBOX", int64(len(raw)), nil)
		if _, err := cmd.Write([]byte(raw)); err != nil {
			t.Fatalf("append write: %v", err)
		}
		if err := cmd.Close(); err != nil {
			t.Fatalf("append close: %v", err)
		}
		if _, err := cmd.Wait(); err != nil {
			t.Fatalf("append wait: %v", err)
		}
	}
	_ = client.Logout().Wait()
}

func message(from, subject, body string) string {
	return fmt.Sprintf("From: %s\r\nSubject: %s\r\nContent-Type: text/plain\r\n\r\n%s\r\n", from, subject, body)
}

func TestDialer_FetchRecentAndSearch(t *testing.T) {
	host, port := startServer(t)
	appendMessages(t, host, port,
		message("billing@example.com", "Invoice 1", "Pay now."),
		message("alice@example.com", "Lunch", "Noon?"),
		message("bob@example.com", "Re: invoice", "Paid."),
	)

	dialer, err := NewDialer(Options{Host: host, Port: port, Username: testUser, Password: testPass}, nil)
	if err != nil {
		t.Fatalf("NewDialer: %v", err)
	}
	client, err := mailbox.New(dialer, mailbox.Options{BatchSize: 2}, nil)
	if err != nil {
		t.Fatalf("mailbox.New: %v", err)
	}

	recent, err := client.FetchRecent(context.Background(), 2)
	if err != nil {
		t.Fatalf("FetchRecent: %v", err)
	}
	if len(recent) != 2 || recent[0].Subject != "Re: invoice" || recent[1].Subject != "Lunch" {
		t.Fatalf("unexpected recent messages: %+v", recent)
	}

	matches, err := client.SearchByKeyword(context.Background(), "INVOICE")
	if err != nil {
		t.Fatalf("SearchByKeyword: %v", err)
	}
	if len(matches) != 2 || matches[0].Body != "Paid." || matches[1].Body != "Pay now." {
		t.Fatalf("unexpected matches: %+v", matches)
	}
}

func TestDialer_BadPasswordIsConnectionError(t *testing.T) {
	host, port := startServer(t)

	dialer, err := NewDialer(Options{Host: host, Port: port, Username: testUser, Password: "wrong"}, nil)
	if err != nil {
		t.Fatalf("NewDialer: %v", err)
	}
	client, err := mailbox.New(dialer, mailbox.Options{}, nil)
	if err != nil {
		t.Fatalf("mailbox.New: %v", err)
	}

	_, err = client.FetchRecent(context.Background(), 1)
	if !model.IsKind(err, model.KindConnection) {
		t.Fatalf("expected connection error, got %v", err)
	}
}

func TestDialer_MissingCredentials(t *testing.T) {
	dialer, err := NewDialer(Options{Host: "127.0.0.1", Port: 1}, nil)
	if err != nil {
		t.Fatalf("NewDialer: %v", err)
	}
	_, err = dialer.Dial(context.Background())
	if !model.IsKind(err, model.KindConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestNewDialer_Validation(t *testing.T) {
	if _, err := NewDialer(Options{Port: 993}, nil); err == nil {
		t.Fatal("expected error for empty host")
	}
	if _, err := NewDialer(Options{Host: "imap.example.com"}, nil); err == nil {
		t.Fatal("expected error for missing port")
	}
}
