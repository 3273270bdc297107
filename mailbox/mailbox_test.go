package mailbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhcgn/llm-assist/model"
)

type fakeSession struct {
	messages [][]byte
	fetched  [][]uint32
	closed   bool
	fetchErr error
}

func (s *fakeSession) SeqNums(context.Context) ([]uint32, error) {
	nums := make([]uint32, len(s.messages))
	for i := range s.messages {
		nums[i] = uint32(i + 1)
	}
	return nums, nil
}

func (s *fakeSession) Fetch(_ context.Context, seqNums []uint32) (map[uint32][]byte, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	s.fetched = append(s.fetched, append([]uint32(nil), seqNums...))
	out := make(map[uint32][]byte, len(seqNums))
	for _, num := range seqNums {
		out[num] = s.messages[num-1]
	}
	return out, nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type fakeDialer struct {
	session *fakeSession
	dials   int
	err     error
}

func (d *fakeDialer) Dial(context.Context) (Session, error) {
	d.dials++
	if d.err != nil {
		return nil, d.err
	}
	return d.session, nil
}

func rawMessage(from, subject, body string) []byte {
	return []byte(fmt.Sprintf("From: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n", from, subject, body))
}

func fiveMessageInbox() *fakeSession {
	return &fakeSession{messages: [][]byte{
		rawMessage("Billing <billing@example.com>", "Invoice 2024-01", "Please pay invoice one."),
		rawMessage("alice@example.com", "Lunch?", "Noon at the usual place."),
		rawMessage("news@example.com", "Weekly digest", "Top stories of the week."),
		rawMessage("bob@example.com", "Re: your invoice", "Paid, thanks."),
		rawMessage("carol@example.com", "Holiday plans", "See you in May."),
	}}
}

func newClient(t *testing.T, d Dialer, opts Options) *Client {
	t.Helper()
	c, err := New(d, opts, nil)
	require.NoError(t, err)
	return c
}

func TestFetchRecent_MostRecentFirst(t *testing.T) {
	session := fiveMessageInbox()
	c := newClient(t, &fakeDialer{session: session}, Options{})

	msgs, err := c.FetchRecent(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, msgs, 3)

	assert.Equal(t, "Holiday plans", msgs[0].Subject)
	assert.Equal(t, "Re: your invoice", msgs[1].Subject)
	assert.Equal(t, "Weekly digest", msgs[2].Subject)
	assert.Equal(t, [][]uint32{{3, 4, 5}}, session.fetched)
	assert.True(t, session.closed)

	digest := FormatDigest(msgs)
	assert.Equal(t, 3, strings.Count(digest, "From: "))
	assert.True(t, strings.HasPrefix(digest, "From: carol@example.com\nSubject: Holiday plans\n"))
}

func TestFetchRecent_NeverMoreThanPresent(t *testing.T) {
	session := fiveMessageInbox()
	c := newClient(t, &fakeDialer{session: session}, Options{})

	msgs, err := c.FetchRecent(context.Background(), 50)
	require.NoError(t, err)
	assert.Len(t, msgs, 5)
	require.Len(t, session.fetched, 1)
	assert.Len(t, session.fetched[0], 5)
}

func TestFetchRecent_RejectsNonPositiveWithoutDialing(t *testing.T) {
	for _, n := range []int{0, -1, -100} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			dialer := &fakeDialer{session: fiveMessageInbox()}
			c := newClient(t, dialer, Options{})

			_, err := c.FetchRecent(context.Background(), n)
			require.Error(t, err)
			assert.True(t, model.IsKind(err, model.KindValidation))
			assert.ErrorIs(t, err, model.ErrNonPositiveCount)
			assert.Zero(t, dialer.dials)
		})
	}
}

func TestFetchRecent_EmptyInbox(t *testing.T) {
	session := &fakeSession{}
	c := newClient(t, &fakeDialer{session: session}, Options{})

	msgs, err := c.FetchRecent(context.Background(), 3)
	require.NoError(t, err)
	assert.Empty(t, msgs)
	assert.Empty(t, session.fetched)

	outcome := DigestOutcome(msgs, err)
	assert.True(t, outcome.OK())
	assert.True(t, outcome.Empty)
	assert.Equal(t, EmptyInboxText, outcome.Text)
}

func TestFetchRecent_ConnectionError(t *testing.T) {
	c := newClient(t, &fakeDialer{err: errors.New("authentication failed")}, Options{})

	_, err := c.FetchRecent(context.Background(), 3)
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindConnection))

	outcome := DigestOutcome(nil, err)
	assert.False(t, outcome.OK())
	assert.Empty(t, outcome.Text)
}

func TestFetchRecent_FetchErrorClosesSession(t *testing.T) {
	session := fiveMessageInbox()
	session.fetchErr = errors.New("connection reset")
	c := newClient(t, &fakeDialer{session: session}, Options{})

	_, err := c.FetchRecent(context.Background(), 2)
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindConnection))
	assert.True(t, session.closed)
}

func TestSearchByKeyword_SubjectOrSender(t *testing.T) {
	session := fiveMessageInbox()
	c := newClient(t, &fakeDialer{session: session}, Options{BatchSize: 2})

	msgs, err := c.SearchByKeyword(context.Background(), "Invoice")
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, "Re: your invoice", msgs[0].Subject)
	assert.Equal(t, "Invoice 2024-01", msgs[1].Subject)
	assert.Equal(t, "Paid, thanks.", msgs[0].Body)
	assert.Equal(t, [][]uint32{{5, 4}, {3, 2}, {1}}, session.fetched)

	formatted := FormatMatches(msgs)
	entries := strings.Split(formatted, "\n\n"+"From: ")
	assert.Len(t, entries, 2)
	for _, entry := range entries {
		assert.Contains(t, strings.ToLower(entry), "invoice")
	}
}

func TestSearchByKeyword_SenderOnlyMatch(t *testing.T) {
	session := fiveMessageInbox()
	c := newClient(t, &fakeDialer{session: session}, Options{})

	msgs, err := c.SearchByKeyword(context.Background(), "BILLING")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Billing <billing@example.com>", msgs[0].Sender)
}

func TestSearchByKeyword_NoMatchSentinel(t *testing.T) {
	c := newClient(t, &fakeDialer{session: fiveMessageInbox()}, Options{})

	msgs, err := c.SearchByKeyword(context.Background(), "YouTube")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	outcome := SearchOutcome("YouTube", msgs, err)
	assert.True(t, outcome.OK())
	assert.True(t, outcome.Empty)
	assert.Equal(t, "No email found matching the keyword: YouTube", outcome.Text)
}

func TestSearchByKeyword_EmptyKeywordWithoutDialing(t *testing.T) {
	dialer := &fakeDialer{session: fiveMessageInbox()}
	c := newClient(t, dialer, Options{})

	_, err := c.SearchByKeyword(context.Background(), "  ")
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindValidation))
	assert.Zero(t, dialer.dials)
}

func TestSearchByKeyword_TruncatesPreview(t *testing.T) {
	session := &fakeSession{messages: [][]byte{
		rawMessage("billing@example.com", "Invoice", strings.Repeat("x", 900)),
	}}
	c := newClient(t, &fakeDialer{session: session}, Options{Preview: model.Truncation{Limit: 800, Marker: "..."}})

	msgs, err := c.SearchByKeyword(context.Background(), "invoice")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, strings.Repeat("x", 800)+"...", msgs[0].Body)
}

func TestNew_NilDialer(t *testing.T) {
	_, err := New(nil, Options{}, nil)
	assert.Error(t, err)
}
