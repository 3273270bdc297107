package mailbox

import (
	"bufio"
	"bytes"
	"html"
	"io"
	"net/textproto"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/microcosm-cc/bluemonday"

	"github.com/dhcgn/llm-assist/model"
)

var stripPolicy = bluemonday.StrictPolicy()

// Decode parses a raw RFC 5322 message into a model.Message. It never fails:
// header fields that cannot be decoded keep their raw value and invalid UTF-8
// is replaced. The body is only extracted when withBody is set.
func Decode(seqNum uint32, raw []byte, withBody bool) model.Message {
	msg := model.Message{SeqNum: seqNum}

	// An unknown charset still yields a usable reader; only a nil reader is unparsable.
	mr, _ := mail.CreateReader(bytes.NewReader(raw))
	if mr == nil {
		header, body := SplitRawMessage(raw)
		mr, _ = mail.CreateReader(bytes.NewReader(repairMessage(header, body)))
		if mr == nil {
			msg.Sender = clean(rawHeaderValue(header, "From"))
			msg.Subject = clean(rawHeaderValue(header, "Subject"))
			if withBody {
				msg.Body = clean(string(body))
			}
			return msg
		}
	}

	subject, _ := mr.Header.Subject()
	sender, _ := mr.Header.Text("From")
	msg.Subject = clean(subject)
	msg.Sender = clean(sender)
	if date, err := mr.Header.Date(); err == nil {
		msg.Date = date
	}

	if withBody {
		msg.Body = clean(extractBody(mr))
	}
	return msg
}

// extractBody returns the first text/plain part, else the first text/html part
// reduced to text, else the first single payload of any type.
func extractBody(mr *mail.Reader) string {
	var htmlBody, fallback string
	for {
		part, err := mr.NextPart()
		if err == io.EOF || part == nil {
			break
		}
		if err != nil && !message.IsUnknownCharset(err) {
			break
		}

		data, readErr := io.ReadAll(part.Body)
		if readErr != nil && len(data) == 0 {
			continue
		}

		inline, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			if fallback == "" {
				fallback = string(data)
			}
			continue
		}

		contentType, _, _ := inline.ContentType()
		switch strings.ToLower(contentType) {
		case "text/plain":
			return string(data)
		case "text/html":
			if htmlBody == "" {
				htmlBody = htmlToText(string(data))
			}
		default:
			if fallback == "" {
				fallback = string(data)
			}
		}
	}

	if htmlBody != "" {
		return htmlBody
	}
	return fallback
}

var blockBreaks = strings.NewReplacer(
	"</p>", "</p>\n", "</P>", "</P>\n",
	"</div>", "</div>\n", "</DIV>", "</DIV>\n",
	"</li>", "</li>\n", "</LI>", "</LI>\n",
	"</tr>", "</tr>\n", "</TR>", "</TR>\n",
	"<br>", "<br>\n", "<BR>", "<BR>\n",
	"<br/>", "<br/>\n", "<br />", "<br />\n",
)

func htmlToText(s string) string {
	text := html.UnescapeString(stripPolicy.Sanitize(blockBreaks.Replace(s)))
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func clean(s string) string {
	return strings.TrimSpace(strings.ToValidUTF8(s, "�"))
}

// SplitRawMessage splits a raw email message into header and body parts.
func SplitRawMessage(raw []byte) (header, body []byte) {
	if len(raw) == 0 {
		return nil, nil
	}

	if idx := bytes.Index(raw, []byte("\r\n\r\n")); idx >= 0 {
		return raw[:idx], raw[idx+4:]
	}
	if idx := bytes.Index(raw, []byte("\n\n")); idx >= 0 {
		return raw[:idx], raw[idx+2:]
	}

	return raw, nil
}

// repairMessage rebuilds a message from the well-formed lines of header and
// the untouched body. Lines that are not "Name: value" are dropped together
// with their continuations.
func repairMessage(header, body []byte) []byte {
	var out bytes.Buffer
	scanner := bufio.NewScanner(bytes.NewReader(header))
	keep := false
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
			if keep {
				out.WriteString(line)
				out.WriteString("\r\n")
			}
			continue
		}
		name, _, ok := strings.Cut(line, ":")
		keep = ok && validFieldName(name)
		if keep {
			out.WriteString(line)
			out.WriteString("\r\n")
		}
	}
	out.WriteString("\r\n")
	out.Write(body)
	return out.Bytes()
}

func validFieldName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if r <= ' ' || r > '~' {
			return false
		}
	}
	return true
}

// rawHeaderValue scans an unparsable header block line by line, unfolding continuations.
func rawHeaderValue(header []byte, key string) string {
	want := textproto.CanonicalMIMEHeaderKey(key)
	scanner := bufio.NewScanner(bytes.NewReader(header))

	var (
		value   strings.Builder
		capture bool
	)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if capture {
			if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
				value.WriteString(" ")
				value.WriteString(strings.TrimSpace(line))
				continue
			}
			break
		}
		name, v, ok := strings.Cut(line, ":")
		if ok && textproto.CanonicalMIMEHeaderKey(strings.TrimSpace(name)) == want {
			value.WriteString(strings.TrimSpace(v))
			capture = true
		}
	}
	return value.String()
}
