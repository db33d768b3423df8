// Package imapclient implements the IMAP Client (C3): a stateless,
// per-call connector that lists and fetches new messages since a
// watermark and can mirror a mark-read back to the server.
package imapclient

import (
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
)

// Account is the minimal connection info FetchNew needs. Credentials are
// passed already decrypted: decryption happens at the narrowest
// possible scope, immediately before this call.
type Account struct {
	Email    string
	Password string
	Host     string
	Port     int
}

func (a Account) addr() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// Options tunes timeouts and first-connect behavior.
type Options struct {
	DialTimeout         time.Duration
	CommandTimeout      time.Duration
	AllowMarkRead       bool // select INBOX read-write when any rule might mark_read
	DefaultLookbackDays int  // bound the initial sync when watermark is empty
}

func (o Options) withDefaults() Options {
	if o.DialTimeout == 0 {
		o.DialTimeout = 15 * time.Second
	}
	if o.CommandTimeout == 0 {
		o.CommandTimeout = 30 * time.Second
	}
	if o.DefaultLookbackDays == 0 {
		o.DefaultLookbackDays = 7
	}
	return o
}

// Message is one fetched email, not yet persisted.
type Message struct {
	UID       uint32
	MessageID string
	Sender    string
	Subject   string
	Date      time.Time
	BodyText  string
	BodyHTML  string
}

// FetchNew connects, authenticates, lists messages with UID greater than
// watermark (or within the lookback window when watermark is empty), and
// returns them in ascending UID order along with the new watermark.
func FetchNew(account Account, watermark string, opts Options) ([]Message, string, error) {
	opts = opts.withDefaults()

	c, err := dial(account, opts)
	if err != nil {
		return nil, watermark, err
	}
	defer c.Logout() //nolint:errcheck

	readWrite := opts.AllowMarkRead
	if _, err := c.Select("INBOX", !readWrite); err != nil {
		return nil, watermark, fmt.Errorf("imapclient: select INBOX: %w", err)
	}

	sinceUID, hasWatermark := parseWatermark(watermark)

	criteria := imap.NewSearchCriteria()
	if hasWatermark {
		seqSet := new(imap.SeqSet)
		seqSet.AddRange(sinceUID+1, 0)
		criteria.Uid = seqSet
	} else {
		criteria.Since = time.Now().AddDate(0, 0, -opts.DefaultLookbackDays)
	}

	uids, err := c.UidSearch(criteria)
	if err != nil {
		return nil, watermark, fmt.Errorf("imapclient: search: %w", err)
	}
	if len(uids) == 0 {
		return nil, watermark, nil
	}

	seqSet := new(imap.SeqSet)
	for _, uid := range uids {
		seqSet.AddNum(uid)
	}

	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid}
	section := &imap.BodySectionName{}
	items = append(items, section.FetchItem())

	messages := make(chan *imap.Message, 32)
	done := make(chan error, 1)
	go func() { done <- c.UidFetch(seqSet, items, messages) }()

	var out []Message
	var maxUID uint32
	for raw := range messages {
		msg := parseMessage(raw, section, account.Host)
		out = append(out, msg)
		if msg.UID > maxUID {
			maxUID = msg.UID
		}
	}
	if err := <-done; err != nil {
		return out, watermark, fmt.Errorf("imapclient: fetch: %w", err)
	}

	sortByUID(out)

	newWatermark := watermark
	if maxUID > 0 {
		newWatermark = strconv.FormatUint(uint64(maxUID), 10)
	}
	return out, newWatermark, nil
}

// MarkRead issues a STORE +FLAGS \Seen for one UID.
func MarkRead(account Account, uid uint32, opts Options) error {
	opts = opts.withDefaults()
	opts.AllowMarkRead = true

	c, err := dial(account, opts)
	if err != nil {
		return err
	}
	defer c.Logout() //nolint:errcheck

	if _, err := c.Select("INBOX", false); err != nil {
		return fmt.Errorf("imapclient: select INBOX: %w", err)
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)
	item := imap.FormatFlagsOp(imap.AddFlags, true)
	flags := []interface{}{imap.SeenFlag}
	if err := c.UidStore(seqSet, item, flags, nil); err != nil {
		return fmt.Errorf("imapclient: mark read: %w", err)
	}
	return nil
}

func dial(account Account, opts Options) (*client.Client, error) {
	dialer := &net.Dialer{Timeout: opts.DialTimeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", account.addr(), nil)
	if err != nil {
		return nil, fmt.Errorf("imapclient: connect: %w", err)
	}

	c, err := client.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("imapclient: handshake: %w", err)
	}
	c.Timeout = opts.CommandTimeout

	if err := c.Login(account.Email, account.Password); err != nil {
		c.Logout() //nolint:errcheck
		return nil, fmt.Errorf("imapclient: login: %w", err)
	}
	return c, nil
}

func parseWatermark(watermark string) (uint32, bool) {
	if watermark == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(watermark, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}

func parseMessage(raw *imap.Message, section *imap.BodySectionName, host string) Message {
	msg := Message{UID: raw.Uid}

	if raw.Envelope != nil {
		msg.Subject = raw.Envelope.Subject
		msg.Date = raw.Envelope.Date
		msg.MessageID = strings.Trim(raw.Envelope.MessageId, "<>")
		if len(raw.Envelope.From) > 0 {
			from := raw.Envelope.From[0]
			msg.Sender = from.Address()
		}
	}
	if msg.MessageID == "" {
		// Synthesize "<uid>@<host>" so dedup still holds even without a
		// Message-ID header.
		msg.MessageID = fmt.Sprintf("%d@%s", raw.Uid, host)
	}

	if body := raw.GetBody(section); body != nil {
		text, html := readParts(body)
		msg.BodyHTML = SanitizeHTML(html)
		if text != "" {
			msg.BodyText = text
		} else if msg.BodyHTML != "" {
			msg.BodyText = PlainTextFromHTML(msg.BodyHTML)
		}
	}

	return msg
}

func readParts(body io.Reader) (plainText, html string) {
	mr, err := mail.CreateReader(body)
	if err != nil {
		return "", ""
	}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		ct, _, _ := h.ContentType()
		b, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}
		switch {
		case strings.HasPrefix(ct, "text/html"):
			html = string(b)
		case strings.HasPrefix(ct, "text/plain"):
			plainText = string(b)
		}
	}
	return plainText, html
}

func sortByUID(msgs []Message) {
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].UID < msgs[j].UID })
}
