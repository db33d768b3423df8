package imapclient

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// knownServers maps common email domains to their IMAP host:port, used
// by the account-creation handler when a request omits the host; it is
// a convenience only, never authoritative — operators can always supply
// host/port explicitly.
var knownServers = map[string]struct {
	host string
	port int
}{
	"gmail.com":      {"imap.gmail.com", 993},
	"googlemail.com": {"imap.gmail.com", 993},
	"outlook.com":    {"outlook.office365.com", 993},
	"hotmail.com":    {"outlook.office365.com", 993},
	"live.com":       {"outlook.office365.com", 993},
	"yahoo.com":      {"imap.mail.yahoo.com", 993},
	"yandex.com":     {"imap.yandex.com", 993},
	"yandex.ru":      {"imap.yandex.ru", 993},
	"mail.ru":        {"imap.mail.ru", 993},
	"icloud.com":     {"imap.mail.me.com", 993},
	"fastmail.com":   {"imap.fastmail.com", 993},
	"gmx.com":        {"imap.gmx.com", 993},
	"zoho.com":       {"imap.zoho.com", 993},
}

// ResolveServer suggests an IMAP host:port for an email address: a
// known-provider table lookup first, then an imap.<domain>:993 guess
// verified by a short TCP dial, then MX-record-derived guesses. It
// returns an error only when the domain is malformed; an unreachable
// guess still returns the best-effort guess rather than failing, since
// callers treat this as a suggestion the operator can override.
func ResolveServer(email string) (host string, port int, err error) {
	domain, err := domainOf(email)
	if err != nil {
		return "", 0, err
	}

	if known, ok := knownServers[domain]; ok {
		return known.host, known.port, nil
	}

	for _, candidate := range []string{"imap." + domain, "mail." + domain, domain} {
		if reachable(candidate, 993) {
			return candidate, 993, nil
		}
	}

	if mxHost, ok := resolveViaMX(domain); ok {
		return mxHost, 993, nil
	}

	return "imap." + domain, 993, nil
}

func domainOf(email string) (string, error) {
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[1] == "" {
		return "", fmt.Errorf("imapclient: invalid email address %q", email)
	}
	return strings.ToLower(parts[1]), nil
}

func reachable(host string, port int) bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, strconv.Itoa(port)), 3*time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

func resolveViaMX(domain string) (string, bool) {
	records, err := net.LookupMX(domain)
	if err != nil || len(records) == 0 {
		return "", false
	}
	mxHost := strings.TrimSuffix(records[0].Host, ".")
	parts := strings.SplitN(mxHost, ".", 2)
	if len(parts) != 2 {
		return "", false
	}
	for _, candidate := range []string{"imap." + parts[1], "mail." + parts[1]} {
		if reachable(candidate, 993) {
			return candidate, true
		}
	}
	return "", false
}
