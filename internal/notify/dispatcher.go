package notify

import (
	"fmt"
	log "log/slog"
	"net/url"
	"strings"

	"github.com/pkg/browser"

	"shealert/internal/contacts"
)

const DefaultHost = "api.whatsapp.com"

// Opener hands a URL to the OS.
type Opener func(url string) error

type Dispatcher struct {
	host string
	open Opener
}

func NewDispatcher(host string, open Opener) *Dispatcher {
	if host == "" {
		host = DefaultHost
	}
	if open == nil {
		open = browser.OpenURL
	}
	return &Dispatcher{host: host, open: open}
}

// Escape matches the percent-encoding used for the text parameter: spaces
// become %20 rather than '+'.
func Escape(msg string) string {
	return strings.ReplaceAll(url.QueryEscape(msg), "+", "%20")
}

func (d *Dispatcher) Link(phone, msg string) string {
	return fmt.Sprintf("https://%s/send?phone=%s&text=%s", d.host, phone, Escape(msg))
}

// Dispatch opens one pre-filled conversation per valid contact and returns
// how many hand-offs were attempted. Delivery is never confirmed.
func (d *Dispatcher) Dispatch(msg string, cs []contacts.Contact) int {
	n := 0
	for _, c := range cs {
		if !contacts.Valid(c.Phone) {
			continue
		}
		if err := d.open(d.Link(c.Phone, msg)); err != nil {
			log.Debug("Open link failed", "phone", c.Phone, "err", err)
		}
		n++
	}
	log.Info("Messaging opened for contacts", "count", n)
	return n
}
