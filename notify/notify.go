package notify

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gen2brain/beeep"
)

// Method selects where alert notifications go.
type Method int

const (
	MethodNone Method = iota
	MethodDesktop
	MethodNtfy
	MethodBoth
)

// Methods lists the settings-screen cycle order.
var Methods = []string{"none", "desktop", "ntfy", "both"}

func MethodFromString(s string) Method {
	switch s {
	case "desktop":
		return MethodDesktop
	case "ntfy":
		return MethodNtfy
	case "both":
		return MethodBoth
	default:
		return MethodNone
	}
}

func (m Method) String() string {
	switch m {
	case MethodDesktop:
		return "desktop"
	case MethodNtfy:
		return "ntfy"
	case MethodBoth:
		return "both"
	default:
		return "none"
	}
}

var ntfyClient = &http.Client{Timeout: 10 * time.Second}

// Send delivers a notification fire-and-forget: failures are logged and
// never surfaced to the caller.
func Send(method Method, topic, title, body string) {
	switch method {
	case MethodDesktop:
		sendDesktop(title, body)
	case MethodNtfy:
		sendNtfy(topic, title, body)
	case MethodBoth:
		sendDesktop(title, body)
		sendNtfy(topic, title, body)
	}
}

func sendDesktop(title, body string) {
	go func() {
		if err := beeep.Notify(title, body, ""); err != nil {
			slog.Warn("desktop notification failed", "error", err)
		}
	}()
}

func sendNtfy(topic, title, body string) {
	if topic == "" {
		return
	}
	go func() {
		req, err := http.NewRequest(http.MethodPost, "https://ntfy.sh/"+topic, strings.NewReader(body))
		if err != nil {
			return
		}
		req.Header.Set("Title", title)
		resp, err := ntfyClient.Do(req)
		if err != nil {
			slog.Warn("ntfy notification failed", "error", err)
			return
		}
		resp.Body.Close()
	}()
}
