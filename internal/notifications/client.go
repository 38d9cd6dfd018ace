package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"recanto_verde_backend/internal/realtime"
	"recanto_verde_backend/pkg/utils"

	"github.com/gorilla/websocket"
)

const (
	DefaultMaxReconnects    = 5
	DefaultReconnectBackoff = 3 * time.Second
)

// ErrGaveUp is returned by Run once every reconnect attempt has failed.
var ErrGaveUp = errors.New("gave up reconnecting")

// Client follows the /ws stream and feeds a Store. A dropped or refused
// connection is retried up to MaxReconnects times, waiting Backoff between
// attempts; a successful connection resets the count. Events sent while
// disconnected are lost.
type Client struct {
	URL           string
	Token         string
	Store         *Store
	Toaster       *Toaster // optional
	MaxReconnects int
	Backoff       time.Duration
	Dialer        *websocket.Dialer
	// OnNotification, when set, runs for every stored notification.
	OnNotification func(Notification)
}

func NewClient(url, token string, store *Store) *Client {
	return &Client{
		URL:           url,
		Token:         token,
		Store:         store,
		MaxReconnects: DefaultMaxReconnects,
		Backoff:       DefaultReconnectBackoff,
		Dialer:        websocket.DefaultDialer,
	}
}

// Run blocks until ctx is done or the reconnect budget is spent.
func (c *Client) Run(ctx context.Context) error {
	failures := 0
	for {
		connected, err := c.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if connected {
			failures = 0
		}
		if failures >= c.MaxReconnects {
			return fmt.Errorf("%w after %d attempts: %v", ErrGaveUp, failures, err)
		}
		failures++
		utils.LogWarn("Notification stream lost, reconnecting", map[string]interface{}{
			"attempt": failures, "max_attempts": c.MaxReconnects, "error": errString(err),
		})

		timer := time.NewTimer(c.Backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// session dials once and reads until the connection ends. connected
// reports whether the handshake succeeded.
func (c *Client) session(ctx context.Context) (connected bool, err error) {
	dialer := c.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	target, err := c.streamURL()
	if err != nil {
		return false, err
	}
	conn, resp, err := dialer.DialContext(ctx, target, nil)
	if err != nil {
		if resp != nil {
			return false, fmt.Errorf("dial %s: %w (status %d)", c.URL, err, resp.StatusCode)
		}
		return false, fmt.Errorf("dial %s: %w", c.URL, err)
	}
	defer conn.Close()
	utils.LogInfo("Notification stream connected", map[string]interface{}{"url": c.URL})

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return true, err
		}
		c.handle(msg)
	}
}

// streamURL adds the token as the query parameter read by the /ws route.
func (c *Client) streamURL() (string, error) {
	u, err := url.Parse(c.URL)
	if err != nil {
		return "", fmt.Errorf("invalid stream url: %w", err)
	}
	if c.Token != "" {
		q := u.Query()
		q.Set("token", c.Token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (c *Client) handle(msg []byte) {
	var evt realtime.Event
	if err := json.Unmarshal(msg, &evt); err != nil {
		utils.LogWarn("Discarding malformed event", map[string]interface{}{"error": err.Error()})
		return
	}
	n, err := c.Store.Add(evt)
	if err != nil {
		utils.LogDebug("Ignoring event", map[string]interface{}{"type": evt.Type, "error": err.Error()})
		return
	}
	if c.Toaster != nil {
		c.Toaster.Offer(n)
	}
	if c.OnNotification != nil {
		c.OnNotification(n)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
