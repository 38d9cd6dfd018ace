// Command floorwatch follows the floor event stream of a running server and
// logs every notification together with the unread counters.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"recanto_verde_backend/internal/notifications"
	"recanto_verde_backend/pkg/utils"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	server := flag.String("server", utils.Getenv("FLOORWATCH_SERVER", "http://localhost:8080"), "server base URL")
	token := flag.String("token", utils.Getenv("FLOORWATCH_TOKEN", ""), "access token; when empty -email and -password are used to log in")
	email := flag.String("email", utils.Getenv("FLOORWATCH_EMAIL", ""), "login email")
	password := flag.String("password", utils.Getenv("FLOORWATCH_PASSWORD", ""), "login password")
	retries := flag.Int("retries", notifications.DefaultMaxReconnects, "reconnect attempts before giving up")
	backoff := flag.Duration("backoff", notifications.DefaultReconnectBackoff, "wait between reconnect attempts")
	logLevel := flag.String("log-level", utils.Getenv("LOG_LEVEL", "info"), "zerolog level")
	flag.Parse()

	utils.InitLogger(*logLevel, utils.Getenv("LOG_FORMAT", "console"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *token == "" {
		var err error
		*token, err = login(ctx, *server, *email, *password)
		if err != nil {
			utils.LogError(err, "Login failed", map[string]interface{}{"server": *server})
			os.Exit(1)
		}
	}

	store := notifications.NewStore()
	client := notifications.NewClient(wsURL(*server), *token, store)
	client.MaxReconnects = *retries
	client.Backoff = *backoff
	client.Toaster = notifications.NewToaster(notifications.DefaultToastTTL, notifications.DefaultToastStagger)
	client.OnNotification = func(n notifications.Notification) {
		utils.LogInfo(n.Message, map[string]interface{}{
			"type":           n.Type,
			"group":          n.Group,
			"priority":       n.Priority,
			"unread":         store.UnreadCount(),
			"unread_table":   store.UnreadCountByGroup(notifications.GroupTable),
			"unread_order":   store.UnreadCountByGroup(notifications.GroupOrder),
			"unread_payment": store.UnreadCountByGroup(notifications.GroupPayment),
			"toasts":         len(client.Toaster.Active()),
		})
	}

	utils.LogInfo("Watching floor events", map[string]interface{}{"server": *server})
	err := client.Run(ctx)
	switch {
	case errors.Is(err, context.Canceled):
		utils.LogInfo("Stopped", map[string]interface{}{"received": store.Len(), "unread": store.UnreadCount()})
	case err != nil:
		utils.LogError(err, "Notification stream closed")
		os.Exit(1)
	}
}

// wsURL maps http(s)://host to ws(s)://host/ws.
func wsURL(server string) string {
	u := strings.TrimRight(server, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/ws"
}

func login(ctx context.Context, server, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", errors.New("either -token or both -email and -password are required")
	}
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(server, "/")+"/api/v1/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login returned status %d", resp.StatusCode)
	}
	var auth struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return "", fmt.Errorf("decoding login response: %w", err)
	}
	return auth.AccessToken, nil
}
