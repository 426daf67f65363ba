package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

const (
	queueSize      = 256
	requestTimeout = 10 * time.Second
)

type message struct {
	UserID int64
	Title  string
	Body   string
}

// Client delivers push notifications through an Expo-style gateway. Sends
// are queued and drained by a single worker goroutine; enqueueing never
// blocks and a delivery failure is logged and dropped. Reward transactions
// must not be able to fail because a push did.
type Client struct {
	endpoint string
	httpc    *http.Client
	queue    chan message
}

func New(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		httpc:    &http.Client{Timeout: requestTimeout},
		queue:    make(chan message, queueSize),
	}
}

// Start drains the queue until the context is cancelled.
func (c *Client) Start(ctx context.Context) {
	log.Println("[Push] Worker started")
	for {
		select {
		case <-ctx.Done():
			log.Println("[Push] Worker stopped")
			return
		case msg := <-c.queue:
			if err := c.send(ctx, msg); err != nil {
				log.Printf("[Push] Failed to notify user %d: %v", msg.UserID, err)
			}
		}
	}
}

func (c *Client) enqueue(msg message) {
	select {
	case c.queue <- msg:
	default:
		log.Printf("[Push] Queue full, dropping notification for user %d", msg.UserID)
	}
}

func (c *Client) NotifyReferralReward(userID int64, tokens int64) {
	c.enqueue(message{
		UserID: userID,
		Title:  "Referral reward",
		Body:   fmt.Sprintf("A runner you invited just validated their first medal. +%d tokens!", tokens),
	})
}

func (c *Client) NotifyReengagement(userID int64) {
	c.enqueue(message{
		UserID: userID,
		Title:  "Your trophy wall misses you",
		Body:   "Scan a medal and keep your streak of race memories growing.",
	})
}

func (c *Client) send(ctx context.Context, msg message) error {
	payload, err := json.Marshal(map[string]interface{}{
		"to":    fmt.Sprintf("user-%d", msg.UserID),
		"title": msg.Title,
		"body":  msg.Body,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("push gateway returned %s", resp.Status)
	}
	return nil
}
