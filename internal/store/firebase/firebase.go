// Package firebase adapts the Firebase Realtime Database to the store
// interface. Reads, writes, batched updates and equality queries map onto
// the Admin SDK directly; subscriptions are realized by interval polling
// with change detection, since the Admin SDK exposes no streaming listener.
package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"church-attendance-backend/internal/logger"
	"church-attendance-backend/internal/store"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"google.golang.org/api/option"
)

// Options configures the Realtime Database connection
type Options struct {
	DatabaseURL     string
	CredentialsFile string

	// PollInterval is how often subscribed paths are re-read. Defaults
	// to 5 seconds.
	PollInterval time.Duration

	// RequestTimeout bounds each poll read. Defaults to 30 seconds.
	RequestTimeout time.Duration
}

// Client is a Realtime Database backed store
type Client struct {
	db      *db.Client
	opts    Options
	log     *logger.Logger
	mu      sync.Mutex
	closed  bool
	cancels []context.CancelFunc
}

// New connects to the Realtime Database at opts.DatabaseURL
func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.DatabaseURL == "" {
		return nil, fmt.Errorf("firebase store: database URL is required")
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	conf := &firebase.Config{DatabaseURL: opts.DatabaseURL}
	var appOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		appOpts = append(appOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, conf, appOpts...)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}
	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("initializing realtime database client: %w", err)
	}

	return &Client{
		db:   client,
		opts: opts,
		log:  logger.New().WithField("component", "firebase-store"),
	}, nil
}

// Get reads the node at path; a missing node yields (nil, nil)
func (c *Client) Get(ctx context.Context, path string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.db.NewRef(path).Get(ctx, &raw); err != nil {
		return nil, err
	}
	return normalizeNull(raw), nil
}

// Set replaces the node at path with v
func (c *Client) Set(ctx context.Context, path string, v interface{}) error {
	return c.db.NewRef(path).Set(ctx, v)
}

// Update applies several root-relative path writes as one batched request
func (c *Client) Update(ctx context.Context, values map[string]interface{}) error {
	return c.db.NewRef("").Update(ctx, values)
}

// Remove deletes the node at path
func (c *Client) Remove(ctx context.Context, path string) error {
	return c.db.NewRef(path).Delete(ctx)
}

// Push creates a child of path with a database-assigned id
func (c *Client) Push(ctx context.Context, path string, v interface{}) (string, error) {
	ref, err := c.db.NewRef(path).Push(ctx, v)
	if err != nil {
		return "", err
	}
	return ref.Key, nil
}

// QueryByField returns the children of path whose field equals value.
// The queried field needs an ".indexOn" rule on the database side.
func (c *Client) QueryByField(ctx context.Context, path, field, value string) (map[string]json.RawMessage, error) {
	nodes, err := c.db.NewRef(path).OrderByChild(field).EqualTo(value).GetOrdered(ctx)
	if err != nil {
		return nil, err
	}

	results := make(map[string]json.RawMessage, len(nodes))
	for _, node := range nodes {
		var v interface{}
		if err := node.Unmarshal(&v); err != nil {
			return nil, err
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		results[node.Key()] = raw
	}
	return results, nil
}

// Subscribe polls the node at path and emits a snapshot whenever its
// serialized form changes. The first snapshot is delivered as soon as the
// initial read completes.
func (c *Client) Subscribe(path string) (store.Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, fmt.Errorf("firebase store: client is closed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancels = append(c.cancels, cancel)

	sub := &pollSubscription{
		ch:     make(chan json.RawMessage, 1),
		cancel: cancel,
	}
	go c.pollLoop(ctx, path, sub)
	return sub, nil
}

// Close cancels every active subscription
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for _, cancel := range c.cancels {
		cancel()
	}
	c.cancels = nil
}

type pollSubscription struct {
	ch        chan json.RawMessage
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func (s *pollSubscription) Snapshots() <-chan json.RawMessage {
	return s.ch
}

func (s *pollSubscription) Close() {
	s.closeOnce.Do(s.cancel)
}

func (c *Client) pollLoop(ctx context.Context, path string, sub *pollSubscription) {
	defer close(sub.ch)

	var last json.RawMessage
	first := true

	deliver := func() {
		reqCtx, cancel := context.WithTimeout(ctx, c.opts.RequestTimeout)
		raw, err := c.Get(reqCtx, path)
		cancel()
		if err != nil {
			if ctx.Err() == nil {
				c.log.WithField("path", path).Warnf("poll failed: %v", err)
			}
			return
		}
		if !first && bytes.Equal(raw, last) {
			return
		}
		first = false
		last = raw

		// Coalesce so a slow consumer always sees the latest snapshot
		select {
		case sub.ch <- raw:
		default:
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- raw:
			default:
			}
		}
	}

	deliver()
	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deliver()
		}
	}
}

func normalizeNull(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	return raw
}
