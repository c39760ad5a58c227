/*
Package rpcclient implements a CKB JSON-RPC client. It resolves transaction
inputs, sends transactions and tracks their status.
*/
package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/nspcc-dev/ckb-multisig/pkg/ckbrpc"
)

const (
	defaultDialTimeout    = 4 * time.Second
	defaultRequestTimeout = 4 * time.Second
)

// Client represents the middleman for executing JSON RPC calls to remote
// CKB nodes. Client is thread-safe and can be used from multiple goroutines.
type Client struct {
	cli      *http.Client
	endpoint *url.URL
	ctx      context.Context
	opts     Options
	requestF func(context.Context, *ckbrpc.Request) (*ckbrpc.Response, error)

	latestReqID atomic.Uint64
}

// Options defines options for the RPC client. All values are optional. If
// any duration is not specified, a default of 4 seconds will be used.
type Options struct {
	DialTimeout    time.Duration
	RequestTimeout time.Duration
	// PollInterval is the interval between transaction status requests,
	// 3 seconds by default.
	PollInterval time.Duration
}

// New returns a new Client ready to use. ctx is used for requests made by
// methods that don't accept a context.
func New(ctx context.Context, endpoint string, opts Options) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported endpoint scheme %q", u.Scheme)
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = defaultDialTimeout
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	cl := &Client{
		cli: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: opts.DialTimeout,
				}).DialContext,
			},
			Timeout: opts.RequestTimeout,
		},
		endpoint: u,
		ctx:      ctx,
		opts:     opts,
	}
	cl.requestF = cl.makeHTTPRequest
	return cl, nil
}

// Endpoint returns the client endpoint.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// Close closes unused underlying networks connections.
func (c *Client) Close() {
	c.cli.CloseIdleConnections()
}

func (c *Client) performRequest(ctx context.Context, method string, p []any, v any) error {
	if p == nil {
		p = []any{}
	}
	var r = ckbrpc.Request{
		JSONRPC: ckbrpc.JSONRPCVersion,
		Method:  method,
		Params:  p,
		ID:      c.latestReqID.Add(1),
	}

	raw, err := c.requestF(ctx, &r)

	if raw != nil && raw.Error != nil {
		return raw.Error
	} else if err != nil {
		return err
	} else if raw == nil || raw.Result == nil {
		return errors.New("no result returned")
	}
	return json.Unmarshal(raw.Result, v)
}

func (c *Client) makeHTTPRequest(ctx context.Context, r *ckbrpc.Request) (*ckbrpc.Response, error) {
	var (
		buf = new(bytes.Buffer)
		raw = new(ckbrpc.Response)
	)

	if err := json.NewEncoder(buf).Encode(r); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.String(), buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.cli.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// The node might send us a proper JSON anyway, so look there first and if
	// it parses, it has more relevant data than HTTP error code.
	err = json.NewDecoder(resp.Body).Decode(raw)
	if err != nil {
		if resp.StatusCode != http.StatusOK {
			err = fmt.Errorf("HTTP %d/%s", resp.StatusCode, http.StatusText(resp.StatusCode))
		} else {
			err = fmt.Errorf("JSON decoding: %w", err)
		}
		return nil, err
	}
	return raw, nil
}
