// Package client is the Go client for the twasm-server HTTP API.
package client

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Client interface {
	Init(baseUrl string, client *http.Client, opts ...Options) error
	Transpile(req TranspileRequest) (*TranspileResponse, error)
	Load(path string) (*LoadedModule, error)
	Prelude() (string, error)
	Health() error
}

type twasmClient struct {
	client  *http.Client
	baseUrl *url.URL
}

type Options func(Client)

func New() Client {
	return &twasmClient{}
}

func (c *twasmClient) Init(
	baseUrl string,
	client *http.Client,
	opts ...Options,
) error {
	if !strings.Contains(baseUrl, "://") {
		baseUrl = "http://" + baseUrl
	}
	bUrl, err := url.Parse(baseUrl)
	if err != nil {
		return err
	}

	if bUrl.Host == "" {
		return errors.New("host is empty")
	}
	c.baseUrl = bUrl

	if client == nil {
		c.client = http.DefaultClient
	} else {
		c.client = client
	}
	if c.client.Transport == nil {
		c.client.Transport = http.DefaultTransport
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return nil
}

type customTransport struct {
	UserAgent  string
	Username   string
	Password   string
	VerboseLog bool
	Transport  http.RoundTripper
}

func (ct *customTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	if ct.Username != "" || ct.Password != "" {
		req.SetBasicAuth(ct.Username, ct.Password)
	}
	if ct.UserAgent != "" {
		req.Header.Set("User-Agent", ct.UserAgent)
	}
	resp, err := ct.Transport.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if ct.VerboseLog {
		fmt.Printf("%s %s %s - %s %v\n",
			resp.Proto, req.Method, req.URL,
			resp.Status, time.Since(start),
		)
	}
	return resp, err
}

func (c *twasmClient) transport() *customTransport {
	if ct, ok := c.client.Transport.(*customTransport); ok {
		return ct
	}
	ct := &customTransport{Transport: c.client.Transport}
	c.client.Transport = ct
	return ct
}

func WithBasicAuth(username, password string) Options {
	return func(cl Client) {
		if c, ok := cl.(*twasmClient); ok {
			ct := c.transport()
			ct.Username = username
			ct.Password = password
		}
	}
}

func WithFollowRedirect(follow bool) Options {
	return func(cl Client) {
		if c, ok := cl.(*twasmClient); ok {
			c.client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
				if follow {
					return nil
				}
				return http.ErrUseLastResponse
			}
		}
	}
}

func WithUserAgent(ua string) Options {
	return func(cl Client) {
		if c, ok := cl.(*twasmClient); ok {
			c.transport().UserAgent = ua
		}
	}
}

func WithVerboseLogging(on bool) Options {
	return func(cl Client) {
		if c, ok := cl.(*twasmClient); ok {
			c.transport().VerboseLog = on
		}
	}
}
