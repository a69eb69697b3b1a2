package registry

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"
)

// Ecosystem names a package registry we can query.
type Ecosystem string

const (
	NPM  Ecosystem = "npm"
	PyPI Ecosystem = "pypi"
)

const defaultTimeout = 5 * time.Second

// Client looks up package existence against public registries, consulting a
// shared TTL cache first. Safe for concurrent use.
type Client struct {
	http   *resty.Client
	cache  *Cache
	logger hclog.Logger

	npmBase  string
	pypiBase string
}

// restyLogger forwards resty's log output to hclog.
type restyLogger struct {
	logger hclog.Logger
}

func (l *restyLogger) Errorf(format string, v ...interface{}) { l.logger.Error(fmt.Sprintf(format, v...)) }
func (l *restyLogger) Warnf(format string, v ...interface{})  { l.logger.Warn(fmt.Sprintf(format, v...)) }
func (l *restyLogger) Debugf(format string, v ...interface{}) { l.logger.Debug(fmt.Sprintf(format, v...)) }

// NewClient builds a registry client with the given cache. A nil cache
// disables caching; a nil logger discards logs.
func NewClient(cache *Cache, logger hclog.Logger) *Client {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	http := resty.New().
		SetTimeout(defaultTimeout).
		SetRetryCount(1).
		SetLogger(&restyLogger{logger: logger})

	return &Client{
		http:     http,
		cache:    cache,
		logger:   logger,
		npmBase:  "https://registry.npmjs.org",
		pypiBase: "https://pypi.org",
	}
}

// SetBaseURLs overrides the registry endpoints (tests point these at a
// local httptest server).
func (c *Client) SetBaseURLs(npm, pypi string) {
	if npm != "" {
		c.npmBase = npm
	}
	if pypi != "" {
		c.pypiBase = pypi
	}
}

// Lookup reports whether the named package exists in the given ecosystem.
// Network failures return Unknown; callers treat Unknown as "no signal",
// never as evidence of a hallucinated dependency.
func (c *Client) Lookup(ctx context.Context, eco Ecosystem, name string) Existence {
	key := string(eco) + ":" + name
	if c.cache != nil {
		if v, ok := c.cache.Get(key); ok {
			return v
		}
	}

	v := c.fetch(ctx, eco, name)
	if c.cache != nil {
		c.cache.Put(key, v)
	}
	return v
}

func (c *Client) fetch(ctx context.Context, eco Ecosystem, name string) Existence {
	var lookupURL string
	switch eco {
	case NPM:
		lookupURL = c.npmBase + "/" + url.PathEscape(name)
	case PyPI:
		lookupURL = c.pypiBase + "/pypi/" + url.PathEscape(name) + "/json"
	default:
		return Unknown
	}

	resp, err := c.http.R().SetContext(ctx).Head(lookupURL)
	if err != nil {
		c.logger.Debug("registry lookup failed", "ecosystem", eco, "package", name, "error", err)
		return Unknown
	}

	switch {
	case resp.StatusCode() == 404:
		return Missing
	case resp.StatusCode() >= 200 && resp.StatusCode() < 300:
		return Exists
	default:
		c.logger.Debug("registry returned unexpected status",
			"ecosystem", eco, "package", name, "status", resp.StatusCode())
		return Unknown
	}
}
