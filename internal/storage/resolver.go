package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrRefDenied is returned for references the caller may not read.
var ErrRefDenied = errors.New("file reference not permitted")

type ResolverOpts func(r *Resolver)

// WithDefaultBucket names the only bucket s3:// and gs:// references may point at.
func WithDefaultBucket(bucket string) ResolverOpts {
	return func(r *Resolver) {
		r.bucket = bucket
	}
}

// WithAllowedHosts sets the hosts https:// references may be fetched from. Entries are "host" or "host:port".
func WithAllowedHosts(hosts ...string) ResolverOpts {
	return func(r *Resolver) {
		for _, h := range hosts {
			if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
				r.hosts[h] = struct{}{}
			}
		}
	}
}

// Resolver turns a caller-supplied file reference into bytes.
//
// Accepted forms: bare keys and s3://bucket/key or gs://bucket/key in the default bucket, all under
// users/<caller>/, and https:// URLs on an allowed host.
type Resolver struct {
	store   Store
	http    *http.Client
	timeout time.Duration
	bucket  string
	hosts   map[string]struct{}
	logger  *slog.Logger
}

func NewResolver(store Store, httpClient *http.Client, timeout time.Duration, logger *slog.Logger, opts ...ResolverOpts) *Resolver {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{store: store, timeout: timeout, hosts: map[string]struct{}{}, logger: logger}
	if b, ok := store.(interface{ Bucket() string }); ok {
		r.bucket = b.Bucket()
	}
	for _, o := range opts {
		o(r)
	}

	client := *httpClient
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= 5 {
			return errors.New("too many redirects")
		}
		if req.URL.Scheme != "https" || !r.hostAllowed(req.URL) {
			return fmt.Errorf("%w: redirect to %s", ErrRefDenied, req.URL.Host)
		}
		return nil
	}
	r.http = &client
	return r
}

// Resolve downloads the referenced file on behalf of userID, failing with ErrTooLarge past maxBytes
// and with ErrRefDenied before any I/O when the reference is out of the caller's reach.
func (r *Resolver) Resolve(ctx context.Context, userID, fileRef string, maxBytes int64) ([]byte, error) {
	ref := strings.TrimSpace(fileRef)
	if ref == "" {
		return nil, fmt.Errorf("empty file reference")
	}

	u, err := url.Parse(ref)
	if err != nil || u.Scheme == "" {
		key := strings.TrimPrefix(ref, "/")
		if !OwnedKey(userID, key) {
			return nil, r.deny(userID, "key outside caller prefix")
		}
		return r.fromStore(ctx, key, maxBytes)
	}

	switch u.Scheme {
	case "https":
		if u.User != nil || !r.hostAllowed(u) {
			return nil, r.deny(userID, "download host not allowed")
		}
		return r.fetch(ctx, u.String(), maxBytes)
	case "s3", "gs":
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return nil, fmt.Errorf("invalid bucket reference %q", ref)
		}
		if u.Host != r.bucket {
			return nil, r.deny(userID, "bucket not allowed")
		}
		if !OwnedKey(userID, key) {
			return nil, r.deny(userID, "key outside caller prefix")
		}
		return r.fromStore(ctx, key, maxBytes)
	case "http":
		return nil, fmt.Errorf("%w: insecure file url", ErrRefDenied)
	}
	return nil, r.deny(userID, "unsupported scheme "+u.Scheme)
}

// OwnedKey reports whether key is an object under users/<userID>/ with no empty or dot segments.
func OwnedKey(userID, key string) bool {
	if userID == "" || userID == "." || userID == ".." || strings.ContainsAny(userID, `/\`) {
		return false
	}
	prefix := "users/" + userID + "/"
	if !strings.HasPrefix(key, prefix) || strings.Contains(key, `\`) {
		return false
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return false
		}
	}
	return true
}

func (r *Resolver) hostAllowed(u *url.URL) bool {
	if _, ok := r.hosts[strings.ToLower(u.Host)]; ok {
		return true
	}
	_, ok := r.hosts[strings.ToLower(u.Hostname())]
	return ok
}

func (r *Resolver) deny(userID, reason string) error {
	r.logger.Warn("file reference refused", "user_id", userID, "reason", reason)
	return fmt.Errorf("%w: %s", ErrRefDenied, reason)
}

func (r *Resolver) fromStore(ctx context.Context, key string, maxBytes int64) ([]byte, error) {
	if r.store == nil {
		return nil, fmt.Errorf("no object store configured")
	}
	return r.store.Download(ctx, "", key, maxBytes)
}

func (r *Resolver) fetch(ctx context.Context, rawURL string, maxBytes int64) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download returned http %d", resp.StatusCode)
	}
	if maxBytes > 0 && resp.ContentLength > maxBytes {
		return nil, fmt.Errorf("%w: content-length %d", ErrTooLarge, resp.ContentLength)
	}
	return readLimited(resp.Body, maxBytes)
}
