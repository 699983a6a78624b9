package store

// S3LikeStore is a minimal S3-compatible client with hand-rolled AWS SigV4
// signing, adapted from the blob service's S3Store: same canonical-header
// and signing-key derivation, trimmed to Atlas's single-bucket,
// content-addressed object layout (no tenant scoping, no x-amz-meta
// headers — a content-addressed key already is the only metadata that
// matters).
//
// Stdlib-only by necessity: none of the example repos import an AWS SDK,
// and pulling one in for a single bucket's worth of PUT/GET/HEAD/DELETE
// would be disproportionate next to a ~150-line signer this corpus already
// shows how to hand-roll safely.

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

type S3LikeOptions struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	SessionToken string
	HTTPTimeout  time.Duration
}

type S3LikeStore struct {
	opts S3LikeOptions
	hc   *http.Client
	u    *url.URL
}

func NewS3LikeStore(opts S3LikeOptions) (*S3LikeStore, error) {
	o := normalizeS3LikeOptions(opts)
	if o.Endpoint == "" || o.Bucket == "" || o.AccessKey == "" || o.SecretKey == "" {
		return nil, fmt.Errorf("store: s3like endpoint/bucket/access/secret required")
	}
	u, err := url.Parse(o.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("store: s3like endpoint parse: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("store: s3like endpoint scheme must be http/https")
	}
	return &S3LikeStore{opts: o, hc: &http.Client{Timeout: o.HTTPTimeout}, u: u}, nil
}

func (s *S3LikeStore) objectPath(objectKey string) (string, error) {
	objectKey = strings.Trim(strings.TrimSpace(objectKey), "/")
	if objectKey == "" || strings.Contains(objectKey, "..") {
		return "", fmt.Errorf("store: invalid object key %q", objectKey)
	}
	parts := append([]string{s.opts.Bucket}, strings.Split(objectKey, "/")...)
	escaped := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			return "", fmt.Errorf("store: empty path segment in key %q", objectKey)
		}
		escaped = append(escaped, url.PathEscape(p))
	}
	return "/" + strings.Join(escaped, "/"), nil
}

func (s *S3LikeStore) do(ctx context.Context, method, objectKey string, body []byte) (*http.Response, error) {
	path, err := s.objectPath(objectKey)
	if err != nil {
		return nil, err
	}
	reqURL := s.u.ResolveReference(&url.URL{Path: path})
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("store: s3like new request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/octet-stream")
	}
	if err := s.sign(req, sha256Hex(body)); err != nil {
		return nil, err
	}
	resp, err := s.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("store: s3like %s %s: %w", method, objectKey, err)
	}
	return resp, nil
}

func (s *S3LikeStore) Put(ctx context.Context, objectKey string, data []byte) error {
	if data == nil {
		data = []byte{}
	}
	resp, err := s.do(ctx, http.MethodPut, objectKey, data)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 32*1024))
		return fmt.Errorf("store: s3like put %s: status=%d body=%s", objectKey, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return nil
}

func (s *S3LikeStore) Get(ctx context.Context, objectKey string) ([]byte, error) {
	resp, err := s.do(ctx, http.MethodGet, objectKey, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, objectKey)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 32*1024))
		return nil, fmt.Errorf("store: s3like get %s: status=%d body=%s", objectKey, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return io.ReadAll(resp.Body)
}

func (s *S3LikeStore) Head(ctx context.Context, objectKey string) (int64, error) {
	resp, err := s.do(ctx, http.MethodHead, objectKey, nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, objectKey)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("store: s3like head %s: status=%d", objectKey, resp.StatusCode)
	}
	var n int64
	fmt.Sscanf(resp.Header.Get("Content-Length"), "%d", &n)
	return n, nil
}

func (s *S3LikeStore) Delete(ctx context.Context, objectKey string) error {
	resp, err := s.do(ctx, http.MethodDelete, objectKey, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, objectKey)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("store: s3like delete %s: status=%d", objectKey, resp.StatusCode)
	}
	return nil
}

func (s *S3LikeStore) sign(req *http.Request, payloadHashHex string) error {
	t := time.Now().UTC()
	amzDate := t.Format("20060102T150405Z")
	dateStamp := t.Format("20060102")
	region := s.opts.Region
	service := "s3"

	req.Header.Set("Host", req.URL.Host)
	req.Header.Set("x-amz-date", amzDate)
	req.Header.Set("x-amz-content-sha256", payloadHashHex)
	if s.opts.SessionToken != "" {
		req.Header.Set("x-amz-security-token", s.opts.SessionToken)
	}
	canonicalHeaders, signedHeaders := canonicalHeadersS3Like(req.Header)
	canonicalURI := req.URL.EscapedPath()
	if canonicalURI == "" {
		canonicalURI = "/"
	}
	canonicalRequest := strings.Join([]string{
		req.Method,
		canonicalURI,
		req.URL.RawQuery,
		canonicalHeaders,
		signedHeaders,
		payloadHashHex,
	}, "\n")
	crHash := sha256Hex([]byte(canonicalRequest))
	scope := strings.Join([]string{dateStamp, region, service, "aws4_request"}, "/")
	stringToSign := strings.Join([]string{"AWS4-HMAC-SHA256", amzDate, scope, crHash}, "\n")
	signingKey := deriveSigningKeyS3Like(s.opts.SecretKey, dateStamp, region, service)
	sig := hmacSHA256HexS3Like(signingKey, []byte(stringToSign))
	req.Header.Set("Authorization", fmt.Sprintf(
		"AWS4-HMAC-SHA256 Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		s.opts.AccessKey, scope, signedHeaders, sig,
	))
	return nil
}

func canonicalHeadersS3Like(h http.Header) (canonical, signedHeaders string) {
	names := make([]string, 0, len(h))
	for k := range h {
		names = append(names, strings.ToLower(strings.TrimSpace(k)))
	}
	sort.Strings(names)
	var b strings.Builder
	for _, name := range names {
		val := strings.Join(strings.Fields(strings.Join(h.Values(name), ",")), " ")
		b.WriteString(name)
		b.WriteString(":")
		b.WriteString(val)
		b.WriteString("\n")
	}
	return b.String(), strings.Join(names, ";")
}

func deriveSigningKeyS3Like(secret, dateStamp, region, service string) []byte {
	kDate := hmacSHA256S3Like([]byte("AWS4"+secret), []byte(dateStamp))
	kRegion := hmacSHA256S3Like(kDate, []byte(region))
	kService := hmacSHA256S3Like(kRegion, []byte(service))
	return hmacSHA256S3Like(kService, []byte("aws4_request"))
}

func hmacSHA256S3Like(key, data []byte) []byte {
	m := hmac.New(sha256.New, key)
	_, _ = m.Write(data)
	return m.Sum(nil)
}

func hmacSHA256HexS3Like(key, data []byte) string {
	return hex.EncodeToString(hmacSHA256S3Like(key, data))
}

func sha256Hex(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

func normalizeS3LikeOptions(o S3LikeOptions) S3LikeOptions {
	o.Endpoint = strings.TrimSpace(o.Endpoint)
	o.Bucket = strings.TrimSpace(o.Bucket)
	o.AccessKey = strings.TrimSpace(o.AccessKey)
	o.SecretKey = strings.TrimSpace(o.SecretKey)
	o.SessionToken = strings.TrimSpace(o.SessionToken)
	if o.Region == "" {
		o.Region = "us-east-1"
	}
	if o.HTTPTimeout <= 0 {
		o.HTTPTimeout = 20 * time.Second
	}
	return o
}
