// Package remote mirrors chunk records to an S3-compatible key-value store.
// Requests are signed with SigV4 directly over net/http; the object layout
// is a versioned root path per world:
//
//	v1/worlds/<worldID>/chunks/<cx>,<cy>,<z>
//	v1/worlds/<worldID>/meta/seed
package remote

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tilevale/internal/sim/world"
)

const (
	sigV4Algorithm = "AWS4-HMAC-SHA256"
	sigV4Region    = "auto"
	sigV4Service   = "s3"

	rootPrefix = "v1/worlds"
)

type Client struct {
	endpoint        string
	bucket          string
	worldID         string
	accessKeyID     string
	secretAccessKey string
	httpClient      *http.Client
}

func New(endpoint, bucket, worldID, accessKeyID, secretAccessKey string) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	bucket = strings.TrimSpace(bucket)
	worldID = strings.TrimSpace(worldID)
	if endpoint == "" || bucket == "" || worldID == "" || accessKeyID == "" || secretAccessKey == "" {
		return nil, fmt.Errorf("endpoint/bucket/world id/access key/secret key are required")
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid endpoint: %s", endpoint)
	}
	return &Client{
		endpoint:        strings.TrimRight(u.String(), "/"),
		bucket:          bucket,
		worldID:         worldID,
		accessKeyID:     accessKeyID,
		secretAccessKey: secretAccessKey,
		httpClient:      &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// PutChunk uploads one chunk record as JSON. Implements world.RemoteBackend.
func (c *Client) PutChunk(ctx context.Context, key string, rec world.Record) error {
	if _, err := world.ParseChunkKey(key); err != nil {
		return err
	}
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode chunk %s: %w", key, err)
	}
	return c.put(ctx, c.chunkObjectKey(key), body)
}

// GetChunk fetches one chunk record; the bool reports presence.
func (c *Client) GetChunk(ctx context.Context, key string) (world.Record, bool, error) {
	if _, err := world.ParseChunkKey(key); err != nil {
		return world.Record{}, false, err
	}
	body, found, err := c.get(ctx, c.chunkObjectKey(key))
	if err != nil || !found {
		return world.Record{}, found, err
	}
	var rec world.Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return world.Record{}, false, fmt.Errorf("decode chunk %s: %w", key, err)
	}
	return rec, true, nil
}

// PutSeed stores the world seed so a fresh node can adopt an existing world.
func (c *Client) PutSeed(ctx context.Context, seed int64) error {
	return c.put(ctx, c.metaObjectKey("seed"), []byte(fmt.Sprintf("%d", seed)))
}

func (c *Client) chunkObjectKey(key string) string {
	return fmt.Sprintf("%s/%s/chunks/%s", rootPrefix, c.worldID, key)
}

func (c *Client) metaObjectKey(name string) string {
	return fmt.Sprintf("%s/%s/meta/%s", rootPrefix, c.worldID, name)
}

func (c *Client) put(ctx context.Context, objectKey string, body []byte) error {
	req, err := c.signedRequest(ctx, http.MethodPut, objectKey, body)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 8*1024))
	return fmt.Errorf("remote put failed status=%d key=%s body=%s",
		resp.StatusCode, objectKey, strings.TrimSpace(string(msg)))
}

func (c *Client) get(ctx context.Context, objectKey string) ([]byte, bool, error) {
	req, err := c.signedRequest(ctx, http.MethodGet, objectKey, nil)
	if err != nil {
		return nil, false, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 8*1024))
		return nil, false, fmt.Errorf("remote get failed status=%d key=%s body=%s",
			resp.StatusCode, objectKey, strings.TrimSpace(string(msg)))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, err
	}
	return body, true, nil
}

// signedRequest builds a SigV4-signed request for one object. Only the
// minimal host/content-sha256/date header set is signed.
func (c *Client) signedRequest(ctx context.Context, method, objectKey string, body []byte) (*http.Request, error) {
	payloadHash := sha256Hex(body)
	now := time.Now().UTC()
	amzDate := now.Format("20060102T150405Z")
	dateStamp := now.Format("20060102")

	canonicalURI := "/" + c.bucket + "/" + escapePath(objectKey)
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+canonicalURI, reader)
	if err != nil {
		return nil, err
	}
	host := req.URL.Host
	req.Header.Set("Host", host)
	req.Header.Set("x-amz-content-sha256", payloadHash)
	req.Header.Set("x-amz-date", amzDate)
	req.Header.Set("Content-Type", "application/json")
	req.ContentLength = int64(len(body))

	signedHeaders := "host;x-amz-content-sha256;x-amz-date"
	canonicalHeaders := "host:" + host + "\n" +
		"x-amz-content-sha256:" + payloadHash + "\n" +
		"x-amz-date:" + amzDate + "\n"

	canonicalRequest := strings.Join([]string{
		method,
		canonicalURI,
		"",
		canonicalHeaders,
		signedHeaders,
		payloadHash,
	}, "\n")

	scope := strings.Join([]string{dateStamp, sigV4Region, sigV4Service, "aws4_request"}, "/")
	stringToSign := strings.Join([]string{
		sigV4Algorithm,
		amzDate,
		scope,
		sha256Hex([]byte(canonicalRequest)),
	}, "\n")

	signingKey := deriveSigningKey(c.secretAccessKey, dateStamp, sigV4Region, sigV4Service)
	signature := hex.EncodeToString(hmacSHA256(signingKey, []byte(stringToSign)))
	req.Header.Set("Authorization", fmt.Sprintf(
		"%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		sigV4Algorithm, c.accessKeyID, scope, signedHeaders, signature,
	))
	return req, nil
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i := range parts {
		parts[i] = url.PathEscape(parts[i])
	}
	return strings.Join(parts, "/")
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func deriveSigningKey(secret, date, region, service string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secret), []byte(date))
	kRegion := hmacSHA256(kDate, []byte(region))
	kService := hmacSHA256(kRegion, []byte(service))
	return hmacSHA256(kService, []byte("aws4_request"))
}

func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	_, _ = h.Write(data)
	return h.Sum(nil)
}
