package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// UploadPolicy is a browser POST policy: the invitee POSTs the form fields
// plus the file straight to the bucket, and the bucket enforces the exact
// key, the exact content type and the size ceiling regardless of what the
// client claims.
type UploadPolicy struct {
	URL    string            `json:"url"`
	Fields map[string]string `json:"fields"`
	Key    string            `json:"key"`
}

const (
	signingAlgorithm = "AWS4-HMAC-SHA256"
	serviceName      = "s3"
)

// CreateUploadPolicy signs a POST policy for a single object write bounded
// by maxSizeBytes. Signing is local, no network round-trip involved.
func (s *S3Storage) CreateUploadPolicy(key, contentType string, maxSizeBytes int64, ttl time.Duration) (*UploadPolicy, error) {
	creds, err := s.s3Client.Config.Credentials.Get()
	if err != nil {
		return nil, fmt.Errorf("bucket credentials: %w", err)
	}

	now := time.Now().UTC()
	expiration := now.Add(ttl)
	dateStamp := now.Format("20060102")
	amzDate := now.Format("20060102T150405Z")
	credential := strings.Join([]string{creds.AccessKeyID, dateStamp, s.Bucket.Region, serviceName, "aws4_request"}, "/")

	conditions := []interface{}{
		map[string]string{"bucket": s.Bucket.Name},
		map[string]string{"key": key},
		map[string]string{"Content-Type": contentType},
		[]interface{}{"content-length-range", 1, maxSizeBytes},
		map[string]string{"x-amz-algorithm": signingAlgorithm},
		map[string]string{"x-amz-credential": credential},
		map[string]string{"x-amz-date": amzDate},
	}
	if creds.SessionToken != "" {
		conditions = append(conditions, map[string]string{"x-amz-security-token": creds.SessionToken})
	}

	policyDoc, err := json.Marshal(map[string]interface{}{
		"expiration": expiration.Format("2006-01-02T15:04:05.000Z"),
		"conditions": conditions,
	})
	if err != nil {
		return nil, err
	}
	policy := base64.StdEncoding.EncodeToString(policyDoc)
	signature := hex.EncodeToString(hmacSHA256(signingKey(creds.SecretAccessKey, dateStamp, s.Bucket.Region), []byte(policy)))

	fields := map[string]string{
		"key":              key,
		"Content-Type":     contentType,
		"x-amz-algorithm":  signingAlgorithm,
		"x-amz-credential": credential,
		"x-amz-date":       amzDate,
		"Policy":           policy,
		"x-amz-signature":  signature,
	}
	if creds.SessionToken != "" {
		fields["x-amz-security-token"] = creds.SessionToken
	}

	return &UploadPolicy{
		URL:    s.postURL(),
		Fields: fields,
		Key:    key,
	}, nil
}

// postURL is where the browser form POSTs to
func (s *S3Storage) postURL() string {
	if s.Bucket.Endpoint != "" {
		endpoint := strings.TrimRight(s.Bucket.Endpoint, "/")
		if !strings.HasPrefix(endpoint, "http") {
			endpoint = "https://" + endpoint
		}
		return endpoint + "/" + s.Bucket.Name
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", s.Bucket.Name, s.Bucket.Region)
}

func signingKey(secret, dateStamp, region string) []byte {
	k := hmacSHA256([]byte("AWS4"+secret), []byte(dateStamp))
	k = hmacSHA256(k, []byte(region))
	k = hmacSHA256(k, []byte(serviceName))
	return hmacSHA256(k, []byte("aws4_request"))
}

func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}
