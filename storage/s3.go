package storage

import (
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
)

type S3Storage struct {
	Bucket   *Bucket
	s3Client *s3.S3
}

type Object struct {
	Key          string `json:"key"`
	Size         int64  `json:"size"`
	ETag         string `json:"etag"`
	LastModified int64  `json:"lastModified"`
}

func NewS3Storage(bucket *Bucket) *S3Storage {
	return &S3Storage{
		Bucket:   bucket,
		s3Client: bucket.CreateSVC(),
	}
}

// CreateDownloadURL presigns a GET for the given key
func (s *S3Storage) CreateDownloadURL(key string, ttl time.Duration) (string, error) {
	req, _ := s.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: &s.Bucket.Name,
		Key:    aws.String(key),
	})
	return req.Presign(ttl)
}

// CreateUploadURL presigns a PUT for the given key. The content type is part
// of the signature, so a mismatched upload is rejected by the bucket itself.
func (s *S3Storage) CreateUploadURL(key, contentType string, ttl time.Duration) (string, error) {
	req, _ := s.s3Client.PutObjectRequest(&s3.PutObjectInput{
		Bucket:      &s.Bucket.Name,
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	})
	return req.Presign(ttl)
}

func (s *S3Storage) DeleteObject(key string) error {
	_, err := s.s3Client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: &s.Bucket.Name,
		Key:    aws.String(key),
	})
	return err
}

// ListObjects returns one page of keys under prefix plus the continuation
// token for the next page ("" when done).
func (s *S3Storage) ListObjects(prefix, continuationToken string, maxKeys int64) ([]Object, string, error) {
	input := &s3.ListObjectsV2Input{
		Bucket:  &s.Bucket.Name,
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int64(maxKeys),
	}
	if continuationToken != "" {
		input.ContinuationToken = aws.String(continuationToken)
	}
	resp, err := s.s3Client.ListObjectsV2(input)
	if err != nil {
		return nil, "", err
	}
	objects := make([]Object, 0, len(resp.Contents))
	for _, item := range resp.Contents {
		objects = append(objects, Object{
			Key:          aws.StringValue(item.Key),
			Size:         aws.Int64Value(item.Size),
			ETag:         aws.StringValue(item.ETag),
			LastModified: aws.TimeValue(item.LastModified).Unix(),
		})
	}
	next := ""
	if aws.BoolValue(resp.IsTruncated) {
		next = aws.StringValue(resp.NextContinuationToken)
	}
	return objects, next, nil
}
