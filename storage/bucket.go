package storage

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// Bucket holds the connection details for one S3-compatible bucket.
// Credentials never leave the server; invitees only ever see signed policies.
type Bucket struct {
	ID         uint64 `gorm:"primaryKey" json:"id"`
	CreatedAt  int64  `json:"createdAt"`
	UpdatedAt  int64  `json:"updatedAt"`
	Name       string `gorm:"type:varchar(200)" json:"name"` // S3 bucket name
	Endpoint   string `gorm:"type:varchar(255)" json:"endpoint"`
	Region     string `gorm:"type:varchar(50)" json:"region"`
	S3Key      string `gorm:"type:varchar(200)" json:"s3key,omitempty"`
	S3Secret   string `gorm:"type:varchar(200)" json:"s3secret,omitempty"`
	PublicBase string `gorm:"type:varchar(255)" json:"publicBase"` // public URL base, empty means presigned GETs only
}

func (b *Bucket) CreateSVC() *s3.S3 {
	config := aws.Config{
		Region:      aws.String(b.Region),
		Credentials: credentials.NewStaticCredentials(b.S3Key, b.S3Secret, ""),
	}
	if b.Endpoint != "" {
		config.Endpoint = aws.String(b.Endpoint)
		config.S3ForcePathStyle = aws.Bool(true)
	}
	return s3.New(session.Must(session.NewSession(&config)))
}

// PublicURL returns the CDN-facing URL for a key, or "" when the bucket has
// no public base and callers should fall back to a presigned GET.
func (b *Bucket) PublicURL(key string) string {
	if b.PublicBase == "" {
		return ""
	}
	base := b.PublicBase
	if base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	return base + "/" + key
}
