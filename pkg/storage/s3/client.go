package s3

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/angelmondragon/kitstore-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/kitstore-backend/pkg/errors"
	"github.com/angelmondragon/kitstore-backend/pkg/logger"
)

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

var errBucketRequired = errors.New("s3 bucket is required")

type presignAPI interface {
	PresignPutObject(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// UploadTicket is what a browser needs to PUT an object directly into the bucket.
type UploadTicket struct {
	UploadURL string            `json:"uploadUrl"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	Key       string            `json:"key"`
	PublicURL string            `json:"publicUrl"`
	ExpiresAt time.Time         `json:"expiresAt"`
}

// Client issues presigned upload URLs for catalog and banner images.
type Client struct {
	presigner  presignAPI
	bucket     string
	publicBase string
	expiry     time.Duration
	now        func() time.Time
}

// NewClient loads the default AWS credential chain for the configured region.
func NewClient(ctx context.Context, awsCfg config.AWSConfig, cfg config.StorageConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errBucketRequired
	}
	sdkCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(awsCfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	presigner := awss3.NewPresignClient(awss3.NewFromConfig(sdkCfg))

	publicBase := strings.TrimRight(cfg.PublicBaseURL, "/")
	if publicBase == "" {
		publicBase = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, awsCfg.Region)
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "bucket", cfg.Bucket), "s3 presigner ready")
	}
	return newClient(presigner, cfg.Bucket, publicBase, cfg.UploadURLExpiry), nil
}

func newClient(presigner presignAPI, bucket, publicBase string, expiry time.Duration) *Client {
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &Client{
		presigner:  presigner,
		bucket:     bucket,
		publicBase: publicBase,
		expiry:     expiry,
		now:        time.Now,
	}
}

// PresignImageUpload returns a PUT URL for a new object under prefix.
func (c *Client) PresignImageUpload(ctx context.Context, prefix, contentType string) (*UploadTicket, error) {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported image content type").
			WithDetails(map[string]any{"content_type": contentType})
	}

	now := c.now().UTC()
	key := path.Join(
		strings.Trim(prefix, "/"),
		fmt.Sprintf("%d/%02d", now.Year(), now.Month()),
		uuid.NewString()+ext,
	)

	req, err := c.presigner.PresignPutObject(ctx, &awss3.PutObjectInput{
		Bucket:       aws.String(c.bucket),
		Key:          aws.String(key),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("max-age=31536000"),
	}, awss3.WithPresignExpires(c.expiry))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "presign upload url")
	}

	headers := map[string]string{"Content-Type": contentType}
	for name, values := range req.SignedHeader {
		if len(values) > 0 && !strings.EqualFold(name, "host") {
			headers[http.CanonicalHeaderKey(name)] = values[0]
		}
	}

	return &UploadTicket{
		UploadURL: req.URL,
		Method:    req.Method,
		Headers:   headers,
		Key:       key,
		PublicURL: c.publicBase + "/" + key,
		ExpiresAt: now.Add(c.expiry),
	}, nil
}
