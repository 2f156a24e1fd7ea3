package s3

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/kitstore-backend/pkg/errors"
)

type stubPresigner struct {
	input   *awss3.PutObjectInput
	expires time.Duration
	err     error
}

func (s *stubPresigner) PresignPutObject(_ context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	s.input = params
	opts := awss3.PresignOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	s.expires = opts.Expires
	if s.err != nil {
		return nil, s.err
	}
	return &v4.PresignedHTTPRequest{
		URL:          "https://bucket.s3.amazonaws.com/" + aws.ToString(params.Key) + "?X-Amz-Signature=abc",
		Method:       http.MethodPut,
		SignedHeader: http.Header{"Host": {"bucket.s3.amazonaws.com"}, "Cache-Control": {"max-age=31536000"}},
	}, nil
}

func TestPresignImageUpload(t *testing.T) {
	stub := &stubPresigner{}
	client := newClient(stub, "bucket", "https://cdn.kitstore.test", 10*time.Minute)
	client.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }

	ticket, err := client.PresignImageUpload(context.Background(), "/banners/", "image/PNG")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(ticket.Key, "banners/2025/03/"))
	assert.True(t, strings.HasSuffix(ticket.Key, ".png"))
	assert.Equal(t, "https://cdn.kitstore.test/"+ticket.Key, ticket.PublicURL)
	assert.Equal(t, http.MethodPut, ticket.Method)
	assert.Equal(t, "image/png", ticket.Headers["Content-Type"])
	assert.Equal(t, "max-age=31536000", ticket.Headers["Cache-Control"])
	assert.NotContains(t, ticket.Headers, "Host")
	assert.Equal(t, 10*time.Minute, stub.expires)
	assert.Equal(t, "bucket", aws.ToString(stub.input.Bucket))
	assert.Equal(t, time.Date(2025, 3, 1, 12, 10, 0, 0, time.UTC), ticket.ExpiresAt)
}

func TestPresignRejectsNonImages(t *testing.T) {
	client := newClient(&stubPresigner{}, "bucket", "https://cdn", 0)
	_, err := client.PresignImageUpload(context.Background(), "banners", "application/pdf")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestPresignFailureIsDependency(t *testing.T) {
	client := newClient(&stubPresigner{err: errors.New("no creds")}, "bucket", "https://cdn", 0)
	_, err := client.PresignImageUpload(context.Background(), "banners", "image/jpeg")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}
