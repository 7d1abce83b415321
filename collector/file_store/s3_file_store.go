package file_store

import (
	"io"
	"path"
	"strings"

	Logger "github.com/Luismorlan/instag/utils/log"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/pkg/errors"
)

const (
	TestS3Bucket    = "instag-dev-bucket"
	DefaultS3Region = "us-west-1"
)

type S3FileStore struct {
	bucket          string
	uploader        *s3manager.Uploader
	svc             *s3.S3
	publicUrlPrefix string
}

// NewS3FileStore uploads into bucket. publicUrlPrefix (e.g. a CDN domain) is
// prepended to keys by GetUrlFromKey; when empty the bucket's s3 url is used.
func NewS3FileStore(bucket, region, publicUrlPrefix string) (*S3FileStore, error) {
	if region == "" {
		region = DefaultS3Region
	}
	// AWS client session
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, err
	}

	if publicUrlPrefix == "" {
		publicUrlPrefix = "https://" + bucket + ".s3." + region + ".amazonaws.com/"
	}
	if !strings.HasSuffix(publicUrlPrefix, "/") {
		publicUrlPrefix += "/"
	}

	return &S3FileStore{
		bucket:          bucket,
		uploader:        s3manager.NewUploader(sess),
		svc:             s3.New(sess),
		publicUrlPrefix: publicUrlPrefix,
	}, nil
}

// S3 has no directories, keys carry the full path.
func (s *S3FileStore) EnsureDirectory(dir string) error {
	return nil
}

// If key existed, just return the existing key without update file
func (s *S3FileStore) WriteData(data io.Reader, filePath string) (string, error) {
	key := path.Clean(strings.TrimPrefix(filePath, "/"))
	if s.IsKeyExisted(key) {
		return key, nil
	}

	_, err := s.uploader.Upload(&s3manager.UploadInput{
		ACL:    aws.String("public-read"),
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   data,
	})
	if err != nil {
		Logger.Log.Warn("fail to upload file to s3, key: ", key, " err: ", err)
		return "", errors.Wrap(err, "fail to upload "+key)
	}
	return key, nil
}

func (s *S3FileStore) IsKeyExisted(key string) bool {
	_, err := s.svc.HeadObject(&s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err == nil
}

func (s *S3FileStore) GetUrlFromKey(key string) string {
	return s.publicUrlPrefix + key
}

func (s *S3FileStore) Delete(key string) error {
	_, err := s.svc.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return errors.Wrap(err, "fail to delete "+key)
}

func (s *S3FileStore) CleanUp() {
	// do nothing for s3
}
