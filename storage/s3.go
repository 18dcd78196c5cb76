package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/parquedb/parquedb/core"
)

// S3Config carries the optional authentication/endpoint overrides for
// S3Backend, generalizing the teacher's db/remote.go s3Config struct from
// one-shot get/put into the full StorageBackend contract.
type S3Config struct {
	AccessKey string
	SecretKey string
	Region    string
	Endpoint  string // optional S3-compatible endpoint override
}

// S3Backend is a Backend over an S3 (or S3-compatible) bucket, generalizing
// db/remote.go's openS3Reader/openS3Writer from one-shot transfers into the
// full read/write/list/copy/move contract.
type S3Backend struct {
	client *s3.Client
	bucket string
}

// NewS3Backend creates an S3-backed Backend rooted at bucket, using cfg (may
// be nil to fall back to the default AWS credential chain and region).
func NewS3Backend(ctx context.Context, bucket string, cfg *S3Config) (*S3Backend, error) {
	client, err := newS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &S3Backend{client: client, bucket: bucket}, nil
}

func newS3Client(ctx context.Context, cfg *S3Config) (*s3.Client, error) {
	var opts []func(*config.LoadOptions) error
	if cfg != nil && cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg != nil && cfg.AccessKey != "" && cfg.SecretKey != "" {
		creds := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		opts = append(opts, config.WithCredentialsProvider(creds))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, core.NewError(core.CodeIO, "NewS3Backend", "", err)
	}

	var clientOpts []func(*s3.Options)
	if cfg != nil && cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}
	return s3.NewFromConfig(awsCfg, clientOpts...), nil
}

func (b *S3Backend) key(path string) string { return path }

func isNotFound(err error) bool {
	var nf *types.NoSuchKey
	if errors.As(err, &nf) {
		return true
	}
	var apiErr *smithyhttp.ResponseError
	if errors.As(err, &apiErr) {
		return apiErr.Response.StatusCode == 404
	}
	return false
}

func (b *S3Backend) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ValidatePath("Read", path); err != nil {
		return nil, err
	}
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(path)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, core.NewErrorf(core.CodeNotFound, "Read", path, "object not found")
		}
		return nil, core.NewError(core.CodeIO, "Read", path, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, core.NewError(core.CodeIO, "Read", path, err)
	}
	return data, nil
}

func (b *S3Backend) ReadRange(ctx context.Context, path string, start, end int64) ([]byte, error) {
	if err := ValidateRange("ReadRange", path, start, end); err != nil {
		return nil, err
	}
	rangeHeader := fmt.Sprintf("bytes=%d-%d", start, end-1)
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(path)),
		Range:  aws.String(rangeHeader),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, core.NewErrorf(core.CodeNotFound, "ReadRange", path, "object not found")
		}
		return nil, core.NewError(core.CodeIO, "ReadRange", path, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, core.NewError(core.CodeIO, "ReadRange", path, err)
	}
	return data, nil
}

func (b *S3Backend) put(ctx context.Context, path string, data []byte, extra func(*s3.PutObjectInput)) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(path)),
		Body:   bytes.NewReader(data),
	}
	if extra != nil {
		extra(input)
	}
	out, err := b.client.PutObject(ctx, input)
	if err != nil {
		return "", core.NewError(core.CodeIO, "Write", path, err)
	}
	etag := ""
	if out.ETag != nil {
		etag = strings.Trim(*out.ETag, `"`)
	}
	return etag, nil
}

func (b *S3Backend) Write(ctx context.Context, path string, data []byte) (string, error) {
	if err := ValidatePath("Write", path); err != nil {
		return "", err
	}
	if err := ValidateBuffer("Write", path, data); err != nil {
		return "", err
	}
	return b.put(ctx, path, data, nil)
}

// WriteAtomic is equivalent to Write: a single PutObject call is already
// atomic from a reader's perspective in S3.
func (b *S3Backend) WriteAtomic(ctx context.Context, path string, data []byte) (string, error) {
	return b.Write(ctx, path, data)
}

func (b *S3Backend) WriteConditional(ctx context.Context, path string, data []byte, opts WriteOptions) (string, error) {
	if err := ValidatePath("WriteConditional", path); err != nil {
		return "", err
	}
	if err := ValidateBuffer("WriteConditional", path, data); err != nil {
		return "", err
	}

	etag, err := b.put(ctx, path, data, func(in *s3.PutObjectInput) {
		if opts.IfNoneMatch != nil {
			in.IfNoneMatch = aws.String(*opts.IfNoneMatch)
		}
		if opts.IfMatch != nil {
			if *opts.IfMatch == "" {
				in.IfNoneMatch = aws.String("*")
			} else {
				in.IfMatch = aws.String(*opts.IfMatch)
			}
		}
	})
	if err != nil {
		var apiErr *smithyhttp.ResponseError
		if errors.As(err, &apiErr) && (apiErr.Response.StatusCode == 412 || apiErr.Response.StatusCode == 409) {
			actual := ""
			if existing, statErr := b.Stat(ctx, path); statErr == nil {
				actual = existing.ETag
			}
			expected := ""
			if opts.IfMatch != nil {
				expected = *opts.IfMatch
			} else if opts.IfNoneMatch != nil {
				expected = *opts.IfNoneMatch
			}
			return "", core.ETagMismatchError("WriteConditional", path, expected, actual)
		}
		return "", err
	}
	return etag, nil
}

func (b *S3Backend) Exists(ctx context.Context, path string) (bool, error) {
	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(path)),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, core.NewError(core.CodeIO, "Exists", path, err)
	}
	return true, nil
}

func (b *S3Backend) Stat(ctx context.Context, path string) (ObjectStat, error) {
	out, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(path)),
	})
	if err != nil {
		if isNotFound(err) {
			return ObjectStat{}, core.NewErrorf(core.CodeNotFound, "Stat", path, "object not found")
		}
		return ObjectStat{}, core.NewError(core.CodeIO, "Stat", path, err)
	}
	etag := ""
	if out.ETag != nil {
		etag = strings.Trim(*out.ETag, `"`)
	}
	size := int64(0)
	if out.ContentLength != nil {
		size = *out.ContentLength
	}
	return ObjectStat{Size: size, ETag: etag, ContentType: out.ContentType}, nil
}

func (b *S3Backend) Delete(ctx context.Context, path string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(path)),
	})
	if err != nil {
		return core.NewError(core.CodeIO, "Delete", path, err)
	}
	return nil
}

func (b *S3Backend) DeletePrefix(ctx context.Context, prefix string) error {
	var cursor *string
	for {
		res, err := b.List(ctx, prefix, ListOptions{Cursor: cursor, Limit: 1000})
		if err != nil {
			return err
		}
		if len(res.Files) == 0 {
			return nil
		}
		objs := make([]types.ObjectIdentifier, len(res.Files))
		for i, f := range res.Files {
			objs[i] = types.ObjectIdentifier{Key: aws.String(f)}
		}
		if _, err := b.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(b.bucket),
			Delete: &types.Delete{Objects: objs},
		}); err != nil {
			return core.NewError(core.CodeIO, "DeletePrefix", prefix, err)
		}
		if !res.HasMore {
			return nil
		}
		cursor = res.Cursor
	}
}

func (b *S3Backend) List(ctx context.Context, prefix string, opts ListOptions) (ListResult, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(prefix),
	}
	if opts.Limit > 0 {
		input.MaxKeys = aws.Int32(int32(opts.Limit))
	}
	if opts.Cursor != nil {
		input.StartAfter = aws.String(*opts.Cursor)
	}
	out, err := b.client.ListObjectsV2(ctx, input)
	if err != nil {
		return ListResult{}, core.NewError(core.CodeIO, "List", prefix, err)
	}
	files := make([]string, 0, len(out.Contents))
	for _, obj := range out.Contents {
		if obj.Key != nil {
			files = append(files, *obj.Key)
		}
	}
	sort.Strings(files)
	res := ListResult{Files: files, HasMore: out.IsTruncated != nil && *out.IsTruncated}
	if res.HasMore && len(files) > 0 {
		c := files[len(files)-1]
		res.Cursor = &c
	}
	return res, nil
}

func (b *S3Backend) Copy(ctx context.Context, src, dst string) error {
	source := b.bucket + "/" + src
	_, err := b.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(b.bucket),
		Key:        aws.String(b.key(dst)),
		CopySource: aws.String(source),
	})
	if err != nil {
		return core.NewError(core.CodeIO, "Copy", src, err)
	}
	return nil
}

func (b *S3Backend) Move(ctx context.Context, src, dst string) error {
	if err := b.Copy(ctx, src, dst); err != nil {
		return err
	}
	return b.Delete(ctx, src)
}

// Append reads the full object, appends data, and writes it back with an
// unconditional PutObject, since S3 has no native append.
func (b *S3Backend) Append(ctx context.Context, path string, data []byte) (string, error) {
	if err := ValidateBuffer("Append", path, data); err != nil {
		return "", err
	}
	existing, err := b.Read(ctx, path)
	if err != nil && core.CodeOf(err) != core.CodeNotFound {
		return "", err
	}
	return b.put(ctx, path, append(existing, data...), nil)
}
