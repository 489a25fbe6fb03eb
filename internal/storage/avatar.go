package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/config"
)

var ErrAvatarStorageDisabled = errors.New("avatar storage is not configured")

// Presigner 是 *s3.PresignClient 中用到的部分
type Presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*PresignedRequest, error)
}

// PresignedRequest 只保留上传所需的字段
type PresignedRequest struct {
	URL    string
	Method string
}

type s3Presigner struct {
	client *s3.PresignClient
}

func (p *s3Presigner) PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*PresignedRequest, error) {
	req, err := p.client.PresignPutObject(ctx, params, optFns...)
	if err != nil {
		return nil, err
	}
	return &PresignedRequest{URL: req.URL, Method: req.Method}, nil
}

type AvatarUpload struct {
	Key       string    `json:"key"`
	UploadURL string    `json:"uploadUrl"`
	Method    string    `json:"method"`
	AvatarURL string    `json:"avatarUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type AvatarStore struct {
	presigner     Presigner
	bucket        string
	publicBaseURL string
	expiry        time.Duration
}

// NewAvatarStore 在没有配置 bucket 时返回 nil，头像上传功能随之关闭
func NewAvatarStore(ctx context.Context, cfg *config.Config) (*AvatarStore, error) {
	if cfg.S3.Bucket == "" {
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3.AccessKey,
			cfg.S3.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3.Endpoint)
			o.UsePathStyle = true // MinIO 等兼容实现需要路径风格
		}
	})

	return NewAvatarStoreWithPresigner(
		&s3Presigner{client: s3.NewPresignClient(client)},
		cfg.S3.Bucket,
		cfg.S3.PublicBaseURL,
		time.Duration(cfg.S3.PresignExpiry)*time.Second,
	), nil
}

func NewAvatarStoreWithPresigner(p Presigner, bucket, publicBaseURL string, expiry time.Duration) *AvatarStore {
	return &AvatarStore{
		presigner:     p,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		expiry:        expiry,
	}
}

// PresignUpload 为用户生成一个头像上传地址，客户端上传完成后再把 AvatarURL 写回个人信息
func (s *AvatarStore) PresignUpload(ctx context.Context, uid string, contentType string) (*AvatarUpload, error) {
	if s == nil {
		return nil, ErrAvatarStorageDisabled
	}

	key := "avatars/" + uid + "/" + uuid.NewString()
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	req, err := s.presigner.PresignPutObject(ctx, input, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return nil, err
	}

	return &AvatarUpload{
		Key:       key,
		UploadURL: req.URL,
		Method:    req.Method,
		AvatarURL: s.publicBaseURL + "/" + s.bucket + "/" + key,
		ExpiresAt: time.Now().Add(s.expiry),
	}, nil
}

// OwnsAvatarURL 检查头像地址是否指向该用户自己的上传目录
func (s *AvatarStore) OwnsAvatarURL(uid, avatarURL string) bool {
	if s == nil {
		return false
	}
	return strings.HasPrefix(avatarURL, s.publicBaseURL+"/"+s.bucket+"/avatars/"+uid+"/")
}
