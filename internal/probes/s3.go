package probes

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// MinioProbe lists buckets against the in-cluster MinIO S3 endpoint,
// proving the object store is up and the root credentials work. MinIO
// requires path-style addressing; the region is nominal.
func MinioProbe(ctx context.Context, endpoint, accessKey, secretKey string) Result {
	if endpoint == "" || accessKey == "" || secretKey == "" {
		return Result{
			Service: "minio",
			Status:  StatusDegraded,
			Reason:  "minio credentials not configured",
		}
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("us-east-1"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
	)
	if err != nil {
		return Result{Service: "minio", Status: StatusDown, Reason: err.Error()}
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	out, err := client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return Result{Service: "minio", Status: StatusDown, Reason: err.Error()}
	}

	return Result{
		Service: "minio",
		Status:  StatusOK,
		Detail:  fmt.Sprintf("%d buckets", len(out.Buckets)),
	}
}
