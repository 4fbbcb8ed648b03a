package aws

import (
	"context"
	"fmt"
	"os"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
)

// LoadAWSConfig loads AWS config from the environment. A LocalStack endpoint
// can be injected via AWS_SNS_ENDPOINT or AWS_ENDPOINT.
func LoadAWSConfig(ctx context.Context) (sdkaws.Config, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return cfg, fmt.Errorf("failed to load aws config: %w", err)
	}
	if cfg.Region == "" {
		cfg.Region = os.Getenv("AWS_REGION")
	}
	return cfg, nil
}

// Endpoint returns the override endpoint for local development, if any.
func Endpoint() string {
	if ep := os.Getenv("AWS_SNS_ENDPOINT"); ep != "" {
		return ep
	}
	return os.Getenv("AWS_ENDPOINT")
}
