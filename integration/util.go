//go:build integration
// +build integration

package integration

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/bitrise-io/go-utils/v2/log"
)

var logger = log.NewLogger()

func checksumOf(bytes []byte) string {
	hash := sha256.New()
	hash.Write(bytes)
	return hex.EncodeToString(hash.Sum(nil))
}

func requireEnv(t *testing.T, key string) string {
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s is not set, skipping", key)
	}
	return value
}

// testAWSConfig builds the AWS config for integration runs. Static
// credentials from INGEST_TEST_ACCESS_KEY / INGEST_TEST_SECRET_KEY take
// precedence over the ambient credential chain.
func testAWSConfig(t *testing.T) aws.Config {
	var options []func(*awsconfig.LoadOptions) error
	if region := os.Getenv("INGEST_TEST_REGION"); region != "" {
		options = append(options, awsconfig.WithRegion(region))
	}
	if accessKey := os.Getenv("INGEST_TEST_ACCESS_KEY"); accessKey != "" {
		secretKey := requireEnv(t, "INGEST_TEST_SECRET_KEY")
		options = append(options, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), options...)
	if err != nil {
		t.Fatalf("load AWS config: %s", err)
	}
	return cfg
}
