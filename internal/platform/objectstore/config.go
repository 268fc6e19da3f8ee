package objectstore

import (
	"errors"
	"fmt"
	"strings"
)

type Config struct {
	Endpoint  string `koanf:"endpoint"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
	Region    string `koanf:"region"`
	UseSSL    bool   `koanf:"use_ssl"`
	// BucketArtifacts holds task data artifacts such as generated images.
	BucketArtifacts string `koanf:"bucket_artifacts"`
	// BucketModels holds model-store artifact sets.
	BucketModels string `koanf:"bucket_models"`
	// ModelRoot is the key prefix of the model store inside BucketModels.
	ModelRoot string `koanf:"model_root"`
}

func DefaultConfig() Config {
	return Config{
		Endpoint:        "localhost:9000",
		AccessKey:       "flowreel",
		SecretKey:       "flowreelminio",
		Region:          "us-east-1",
		BucketArtifacts: "flow-artifacts",
		BucketModels:    "model-store",
		ModelRoot:       "models",
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return errors.New("endpoint is required")
	}
	if strings.TrimSpace(c.AccessKey) == "" {
		return errors.New("access key is required")
	}
	if strings.TrimSpace(c.SecretKey) == "" {
		return errors.New("secret key is required")
	}
	if strings.TrimSpace(c.Region) == "" {
		return errors.New("region is required")
	}
	if strings.TrimSpace(c.BucketArtifacts) == "" {
		return errors.New("artifacts bucket is required")
	}
	if strings.TrimSpace(c.BucketModels) == "" {
		return errors.New("models bucket is required")
	}
	if strings.Contains(c.Endpoint, "://") {
		return fmt.Errorf("endpoint must not include scheme: %q", c.Endpoint)
	}
	return nil
}
