package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/marmos91/dittoh5/internal/logger"
	"github.com/marmos91/dittoh5/pkg/connector"
	"github.com/marmos91/dittoh5/pkg/connector/badger"
	"github.com/marmos91/dittoh5/pkg/connector/memory"
	"github.com/marmos91/dittoh5/pkg/h5"
	"github.com/marmos91/dittoh5/pkg/snapshot"
	snapfs "github.com/marmos91/dittoh5/pkg/snapshot/fs"
	snaps3 "github.com/marmos91/dittoh5/pkg/snapshot/s3"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/afero"
)

// CreateLibrary builds the connector described by cfg and binds a new
// Library to it. The caller owns the Library and must call Shutdown.
func CreateLibrary(ctx context.Context, cfg *Config) (*h5.Library, error) {
	conn, err := CreateConnector(ctx, cfg)
	if err != nil {
		return nil, err
	}

	lib, err := h5.NewLibrary(conn, h5.WithMaxHandles(cfg.Library.MaxHandles))
	if err != nil {
		if closer, ok := conn.(connector.Closer); ok {
			_ = closer.Close()
		}
		return nil, fmt.Errorf("failed to initialize library: %w", err)
	}
	return lib, nil
}

// CreateConnector creates a connector based on configuration.
//
// Supported types:
//   - "memory": pkg/connector/memory, optionally backed by the snapshot sink
//   - "badger": pkg/connector/badger (BadgerDB storage, persistent)
func CreateConnector(ctx context.Context, cfg *Config) (connector.Connector, error) {
	switch cfg.Connector.Type {
	case "memory":
		return createMemoryConnector(ctx, &cfg.Snapshot)
	case "badger":
		return createBadgerConnector(ctx, cfg.Connector.Badger)
	default:
		return nil, fmt.Errorf("unknown connector type: %q (supported: memory, badger)", cfg.Connector.Type)
	}
}

// createMemoryConnector creates an in-memory connector.
func createMemoryConnector(ctx context.Context, snapCfg *SnapshotConfig) (connector.Connector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sink, err := CreateSink(ctx, snapCfg)
	if err != nil {
		return nil, err
	}

	var opts []memory.Option
	if sink != nil {
		opts = append(opts, memory.WithSink(sink))
		logger.Info("Memory connector snapshots to %s sink", sink.Name())
	}
	return memory.NewStore(opts...), nil
}

// createBadgerConnector creates a BadgerDB-based persistent connector.
func createBadgerConnector(ctx context.Context, options map[string]any) (connector.Connector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type BadgerConnectorOptions struct {
		DBPath           string `mapstructure:"db_path"`
		InMemory         bool   `mapstructure:"in_memory"`
		SyncWrites       bool   `mapstructure:"sync_writes"`
		BlockCacheSizeMB int64  `mapstructure:"block_cache_mb"`
		IndexCacheSizeMB int64  `mapstructure:"index_cache_mb"`
	}

	var opts BadgerConnectorOptions
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &opts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(options); err != nil {
		return nil, fmt.Errorf("failed to decode badger connector options: %w", err)
	}

	if opts.DBPath == "" && !opts.InMemory {
		return nil, fmt.Errorf("badger connector: db_path is required")
	}

	store, err := badger.NewStore(ctx, badger.Config{
		Path:             opts.DBPath,
		InMemory:         opts.InMemory,
		SyncWrites:       opts.SyncWrites,
		BlockCacheSizeMB: opts.BlockCacheSizeMB,
		IndexCacheSizeMB: opts.IndexCacheSizeMB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create badger connector: %w", err)
	}
	return store, nil
}

// CreateSink creates the snapshot sink described by cfg. Type "none"
// returns a nil sink and no error.
func CreateSink(ctx context.Context, cfg *SnapshotConfig) (snapshot.Sink, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "filesystem":
		return createFilesystemSink(cfg.Filesystem)
	case "s3":
		return createS3Sink(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown snapshot type: %q (supported: none, filesystem, s3)", cfg.Type)
	}
}

// createFilesystemSink creates a sink on the local filesystem.
func createFilesystemSink(options map[string]any) (snapshot.Sink, error) {
	type FilesystemSinkConfig struct {
		Path string `mapstructure:"path"`
	}

	var sinkCfg FilesystemSinkConfig
	if err := mapstructure.Decode(options, &sinkCfg); err != nil {
		return nil, fmt.Errorf("failed to decode filesystem snapshot config: %w", err)
	}

	if sinkCfg.Path == "" {
		return nil, fmt.Errorf("filesystem snapshot: path is required")
	}

	sink, err := snapfs.NewSink(afero.NewOsFs(), sinkCfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem snapshot sink: %w", err)
	}
	return sink, nil
}

// s3SinkConfig is the decoded form of snapshot.s3.
type s3SinkConfig struct {
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	KeyPrefix       string `mapstructure:"key_prefix"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	MaxRetries      int    `mapstructure:"max_retries"`
}

func decodeS3SinkConfig(options map[string]any) (s3SinkConfig, error) {
	var sinkCfg s3SinkConfig
	if err := mapstructure.Decode(options, &sinkCfg); err != nil {
		return s3SinkConfig{}, fmt.Errorf("failed to decode S3 snapshot config: %w", err)
	}

	if sinkCfg.Bucket == "" {
		return s3SinkConfig{}, fmt.Errorf("S3 snapshot: bucket is required")
	}
	if sinkCfg.Region == "" {
		return s3SinkConfig{}, fmt.Errorf("S3 snapshot: region is required")
	}
	if sinkCfg.MaxRetries == 0 {
		sinkCfg.MaxRetries = 10
	}
	return sinkCfg, nil
}

// newS3Client builds an S3 client from sinkCfg.
func newS3Client(ctx context.Context, sinkCfg s3SinkConfig) (*s3.Client, error) {
	configOptions := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithRegion(sinkCfg.Region),
		awsConfig.WithRetryer(func() aws.Retryer {
			return retry.NewStandard(func(o *retry.StandardOptions) {
				o.MaxAttempts = sinkCfg.MaxRetries
			})
		}),
	}

	// Static credentials if provided, otherwise the default credential chain
	if sinkCfg.AccessKeyID != "" && sinkCfg.SecretAccessKey != "" {
		credProvider := credentials.NewStaticCredentialsProvider(sinkCfg.AccessKeyID, sinkCfg.SecretAccessKey, "")
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(credProvider))
	}

	cfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		// Custom endpoints (MinIO, Localstack) need path-style addressing
		if sinkCfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(sinkCfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// createS3Sink creates an S3-based snapshot sink.
func createS3Sink(ctx context.Context, options map[string]any) (snapshot.Sink, error) {
	sinkCfg, err := decodeS3SinkConfig(options)
	if err != nil {
		return nil, err
	}

	client, err := newS3Client(ctx, sinkCfg)
	if err != nil {
		return nil, err
	}

	sink, err := snaps3.NewSink(ctx, snaps3.SinkConfig{
		Client:    client,
		Bucket:    sinkCfg.Bucket,
		KeyPrefix: sinkCfg.KeyPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 snapshot sink: %w", err)
	}

	logger.Info("S3 snapshot sink initialized: bucket=%s, region=%s, prefix=%s",
		sinkCfg.Bucket, sinkCfg.Region, sinkCfg.KeyPrefix)

	return sink, nil
}
