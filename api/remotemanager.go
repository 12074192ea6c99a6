package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/aouyang1/photogallery/config"
	"github.com/aouyang1/photogallery/util"
)

const (
	remoteCheckInterval = time.Duration(1 * time.Hour)
	remoteSyncTimeout   = time.Duration(30 * time.Minute)
)

var errNoBucket = errors.New("no s3 bucket provided in environment variable GALLERY_S3_BUCKET")

type s3API interface {
	s3.ListObjectsV2APIClient
	manager.DownloadAPIClient
}

// RemoteManager mirrors an S3 bucket into the remote photos directory.
type RemoteManager struct {
	client s3API

	s3Bucket   string
	outputPath string

	Updated chan bool
}

func NewRemoteManager(ctx context.Context, cfg *config.Config) (*RemoteManager, error) {
	if cfg.S3Bucket == "" {
		return nil, errNoBucket
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.AWSProfile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.AWSProfile))
	}

	// Load the Shared AWS Configuration (~/.aws/config)
	ctxCfg, cancelCfg := context.WithTimeout(ctx, time.Duration(3*time.Second))
	awsCfg, err := awsconfig.LoadDefaultConfig(ctxCfg, opts...)
	cancelCfg()
	if err != nil {
		return nil, fmt.Errorf("unable to load aws config: %w", err)
	}

	return newRemoteManager(s3.NewFromConfig(awsCfg), cfg.S3Bucket, cfg.RemoteDir())
}

func newRemoteManager(client s3API, bucket, outputPath string) (*RemoteManager, error) {
	if err := os.MkdirAll(outputPath, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create remote directory %s: %w", outputPath, err)
	}
	return &RemoteManager{
		client:     client,
		s3Bucket:   bucket,
		outputPath: outputPath,
		Updated:    make(chan bool, 1),
	}, nil
}

func (r *RemoteManager) DownloadObject(ctx context.Context, name string) error {
	downloader := manager.NewDownloader(r.client)

	f, err := os.Create(filepath.Join(r.outputPath, name))
	if err != nil {
		return fmt.Errorf("unable to create file for s3 download, %s, %w", name, err)
	}
	defer f.Close()

	if _, err := downloader.Download(ctx, f, &s3.GetObjectInput{
		Bucket: aws.String(r.s3Bucket),
		Key:    aws.String(name),
	}); err != nil {
		os.Remove(f.Name())
		return fmt.Errorf("unable to download object from s3, %s, %w", name, err)
	}
	return nil
}

func (r *RemoteManager) getLocalFiles() (mapset.Set[string], error) {
	dirs, err := os.ReadDir(r.outputPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read directory, %s, %w", r.outputPath, err)
	}

	localFiles := mapset.NewSet[string]()
	for dir := range slices.Values(dirs) {
		name := dir.Name()
		if dir.IsDir() || !util.SupportedExt.Contains(filepath.Ext(name)) {
			continue
		}
		localFiles.Add(name)
	}

	if localFiles.Cardinality() == 0 {
		slog.Info("no local files found", "path", r.outputPath)
	}
	return localFiles, nil
}

// getRemoteFiles lists the top level images of the bucket.
func (r *RemoteManager) getRemoteFiles(ctx context.Context) (mapset.Set[string], error) {
	remoteFiles := mapset.NewSet[string]()
	paginator := s3.NewListObjectsV2Paginator(r.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(r.s3Bucket),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("unable to list bucket %s: %w", r.s3Bucket, err)
		}
		for object := range slices.Values(page.Contents) {
			name := aws.ToString(object.Key)
			if name != filepath.Base(name) || !util.SupportedExt.Contains(filepath.Ext(name)) {
				continue
			}
			remoteFiles.Add(name)
		}
	}

	if remoteFiles.Cardinality() == 0 {
		slog.Info("no remote files found", "bucket", r.s3Bucket)
	}
	return remoteFiles, nil
}

// SyncFolder downloads missing objects and removes local files that left
// the bucket.
func (r *RemoteManager) SyncFolder(ctx context.Context) error {
	localFiles, err := r.getLocalFiles()
	if err != nil {
		return err
	}

	remoteFiles, err := r.getRemoteFiles(ctx)
	if err != nil {
		return err
	}

	changed := false
	toDelete := localFiles.Difference(remoteFiles).ToSlice()
	toDownload := remoteFiles.Difference(localFiles).ToSlice()
	if len(toDelete) > 0 {
		slog.Info("deleting local files", "count", len(toDelete), "names", toDelete)
		for name := range slices.Values(toDelete) {
			filePath := filepath.Join(r.outputPath, name)
			if err := os.Remove(filePath); err != nil {
				slog.Warn("unable to remove local file", "error", err)
				continue
			}
			changed = true
		}
	}
	if len(toDownload) > 0 {
		slog.Info("adding files", "count", len(toDownload), "names", toDownload)
		for name := range slices.Values(toDownload) {
			if err := r.DownloadObject(ctx, name); err != nil {
				slog.Warn("error while downloading s3 object", "name", name, "error", err)
				continue
			}
			changed = true
		}
	}

	if changed {
		select {
		case r.Updated <- true:
		default:
		}
	}
	return nil
}

func (r *RemoteManager) sync(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, remoteSyncTimeout)
	defer cancel()
	if err := r.SyncFolder(ctx); err != nil {
		slog.Warn("error while syncing with remote", "error", err)
	}
}

func (r *RemoteManager) Run(ctx context.Context) {
	ticker := time.NewTicker(remoteCheckInterval)
	defer ticker.Stop()

	// Initial sync
	r.sync(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sync(ctx)
		}
	}
}
