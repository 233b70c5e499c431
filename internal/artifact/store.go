// Package artifact implements the artifact store: versioned model binaries
// are fetched from S3-compatible blob storage into a local scratch directory
// at startup and deserialized into memory once. The resulting Store is
// constructed in main and injected by reference into every consumer; after a
// successful Load its contents are read-only for the process lifetime.
package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/iliyamo/churn-prediction-api/internal/ml"
)

// ErrUnavailable is returned when an artifact blob cannot be fetched from
// the remote store. Startup treats it as fatal for serving predictions.
var ErrUnavailable = errors.New("artifact unavailable")

// ErrCorrupt is returned when a fetched artifact fails to deserialize or
// fails its consistency checks.
var ErrCorrupt = errors.New("artifact corrupt")

// ErrNoVersions is returned when no version exists under a model name
// upstream.
var ErrNoVersions = errors.New("no versions found for model")

const (
	classifierBlob = "classifier.json"
	featuresBlob   = "features.json"
)

// blobAPI is the slice of the S3 client used by the store; a seam for tests.
type blobAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Options configures a Store.
type Options struct {
	Endpoint  string // custom endpoint for MinIO-style deployments, optional
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	Prefix    string // key prefix under which models live, e.g. "models"
	Name      string // model name to serve
	Version   string // exact version; empty resolves to the latest upstream
	Dir       string // local scratch directory
}

// Store fetches and caches the fitted feature pipeline and classifier.
type Store struct {
	client blobAPI
	opts   Options

	mu         sync.RWMutex
	version    string // resolved version actually loaded
	pipeline   *ml.FeaturePipeline
	classifier *ml.Classifier
}

// NewStore builds a Store with an S3 client using static credentials and an
// optional custom endpoint (path-style addressing, for MinIO).
func NewStore(ctx context.Context, opts Options) (*Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(opts.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKey, opts.SecretKey, "")))
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &Store{client: client, opts: opts}, nil
}

// newStoreWithClient is used by tests to inject a fake blob client.
func newStoreWithClient(client blobAPI, opts Options) *Store {
	return &Store{client: client, opts: opts}
}

// NewStaticStore returns a Store whose artifacts are already resident. It
// backs in-process tests and local fixtures that have no blob store to fetch
// from.
func NewStaticStore(name, version string, p *ml.FeaturePipeline, c *ml.Classifier) *Store {
	return &Store{
		opts:       Options{Name: name, Version: version},
		version:    version,
		pipeline:   p,
		classifier: c,
	}
}

// Load fetches and deserializes both artifacts. It is idempotent: when the
// artifacts are already resident it returns immediately. When no version was
// configured, the highest numeric version upstream is resolved first.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pipeline != nil && s.classifier != nil {
		return nil // already loaded
	}

	version := s.opts.Version
	if version == "" {
		v, err := s.latestVersion(ctx, s.opts.Name)
		if err != nil {
			return err
		}
		version = v
	}

	clfPath, err := s.download(ctx, version, classifierBlob)
	if err != nil {
		return err
	}
	fePath, err := s.download(ctx, version, featuresBlob)
	if err != nil {
		return err
	}

	var clf ml.Classifier
	if err := decodeFile(clfPath, &clf); err != nil {
		return err
	}
	if err := clf.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	var fe ml.FeaturePipeline
	if err := decodeFile(fePath, &fe); err != nil {
		return err
	}
	if err := fe.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if len(fe.Columns) != len(clf.Coefficients) {
		return fmt.Errorf("%w: pipeline emits %d columns but classifier expects %d",
			ErrCorrupt, len(fe.Columns), len(clf.Coefficients))
	}

	s.version = version
	s.pipeline = &fe
	s.classifier = &clf
	return nil
}

// Loaded reports whether artifacts are resident. The readiness probe keys
// off this so /predict is not advertised healthy before startup completes.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pipeline != nil && s.classifier != nil
}

// Name returns the configured model name.
func (s *Store) Name() string { return s.opts.Name }

// Version returns the resolved version of the loaded artifacts, empty before
// a successful Load.
func (s *Store) Version() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Pipeline returns the loaded feature pipeline, nil before Load.
func (s *Store) Pipeline() *ml.FeaturePipeline {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pipeline
}

// Classifier returns the loaded classifier, nil before Load.
func (s *Store) Classifier() *ml.Classifier {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.classifier
}

// LatestVersion resolves the highest numeric version available upstream for
// name. Model registration uses this to stamp new registry rows.
func (s *Store) LatestVersion(ctx context.Context, name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latestVersion(ctx, name)
}

func (s *Store) latestVersion(ctx context.Context, name string) (string, error) {
	prefix := path.Join(s.opts.Prefix, name) + "/"
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.opts.Bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})
	if err != nil {
		return "", fmt.Errorf("%w: list %s: %v", ErrUnavailable, prefix, err)
	}

	best := -1
	for _, cp := range out.CommonPrefixes {
		if cp.Prefix == nil {
			continue
		}
		v := strings.TrimSuffix(strings.TrimPrefix(*cp.Prefix, prefix), "/")
		n, err := strconv.Atoi(v)
		if err != nil {
			continue // non-numeric keys are ignored
		}
		if n > best {
			best = n
		}
	}
	if best < 0 {
		return "", fmt.Errorf("%w: %s", ErrNoVersions, name)
	}
	return strconv.Itoa(best), nil
}

// download fetches one blob into the scratch directory and returns the local
// path.
func (s *Store) download(ctx context.Context, version, blob string) (string, error) {
	key := path.Join(s.opts.Prefix, s.opts.Name, version, blob)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("%w: fetch %s: %v", ErrUnavailable, key, err)
	}
	defer out.Body.Close()

	local := filepath.Join(s.opts.Dir, fmt.Sprintf("%s-%s-%s", s.opts.Name, version, blob))
	if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		return "", fmt.Errorf("%w: scratch dir: %v", ErrUnavailable, err)
	}
	f, err := os.Create(local)
	if err != nil {
		return "", fmt.Errorf("%w: scratch file: %v", ErrUnavailable, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, out.Body); err != nil {
		return "", fmt.Errorf("%w: write %s: %v", ErrUnavailable, local, err)
	}
	return local, nil
}

func decodeFile(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", ErrUnavailable, path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrCorrupt, filepath.Base(path), err)
	}
	return nil
}
