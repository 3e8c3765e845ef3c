package bulk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"

	"prefmodel/core/model"
	"prefmodel/core/storage"

	"github.com/minio/minio-go/v7"
)

// Source gives the loader access to corpus files by slash-separated name
// relative to the corpus root.
type Source interface {
	// Open streams one file.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// List returns the files directly in dir whose base name starts with
	// prefix, sorted by name.
	List(ctx context.Context, dir, prefix string) ([]string, error)
	// String names the source in logs and errors.
	String() string
}

// DirSource reads the corpus from a file system, normally os.DirFS.
type DirSource struct {
	FS   fs.FS
	Root string
}

func (s DirSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	f, err := s.FS.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, model.ErrNotFound)
	}
	return f, err
}

func (s DirSource) List(_ context.Context, dir, prefix string) ([]string, error) {
	entries, err := fs.ReadDir(s.FS, dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", dir, model.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		names = append(names, path.Join(dir, e.Name()))
	}
	sort.Strings(names)
	return names, nil
}

func (s DirSource) String() string {
	if s.Root != "" {
		return s.Root
	}
	return "fs"
}

// BucketSource reads the corpus from an object storage bucket.
type BucketSource struct {
	Client storage.Client
	Bucket string
	// Prefix is the corpus root inside the bucket.
	Prefix string
}

func (s BucketSource) key(name string) string {
	return strings.TrimPrefix(path.Join(s.Prefix, name), "/")
}

func (s BucketSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	obj, err := s.Client.GetObject(ctx, s.Bucket, s.key(name), minio.GetObjectOptions{})
	if storage.IsNotFound(err) {
		return nil, fmt.Errorf("%s: %w", name, model.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &objectReader{ReadCloser: obj, name: name}, nil
}

// objectReader reports a missing key, which the server only reveals on the
// first read, as ErrNotFound.
type objectReader struct {
	io.ReadCloser
	name string
}

func (r *objectReader) Read(p []byte) (int, error) {
	n, err := r.ReadCloser.Read(p)
	if storage.IsNotFound(err) {
		return n, fmt.Errorf("%s: %w", r.name, model.ErrNotFound)
	}
	return n, err
}

func (s BucketSource) List(ctx context.Context, dir, prefix string) ([]string, error) {
	exists, err := s.Client.BucketExists(ctx, s.Bucket)
	if err != nil && !storage.IsNotFound(err) {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("bucket %s: %w", s.Bucket, model.ErrNotFound)
	}

	dirKey := s.key(dir)
	root := strings.TrimPrefix(path.Clean("/"+s.Prefix), "/")
	var names []string
	for obj := range s.Client.ListObjects(ctx, s.Bucket, minio.ListObjectsOptions{
		Prefix:    dirKey + "/" + prefix,
		Recursive: false,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		name := obj.Key
		if root != "" {
			name = strings.TrimPrefix(name, root+"/")
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s BucketSource) String() string {
	return "s3://" + path.Join(s.Bucket, s.Prefix)
}
