package repository

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"gocloud.dev/blob"

	cryptoDomain "github.com/allisson/parquet-keytools/internal/crypto/domain"
)

// BlobFileLister lists data files stored in a blob bucket.
//
// Buckets have no real directories: a folder exists when at least one object lives
// under its prefix, and an object whose key equals the folder path is a file, not a
// folder.
type BlobFileLister struct {
	bucket *blob.Bucket
}

// NewBlobFileLister creates a lister for bucket.
func NewBlobFileLister(bucket *blob.Bucket) *BlobFileLister {
	return &BlobFileLister{bucket: bucket}
}

// ListFiles returns the keys of the visible files directly under folder. Names
// starting with "_" or "." are hidden. Sub-folders are not descended into.
func (l *BlobFileLister) ListFiles(ctx context.Context, folder string) ([]string, error) {
	folder = strings.Trim(folder, "/")

	prefix := ""
	if folder != "" {
		exists, err := l.bucket.Exists(ctx, folder)
		if err != nil {
			return nil, storageError(err, "failed to check %s", folder)
		}
		if exists {
			return nil, fmt.Errorf("%w: %s", cryptoDomain.ErrFolderNotFound, folder)
		}
		prefix = folder + "/"
	}

	iter := l.bucket.List(&blob.ListOptions{Prefix: prefix, Delimiter: "/"})
	found := false
	files := make([]string, 0)
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, storageError(err, "failed to list %s", folder)
		}
		found = true
		if obj.IsDir || isHidden(path.Base(obj.Key)) {
			continue
		}
		files = append(files, obj.Key)
	}

	if !found {
		return nil, fmt.Errorf("%w: %s", cryptoDomain.ErrFolderNotFound, folder)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", cryptoDomain.ErrEmptyFolder, folder)
	}
	return files, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")
}
