// Package blob selects and re-exports the blob storage backend used for
// state archives.
package blob

import (
	"context"
	"fmt"
	"os"

	"kindercore/internal/blob/core"
	fsblob "kindercore/internal/infra/blob/fs"
	memblob "kindercore/internal/infra/blob/memory"
	s3blob "kindercore/internal/infra/blob/s3"
)

type (
	// Store aliases the backend-neutral blob store interface.
	Store = core.Store
	// Driver aliases the backend identifier.
	Driver = core.Driver
	// Info aliases blob metadata.
	Info = core.Info
	// PutOptions aliases optional Put parameters.
	PutOptions = core.PutOptions
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

// NewMemory returns an in-memory store for tests.
func NewMemory() *memblob.Store { return memblob.New() }

// NewFilesystem returns a filesystem store rooted at the given directory.
func NewFilesystem(root string) (*fsblob.Store, error) { return fsblob.New(root) }

// Open selects a blob.Store implementation using environment variables.
//
//	KINDERCORE_BLOB_DRIVER: fs|s3|memory (default fs)
//	KINDERCORE_BLOB_FS_ROOT: directory root when driver=fs (default ./blobdata)
//	(S3 specific variables documented in the s3 package)
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("KINDERCORE_BLOB_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		return fsblob.New(os.Getenv("KINDERCORE_BLOB_FS_ROOT"))
	case DriverS3:
		return s3blob.OpenFromEnv(ctx)
	case DriverMemory:
		return memblob.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
