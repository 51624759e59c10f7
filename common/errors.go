package common

import (
	"errors"
	"fmt"
)

// The errno string constants are taken from the Minix 3.1.0 source,
// specifically from lib/ansi/errlist.c. The Err* values classify mount
// failures.

var (
	EBUSY  = errors.New("Resource busy")
	EFBIG  = errors.New("File too large")
	EINVAL = errors.New("Invalid argument")
	EIO    = errors.New("I/O error")
	EMLINK = errors.New("Too many links")
	ENFILE = errors.New("File table overflow")
	ENOENT = errors.New("No such file or directory")
	ENOSPC = errors.New("No space left on device")
	EROFS  = errors.New("Read-only file system")
)

var (
	// ErrBadBlockSize: the device refuses the block size the volume needs.
	ErrBadBlockSize = errors.New("blocksize too small for device")
	// ErrNoFilesystem: no recognized Minix magic on the device.
	ErrNoFilesystem = errors.New("can't find a minix filesystem V1 | V2 | V3")
	// ErrIllegalSuperblock: the superblock carries nonsensical geometry.
	ErrIllegalSuperblock = errors.New("bad superblock")
	// ErrBadBitmap: bitmap blocks unreadable or insufficient for the
	// declared inode/zone counts.
	ErrBadBitmap = errors.New("bad superblock or unable to read bitmaps")
	// ErrRootMissing: the root inode could not be read at mount time.
	ErrRootMissing = errors.New("get root inode failed")
)

// InodeIOError is returned by a verified sync write-back that failed; it
// carries the identity of the volume and inode so the failure can be tied
// to a specific record on a specific device.
type InodeIOError struct {
	Volume string
	Inum   int
}

func (e *InodeIOError) Error() string {
	return fmt.Sprintf("IO error syncing minix inode [%s:%08x]", e.Volume, e.Inum)
}

func (e *InodeIOError) Unwrap() error {
	return EIO
}
