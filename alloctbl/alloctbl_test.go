package alloctbl

import (
	"testing"

	"github.com/go-minixfs/minixfs/bcache"
	"github.com/go-minixfs/minixfs/common"
	"github.com/go-minixfs/minixfs/mkfs"
	"github.com/go-minixfs/minixfs/super"
	. "github.com/go-minixfs/minixfs/testutils"
)

// openBitmaps formats a fresh image and loads its bitmap set.
func openBitmaps(test *testing.T, opts mkfs.Options, blocks int) (common.AllocTbl, *common.DeviceInfo, common.BlockCache) {
	dev, _ := NewTestImage(test, opts, blocks)

	_, info, err := super.ReadSuperblock(dev)
	if err != nil {
		FatalHere(test, "Failed reading superblock: %s", err)
	}
	info.Devnum = 0

	bc := bcache.NewLRUCache(1, common.NR_BUFS, common.NR_BUF_HASH)
	if err := bc.MountDevice(0, dev, info); err != nil {
		FatalHere(test, "Failed mounting device into cache: %s", err)
	}

	alloc, err := NewAllocTbl(info, bc, 0)
	if err != nil {
		FatalHere(test, "Failed loading bitmap set: %s", err)
	}
	info.AllocTbl = alloc
	return alloc, info, bc
}

func closeBitmaps(test *testing.T, alloc common.AllocTbl, bc common.BlockCache) {
	if err := alloc.Close(); err != nil {
		ErrorHere(test, "Failed closing bitmap set: %s", err)
	}
	bc.UnmountDevice(0)
	if err := bc.Shutdown(); err != nil {
		ErrorHere(test, "Failed shutting down cache: %s", err)
	}
}

// A fresh volume has the reserved bit and root allocations in place: the
// first free inode is 2 and the first free zone sits past the root
// directory's.
func TestFreshAllocations(test *testing.T) {
	alloc, info, bc := openBitmaps(test, mkfs.Options{Version: common.V1}, 64)

	inum, err := alloc.AllocInode()
	if err != nil {
		FatalHere(test, "Failed allocating inode: %s", err)
	}
	if inum != 2 {
		ErrorHere(test, "First free inode got %d, expected %d", inum, 2)
	}

	znum, err := alloc.AllocZone(common.NO_ZONE)
	if err != nil {
		FatalHere(test, "Failed allocating zone: %s", err)
	}
	if znum != info.Firstdatazone+1 {
		ErrorHere(test, "First free zone got %d, expected %d", znum, info.Firstdatazone+1)
	}

	closeBitmaps(test, alloc, bc)
}

func TestAllocFreeRoundTrip(test *testing.T) {
	alloc, _, bc := openBitmaps(test, mkfs.Options{Version: common.V2}, 64)

	ifree := alloc.CountFreeInodes()
	zfree := alloc.CountFreeZones()

	inum, err := alloc.AllocInode()
	if err != nil {
		FatalHere(test, "Failed allocating inode: %s", err)
	}
	znum, err := alloc.AllocZone(common.NO_ZONE)
	if err != nil {
		FatalHere(test, "Failed allocating zone: %s", err)
	}

	if got := alloc.CountFreeInodes(); got != ifree-1 {
		ErrorHere(test, "Free inode count got %d, expected %d", got, ifree-1)
	}
	if got := alloc.CountFreeZones(); got != zfree-1 {
		ErrorHere(test, "Free zone count got %d, expected %d", got, zfree-1)
	}

	if err = alloc.FreeInode(inum); err != nil {
		FatalHere(test, "Failed freeing inode: %s", err)
	}
	if err = alloc.FreeZone(znum); err != nil {
		FatalHere(test, "Failed freeing zone: %s", err)
	}

	if got := alloc.CountFreeInodes(); got != ifree {
		ErrorHere(test, "Free inode count got %d, expected %d", got, ifree)
	}
	if got := alloc.CountFreeZones(); got != zfree {
		ErrorHere(test, "Free zone count got %d, expected %d", got, zfree)
	}

	closeBitmaps(test, alloc, bc)
}

func TestExhaustion(test *testing.T) {
	alloc, _, bc := openBitmaps(test, mkfs.Options{Version: common.V1, Inodes: 32}, 16)

	for {
		_, err := alloc.AllocInode()
		if err == common.ENFILE {
			break
		}
		if err != nil {
			FatalHere(test, "Unexpected inode allocation error: %s", err)
		}
	}
	if got := alloc.CountFreeInodes(); got != 0 {
		ErrorHere(test, "Free inode count after exhaustion got %d, expected 0", got)
	}

	for {
		_, err := alloc.AllocZone(common.NO_ZONE)
		if err == common.ENOSPC {
			break
		}
		if err != nil {
			FatalHere(test, "Unexpected zone allocation error: %s", err)
		}
	}
	if got := alloc.CountFreeZones(); got != 0 {
		ErrorHere(test, "Free zone count after exhaustion got %d, expected 0", got)
	}

	closeBitmaps(test, alloc, bc)
}

func TestFreeOutOfRange(test *testing.T) {
	alloc, info, bc := openBitmaps(test, mkfs.Options{Version: common.V2}, 64)

	if err := alloc.FreeInode(0); err != common.EINVAL {
		ErrorHere(test, "Freeing inode 0 got %v, expected EINVAL", err)
	}
	if err := alloc.FreeInode(info.Inodes + 1); err != common.EINVAL {
		ErrorHere(test, "Freeing past-end inode got %v, expected EINVAL", err)
	}
	if err := alloc.FreeZone(info.Firstdatazone - 1); err != common.EINVAL {
		ErrorHere(test, "Freeing overhead zone got %v, expected EINVAL", err)
	}
	if err := alloc.FreeZone(info.Zones); err != common.EINVAL {
		ErrorHere(test, "Freeing past-end zone got %v, expected EINVAL", err)
	}

	closeBitmaps(test, alloc, bc)
}

// The bitmap set refuses to load when its blocks cannot be read.
func TestUnreadableBitmaps(test *testing.T) {
	dev, _ := NewTestImage(test, mkfs.Options{Version: common.V2}, 64)

	_, info, err := super.ReadSuperblock(dev)
	if err != nil {
		FatalHere(test, "Failed reading superblock: %s", err)
	}
	info.Devnum = 0

	fdev := NewFaultyDevice(dev, info.Blocksize)
	fdev.FailReads[common.START_BLOCK] = true

	bc := bcache.NewLRUCache(1, common.NR_BUFS, common.NR_BUF_HASH)
	if err := bc.MountDevice(0, fdev, info); err != nil {
		FatalHere(test, "Failed mounting device into cache: %s", err)
	}

	_, err = NewAllocTbl(info, bc, 0)
	if err == nil {
		FatalHere(test, "Expected bitmap load to fail")
	}

	bc.Invalidate(0)
	bc.UnmountDevice(0)
	if err := bc.Shutdown(); err != nil {
		ErrorHere(test, "Failed shutting down cache: %s", err)
	}
}
