package inode

import (
	"errors"
	"testing"

	"github.com/go-minixfs/minixfs/alloctbl"
	"github.com/go-minixfs/minixfs/bcache"
	"github.com/go-minixfs/minixfs/common"
	"github.com/go-minixfs/minixfs/mkfs"
	"github.com/go-minixfs/minixfs/super"
	. "github.com/go-minixfs/minixfs/testutils"
)

// openVolume formats a fresh image and brings up the cache layers under a
// new inode table, the way a mount would.
func openVolume(test *testing.T, opts mkfs.Options, blocks int) (common.InodeTbl, *common.DeviceInfo, common.BlockCache, common.BlockDevice) {
	dev, _ := NewTestImage(test, opts, blocks)

	_, info, err := super.ReadSuperblock(dev)
	if err != nil {
		FatalHere(test, "Failed reading superblock: %s", err)
	}
	info.Devnum = 0
	info.Label = "test"

	bc := bcache.NewLRUCache(1, common.NR_BUFS, common.NR_BUF_HASH)
	if err := bc.MountDevice(0, dev, info); err != nil {
		FatalHere(test, "Failed mounting device into cache: %s", err)
	}

	alloc, err := alloctbl.NewAllocTbl(info, bc, 0)
	if err != nil {
		FatalHere(test, "Failed loading bitmap set: %s", err)
	}
	info.AllocTbl = alloc

	itable := NewCache(bc, 1, common.NR_INODES)
	itable.MountDevice(0, info)
	return itable, info, bc, dev
}

func closeVolume(test *testing.T, itable common.InodeTbl, info *common.DeviceInfo, bc common.BlockCache) {
	if err := info.AllocTbl.Close(); err != nil {
		ErrorHere(test, "Failed closing bitmap set: %s", err)
	}
	if err := itable.UnmountDevice(0); err != nil {
		ErrorHere(test, "Failed unmounting inode table: %s", err)
	}
	if err := itable.Shutdown(); err != nil {
		ErrorHere(test, "Failed shutting down inode table: %s", err)
	}
	bc.UnmountDevice(0)
	if err := bc.Shutdown(); err != nil {
		ErrorHere(test, "Failed shutting down cache: %s", err)
	}
}

func TestRootInode(test *testing.T) {
	itable, info, bc, _ := openVolume(test, mkfs.Options{Version: common.V2}, 64)

	rip, err := itable.GetInode(0, common.ROOT_INODE)
	if err != nil {
		FatalHere(test, "Failed getting root inode: %s", err)
	}
	if !rip.IsDirectory() {
		ErrorHere(test, "Root mode got %o, expected a directory", rip.Mode)
	}
	if rip.Nlinks != 2 {
		ErrorHere(test, "Root link count got %d, expected 2", rip.Nlinks)
	}
	if rip.Size != int32(2*info.Dirsize) {
		ErrorHere(test, "Root size got %d, expected %d", rip.Size, 2*info.Dirsize)
	}
	if rip.Zone[0] != uint32(info.Firstdatazone) {
		ErrorHere(test, "Root zone got %d, expected %d", rip.Zone[0], info.Firstdatazone)
	}

	itable.PutInode(rip)
	closeVolume(test, itable, info, bc)
}

func TestGetInodeRange(test *testing.T) {
	itable, info, bc, _ := openVolume(test, mkfs.Options{Version: common.V2}, 64)

	if _, err := itable.GetInode(0, 0); err != common.EINVAL {
		ErrorHere(test, "Getting inode 0 got %v, expected EINVAL", err)
	}
	if _, err := itable.GetInode(0, info.Inodes+1); err != common.EINVAL {
		ErrorHere(test, "Getting past-end inode got %v, expected EINVAL", err)
	}

	closeVolume(test, itable, info, bc)
}

// A changed inode written out synchronously must read back intact after
// the cache has been emptied. On a V1 volume the three timestamps share a
// single on-disk field, so they all come back as the modification time.
func TestWriteReadBack(test *testing.T) {
	itable, info, bc, _ := openVolume(test, mkfs.Options{Version: common.V1}, 64)

	rip, err := itable.GetInode(0, common.ROOT_INODE)
	if err != nil {
		FatalHere(test, "Failed getting root inode: %s", err)
	}

	rip.Atime = 100
	rip.Mtime = 200
	rip.Ctime = 300
	rip.Dirty = true
	if err = itable.FlushInode(rip, true); err != nil {
		FatalHere(test, "Failed flushing inode: %s", err)
	}
	itable.PutInode(rip)

	bc.Invalidate(0)

	rip, err = itable.GetInode(0, common.ROOT_INODE)
	if err != nil {
		FatalHere(test, "Failed re-getting root inode: %s", err)
	}
	if rip.Atime != 200 || rip.Mtime != 200 || rip.Ctime != 200 {
		ErrorHere(test, "Timestamps got %d/%d/%d, expected 200/200/200",
			rip.Atime, rip.Mtime, rip.Ctime)
	}

	itable.PutInode(rip)
	closeVolume(test, itable, info, bc)
}

// Two concurrent gets of the same uncached inode trigger exactly one
// device read, and both callers get the same inode.
func TestSingleFlightLoad(test *testing.T) {
	dev, _ := NewTestImage(test, mkfs.Options{Version: common.V2}, 64)

	_, info, err := super.ReadSuperblock(dev)
	if err != nil {
		FatalHere(test, "Failed reading superblock: %s", err)
	}
	info.Devnum = 0
	info.Label = "test"

	bdev := NewBlockingDevice(dev)
	bc := bcache.NewLRUCache(1, common.NR_BUFS, common.NR_BUF_HASH)
	if err := bc.MountDevice(0, bdev, info); err != nil {
		FatalHere(test, "Failed mounting device into cache: %s", err)
	}
	itable := NewCache(bc, 1, common.NR_INODES)
	itable.MountDevice(0, info)

	results := make(chan *common.Inode)
	for i := 0; i < 2; i++ {
		go func() {
			rip, err := itable.GetInode(0, common.ROOT_INODE)
			if err != nil {
				ErrorHere(test, "Failed getting root inode: %s", err)
			}
			results <- rip
		}()
	}

	// Only one read may hit the device
	<-bdev.HasBlocked
	bdev.Unblock <- true

	first := <-results
	second := <-results
	if first != second {
		ErrorHere(test, "Concurrent gets returned different inodes")
	}
	if first.Count != 2 {
		ErrorHere(test, "Inode count got %d, expected 2", first.Count)
	}

	select {
	case <-bdev.HasBlocked:
		ErrorHere(test, "Second device read for a single-flight load")
	default:
	}

	itable.PutInode(first)
	itable.PutInode(second)
	itable.UnmountDevice(0)
	itable.Shutdown()
	bc.UnmountDevice(0)
	bc.Shutdown()
}

// Releasing the last reference to an unlinked inode frees its zones and
// its slot in the inode bitmap.
func TestEvictUnlinked(test *testing.T) {
	itable, info, bc, _ := openVolume(test, mkfs.Options{Version: common.V2}, 64)

	ifree := info.AllocTbl.CountFreeInodes()
	zfree := info.AllocTbl.CountFreeZones()

	inum, err := info.AllocTbl.AllocInode()
	if err != nil {
		FatalHere(test, "Failed allocating inode: %s", err)
	}
	znum, err := info.AllocTbl.AllocZone(common.NO_ZONE)
	if err != nil {
		FatalHere(test, "Failed allocating zone: %s", err)
	}

	rip, err := itable.GetInode(0, inum)
	if err != nil {
		FatalHere(test, "Failed getting inode %d: %s", inum, err)
	}
	rip.Mode = common.I_REGULAR | 0644
	rip.Nlinks = 0
	rip.Size = int32(info.Blocksize)
	rip.Zone[0] = uint32(znum)
	rip.Dirty = true

	itable.PutInode(rip)

	if got := info.AllocTbl.CountFreeInodes(); got != ifree {
		ErrorHere(test, "Free inode count got %d, expected %d", got, ifree)
	}
	if got := info.AllocTbl.CountFreeZones(); got != zfree {
		ErrorHere(test, "Free zone count got %d, expected %d", got, zfree)
	}

	closeVolume(test, itable, info, bc)
}

// A synchronous flush whose device write fails reports an i/o error
// naming the volume and the inode.
func TestFlushReportsIOError(test *testing.T) {
	dev, _ := NewTestImage(test, mkfs.Options{Version: common.V2}, 64)

	_, info, err := super.ReadSuperblock(dev)
	if err != nil {
		FatalHere(test, "Failed reading superblock: %s", err)
	}
	info.Devnum = 0
	info.Label = "faulty"

	fdev := NewFaultyDevice(dev, info.Blocksize)
	bc := bcache.NewLRUCache(1, common.NR_BUFS, common.NR_BUF_HASH)
	if err := bc.MountDevice(0, fdev, info); err != nil {
		FatalHere(test, "Failed mounting device into cache: %s", err)
	}
	itable := NewCache(bc, 1, common.NR_INODES)
	itable.MountDevice(0, info)

	rip, err := itable.GetInode(0, common.ROOT_INODE)
	if err != nil {
		FatalHere(test, "Failed getting root inode: %s", err)
	}

	blocknum, _ := info.InodeBlock(common.ROOT_INODE)
	fdev.FailWrites[blocknum] = true

	rip.Mtime = 42
	rip.Dirty = true
	err = itable.FlushInode(rip, true)
	if err == nil {
		FatalHere(test, "Expected flush to report an i/o error")
	}

	var ioerr *common.InodeIOError
	if !errors.As(err, &ioerr) {
		FatalHere(test, "Flush error got %T, expected InodeIOError", err)
	}
	if ioerr.Volume != "faulty" || ioerr.Inum != common.ROOT_INODE {
		ErrorHere(test, "Error names %q inode %d, expected %q inode %d",
			ioerr.Volume, ioerr.Inum, "faulty", common.ROOT_INODE)
	}
	if !errors.Is(err, common.EIO) {
		ErrorHere(test, "Expected the error to unwrap to EIO")
	}

	// Clear the fault so the unmount flush can land the block
	delete(fdev.FailWrites, blocknum)

	itable.PutInode(rip)
	itable.UnmountDevice(0)
	itable.Shutdown()
	bc.UnmountDevice(0)
	bc.Shutdown()
}

// A flush must not pack an inode into a block whose read failed, or the
// flush would wipe every other inode record in that block.
func TestFlushRefusesBadBlock(test *testing.T) {
	dev, _ := NewTestImage(test, mkfs.Options{Version: common.V2}, 64)

	_, info, err := super.ReadSuperblock(dev)
	if err != nil {
		FatalHere(test, "Failed reading superblock: %s", err)
	}
	info.Devnum = 0
	info.Label = "faulty"

	fdev := NewFaultyDevice(dev, info.Blocksize)
	bc := bcache.NewLRUCache(1, common.NR_BUFS, common.NR_BUF_HASH)
	if err := bc.MountDevice(0, fdev, info); err != nil {
		FatalHere(test, "Failed mounting device into cache: %s", err)
	}
	itable := NewCache(bc, 1, common.NR_INODES)
	itable.MountDevice(0, info)

	rip, err := itable.GetInode(0, common.ROOT_INODE)
	if err != nil {
		FatalHere(test, "Failed getting root inode: %s", err)
	}

	// Drop the cached inode-table block and make its re-read fail
	bc.Invalidate(0)
	blocknum, _ := info.InodeBlock(common.ROOT_INODE)
	fdev.FailReads[blocknum] = true

	rip.Mtime = 99
	rip.Dirty = true
	if err = itable.FlushInode(rip, true); err != common.EIO {
		FatalHere(test, "Flush into a bad block got %v, expected EIO", err)
	}

	// The inode is still dirty; once the device recovers the flush lands
	// and the record reads back intact.
	delete(fdev.FailReads, blocknum)
	bc.Invalidate(0)
	if err = itable.FlushInode(rip, true); err != nil {
		FatalHere(test, "Failed flushing after the fault cleared: %s", err)
	}
	itable.PutInode(rip)
	bc.Invalidate(0)

	rip, err = itable.GetInode(0, common.ROOT_INODE)
	if err != nil {
		FatalHere(test, "Failed re-getting root inode: %s", err)
	}
	if rip.Nlinks != 2 || rip.Mtime != 99 {
		ErrorHere(test, "Record got links %d mtime %d, expected 2/99",
			rip.Nlinks, rip.Mtime)
	}

	itable.PutInode(rip)
	itable.UnmountDevice(0)
	itable.Shutdown()
	bc.UnmountDevice(0)
	bc.Shutdown()
}

// A failed load must release every waiter's slot claim and must not latch
// its error, so the same inode can be fetched once the device recovers.
func TestFailedLoadRecovery(test *testing.T) {
	dev, _ := NewTestImage(test, mkfs.Options{Version: common.V2}, 64)

	_, info, err := super.ReadSuperblock(dev)
	if err != nil {
		FatalHere(test, "Failed reading superblock: %s", err)
	}
	info.Devnum = 0
	info.Label = "faulty"

	fdev := NewFaultyDevice(dev, info.Blocksize)
	bc := bcache.NewLRUCache(1, common.NR_BUFS, common.NR_BUF_HASH)
	if err := bc.MountDevice(0, fdev, info); err != nil {
		FatalHere(test, "Failed mounting device into cache: %s", err)
	}
	itable := NewCache(bc, 1, common.NR_INODES)
	itable.MountDevice(0, info)

	inum := common.ROOT_INODE + 1
	blocknum, _ := info.InodeBlock(inum)
	fdev.FailReads[blocknum] = true

	errs := make(chan error)
	for i := 0; i < 4; i++ {
		go func() {
			_, err := itable.GetInode(0, inum)
			errs <- err
		}()
	}
	for i := 0; i < 4; i++ {
		if err := <-errs; err == nil {
			ErrorHere(test, "Expected an error from the failed load")
		}
	}

	if itable.IsDeviceBusy(0) {
		ErrorHere(test, "Failed loads left references behind")
	}

	// The fault clears; a fresh get of the same inode must succeed
	delete(fdev.FailReads, blocknum)
	bc.Invalidate(0)

	rip, err := itable.GetInode(0, inum)
	if err != nil {
		FatalHere(test, "Failed getting inode after the fault cleared: %s", err)
	}
	if rip.Count != 1 {
		ErrorHere(test, "Inode count got %d, expected 1", rip.Count)
	}

	rip.Nlinks = 1 // keep the release from treating it as unlinked
	itable.PutInode(rip)
	itable.UnmountDevice(0)
	itable.Shutdown()
	bc.UnmountDevice(0)
	bc.Shutdown()
}
