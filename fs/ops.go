package fs

import (
	"github.com/go-minixfs/minixfs/common"
)

func (v *Volume) do_flushinode(rip *common.Inode, sync bool) error {
	if rip == nil {
		return nil
	}
	if v.readonly {
		// Nothing should have been dirtied, but never write regardless
		return common.EROFS
	}
	return v.itable.FlushInode(rip, sync)
}

// do_statfs reports the shape and occupancy of the volume. The block
// counts are in zones scaled to blocks, measured over the data area only;
// everything before the first data zone is overhead and not reported.
func (v *Volume) do_statfs() common.StatfsInfo {
	info := v.devinfo

	freeZones := v.alloc.CountFreeZones()
	blocks := (info.Zones - info.Firstdatazone) << info.Scale

	return common.StatfsInfo{
		Type:    v.sup.Magic(),
		Bsize:   info.Blocksize,
		Blocks:  blocks,
		Bfree:   freeZones << info.Scale,
		Bavail:  freeZones << info.Scale,
		Files:   info.Inodes,
		Ffree:   v.alloc.CountFreeInodes(),
		Namelen: info.Namelen,
		Fsid:    uint64(info.Devnum),
	}
}

// do_getattr fills the stat record for an inode. The block count is in
// 512-byte sectors and includes the indirect blocks a file of this size
// occupies, matching what a disk-usage scan of the volume would find.
func (v *Volume) do_getattr(rip *common.Inode) common.StatInfo {
	info := v.devinfo

	sectors := (info.Blocksize / 512) * common.CountBlocks(info, int(rip.Size))

	return common.StatInfo{
		Dev:    info.Devnum,
		Inum:   rip.Inum,
		Mode:   rip.Mode,
		Nlinks: rip.Nlinks,
		Uid:    rip.Uid,
		Gid:    rip.Gid,
		Size:   rip.Size,
		Atime:  rip.Atime,
		Mtime:  rip.Mtime,
		Ctime:  rip.Ctime,
		Blksize: info.Blocksize,
		Blocks:  sectors,
	}
}

// do_bmap translates a byte position in a file to its device block, or
// NO_BLOCK for a hole. It never allocates.
func (v *Volume) do_bmap(rip *common.Inode, position int) int {
	return common.ReadMap(rip, position, v.bcache)
}

// do_remount toggles the volume between writable and read-only. Going
// read-only flushes everything and, on a V1/V2 volume, restores the on-
// disk state bits so the volume reads as cleanly closed. Going writable
// re-reads the state and strips VALID on disk again. V3 volumes carry no
// on-disk state, so transitions write nothing beyond the flush.
func (v *Volume) do_remount(readonly bool) error {
	if readonly == v.readonly {
		return nil
	}

	if readonly {
		v.bcache.Flush(devnum)
		if v.sup.Version != common.V3 {
			v.sup.SetState(v.devinfo.MountState)
			if err := v.sup.Write(v.dev); err != nil {
				return err
			}
		}
		v.readonly = true
		v.log.Info("remounted read-only")
		return nil
	}

	// Read-only to writable
	if v.sup.Version != common.V3 {
		state := v.sup.State()
		v.devinfo.MountState = state
		v.sup.SetState(state &^ common.VALID_FS)
		if err := v.sup.Write(v.dev); err != nil {
			return err
		}
		if state&common.VALID_FS == 0 {
			v.log.Warn("remounting unchecked fs, running fsck is recommended")
		}
	}
	v.readonly = false
	v.log.Info("remounted writable")
	return nil
}

// do_unmount flushes and releases everything the mount acquired. A volume
// with inodes still referenced beyond the root refuses to unmount.
func (v *Volume) do_unmount() error {
	if v.itable.IsDeviceBusy(devnum) {
		return common.EBUSY
	}

	// The root inode is the last reference
	v.itable.PutInode(v.root)
	v.root = nil

	// Release the pinned bitmap blocks, syncing them out
	if err := v.alloc.Close(); err != nil && !v.readonly {
		v.log.Error("bitmap write-back failed during unmount", "err", err)
	}

	// A writable V1/V2 volume gets its mount-time state bits back: a
	// volume that was clean reads as cleanly closed again, one that was
	// unclean stays that way until checked
	if !v.readonly && v.sup.Version != common.V3 {
		v.sup.SetState(v.devinfo.MountState)
		if err := v.sup.Write(v.dev); err != nil {
			return err
		}
	}

	v.itable.UnmountDevice(devnum)
	v.bcache.UnmountDevice(devnum) // flushes remaining dirty blocks
	v.bcache.Invalidate(devnum)

	if err := v.itable.Shutdown(); err != nil {
		return err
	}
	if err := v.bcache.Shutdown(); err != nil {
		return err
	}

	err := v.dev.Close()
	v.log.Info("unmounted")
	return err
}
