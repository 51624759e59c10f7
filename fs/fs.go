package fs

import (
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/go-minixfs/minixfs/alloctbl"
	"github.com/go-minixfs/minixfs/bcache"
	"github.com/go-minixfs/minixfs/common"
	"github.com/go-minixfs/minixfs/device"
	"github.com/go-minixfs/minixfs/inode"
	"github.com/go-minixfs/minixfs/super"
)

// Each Volume owns a single mounted device, which always sits in cache
// slot 0 of its own block cache and inode table.
const devnum = 0

// Options control how a volume is mounted.
type Options struct {
	ReadOnly bool         // refuse all writes, never touch the device
	Label    string       // volume identity for logs; defaults to the device
	Logger   *slog.Logger // defaults to slog.Default()
}

// Volume is a mounted filesystem: the parsed superblock and geometry, the
// block cache and inode table serving it, the bitmap set, and the root
// inode held for the duration of the mount.
type Volume struct {
	dev     common.BlockDevice
	devinfo *common.DeviceInfo
	sup     *super.Superblock

	bcache common.BlockCache
	itable common.InodeTbl
	alloc  common.AllocTbl

	root     *common.Inode
	readonly bool
	log      *slog.Logger

	in  chan reqFS
	out chan resFS
}

// MountFile mounts the filesystem held in a regular file.
func MountFile(filename string, opts Options) (*Volume, error) {
	dev, err := device.NewFileDevice(filename, binary.LittleEndian)
	if err != nil {
		return nil, err
	}
	if opts.Label == "" {
		opts.Label = filename
	}
	v, err := Mount(dev, opts)
	if err != nil {
		dev.Close()
		return nil, err
	}
	return v, nil
}

// Mount reads and validates the superblock of the device, loads the
// bitmaps, fetches the root inode and returns a ready volume. On any
// failure everything acquired up to that point is released, in reverse
// order, and no volume exists.
func Mount(dev common.BlockDevice, opts Options) (*Volume, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	if opts.Label == "" {
		if s, ok := dev.(fmt.Stringer); ok {
			opts.Label = s.String()
		} else {
			opts.Label = "minix"
		}
	}
	log = log.With("volume", opts.Label)

	sup, devinfo, err := super.ReadSuperblock(dev)
	if err != nil {
		return nil, err
	}
	devinfo.Devnum = devnum
	devinfo.Label = opts.Label

	bc := bcache.NewLRUCache(1, common.NR_BUFS, common.NR_BUF_HASH)
	itable := inode.NewCache(bc, 1, common.NR_INODES)

	if err := bc.MountDevice(devnum, dev, devinfo); err != nil {
		bc.Shutdown()
		itable.Shutdown()
		return nil, err
	}

	alloc, err := alloctbl.NewAllocTbl(devinfo, bc, devnum)
	if err != nil {
		// The bitmaps could not be read and pinned
		bc.Invalidate(devnum)
		bc.UnmountDevice(devnum)
		itable.Shutdown()
		bc.Shutdown()
		return nil, common.ErrBadBitmap
	}
	devinfo.AllocTbl = alloc

	itable.MountDevice(devnum, devinfo)

	// The on-disk mount-state bits decide what advice we give; a writable
	// mount then strips VALID on disk so an unclean shutdown is visible to
	// the next mount. V3 volumes carry no state on disk.
	state := sup.State()
	devinfo.MountState = state
	if state&common.VALID_FS == 0 {
		log.Warn("mounting unchecked fs, running fsck is recommended")
	}
	if state&common.ERROR_FS != 0 {
		log.Warn("mounting fs with errors, running fsck is recommended")
	}
	if !opts.ReadOnly && sup.Version != common.V3 {
		sup.SetState(state &^ common.VALID_FS)
		if err := sup.Write(dev); err != nil {
			teardown(alloc, itable, bc)
			return nil, err
		}
	}

	root, err := itable.GetInode(devnum, common.ROOT_INODE)
	if err != nil {
		log.Error("root inode missing or unreadable", "err", err)
		if !opts.ReadOnly && sup.Version != common.V3 {
			// Undo the state change; nothing was mounted
			sup.SetState(state)
			sup.Write(dev)
		}
		teardown(alloc, itable, bc)
		return nil, common.ErrRootMissing
	}

	v := &Volume{
		dev:      dev,
		devinfo:  devinfo,
		sup:      sup,
		bcache:   bc,
		itable:   itable,
		alloc:    alloc,
		root:     root,
		readonly: opts.ReadOnly,
		log:      log,
		in:       make(chan reqFS),
		out:      make(chan resFS),
	}

	go v.loop()

	log.Info("mounted",
		"version", devinfo.Version.String(),
		"blocksize", devinfo.Blocksize,
		"zones", devinfo.Zones,
		"inodes", devinfo.Inodes,
		"readonly", opts.ReadOnly)
	return v, nil
}

// teardown releases the mount-time resources in reverse order of
// acquisition.
func teardown(alloc common.AllocTbl, itable common.InodeTbl, bc common.BlockCache) {
	alloc.Close()
	itable.UnmountDevice(devnum)
	bc.Invalidate(devnum)
	bc.UnmountDevice(devnum)
	itable.Shutdown()
	bc.Shutdown()
}

func (v *Volume) loop() {
	alive := true
	for alive {
		req := <-v.in
		switch req := req.(type) {
		case req_FS_GetInode:
			rip, err := v.itable.GetInode(devnum, req.inum)
			v.out <- res_FS_GetInode{rip, err}
		case req_FS_DupInode:
			v.out <- res_FS_DupInode{v.itable.DupInode(req.rip)}
		case req_FS_PutInode:
			v.itable.PutInode(req.rip)
			v.out <- res_FS_PutInode{}
		case req_FS_FlushInode:
			err := v.do_flushinode(req.rip, req.sync)
			v.out <- res_FS_FlushInode{err}
		case req_FS_RootInode:
			v.out <- res_FS_RootInode{v.itable.DupInode(v.root)}
		case req_FS_Statfs:
			v.out <- res_FS_Statfs{v.do_statfs()}
		case req_FS_Getattr:
			v.out <- res_FS_Getattr{v.do_getattr(req.rip)}
		case req_FS_Bmap:
			v.out <- res_FS_Bmap{v.do_bmap(req.rip, req.position)}
		case req_FS_Remount:
			err := v.do_remount(req.readonly)
			v.out <- res_FS_Remount{err}
		case req_FS_Sync:
			v.bcache.Flush(devnum)
			v.out <- res_FS_Sync{}
		case req_FS_IsReadOnly:
			v.out <- res_FS_IsReadOnly{v.readonly}
		case req_FS_Unmount:
			err := v.do_unmount()
			v.out <- res_FS_Unmount{err}
			if err == nil {
				alive = false
			}
		}
	}
}
