package super

import (
	"log/slog"

	"github.com/go-minixfs/minixfs/common"
)

// Superblock is the parsed superblock of a volume, keeping the raw record
// so state transitions can be written back in the exact on-disk form.
type Superblock struct {
	Version common.Version
	V12     common.DiskSuperblock   // valid for V1/V2 volumes
	V3      common.DiskV3Superblock // valid for V3 volumes
}

// ReadSuperblock reads the superblock record from the second kilobyte of
// the device and derives the volume geometry from it. The magic decides
// the version and the directory entry format; four magics live in the
// V1/V2 record and the V3 magic sits at a different offset, so a V3 probe
// happens only after the first four fail.
func ReadSuperblock(dev common.BlockDevice) (*Superblock, *common.DeviceInfo, error) {
	sup := new(Superblock)
	info := new(common.DeviceInfo)

	var d common.DiskSuperblock
	if err := dev.Read(&d, common.SUPER_OFFSET); err != nil {
		return nil, nil, err
	}

	switch d.Magic {
	case common.SUPER_MAGIC:
		sup.Version = common.V1
		info.Dirsize = 16
		info.Namelen = 14
	case common.SUPER_MAGIC2:
		sup.Version = common.V1
		info.Dirsize = 32
		info.Namelen = 30
	case common.SUPER_V2:
		sup.Version = common.V2
		info.Dirsize = 16
		info.Namelen = 14
	case common.SUPER_V2_LONG:
		sup.Version = common.V2
		info.Dirsize = 32
		info.Namelen = 30
	default:
		// The V3 magic sits later in the record; read it on its own
		// before decoding the rest.
		var magic3 uint16
		if err := dev.Read(&magic3, common.SUPER_OFFSET+common.SUPER_V3_MAGIC_OFFSET); err != nil {
			return nil, nil, err
		}
		if magic3 != common.SUPER_V3 {
			return nil, nil, common.ErrNoFilesystem
		}
		var d3 common.DiskV3Superblock
		if err := dev.Read(&d3, common.SUPER_OFFSET); err != nil {
			return nil, nil, err
		}
		sup.Version = common.V3
		sup.V3 = d3
		info.Dirsize = 64
		info.Namelen = 60
	}

	info.Version = sup.Version

	switch sup.Version {
	case common.V1:
		sup.V12 = d
		info.Blocksize = common.STATIC_BLOCK_SIZE
		info.Inodes = int(d.Ninodes)
		info.Zones = int(d.Nzones)
		info.ImapBlocks = int(d.ImapBlocks)
		info.ZmapBlocks = int(d.ZmapBlocks)
		info.Firstdatazone = int(d.Firstdatazone)
		info.Scale = uint(d.LogZoneSize)
		info.Maxsize = int(d.MaxSize)
		info.MaxLinks = common.MINIX_LINK_MAX
	case common.V2:
		sup.V12 = d
		info.Blocksize = common.STATIC_BLOCK_SIZE
		info.Inodes = int(d.Ninodes)
		info.Zones = int(d.Zones)
		info.ImapBlocks = int(d.ImapBlocks)
		info.ZmapBlocks = int(d.ZmapBlocks)
		info.Firstdatazone = int(d.Firstdatazone)
		info.Scale = uint(d.LogZoneSize)
		info.Maxsize = int(d.MaxSize)
		info.MaxLinks = common.MINIX2_LINK_MAX
	case common.V3:
		d3 := sup.V3
		info.Blocksize = int(d3.Blocksize)
		info.Inodes = int(d3.Ninodes)
		info.Zones = int(d3.Zones)
		info.ImapBlocks = int(d3.ImapBlocks)
		info.ZmapBlocks = int(d3.ZmapBlocks)
		info.Firstdatazone = int(d3.Firstdatazone)
		info.Scale = uint(d3.LogZoneSize)
		info.Maxsize = int(d3.MaxSize)
		info.MaxLinks = common.MINIX2_LINK_MAX
	}

	if sup.Version == common.V3 {
		if err := checkBlocksize(info.Blocksize, dev); err != nil {
			return nil, nil, err
		}
	}

	if err := checkGeometry(info); err != nil {
		return nil, nil, err
	}

	info.MapOffset = common.START_BLOCK + info.ImapBlocks + info.ZmapBlocks
	return sup, info, nil
}

// checkBlocksize rejects a V3 block size the driver cannot work with. The
// size must be a power of two within the supported range, and the device
// must be large enough to address in blocks of that size.
func checkBlocksize(blocksize int, dev common.BlockDevice) error {
	if blocksize < common.MIN_BLOCK_SIZE || blocksize > common.MAX_BLOCK_SIZE {
		return common.ErrBadBlockSize
	}
	if blocksize&(blocksize-1) != 0 {
		return common.ErrBadBlockSize
	}
	if size, err := dev.Size(); err == nil && size < int64(blocksize)*2 {
		// The device cannot even hold the superblock at this granularity
		return common.ErrBadBlockSize
	}
	return nil
}

// checkGeometry validates the shape of the volume described by the
// superblock. An account that cannot hold a filesystem at all is an
// illegal superblock; one whose bitmaps are too small to cover the
// inodes and zones it claims is a bitmap error.
func checkGeometry(info *common.DeviceInfo) error {
	if info.Inodes < 1 || info.Zones < 1 {
		return common.ErrIllegalSuperblock
	}
	if info.ImapBlocks < 1 || info.ZmapBlocks < 1 {
		return common.ErrIllegalSuperblock
	}
	if info.Firstdatazone < 1 || info.Firstdatazone >= info.Zones {
		return common.ErrIllegalSuperblock
	}

	bits := bitsPerBlock(info.Blocksize)
	if info.ImapBlocks < (info.Inodes+bits-1)/bits {
		slog.Error("inode bitmap too small to cover inode table",
			"imap_blocks", info.ImapBlocks, "inodes", info.Inodes)
		return common.ErrBadBitmap
	}
	if info.ZmapBlocks < (info.Zones-info.Firstdatazone+1+bits-1)/bits {
		slog.Error("zone bitmap too small to cover data zones",
			"zmap_blocks", info.ZmapBlocks, "zones", info.Zones)
		return common.ErrBadBitmap
	}
	return nil
}

// Magic is the on-disk magic number of the volume.
func (sup *Superblock) Magic() uint16 {
	if sup.Version == common.V3 {
		return sup.V3.Magic
	}
	return sup.V12.Magic
}

// State reports the mount-state bits recorded on disk. A V3 superblock
// carries none, so a V3 volume always reads as valid.
func (sup *Superblock) State() uint16 {
	if sup.Version == common.V3 {
		return common.VALID_FS
	}
	return sup.V12.State
}

// SetState records new mount-state bits in the superblock. For V3 this is
// a no-op.
func (sup *Superblock) SetState(state uint16) {
	if sup.Version != common.V3 {
		sup.V12.State = state
	}
}

// Write stores the superblock record back to the device.
func (sup *Superblock) Write(dev common.BlockDevice) error {
	if sup.Version == common.V3 {
		return dev.Write(&sup.V3, common.SUPER_OFFSET)
	}
	return dev.Write(&sup.V12, common.SUPER_OFFSET)
}
