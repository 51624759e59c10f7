// Package mkfs lays down a fresh filesystem on a block device.
package mkfs

import (
	"encoding/binary"
	"errors"
	"time"

	"github.com/go-minixfs/minixfs/common"
	"github.com/go-minixfs/minixfs/super"
)

// Options select the format of the new filesystem.
type Options struct {
	Version   common.Version // V1, V2 or V3
	Blocks    int            // volume size in blocks; 0 sizes from the device
	Inodes    int            // inode count; 0 picks one from the volume size
	Blocksize int            // V3 only; 0 means 1024
	LongNames bool           // 30-character names on V1/V2 volumes
}

// Format writes a new empty filesystem to the device: superblock,
// bitmaps, inode table and a root directory holding "." and "..".
// Everything the driver later validates at mount is produced here, so a
// fresh volume always mounts clean.
func Format(dev common.BlockDevice, opts Options) error {
	if opts.Version == 0 {
		opts.Version = common.V3
	}

	blocks := opts.Blocks
	if blocks == 0 {
		size, err := dev.Size()
		if err != nil {
			return err
		}
		bs := opts.Blocksize
		if bs == 0 {
			bs = common.STATIC_BLOCK_SIZE
		}
		blocks = int(size / int64(bs))
	}
	if blocks < 8 {
		return errors.New("device too small for a filesystem")
	}

	sup, info, err := super.Format(opts.Version, blocks, opts.Inodes, opts.Blocksize, opts.LongNames)
	if err != nil {
		return err
	}

	bs := info.Blocksize
	zero := make([]byte, bs)

	// Boot block stays empty
	if err := dev.Write(zero, int64(common.BOOT_BLOCK)*int64(bs)); err != nil {
		return err
	}
	if err := sup.Write(dev); err != nil {
		return err
	}

	// Bitmaps: everything free except the reserved bit 0, the root inode
	// and the root directory's zone
	for i := 0; i < info.ImapBlocks; i++ {
		bm := make(common.MapBlock, bs/2)
		if i == 0 {
			bm[0] = 0b11 // reserved bit and the root inode
		}
		pos := int64(common.START_BLOCK+i) * int64(bs)
		if err := dev.Write(bm, pos); err != nil {
			return err
		}
	}
	for i := 0; i < info.ZmapBlocks; i++ {
		bm := make(common.MapBlock, bs/2)
		if i == 0 {
			bm[0] = 0b11 // reserved bit and the root directory's zone
		}
		pos := int64(common.START_BLOCK+info.ImapBlocks+i) * int64(bs)
		if err := dev.Write(bm, pos); err != nil {
			return err
		}
	}

	// Zero the inode table
	ipb := info.InodesPerBlock()
	itableBlocks := (info.Inodes + ipb - 1) / ipb
	for i := 0; i < itableBlocks; i++ {
		pos := int64(info.MapOffset+i) * int64(bs)
		if err := dev.Write(zero, pos); err != nil {
			return err
		}
	}

	// The root directory inode is the first record of the inode table
	now := uint32(time.Now().Unix())
	rootZone := info.Firstdatazone
	mode := uint16(common.I_DIRECTORY | 0755)
	size := uint32(2 * info.Dirsize)

	if info.Version == common.V1 {
		d := common.DiskV1Inode{
			Mode:   mode,
			Uid:    0,
			Size:   size,
			Time:   now,
			Gid:    0,
			Nlinks: 2,
		}
		d.Zone[0] = uint16(rootZone)
		if err := dev.Write(&d, int64(info.MapOffset)*int64(bs)); err != nil {
			return err
		}
	} else {
		d := common.DiskV2Inode{
			Mode:   mode,
			Nlinks: 2,
			Size:   size,
			Atime:  now,
			Mtime:  now,
			Ctime:  now,
		}
		d.Zone[0] = uint32(rootZone)
		if err := dev.Write(&d, int64(info.MapOffset)*int64(bs)); err != nil {
			return err
		}
	}

	// Root directory data: "." and ".." both point at the root inode
	dirblock := make([]byte, bs)
	putDirent(dirblock[0:], info, common.ROOT_INODE, ".")
	putDirent(dirblock[info.Dirsize:], info, common.ROOT_INODE, "..")
	rootBlock := rootZone << info.Scale
	return dev.Write(dirblock, int64(rootBlock)*int64(bs))
}

// putDirent encodes one directory entry. V1/V2 entries carry a 16-bit
// inode number, V3 entries a 32-bit one; the name pads with NULs.
func putDirent(buf []byte, info *common.DeviceInfo, inum int, name string) {
	if info.Version == common.V3 {
		binary.LittleEndian.PutUint32(buf, uint32(inum))
		copy(buf[4:info.Dirsize], name)
	} else {
		binary.LittleEndian.PutUint16(buf, uint16(inum))
		copy(buf[2:info.Dirsize], name)
	}
}
