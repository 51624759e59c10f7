package super

import (
	"errors"
	"math"

	"github.com/go-minixfs/minixfs/common"
)

func bitsPerBlock(blocksize int) int {
	return (blocksize / 2) * 2 * common.CHAR_BIT
}

// Bitmapsize is the number of bitmap blocks needed to hold nr_bits bits.
func Bitmapsize(nr_bits int, blocksize int) int {
	bits_per_block := bitsPerBlock(blocksize)
	nr_blocks := nr_bits / bits_per_block
	if nr_blocks*bits_per_block < nr_bits {
		nr_blocks++
	}
	return nr_blocks
}

// Format lays out a fresh superblock and the geometry derived from it for
// a volume of 'blocks' blocks. An inode count of zero picks one from the
// volume size, rounded up to fill the last inode-table block. The long
// name flag selects the 30-character directory format on V1/V2 volumes;
// V3 names are always 60 characters.
func Format(version common.Version, blocks, inodes, blocksize int, longNames bool) (*Superblock, *common.DeviceInfo, error) {
	sup := new(Superblock)
	info := new(common.DeviceInfo)

	sup.Version = version
	info.Version = version

	switch version {
	case common.V1:
		blocksize = common.STATIC_BLOCK_SIZE
		if longNames {
			sup.V12.Magic = common.SUPER_MAGIC2
			info.Dirsize, info.Namelen = 32, 30
		} else {
			sup.V12.Magic = common.SUPER_MAGIC
			info.Dirsize, info.Namelen = 16, 14
		}
		info.MaxLinks = common.MINIX_LINK_MAX
		if blocks > math.MaxUint16 {
			blocks = math.MaxUint16
		}
	case common.V2:
		blocksize = common.STATIC_BLOCK_SIZE
		if longNames {
			sup.V12.Magic = common.SUPER_V2_LONG
			info.Dirsize, info.Namelen = 32, 30
		} else {
			sup.V12.Magic = common.SUPER_V2
			info.Dirsize, info.Namelen = 16, 14
		}
		info.MaxLinks = common.MINIX2_LINK_MAX
	case common.V3:
		if blocksize == 0 {
			blocksize = common.STATIC_BLOCK_SIZE
		}
		if blocksize < common.MIN_BLOCK_SIZE || blocksize > common.MAX_BLOCK_SIZE ||
			blocksize&(blocksize-1) != 0 {
			return nil, nil, common.ErrBadBlockSize
		}
		sup.V3.Magic = common.SUPER_V3
		info.Dirsize, info.Namelen = 64, 60
		info.MaxLinks = common.MINIX2_LINK_MAX
	default:
		return nil, nil, errors.New("unknown filesystem version")
	}

	info.Blocksize = blocksize
	info.Scale = 0 // zones equal blocks
	zones := blocks

	// Check to see if inode count is automatic (0) and adjust accordingly
	if inodes == 0 {
		kb := (blocks * blocksize) / 1024
		inodes = kb / 2
		if kb >= 100000 {
			inodes = kb / 4
		}

		// round up to fill inode block
		ipb := info.InodesPerBlock()
		inodes = (inodes + ipb - 1) / ipb * ipb
	}
	if inodes < 1 {
		return nil, nil, errors.New("inode count is too small")
	}
	if version != common.V3 && inodes > math.MaxUint16 {
		return nil, nil, errors.New("inode count is too high, need fewer inodes")
	}

	info.Inodes = inodes
	info.Zones = zones
	info.ImapBlocks = Bitmapsize(1+inodes, blocksize)
	info.ZmapBlocks = Bitmapsize(zones, blocksize)
	info.MapOffset = common.START_BLOCK + info.ImapBlocks + info.ZmapBlocks

	ipb := info.InodesPerBlock()
	inodeblks := (inodes + ipb - 1) / ipb
	initblks := info.MapOffset + inodeblks
	firstdata := (initblks + (1 << info.Scale) - 1) >> info.Scale
	if firstdata >= zones {
		return nil, nil, errors.New("bitmaps are too large for the volume")
	}
	info.Firstdatazone = firstdata

	// The deepest zone chain bounds the file size, capped to what the
	// 32-bit size field can carry
	ind := info.NrIndirects()
	var zo int
	if version == common.V1 {
		zo = common.V1_NR_DZONES + ind + ind*ind
	} else {
		zo = common.V2_NR_DZONES + ind + ind*ind + ind*ind*ind
	}
	zone_size := blocksize << info.Scale
	if zo > math.MaxInt32/zone_size {
		info.Maxsize = math.MaxInt32
	} else {
		info.Maxsize = zo * zone_size
	}

	switch version {
	case common.V1:
		sup.V12.Ninodes = uint16(inodes)
		sup.V12.Nzones = uint16(zones)
		sup.V12.ImapBlocks = uint16(info.ImapBlocks)
		sup.V12.ZmapBlocks = uint16(info.ZmapBlocks)
		sup.V12.Firstdatazone = uint16(firstdata)
		sup.V12.LogZoneSize = uint16(info.Scale)
		sup.V12.MaxSize = uint32(info.Maxsize)
		sup.V12.State = common.VALID_FS
	case common.V2:
		sup.V12.Ninodes = uint16(inodes)
		sup.V12.Zones = uint32(zones)
		sup.V12.ImapBlocks = uint16(info.ImapBlocks)
		sup.V12.ZmapBlocks = uint16(info.ZmapBlocks)
		sup.V12.Firstdatazone = uint16(firstdata)
		sup.V12.LogZoneSize = uint16(info.Scale)
		sup.V12.MaxSize = uint32(info.Maxsize)
		sup.V12.State = common.VALID_FS
	case common.V3:
		sup.V3.Ninodes = uint32(inodes)
		sup.V3.Zones = uint32(zones)
		sup.V3.ImapBlocks = uint16(info.ImapBlocks)
		sup.V3.ZmapBlocks = uint16(info.ZmapBlocks)
		sup.V3.Firstdatazone = uint16(firstdata)
		sup.V3.LogZoneSize = uint16(info.Scale)
		sup.V3.MaxSize = uint32(info.Maxsize)
		sup.V3.Blocksize = uint16(blocksize)
	}

	return sup, info, nil
}
