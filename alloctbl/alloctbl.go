package alloctbl

import (
	"log/slog"
	"math"
	"math/bits"

	"github.com/go-minixfs/minixfs/common"
)

const FS_BITCHUNK_BITS = 16 // the number of bits in a bitchunk_t

type server_AllocTbl struct {
	devinfo *common.DeviceInfo
	cache   common.BlockCache
	devno   int // the device number of the device with this bitmap set

	imap []*common.CacheBlock // inode bitmap blocks, held for the mount
	zmap []*common.CacheBlock // zone bitmap blocks, held for the mount

	bits_per_block int // the number of bits in one bitmap block

	i_search int // start searching for unallocated inodes here
	z_search int // start searching for unallocated zones here

	in  chan reqAllocTbl
	out chan resAllocTbl
}

// NewAllocTbl fetches the bitmap blocks of a device into the cache and
// holds them there until Close. Bit 0 of each map is reserved and forced
// on, so a zero entry in an inode or indirect block can never be
// allocated.
func NewAllocTbl(devinfo *common.DeviceInfo, cache common.BlockCache, devno int) (common.AllocTbl, error) {
	alloc := &server_AllocTbl{
		devinfo:        devinfo,
		cache:          cache,
		devno:          devno,
		bits_per_block: (devinfo.Blocksize / 2) * FS_BITCHUNK_BITS,
		in:             make(chan reqAllocTbl),
		out:            make(chan resAllocTbl),
	}

	nmap := devinfo.ImapBlocks + devinfo.ZmapBlocks
	for i := 0; i < nmap; i++ {
		bp := cache.GetBlock(devno, common.START_BLOCK+i, common.MAP_BLOCK, common.NORMAL)
		if !bp.Uptodate {
			cache.PutBlock(bp, common.MAP_BLOCK)
			alloc.release()
			return nil, common.EIO
		}
		if i < devinfo.ImapBlocks {
			alloc.imap = append(alloc.imap, bp)
		} else {
			alloc.zmap = append(alloc.zmap, bp)
		}
	}

	// The reserved bit must be set in both maps
	for _, bp := range []*common.CacheBlock{alloc.imap[0], alloc.zmap[0]} {
		tbl := bp.Block.(common.MapBlock)
		if tbl[0]&1 == 0 {
			tbl[0] |= 1
			bp.Dirty = true
			cache.SyncBlock(bp)
		}
	}

	go alloc.loop()
	return alloc, nil
}

// release puts back any bitmap blocks acquired so far, most recent first.
func (alloc *server_AllocTbl) release() {
	for i := len(alloc.zmap) - 1; i >= 0; i-- {
		alloc.cache.PutBlock(alloc.zmap[i], common.MAP_BLOCK)
	}
	alloc.zmap = nil
	for i := len(alloc.imap) - 1; i >= 0; i-- {
		alloc.cache.PutBlock(alloc.imap[i], common.MAP_BLOCK)
	}
	alloc.imap = nil
}

func (alloc *server_AllocTbl) loop() {
	alive := true
	for alive {
		req := <-alloc.in
		switch req := req.(type) {
		case req_AllocTbl_AllocInode:
			b := alloc.alloc_bit(common.IMAP, alloc.i_search)

			if b == common.NO_BIT {
				slog.Warn("out of i-nodes on device", "dev", alloc.devno)
				alloc.out <- res_AllocTbl_AllocInode{common.NO_INODE, common.ENFILE}
				continue
			}

			alloc.i_search = b // next time start here
			alloc.out <- res_AllocTbl_AllocInode{b, nil}
		case req_AllocTbl_AllocZone:
			var bstart int

			if req.zstart <= alloc.devinfo.Firstdatazone {
				bstart = alloc.z_search
			} else {
				bstart = req.zstart - (alloc.devinfo.Firstdatazone - 1)
			}

			bit := alloc.alloc_bit(common.ZMAP, bstart)
			if bit == common.NO_BIT {
				slog.Warn("no space on device", "dev", alloc.devno)
				alloc.out <- res_AllocTbl_AllocZone{common.NO_ZONE, common.ENOSPC}
				continue
			}

			if bit < alloc.z_search || alloc.z_search == common.NO_BIT {
				alloc.z_search = bit
			}
			alloc.out <- res_AllocTbl_AllocZone{(alloc.devinfo.Firstdatazone - 1) + bit, nil}
		case req_AllocTbl_FreeInode:
			if req.inum <= 0 || req.inum > alloc.devinfo.Inodes {
				alloc.out <- res_AllocTbl_FreeInode{common.EINVAL}
				continue
			}
			alloc.free_bit(common.IMAP, req.inum)
			if req.inum < alloc.i_search {
				alloc.i_search = req.inum
			}
			alloc.out <- res_AllocTbl_FreeInode{nil}
		case req_AllocTbl_FreeZone:
			if req.znum < alloc.devinfo.Firstdatazone || req.znum >= alloc.devinfo.Zones {
				alloc.out <- res_AllocTbl_FreeZone{common.EINVAL}
				continue
			}

			// Turn this from an absolute zone into a bit number
			bit := req.znum - (alloc.devinfo.Firstdatazone - 1)
			alloc.free_bit(common.ZMAP, bit)

			if bit < alloc.z_search || alloc.z_search == common.NO_BIT {
				alloc.z_search = bit
			}
			alloc.out <- res_AllocTbl_FreeZone{nil}
		case req_AllocTbl_CountFreeInodes:
			n := alloc.count_free(common.IMAP)
			alloc.out <- res_AllocTbl_CountFreeInodes{n}
		case req_AllocTbl_CountFreeZones:
			n := alloc.count_free(common.ZMAP)
			alloc.out <- res_AllocTbl_CountFreeZones{n}
		case req_AllocTbl_Close:
			var err error
			for _, bp := range alloc.imap {
				if serr := alloc.cache.SyncBlock(bp); serr != nil && err == nil {
					err = serr
				}
			}
			for _, bp := range alloc.zmap {
				if serr := alloc.cache.SyncBlock(bp); serr != nil && err == nil {
					err = serr
				}
			}
			alloc.release()
			alive = false
			alloc.out <- res_AllocTbl_Close{err}
		}
	}
}

// mapFor returns the held blocks of a bitmap and the number of valid bits
// in it.
func (alloc *server_AllocTbl) mapFor(which int) ([]*common.CacheBlock, int) {
	if which == common.IMAP {
		return alloc.imap, alloc.devinfo.Inodes + 1
	}
	return alloc.zmap, alloc.devinfo.Zones - (alloc.devinfo.Firstdatazone - 1)
}

// Allocate a bit from a bit map and return its bit number
func (alloc *server_AllocTbl) alloc_bit(which int, origin int) int {
	blocks, map_bits := alloc.mapFor(which)

	// Figure out where to start the bit search (depends on 'origin')
	if origin >= map_bits {
		origin = 0 // for robustness
	}

	// Locate the starting place
	block := origin / alloc.bits_per_block
	word := (origin % alloc.bits_per_block) / FS_BITCHUNK_BITS

	// Iterate over all blocks plus one, because we start in the middle
	bcount := len(blocks) + 1

	for {
		bp := blocks[block]
		tbl := bp.Block.(common.MapBlock)

		// Iterate over the words in a block
		for i := word; i < len(tbl); i++ {
			num := tbl[i]

			// Does this word contain a free bit?
			if num == math.MaxUint16 {
				// No bits free, move to next word
				continue
			}

			// Find and allocate the lowest free bit
			bit := uint(bits.TrailingZeros16(^num))

			// Get the bit number from the start of the bit map
			b := (block * alloc.bits_per_block) + (i * FS_BITCHUNK_BITS) + int(bit)

			// Don't allocate bits beyond the end of the map
			if b >= map_bits {
				break
			}

			tbl[i] = num | (1 << bit)
			bp.Dirty = true
			alloc.cache.SyncBlock(bp)
			return b
		}

		block = block + 1
		if block >= len(blocks) {
			block = 0
		}
		word = 0
		bcount = bcount - 1
		if bcount <= 0 {
			break
		}
	}

	return common.NO_BIT
}

// Deallocate an inode/zone in the bitmap, freeing it up for re-use
func (alloc *server_AllocTbl) free_bit(which int, bit_returned int) {
	blocks, _ := alloc.mapFor(which)

	block := bit_returned / alloc.bits_per_block
	word := (bit_returned % alloc.bits_per_block) / FS_BITCHUNK_BITS

	bit := bit_returned % FS_BITCHUNK_BITS
	mask := uint16(1) << uint(bit)

	bp := blocks[block]
	tbl := bp.Block.(common.MapBlock)

	k := tbl[word]
	if (k & mask) == 0 {
		if which == common.IMAP {
			panic("tried to free unused inode")
		} else {
			panic("tried to free unused block")
		}
	}

	k = k & (^mask)
	tbl[word] = k
	bp.Dirty = true
	alloc.cache.SyncBlock(bp)
}

// count_free tallies the clear bits of a bitmap. The reserved bit 0 is
// always set, so it never shows up in the count.
func (alloc *server_AllocTbl) count_free(which int) int {
	blocks, map_bits := alloc.mapFor(which)

	free := 0
	seen := 0
	for _, bp := range blocks {
		tbl := bp.Block.(common.MapBlock)
		for _, num := range tbl {
			n := FS_BITCHUNK_BITS
			if seen+n > map_bits {
				n = map_bits - seen
				if n <= 0 {
					return free
				}
				// Mask away the bits past the end of the map
				num |= ^uint16(0) << uint(n)
			}
			free += FS_BITCHUNK_BITS - bits.OnesCount16(num)
			seen += n
		}
	}
	return free
}
