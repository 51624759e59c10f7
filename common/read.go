package common

import (
	"io"
	"log/slog"
)

// zonePath computes the chain of indices leading to the given relative zone
// of a file: the first entry indexes the inode zone array, any further
// entries index successive indirect blocks. V1 inodes reach through a
// single and a double indirect zone; V2/V3 add a triple indirect zone.
// Returns nil if the zone lies beyond what the version can address.
func zonePath(info *DeviceInfo, zone int) []int {
	dzones := info.NrDzones()
	nr_indirects := info.NrIndirects()

	if zone < dzones {
		return []int{zone}
	}
	zone -= dzones
	if zone < nr_indirects {
		return []int{dzones, zone}
	}
	zone -= nr_indirects
	if zone < nr_indirects*nr_indirects {
		return []int{dzones + 1, zone / nr_indirects, zone % nr_indirects}
	}
	if info.Version == V1 {
		return nil
	}
	zone -= nr_indirects * nr_indirects
	if zone < nr_indirects*nr_indirects*nr_indirects {
		return []int{
			dzones + 2,
			zone / (nr_indirects * nr_indirects),
			(zone / nr_indirects) % nr_indirects,
			zone % nr_indirects,
		}
	}
	return nil
}

// ReadMap resolves a position within a file to the device block that holds
// it, walking the direct/indirect zone chain appropriate to the version.
// It never allocates; a hole resolves to NO_BLOCK.
func ReadMap(rip *Inode, position int, cache BlockCache) int {
	devinfo := rip.Devinfo
	scale := devinfo.Scale // for block-zone conversion
	blocksize := devinfo.Blocksize

	block_pos := position / blocksize   // relative block # in file
	zone := block_pos >> scale          // position's zone
	boff := block_pos - (zone << scale) // relative block in zone

	path := zonePath(devinfo, zone)
	if path == nil {
		return NO_BLOCK
	}

	z := int(rip.Zone[path[0]])
	for _, index := range path[1:] {
		if z == NO_ZONE {
			return NO_BLOCK
		}
		b := z << scale
		bp := cache.GetBlock(devinfo.Devnum, b, INDIRECT_BLOCK, NORMAL)
		z = RdIndir(bp, index, cache, devinfo.Firstdatazone, devinfo.Zones)
		cache.PutBlock(bp, INDIRECT_BLOCK)
	}

	if z == NO_ZONE {
		return NO_BLOCK
	}
	return (z << scale) + boff
}

// RdIndir reads one entry of an indirect block with bounds checking on
// min/max, handling both the 16-bit and the 32-bit entry widths.
func RdIndir(bp *CacheBlock, index int, cache BlockCache, min, max int) int {
	var zone int
	switch bdata := bp.Block.(type) {
	case V1IndirectBlock:
		zone = int(bdata[index])
	case IndirectBlock:
		zone = int(bdata[index])
	default:
		panic("indirect block expected")
	}

	if zone != NO_ZONE && (zone < min || zone >= max) {
		slog.Error("illegal zone number in indirect block",
			"zone", zone, "index", index, "firstdatazone", min, "zones", max)
		panic("check file system")
	}
	return zone
}

// Read copies up to len(b) bytes from the file at position 'pos'. The data
// will almost certainly be split up amongst multiple blocks. A hole in the
// file reads as zeros without touching the device.
func Read(rip *Inode, b []byte, pos int) (int, error) {
	devinfo := rip.Devinfo
	curpos := pos

	if curpos >= int(rip.Size) {
		return 0, io.EOF
	}

	// Slice b to contain only the data that is available
	if curpos+len(b) > int(rip.Size) {
		b = b[:int(rip.Size)-curpos]
	}

	blocksize := devinfo.Blocksize

	// The first and last chunks may be partial; everything in between runs
	// on block boundaries.
	numBytes := 0
	for numBytes < len(b) {
		offset := curpos % blocksize
		chunk := len(b) - numBytes
		if chunk > blocksize-offset {
			chunk = blocksize - offset
		}

		bnum := ReadMap(rip, curpos, rip.Bcache)
		if bnum == NO_BLOCK {
			// A hole; no zone backs this position
			dst := b[numBytes : numBytes+chunk]
			for i := range dst {
				dst[i] = 0
			}
		} else {
			bp := rip.Bcache.GetBlock(devinfo.Devnum, bnum, FULL_DATA_BLOCK, NORMAL)
			bdata, bok := bp.Block.(FullDataBlock)
			if !bok {
				rip.Bcache.PutBlock(bp, FULL_DATA_BLOCK)
				return numBytes, EINVAL
			}
			copy(b[numBytes:], bdata[offset:offset+chunk])
			rip.Bcache.PutBlock(bp, FULL_DATA_BLOCK)
		}

		numBytes += chunk
		curpos += chunk
	}

	return numBytes, nil
}

// CountBlocks computes the number of device blocks a file of the given size
// occupies, including indirect overhead blocks. Used by getattr to derive
// the 512-byte sector count.
func CountBlocks(info *DeviceInfo, size int) int {
	blocks := (size + info.Blocksize - 1) / info.Blocksize
	dzones := info.NrDzones()
	nr_indirects := info.NrIndirects()

	if blocks <= dzones {
		return blocks
	}
	rest := blocks - dzones
	total := blocks + 1 // the single indirect block
	if rest <= nr_indirects {
		return total
	}
	rest -= nr_indirects
	total++ // the double indirect block
	total += (rest + nr_indirects - 1) / nr_indirects
	if rest <= nr_indirects*nr_indirects {
		return total
	}
	rest -= nr_indirects * nr_indirects
	total++ // the triple indirect block
	total += (rest + nr_indirects*nr_indirects - 1) / (nr_indirects * nr_indirects)
	return total
}
