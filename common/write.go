package common

// ZeroBlock replaces the data of a cache block with a zeroed buffer of the
// appropriate typed form for the volume.
func ZeroBlock(bp *CacheBlock, btype BlockType, info *DeviceInfo) {
	blocksize := info.Blocksize
	switch btype.Base() {
	case INODE_BLOCK.Base():
		if info.Version == V1 {
			bp.Block = make(V1InodeBlock, blocksize/V1_INODE_SIZE)
		} else {
			bp.Block = make(V2InodeBlock, blocksize/V2_INODE_SIZE)
		}
	case INDIRECT_BLOCK.Base():
		if info.Version == V1 {
			bp.Block = make(V1IndirectBlock, blocksize/V1_ZONE_NUM_SIZE)
		} else {
			bp.Block = make(IndirectBlock, blocksize/V2_ZONE_NUM_SIZE)
		}
	case MAP_BLOCK.Base():
		bp.Block = make(MapBlock, blocksize/2)
	case FULL_DATA_BLOCK:
		bp.Block = make(FullDataBlock, blocksize)
	case PARTIAL_DATA_BLOCK:
		bp.Block = make(PartialDataBlock, blocksize)
	}
	bp.Uptodate = true
}

// WrIndir writes one entry of an indirect block, handling both entry widths.
func WrIndir(bp *CacheBlock, index int, zone int) {
	switch bdata := bp.Block.(type) {
	case V1IndirectBlock:
		bdata[index] = uint16(zone)
	case IndirectBlock:
		bdata[index] = uint32(zone)
	default:
		panic("indirect block expected")
	}
}

// WriteMap enters a new zone into an inode at the given file position,
// allocating and zeroing any indirect blocks needed along the way.
func WriteMap(rip *Inode, position int, new_zone int, cache BlockCache) error {
	rip.Dirty = true // inode will be changed
	devinfo := rip.Devinfo
	blocksize := devinfo.Blocksize
	scale := devinfo.Scale

	zone := (position / blocksize) >> scale
	path := zonePath(devinfo, zone)
	if path == nil {
		return EFBIG
	}

	// Is 'position' to be found in the inode itself?
	if len(path) == 1 {
		rip.Zone[path[0]] = uint32(new_zone)
		return nil
	}

	// It is not in the inode, so walk the indirect chain, creating any
	// missing links.
	z := int(rip.Zone[path[0]])
	fresh := false
	if z == NO_ZONE {
		var err error
		z, err = devinfo.AllocTbl.AllocZone(int(rip.Zone[0]))
		if z == NO_ZONE {
			return err
		}
		rip.Zone[path[0]] = uint32(z)
		fresh = true
	}

	for i := 1; i < len(path); i++ {
		rdflag := NORMAL
		if fresh {
			rdflag = NO_READ
		}
		bp := cache.GetBlock(devinfo.Devnum, z<<scale, INDIRECT_BLOCK, rdflag)
		if fresh {
			ZeroBlock(bp, INDIRECT_BLOCK, devinfo)
		}

		if i == len(path)-1 {
			WrIndir(bp, path[i], new_zone)
			bp.Dirty = true
			cache.PutBlock(bp, INDIRECT_BLOCK)
			return nil
		}

		z1 := RdIndir(bp, path[i], cache, devinfo.Firstdatazone, devinfo.Zones)
		if z1 == NO_ZONE {
			var err error
			z1, err = devinfo.AllocTbl.AllocZone(int(rip.Zone[0]))
			if z1 == NO_ZONE {
				cache.PutBlock(bp, INDIRECT_BLOCK)
				return err
			}
			WrIndir(bp, path[i], z1)
			bp.Dirty = true
			fresh = true
		} else {
			fresh = false
		}
		cache.PutBlock(bp, INDIRECT_BLOCK)
		z = z1
	}
	return nil
}

// NewBlock acquires a new block for the given position and returns a
// pointer to it, zeroed. Doing so may require allocating a zone via the
// bitmap set; reservation failure surfaces the allocator's error.
func NewBlock(rip *Inode, position int, btype BlockType, cache BlockCache) (*CacheBlock, error) {
	devinfo := rip.Devinfo

	b := ReadMap(rip, position, cache)
	if b == NO_BLOCK {
		// Choose first zone if possible.
		// Lose if the file is non-empty but the first zone number is
		// NO_ZONE, corresponding to a zone full of zeros. It would be
		// better to search near the last real zone.
		z, err := devinfo.AllocTbl.AllocZone(int(rip.Zone[0]))
		if z == NO_ZONE {
			return nil, err
		}
		if err = WriteMap(rip, position, z, cache); err != nil {
			devinfo.AllocTbl.FreeZone(z)
			return nil, err
		}

		scale := devinfo.Scale
		blocksize := devinfo.Blocksize
		base_block := z << scale
		zone_size := blocksize << scale
		b = base_block + ((position % zone_size) / blocksize)
	}

	bp := cache.GetBlock(devinfo.Devnum, b, btype, NO_READ)
	ZeroBlock(bp, btype, devinfo)
	return bp, nil
}

// WriteChunk writes 'chunk' bytes from 'buff' into 'rip' at position 'pos'
// in the file. This is at offset 'off' within the current block.
func WriteChunk(rip *Inode, pos, off, chunk int, buff []byte, cache BlockCache) error {
	var bp *CacheBlock
	var err error

	devinfo := rip.Devinfo
	bsize := devinfo.Blocksize
	fsize := int(rip.Size)
	b := ReadMap(rip, pos, cache)

	if b == NO_BLOCK {
		// Writing to a nonexistent block. Create and enter in inode
		bp, err = NewBlock(rip, pos, FULL_DATA_BLOCK, cache)
		if bp == nil || err != nil {
			return err
		}
	} else {
		// Normally an existing block to be partially overwritten is first
		// read in. However, a full block need not be read in. If it is
		// already in the cache, acquire it, otherwise just acquire a free
		// buffer.
		n := NORMAL
		if chunk == bsize {
			n = NO_READ
		}
		if off == 0 && pos >= fsize {
			n = NO_READ
		}
		bp = cache.GetBlock(devinfo.Devnum, b, FULL_DATA_BLOCK, n)
	}

	// In all cases, bp now points to a valid buffer
	if bp == nil {
		panic("bp not valid in rw_chunk, this can't happen")
	}

	if chunk != bsize && pos >= fsize && off == 0 {
		ZeroBlock(bp, FULL_DATA_BLOCK, devinfo)
	}

	bdata := bp.Block.(FullDataBlock)
	copy(bdata[off:off+chunk], buff)
	bp.Dirty = true

	if off+chunk == bsize {
		cache.PutBlock(bp, FULL_DATA_BLOCK)
	} else {
		cache.PutBlock(bp, PARTIAL_DATA_BLOCK)
	}

	return nil
}

// Write writes len(data) bytes to the inode at position 'pos', splitting
// the transfer into chunks that don't span two blocks.
func Write(rip *Inode, data []byte, pos int) (n int, err error) {
	devinfo := rip.Devinfo
	bcache := rip.Bcache

	cum_io := 0
	position := pos
	fsize := int(rip.Size)

	// Check in advance to see if inode will grow too big
	if position > devinfo.Maxsize-len(data) {
		return 0, EFBIG
	}

	bsize := devinfo.Blocksize
	nbytes := len(data)
	for nbytes != 0 {
		off := position % bsize
		chunk := nbytes
		if chunk > bsize-off {
			chunk = bsize - off
		}

		err = WriteChunk(rip, position, off, chunk, data, bcache)
		if err != nil {
			break
		}

		// Update counters and pointers
		data = data[chunk:] // user buffer
		nbytes -= chunk     // bytes yet to be written
		cum_io += chunk     // bytes written so far
		position += chunk   // position within the inode
	}

	itype := rip.Mode & I_TYPE
	if itype == I_REGULAR || itype == I_DIRECTORY {
		if position > fsize {
			rip.Size = int32(position)
		}
	}

	if err == nil {
		rip.Dirty = true
	}

	return cum_io, err
}

// Truncate releases every zone of the inode beyond 'newSize' bytes,
// pruning indirect blocks that become empty. Only regular files,
// directories and symlinks carry data zones; everything else is left
// alone. Data zones are freed before the indirect blocks referencing
// them, so an interrupted run never grows the reachable zone set.
func Truncate(rip *Inode, newSize int, cache BlockCache) {
	switch rip.Mode & I_TYPE {
	case I_REGULAR, I_DIRECTORY, I_SYMBOLIC_LINK:
	default:
		return
	}

	devinfo := rip.Devinfo
	alloc := devinfo.AllocTbl
	zone_size := devinfo.Blocksize << devinfo.Scale
	dzones := devinfo.NrDzones()
	nr_indirects := devinfo.NrIndirects()

	// Number of leading zones that survive
	keep := (newSize + zone_size - 1) / zone_size

	for i := keep; i < dzones; i++ {
		if z := int(rip.Zone[i]); z != NO_ZONE {
			alloc.FreeZone(z)
			rip.Zone[i] = NO_ZONE
		}
	}

	// Subtree sizes (in data zones) for each level of indirection
	levels := []int{nr_indirects, nr_indirects * nr_indirects}
	if devinfo.Version != V1 {
		levels = append(levels, nr_indirects*nr_indirects*nr_indirects)
	}

	slotKeep := keep - dzones
	for l, size := range levels {
		slot := dzones + l
		if z := int(rip.Zone[slot]); z != NO_ZONE && slotKeep < size {
			k := slotKeep
			if k < 0 {
				k = 0
			}
			if pruneZone(rip, z, k, l+1, cache) {
				rip.Zone[slot] = NO_ZONE
			}
		}
		slotKeep -= size
	}

	rip.Dirty = true
}

// pruneZone prunes the subtree rooted at zone z, which sits behind 'depth'
// levels of indirection, keeping only the first 'keep' data zones below
// it. Reports whether the subtree became empty and z itself was freed.
func pruneZone(rip *Inode, z int, keep, depth int, cache BlockCache) bool {
	devinfo := rip.Devinfo
	alloc := devinfo.AllocTbl

	if depth == 0 { // a data zone
		if keep <= 0 {
			alloc.FreeZone(z)
			return true
		}
		return false
	}

	nr_indirects := devinfo.NrIndirects()
	sub := 1 // data zones per child subtree
	for i := 1; i < depth; i++ {
		sub *= nr_indirects
	}

	bp := cache.GetBlock(devinfo.Devnum, z<<devinfo.Scale, INDIRECT_BLOCK, NORMAL)
	empty := true
	for i := 0; i < nr_indirects; i++ {
		zi := RdIndir(bp, i, cache, devinfo.Firstdatazone, devinfo.Zones)
		if zi == NO_ZONE {
			continue
		}
		childKeep := keep - i*sub
		if childKeep >= sub {
			empty = false // fully kept
			continue
		}
		if pruneZone(rip, zi, childKeep, depth-1, cache) {
			WrIndir(bp, i, NO_ZONE)
			bp.Dirty = true
		} else {
			empty = false
		}
	}
	cache.PutBlock(bp, INDIRECT_BLOCK)

	if empty {
		alloc.FreeZone(z)
		return true
	}
	return false
}
