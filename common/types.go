package common

// DeviceInfo is the parsed geometry of a mounted volume. It is immutable
// after mount except for MountState, which the volume lifecycle owns.
type DeviceInfo struct {
	Version       Version // V1, V2 or V3
	Blocksize     int     // volume block size in bytes
	Scale         uint    // log2 of blocks per zone
	Firstdatazone int     // the first data zone on the volume
	Zones         int     // the number of zones on the volume
	Inodes        int     // the number of inodes on the volume
	Maxsize       int     // the maximum size of a file on the volume
	ImapBlocks    int     // the number of inode bitmap blocks
	ZmapBlocks    int     // the number of zone bitmap blocks
	MapOffset     int     // first block of the inode table
	Dirsize       int     // directory entry stride (16/32/64)
	Namelen       int     // maximum filename length (14/30/60)
	MaxLinks      int     // maximum link count
	MountState    uint16  // in-memory mount-state bits
	Label         string  // volume identity used in log and error messages
	Devnum        int     // the cache slot of this device (if mounted)
	AllocTbl      AllocTbl
}

// InodeSize is the width of the on-disk inode record for this version.
func (info *DeviceInfo) InodeSize() int {
	if info.Version == V1 {
		return V1_INODE_SIZE
	}
	return V2_INODE_SIZE
}

// NrDzones is the number of direct zones in an inode.
func (info *DeviceInfo) NrDzones() int {
	if info.Version == V1 {
		return V1_NR_DZONES
	}
	return V2_NR_DZONES
}

// NrTzones is the total number of zone slots in an inode.
func (info *DeviceInfo) NrTzones() int {
	if info.Version == V1 {
		return V1_NR_TZONES
	}
	return V2_NR_TZONES
}

// NrIndirects is the number of zone numbers held by one indirect block.
func (info *DeviceInfo) NrIndirects() int {
	if info.Version == V1 {
		return info.Blocksize / V1_ZONE_NUM_SIZE
	}
	return info.Blocksize / V2_ZONE_NUM_SIZE
}

// InodesPerBlock is the number of raw inode records per block.
func (info *DeviceInfo) InodesPerBlock() int {
	return info.Blocksize / info.InodeSize()
}

// InodeBlock locates the inode-table block holding inode 'inum' and the
// record index within that block. Inodes are 1-indexed on disk.
func (info *DeviceInfo) InodeBlock(inum int) (bnum, offset int) {
	i := inum - 1
	return info.MapOffset + i/info.InodesPerBlock(), i % info.InodesPerBlock()
}

// Inode is the in-memory representation of an inode, independent of the
// on-disk record width. V1 inodes use only the first 9 zone slots.
type Inode struct {
	Mode   uint16
	Nlinks uint16
	Uid    uint16
	Gid    uint16
	Size   int32
	Atime  uint32
	Mtime  uint32
	Ctime  uint32
	Zone   [V2_NR_TZONES]uint32

	Bcache  BlockCache  // the block cache for the volume
	Icache  InodeTbl    // the inode table for the volume
	Devinfo *DeviceInfo // the device information for this inode's volume

	Inum  int  // the inode number of this inode
	Count int  // the number of clients of this inode
	Dirty bool // whether or not this inode has uncommitted changes
}

func (rip *Inode) Type() uint16 {
	return rip.Mode & I_TYPE
}

func (rip *Inode) IsRegular() bool {
	return rip.Mode&I_TYPE == I_REGULAR
}

func (rip *Inode) IsDirectory() bool {
	return rip.Mode&I_TYPE == I_DIRECTORY
}

func (rip *Inode) IsSymlink() bool {
	return rip.Mode&I_TYPE == I_SYMBOLIC_LINK
}

// IsSpecial reports whether the inode is a device, fifo or socket; such
// inodes carry a device number in Zone[0] instead of a data zone.
func (rip *Inode) IsSpecial() bool {
	switch rip.Mode & I_TYPE {
	case I_BLOCK_SPECIAL, I_CHAR_SPECIAL, I_NAMED_PIPE, I_UNIX_SOCKET:
		return true
	}
	return false
}

// Rdev decodes the device number stored in Zone[0] of a special-file inode
// (major in the high byte, minor in the low byte of the old 16-bit format).
func (rip *Inode) Rdev() (major, minor int) {
	z := rip.Zone[0]
	return int(z >> 8 & 0xff), int(z & 0xff)
}

// CacheBlock is one buffer held by the block cache.
type CacheBlock struct {
	Block    Block // the typed block data
	Blocknum int   // the number of this block
	Devnum   int   // the device number of this block
	Dirty    bool  // whether or not the block has uncommitted changes
	Uptodate bool  // false if the backing read failed

	Buf interface{} // the cache-policy specific block
}

// Block is a typed view of one device block.
type Block interface{}

type (
	V1InodeBlock   []DiskV1Inode // block of V1 raw inodes
	V2InodeBlock   []DiskV2Inode // block of V2/V3 raw inodes
	V1IndirectBlock []uint16     // block of V1 zone numbers
	IndirectBlock  []uint32      // block of V2/V3 zone numbers
	MapBlock       []uint16      // block of bitmap chunks
	FullDataBlock  []byte
	PartialDataBlock []byte
)

// StatfsInfo is the result of a statfs on a mounted volume.
type StatfsInfo struct {
	Type    uint16 // filesystem magic
	Bsize   int    // volume block size
	Blocks  int    // total data blocks
	Bfree   int    // free blocks, counted from the zone bitmap
	Bavail  int    // free blocks available to unprivileged users (== Bfree)
	Files   int    // total inodes
	Ffree   int    // free inodes, counted from the inode bitmap
	Namelen int    // maximum filename length
	Fsid    uint64 // derived from the device number
}

// StatInfo is the result of a getattr on an inode.
type StatInfo struct {
	Dev     int
	Inum    int
	Mode    uint16
	Nlinks  uint16
	Uid     uint16
	Gid     uint16
	Size    int32
	Atime   uint32
	Mtime   uint32
	Ctime   uint32
	Blksize int
	Blocks  int // 512-byte sectors, including indirect overhead
}

// AllocTbl manages the inode and zone bitmaps of one volume. The bitmap
// blocks are pinned for the volume's lifetime; bit 0 of each map is
// reserved and always set.
type AllocTbl interface {
	AllocInode() (int, error)
	AllocZone(zstart int) (int, error)
	FreeInode(inum int) error
	FreeZone(znum int) error
	CountFreeInodes() int
	CountFreeZones() int
	Close() error
}

// InodeTbl is the shared inode cache. Population is single-flight: the
// first GetInode for an inum triggers the disk read, concurrent callers
// wait for it to complete.
type InodeTbl interface {
	MountDevice(devnum int, info *DeviceInfo)
	UnmountDevice(devnum int) error
	GetInode(devnum int, inum int) (*Inode, error)
	DupInode(inode *Inode) *Inode
	PutInode(inode *Inode)
	FlushInode(inode *Inode, sync bool) error
	IsDeviceBusy(devnum int) bool
	Shutdown() error
}

// BlockCache is the LRU cache of device blocks.
type BlockCache interface {
	MountDevice(devnum int, dev BlockDevice, info *DeviceInfo) error
	UnmountDevice(devnum int) error
	GetBlock(devnum, bnum int, btype BlockType, only_search int) *CacheBlock
	PutBlock(cb *CacheBlock, btype BlockType) error
	// SyncBlock force-writes a single buffer if dirty and reports the
	// device error, leaving the buffer acquired.
	SyncBlock(cb *CacheBlock) error
	Invalidate(devnum int)
	Flush(devnum int)
	Shutdown() error
}

// BlockDevice is the raw, synchronous block I/O port. Read and Write
// operate at byte positions; buf is any encoding/binary compatible value.
type BlockDevice interface {
	Read(buf interface{}, pos int64) error
	Write(buf interface{}, pos int64) error
	Size() (int64, error)
	Close() error
}

// File is a handle to an open regular file.
type File interface {
	Read(buf []byte, pos int) (int, error)
	Write(buf []byte, pos int) (int, error)
	Truncate(size int) error
	Sync() error
	Dup() File
	Close() error
}
