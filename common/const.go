package common

// Filesystem version, carried by the DeviceInfo of every mounted volume.
// The set is closed; all per-version dispatch switches on this tag.
type Version int

const (
	V1 Version = 1
	V2 Version = 2
	V3 Version = 3
)

func (v Version) String() string {
	switch v {
	case V1:
		return "minix"
	case V2:
		return "minix2"
	case V3:
		return "minix3"
	}
	return "unknown"
}

const (
	CHAR_BIT = 8 // number of bits in a char

	// The superblock always lives in the second 1024-byte block of the
	// device, regardless of the volume block size.
	SUPER_OFFSET = 1024

	STATIC_BLOCK_SIZE = 1024 // V1/V2 volumes always use 1024-byte blocks
	MIN_BLOCK_SIZE    = 1024
	MAX_BLOCK_SIZE    = 4096

	SUPER_MAGIC    = 0x137F // V1, 14 char names
	SUPER_MAGIC2   = 0x138F // V1, 30 char names
	SUPER_V2       = 0x2468 // V2, 14 char names
	SUPER_V2_LONG  = 0x2478 // V2, 30 char names
	SUPER_V3       = 0x4d5a // V3, magic lives at byte 24 of the superblock
	SUPER_V3_MAGIC_OFFSET = 24

	// Mount-state bits in the on-disk state field (V1/V2 only)
	VALID_FS = 0x0001 // clean unmount
	ERROR_FS = 0x0002 // fsck found errors

	MINIX_LINK_MAX  = 250   // V1 link ceiling
	MINIX2_LINK_MAX = 65530 // V2/V3 link ceiling

	V1_INODE_SIZE = 32 // the size of a V1 inode on disk, in bytes
	V2_INODE_SIZE = 64 // the size of a V2/V3 inode on disk, in bytes

	V1_NR_DZONES = 7 // number of direct zones in a V1 inode
	V1_NR_TZONES = 9 // total zone numbers in a V1 inode
	V2_NR_DZONES = 7 // number of direct zones in a V2/V3 inode
	V2_NR_TZONES = 10 // total zone numbers in a V2/V3 inode

	V1_ZONE_NUM_SIZE = 2 // bytes per zone number in a V1 indirect block
	V2_ZONE_NUM_SIZE = 4 // bytes per zone number in a V2/V3 indirect block

	ROOT_INODE  = 1 // the root inode number; inodes are 1-indexed
	BOOT_BLOCK  = 0
	SUPER_BLOCK = 1
	START_BLOCK = 2 // first bitmap block

	NR_INODES   = 64   // inode table slots kept in memory
	NR_BUFS     = 256  // buffer slots in the block cache
	NR_BUF_HASH = 256  // hash buckets in the block cache, power of two

	NO_ZONE  = 0 // zone 0 is never a valid data zone
	NO_BLOCK = 0
	NO_BIT   = 0
	NO_INODE = 0
	NO_DEV   = -1

	IMAP = 0 // operations are on the inode bitmap
	ZMAP = 1 // operations are on the zone bitmap

	// Access modes for BlockCache.GetBlock
	NORMAL   = 0 // read the block from the device if not cached
	NO_READ  = 1 // acquire a buffer only, the caller will fill it
	PREFETCH = 2 // like NO_READ but the block number is tentative

	// When a block is released, the type of usage is passed to PutBlock
	WRITE_IMMED BlockType = 0100 // block should be written to disk now
	ONE_SHOT    BlockType = 0200 // set if block not likely to be needed soon

	I_TYPE          = 0170000 // bit mask for type of inode
	I_UNIX_SOCKET   = 0140000 // unix domain socket
	I_SYMBOLIC_LINK = 0120000 // file is a symbolic link
	I_REGULAR       = 0100000 // regular file, not dir or special
	I_BLOCK_SPECIAL = 0060000 // block special file
	I_DIRECTORY     = 0040000 // file is a directory
	I_CHAR_SPECIAL  = 0020000 // character special file
	I_NAMED_PIPE    = 0010000 // named pipe (FIFO)

	ALL_MODES = 0007777 // all bits for user, group and others
	RWX_MODES = 0000777 // mode bits for RWX only

	I_NOT_ALLOC = 0000000 // this inode is free
)

// BlockType tags the typed buffer held by a cache block. The WRITE_IMMED and
// ONE_SHOT bits modify eviction/write-back policy and are stripped before
// dispatching on the base type.
type BlockType int

const (
	INODE_BLOCK        BlockType = 0 + WRITE_IMMED
	DIRECTORY_BLOCK    BlockType = 1 + WRITE_IMMED
	INDIRECT_BLOCK     BlockType = 2 + WRITE_IMMED
	MAP_BLOCK          BlockType = 3 + WRITE_IMMED
	FULL_DATA_BLOCK    BlockType = 5
	PARTIAL_DATA_BLOCK BlockType = 6
)

// Base strips the policy bits from a block type.
func (bt BlockType) Base() BlockType {
	return bt &^ (WRITE_IMMED | ONE_SHOT)
}
