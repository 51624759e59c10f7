package common

import "unsafe"

// On-disk records, little-endian. The field layouts are wire formats: the
// structs contain no padding, so encoding/binary reads and writes them
// byte-for-byte as they appear on the device.

// DiskSuperblock is the V1/V2 superblock record.
type DiskSuperblock struct {
	Ninodes       uint16 // # of usable inodes on the minor device
	Nzones        uint16 // total device size for V1, unused in V2+
	ImapBlocks    uint16 // # of blocks used by inode bit map
	ZmapBlocks    uint16 // # of blocks used by zone bit map
	Firstdatazone uint16 // number of first data zone
	LogZoneSize   uint16 // log2 of blocks/zone
	MaxSize       uint32 // maximum file size on this device
	Magic         uint16 // magic number to recognize super-blocks
	State         uint16 // filesystem state
	Zones         uint32 // device size in zones (replaces Nzones in V2)
}

// DiskV3Superblock is the V3 superblock record; the magic sits at byte
// offset 24 and the state field is gone.
type DiskV3Superblock struct {
	Ninodes       uint32 // # of usable inodes on the minor device
	Pad0          uint16 // obsolete s_nzones
	ImapBlocks    uint16 // # of blocks used by inode bit map
	ZmapBlocks    uint16 // # of blocks used by zone bit map
	Firstdatazone uint16 // number of first data zone
	LogZoneSize   uint16 // log2 of blocks/zone
	Pad1          uint16
	MaxSize       uint32 // maximum file size on this device
	Zones         uint32 // device size in zones
	Magic         uint16 // magic number to recognize super-blocks
	Pad2          uint16
	Blocksize     uint16 // block size in bytes
	DiskVersion   byte   // filesystem format sub-version
}

// DiskV1Inode is the 32-byte V1 raw inode.
type DiskV1Inode struct {
	Mode   uint16
	Uid    uint16
	Size   uint32
	Time   uint32 // single timestamp, stamped into atime/mtime/ctime
	Gid    byte
	Nlinks byte
	Zone   [V1_NR_TZONES]uint16
}

// DiskV2Inode is the 64-byte V2/V3 raw inode.
type DiskV2Inode struct {
	Mode   uint16
	Nlinks uint16
	Uid    uint16
	Gid    uint16
	Size   uint32
	Atime  uint32
	Mtime  uint32
	Ctime  uint32
	Zone   [V2_NR_TZONES]uint32
}

// The raw inode records must be exactly 32 and 64 bytes; a size drift here
// would corrupt every volume we touch. Both directions fail to compile on
// mismatch.
var (
	_ [V1_INODE_SIZE - unsafe.Sizeof(DiskV1Inode{})]byte
	_ [unsafe.Sizeof(DiskV1Inode{}) - V1_INODE_SIZE]byte
	_ [V2_INODE_SIZE - unsafe.Sizeof(DiskV2Inode{})]byte
	_ [unsafe.Sizeof(DiskV2Inode{}) - V2_INODE_SIZE]byte
)
