package testutils

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/go-minixfs/minixfs/common"
	"github.com/go-minixfs/minixfs/device"
	"github.com/go-minixfs/minixfs/mkfs"
)

// NewTestImage formats a fresh filesystem on a ramdisk and returns the
// device together with the backing bytes, so tests can corrupt the image
// before mounting it.
func NewTestImage(test *testing.T, opts mkfs.Options, blocks int) (common.BlockDevice, []byte) {
	bsize := opts.Blocksize
	if bsize == 0 {
		bsize = common.STATIC_BLOCK_SIZE
	}
	if opts.Blocks == 0 {
		opts.Blocks = blocks
	}

	data := make([]byte, blocks*bsize)
	dev, err := device.NewRamdiskDevice(data)
	if err != nil {
		FatalHere(test, "Failed when creating ramdisk device: %s", err)
	}
	if err := mkfs.Format(dev, opts); err != nil {
		FatalHere(test, "Failed to format test image: %s", err)
	}
	return dev, data
}

// PatchSuperblock rewrites the V1/V2 superblock record of a raw image in
// place.
func PatchSuperblock(test *testing.T, data []byte, mutate func(*common.DiskSuperblock)) {
	var d common.DiskSuperblock
	rd := bytes.NewReader(data[common.SUPER_OFFSET:])
	if err := binary.Read(rd, binary.LittleEndian, &d); err != nil {
		FatalHere(test, "Failed to decode superblock: %s", err)
	}
	mutate(&d)
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, &d); err != nil {
		FatalHere(test, "Failed to encode superblock: %s", err)
	}
	copy(data[common.SUPER_OFFSET:], buf.Bytes())
}

// PatchV3Superblock rewrites the V3 superblock record of a raw image in
// place.
func PatchV3Superblock(test *testing.T, data []byte, mutate func(*common.DiskV3Superblock)) {
	var d common.DiskV3Superblock
	rd := bytes.NewReader(data[common.SUPER_OFFSET:])
	if err := binary.Read(rd, binary.LittleEndian, &d); err != nil {
		FatalHere(test, "Failed to decode superblock: %s", err)
	}
	mutate(&d)
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, &d); err != nil {
		FatalHere(test, "Failed to encode superblock: %s", err)
	}
	copy(data[common.SUPER_OFFSET:], buf.Bytes())
}
