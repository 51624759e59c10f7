package super_test

import (
	"testing"

	"github.com/go-minixfs/minixfs/common"
	"github.com/go-minixfs/minixfs/mkfs"
	. "github.com/go-minixfs/minixfs/super"
	. "github.com/go-minixfs/minixfs/testutils"
)

// Every accepted magic with its expected directory format.
func TestMagicVariants(test *testing.T) {
	variants := []struct {
		opts    mkfs.Options
		version common.Version
		magic   uint16
		dirsize int
		namelen int
	}{
		{mkfs.Options{Version: common.V1}, common.V1, common.SUPER_MAGIC, 16, 14},
		{mkfs.Options{Version: common.V1, LongNames: true}, common.V1, common.SUPER_MAGIC2, 32, 30},
		{mkfs.Options{Version: common.V2}, common.V2, common.SUPER_V2, 16, 14},
		{mkfs.Options{Version: common.V2, LongNames: true}, common.V2, common.SUPER_V2_LONG, 32, 30},
		{mkfs.Options{Version: common.V3}, common.V3, common.SUPER_V3, 64, 60},
	}

	for _, v := range variants {
		dev, _ := NewTestImage(test, v.opts, 64)
		sup, info, err := ReadSuperblock(dev)
		if err != nil {
			FatalHere(test, "Failed reading superblock for %s: %s", v.version, err)
		}
		if sup.Version != v.version {
			ErrorHere(test, "Version mismatch got %v, expected %v", sup.Version, v.version)
		}
		if sup.Magic() != v.magic {
			ErrorHere(test, "Magic mismatch got 0x%04x, expected 0x%04x", sup.Magic(), v.magic)
		}
		if info.Dirsize != v.dirsize {
			ErrorHere(test, "Dirsize mismatch got %d, expected %d", info.Dirsize, v.dirsize)
		}
		if info.Namelen != v.namelen {
			ErrorHere(test, "Namelen mismatch got %d, expected %d", info.Namelen, v.namelen)
		}
		dev.Close()
	}
}

func TestUnknownMagic(test *testing.T) {
	dev, data := NewTestImage(test, mkfs.Options{Version: common.V2}, 64)
	PatchSuperblock(test, data, func(d *common.DiskSuperblock) {
		d.Magic = 0xbeef
	})
	_, _, err := ReadSuperblock(dev)
	if err != common.ErrNoFilesystem {
		FatalHere(test, "Expected ErrNoFilesystem, got %v", err)
	}
	dev.Close()
}

func TestZeroBitmapCounts(test *testing.T) {
	dev, data := NewTestImage(test, mkfs.Options{Version: common.V2}, 64)
	PatchSuperblock(test, data, func(d *common.DiskSuperblock) {
		d.ImapBlocks = 0
	})
	_, _, err := ReadSuperblock(dev)
	if err != common.ErrIllegalSuperblock {
		FatalHere(test, "Expected ErrIllegalSuperblock, got %v", err)
	}
	dev.Close()

	dev, data = NewTestImage(test, mkfs.Options{Version: common.V2}, 64)
	PatchSuperblock(test, data, func(d *common.DiskSuperblock) {
		d.ZmapBlocks = 0
	})
	_, _, err = ReadSuperblock(dev)
	if err != common.ErrIllegalSuperblock {
		FatalHere(test, "Expected ErrIllegalSuperblock, got %v", err)
	}
	dev.Close()
}

// A V2 volume claiming more inodes than its single inode bitmap block can
// cover must be refused.
func TestInsufficientBitmap(test *testing.T) {
	dev, data := NewTestImage(test, mkfs.Options{Version: common.V2}, 64)
	PatchSuperblock(test, data, func(d *common.DiskSuperblock) {
		d.Ninodes = 65535 // needs 8 bitmap blocks at 1024-byte blocks
		d.ImapBlocks = 1
	})
	_, _, err := ReadSuperblock(dev)
	if err != common.ErrBadBitmap {
		FatalHere(test, "Expected ErrBadBitmap, got %v", err)
	}
	dev.Close()
}

func TestBadV3Blocksize(test *testing.T) {
	for _, bs := range []uint16{512, 1536, 8192} {
		dev, data := NewTestImage(test, mkfs.Options{Version: common.V3}, 64)
		PatchV3Superblock(test, data, func(d *common.DiskV3Superblock) {
			d.Blocksize = bs
		})
		_, _, err := ReadSuperblock(dev)
		if err != common.ErrBadBlockSize {
			FatalHere(test, "Blocksize %d: expected ErrBadBlockSize, got %v", bs, err)
		}
		dev.Close()
	}
}

func TestV3LargerBlocksize(test *testing.T) {
	dev, _ := NewTestImage(test, mkfs.Options{Version: common.V3, Blocksize: 2048}, 64)
	sup, info, err := ReadSuperblock(dev)
	if err != nil {
		FatalHere(test, "Failed reading superblock: %s", err)
	}
	if sup.Version != common.V3 {
		ErrorHere(test, "Version mismatch got %v, expected %v", sup.Version, common.V3)
	}
	if info.Blocksize != 2048 {
		ErrorHere(test, "Blocksize mismatch got %d, expected %d", info.Blocksize, 2048)
	}
	dev.Close()
}

// The mount-state bits are only stored on V1/V2 volumes.
func TestStateRoundTrip(test *testing.T) {
	dev, _ := NewTestImage(test, mkfs.Options{Version: common.V2}, 64)
	sup, _, err := ReadSuperblock(dev)
	if err != nil {
		FatalHere(test, "Failed reading superblock: %s", err)
	}
	if sup.State()&common.VALID_FS == 0 {
		FatalHere(test, "Fresh volume should carry VALID_FS")
	}

	sup.SetState(sup.State() &^ common.VALID_FS)
	if err = sup.Write(dev); err != nil {
		FatalHere(test, "Failed writing superblock: %s", err)
	}

	sup2, _, err := ReadSuperblock(dev)
	if err != nil {
		FatalHere(test, "Failed re-reading superblock: %s", err)
	}
	if sup2.State()&common.VALID_FS != 0 {
		ErrorHere(test, "VALID_FS should have been cleared on disk")
	}
	dev.Close()

	// V3 has no state field and always reads valid
	dev, _ = NewTestImage(test, mkfs.Options{Version: common.V3}, 64)
	sup, _, err = ReadSuperblock(dev)
	if err != nil {
		FatalHere(test, "Failed reading superblock: %s", err)
	}
	sup.SetState(0)
	if sup.State() != common.VALID_FS {
		ErrorHere(test, "V3 state should always read VALID_FS")
	}
	dev.Close()
}
