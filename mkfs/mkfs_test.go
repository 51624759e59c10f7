package mkfs_test

import (
	"encoding/binary"
	"testing"

	"github.com/go-minixfs/minixfs/common"
	"github.com/go-minixfs/minixfs/device"
	"github.com/go-minixfs/minixfs/fs"
	. "github.com/go-minixfs/minixfs/mkfs"
	"github.com/go-minixfs/minixfs/super"
	. "github.com/go-minixfs/minixfs/testutils"
)

// A fresh volume of every version mounts clean and carries a root
// directory with "." and ".." pointing back at the root inode.
func TestFormatAndMount(test *testing.T) {
	versions := []struct {
		opts  Options
		magic uint16
	}{
		{Options{Version: common.V1}, common.SUPER_MAGIC},
		{Options{Version: common.V1, LongNames: true}, common.SUPER_MAGIC2},
		{Options{Version: common.V2}, common.SUPER_V2},
		{Options{Version: common.V2, LongNames: true}, common.SUPER_V2_LONG},
		{Options{Version: common.V3}, common.SUPER_V3},
		{Options{Version: common.V3, Blocksize: 4096}, common.SUPER_V3},
	}

	for _, tt := range versions {
		dev, data := NewTestImage(test, tt.opts, 64)

		_, info, err := super.ReadSuperblock(dev)
		if err != nil {
			FatalHere(test, "Failed reading superblock: %s", err)
		}

		v, err := fs.Mount(dev, fs.Options{Label: "test"})
		if err != nil {
			FatalHere(test, "Failed mounting %v volume: %s", tt.opts.Version, err)
		}
		if sf := v.Statfs(); sf.Type != tt.magic {
			ErrorHere(test, "Statfs type got %#x, expected %#x", sf.Type, tt.magic)
		}

		root := v.RootInode()
		rootBlock := v.Bmap(root, 0)
		v.PutInode(root)
		if err = v.Unmount(); err != nil {
			FatalHere(test, "Failed unmounting volume: %s", err)
		}

		// Decode the first two directory entries straight from the image
		dirData := data[rootBlock*info.Blocksize:]
		for i, name := range []string{".", ".."} {
			ent := dirData[i*info.Dirsize:]
			var inum int
			var nm []byte
			if info.Version == common.V3 {
				inum = int(binary.LittleEndian.Uint32(ent))
				nm = ent[4:info.Dirsize]
			} else {
				inum = int(binary.LittleEndian.Uint16(ent))
				nm = ent[2:info.Dirsize]
			}
			if inum != common.ROOT_INODE {
				ErrorHere(test, "Entry %q points at inode %d, expected %d", name, inum, common.ROOT_INODE)
			}
			got := string(nm[:len(name)])
			if got != name || nm[len(name)] != 0 {
				ErrorHere(test, "Entry name got %q, expected %q", got, name)
			}
		}
	}
}

func TestFormatTooSmall(test *testing.T) {
	data := make([]byte, 4*1024)
	dev, err := device.NewRamdiskDevice(data)
	if err != nil {
		FatalHere(test, "Failed creating ramdisk: %s", err)
	}

	if err := Format(dev, Options{Version: common.V2}); err == nil {
		ErrorHere(test, "Expected formatting a 4-block device to fail")
	}
}
