// Package debug dumps cache blocks in a readable form.
package debug

import (
	"bytes"
	"fmt"
	"log/slog"
	"math/bits"

	"github.com/go-minixfs/minixfs/common"
)

// PrintBlock logs the contents of a cache block. Inode blocks come in two
// record widths; both print one line per allocated inode.
func PrintBlock(bp *common.CacheBlock, devinfo *common.DeviceInfo) {
	switch bdata := bp.Block.(type) {
	case common.V1InodeBlock:
		inum := (bp.Blocknum-devinfo.MapOffset)*devinfo.InodesPerBlock() + 1
		buf := bytes.NewBuffer(nil)
		fmt.Fprintf(buf, "%8s %-16s %8s %8s %s\n", "INODE #", "MODE", "NLINKS", "SIZE", "ZONES")
		for i, inode := range bdata {
			if inode.Mode != 0 && inode.Nlinks != 0 {
				fmt.Fprintf(buf, "%8d %16b %8d %8d %v\n", inum+i, inode.Mode, inode.Nlinks, inode.Size, inode.Zone)
			}
		}
		slog.Debug("inode block", "block", bp.Blocknum, "data", buf.String())
	case common.V2InodeBlock:
		inum := (bp.Blocknum-devinfo.MapOffset)*devinfo.InodesPerBlock() + 1
		buf := bytes.NewBuffer(nil)
		fmt.Fprintf(buf, "%8s %-16s %8s %8s %s\n", "INODE #", "MODE", "NLINKS", "SIZE", "ZONES")
		for i, inode := range bdata {
			if inode.Mode != 0 && inode.Nlinks != 0 {
				fmt.Fprintf(buf, "%8d %16b %8d %8d %v\n", inum+i, inode.Mode, inode.Nlinks, inode.Size, inode.Zone)
			}
		}
		slog.Debug("inode block", "block", bp.Blocknum, "data", buf.String())
	case common.MapBlock:
		used := 0
		for _, chunk := range bdata {
			used += bits.OnesCount16(chunk)
		}
		slog.Debug("bitmap block", "block", bp.Blocknum, "bits_set", used)
	case common.V1IndirectBlock:
		slog.Debug("indirect block", "block", bp.Blocknum, "entries", nonzero16(bdata))
	case common.IndirectBlock:
		slog.Debug("indirect block", "block", bp.Blocknum, "entries", nonzero32(bdata))
	}
}

func nonzero16(zones []uint16) int {
	n := 0
	for _, z := range zones {
		if z != 0 {
			n++
		}
	}
	return n
}

func nonzero32(zones []uint32) int {
	n := 0
	for _, z := range zones {
		if z != 0 {
			n++
		}
	}
	return n
}
