package debug

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/go-minixfs/minixfs/common"
)

// capture swaps the default logger for one writing into a buffer at debug
// level, and restores it when the test is done.
func capture(test *testing.T) *bytes.Buffer {
	buf := bytes.NewBuffer(nil)
	old := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))
	test.Cleanup(func() { slog.SetDefault(old) })
	return buf
}

func TestPrintInodeBlock(test *testing.T) {
	out := capture(test)

	info := &common.DeviceInfo{
		Blocksize: common.STATIC_BLOCK_SIZE,
		Version:   common.V2,
		MapOffset: 4,
	}

	bdata := make(common.V2InodeBlock, info.InodesPerBlock())
	bdata[0] = common.DiskV2Inode{
		Mode:   common.I_DIRECTORY | 0755,
		Nlinks: 2,
		Size:   64,
	}
	bp := &common.CacheBlock{Block: bdata, Blocknum: 4}

	PrintBlock(bp, info)

	got := out.String()
	if !strings.Contains(got, "inode block") {
		test.Errorf("Output %q does not mention the block kind", got)
	}
	// One allocated record, inode 1 of the block
	if !strings.Contains(got, "NLINKS") || strings.Count(got, "\\n") != 2 {
		test.Errorf("Output %q, expected a header and a single record", got)
	}
}

func TestPrintMapBlock(test *testing.T) {
	out := capture(test)

	info := &common.DeviceInfo{Blocksize: common.STATIC_BLOCK_SIZE}
	bdata := make(common.MapBlock, info.Blocksize/2)
	bdata[0] = 0x0007 // three bits
	bdata[1] = 0x8000 // one more
	bp := &common.CacheBlock{Block: bdata, Blocknum: 2}

	PrintBlock(bp, info)

	got := out.String()
	if !strings.Contains(got, "bitmap block") || !strings.Contains(got, "bits_set=4") {
		test.Errorf("Output %q, expected 4 set bits reported", got)
	}
}

func TestPrintIndirectBlock(test *testing.T) {
	out := capture(test)

	info := &common.DeviceInfo{Blocksize: common.STATIC_BLOCK_SIZE}
	bdata := make(common.IndirectBlock, info.Blocksize/4)
	bdata[0] = 12
	bdata[5] = 19
	bp := &common.CacheBlock{Block: bdata, Blocknum: 9}

	PrintBlock(bp, info)

	got := out.String()
	if !strings.Contains(got, "indirect block") || !strings.Contains(got, "entries=2") {
		test.Errorf("Output %q, expected 2 entries reported", got)
	}
}
