// Command minixstat mounts an image read-only and prints what it finds.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/go-minixfs/minixfs/common"
	"github.com/go-minixfs/minixfs/fs"
)

func main() {
	app := &cli.App{
		Name:      "minixstat",
		Usage:     "inspect a minix filesystem image",
		ArgsUsage: "IMAGE",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "inode", Aliases: []string{"i"}, Value: common.ROOT_INODE, Usage: "inode to stat"},
			&cli.BoolFlag{Name: "map", Usage: "print the block map of the inode"},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "suppress mount log output"},
		},
		Action: stat,
	}

	if err := app.Run(os.Args); err != nil {
		color.Red("minixstat: %s", err)
		os.Exit(1)
	}
}

func stat(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one image file argument")
	}

	opts := fs.Options{ReadOnly: true}
	if c.Bool("quiet") {
		opts.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
	}

	v, err := fs.MountFile(c.Args().First(), opts)
	if err != nil {
		return err
	}
	defer v.Unmount()

	sf := v.Statfs()
	header := color.New(color.Bold)
	header.Println("volume")
	fmt.Printf("  magic      0x%04x\n", sf.Type)
	fmt.Printf("  blocksize  %d\n", sf.Bsize)
	fmt.Printf("  blocks     %d (%d free)\n", sf.Blocks, sf.Bfree)
	fmt.Printf("  inodes     %d (%d free)\n", sf.Files, sf.Ffree)
	fmt.Printf("  namelen    %d\n", sf.Namelen)

	rip, err := v.GetInode(c.Int("inode"))
	if err != nil {
		return fmt.Errorf("inode %d: %w", c.Int("inode"), err)
	}
	defer v.PutInode(rip)

	st := v.Getattr(rip)
	header.Printf("inode %d\n", st.Inum)
	fmt.Printf("  mode       %06o (%s)\n", st.Mode, typeName(rip))
	fmt.Printf("  nlinks     %d\n", st.Nlinks)
	fmt.Printf("  uid/gid    %d/%d\n", st.Uid, st.Gid)
	fmt.Printf("  size       %d\n", st.Size)
	fmt.Printf("  blocks     %d\n", st.Blocks)
	if rip.IsSpecial() {
		major, minor := rip.Rdev()
		fmt.Printf("  rdev       %d:%d\n", major, minor)
	}

	if c.Bool("map") {
		header.Println("block map")
		bsize := sf.Bsize
		for pos := 0; pos < int(st.Size); pos += bsize {
			b := v.Bmap(rip, pos)
			if b == common.NO_BLOCK {
				fmt.Printf("  %8d  hole\n", pos/bsize)
			} else {
				fmt.Printf("  %8d  %d\n", pos/bsize, b)
			}
		}
	}

	return nil
}

func typeName(rip *common.Inode) string {
	switch {
	case rip.IsDirectory():
		return "directory"
	case rip.IsRegular():
		return "regular"
	case rip.IsSymlink():
		return "symlink"
	case rip.IsSpecial():
		return "device"
	default:
		return "unknown"
	}
}
