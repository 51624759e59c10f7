// Command mkfs formats a file as a Minix filesystem image.
package main

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/urfave/cli/v2"

	"github.com/go-minixfs/minixfs/common"
	"github.com/go-minixfs/minixfs/device"
	"github.com/go-minixfs/minixfs/mkfs"
)

// Profile carries formatting defaults, loadable from a YAML file or the
// environment so image-building scripts don't repeat flags.
type Profile struct {
	Version   int  `yaml:"version" env:"MKFS_VERSION" env-default:"3"`
	Blocks    int  `yaml:"blocks" env:"MKFS_BLOCKS" env-default:"0"`
	Inodes    int  `yaml:"inodes" env:"MKFS_INODES" env-default:"0"`
	Blocksize int  `yaml:"blocksize" env:"MKFS_BLOCKSIZE" env-default:"0"`
	LongNames bool `yaml:"long_names" env:"MKFS_LONG_NAMES" env-default:"false"`
}

func main() {
	app := &cli.App{
		Name:      "mkfs",
		Usage:     "write a new minix filesystem to an image file",
		ArgsUsage: "IMAGE",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "profile", Usage: "YAML profile with formatting defaults"},
			&cli.IntFlag{Name: "version", Aliases: []string{"v"}, Value: 0, Usage: "filesystem version (1, 2 or 3)"},
			&cli.IntFlag{Name: "blocks", Aliases: []string{"b"}, Value: 0, Usage: "volume size in blocks (0: from image size)"},
			&cli.IntFlag{Name: "inodes", Aliases: []string{"i"}, Value: 0, Usage: "inode count (0: automatic)"},
			&cli.IntFlag{Name: "blocksize", Value: 0, Usage: "block size for V3 volumes"},
			&cli.BoolFlag{Name: "long-names", Usage: "30-character names on V1/V2 volumes"},
		},
		Action: format,
	}

	if err := app.Run(os.Args); err != nil {
		color.Red("mkfs: %s", err)
		os.Exit(1)
	}
}

func format(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one image file argument")
	}
	filename := c.Args().First()

	var profile Profile
	if path := c.String("profile"); path != "" {
		if err := cleanenv.ReadConfig(path, &profile); err != nil {
			return fmt.Errorf("reading profile %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&profile); err != nil {
		return err
	}

	// Flags beat the profile
	if v := c.Int("version"); v != 0 {
		profile.Version = v
	}
	if b := c.Int("blocks"); b != 0 {
		profile.Blocks = b
	}
	if i := c.Int("inodes"); i != 0 {
		profile.Inodes = i
	}
	if bs := c.Int("blocksize"); bs != 0 {
		profile.Blocksize = bs
	}
	if c.Bool("long-names") {
		profile.LongNames = true
	}

	var version common.Version
	switch profile.Version {
	case 1:
		version = common.V1
	case 2:
		version = common.V2
	case 3, 0:
		version = common.V3
	default:
		return fmt.Errorf("unknown filesystem version %d", profile.Version)
	}

	dev, err := device.NewFileDevice(filename, binary.LittleEndian)
	if err != nil {
		return err
	}
	defer dev.Close()

	err = mkfs.Format(dev, mkfs.Options{
		Version:   version,
		Blocks:    profile.Blocks,
		Inodes:    profile.Inodes,
		Blocksize: profile.Blocksize,
		LongNames: profile.LongNames,
	})
	if err != nil {
		return err
	}

	color.Green("%s: %s filesystem written", filename, version)
	return nil
}
