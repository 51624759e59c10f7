package testutils

import (
	"errors"
	"testing"

	"github.com/go-minixfs/minixfs/common"
	"github.com/go-minixfs/minixfs/device"
)

// ErrSimulatedIO is what the fault-injecting devices return.
var ErrSimulatedIO = errors.New("simulated device failure")

// NewTestDevice returns a ramdisk with a given geometry, each block filled
// with the bytes of its block number.
func NewTestDevice(test *testing.T, bsize, blocks int) common.BlockDevice {
	data := make([]byte, bsize*blocks)
	for i := 0; i < blocks; i++ {
		for j := 0; j < bsize; j++ {
			data[(i*bsize)+j] = byte(i)
		}
	}
	dev, err := device.NewRamdiskDevice(data)
	if err != nil {
		FatalHere(test, "Failed when creating ramdisk device: %s", err)
	}
	return dev
}

// BlockingDevice blocks on any read. It signals on HasBlocked and waits
// to be released on Unblock, letting a test hold a load in flight.
type BlockingDevice struct {
	common.BlockDevice
	HasBlocked chan bool
	Unblock    chan bool
}

func NewBlockingDevice(rdev common.BlockDevice) *BlockingDevice {
	dev := &BlockingDevice{
		rdev,
		make(chan bool),
		make(chan bool),
	}
	return dev
}

func (dev *BlockingDevice) Read(buf interface{}, pos int64) error {
	dev.HasBlocked <- true
	<-dev.Unblock
	return dev.BlockDevice.Read(buf, pos)
}

func (dev *BlockingDevice) Close() error {
	return dev.BlockDevice.Close()
}

// FaultyDevice fails reads and writes of chosen blocks, for driving the
// error and write-back verification paths.
type FaultyDevice struct {
	common.BlockDevice
	Blocksize  int
	FailReads  map[int]bool // block numbers whose reads fail
	FailWrites map[int]bool // block numbers whose writes fail
}

func NewFaultyDevice(rdev common.BlockDevice, blocksize int) *FaultyDevice {
	return &FaultyDevice{
		BlockDevice: rdev,
		Blocksize:   blocksize,
		FailReads:   make(map[int]bool),
		FailWrites:  make(map[int]bool),
	}
}

func (dev *FaultyDevice) Read(buf interface{}, pos int64) error {
	if dev.FailReads[int(pos)/dev.Blocksize] {
		return ErrSimulatedIO
	}
	return dev.BlockDevice.Read(buf, pos)
}

func (dev *FaultyDevice) Write(buf interface{}, pos int64) error {
	if dev.FailWrites[int(pos)/dev.Blocksize] {
		return ErrSimulatedIO
	}
	return dev.BlockDevice.Write(buf, pos)
}
