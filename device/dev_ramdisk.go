package device

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/go-minixfs/minixfs/common"
)

type ramdiskDevice struct {
	data      []byte
	byteOrder binary.ByteOrder
	in        chan m_dev_req
	out       chan m_dev_res
}

// NewRamdiskDevice creates a block device backed by an in-memory image.
// The image is used directly, not copied.
func NewRamdiskDevice(data []byte) (common.BlockDevice, error) {
	dev := &ramdiskDevice{
		data,
		binary.LittleEndian,
		make(chan m_dev_req),
		make(chan m_dev_res),
	}

	go dev.loop()
	return dev, nil
}

func (dev *ramdiskDevice) loop() {
	var in <-chan m_dev_req = dev.in
	var out chan<- m_dev_res = dev.out

	for req := range in {
		switch req.call {
		case DEV_READ:
			if req.pos < 0 || req.pos > int64(len(dev.data)) {
				out <- m_dev_res{0, ERR_SEEK}
				continue
			}
			rbuf := bytes.NewReader(dev.data[req.pos:])
			err := binary.Read(rbuf, dev.byteOrder, req.buf)
			out <- m_dev_res{0, err}
		case DEV_WRITE:
			if req.pos < 0 || req.pos > int64(len(dev.data)) {
				out <- m_dev_res{0, ERR_SEEK}
				continue
			}
			wbuf := new(bytes.Buffer)
			err := binary.Write(wbuf, dev.byteOrder, req.buf)
			if err == nil && int(req.pos)+wbuf.Len() > len(dev.data) {
				err = fmt.Errorf("write of %d bytes at %d past end of device", wbuf.Len(), req.pos)
			}
			if err == nil {
				copy(dev.data[req.pos:], wbuf.Bytes())
			}
			out <- m_dev_res{0, err}
		case DEV_SIZE:
			out <- m_dev_res{int64(len(dev.data)), nil}
		case DEV_CLOSE:
			out <- m_dev_res{0, nil}
			close(dev.in)
			close(dev.out)
		default:
			out <- m_dev_res{0, ERR_BADCALL}
		}
	}
}

func (dev *ramdiskDevice) Read(buf interface{}, pos int64) error {
	dev.in <- m_dev_req{DEV_READ, buf, pos}
	res := <-dev.out
	return res.err
}

func (dev *ramdiskDevice) Write(buf interface{}, pos int64) error {
	dev.in <- m_dev_req{DEV_WRITE, buf, pos}
	res := <-dev.out
	return res.err
}

func (dev *ramdiskDevice) Size() (int64, error) {
	dev.in <- m_dev_req{DEV_SIZE, nil, 0}
	res := <-dev.out
	return res.size, res.err
}

func (dev *ramdiskDevice) Close() error {
	dev.in <- m_dev_req{DEV_CLOSE, nil, 0}
	res := <-dev.out
	return res.err
}

func (dev *ramdiskDevice) String() string {
	return "ramdisk"
}
