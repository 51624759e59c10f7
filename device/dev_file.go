package device

import (
	"encoding/binary"
	"os"

	"github.com/go-minixfs/minixfs/common"
)

type fileDevice struct {
	file      *os.File
	filename  string
	byteOrder binary.ByteOrder
	in        chan m_dev_req
	out       chan m_dev_res
}

// NewFileDevice creates a new file-backed block device, given a filename
// and specified byte order.
func NewFileDevice(filename string, byteOrder binary.ByteOrder) (common.BlockDevice, error) {
	file, err := os.OpenFile(filename, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	dev := &fileDevice{
		file,
		filename,
		byteOrder,
		make(chan m_dev_req),
		make(chan m_dev_res),
	}

	go dev.loop()
	return dev, nil
}

func (dev *fileDevice) loop() {
	var in <-chan m_dev_req = dev.in
	var out chan<- m_dev_res = dev.out

	for req := range in {
		switch req.call {
		case DEV_READ:
			newPos, err := dev.file.Seek(req.pos, 0)
			if err != nil {
				out <- m_dev_res{0, err}
				continue
			} else if req.pos != newPos {
				out <- m_dev_res{0, ERR_SEEK}
				continue
			}
			err = binary.Read(dev.file, dev.byteOrder, req.buf)
			out <- m_dev_res{0, err}
		case DEV_WRITE:
			newPos, err := dev.file.Seek(req.pos, 0)
			if err != nil {
				out <- m_dev_res{0, err}
				continue
			} else if req.pos != newPos {
				out <- m_dev_res{0, ERR_SEEK}
				continue
			}
			err = binary.Write(dev.file, dev.byteOrder, req.buf)
			out <- m_dev_res{0, err}
		case DEV_SIZE:
			fi, err := dev.file.Stat()
			if err != nil {
				out <- m_dev_res{0, err}
				continue
			}
			out <- m_dev_res{fi.Size(), nil}
		case DEV_CLOSE:
			err := dev.file.Close()
			out <- m_dev_res{0, err}
			close(dev.in)
			close(dev.out)
		default:
			out <- m_dev_res{0, ERR_BADCALL}
		}
	}
}

func (dev *fileDevice) Read(buf interface{}, pos int64) error {
	dev.in <- m_dev_req{DEV_READ, buf, pos}
	res := <-dev.out
	return res.err
}

func (dev *fileDevice) Write(buf interface{}, pos int64) error {
	dev.in <- m_dev_req{DEV_WRITE, buf, pos}
	res := <-dev.out
	return res.err
}

func (dev *fileDevice) Size() (int64, error) {
	dev.in <- m_dev_req{DEV_SIZE, nil, 0}
	res := <-dev.out
	return res.size, res.err
}

func (dev *fileDevice) Close() error {
	dev.in <- m_dev_req{DEV_CLOSE, nil, 0}
	res := <-dev.out
	return res.err
}

func (dev *fileDevice) String() string {
	return dev.filename
}
