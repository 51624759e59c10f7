package file

import (
	"sync"

	"github.com/go-minixfs/minixfs/common"
)

// server_File serializes access to one open regular file. Reads run
// concurrently; a write, truncate or close waits for outstanding reads to
// drain first.
type server_File struct {
	rip      *common.Inode   // the underlying inode
	count    int             // the number of clients of this server
	readonly bool            // the volume refuses writes
	wg       *sync.WaitGroup // tracking outstanding read requests

	in  chan reqFile
	out chan resFile
}

// NewFile opens an inode for file I/O. Only regular files carry file
// data; anything else is refused. The caller's reference to the inode is
// adopted by the file and released when the last client closes.
func NewFile(rip *common.Inode, readonly bool) (common.File, error) {
	if !rip.IsRegular() {
		return nil, common.EINVAL
	}

	file := &server_File{
		rip,
		1,
		readonly,
		new(sync.WaitGroup),
		make(chan reqFile),
		make(chan resFile),
	}

	go file.loop()
	return file, nil
}

func (file *server_File) loop() {
	alive := true
	for alive {
		req := <-file.in
		switch req := req.(type) {
		case req_File_Read:
			// Indicate we have another outstanding reader
			file.wg.Add(1)
			callback := make(chan resFile)
			file.out <- res_File_Async{callback}

			// Launch a new goroutine to perform the read, using the callback
			// channel to return the result.
			go func() {
				n, err := common.Read(file.rip, req.buf, req.pos)
				callback <- res_File_Read{n, err}
				file.wg.Done() // signal completion
			}()
		case req_File_Write:
			if file.readonly {
				file.out <- res_File_Write{0, common.EROFS}
				continue
			}
			file.wg.Wait() // wait for any outstanding reads to complete
			n, err := common.Write(file.rip, req.buf, req.pos)
			file.out <- res_File_Write{n, err}
		case req_File_Truncate:
			if file.readonly {
				file.out <- res_File_Truncate{common.EROFS}
				continue
			}
			file.wg.Wait() // wait for any outstanding reads to complete
			common.Truncate(file.rip, req.size, file.rip.Bcache)
			file.rip.Size = int32(req.size)
			file.rip.Dirty = true
			file.out <- res_File_Truncate{nil}
		case req_File_Sync:
			file.wg.Wait()
			err := file.rip.Icache.FlushInode(file.rip, true)
			file.out <- res_File_Sync{err}
		case req_File_Dup:
			file.count++
			file.out <- res_File_Dup{}
		case req_File_Close:
			file.wg.Wait() // wait for any outstanding reads to complete
			file.count--

			var err error
			if file.count == 0 {
				// Push our changes to the inode cache and drop the inode
				if !file.readonly {
					err = file.rip.Icache.FlushInode(file.rip, false)
				}
				file.rip.Icache.PutInode(file.rip)
				alive = false
			}

			file.out <- res_File_Close{err}
		}
	}
}

var _ common.File = &server_File{}
