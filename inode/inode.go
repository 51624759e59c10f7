package inode

import (
	"sync"

	"github.com/go-minixfs/minixfs/common"
)

type cacheSlot struct {
	inode *common.Inode // the inode itself
	err   error         // outcome of the last load of this slot

	waiting []chan resInodeTbl // a list of waiting goroutines
	m       sync.Mutex         // mutex for waitlist
}

func (cs *cacheSlot) ReturnOrQueue(ch chan resInodeTbl) {
	cs.m.Lock()
	defer cs.m.Unlock()

	if len(cs.waiting) > 0 {
		cs.waiting = append(cs.waiting, ch)
	} else {
		ch <- res_InodeTbl_GetInode{cs.inode, cs.err}
	}
}

func (cs *cacheSlot) Queue(ch chan resInodeTbl) {
	cs.m.Lock()
	defer cs.m.Unlock()

	cs.err = nil // a fresh load resets the previous outcome
	cs.waiting = append(cs.waiting, ch)
}

// FinishedLoading hands the load outcome to every queued waiter and
// reports how many there were. On an error the waiters receive no inode.
func (cs *cacheSlot) FinishedLoading(err error) int {
	cs.m.Lock()
	defer cs.m.Unlock()

	cs.err = err
	rip := cs.inode
	if err != nil {
		rip = nil
	}
	for _, ch := range cs.waiting {
		ch <- res_InodeTbl_GetInode{rip, err}
	}
	n := len(cs.waiting)
	cs.waiting = nil
	return n
}

type server_InodeTbl struct {
	bcache  common.BlockCache
	devices []*common.DeviceInfo
	slots   []*cacheSlot

	in  chan reqInodeTbl
	out chan resInodeTbl
}

func NewCache(bcache common.BlockCache, numdevs int, size int) common.InodeTbl {
	cache := &server_InodeTbl{
		bcache,
		make([]*common.DeviceInfo, numdevs),
		make([]*cacheSlot, size),
		make(chan reqInodeTbl),
		make(chan resInodeTbl),
	}

	for i := 0; i < len(cache.slots); i++ {
		slot := new(cacheSlot)
		slot.inode = new(common.Inode)
		slot.inode.Bcache = bcache
		slot.inode.Icache = cache
		cache.slots[i] = slot
	}

	go cache.loop()

	return cache
}

func (itable *server_InodeTbl) loop() {
	alive := true
	for alive {
		req := <-itable.in
		switch req := req.(type) {
		case req_InodeTbl_MountDevice:
			itable.devices[req.devnum] = req.info
			itable.out <- res_InodeTbl_MountDevice{}
		case req_InodeTbl_UnmountDevice:
			itable.devices[req.devnum] = nil
			itable.out <- res_InodeTbl_UnmountDevice{nil}
		case req_InodeTbl_GetInode:
			callback := make(chan resInodeTbl)

			info := itable.devices[req.devnum]
			if info == nil || req.inum < 1 || req.inum > info.Inodes {
				itable.out <- res_InodeTbl_Async{callback}
				callback <- res_InodeTbl_GetInode{nil, common.EINVAL}
				continue
			}

			slotIndex := itable.findSlot(req.devnum, req.inum)
			var xp *common.Inode

			if slotIndex != common.NO_INODE && slotIndex < len(itable.slots) {
				xp = itable.slots[slotIndex].inode
			}

			if xp == nil {
				// Inode table is completely full
				itable.out <- res_InodeTbl_Async{callback}
				callback <- res_InodeTbl_GetInode{nil, common.ENFILE}
			} else if xp.Count > 0 {
				// We found the inode, so return it
				slot := itable.slots[slotIndex]
				xp.Count++
				itable.out <- res_InodeTbl_Async{callback}
				slot.ReturnOrQueue(callback)
			} else {
				// Need to load the inode asynchronously, so make sure the
				// cache slot isn't claimed by someone else in the meantime
				slot := itable.slots[slotIndex]
				xp.Devinfo = info
				xp.Inum = req.inum
				xp.Count++

				slot.Queue(callback)

				go func() {
					err := itable.loadInode(xp)
					itable.in <- req_InodeTbl_finishLoad{slot, xp, err}
					<-itable.out
				}()

				itable.out <- res_InodeTbl_Async{callback}
			}
		case req_InodeTbl_finishLoad:
			// Waking the waiters and releasing claims happens in one loop
			// step, so a GetInode can never observe a finished load with
			// its claims still in place.
			n := req.slot.FinishedLoading(req.err)
			if req.err != nil {
				// Every waiter got the error instead of a reference
				req.inode.Count -= n
			}
			itable.out <- res_InodeTbl_finishLoad{}
		case req_InodeTbl_DupInode:
			// Given an inode, duplicate it by incrementing its count
			rip := req.inode
			rip.Count++
			itable.out <- res_InodeTbl_DupInode{rip}
		case req_InodeTbl_PutInode:
			rip := req.inode

			if rip == nil {
				itable.out <- res_InodeTbl_PutInode{}
				continue
			}

			rip.Count--
			if rip.Count == 0 { // means no one is using it now
				if rip.Nlinks == 0 { // free the inode
					common.Truncate(rip, 0, itable.bcache) // return all the disk blocks
					rip.Size = 0
					rip.Mode = common.I_NOT_ALLOC
					rip.Dirty = true
					rip.Devinfo.AllocTbl.FreeInode(rip.Inum)
				}

				if rip.Dirty {
					// Write this inode out to disk
					itable.writeInode(rip, false)
				}
			}

			itable.out <- res_InodeTbl_PutInode{}
		case req_InodeTbl_FlushInode:
			rip := req.inode

			var err error
			if rip != nil && rip.Dirty {
				err = itable.writeInode(rip, req.sync)
			}
			itable.out <- res_InodeTbl_FlushInode{err}
		case req_InodeTbl_IsDeviceBusy:
			count := 0
			for i := 0; i < len(itable.slots); i++ {
				rip := itable.slots[i].inode
				if rip.Count > 0 && rip.Devinfo.Devnum == req.devnum {
					count += rip.Count
				}
			}
			itable.out <- res_InodeTbl_IsDeviceBusy{count > 1}
		case req_InodeTbl_Shutdown:
			busy := false
			for i := 0; i < len(itable.devices); i++ {
				if itable.devices[i] != nil {
					busy = true
					break
				}
			}
			if busy {
				itable.out <- res_InodeTbl_Shutdown{common.EBUSY}
				continue
			}
			itable.out <- res_InodeTbl_Shutdown{nil}
			alive = false
		}
	}
}

// Returns the slot that contains a given inode, an available slot if the
// given inode is not present, or NO_INODE.
func (c *server_InodeTbl) findSlot(devnum, inum int) int {
	var slotIndex int = common.NO_INODE

	for i := 0; i < len(c.slots); i++ {
		rip := c.slots[i].inode
		if rip.Count > 0 {
			if rip.Devinfo.Devnum == devnum && rip.Inum == inum {
				// this is the inode we're looking for
				return i
			}
		} else {
			slotIndex = i // unused slot, will use if not found
		}
	}

	return slotIndex
}

// loadInode reads the raw record of an inode from its inode-table block
// and unpacks it into the in-memory form. The two record widths differ in
// field order and in how many timestamps they carry; a V1 record has a
// single timestamp which is stamped into all three.
func (c *server_InodeTbl) loadInode(xp *common.Inode) error {
	// The count at this point is guaranteed to be > 0, so the device cannot
	// be unmounted until the load has completed and the inode has been 'put'

	info := xp.Devinfo
	blocknum, ioffset := info.InodeBlock(xp.Inum)

	bp := c.bcache.GetBlock(info.Devnum, blocknum, common.INODE_BLOCK, common.NORMAL)
	defer c.bcache.PutBlock(bp, common.INODE_BLOCK)

	if !bp.Uptodate {
		return common.EIO
	}

	switch inodeb := bp.Block.(type) {
	case common.V1InodeBlock:
		d := &inodeb[ioffset]
		xp.Mode = d.Mode
		xp.Nlinks = uint16(d.Nlinks)
		xp.Uid = d.Uid
		xp.Gid = uint16(d.Gid)
		xp.Size = int32(d.Size)
		xp.Atime = d.Time
		xp.Mtime = d.Time
		xp.Ctime = d.Time
		for i := 0; i < common.V1_NR_TZONES; i++ {
			xp.Zone[i] = uint32(d.Zone[i])
		}
		for i := common.V1_NR_TZONES; i < common.V2_NR_TZONES; i++ {
			xp.Zone[i] = common.NO_ZONE
		}
	case common.V2InodeBlock:
		d := &inodeb[ioffset]
		xp.Mode = d.Mode
		xp.Nlinks = d.Nlinks
		xp.Uid = d.Uid
		xp.Gid = d.Gid
		xp.Size = int32(d.Size)
		xp.Atime = d.Atime
		xp.Mtime = d.Mtime
		xp.Ctime = d.Ctime
		for i := 0; i < common.V2_NR_TZONES; i++ {
			xp.Zone[i] = d.Zone[i]
		}
	default:
		panic("inode block expected")
	}

	xp.Dirty = false
	return nil
}

// writeInode packs an inode back into its raw record and enters it into
// the inode-table block. With 'sync' set the block is forced out to the
// device and a write that did not land on an intact buffer is reported as
// an i/o error naming the inode.
func (c *server_InodeTbl) writeInode(xp *common.Inode, sync bool) error {
	info := xp.Devinfo
	blocknum, ioffset := info.InodeBlock(xp.Inum)

	bp := c.bcache.GetBlock(info.Devnum, blocknum, common.INODE_BLOCK, common.NORMAL)
	if !bp.Uptodate {
		// The block never came off the device intact. Packing into it and
		// flushing would wipe every other inode record it holds.
		c.bcache.PutBlock(bp, common.INODE_BLOCK)
		return common.EIO
	}

	switch inodeb := bp.Block.(type) {
	case common.V1InodeBlock:
		d := &inodeb[ioffset]
		d.Mode = xp.Mode
		d.Nlinks = byte(xp.Nlinks)
		d.Uid = xp.Uid
		d.Gid = byte(xp.Gid)
		d.Size = uint32(xp.Size)
		d.Time = xp.Mtime
		for i := 0; i < common.V1_NR_TZONES; i++ {
			d.Zone[i] = uint16(xp.Zone[i])
		}
	case common.V2InodeBlock:
		d := &inodeb[ioffset]
		d.Mode = xp.Mode
		d.Nlinks = xp.Nlinks
		d.Uid = xp.Uid
		d.Gid = xp.Gid
		d.Size = uint32(xp.Size)
		d.Atime = xp.Atime
		d.Mtime = xp.Mtime
		d.Ctime = xp.Ctime
		for i := 0; i < common.V2_NR_TZONES; i++ {
			d.Zone[i] = xp.Zone[i]
		}
	default:
		panic("inode block expected")
	}

	bp.Dirty = true
	xp.Dirty = false

	var err error
	if sync {
		err = c.bcache.SyncBlock(bp)
		if !bp.Uptodate {
			// A failed device write clears the buffer's uptodate flag, so
			// the on-disk record for this inode is now unknown.
			err = &common.InodeIOError{Volume: info.Label, Inum: xp.Inum}
		}
	}
	c.bcache.PutBlock(bp, common.INODE_BLOCK)
	return err
}
