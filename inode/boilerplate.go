package inode

import (
	"github.com/go-minixfs/minixfs/common"
)

type req_InodeTbl_MountDevice struct {
	devnum int
	info   *common.DeviceInfo
}
type res_InodeTbl_MountDevice struct{}
type req_InodeTbl_UnmountDevice struct {
	devnum int
}
type res_InodeTbl_UnmountDevice struct {
	Arg0 error
}
type req_InodeTbl_GetInode struct {
	devnum, inum int
}
type res_InodeTbl_GetInode struct {
	Arg0 *common.Inode
	Arg1 error
}
type req_InodeTbl_DupInode struct {
	inode *common.Inode
}
type res_InodeTbl_DupInode struct {
	Arg0 *common.Inode
}
type req_InodeTbl_PutInode struct {
	inode *common.Inode
}
type res_InodeTbl_PutInode struct{}
type req_InodeTbl_FlushInode struct {
	inode *common.Inode
	sync  bool
}
type res_InodeTbl_FlushInode struct {
	Arg0 error
}
type req_InodeTbl_IsDeviceBusy struct {
	devnum int
}
type res_InodeTbl_IsDeviceBusy struct {
	Arg0 bool
}
type req_InodeTbl_Shutdown struct{}
type res_InodeTbl_Shutdown struct {
	Arg0 error
}
type res_InodeTbl_Async struct {
	ch chan resInodeTbl
}

// finishLoad delivers the outcome of a slot load. It is only ever sent by
// the loader goroutine; the server loop wakes the waiters and, on a failed
// load, releases their slot claims in the same step.
type req_InodeTbl_finishLoad struct {
	slot  *cacheSlot
	inode *common.Inode
	err   error
}
type res_InodeTbl_finishLoad struct{}

// Interface types and implementations
type reqInodeTbl interface {
	is_reqInodeTbl()
}
type resInodeTbl interface {
	is_resInodeTbl()
}

func (r req_InodeTbl_MountDevice) is_reqInodeTbl()   {}
func (r res_InodeTbl_MountDevice) is_resInodeTbl()   {}
func (r req_InodeTbl_UnmountDevice) is_reqInodeTbl() {}
func (r res_InodeTbl_UnmountDevice) is_resInodeTbl() {}
func (r req_InodeTbl_GetInode) is_reqInodeTbl()      {}
func (r res_InodeTbl_GetInode) is_resInodeTbl()      {}
func (r req_InodeTbl_DupInode) is_reqInodeTbl()      {}
func (r res_InodeTbl_DupInode) is_resInodeTbl()      {}
func (r req_InodeTbl_PutInode) is_reqInodeTbl()      {}
func (r res_InodeTbl_PutInode) is_resInodeTbl()      {}
func (r req_InodeTbl_FlushInode) is_reqInodeTbl()    {}
func (r res_InodeTbl_FlushInode) is_resInodeTbl()    {}
func (r req_InodeTbl_IsDeviceBusy) is_reqInodeTbl()  {}
func (r res_InodeTbl_IsDeviceBusy) is_resInodeTbl()  {}
func (r req_InodeTbl_Shutdown) is_reqInodeTbl()      {}
func (r res_InodeTbl_Shutdown) is_resInodeTbl()      {}
func (r res_InodeTbl_Async) is_resInodeTbl()         {}
func (r req_InodeTbl_finishLoad) is_reqInodeTbl()    {}
func (r res_InodeTbl_finishLoad) is_resInodeTbl()    {}

// Type check request/response types
var _ reqInodeTbl = req_InodeTbl_MountDevice{}
var _ resInodeTbl = res_InodeTbl_MountDevice{}
var _ reqInodeTbl = req_InodeTbl_UnmountDevice{}
var _ resInodeTbl = res_InodeTbl_UnmountDevice{}
var _ reqInodeTbl = req_InodeTbl_GetInode{}
var _ resInodeTbl = res_InodeTbl_GetInode{}
var _ reqInodeTbl = req_InodeTbl_DupInode{}
var _ resInodeTbl = res_InodeTbl_DupInode{}
var _ reqInodeTbl = req_InodeTbl_PutInode{}
var _ resInodeTbl = res_InodeTbl_PutInode{}
var _ reqInodeTbl = req_InodeTbl_FlushInode{}
var _ resInodeTbl = res_InodeTbl_FlushInode{}
var _ reqInodeTbl = req_InodeTbl_IsDeviceBusy{}
var _ resInodeTbl = res_InodeTbl_IsDeviceBusy{}
var _ reqInodeTbl = req_InodeTbl_Shutdown{}
var _ resInodeTbl = res_InodeTbl_Shutdown{}
var _ resInodeTbl = res_InodeTbl_Async{}
var _ reqInodeTbl = req_InodeTbl_finishLoad{}
var _ resInodeTbl = res_InodeTbl_finishLoad{}

func (itable *server_InodeTbl) MountDevice(devnum int, info *common.DeviceInfo) {
	itable.in <- req_InodeTbl_MountDevice{devnum, info}
	<-itable.out
}
func (itable *server_InodeTbl) UnmountDevice(devnum int) error {
	itable.in <- req_InodeTbl_UnmountDevice{devnum}
	result := (<-itable.out).(res_InodeTbl_UnmountDevice)
	return result.Arg0
}
func (itable *server_InodeTbl) GetInode(devnum, inum int) (*common.Inode, error) {
	itable.in <- req_InodeTbl_GetInode{devnum, inum}
	ares := (<-itable.out).(res_InodeTbl_Async)
	result := (<-ares.ch).(res_InodeTbl_GetInode)
	return result.Arg0, result.Arg1
}
func (itable *server_InodeTbl) DupInode(inode *common.Inode) *common.Inode {
	itable.in <- req_InodeTbl_DupInode{inode}
	result := (<-itable.out).(res_InodeTbl_DupInode)
	return result.Arg0
}
func (itable *server_InodeTbl) PutInode(inode *common.Inode) {
	itable.in <- req_InodeTbl_PutInode{inode}
	<-itable.out
}
func (itable *server_InodeTbl) FlushInode(inode *common.Inode, sync bool) error {
	itable.in <- req_InodeTbl_FlushInode{inode, sync}
	result := (<-itable.out).(res_InodeTbl_FlushInode)
	return result.Arg0
}
func (itable *server_InodeTbl) IsDeviceBusy(devnum int) bool {
	itable.in <- req_InodeTbl_IsDeviceBusy{devnum}
	result := (<-itable.out).(res_InodeTbl_IsDeviceBusy)
	return result.Arg0
}
func (itable *server_InodeTbl) Shutdown() error {
	itable.in <- req_InodeTbl_Shutdown{}
	result := (<-itable.out).(res_InodeTbl_Shutdown)
	return result.Arg0
}
