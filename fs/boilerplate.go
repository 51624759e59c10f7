package fs

import (
	"github.com/go-minixfs/minixfs/common"
)

type req_FS_GetInode struct {
	inum int
}
type res_FS_GetInode struct {
	Arg0 *common.Inode
	Arg1 error
}
type req_FS_DupInode struct {
	rip *common.Inode
}
type res_FS_DupInode struct {
	Arg0 *common.Inode
}
type req_FS_PutInode struct {
	rip *common.Inode
}
type res_FS_PutInode struct{}
type req_FS_FlushInode struct {
	rip  *common.Inode
	sync bool
}
type res_FS_FlushInode struct {
	Arg0 error
}
type req_FS_RootInode struct{}
type res_FS_RootInode struct {
	Arg0 *common.Inode
}
type req_FS_Statfs struct{}
type res_FS_Statfs struct {
	Arg0 common.StatfsInfo
}
type req_FS_Getattr struct {
	rip *common.Inode
}
type res_FS_Getattr struct {
	Arg0 common.StatInfo
}
type req_FS_Bmap struct {
	rip      *common.Inode
	position int
}
type res_FS_Bmap struct {
	Arg0 int
}
type req_FS_Remount struct {
	readonly bool
}
type res_FS_Remount struct {
	Arg0 error
}
type req_FS_Sync struct{}
type res_FS_Sync struct{}
type req_FS_IsReadOnly struct{}
type res_FS_IsReadOnly struct {
	Arg0 bool
}
type req_FS_Unmount struct{}
type res_FS_Unmount struct {
	Arg0 error
}

// Interface types and implementations
type reqFS interface {
	is_reqFS()
}
type resFS interface {
	is_resFS()
}

func (r req_FS_GetInode) is_reqFS()   {}
func (r res_FS_GetInode) is_resFS()   {}
func (r req_FS_DupInode) is_reqFS()   {}
func (r res_FS_DupInode) is_resFS()   {}
func (r req_FS_PutInode) is_reqFS()   {}
func (r res_FS_PutInode) is_resFS()   {}
func (r req_FS_FlushInode) is_reqFS() {}
func (r res_FS_FlushInode) is_resFS() {}
func (r req_FS_RootInode) is_reqFS()  {}
func (r res_FS_RootInode) is_resFS()  {}
func (r req_FS_Statfs) is_reqFS()     {}
func (r res_FS_Statfs) is_resFS()     {}
func (r req_FS_Getattr) is_reqFS()    {}
func (r res_FS_Getattr) is_resFS()    {}
func (r req_FS_Bmap) is_reqFS()       {}
func (r res_FS_Bmap) is_resFS()       {}
func (r req_FS_Remount) is_reqFS()    {}
func (r res_FS_Remount) is_resFS()    {}
func (r req_FS_Sync) is_reqFS()       {}
func (r res_FS_Sync) is_resFS()       {}
func (r req_FS_IsReadOnly) is_reqFS() {}
func (r res_FS_IsReadOnly) is_resFS() {}
func (r req_FS_Unmount) is_reqFS()    {}
func (r res_FS_Unmount) is_resFS()    {}

// Type check request/response types
var _ reqFS = req_FS_GetInode{}
var _ resFS = res_FS_GetInode{}
var _ reqFS = req_FS_DupInode{}
var _ resFS = res_FS_DupInode{}
var _ reqFS = req_FS_PutInode{}
var _ resFS = res_FS_PutInode{}
var _ reqFS = req_FS_FlushInode{}
var _ resFS = res_FS_FlushInode{}
var _ reqFS = req_FS_RootInode{}
var _ resFS = res_FS_RootInode{}
var _ reqFS = req_FS_Statfs{}
var _ resFS = res_FS_Statfs{}
var _ reqFS = req_FS_Getattr{}
var _ resFS = res_FS_Getattr{}
var _ reqFS = req_FS_Bmap{}
var _ resFS = res_FS_Bmap{}
var _ reqFS = req_FS_Remount{}
var _ resFS = res_FS_Remount{}
var _ reqFS = req_FS_Sync{}
var _ resFS = res_FS_Sync{}
var _ reqFS = req_FS_IsReadOnly{}
var _ resFS = res_FS_IsReadOnly{}
var _ reqFS = req_FS_Unmount{}
var _ resFS = res_FS_Unmount{}

// GetInode fetches an inode by number, loading it from the inode table on
// disk if it is not already cached.
func (v *Volume) GetInode(inum int) (*common.Inode, error) {
	v.in <- req_FS_GetInode{inum}
	result := (<-v.out).(res_FS_GetInode)
	return result.Arg0, result.Arg1
}

// DupInode takes an additional reference on an inode.
func (v *Volume) DupInode(rip *common.Inode) *common.Inode {
	v.in <- req_FS_DupInode{rip}
	result := (<-v.out).(res_FS_DupInode)
	return result.Arg0
}

// PutInode drops a reference on an inode. The last put of an unlinked
// inode releases its zones and its bit in the inode bitmap.
func (v *Volume) PutInode(rip *common.Inode) {
	v.in <- req_FS_PutInode{rip}
	<-v.out
}

// FlushInode writes an inode's record back if dirty. With sync set the
// containing block goes to the device before this returns, and a write
// that cannot be verified intact reports an InodeIOError.
func (v *Volume) FlushInode(rip *common.Inode, sync bool) error {
	v.in <- req_FS_FlushInode{rip, sync}
	result := (<-v.out).(res_FS_FlushInode)
	return result.Arg0
}

// RootInode returns a new reference to the root inode.
func (v *Volume) RootInode() *common.Inode {
	v.in <- req_FS_RootInode{}
	result := (<-v.out).(res_FS_RootInode)
	return result.Arg0
}

// Statfs reports volume geometry and free counts.
func (v *Volume) Statfs() common.StatfsInfo {
	v.in <- req_FS_Statfs{}
	result := (<-v.out).(res_FS_Statfs)
	return result.Arg0
}

// Getattr fills a stat record for an inode, including its block usage.
func (v *Volume) Getattr(rip *common.Inode) common.StatInfo {
	v.in <- req_FS_Getattr{rip}
	result := (<-v.out).(res_FS_Getattr)
	return result.Arg0
}

// Bmap translates a byte position within a file to a device block number,
// or NO_BLOCK for a hole. It never allocates.
func (v *Volume) Bmap(rip *common.Inode, position int) int {
	v.in <- req_FS_Bmap{rip, position}
	result := (<-v.out).(res_FS_Bmap)
	return result.Arg0
}

// Remount toggles the volume between writable and read-only.
func (v *Volume) Remount(readonly bool) error {
	v.in <- req_FS_Remount{readonly}
	result := (<-v.out).(res_FS_Remount)
	return result.Arg0
}

// Sync writes all dirty cached blocks of the volume to the device.
func (v *Volume) Sync() {
	v.in <- req_FS_Sync{}
	<-v.out
}

// IsReadOnly reports whether the volume currently refuses writes.
func (v *Volume) IsReadOnly() bool {
	v.in <- req_FS_IsReadOnly{}
	result := (<-v.out).(res_FS_IsReadOnly)
	return result.Arg0
}

// Unmount flushes and releases everything held by the volume. It fails
// with EBUSY while any inode beyond the root is still referenced.
func (v *Volume) Unmount() error {
	v.in <- req_FS_Unmount{}
	result := (<-v.out).(res_FS_Unmount)
	return result.Arg0
}
