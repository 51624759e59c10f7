package alloctbl

type req_AllocTbl_AllocInode struct{}
type res_AllocTbl_AllocInode struct {
	Arg0 int
	Arg1 error
}
type req_AllocTbl_AllocZone struct {
	zstart int
}
type res_AllocTbl_AllocZone struct {
	Arg0 int
	Arg1 error
}
type req_AllocTbl_FreeInode struct {
	inum int
}
type res_AllocTbl_FreeInode struct {
	Arg0 error
}
type req_AllocTbl_FreeZone struct {
	znum int
}
type res_AllocTbl_FreeZone struct {
	Arg0 error
}
type req_AllocTbl_CountFreeInodes struct{}
type res_AllocTbl_CountFreeInodes struct {
	Arg0 int
}
type req_AllocTbl_CountFreeZones struct{}
type res_AllocTbl_CountFreeZones struct {
	Arg0 int
}
type req_AllocTbl_Close struct{}
type res_AllocTbl_Close struct {
	Arg0 error
}

// Interface types and implementations
type reqAllocTbl interface {
	is_reqAllocTbl()
}
type resAllocTbl interface {
	is_resAllocTbl()
}

func (r req_AllocTbl_AllocInode) is_reqAllocTbl()      {}
func (r res_AllocTbl_AllocInode) is_resAllocTbl()      {}
func (r req_AllocTbl_AllocZone) is_reqAllocTbl()       {}
func (r res_AllocTbl_AllocZone) is_resAllocTbl()       {}
func (r req_AllocTbl_FreeInode) is_reqAllocTbl()       {}
func (r res_AllocTbl_FreeInode) is_resAllocTbl()       {}
func (r req_AllocTbl_FreeZone) is_reqAllocTbl()        {}
func (r res_AllocTbl_FreeZone) is_resAllocTbl()        {}
func (r req_AllocTbl_CountFreeInodes) is_reqAllocTbl() {}
func (r res_AllocTbl_CountFreeInodes) is_resAllocTbl() {}
func (r req_AllocTbl_CountFreeZones) is_reqAllocTbl()  {}
func (r res_AllocTbl_CountFreeZones) is_resAllocTbl()  {}
func (r req_AllocTbl_Close) is_reqAllocTbl()           {}
func (r res_AllocTbl_Close) is_resAllocTbl()           {}

// Type check request/response types
var _ reqAllocTbl = req_AllocTbl_AllocInode{}
var _ resAllocTbl = res_AllocTbl_AllocInode{}
var _ reqAllocTbl = req_AllocTbl_AllocZone{}
var _ resAllocTbl = res_AllocTbl_AllocZone{}
var _ reqAllocTbl = req_AllocTbl_FreeInode{}
var _ resAllocTbl = res_AllocTbl_FreeInode{}
var _ reqAllocTbl = req_AllocTbl_FreeZone{}
var _ resAllocTbl = res_AllocTbl_FreeZone{}
var _ reqAllocTbl = req_AllocTbl_CountFreeInodes{}
var _ resAllocTbl = res_AllocTbl_CountFreeInodes{}
var _ reqAllocTbl = req_AllocTbl_CountFreeZones{}
var _ resAllocTbl = res_AllocTbl_CountFreeZones{}
var _ reqAllocTbl = req_AllocTbl_Close{}
var _ resAllocTbl = res_AllocTbl_Close{}

func (alloc *server_AllocTbl) AllocInode() (int, error) {
	alloc.in <- req_AllocTbl_AllocInode{}
	result := (<-alloc.out).(res_AllocTbl_AllocInode)
	return result.Arg0, result.Arg1
}
func (alloc *server_AllocTbl) AllocZone(zstart int) (int, error) {
	alloc.in <- req_AllocTbl_AllocZone{zstart}
	result := (<-alloc.out).(res_AllocTbl_AllocZone)
	return result.Arg0, result.Arg1
}
func (alloc *server_AllocTbl) FreeInode(inum int) error {
	alloc.in <- req_AllocTbl_FreeInode{inum}
	result := (<-alloc.out).(res_AllocTbl_FreeInode)
	return result.Arg0
}
func (alloc *server_AllocTbl) FreeZone(znum int) error {
	alloc.in <- req_AllocTbl_FreeZone{znum}
	result := (<-alloc.out).(res_AllocTbl_FreeZone)
	return result.Arg0
}
func (alloc *server_AllocTbl) CountFreeInodes() int {
	alloc.in <- req_AllocTbl_CountFreeInodes{}
	result := (<-alloc.out).(res_AllocTbl_CountFreeInodes)
	return result.Arg0
}
func (alloc *server_AllocTbl) CountFreeZones() int {
	alloc.in <- req_AllocTbl_CountFreeZones{}
	result := (<-alloc.out).(res_AllocTbl_CountFreeZones)
	return result.Arg0
}
func (alloc *server_AllocTbl) Close() error {
	alloc.in <- req_AllocTbl_Close{}
	result := (<-alloc.out).(res_AllocTbl_Close)
	return result.Arg0
}
