package device

import (
	"errors"
)

var ERR_SEEK = errors.New("could not seek to given position")
var ERR_BADCALL = errors.New("bad call")

type CallNumber int

const (
	DEV_READ CallNumber = iota
	DEV_WRITE
	DEV_SIZE
	DEV_CLOSE
)

type m_dev_req struct {
	call CallNumber
	buf  interface{}
	pos  int64
}

type m_dev_res struct {
	size int64
	err  error
}
