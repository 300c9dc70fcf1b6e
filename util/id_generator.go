package util

import "sync/atomic"

type IDGenerator struct {
	v atomic.Uint64
}

func (idg *IDGenerator) Next() uint64 {
	return idg.v.Add(1)
}
