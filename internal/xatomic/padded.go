// Package xatomic holds small cache-line-padded atomic primitives. The
// dynamic block-shrinking scheduler policy uses Int64; the loop counter
// pads its own shard type instead of using this package.
package xatomic

import (
	"sync/atomic"
	"unsafe"
)

// CacheLineBytes is the assumed destructive-interference size. 64 bytes
// covers essentially all x86-64 and current-generation ARM server cores; a
// platform with larger lines only loses some false-sharing protection, it
// does not lose correctness.
const CacheLineBytes = 64

// Int64 is an int64 padded out to a full cache line so that neighbouring
// instances never share a line with each other or with unrelated fields.
type Int64 struct {
	v   atomic.Int64
	_   [CacheLineBytes - unsafe.Sizeof(atomic.Int64{})]byte
}

// Uint64 is the unsigned counterpart of Int64, for counters where negative
// values never occur.
type Uint64 struct {
	v atomic.Uint64
	_ [CacheLineBytes - unsafe.Sizeof(atomic.Uint64{})]byte
}

func (p *Int64) Load() int64           { return p.v.Load() }
func (p *Int64) Store(val int64)       { p.v.Store(val) }
func (p *Int64) Add(delta int64) int64 { return p.v.Add(delta) }

func (p *Uint64) Load() uint64            { return p.v.Load() }
func (p *Uint64) Store(val uint64)        { p.v.Store(val) }
func (p *Uint64) Add(delta uint64) uint64 { return p.v.Add(delta) }
