// Package parserpool provides a pool of gnparser instances for concurrent name parsing.
// This is a pure package - parsing is computation, not I/O.
package parserpool

import (
	"runtime"

	"github.com/gnames/gnparser"
	"github.com/gnames/gnparser/ent/parsed"
)

// Pool provides a pool of gnparser instances for concurrent parsing.
// A single gnparser instance is not safe for concurrent use, the pool is.
type Pool interface {
	// Parse parses a scientific name string. It retrieves a parser from
	// the pool, parses the name, and returns the parser to the pool.
	// This method is safe for concurrent use.
	Parse(nameString string) parsed.Parsed

	// Canonical returns the simple canonical form of a scientific name
	// (authorship, rank markers and annotations stripped). The second
	// value is false when the string does not parse as a name at all.
	Canonical(nameString string) (string, bool)

	// Close shuts down the parser pool and releases resources.
	// After calling Close, the pool should not be used.
	Close()
}

// PoolImpl implements the Pool interface using gnparser.NewPool.
type PoolImpl struct {
	ch       chan gnparser.GNparser
	poolSize int
}

// NewPool creates a new parser pool with the specified number of workers.
// If jobsNum is 0, it defaults to runtime.NumCPU().
func NewPool(jobsNum int) Pool {
	poolSize := jobsNum
	if poolSize == 0 {
		poolSize = runtime.NumCPU()
	}

	cfg := gnparser.NewConfig()
	ch := gnparser.NewPool(cfg, poolSize)

	return &PoolImpl{
		ch:       ch,
		poolSize: poolSize,
	}
}

// Parse parses a scientific name string. It retrieves a parser from the
// pool (blocking if all parsers are busy), parses the name, and returns
// the parser to the pool.
func (p *PoolImpl) Parse(nameString string) parsed.Parsed {
	parser := <-p.ch
	result := parser.ParseName(nameString)
	p.ch <- parser

	return result
}

// Canonical returns the simple canonical form of a name, or ok=false
// when gnparser rejects the string.
func (p *PoolImpl) Canonical(nameString string) (string, bool) {
	res := p.Parse(nameString)
	if !res.Parsed {
		return "", false
	}
	return res.Canonical.Simple, true
}

// Close shuts down the parser pool and releases resources.
// It closes the channel and drains any remaining parsers.
func (p *PoolImpl) Close() {
	if p.ch != nil {
		close(p.ch)
		// Drain the channel
		for range p.ch {
		}
	}
}
