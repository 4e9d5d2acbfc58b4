package service

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator produces cart line identifiers.
type IDGenerator interface {
	NewID() string
}

type uuidGenerator struct{}

func (uuidGenerator) NewID() string {
	return uuid.NewString()
}

// NewUUIDGenerator returns the default random (v4) generator.
func NewUUIDGenerator() IDGenerator {
	return uuidGenerator{}
}

// SequenceGenerator yields prefix-1, prefix-2, ... and is safe for concurrent use.
type SequenceGenerator struct {
	prefix string
	next   atomic.Uint64
}

func NewSequenceGenerator(prefix string) *SequenceGenerator {
	return &SequenceGenerator{prefix: prefix}
}

func (g *SequenceGenerator) NewID() string {
	return fmt.Sprintf("%s-%d", g.prefix, g.next.Add(1))
}
