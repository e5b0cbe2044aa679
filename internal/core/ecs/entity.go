package ecs

import "github.com/stargo/server/internal/net/packet"

// EntityID encodes a 32-bit index in the lower bits and a 32-bit generation
// in the upper bits. Generation increments on destroy to invalidate stale
// refs, so components may hold plain EntityIDs as weak back-references.
type EntityID uint64

func NewEntityID(index uint32, generation uint32) EntityID {
	return EntityID(uint64(generation)<<32 | uint64(index))
}

func (id EntityID) Index() uint32      { return uint32(id) }
func (id EntityID) Generation() uint32 { return uint32(id >> 32) }
func (id EntityID) IsZero() bool       { return id == 0 }

// EntityPool manages entity allocation with generational indices and a
// free list. Allocation order is deterministic: two pools fed the same
// create/destroy sequence hand out identical IDs, which lockstep
// replication depends on.
//
// Index 0 is never handed out: EntityID(0) is the no-entity sentinel
// (IsZero, unowned components), so the first real entity must not
// collide with it.
type EntityPool struct {
	generations []uint32
	freeList    []uint32
	nextIndex   uint32
}

func NewEntityPool() *EntityPool {
	p := &EntityPool{
		generations: make([]uint32, 1, 1024), // slot 0 burned for the sentinel
		freeList:    make([]uint32, 0, 256),
		nextIndex:   1,
	}
	return p
}

func (p *EntityPool) Create() EntityID {
	if len(p.freeList) > 0 {
		idx := p.freeList[len(p.freeList)-1]
		p.freeList = p.freeList[:len(p.freeList)-1]
		return NewEntityID(idx, p.generations[idx])
	}
	idx := p.nextIndex
	p.nextIndex++
	if int(idx) >= len(p.generations) {
		p.generations = append(p.generations, 0)
	}
	return NewEntityID(idx, p.generations[idx])
}

func (p *EntityPool) Alive(id EntityID) bool {
	idx := id.Index()
	if idx == 0 || idx >= p.nextIndex {
		return false
	}
	return p.generations[idx] == id.Generation()
}

func (p *EntityPool) Destroy(id EntityID) {
	idx := id.Index()
	if idx == 0 || idx >= p.nextIndex {
		return
	}
	if p.generations[idx] != id.Generation() {
		return // already destroyed (stale reference)
	}
	p.generations[idx]++
	p.freeList = append(p.freeList, idx)
}

// CopyInto overwrites dst with a value-complete copy of the pool, reusing
// dst's slices where capacity allows. Needed when a whole simulation is
// cloned or rolled back: the copy must hand out the same future IDs.
func (p *EntityPool) CopyInto(dst *EntityPool) {
	dst.generations = append(dst.generations[:0], p.generations...)
	dst.freeList = append(dst.freeList[:0], p.freeList...)
	dst.nextIndex = p.nextIndex
}

// Packetize writes the full allocator state so a restored snapshot
// continues the exact ID sequence.
func (p *EntityPool) Packetize(w *packet.Writer) {
	w.WriteUint32(p.nextIndex)
	w.WriteUint32(uint32(len(p.generations)))
	for _, g := range p.generations {
		w.WriteUint32(g)
	}
	w.WriteUint32(uint32(len(p.freeList)))
	for _, f := range p.freeList {
		w.WriteUint32(f)
	}
}

func (p *EntityPool) Depacketize(r *packet.Reader) error {
	next, err := r.ReadUint32()
	if err != nil {
		return err
	}
	ng, err := r.ReadUint32()
	if err != nil {
		return err
	}
	gens := make([]uint32, ng)
	for i := range gens {
		if gens[i], err = r.ReadUint32(); err != nil {
			return err
		}
	}
	nf, err := r.ReadUint32()
	if err != nil {
		return err
	}
	free := make([]uint32, nf)
	for i := range free {
		if free[i], err = r.ReadUint32(); err != nil {
			return err
		}
	}
	p.nextIndex = next
	p.generations = gens
	p.freeList = free
	return nil
}
