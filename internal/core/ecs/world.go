package ecs

// Directory is the top-level id-management container shared by the world
// state. It owns the monotonic entity allocator, a registry of side-table
// component stores keyed by EntityID (the world registers its threat tables
// here — never the entity's primary fields, which live directly on the
// Entity struct),
// and a deferred destruction queue flushed at end-of-tick cleanup.
type Directory struct {
	alloc        *EntityAllocator
	alive        map[EntityID]struct{}
	registry     *Registry
	destroyQueue []EntityID
}

func NewDirectory() *Directory {
	return &Directory{
		alloc:        NewEntityAllocator(),
		alive:        make(map[EntityID]struct{}, 256),
		registry:     NewRegistry(),
		destroyQueue: make([]EntityID, 0, 64),
	}
}

func (d *Directory) Registry() *Registry { return d.registry }

// CreateEntity allocates a fresh, never-before-used id and marks it alive.
func (d *Directory) CreateEntity() EntityID {
	id := d.alloc.Next()
	d.alive[id] = struct{}{}
	return id
}

func (d *Directory) Alive(id EntityID) bool {
	_, ok := d.alive[id]
	return ok
}

// MarkForDestruction queues an entity for end-of-tick cleanup.
func (d *Directory) MarkForDestruction(id EntityID) {
	d.destroyQueue = append(d.destroyQueue, id)
}

// FlushDestroyQueue destroys all queued entities and clears their side-table
// component stores. Called by the tick loop's Cleanup phase.
func (d *Directory) FlushDestroyQueue() {
	for _, id := range d.destroyQueue {
		d.registry.RemoveAll(id)
		delete(d.alive, id)
	}
	d.destroyQueue = d.destroyQueue[:0]
}
