package thoughtbot

import "sync"

// Stage keys a Path groups branches under. Only these four stages carry a
// branch collection; hear, respond, and remember are middleware-only.
const (
	StageListen     = "listen"
	StageUnderstand = "understand"
	StageServe      = "serve"
	StageAct        = "act"
)

// branchMap is an insertion-ordered id → Branch map. Concurrent adds from
// two simultaneous receives are permitted but not atomic with respect to
// each other: the mutex only protects the Go map itself from a data race,
// not from the "last writer wins" overwrite semantics the runtime accepts
// for a repeated id (see the Path-mutation Open Question in DESIGN.md).
type branchMap struct {
	mu    sync.Mutex
	order []string
	byID  map[string]*Branch
}

func newBranchMap() *branchMap {
	return &branchMap{byID: make(map[string]*Branch)}
}

func (m *branchMap) add(b *Branch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byID[b.ID]; !exists {
		m.order = append(m.order, b.ID)
	}
	m.byID[b.ID] = b
}

func (m *branchMap) ordered() []*Branch {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Branch, 0, len(m.order))
	for _, id := range m.order {
		if b, ok := m.byID[id]; ok {
			out = append(out, b)
		}
	}
	return out
}

func (m *branchMap) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.order)
}

func (m *branchMap) forced() *branchMap {
	m.mu.Lock()
	defer m.mu.Unlock()
	nm := newBranchMap()
	for _, id := range m.order {
		b := m.byID[id]
		if b != nil && b.Force {
			nm.order = append(nm.order, id)
			nm.byID[id] = b
		}
	}
	return nm
}

// Path groups a bot's branches into the four stage collections that carry
// them. Insertion order within each collection is its processing order.
type Path struct {
	mu         sync.Mutex
	listen     *branchMap
	understand *branchMap
	serve      *branchMap
	act        *branchMap
}

// NewPath builds an empty Path.
func NewPath() *Path {
	return &Path{
		listen:     newBranchMap(),
		understand: newBranchMap(),
		serve:      newBranchMap(),
		act:        newBranchMap(),
	}
}

func (p *Path) stageMap(stage string) *branchMap {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch stage {
	case StageListen:
		return p.listen
	case StageUnderstand:
		return p.understand
	case StageServe:
		return p.serve
	case StageAct:
		return p.act
	default:
		return nil
	}
}

// Add registers b on the named stage collection, preserving insertion order.
func (p *Path) Add(stage string, b *Branch) {
	if bm := p.stageMap(stage); bm != nil {
		bm.add(b)
	}
}

// Branches returns stage's branches in insertion order.
func (p *Path) Branches(stage string) []*Branch {
	if bm := p.stageMap(stage); bm != nil {
		return bm.ordered()
	}
	return nil
}

// HasBranches reports whether stage's collection is non-empty.
func (p *Path) HasBranches(stage string) bool {
	bm := p.stageMap(stage)
	return bm != nil && bm.len() > 0
}

// Forced collapses stage's collection down to only its force-marked
// branches. Used by the built-in listen.action(true) policy, which
// restricts the following understand stage to forced branches only.
func (p *Path) Forced(stage string) {
	bm := p.stageMap(stage)
	if bm == nil {
		return
	}
	collapsed := bm.forced()
	p.mu.Lock()
	switch stage {
	case StageListen:
		p.listen = collapsed
	case StageUnderstand:
		p.understand = collapsed
	case StageServe:
		p.serve = collapsed
	case StageAct:
		p.act = collapsed
	}
	p.mu.Unlock()
}
