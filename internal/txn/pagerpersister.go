package txn

import "github.com/reifydb/reifydb/internal/store/pager"

// PagerPersister adapts a pager.Pager's superblock into a VersionPersister,
// so the commit-version block ledger survives a restart in the pager's
// single-page file. The hot tier itself stays in memory; this file holds
// only the block end.
type PagerPersister struct {
	p *pager.Pager
}

// NewPagerPersister wraps an already-open Pager.
func NewPagerPersister(p *pager.Pager) *PagerPersister {
	return &PagerPersister{p: p}
}

func (pp *PagerPersister) LoadBlockEnd() (uint64, error) {
	return pp.p.Superblock().VersionBlockEnd, nil
}

func (pp *PagerPersister) SaveBlockEnd(end uint64) error {
	pp.p.UpdateSuperblock(func(sb *pager.Superblock) {
		sb.VersionBlockEnd = end
	})
	return pp.p.Checkpoint()
}
