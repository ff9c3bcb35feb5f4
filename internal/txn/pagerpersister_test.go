package txn

import (
	"path/filepath"
	"testing"

	"github.com/reifydb/reifydb/internal/store/pager"
)

func openTestPager(t *testing.T) *pager.Pager {
	t.Helper()
	dir := t.TempDir()
	p, err := pager.OpenPager(pager.PagerConfig{DBPath: filepath.Join(dir, "block.db")})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func TestPagerPersisterLoadBlockEndDefaultsToZero(t *testing.T) {
	pp := NewPagerPersister(openTestPager(t))
	end, err := pp.LoadBlockEnd()
	if err != nil {
		t.Fatal(err)
	}
	if end != 0 {
		t.Errorf("expected a freshly opened pager to start at block end 0, got %d", end)
	}
}

func TestPagerPersisterSaveThenLoadRoundTrips(t *testing.T) {
	pp := NewPagerPersister(openTestPager(t))
	if err := pp.SaveBlockEnd(500_000); err != nil {
		t.Fatal(err)
	}
	end, err := pp.LoadBlockEnd()
	if err != nil {
		t.Fatal(err)
	}
	if end != 500_000 {
		t.Errorf("expected 500000, got %d", end)
	}
}

func TestPagerPersisterSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "block.db")

	p1, err := pager.OpenPager(pager.PagerConfig{DBPath: path})
	if err != nil {
		t.Fatal(err)
	}
	if err := NewPagerPersister(p1).SaveBlockEnd(900_000); err != nil {
		t.Fatal(err)
	}
	if err := p1.Close(); err != nil {
		t.Fatal(err)
	}

	p2, err := pager.OpenPager(pager.PagerConfig{DBPath: path})
	if err != nil {
		t.Fatal(err)
	}
	defer p2.Close()
	end, err := NewPagerPersister(p2).LoadBlockEnd()
	if err != nil {
		t.Fatal(err)
	}
	if end != 900_000 {
		t.Errorf("expected the block end to survive a reopen, got %d", end)
	}
}

func TestManagerUsesPagerPersisterAcrossRestarts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "block.db")

	p1, err := pager.OpenPager(pager.PagerConfig{DBPath: path})
	if err != nil {
		t.Fatal(err)
	}
	m1, err := NewManager(NewPagerPersister(p1))
	if err != nil {
		t.Fatal(err)
	}
	v1, err := m1.NextCommitVersion()
	if err != nil {
		t.Fatal(err)
	}
	if err := p1.Close(); err != nil {
		t.Fatal(err)
	}

	p2, err := pager.OpenPager(pager.PagerConfig{DBPath: path})
	if err != nil {
		t.Fatal(err)
	}
	defer p2.Close()
	m2, err := NewManager(NewPagerPersister(p2))
	if err != nil {
		t.Fatal(err)
	}
	v2, err := m2.NextCommitVersion()
	if err != nil {
		t.Fatal(err)
	}
	if v2 <= v1 {
		t.Errorf("expected the second manager to resume numbering above %d, got %d", v1, v2)
	}
}
