package pager

import (
	"path/filepath"
	"testing"
)

func TestSuperblockRoundTrip(t *testing.T) {
	sb := Superblock{VersionBlockEnd: 700_000}
	buf := marshalSuperblock(sb)

	got, err := unmarshalSuperblock(buf)
	if err != nil {
		t.Fatalf("unmarshalSuperblock: %v", err)
	}
	if got.VersionBlockEnd != sb.VersionBlockEnd {
		t.Errorf("VersionBlockEnd = %d, want %d", got.VersionBlockEnd, sb.VersionBlockEnd)
	}
}

func TestUnmarshalSuperblockRejectsBadMagic(t *testing.T) {
	buf := marshalSuperblock(Superblock{VersionBlockEnd: 1})
	buf[0] ^= 0xff
	if _, err := unmarshalSuperblock(buf); err == nil {
		t.Fatal("expected an error for corrupted magic")
	}
}

func TestUnmarshalSuperblockRejectsBadCRC(t *testing.T) {
	buf := marshalSuperblock(Superblock{VersionBlockEnd: 1})
	buf[versionOff] ^= 0xff // corrupt the payload without touching the CRC
	if _, err := unmarshalSuperblock(buf); err == nil {
		t.Fatal("expected an error for CRC mismatch")
	}
}

func TestUnmarshalSuperblockRejectsWrongSize(t *testing.T) {
	if _, err := unmarshalSuperblock([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected an error for a truncated buffer")
	}
}

func TestOpenPagerCreatesNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "block.db")
	p, err := OpenPager(PagerConfig{DBPath: path})
	if err != nil {
		t.Fatalf("OpenPager: %v", err)
	}
	defer p.Close()

	if got := p.Superblock().VersionBlockEnd; got != 0 {
		t.Errorf("VersionBlockEnd = %d, want 0 for a fresh file", got)
	}
}

func TestPagerPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "block.db")

	p1, err := OpenPager(PagerConfig{DBPath: path})
	if err != nil {
		t.Fatalf("OpenPager (first): %v", err)
	}
	p1.UpdateSuperblock(func(sb *Superblock) { sb.VersionBlockEnd = 42 })
	if err := p1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	p2, err := OpenPager(PagerConfig{DBPath: path})
	if err != nil {
		t.Fatalf("OpenPager (second): %v", err)
	}
	defer p2.Close()

	if got := p2.Superblock().VersionBlockEnd; got != 42 {
		t.Errorf("VersionBlockEnd after reopen = %d, want 42", got)
	}
}

func TestCheckpointPersistsWithoutClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "block.db")

	p1, err := OpenPager(PagerConfig{DBPath: path})
	if err != nil {
		t.Fatalf("OpenPager: %v", err)
	}
	p1.UpdateSuperblock(func(sb *Superblock) { sb.VersionBlockEnd = 9 })
	if err := p1.Checkpoint(); err != nil {
		t.Fatalf("Checkpoint: %v", err)
	}

	p2, err := OpenPager(PagerConfig{DBPath: path})
	if err != nil {
		t.Fatalf("OpenPager (second): %v", err)
	}
	defer p2.Close()

	if got := p2.Superblock().VersionBlockEnd; got != 9 {
		t.Errorf("VersionBlockEnd after checkpoint = %d, want 9", got)
	}

	if err := p1.Close(); err != nil {
		t.Fatalf("Close (first): %v", err)
	}
}
