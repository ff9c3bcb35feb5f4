// Package pager persists txn.Manager's commit-version block end across
// restarts. It is the part of the teacher's page-level storage engine that
// the hot-tier transaction manager actually exercises: a single
// magic-stamped, CRC-protected page, opened and checkpointed the same way
// the teacher's Pager opens and checkpoints its superblock page, but without
// the B+Tree, free-list, WAL, or buffer pool machinery that engine needs and
// this one does not — the hot tier itself is a pure in-memory structure with
// no on-disk index to back.
package pager

import (
	"fmt"
	"os"
)

// PagerConfig configures a Pager.
type PagerConfig struct {
	DBPath string
}

// Pager owns the single-page backing file for a Superblock.
type Pager struct {
	file *os.File
	sb   Superblock
}

// OpenPager opens the backing file at cfg.DBPath, creating it (with a zero
// Superblock) if it does not yet exist.
func OpenPager(cfg PagerConfig) (*Pager, error) {
	f, err := os.OpenFile(cfg.DBPath, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("open pager file: %w", err)
	}
	p := &Pager{file: f}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if fi.Size() == 0 {
		if err := p.writeSuperblock(); err != nil {
			f.Close()
			return nil, err
		}
		return p, nil
	}
	if err := p.readSuperblock(); err != nil {
		f.Close()
		return nil, err
	}
	return p, nil
}

func (p *Pager) readSuperblock() error {
	buf := make([]byte, pageSize)
	if _, err := p.file.ReadAt(buf, 0); err != nil {
		return fmt.Errorf("read superblock: %w", err)
	}
	sb, err := unmarshalSuperblock(buf)
	if err != nil {
		return err
	}
	p.sb = sb
	return nil
}

func (p *Pager) writeSuperblock() error {
	if _, err := p.file.WriteAt(marshalSuperblock(p.sb), 0); err != nil {
		return fmt.Errorf("write superblock: %w", err)
	}
	return p.file.Sync()
}

// Superblock returns a copy of the current durable state.
func (p *Pager) Superblock() Superblock { return p.sb }

// UpdateSuperblock mutates the in-memory state. The change is not durable
// until Checkpoint (or Close) is called.
func (p *Pager) UpdateSuperblock(fn func(sb *Superblock)) { fn(&p.sb) }

// Checkpoint writes the current superblock to the backing file and fsyncs it.
func (p *Pager) Checkpoint() error { return p.writeSuperblock() }

// Close checkpoints and closes the backing file.
func (p *Pager) Close() error {
	if err := p.Checkpoint(); err != nil {
		_ = p.file.Close()
		return err
	}
	return p.file.Close()
}
