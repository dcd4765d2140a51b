package core

import "sync"

// tableLocks serializes mutations per table. Row positions are read and
// then written in two remote calls, so two in-flight mutations on the same
// tab could each act on a stale layout. Holding the table's lock across the
// read-then-write removes that race within this process. Reads take no lock.
type tableLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newTableLocks() *tableLocks {
	return &tableLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutation lock for table and returns its release func.
func (l *tableLocks) lock(table string) func() {
	l.mu.Lock()
	m, ok := l.locks[table]
	if !ok {
		m = &sync.Mutex{}
		l.locks[table] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
