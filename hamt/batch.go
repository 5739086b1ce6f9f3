package hamt

// KV is a single key/value pair for the batch operations.
type KV struct {
	Key   []byte
	Value []byte
}

// BatchInsert applies every item in order against root, returning the
// final root (spec.md §6.2 batchInsert). It is plain sugar over
// repeated InsertKey calls: batching buys the caller one round trip
// through KEY_BUF staging per item, not a different tree shape. The
// root passed in stays the caller's own, untouched; every intermediate
// root this loop itself produces and then discards is decrefed before
// being overwritten, so a long batch doesn't leave a chain of
// unreachable, never-freed nodes behind it (spec.md §4.1's free list
// must stay bounded across long write sessions).
func (e *Engine) BatchInsert(root uint32, items []KV) (uint32, error) {
	owned := false
	for _, kv := range items {
		keyLen, err := e.CopyKey(kv.Key)
		if err != nil {
			return 0, err
		}
		newRoot, _, _, err := e.InsertKey(root, keyLen, kv.Value)
		if err != nil {
			return 0, err
		}
		if owned {
			if err := e.Decref(root); err != nil {
				return 0, err
			}
		}
		root = newRoot
		owned = true
	}
	return root, nil
}

// BatchGet looks up every key against root, returning a same-length
// slice of leaf offsets (Null where absent).
func (e *Engine) BatchGet(root uint32, keys [][]byte) ([]uint32, error) {
	out := make([]uint32, len(keys))
	for i, k := range keys {
		keyLen, err := e.CopyKey(k)
		if err != nil {
			return nil, err
		}
		out[i] = e.Get(root, keyLen)
	}
	return out, nil
}

// BatchDelete removes every key in order against root, returning the
// final root. A key absent at the time it is processed is silently
// skipped, consistent with TryRemove's NotFound semantics. As with
// BatchInsert, only roots this loop produced itself are decrefed before
// being discarded; the caller's original root is left alone.
func (e *Engine) BatchDelete(root uint32, keys [][]byte) (uint32, error) {
	owned := false
	for _, k := range keys {
		keyLen, err := e.CopyKey(k)
		if err != nil {
			return 0, err
		}
		newRoot, err := e.TryRemove(root, keyLen)
		if err != nil {
			return 0, err
		}
		if newRoot == NotFound {
			continue
		}
		if owned {
			if err := e.Decref(root); err != nil {
				return 0, err
			}
		}
		root = newRoot
		owned = true
	}
	return root, nil
}

// BatchInsertTransient is BatchInsert run under a single transient
// session, so owner-tagged nodes the batch revisits mutate in place. An
// in-place mutation returns the very same root offset it was given,
// which must not be decrefed (it is still live, just continuing under
// the same owner); only a genuinely new root supersedes the one before
// it.
func (t *Transient) BatchInsertTransient(root uint32, items []KV) (uint32, error) {
	owned := false
	for _, kv := range items {
		keyLen, err := t.e.CopyKey(kv.Key)
		if err != nil {
			return 0, err
		}
		newRoot, _, err := t.Insert(root, keyLen, kv.Value)
		if err != nil {
			return 0, err
		}
		if owned && newRoot != root {
			if err := t.e.Decref(root); err != nil {
				return 0, err
			}
		}
		root = newRoot
		owned = true
	}
	return root, nil
}

// BatchDeleteTransient is BatchDelete run under a single transient
// session.
func (t *Transient) BatchDeleteTransient(root uint32, keys [][]byte) (uint32, error) {
	owned := false
	for _, k := range keys {
		keyLen, err := t.e.CopyKey(k)
		if err != nil {
			return 0, err
		}
		newRoot, found, err := t.Remove(root, keyLen)
		if err != nil {
			return 0, err
		}
		if !found {
			continue
		}
		if owned && newRoot != root {
			if err := t.e.Decref(root); err != nil {
				return 0, err
			}
		}
		root = newRoot
		owned = true
	}
	return root, nil
}
