package storage

import "crypto/sha256"

// Change is one recorded storage mutation.
type Change struct {
	ScriptHash [20]byte
	Key        []byte
	OldValue   []byte
	NewValue   []byte
	// Deleted distinguishes a delete from a put of an empty value.
	Deleted bool
}

// TrackedStore wraps a MemoryStore with a change log and a merkle commitment
// over the sorted entry set, for hosts that need to attest the post-state.
type TrackedStore struct {
	inner   *MemoryStore
	changes []Change
}

// NewTrackedStore creates an empty tracked store.
func NewTrackedStore() *TrackedStore {
	return &TrackedStore{inner: NewMemoryStore()}
}

// Changes returns the mutation log in program order.
func (s *TrackedStore) Changes() []Change { return s.changes }

func (s *TrackedStore) Get(ctx Context, key []byte) ([]byte, bool, error) {
	return s.inner.Get(ctx, key)
}

func (s *TrackedStore) Put(ctx Context, key, value []byte) error {
	if ctx.ReadOnly {
		return ErrReadOnly
	}
	old, _, _ := s.inner.Get(ctx, key)
	if err := s.inner.Put(ctx, key, value); err != nil {
		return err
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	s.changes = append(s.changes, Change{
		ScriptHash: ctx.ScriptHash,
		Key:        append([]byte(nil), key...),
		OldValue:   old,
		NewValue:   cp,
	})
	return nil
}

func (s *TrackedStore) Delete(ctx Context, key []byte) error {
	if ctx.ReadOnly {
		return ErrReadOnly
	}
	old, _, _ := s.inner.Get(ctx, key)
	if err := s.inner.Delete(ctx, key); err != nil {
		return err
	}
	s.changes = append(s.changes, Change{
		ScriptHash: ctx.ScriptHash,
		Key:        append([]byte(nil), key...),
		OldValue:   old,
		Deleted:    true,
	})
	return nil
}

func (s *TrackedStore) Contains(ctx Context, key []byte) (bool, error) {
	return s.inner.Contains(ctx, key)
}

func (s *TrackedStore) Find(ctx Context, prefix []byte) ([]KV, error) {
	return s.inner.Find(ctx, prefix)
}

// MerkleRoot commits to the full entry set: SHA-256 leaves over key‖value in
// ascending key order, odd nodes paired with themselves.
func (s *TrackedStore) MerkleRoot() [32]byte {
	entries := s.inner.sortedEntries()
	if len(entries) == 0 {
		return [32]byte{}
	}
	leaves := make([][32]byte, len(entries))
	for i, kv := range entries {
		h := sha256.New()
		h.Write(kv.Key)
		h.Write(kv.Value)
		copy(leaves[i][:], h.Sum(nil))
	}
	for len(leaves) > 1 {
		next := make([][32]byte, 0, (len(leaves)+1)/2)
		for i := 0; i < len(leaves); i += 2 {
			h := sha256.New()
			h.Write(leaves[i][:])
			if i+1 < len(leaves) {
				h.Write(leaves[i+1][:])
			} else {
				h.Write(leaves[i][:])
			}
			var node [32]byte
			copy(node[:], h.Sum(nil))
			next = append(next, node)
		}
		leaves = next
	}
	return leaves[0]
}
