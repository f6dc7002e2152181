package main

import (
	"fmt"

	"github.com/r3e-network/neo-zkvm/storage"
)

// openStore selects the storage backend of a host-side execution: a LevelDB
// store at path when one is given, otherwise a change-tracking in-memory
// store whose post-state merkle root can be reported.
func openStore(path string) (storage.Backend, func(), error) {
	if path == "" {
		return storage.NewTrackedStore(), func() {}, nil
	}
	s, err := storage.NewLevelStore(path)
	if err != nil {
		return nil, nil, err
	}
	return s, func() { s.Close() }, nil
}

// reportState prints the change count and post-state root of a tracked
// store, when the execution wrote anything.
func reportState(store storage.Backend) {
	tracked, ok := store.(*storage.TrackedStore)
	if !ok || len(tracked.Changes()) == 0 {
		return
	}
	root := tracked.MerkleRoot()
	fmt.Printf("storage writes: %d\n", len(tracked.Changes()))
	fmt.Printf("state root:    %x\n", root[:])
}
