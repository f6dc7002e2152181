// Package interop implements the host side of the SYSCALL opcode: storage
// access, runtime queries and native-contract calls, keyed by the first four
// bytes of the SHA-256 of the dotted syscall name.
package interop

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"

	"github.com/r3e-network/neo-zkvm/log"
	"github.com/r3e-network/neo-zkvm/stackitem"
	"github.com/r3e-network/neo-zkvm/storage"
	"github.com/r3e-network/neo-zkvm/vm"
)

// Syscall names of the standard host.
const (
	NameStorageGetContext         = "System.Storage.GetContext"
	NameStorageGetReadOnlyContext = "System.Storage.GetReadOnlyContext"
	NameStorageGet                = "System.Storage.Get"
	NameStoragePut                = "System.Storage.Put"
	NameStorageDelete             = "System.Storage.Delete"
	NameStorageContainsKey        = "System.Storage.ContainsKey"
	NameStorageFind               = "System.Storage.Find"
	NameRuntimePlatform           = "System.Runtime.Platform"
	NameRuntimeLog                = "System.Runtime.Log"
	NameContractCall              = "System.Contract.Call"
)

// Platform is the string pushed by System.Runtime.Platform.
const Platform = "NEO-ZKVM"

// ID derives the syscall identifier of a dotted name.
func ID(name string) uint32 {
	h := sha256.Sum256([]byte(name))
	return binary.LittleEndian.Uint32(h[:4])
}

type handler func(h *Host, e *vm.Engine) error

// Host wires storage and the native registry behind the engine's syscall
// hook. One Host serves one executing script hash.
type Host struct {
	store      storage.Backend
	natives    vm.NativeInvoker
	scriptHash [20]byte
	handlers   map[uint32]handler
}

// NewHost creates the standard host. Either capability may be nil, in which
// case the syscalls needing it fault.
func NewHost(store storage.Backend, natives vm.NativeInvoker, scriptHash [20]byte) *Host {
	h := &Host{store: store, natives: natives, scriptHash: scriptHash}
	h.handlers = map[uint32]handler{
		ID(NameStorageGetContext):         (*Host).storageGetContext,
		ID(NameStorageGetReadOnlyContext): (*Host).storageGetReadOnlyContext,
		ID(NameStorageGet):                (*Host).storageGet,
		ID(NameStoragePut):                (*Host).storagePut,
		ID(NameStorageDelete):             (*Host).storageDelete,
		ID(NameStorageContainsKey):        (*Host).storageContainsKey,
		ID(NameStorageFind):               (*Host).storageFind,
		ID(NameRuntimePlatform):           (*Host).runtimePlatform,
		ID(NameRuntimeLog):                (*Host).runtimeLog,
		ID(NameContractCall):              (*Host).contractCall,
	}
	return h
}

// Syscall dispatches one identifier. It satisfies vm.SyscallHandler.
func (h *Host) Syscall(e *vm.Engine, id uint32) error {
	fn, ok := h.handlers[id]
	if !ok {
		return vm.NewFault(vm.UnknownSyscall, "syscall %#x is not registered", id)
	}
	return fn(h, e)
}

// Storage contexts travel on the evaluation stack as 21-byte ByteStrings:
// the script hash followed by the read-only flag.

func contextToItem(ctx storage.Context) stackitem.Item {
	b := make([]byte, 21)
	copy(b, ctx.ScriptHash[:])
	if ctx.ReadOnly {
		b[20] = 1
	}
	return stackitem.ByteString(b)
}

func popContext(e *vm.Engine) (storage.Context, error) {
	item, err := e.Pop()
	if err != nil {
		return storage.Context{}, err
	}
	b, err := stackitem.ToBytes(item)
	if err != nil || len(b) != 21 {
		return storage.Context{}, vm.NewFault(vm.InvalidType, "malformed storage context")
	}
	var ctx storage.Context
	copy(ctx.ScriptHash[:], b[:20])
	ctx.ReadOnly = b[20] == 1
	return ctx, nil
}

func (h *Host) requireStore() error {
	if h.store == nil {
		return vm.NewFault(vm.InvalidOperation, "no storage backend")
	}
	return nil
}

func (h *Host) storageGetContext(e *vm.Engine) error {
	if err := h.requireStore(); err != nil {
		return err
	}
	return e.Push(contextToItem(storage.Context{ScriptHash: h.scriptHash}))
}

func (h *Host) storageGetReadOnlyContext(e *vm.Engine) error {
	if err := h.requireStore(); err != nil {
		return err
	}
	return e.Push(contextToItem(storage.Context{ScriptHash: h.scriptHash, ReadOnly: true}))
}

func (h *Host) storageGet(e *vm.Engine) error {
	if err := h.requireStore(); err != nil {
		return err
	}
	key, err := popBytes(e)
	if err != nil {
		return err
	}
	ctx, err := popContext(e)
	if err != nil {
		return err
	}
	value, ok, err := h.store.Get(ctx, key)
	if err != nil {
		return vm.NewFault(vm.InvalidOperation, "storage get: %v", err)
	}
	if !ok {
		return e.Push(stackitem.Null{})
	}
	return e.Push(stackitem.ByteString(value))
}

func (h *Host) storagePut(e *vm.Engine) error {
	if err := h.requireStore(); err != nil {
		return err
	}
	value, err := popBytes(e)
	if err != nil {
		return err
	}
	key, err := popBytes(e)
	if err != nil {
		return err
	}
	ctx, err := popContext(e)
	if err != nil {
		return err
	}
	if err := h.store.Put(ctx, key, value); err != nil {
		if errors.Is(err, storage.ErrReadOnly) {
			return vm.NewFault(vm.InvalidOperation, "put on read-only context")
		}
		return vm.NewFault(vm.InvalidOperation, "storage put: %v", err)
	}
	if tr := e.Trace(); tr != nil {
		tr.NoteStorageWrite(key, value)
	}
	return nil
}

func (h *Host) storageDelete(e *vm.Engine) error {
	if err := h.requireStore(); err != nil {
		return err
	}
	key, err := popBytes(e)
	if err != nil {
		return err
	}
	ctx, err := popContext(e)
	if err != nil {
		return err
	}
	if err := h.store.Delete(ctx, key); err != nil {
		if errors.Is(err, storage.ErrReadOnly) {
			return vm.NewFault(vm.InvalidOperation, "delete on read-only context")
		}
		return vm.NewFault(vm.InvalidOperation, "storage delete: %v", err)
	}
	if tr := e.Trace(); tr != nil {
		tr.NoteStorageWrite(key, nil)
	}
	return nil
}

func (h *Host) storageContainsKey(e *vm.Engine) error {
	if err := h.requireStore(); err != nil {
		return err
	}
	key, err := popBytes(e)
	if err != nil {
		return err
	}
	ctx, err := popContext(e)
	if err != nil {
		return err
	}
	ok, err := h.store.Contains(ctx, key)
	if err != nil {
		return vm.NewFault(vm.InvalidOperation, "storage contains: %v", err)
	}
	return e.Push(stackitem.Bool(ok))
}

// storageFind pushes an Array of [key, value] Structs in ascending key
// order. The result is bounded by the engine's compound item cap.
func (h *Host) storageFind(e *vm.Engine) error {
	if err := h.requireStore(); err != nil {
		return err
	}
	prefix, err := popBytes(e)
	if err != nil {
		return err
	}
	ctx, err := popContext(e)
	if err != nil {
		return err
	}
	entries, err := h.store.Find(ctx, prefix)
	if err != nil {
		return vm.NewFault(vm.InvalidOperation, "storage find: %v", err)
	}
	if len(entries) > e.Limits().MaxItems {
		return vm.NewFault(vm.InvalidOperation, "find result of %d entries exceeds %d", len(entries), e.Limits().MaxItems)
	}
	items := make([]stackitem.Item, len(entries))
	for i, kv := range entries {
		items[i] = stackitem.NewStruct([]stackitem.Item{
			stackitem.ByteString(kv.Key),
			stackitem.ByteString(kv.Value),
		})
	}
	return e.Push(stackitem.NewArray(items))
}

func (h *Host) runtimePlatform(e *vm.Engine) error {
	return e.Push(stackitem.ByteString(Platform))
}

func (h *Host) runtimeLog(e *vm.Engine) error {
	msg, err := popBytes(e)
	if err != nil {
		return err
	}
	log.Info(log.VMMonitoring, "runtime log", "msg", string(msg))
	return nil
}

// contractCall(hash, method, args) routes to the native registry.
func (h *Host) contractCall(e *vm.Engine) error {
	if h.natives == nil {
		return vm.NewFault(vm.InvalidOperation, "no native registry")
	}
	argsItem, err := e.Pop()
	if err != nil {
		return err
	}
	argsArr, ok := argsItem.(*stackitem.Array)
	if !ok {
		return vm.NewFault(vm.InvalidType, "contract call args must be an Array")
	}
	method, err := popBytes(e)
	if err != nil {
		return err
	}
	hashBytes, err := popBytes(e)
	if err != nil {
		return err
	}
	if len(hashBytes) != 20 {
		return vm.NewFault(vm.InvalidType, "contract hash must be 20 bytes")
	}
	var hash [20]byte
	copy(hash[:], hashBytes)
	result, err := h.natives.InvokeNative(hash, string(method), argsArr.Items())
	if err != nil {
		return vm.NewFault(vm.InvalidOperation, "native call: %v", err)
	}
	return e.Push(result)
}

func popBytes(e *vm.Engine) ([]byte, error) {
	item, err := e.Pop()
	if err != nil {
		return nil, err
	}
	b, err := stackitem.ToBytes(item)
	if err != nil {
		return nil, vm.NewFault(vm.InvalidType, "%v is not byte-like", item.Type())
	}
	return b, nil
}
