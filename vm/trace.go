package vm

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/r3e-network/neo-zkvm/codec"
	"github.com/r3e-network/neo-zkvm/stackitem"
)

// TraceStep is the deterministic record of one successful dispatch.
type TraceStep struct {
	IP           int
	Op           Opcode
	GasAfter     int64
	StackDigest  [32]byte
	MemoryDigest [32]byte
}

// Recorder accumulates the execution trace: one step per dispatch plus the
// initial and final state digests. StackDigest is a rolling hash over the
// canonical encoding of the top K stack values; MemoryDigest is a rolling
// hash over the write set since the previous step.
type Recorder struct {
	topK  int
	steps []TraceStep

	stackDigest  [32]byte
	memoryDigest [32]byte
	initial      [32]byte
	final        [32]byte
	finalized    bool

	pendingWrites []byte
}

// NewRecorder creates a recorder folding the top topK stack values into each
// step digest.
func NewRecorder(topK int) *Recorder {
	if topK <= 0 {
		topK = 8
	}
	return &Recorder{topK: topK}
}

func (r *Recorder) reset() {
	r.steps = r.steps[:0]
	r.stackDigest = [32]byte{}
	r.memoryDigest = [32]byte{}
	r.initial = [32]byte{}
	r.final = [32]byte{}
	r.finalized = false
	r.pendingWrites = r.pendingWrites[:0]
}

// Steps returns the recorded steps in dispatch order.
func (r *Recorder) Steps() []TraceStep { return r.steps }

// InitialDigest is the digest of the full stack at load time.
func (r *Recorder) InitialDigest() [32]byte { return r.initial }

// FinalDigest is the digest of the full stack at termination.
func (r *Recorder) FinalDigest() [32]byte { return r.final }

// StackDigest is the current rolling stack digest.
func (r *Recorder) StackDigest() [32]byte { return r.stackDigest }

// Commitment folds the whole trace into a single digest: the initial digest,
// every step and the final digest, in order.
func (r *Recorder) Commitment() [32]byte {
	h := sha256.New()
	h.Write(r.initial[:])
	var buf [8]byte
	for i := range r.steps {
		s := &r.steps[i]
		binary.LittleEndian.PutUint64(buf[:], uint64(s.IP))
		h.Write(buf[:])
		h.Write([]byte{byte(s.Op)})
		binary.LittleEndian.PutUint64(buf[:], uint64(s.GasAfter))
		h.Write(buf[:])
		h.Write(s.StackDigest[:])
		h.Write(s.MemoryDigest[:])
	}
	h.Write(r.final[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func encodeStackTop(estack []stackitem.Item, k int) []byte {
	if k > len(estack) {
		k = len(estack)
	}
	var out []byte
	// Top first, so the digest pins the values an opcode just produced.
	for i := 0; i < k; i++ {
		out = append(out, codec.MustMarshal(estack[len(estack)-1-i])...)
	}
	return out
}

func (r *Recorder) recordInitial(estack []stackitem.Item) {
	r.initial = sha256.Sum256(encodeStackTop(estack, len(estack)))
}

func (r *Recorder) recordFinal(estack []stackitem.Item) {
	if r.finalized {
		return
	}
	r.final = sha256.Sum256(encodeStackTop(estack, len(estack)))
	r.finalized = true
}

func (r *Recorder) record(ip int, op Opcode, gasAfter int64, estack []stackitem.Item) {
	sh := sha256.New()
	sh.Write(r.stackDigest[:])
	sh.Write(encodeStackTop(estack, r.topK))
	copy(r.stackDigest[:], sh.Sum(nil))

	mh := sha256.New()
	mh.Write(r.memoryDigest[:])
	mh.Write(r.pendingWrites)
	copy(r.memoryDigest[:], mh.Sum(nil))
	r.pendingWrites = r.pendingWrites[:0]

	r.steps = append(r.steps, TraceStep{
		IP:           ip,
		Op:           op,
		GasAfter:     gasAfter,
		StackDigest:  r.stackDigest,
		MemoryDigest: r.memoryDigest,
	})
}

// Write-set tags.
const (
	writeSlot    byte = 0x01
	writeItem    byte = 0x02
	writeBuffer  byte = 0x03
	writeStorage byte = 0x04
)

func (r *Recorder) appendLenPrefixed(b []byte) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(len(b)))
	r.pendingWrites = append(r.pendingWrites, buf[:]...)
	r.pendingWrites = append(r.pendingWrites, b...)
}

// NoteSlotWrite records a local/static/argument slot store.
func (r *Recorder) NoteSlotWrite(kind byte, index int, item stackitem.Item) {
	r.pendingWrites = append(r.pendingWrites, writeSlot, kind, byte(index), byte(index>>8))
	r.appendLenPrefixed(codec.MustMarshal(item))
}

// NoteItemWrite records a compound mutation. Key and value may be nil.
func (r *Recorder) NoteItemWrite(op byte, key, value stackitem.Item) {
	r.pendingWrites = append(r.pendingWrites, writeItem, op)
	if key != nil {
		r.appendLenPrefixed(codec.MustMarshal(key))
	} else {
		r.appendLenPrefixed(nil)
	}
	if value != nil {
		r.appendLenPrefixed(codec.MustMarshal(value))
	} else {
		r.appendLenPrefixed(nil)
	}
}

// NoteBufferWrite records an in-place buffer mutation.
func (r *Recorder) NoteBufferWrite(offset int, data []byte) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(offset))
	r.pendingWrites = append(r.pendingWrites, writeBuffer)
	r.pendingWrites = append(r.pendingWrites, buf[:]...)
	r.appendLenPrefixed(data)
}

// NoteStorageWrite records a storage put (value non-nil) or delete.
func (r *Recorder) NoteStorageWrite(key, value []byte) {
	r.pendingWrites = append(r.pendingWrites, writeStorage)
	r.appendLenPrefixed(key)
	if value != nil {
		r.pendingWrites = append(r.pendingWrites, 1)
		r.appendLenPrefixed(value)
	} else {
		r.pendingWrites = append(r.pendingWrites, 0)
	}
}
