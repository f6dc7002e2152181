// Package rpc exposes the execution core over a websocket JSON endpoint:
// run, prove and verify, with hex-encoded programs and canonical argument
// encodings.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/websocket"

	"github.com/r3e-network/neo-zkvm/log"
	"github.com/r3e-network/neo-zkvm/stackitem"
	"github.com/r3e-network/neo-zkvm/storage"
	"github.com/r3e-network/neo-zkvm/zk"
)

// Request is one websocket JSON frame from a client.
type Request struct {
	ID     uint64          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// Response answers one Request.
type Response struct {
	ID     uint64      `json:"id"`
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// ExecParams parameterize run and prove: the raw program, the canonical
// encoding of the argument sequence (codec.MarshalItems) and the gas limit.
type ExecParams struct {
	Program  hexutil.Bytes `json:"program"`
	Args     hexutil.Bytes `json:"args,omitempty"`
	GasLimit uint64        `json:"gasLimit"`
}

// RunResult reports one execution. StateRoot is set when the server runs
// over a change-tracking store: the merkle root of storage after the run.
type RunResult struct {
	State       string        `json:"state"`
	GasConsumed uint64        `json:"gasConsumed"`
	Fault       string        `json:"fault,omitempty"`
	FaultIP     int           `json:"faultIp,omitempty"`
	Result      string        `json:"result,omitempty"`
	Public      hexutil.Bytes `json:"public"`
	StateRoot   hexutil.Bytes `json:"stateRoot,omitempty"`
}

// ProveResult carries a proof envelope.
type ProveResult struct {
	Proof  hexutil.Bytes `json:"proof"`
	Public hexutil.Bytes `json:"public"`
}

// VerifyParams parameterize verify.
type VerifyParams struct {
	Proof       hexutil.Bytes `json:"proof"`
	Public      hexutil.Bytes `json:"public"`
	ProgramHash hexutil.Bytes `json:"programHash"`
	InputHash   hexutil.Bytes `json:"inputHash"`
	OutputHash  hexutil.Bytes `json:"outputHash"`
	GasConsumed uint64        `json:"gasConsumed"`
	Success     bool          `json:"success"`
}

// Server serves the execution endpoint. The run method executes over the
// server's storage backend, which lives for the lifetime of the service;
// prove and verify always bind the pure guest execution over a fresh store.
type Server struct {
	prover   *zk.Prover
	verifier *zk.Verifier
	store    storage.Backend
	upgrader websocket.Upgrader
	httpSrv  *http.Server
}

// NewServer creates a server over the given proving backend with a fresh
// in-memory store per run request.
func NewServer(backend zk.Backend) *Server {
	return NewServerWithStorage(backend, nil)
}

// NewServerWithStorage creates a server whose run requests share the given
// storage backend. A nil store falls back to a fresh in-memory store per
// request.
func NewServerWithStorage(backend zk.Backend, store storage.Backend) *Server {
	return &Server{
		prover:   zk.NewProver(backend),
		verifier: zk.NewVerifier(backend),
		store:    store,
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
	}
}

// ListenAndServe blocks serving websocket connections at /ws.
func (s *Server) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	s.httpSrv = &http.Server{Addr: addr, Handler: mux}
	log.Info(log.RPCMonitoring, "rpc listening", "addr", addr)
	return s.httpSrv.ListenAndServe()
}

// Shutdown stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn(log.RPCMonitoring, "upgrade failed", "err", err)
		return
	}
	defer conn.Close()
	for {
		var req Request
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		resp := s.dispatch(&req)
		conn.SetWriteDeadline(time.Now().Add(30 * time.Second))
		if err := conn.WriteJSON(resp); err != nil {
			return
		}
	}
}

func (s *Server) dispatch(req *Request) Response {
	resp := Response{ID: req.ID}
	var result interface{}
	var err error
	switch req.Method {
	case "run":
		result, err = s.run(req.Params)
	case "prove":
		result, err = s.prove(req.Params)
	case "verify":
		result, err = s.verify(req.Params)
	default:
		err = fmt.Errorf("unknown method %q", req.Method)
	}
	if err != nil {
		resp.Error = err.Error()
		return resp
	}
	resp.Result = result
	return resp
}

func decodeExecParams(raw json.RawMessage) (*zk.GuestInput, error) {
	var p ExecParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	var args []stackitem.Item
	if len(p.Args) > 0 {
		var err error
		args, err = decodeArgs(p.Args)
		if err != nil {
			return nil, err
		}
	}
	return &zk.GuestInput{Program: p.Program, Arguments: args, GasLimit: p.GasLimit}, nil
}

func (s *Server) run(raw json.RawMessage) (*RunResult, error) {
	input, err := decodeExecParams(raw)
	if err != nil {
		return nil, err
	}
	var guest *zk.GuestResult
	if s.store != nil {
		guest, err = zk.ExecuteWithStorage(input, s.store)
	} else {
		guest, err = zk.ExecuteGuest(input)
	}
	if err != nil {
		return nil, err
	}
	out := &RunResult{
		State:       guest.Report.State.String(),
		GasConsumed: guest.Public.GasConsumed,
		Public:      guest.Public.Encode(),
	}
	if tracked, ok := s.store.(*storage.TrackedStore); ok {
		root := tracked.MerkleRoot()
		out.StateRoot = root[:]
	}
	if guest.Report.Fault != nil {
		out.Fault = guest.Report.Fault.Kind.String()
		out.FaultIP = guest.Report.Fault.IP
	}
	if guest.Report.Result != nil {
		out.Result = fmt.Sprint(guest.Report.Result)
	}
	return out, nil
}

func (s *Server) prove(raw json.RawMessage) (*ProveResult, error) {
	input, err := decodeExecParams(raw)
	if err != nil {
		return nil, err
	}
	proof, err := s.prover.Prove(input)
	if err != nil {
		return nil, err
	}
	return &ProveResult{Proof: proof.ProofBytes, Public: proof.PublicBytes}, nil
}

func (s *Server) verify(raw json.RawMessage) (map[string]bool, error) {
	var p VerifyParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	var expected zk.PublicValues
	if len(p.ProgramHash) != 32 || len(p.InputHash) != 32 || len(p.OutputHash) != 32 {
		return nil, fmt.Errorf("expected tuple hashes must be 32 bytes")
	}
	copy(expected.ProgramHash[:], p.ProgramHash)
	copy(expected.InputHash[:], p.InputHash)
	copy(expected.OutputHash[:], p.OutputHash)
	expected.GasConsumed = p.GasConsumed
	expected.Success = p.Success
	return map[string]bool{"valid": s.verifier.Verify(p.Proof, p.Public, expected)}, nil
}
