package main

import (
	"crypto/sha256"
	"fmt"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/ripemd160"

	"github.com/r3e-network/neo-zkvm/asm"
	"github.com/r3e-network/neo-zkvm/interop"
	"github.com/r3e-network/neo-zkvm/native"
	"github.com/r3e-network/neo-zkvm/storage"
	"github.com/r3e-network/neo-zkvm/vm"
)

func newDebugCommand() *cobra.Command {
	var gasLimit uint64
	var storagePath string
	cmd := &cobra.Command{
		Use:   "debug <program-file>",
		Short: "Step through a program interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			program, err := loadProgram(args[0])
			if err != nil {
				return err
			}
			store, closeStore, err := openStore(storagePath)
			if err != nil {
				return err
			}
			defer closeStore()
			return runDebugger(program, gasLimit, store)
		},
	}
	cmd.Flags().Uint64Var(&gasLimit, "gas-limit", 1_000_000, "gas limit")
	cmd.Flags().StringVar(&storagePath, "storage-path", "", "LevelDB directory for contract storage (default: tracked in-memory store)")
	return cmd
}

func debugScriptHash(program []byte) [20]byte {
	sh := sha256.Sum256(program)
	h := ripemd160.New()
	h.Write(sh[:])
	var out [20]byte
	copy(out[:], h.Sum(nil))
	return out
}

func runDebugger(program []byte, gasLimit uint64, store storage.Backend) error {
	host := interop.NewHost(store, native.NewRegistry(), debugScriptHash(program))
	engine := vm.NewWithOptions(int64(gasLimit), vm.Options{Syscalls: host})
	engine.EnableTracing()
	if err := engine.Load(program); err != nil {
		return err
	}

	rl, err := readline.New("(neo-zkvm) ")
	if err != nil {
		return err
	}
	defer rl.Close()

	fmt.Println("commands: step(s) continue(c) stack(k) list(l) break <ip> clear <ip> gas store quit(q)")
	printLocation(engine, program)

	for {
		line, err := rl.Readline()
		if err != nil {
			return nil
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "step", "s":
			if engine.State() == vm.Break {
				engine.Resume()
			}
			if err := engine.Step(); err != nil {
				fmt.Println(err)
			}
			printLocation(engine, program)
		case "continue", "c":
			engine.Resume()
			for engine.State() == vm.Running {
				if err := engine.Step(); err != nil {
					fmt.Println(err)
					break
				}
			}
			printLocation(engine, program)
		case "stack", "k":
			stack := engine.EvalStack()
			if len(stack) == 0 {
				fmt.Println("<empty>")
			}
			for i := len(stack) - 1; i >= 0; i-- {
				fmt.Printf("%3d: %v\n", len(stack)-1-i, stack[i])
			}
		case "list", "l":
			listing, lerr := asm.Listing(program)
			if lerr != nil {
				fmt.Println(lerr)
			}
			fmt.Print(listing)
		case "break":
			if ip, ok := parseIP(fields); ok {
				engine.AddBreakpoint(ip)
				fmt.Printf("breakpoint at %d\n", ip)
			}
		case "clear":
			if ip, ok := parseIP(fields); ok {
				engine.RemoveBreakpoint(ip)
			}
		case "gas":
			fmt.Printf("consumed %d of %d\n", engine.GasConsumed(), engine.GasLimit())
		case "store":
			if tracked, ok := store.(*storage.TrackedStore); ok {
				root := tracked.MerkleRoot()
				fmt.Printf("writes %d, state root %x\n", len(tracked.Changes()), root[:])
			} else {
				fmt.Println("persistent store (no change log)")
			}
		case "quit", "q", "exit":
			return nil
		default:
			fmt.Printf("unknown command %q\n", fields[0])
		}
		if engine.State() == vm.Halt || engine.State() == vm.Faulted {
			fmt.Printf("terminated: %s", engine.State())
			if f := engine.LastFault(); f != nil {
				fmt.Printf(" (%s at %d)", f.Kind, f.IP)
			}
			fmt.Println()
		}
	}
}

func parseIP(fields []string) (int, bool) {
	if len(fields) < 2 {
		fmt.Println("need an instruction pointer")
		return 0, false
	}
	ip, err := strconv.Atoi(fields[1])
	if err != nil {
		fmt.Println("bad instruction pointer")
		return 0, false
	}
	return ip, true
}

func printLocation(engine *vm.Engine, program []byte) {
	frame := engine.Context()
	if frame == nil {
		return
	}
	ip := frame.IP()
	if ip < len(program) {
		op := vm.Opcode(program[ip])
		fmt.Printf("at %d: %s [%s, depth %d]\n", ip, op, engine.State(), engine.InvocationDepth())
	} else {
		fmt.Printf("at %d: <end> [%s]\n", ip, engine.State())
	}
}
