package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xlab/treeprint"

	"github.com/r3e-network/neo-zkvm/codec"
	"github.com/r3e-network/neo-zkvm/stackitem"
	"github.com/r3e-network/neo-zkvm/vm"
	"github.com/r3e-network/neo-zkvm/zk"
)

// loadProgram reads a program from a file: raw bytes, or hex when the file
// content looks like one (optionally 0x-prefixed, one line).
func loadProgram(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(string(raw))
	text = strings.TrimPrefix(text, "0x")
	if b, err := hex.DecodeString(text); err == nil && len(text) > 0 {
		return b, nil
	}
	return raw, nil
}

func loadArgs(encoded string) ([]stackitem.Item, error) {
	if encoded == "" {
		return nil, nil
	}
	b, err := hex.DecodeString(strings.TrimPrefix(encoded, "0x"))
	if err != nil {
		return nil, fmt.Errorf("arguments must be hex of the canonical sequence: %w", err)
	}
	return codec.UnmarshalItems(b)
}

func newRunCommand() *cobra.Command {
	var (
		gasLimit    uint64
		argsHex     string
		showTrace   bool
		storagePath string
	)
	cmd := &cobra.Command{
		Use:   "run <program-file>",
		Short: "Execute a program and print the termination report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			program, err := loadProgram(args[0])
			if err != nil {
				return err
			}
			arguments, err := loadArgs(argsHex)
			if err != nil {
				return err
			}
			store, closeStore, err := openStore(storagePath)
			if err != nil {
				return err
			}
			defer closeStore()
			input := &zk.GuestInput{Program: program, Arguments: arguments, GasLimit: gasLimit}
			result, err := zk.ExecuteWithStorage(input, store)
			if err != nil {
				return err
			}
			report := result.Report

			fmt.Printf("state:        %s\n", report.State)
			fmt.Printf("gas consumed: %d / %d\n", report.GasConsumed, gasLimit)
			fmt.Printf("steps:        %d\n", report.Steps)
			if report.Fault != nil {
				fmt.Printf("fault:        %s at ip %d\n", report.Fault.Kind, report.Fault.IP)
			}
			if report.Result != nil {
				fmt.Println("result:")
				fmt.Print(renderItemTree(report.Result))
			}
			fmt.Printf("public tuple: %x\n", result.Public.Encode())
			reportState(store)

			if showTrace {
				for _, step := range result.Trace.Steps() {
					fmt.Printf("%6d %-12s gas=%-8d stack=%x mem=%x\n",
						step.IP, vm.Opcode(step.Op).String(), step.GasAfter,
						step.StackDigest[:8], step.MemoryDigest[:8])
				}
			}
			return nil
		},
	}
	cmd.Flags().Uint64Var(&gasLimit, "gas-limit", 1_000_000, "gas limit")
	cmd.Flags().StringVar(&argsHex, "args", "", "hex-encoded canonical argument sequence")
	cmd.Flags().BoolVar(&showTrace, "trace", false, "dump the execution trace")
	cmd.Flags().StringVar(&storagePath, "storage-path", "", "LevelDB directory for contract storage (default: tracked in-memory store)")
	return cmd
}

// renderItemTree draws a stack value as a tree, expanding compounds.
func renderItemTree(item stackitem.Item) string {
	tree := treeprint.New()
	addItemNode(tree, item)
	return tree.String()
}

func addItemNode(tree treeprint.Tree, item stackitem.Item) {
	switch it := item.(type) {
	case *stackitem.Array:
		branch := tree.AddBranch(fmt.Sprintf("Array[%d]", it.Len()))
		for _, child := range it.Items() {
			addItemNode(branch, child)
		}
	case *stackitem.Struct:
		branch := tree.AddBranch(fmt.Sprintf("Struct[%d]", it.Len()))
		for _, child := range it.Items() {
			addItemNode(branch, child)
		}
	case *stackitem.Map:
		branch := tree.AddBranch(fmt.Sprintf("Map[%d]", it.Len()))
		for _, el := range it.Elements() {
			kv := branch.AddBranch(fmt.Sprint(el.Key))
			addItemNode(kv, el.Value)
		}
	default:
		tree.AddNode(fmt.Sprint(item))
	}
}
