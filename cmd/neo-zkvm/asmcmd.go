package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/r3e-network/neo-zkvm/asm"
)

func newAsmCommand() *cobra.Command {
	var outPath string
	var asHex bool
	cmd := &cobra.Command{
		Use:   "asm <source-file>",
		Short: "Assemble mnemonic source into a byte program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			program, err := asm.NewAssembler().Assemble(string(source))
			if err != nil {
				return err
			}
			if outPath == "" {
				fmt.Printf("%x\n", program)
				return nil
			}
			if asHex {
				return os.WriteFile(outPath, []byte(hex.EncodeToString(program)), 0o644)
			}
			return os.WriteFile(outPath, program, 0o644)
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default: hex to stdout)")
	cmd.Flags().BoolVar(&asHex, "hex", false, "write the output file as hex text")
	return cmd
}

func newDisasmCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "disasm <program-file>",
		Short: "Disassemble a byte program into a listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			program, err := loadProgram(args[0])
			if err != nil {
				return err
			}
			listing, err := asm.Listing(program)
			if err != nil {
				fmt.Print(listing)
				return err
			}
			fmt.Print(listing)
			return nil
		},
	}
}
