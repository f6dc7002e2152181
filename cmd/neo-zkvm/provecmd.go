package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/r3e-network/neo-zkvm/zk"
)

// proofEnvelope is the file format of prove/verify: hex fields in JSON.
type proofEnvelope struct {
	Proof  string `json:"proof"`
	Public string `json:"public"`
}

func newProveCommand() *cobra.Command {
	var (
		gasLimit uint64
		argsHex  string
		outPath  string
	)
	cmd := &cobra.Command{
		Use:   "prove <program-file>",
		Short: "Execute a program and produce a proof envelope",
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
			prover := zk.NewProver(zk.ExecutionBackend{})
			proof, err := prover.Prove(&zk.GuestInput{Program: program, Arguments: arguments, GasLimit: gasLimit})
			if err != nil {
				return err
			}
			envelope := proofEnvelope{
				Proof:  hex.EncodeToString(proof.ProofBytes),
				Public: hex.EncodeToString(proof.PublicBytes),
			}
			out, err := json.MarshalIndent(envelope, "", "  ")
			if err != nil {
				return err
			}
			if outPath == "" {
				fmt.Println(string(out))
				return nil
			}
			fmt.Printf("tuple: gas=%d success=%t\n", proof.Tuple.GasConsumed, proof.Tuple.Success)
			return os.WriteFile(outPath, out, 0o644)
		},
	}
	cmd.Flags().Uint64Var(&gasLimit, "gas-limit", 1_000_000, "gas limit")
	cmd.Flags().StringVar(&argsHex, "args", "", "hex-encoded canonical argument sequence")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "proof envelope output file")
	return cmd
}

func newVerifyCommand() *cobra.Command {
	var (
		gasLimit uint64
		argsHex  string
	)
	cmd := &cobra.Command{
		Use:   "verify <proof-file> <program-file>",
		Short: "Verify a proof envelope against a re-derived expected tuple",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var envelope proofEnvelope
			if err := json.Unmarshal(raw, &envelope); err != nil {
				return err
			}
			proofBytes, err := hex.DecodeString(envelope.Proof)
			if err != nil {
				return err
			}
			publicBytes, err := hex.DecodeString(envelope.Public)
			if err != nil {
				return err
			}
			program, err := loadProgram(args[1])
			if err != nil {
				return err
			}
			arguments, err := loadArgs(argsHex)
			if err != nil {
				return err
			}
			// The caller's expected tuple comes from its own guest run.
			expected, err := zk.ExecuteGuest(&zk.GuestInput{Program: program, Arguments: arguments, GasLimit: gasLimit})
			if err != nil {
				return err
			}
			verifier := zk.NewVerifier(zk.ExecutionBackend{})
			if verifier.Verify(proofBytes, publicBytes, expected.Public) {
				fmt.Println("proof valid")
				return nil
			}
			return fmt.Errorf("proof invalid")
		},
	}
	cmd.Flags().Uint64Var(&gasLimit, "gas-limit", 1_000_000, "gas limit used when proving")
	cmd.Flags().StringVar(&argsHex, "args", "", "hex-encoded canonical argument sequence used when proving")
	return cmd
}
