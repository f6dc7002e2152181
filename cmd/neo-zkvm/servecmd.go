package main

import (
	"github.com/spf13/cobra"

	"github.com/r3e-network/neo-zkvm/rpc"
	"github.com/r3e-network/neo-zkvm/zk"
)

func newServeCommand() *cobra.Command {
	var addr string
	var storagePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve run/prove/verify over a websocket JSON endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := openStore(storagePath)
			if err != nil {
				return err
			}
			defer closeStore()
			server := rpc.NewServerWithStorage(zk.ExecutionBackend{}, store)
			return server.ListenAndServe(addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8347", "listen address")
	cmd.Flags().StringVar(&storagePath, "storage-path", "", "LevelDB directory for contract storage (default: tracked in-memory store)")
	return cmd
}
