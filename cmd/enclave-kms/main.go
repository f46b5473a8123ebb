package main

import (
	"encoding/hex"
	"errors"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hashicorp/vault/shamir"
	"github.com/ruteri/enclave-kms/cmd/flags"
	"github.com/ruteri/enclave-kms/httpserver"
	"github.com/ruteri/enclave-kms/kms"
	"github.com/ruteri/enclave-kms/storage"
	"github.com/urfave/cli/v2"
)

var serverFlags = append([]cli.Flag{
	flags.ListenAddrFlag,
	flags.KeystoreFlag,
	flags.SecretFlag,
	flags.SecretSharesFlag,
	flags.LogServiceFlagFn("enclave-kms"),
}, flags.CommonFlags...)

func main() {
	app := &cli.App{
		Name:  "enclave-kms",
		Usage: "Serve the enclave key management API",
		Flags: serverFlags,
		Action: func(cCtx *cli.Context) error {
			listenAddr := cCtx.String("listen-addr")
			keystoreURI := cCtx.String("keystore")

			logger := flags.SetupLogger(cCtx)

			secret, err := resolveSecret(cCtx)
			if err != nil {
				logger.Error("Failed to resolve enclave secret", "err", err)
				return err
			}

			storeFactory := storage.NewStoreFactory(logger)
			store, err := storeFactory.StoreFor(keystoreURI)
			if err != nil {
				logger.Error("Failed to create keystore backend", "err", err, "uri", keystoreURI)
				return err
			}

			if !store.Available(cCtx.Context) {
				logger.Warn("Keystore backend is not reachable yet", "store", store.Name())
			}

			kmsImpl, err := kms.NewEnclaveKMS(secret, store, logger)
			if err != nil {
				logger.Error("Failed to initialize KMS", "err", err)
				return err
			}

			handler := httpserver.NewHandler(kmsImpl, logger)

			cfg := flags.ConfigureServer(cCtx, logger, listenAddr)
			server, err := httpserver.New(cfg, handler)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			logger.Info("Starting server", "listenAddr", listenAddr, "keystore", store.Name())
			server.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			<-exit
			logger.Info("Shutdown signal received")

			server.Shutdown()
			logger.Info("Server shutdown complete")

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// resolveSecret obtains the enclave secret either directly from the
// secret flag (or ENCLAVE_SECRET) or by combining Shamir shares read
// from the given share files. The secret never appears in logs.
func resolveSecret(cCtx *cli.Context) (string, error) {
	secret := cCtx.String("secret")
	shareFiles := cCtx.StringSlice("secret-share")

	if secret != "" && len(shareFiles) > 0 {
		return "", errors.New("secret and secret-share are mutually exclusive")
	}

	if secret != "" {
		return secret, nil
	}

	if len(shareFiles) == 0 {
		return "", errors.New("either secret or at least one secret-share is required")
	}

	shares := make([][]byte, 0, len(shareFiles))
	for _, file := range shareFiles {
		raw, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		share, err := hex.DecodeString(strings.TrimSpace(string(raw)))
		if err != nil {
			return "", err
		}
		shares = append(shares, share)
	}

	combined, err := shamir.Combine(shares)
	if err != nil {
		return "", err
	}
	return string(combined), nil
}
