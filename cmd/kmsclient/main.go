package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/hashicorp/vault/shamir"
	"github.com/ruteri/enclave-kms/cmd/flags"
	"github.com/ruteri/enclave-kms/httpserver"
	"github.com/ruteri/enclave-kms/interfaces"
	"github.com/urfave/cli/v2"
)

var flagAddress = &cli.StringFlag{
	Name:  "address",
	Usage: "0x-prefixed account address",
}

var flagMessage = &cli.StringFlag{
	Name:  "message",
	Usage: "message to sign or verify",
}

var flagSignature = &cli.StringFlag{
	Name:  "signature",
	Usage: "0x-prefixed 65-byte signature",
}

var flagShares = &cli.IntFlag{
	Name:  "shares",
	Value: 5,
	Usage: "number of Shamir shares to produce",
}

var flagThreshold = &cli.IntFlag{
	Name:  "threshold",
	Value: 3,
	Usage: "number of shares required to reconstruct the secret",
}

var flagOutDir = &cli.StringFlag{
	Name:  "out-dir",
	Value: ".",
	Usage: "directory to write share files to",
}

func main() {
	app := &cli.App{
		Name:  "kmsclient",
		Usage: "Interact with the enclave KMS API",
		Flags: []cli.Flag{
			flags.KmsAddrFlag,
		},
		Commands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "Generate a new account in the enclave",
				Action: func(cCtx *cli.Context) error {
					addr, err := client(cCtx).Generate(cCtx.Context)
					if err != nil {
						return err
					}
					fmt.Println(addr.String())
					return nil
				},
			},
			{
				Name:  "addresses",
				Usage: "List all stored addresses",
				Action: func(cCtx *cli.Context) error {
					addrs, err := client(cCtx).Addresses(cCtx.Context)
					if err != nil {
						return err
					}
					encoded, err := json.Marshal(addrs)
					if err != nil {
						return err
					}
					fmt.Println(string(encoded))
					return nil
				},
			},
			{
				Name:  "sign",
				Usage: "Sign a personal message with a stored key",
				Flags: []cli.Flag{
					flagAddress,
					flagMessage,
				},
				Action: func(cCtx *cli.Context) error {
					addr, err := interfaces.NewAddressFromHex(cCtx.String(flagAddress.Name))
					if err != nil {
						return err
					}

					sig, err := client(cCtx).Sign(cCtx.Context, addr, cCtx.String(flagMessage.Name))
					if err != nil {
						return err
					}
					fmt.Println(sig.String())
					return nil
				},
			},
			{
				Name:  "verify",
				Usage: "Verify a personal-message signature",
				Flags: []cli.Flag{
					flagAddress,
					flagMessage,
					flagSignature,
				},
				Action: func(cCtx *cli.Context) error {
					addr, err := interfaces.NewAddressFromHex(cCtx.String(flagAddress.Name))
					if err != nil {
						return err
					}

					valid, err := client(cCtx).Verify(cCtx.Context, addr, cCtx.String(flagMessage.Name), cCtx.String(flagSignature.Name))
					if err != nil {
						return err
					}
					fmt.Println(valid)
					if !valid {
						os.Exit(1)
					}
					return nil
				},
			},
			{
				Name:  "split-secret",
				Usage: "Split an enclave secret into Shamir share files",
				Flags: []cli.Flag{
					flags.SecretFlag,
					flagShares,
					flagThreshold,
					flagOutDir,
				},
				Action: func(cCtx *cli.Context) error {
					secret := cCtx.String(flags.SecretFlag.Name)
					if secret == "" {
						return fmt.Errorf("secret is required")
					}

					shares, err := shamir.Split([]byte(secret), cCtx.Int(flagShares.Name), cCtx.Int(flagThreshold.Name))
					if err != nil {
						return err
					}

					for i, share := range shares {
						path := filepath.Join(cCtx.String(flagOutDir.Name), fmt.Sprintf("secret-share-%d.hex", i+1))
						if err := os.WriteFile(path, []byte(hex.EncodeToString(share)), 0600); err != nil {
							return err
						}
						fmt.Println(path)
					}
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func client(cCtx *cli.Context) *httpserver.Client {
	return httpserver.NewClient(cCtx.String(flags.KmsAddrFlag.Name), nil)
}
