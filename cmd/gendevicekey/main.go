// Command gendevicekey generates a single device's 32-byte symmetric key
// (§4.2 devkey), the same refuse-to-overwrite generation flow as the
// teacher's cmd/genmasterkey.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
)

func main() {
	out := flag.String("out", "device.key", "path to write the hex-encoded device key")
	flag.Parse()

	if _, err := os.Stat(*out); err == nil {
		fmt.Fprintf(os.Stderr, "Error: %s already exists. Refusing to overwrite.\n", *out)
		os.Exit(1)
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating random key: %v\n", err)
		os.Exit(1)
	}

	hexKey := hex.EncodeToString(key)
	if err := os.WriteFile(*out, []byte(hexKey+"\n"), 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("Device key written to %s\n", *out)
}
