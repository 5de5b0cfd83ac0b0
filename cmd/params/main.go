// Command params reads and edits a params document stored in a JSON file.
package main

import (
	"fmt"
	"os"

	"github.com/goliatone/go-params/cmd/params/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
