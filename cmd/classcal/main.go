// Command classcal serves and edits the class calendar.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/classcal/internal/cli"
)

func main() {
	err := cli.Execute(context.Background(), cli.NewRootCommand())
	if err != nil && !cli.IsReported(err) {
		fmt.Fprintln(os.Stderr, "classcal:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
