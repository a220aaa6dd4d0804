// board serves the interview question board API.
package main

import (
	"os"

	"github.com/emilythestrangee/question-board/backend/cmd/board/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
