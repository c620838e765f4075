package utils

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
)

func NewTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

// Exit prints err and exits with a non-zero code.
func Exit(err error) {
	fmt.Fprintln(os.Stderr, err.Error())
	os.Exit(1)
}
