package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/Carmen-Shannon/oxy-ct/common"
	"github.com/Carmen-Shannon/oxy-ct/engine/viewer"
	"github.com/google/shlex"
)

const consoleHelp = `commands:
  open [path]        load the scan descriptor at path (no path cancels)
  threshold <value>  set the absorbance threshold
  status             print the status line and threshold
  help               print this help
  quit               exit`

// target is the part of the viewer the console drives.
type target interface {
	Send(msg viewer.Message)
	Status() string
	ThresholdText() string
}

// console reads commands from a line-oriented stream and turns them into viewer messages.
type console struct {
	viewer target
	out    io.Writer
	quit   func()
}

// run reads commands from in until EOF or quit.
func (c *console) run(in io.Reader) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if !c.exec(scanner.Text()) {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		common.Logger().Warn("console input", "err", err)
	}
}

// exec runs one command line. It returns false once the console should stop.
func (c *console) exec(line string) bool {
	args, err := shlex.Split(line)
	if err != nil {
		fmt.Fprintf(c.out, "parse error: %v\n", err)
		return true
	}
	if len(args) == 0 {
		return true
	}

	switch strings.ToLower(args[0]) {
	case "open":
		path := ""
		if len(args) > 1 {
			path = args[1]
		}
		c.viewer.Send(viewer.OpenRequested{Picker: viewer.Path(path)})
	case "threshold":
		if len(args) != 2 {
			fmt.Fprintln(c.out, "usage: threshold <value>")
			return true
		}
		c.viewer.Send(viewer.ThresholdEdited{Text: args[1]})
	case "status":
		fmt.Fprintf(c.out, "%s (threshold %s)\n", c.viewer.Status(), c.viewer.ThresholdText())
	case "help", "?":
		fmt.Fprintln(c.out, consoleHelp)
	case "quit", "exit":
		c.quit()
		return false
	default:
		fmt.Fprintf(c.out, "unknown command %q, try help\n", args[0])
	}
	return true
}
