// Package inspect provides an interactive console over an object map. The
// console can list, read, and write the state of a live simulation.
package inspect

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/syifan/goseth"
	"go.uber.org/zap"

	"github.com/sarchlab/ckpt/sim/serialization"
	"github.com/sarchlab/ckpt/sim/serialization/objectmap"
)

var (
	// ErrUnknownCommand is returned for a command the console does not know.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrNotFound is returned when a named child does not exist.
	ErrNotFound = errors.New("not found")

	// ErrReadOnly is returned when writing a read-only value.
	ErrReadOnly = errors.New("read-only")

	// ErrUsage is returned when a command is given the wrong arguments.
	ErrUsage = errors.New("usage")
)

const helpText = `ls                  list the children of the current node
cd <path>|..|/      move to a child, the parent, or the top
pwd                 print the current path
get <name>          print the value of a child
set <name> <value>  change the value of a child
print [depth]       print the current node and its descendants
json [depth]        dump the value under the current node as JSON
help                print this message
quit                leave the console
`

// Console executes line commands against an object map.
type Console struct {
	walker *objectmap.Walker
	done   bool
}

// NewConsole creates a console positioned at root.
func NewConsole(name string, root objectmap.Node) *Console {
	return &Console{walker: objectmap.NewWalker(name, root)}
}

// Walker returns the walker that tracks the position of the console.
func (c *Console) Walker() *objectmap.Walker {
	return c.walker
}

// Done reports whether the quit command has been executed.
func (c *Console) Done() bool {
	return c.done
}

// Prompt returns the prompt that shows the current path.
func (c *Console) Prompt() string {
	return c.pwd() + "> "
}

func (c *Console) pwd() string {
	return "/" + c.walker.FullPathName()
}

// Exec executes one command line and returns what the command prints.
func (c *Console) Exec(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}

	cmd, args := fields[0], fields[1:]

	serialization.Logger().Debug("console command",
		zap.String("command", cmd),
		zap.Strings("args", args),
		zap.String("path", c.pwd()))

	switch cmd {
	case "ls":
		return c.ls(), nil
	case "cd":
		return c.cd(args)
	case "pwd":
		return c.pwd() + "\n", nil
	case "get":
		return c.get(args)
	case "set":
		return c.set(line, args)
	case "print":
		return c.print(args)
	case "json":
		return c.json(args)
	case "help":
		return helpText, nil
	case "quit", "exit":
		c.done = true
		return "", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
	}
}

func (c *Console) ls() string {
	var b strings.Builder

	for _, v := range c.walker.Current().Variables() {
		n := v.Node

		switch {
		case n.IsFundamental():
			fmt.Fprintf(&b, "%s = %s (%s)", v.Name, n.Get(), n.TypeName())
		case c.walker.IsActive(n):
			fmt.Fprintf(&b, "%s (%s) = <loopback>", v.Name, n.TypeName())
		default:
			fmt.Fprintf(&b, "%s (%s)", v.Name, n.TypeName())
		}

		if n.IsReadOnly() {
			b.WriteString(" [read-only]")
		}

		b.WriteByte('\n')
	}

	return b.String()
}

func (c *Console) cd(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%w: cd <path>", ErrUsage)
	}

	target := args[0]
	previous := c.walker.FullPathName()

	if strings.HasPrefix(target, "/") {
		c.walker.Reset()
	}

	for _, name := range strings.Split(target, "/") {
		err := c.step(name)
		if err != nil {
			c.moveTo(previous)
			return "", err
		}
	}

	return "", nil
}

func (c *Console) step(name string) error {
	switch name {
	case "", ".":
		return nil
	case "..":
		_, err := c.walker.SelectParent()
		return err
	}

	_, found := c.walker.Select(name)
	if !found {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	return nil
}

func (c *Console) moveTo(path string) {
	c.walker.Reset()

	if path == "" {
		return
	}

	for _, name := range strings.Split(path, "/") {
		c.walker.Select(name)
	}
}

func (c *Console) get(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%w: get <name>", ErrUsage)
	}

	value, found := c.walker.GetVar(args[0])
	if !found {
		return "", fmt.Errorf("%w: %s", ErrNotFound, args[0])
	}

	return value + "\n", nil
}

// set takes the value from the raw line so that string values can contain
// spaces.
func (c *Console) set(line string, args []string) (string, error) {
	if len(args) < 2 {
		return "", fmt.Errorf("%w: set <name> <value>", ErrUsage)
	}

	name := args[0]
	rest := strings.TrimSpace(line)
	rest = strings.TrimSpace(strings.TrimPrefix(rest, "set"))
	value := strings.TrimSpace(strings.TrimPrefix(rest, name))

	found, readOnly, err := c.walker.SetVar(name, value)

	switch {
	case err != nil:
		return "", err
	case !found:
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	case readOnly:
		return "", fmt.Errorf("%w: %s", ErrReadOnly, name)
	}

	return "", nil
}

func depthArg(args []string, def int) (int, error) {
	if len(args) == 0 {
		return def, nil
	}

	depth, err := strconv.Atoi(args[0])
	if err != nil || depth < 0 {
		return 0, fmt.Errorf("%w: depth must be a non-negative integer", ErrUsage)
	}

	return depth, nil
}

func (c *Console) print(args []string) (string, error) {
	depth, err := depthArg(args, objectmap.Unlimited)
	if err != nil {
		return "", err
	}

	var b bytes.Buffer
	c.walker.Print(&b, depth)

	return b.String(), nil
}

func (c *Console) json(args []string) (string, error) {
	depth, err := depthArg(args, 1)
	if err != nil {
		return "", err
	}

	v := c.walker.Current().Value()
	if !v.IsValid() || !v.CanInterface() {
		return "", fmt.Errorf("%w: %s has no value to dump", ErrUsage, c.pwd())
	}

	var b bytes.Buffer

	serializer := goseth.NewSerializer()
	serializer.SetRoot(v.Interface())
	serializer.SetMaxDepth(depth)

	err = serializer.Serialize(&b)
	if err != nil {
		return "", err
	}

	b.WriteByte('\n')

	return b.String(), nil
}

// Run reads commands from in and writes the results to out until the input
// ends or the quit command is executed. Command errors are printed and do
// not stop the console.
func (c *Console) Run(in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)

	for !c.done {
		fmt.Fprint(out, c.Prompt())

		if !scanner.Scan() {
			fmt.Fprintln(out)
			break
		}

		result, err := c.Exec(scanner.Text())
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}

		fmt.Fprint(out, result)
	}

	return scanner.Err()
}
