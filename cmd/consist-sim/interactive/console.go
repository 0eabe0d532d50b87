// Package interactive provides the interactive command-line interface
// for consist-sim.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/chzyer/readline"

	"github.com/consist-sim/consist-go/internal/scenario"
)

// Console drives a scenario environment from typed commands.
type Console struct {
	rl  *readline.Instance
	out io.Writer
	env *scenario.Env
}

// New creates a console reading from the terminal.
func New() (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "consist> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Console{rl: rl, out: rl.Stdout()}, nil
}

func newConsole(env *scenario.Env, out io.Writer) *Console {
	return &Console{out: out, env: env}
}

// Stdout returns a writer that coordinates with the readline input.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Stderr returns a writer that coordinates with the readline input. Use
// it for log output to avoid interfering with the prompt.
func (c *Console) Stderr() io.Writer {
	return c.rl.Stderr()
}

// Run reads commands until EOF, quit or ctx is done.
func (c *Console) Run(ctx context.Context, env *scenario.Env) {
	defer c.rl.Close()
	c.env = env

	c.printHelp()
	c.printConsist()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.out, "Exiting...")
			return
		}
		if quit := c.Execute(line); quit {
			return
		}
	}
}

// Execute runs one command line and reports whether the console should
// exit.
func (c *Console) Execute(line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	var err error
	switch cmd {
	case "help", "?":
		c.printHelp()
	case "couple", "c":
		err = c.cmdJoint("couple", args)
	case "uncouple", "u":
		err = c.cmdJoint("uncouple", args)
	case "set", "s":
		err = c.cmdSet(args)
	case "permit", "p":
		err = c.cmdPermit(args)
	case "tick", "t":
		err = c.cmdTick(args)
	case "route":
		err = c.cmdRoute(args)
	case "code":
		err = c.cmdCode(args)
	case "trigger":
		err = c.cmdTrigger(args)
	case "show", "ls":
		err = c.cmdShow(args)
	case "state":
		err = c.cmdState(args)
	case "switch", "sw":
		err = c.cmdSwitch(args)
	case "consist":
		c.printConsist()
	case "quit", "exit", "q":
		fmt.Fprintln(c.out, "Exiting...")
		return true
	default:
		fmt.Fprintf(c.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
	}
	return false
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, `
Consist Commands:
  Coupling:
    couple <joint|all>             - Couple a joint (0 is between the first two cars)
    uncouple <joint|all>           - Uncouple a joint
    consist                        - Show cars and joints

  Lines:
    set <car> <line> <value>       - Set a car's own contribution
    permit <car> <line> <f> <r>    - Open (true) or close (false) front/rear propagation
    show [line]                    - Show resolved values per car
    state <line> <car>             - Show a line's internal state

  Switch control:
    route <car> <sender> <dir> [wheelchair] - Send a routing request (sender: vehicle, module(n))
    code <car> <code> [request]    - Set the routing code
    trigger <car> <sensor> [leave] - Fire a trackside sensor
    tick [count] [switch] [signal] [routing] - Advance time with the given requests active
    switch [car]                   - Show switch control units

  General:
    help                           - Show this help
    quit                           - Exit`)
}

func (c *Console) apply(action string, params map[string]any) error {
	return c.env.Apply(scenario.Step{Action: action, Params: params})
}

func (c *Console) cmdJoint(action string, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: %s <joint|all>", action)
	}
	params := map[string]any{"joint": args[0]}
	if strings.EqualFold(args[0], "all") {
		params = map[string]any{"all": true}
	}
	if err := c.apply(action, params); err != nil {
		return err
	}
	c.printConsist()
	return nil
}

func (c *Console) cmdSet(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: set <car> <line> <value>")
	}
	if err := c.apply("set_local", map[string]any{"car": args[0], "line": args[1], "value": args[2]}); err != nil {
		return err
	}
	return c.cmdShow(args[1:2])
}

func (c *Console) cmdPermit(args []string) error {
	if len(args) != 4 {
		return fmt.Errorf("usage: permit <car> <line> <front> <rear>")
	}
	return c.apply("permit", map[string]any{"car": args[0], "line": args[1], "front": args[2], "rear": args[3]})
}

func (c *Console) cmdTick(args []string) error {
	params := map[string]any{}
	for _, a := range args {
		switch strings.ToLower(a) {
		case "switch":
			params["switch_request"] = true
		case "signal":
			params["signal_request"] = true
		case "routing":
			params["routing_request"] = true
		default:
			params["count"] = a
		}
	}
	if err := c.apply("tick", params); err != nil {
		return err
	}
	return c.cmdSwitch(nil)
}

func (c *Console) cmdRoute(args []string) error {
	if len(args) < 3 || len(args) > 4 {
		return fmt.Errorf("usage: route <car> <sender> <direction> [wheelchair]")
	}
	params := map[string]any{"car": args[0], "sender": args[1], "direction": args[2]}
	if len(args) == 4 {
		if !strings.EqualFold(args[3], "wheelchair") {
			return fmt.Errorf("unexpected %q, want wheelchair", args[3])
		}
		params["wheelchair"] = true
	}
	return c.apply("route", params)
}

func (c *Console) cmdCode(args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return fmt.Errorf("usage: code <car> <code> [request]")
	}
	params := map[string]any{"car": args[0], "code": args[1]}
	if len(args) == 3 {
		params["request"] = strings.EqualFold(args[2], "request")
	}
	return c.apply("code", params)
}

func (c *Console) cmdTrigger(args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return fmt.Errorf("usage: trigger <car> <sensor> [leave]")
	}
	params := map[string]any{"car": args[0], "sensor": args[1]}
	if len(args) == 3 {
		params["entering"] = !strings.EqualFold(args[2], "leave")
	}
	return c.apply("trigger", params)
}

func (c *Console) cmdShow(args []string) error {
	names := c.env.ChannelNames()
	if len(args) > 0 {
		names = args[:1]
	}
	cars := c.env.Consist.Cars()

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprint(tw, "LINE")
	for _, car := range cars {
		fmt.Fprintf(tw, "\t%s", car.Name)
	}
	fmt.Fprintln(tw)
	for _, name := range names {
		fmt.Fprint(tw, name)
		for _, car := range cars {
			ch, err := c.env.Channel(name, car.Name)
			if err != nil {
				return err
			}
			fmt.Fprintf(tw, "\t%s", ch.Value())
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func (c *Console) cmdState(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: state <line> <car>")
	}
	ch, err := c.env.Channel(args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s on %s: %s\n", ch.Name(), args[1], ch.State())
	return nil
}

func (c *Console) cmdSwitch(args []string) error {
	cars := c.env.Units()
	if len(args) > 0 {
		cars = args[:1]
	}
	for _, car := range cars {
		u, ok := c.env.Unit(car)
		if !ok {
			return fmt.Errorf("no switch control unit on %q", car)
		}
		fmt.Fprintf(c.out, "[%s] value=%s wheelchair=%s zone=%v code=%d\n",
			car, u.Value(), u.ValueWheelchair(), u.InTriggerZone(), u.RoutingCode())
	}
	return nil
}

func (c *Console) printConsist() {
	cs := c.env.Consist
	var b strings.Builder
	for i, car := range cs.Cars() {
		if i > 0 {
			if cs.Coupled(i - 1) {
				b.WriteString(" = ")
			} else {
				b.WriteString(" | ")
			}
		}
		b.WriteString(car.Name)
		if car.Reversed {
			b.WriteString("(r)")
		}
	}
	fmt.Fprintf(c.out, "Consist: %s\n", b.String())
}

func completer() *readline.PrefixCompleter {
	lines := make([]readline.PrefixCompleterInterface, 0, len(scenario.Channels()))
	for _, name := range scenario.Channels() {
		lines = append(lines, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("help"),
		readline.PcItem("couple", readline.PcItem("all")),
		readline.PcItem("uncouple", readline.PcItem("all")),
		readline.PcItem("set"),
		readline.PcItem("permit"),
		readline.PcItem("show", lines...),
		readline.PcItem("state", lines...),
		readline.PcItem("tick", readline.PcItem("switch"), readline.PcItem("signal"), readline.PcItem("routing")),
		readline.PcItem("route"),
		readline.PcItem("code"),
		readline.PcItem("trigger"),
		readline.PcItem("switch"),
		readline.PcItem("consist"),
		readline.PcItem("quit"),
	)
}
