package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/meadori/nescore/api"
	"github.com/meadori/nescore/ppu"
	"golang.org/x/term"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const prompt = "(vdb) "

// lineReader is satisfied by both the raw-mode terminal and the plain
// fallback used when stdin is not a terminal.
type lineReader interface {
	ReadLine() (string, error)
}

type plainReader struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func (p *plainReader) ReadLine() (string, error) {
	fmt.Fprint(p.out, prompt)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return p.scanner.Text(), nil
}

type debugger struct {
	client *api.Client
	out    io.Writer
}

func main() {
	addr := flag.String("addr", fmt.Sprintf("localhost:%d", api.DefaultPort), "Emulator address")
	flag.Parse()

	fmt.Println("VDB - nescore DeBugger")
	fmt.Printf("Connecting to emulator on %s...\n", *addr)

	conn, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("did not connect: %v", err)
	}
	defer conn.Close()

	d := &debugger{client: api.NewClient(conn), out: os.Stdout}
	var in lineReader = &plainReader{scanner: bufio.NewScanner(os.Stdin), out: os.Stdout}

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		oldState, err := term.MakeRaw(fd)
		if err != nil {
			log.Fatalf("failed to enter raw mode: %v", err)
		}
		defer term.Restore(fd, oldState)

		t := term.NewTerminal(struct {
			io.Reader
			io.Writer
		}{os.Stdin, os.Stdout}, prompt)
		in, d.out = t, t
	}

	fmt.Fprintln(d.out, "Connected. Type 'help' for commands.")
	for {
		line, err := in.ReadLine()
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !d.run(strings.Fields(line)) {
			return
		}
	}
}

// run executes one command and reports whether the session continues.
func (d *debugger) run(parts []string) bool {
	ctx := context.Background()
	cmd := parts[0]
	args := parts[1:]

	switch {
	case cmd == "help" || cmd == "h":
		fmt.Fprintln(d.out, "Commands:")
		fmt.Fprintln(d.out, "  run, c           - Resume execution")
		fmt.Fprintln(d.out, "  pause, p         - Pause execution")
		fmt.Fprintln(d.out, "  step, s [n]      - Step n instructions")
		fmt.Fprintln(d.out, "  regs, i r        - Print CPU registers")
		fmt.Fprintln(d.out, "  x[/count] <addr> - Examine memory (e.g. x 0000 or x/16 0000)")
		fmt.Fprintln(d.out, "  reset [hard]     - Press reset, or power cycle")
		fmt.Fprintln(d.out, "  save <file>      - Save state on the emulator host")
		fmt.Fprintln(d.out, "  load <file>      - Load state on the emulator host")
		fmt.Fprintln(d.out, "  genie <code>     - Activate a Game Genie code")
		fmt.Fprintln(d.out, "  screenshot <png> - Save the current frame")
		fmt.Fprintln(d.out, "  quit, q          - Exit debugger")
	case cmd == "quit" || cmd == "q" || cmd == "exit":
		return false
	case cmd == "pause" || cmd == "p":
		if d.check(d.client.Pause(ctx)) {
			fmt.Fprintln(d.out, "Emulator paused.")
			d.printRegs()
		}
	case cmd == "run" || cmd == "c" || cmd == "continue":
		if d.check(d.client.Resume(ctx)) {
			fmt.Fprintln(d.out, "Emulator running...")
		}
	case cmd == "step" || cmd == "s":
		n := 1
		if len(args) > 0 {
			if v, err := strconv.Atoi(args[0]); err == nil && v > 0 {
				n = v
			}
		}
		for i := 0; i < n; i++ {
			if !d.check(d.client.Step(ctx)) {
				break
			}
		}
		d.printRegs()
	case cmd == "regs" || (cmd == "i" && len(args) > 0 && args[0] == "r"):
		d.printRegs()
	case cmd == "x" || strings.HasPrefix(cmd, "x/"):
		d.examine(cmd, args)
	case cmd == "reset":
		hard := len(args) > 0 && args[0] == "hard"
		if d.check(d.client.Reset(ctx, hard)) {
			fmt.Fprintln(d.out, "Emulator reset.")
		}
	case (cmd == "save" || cmd == "load") && len(args) == 1:
		var err error
		if cmd == "save" {
			err = d.client.SaveState(ctx, args[0])
		} else {
			err = d.client.LoadState(ctx, args[0])
		}
		if d.check(err) {
			fmt.Fprintf(d.out, "State %sd: %s\n", cmd, args[0])
		}
	case cmd == "genie" && len(args) == 1:
		if d.check(d.client.AddGenieCode(ctx, args[0])) {
			fmt.Fprintf(d.out, "Code %s active.\n", strings.ToUpper(args[0]))
		}
	case cmd == "screenshot" && len(args) == 1:
		d.check(d.screenshot(args[0]))
	default:
		fmt.Fprintf(d.out, "Unknown command: %s\n", strings.Join(parts, " "))
	}
	return true
}

func (d *debugger) check(err error) bool {
	if err != nil {
		fmt.Fprintf(d.out, "Error: %v\n", err)
		return false
	}
	return true
}

func (d *debugger) examine(cmd string, args []string) {
	count := 1
	if c, ok := strings.CutPrefix(cmd, "x/"); ok {
		if v, err := strconv.ParseUint(c, 10, 16); err == nil && v > 0 {
			count = int(v)
		}
	}
	if len(args) == 0 {
		fmt.Fprintln(d.out, "Usage: x <addr> or x/<count> <addr>")
		return
	}
	addr, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimPrefix(args[0], "$"), "0x"), 16, 16)
	if err != nil {
		fmt.Fprintf(d.out, "Invalid address: %s\n", args[0])
		return
	}
	data, err := d.client.ReadMemoryBlock(context.Background(), uint16(addr), uint16(count))
	if d.check(err) {
		printHexDump(d.out, uint16(addr), data)
	}
}

func (d *debugger) printRegs() {
	state, err := d.client.GetCPUState(context.Background())
	if err != nil {
		fmt.Fprintf(d.out, "Error getting CPU state: %v\n", err)
		return
	}
	fmt.Fprintln(d.out, state)
	fmt.Fprintln(d.out, state.Instruction)
	if state.Halted != "" {
		fmt.Fprintf(d.out, "CPU halted: %s (reset to continue)\n", state.Halted)
	}
}

func (d *debugger) screenshot(path string) error {
	pix, err := d.client.GetFrame(context.Background())
	if err != nil {
		return err
	}
	img := image.NewRGBA(image.Rect(0, 0, ppu.Width, ppu.Height))
	if len(pix) != len(img.Pix) {
		return fmt.Errorf("frame has %d bytes, want %d", len(pix), len(img.Pix))
	}
	copy(img.Pix, pix)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	fmt.Fprintf(d.out, "Saved %s\n", path)
	return f.Close()
}

func printHexDump(w io.Writer, startAddr uint16, data []byte) {
	for i := 0; i < len(data); i += 16 {
		fmt.Fprintf(w, "%04X:", startAddr+uint16(i))
		end := min(i+16, len(data))
		for j := i; j < end; j++ {
			fmt.Fprintf(w, " %02X", data[j])
		}
		fmt.Fprintln(w)
	}
}
