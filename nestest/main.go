// Command nestest runs the nestest ROM in automation mode and prints a trace
// line per instruction. With -log the trace is checked against a reference
// log and the first mismatch is reported.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"

	"github.com/meadori/nescore/cartridge"
	"github.com/meadori/nescore/cpu"
	"github.com/meadori/nescore/system"
)

// mockBus is 64K of flat RAM with nothing else attached.
type mockBus struct {
	Ram [65536]byte
}

func (b *mockBus) Read(addr uint16) byte { return b.Ram[addr] }
func (b *mockBus) Peek(addr uint16) byte { return b.Ram[addr] }
func (b *mockBus) Write(addr uint16, data byte) { b.Ram[addr] = data }
func (b *mockBus) Clock() {}
func (b *mockBus) ClockTo(clock uint64) {}
func (b *mockBus) LoadDMC(data byte) {}

// ppuColumn matches the PPU position reference logs carry and traces lack.
var ppuColumn = regexp.MustCompile(`PPU:\s*\d+,\s*\d+ `)

func normalize(line string) string {
	line = ppuColumn.ReplaceAllString(line, "")
	return strings.Join(strings.Fields(line), " ")
}

func main() {
	romPath := flag.String("rom", "nestest/testdata/nestest.nes", "Path to nestest.nes")
	logPath := flag.String("log", "", "Reference log to compare the trace against")
	count := flag.Int("n", 8991, "Number of instructions to run")
	flag.Parse()

	cart, err := cartridge.New(*romPath)
	if err != nil {
		log.Fatalf("Error loading nestest ROM from %s: %v", *romPath, err)
	}

	b := &mockBus{}
	copy(b.Ram[0x8000:], cart.PRGROM[:0x4000])
	copy(b.Ram[0xC000:], cart.PRGROM[:0x4000])

	c := cpu.New()
	c.ConnectBus(b)
	c.Reset(system.Hard)
	// Automation mode starts at $C000 instead of the reset vector.
	c.PC = 0xC000

	var ref *bufio.Scanner
	if *logPath != "" {
		f, err := os.Open(*logPath)
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		defer f.Close()
		ref = bufio.NewScanner(f)
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()
	for i := 0; i < *count && !c.Corrupted; i++ {
		line := c.Trace()
		fmt.Fprintln(out, line)
		if ref != nil {
			if !ref.Scan() {
				break
			}
			if normalize(ref.Text()) != normalize(line) {
				out.Flush()
				log.Fatalf("Mismatch at instruction %d:\nexpected: %s\n     got: %s", i+1, ref.Text(), line)
			}
		}
		c.Clock()
	}

	// nestest leaves its result codes in $02 and $03.
	log.Printf("Result: $02=%02X $03=%02X", b.Ram[0x02], b.Ram[0x03])
}
