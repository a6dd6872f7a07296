// Package script drives a console from Lua. Scripts get an "emu" table:
//
//	emu.read(addr)           -- byte at a CPU address
//	emu.write(addr, value)   -- CPU write between frames
//	emu.press(player, "A+B") -- hold buttons until changed
//	emu.frame([n])           -- run n frames (default 1)
//	emu.framecount()         -- frames run so far
//	emu.reset([hard])        -- reset button, or power cycle
//	emu.log(...)             -- write to the log
//
// A global on_frame(n) function, if defined, is called after every frame.
package script

import (
	"fmt"
	"log"
	"strings"

	"github.com/meadori/nescore/controller"
	"github.com/meadori/nescore/system"
	lua "github.com/yuin/gopher-lua"
)

// Emulator is the part of the console a script can reach.
type Emulator interface {
	ReadMemory(addr uint16) byte
	WriteMemory(addr uint16, data byte)
	SetButtons(player int, buttons controller.Button)
	RunFrame() []float32
	Reset(kind system.ResetKind)
}

// Script is a Lua state bound to an emulator.
type Script struct {
	L       *lua.LState
	emu     Emulator
	frames  int
	inFrame bool

	// Logf receives emu.log output.
	Logf func(format string, args ...any)
}

// New creates a Lua state with the emu table installed.
func New(emu Emulator) *Script {
	s := &Script{L: lua.NewState(), emu: emu, Logf: log.Printf}
	tbl := s.L.NewTable()
	s.L.SetFuncs(tbl, map[string]lua.LGFunction{
		"read":       s.read,
		"write":      s.write,
		"press":      s.press,
		"frame":      s.frame,
		"framecount": s.frameCount,
		"reset":      s.reset,
		"log":        s.log,
	})
	s.L.SetGlobal("emu", tbl)
	return s
}

// Close releases the Lua state.
func (s *Script) Close() {
	s.L.Close()
}

// DoFile runs a script file.
func (s *Script) DoFile(path string) error {
	if err := s.L.DoFile(path); err != nil {
		return fmt.Errorf("script %s: %w", path, err)
	}
	return nil
}

// DoString runs a chunk of Lua.
func (s *Script) DoString(src string) error {
	return s.L.DoString(src)
}

// Frames returns the number of frames counted by OnFrame.
func (s *Script) Frames() int {
	return s.frames
}

// OnFrame counts a finished frame and calls the script's on_frame function,
// if any. Front ends that run frames themselves call it once per frame.
func (s *Script) OnFrame() error {
	s.frames++
	fn := s.L.GetGlobal("on_frame")
	if fn.Type() != lua.LTFunction {
		return nil
	}
	s.inFrame = true
	defer func() { s.inFrame = false }()
	return s.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, lua.LNumber(s.frames))
}

func checkAddr(L *lua.LState, n int) uint16 {
	addr := L.CheckInt(n)
	if addr < 0 || addr > 0xFFFF {
		L.ArgError(n, "address out of range")
	}
	return uint16(addr)
}

func (s *Script) read(L *lua.LState) int {
	L.Push(lua.LNumber(s.emu.ReadMemory(checkAddr(L, 1))))
	return 1
}

func (s *Script) write(L *lua.LState) int {
	addr := checkAddr(L, 1)
	val := L.CheckInt(2)
	if val < 0 || val > 0xFF {
		L.ArgError(2, "value out of range")
	}
	s.emu.WriteMemory(addr, byte(val))
	return 0
}

func (s *Script) press(L *lua.LState) int {
	player := L.CheckInt(1)
	if player < 1 || player > 4 {
		L.ArgError(1, "player must be 1-4")
	}
	buttons, err := controller.ParseButtons(L.OptString(2, ""))
	if err != nil {
		L.ArgError(2, err.Error())
	}
	s.emu.SetButtons(player-1, buttons)
	return 0
}

func (s *Script) frame(L *lua.LState) int {
	if s.inFrame {
		L.RaiseError("emu.frame called from on_frame")
	}
	n := L.OptInt(1, 1)
	for i := 0; i < n; i++ {
		s.emu.RunFrame()
		if err := s.OnFrame(); err != nil {
			L.RaiseError("on_frame: %v", err)
		}
	}
	return 0
}

func (s *Script) frameCount(L *lua.LState) int {
	L.Push(lua.LNumber(s.frames))
	return 1
}

func (s *Script) reset(L *lua.LState) int {
	kind := system.Soft
	if L.OptBool(1, false) {
		kind = system.Hard
	}
	s.emu.Reset(kind)
	return 0
}

func (s *Script) log(L *lua.LState) int {
	parts := make([]string, L.GetTop())
	for i := range parts {
		parts[i] = L.ToStringMeta(L.Get(i + 1)).String()
	}
	s.Logf("lua: %s", strings.Join(parts, " "))
	return 0
}
