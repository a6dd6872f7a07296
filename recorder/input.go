package recorder

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/meadori/nescore/controller"
)

// InputStep holds one set of buttons for a number of frames.
type InputStep struct {
	Frames  int
	Buttons controller.Button
}

func (s InputStep) String() string {
	return fmt.Sprintf("%d %s", s.Frames, strings.ReplaceAll(s.Buttons.String(), ",", "+"))
}

// InputLog writes controller input as "FRAMES BUTTONS" lines, one line per
// run of identical frames.
type InputLog struct {
	w       io.Writer
	current InputStep
}

// NewInputLog returns a log writing to w.
func NewInputLog(w io.Writer) *InputLog {
	return &InputLog{w: w}
}

// Frame records the buttons held during one frame.
func (l *InputLog) Frame(b controller.Button) error {
	if l.current.Frames > 0 && b == l.current.Buttons {
		l.current.Frames++
		return nil
	}
	if err := l.Flush(); err != nil {
		return err
	}
	l.current = InputStep{Frames: 1, Buttons: b}
	return nil
}

// Flush writes the pending run.
func (l *InputLog) Flush() error {
	if l.current.Frames == 0 {
		return nil
	}
	_, err := fmt.Fprintln(l.w, l.current)
	l.current = InputStep{}
	return err
}

// ParseInputLine parses one "FRAMES BUTTONS" line.
func ParseInputLine(line string) (InputStep, error) {
	parts := strings.Fields(line)
	if len(parts) != 2 {
		return InputStep{}, fmt.Errorf("invalid line %q", line)
	}
	frames, err := strconv.Atoi(parts[0])
	if err != nil || frames < 0 {
		return InputStep{}, fmt.Errorf("invalid frame count %q", parts[0])
	}
	buttons, err := controller.ParseButtons(parts[1])
	if err != nil {
		return InputStep{}, err
	}
	return InputStep{Frames: frames, Buttons: buttons}, nil
}

// ReadInputScript reads a script written by InputLog. Blank lines and lines
// starting with # are skipped.
func ReadInputScript(r io.Reader) ([]InputStep, error) {
	var steps []InputStep
	scanner := bufio.NewScanner(r)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		step, err := ParseInputLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		steps = append(steps, step)
	}
	return steps, scanner.Err()
}
