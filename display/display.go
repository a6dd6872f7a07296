package display

import (
	"fmt"
	"image/color"
	"log"
	"math/rand"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/sqweek/dialog"

	"github.com/meadori/nescore/apu"
	"github.com/meadori/nescore/bus"
	"github.com/meadori/nescore/cartridge"
	"github.com/meadori/nescore/controller"
	"github.com/meadori/nescore/ppu"
	"github.com/meadori/nescore/recorder"
	"github.com/meadori/nescore/script"
	"github.com/meadori/nescore/server"
	"github.com/meadori/nescore/system"
)

const (
	scalingFactor    = 1.5
	cabinetWidth     = 1024
	cabinetHeight    = 1024
	gameScreenX      = 256
	gameScreenY      = 200
	gameScreenWidth  = 512
	gameScreenHeight = 480
	menuBarHeight    = 50
	quickStateFile   = "quick.state"
)

var (
	chassisColor = color.RGBA{190, 190, 190, 255}
	bezelColor   = color.RGBA{60, 60, 60, 255}
	nesRed       = color.RGBA{220, 50, 50, 255}
)

// keymap binds keyboard keys to player 1's buttons.
var keymap = []struct {
	key    ebiten.Key
	button controller.Button
}{
	{ebiten.KeyZ, controller.ButtonA},
	{ebiten.KeyX, controller.ButtonB},
	{ebiten.KeyShift, controller.ButtonSelect},
	{ebiten.KeyEnter, controller.ButtonStart},
	{ebiten.KeyArrowUp, controller.ButtonUp},
	{ebiten.KeyArrowDown, controller.ButtonDown},
	{ebiten.KeyArrowLeft, controller.ButtonLeft},
	{ebiten.KeyArrowRight, controller.ButtonRight},
	{ebiten.KeyA, controller.ButtonTurboA},
	{ebiten.KeyS, controller.ButtonTurboB},
}

// Options are the optional parts of a Display.
type Options struct {
	// Server supplies network input that is OR'd with the keyboard.
	Server *server.GRPCServer
	// Record receives player 1's input as an input script.
	Record *os.File
	// WAV receives the audio of every frame.
	WAV *recorder.WAV
	// Script has its on_frame function called after every frame.
	Script *script.Script
}

// Display represents the emulator's display.
type Display struct {
	bus             *bus.Bus
	opts            Options
	audioPlayer     *audio.Player
	inputLog        *recorder.InputLog
	menuBarVisible  bool
	resetBlinkTimer int
	message         string
	messageTimer    int

	romLoadChan chan string

	staticImage    *ebiten.Image
	staticPix      []byte
	scanlineImage  *ebiten.Image
	frameImage     *ebiten.Image
	currentButtons controller.Button
	jammed         bool
}

// New creates a new Display instance.
func New(b *bus.Bus, opts Options) *Display {
	audioContext := audio.NewContext(int(b.APU.SampleRate()))
	player, err := audioContext.NewPlayer(apu.Stream{APU: b.APU})
	if err != nil {
		log.Printf("Error creating audio player: %v", err)
	} else {
		player.Play()
	}

	scanImg := ebiten.NewImage(ppu.Width, ppu.Height)
	for y := 0; y < ppu.Height; y += 2 {
		vector.DrawFilledRect(scanImg, 0, float32(y), ppu.Width, 1, color.RGBA{0, 0, 0, 70}, false)
	}

	d := &Display{
		bus:           b,
		opts:          opts,
		audioPlayer:   player,
		romLoadChan:   make(chan string, 1),
		staticImage:   ebiten.NewImage(ppu.Width, ppu.Height),
		staticPix:     make([]byte, ppu.Width*ppu.Height*4),
		scanlineImage: scanImg,
		frameImage:    ebiten.NewImage(ppu.Width, ppu.Height),
	}
	if opts.Record != nil {
		d.inputLog = recorder.NewInputLog(opts.Record)
	}
	return d
}

// Close flushes the input recording.
func (d *Display) Close() error {
	if d.inputLog != nil {
		return d.inputLog.Flush()
	}
	return nil
}

func (d *Display) loadROM(path string) {
	cart, err := cartridge.New(path)
	if err != nil {
		d.fail(fmt.Sprintf("Error loading ROM: %v", err))
		return
	}
	d.bus.LoadCartridge(cart)
	d.notify(cart.String())
}

func (d *Display) notify(msg string) {
	log.Println(msg)
	d.message = msg
	d.messageTimer = 180
}

// fail reports an error in a message box without blocking the game loop.
func (d *Display) fail(msg string) {
	d.notify(msg)
	go dialog.Message("%s", msg).Title("nescore").Error()
}

func (d *Display) handleKeys() {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyF5):
		if err := d.bus.SaveState(quickStateFile); err != nil {
			d.fail(fmt.Sprintf("Save failed: %v", err))
		} else {
			d.notify("State saved")
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyF9):
		if err := d.bus.LoadState(quickStateFile); err != nil {
			d.fail(fmt.Sprintf("Load failed: %v", err))
		} else {
			d.notify("State loaded")
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyP):
		d.bus.SetPaused(!d.bus.Paused())
	case inpututil.IsKeyJustPressed(ebiten.KeyN):
		d.bus.RequestStep()
	case inpututil.IsKeyJustPressed(ebiten.KeyF12):
		d.bus.Reset(system.Hard)
		d.resetBlinkTimer = 30
	}
}

func (d *Display) handleMenu() {
	if !inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		return
	}
	cx, cy := ebiten.CursorPosition()
	x, y := float32(cx), float32(cy)
	if y < 5 || y > 45 {
		return
	}
	switch {
	case x >= 60 && x <= 140:
		d.Close()
		os.Exit(0)
	case x >= 150 && x <= 230:
		d.bus.Reset(system.Soft)
		d.resetBlinkTimer = 30
	case x >= 240 && x <= 320:
		go func() {
			filename, err := dialog.File().Filter("NES ROM", "nes").Load()
			if err != nil {
				log.Println(err)
			} else {
				d.romLoadChan <- filename
			}
		}()
	}
}

// Update proceeds the game state.
// Update is called every tick (1/60 [s] by default).
func (d *Display) Update() error {
	d.menuBarVisible = true

	select {
	case filename := <-d.romLoadChan:
		d.loadROM(filename)
	default:
	}

	d.handleMenu()
	d.handleKeys()

	if d.resetBlinkTimer > 0 {
		d.resetBlinkTimer--
	}
	if d.messageTimer > 0 {
		d.messageTimer--
	}

	// Local input OR'd with the network controllers.
	var buttons controller.Button
	for _, k := range keymap {
		if ebiten.IsKeyPressed(k.key) {
			buttons |= k.button
		}
	}
	if d.opts.Server != nil {
		buttons |= d.opts.Server.PlayerState(1)
		for player := 2; player <= 4; player++ {
			d.bus.SetButtons(player-1, d.opts.Server.PlayerState(player))
		}
	}
	d.bus.SetButtons(0, buttons)
	d.currentButtons = buttons

	if !d.bus.HasCartridge() {
		for i := 0; i < len(d.staticPix); i += 4 {
			val := byte(rand.Intn(256))
			d.staticPix[i] = val
			d.staticPix[i+1] = val
			d.staticPix[i+2] = val
			d.staticPix[i+3] = 255
		}
		d.staticImage.WritePixels(d.staticPix)
		return nil
	}

	samples, ran := d.bus.StepFrame()
	d.checkJam()
	if !ran || samples == nil {
		return nil
	}
	if d.inputLog != nil {
		if err := d.inputLog.Frame(buttons); err != nil {
			return err
		}
	}
	if d.opts.WAV != nil {
		if err := d.opts.WAV.Write(samples); err != nil {
			return err
		}
	}
	if d.opts.Script != nil {
		if err := d.opts.Script.OnFrame(); err != nil {
			log.Printf("Script error: %v", err)
			d.opts.Script = nil
		}
	}
	return nil
}

// checkJam reports a jammed CPU once, when the console pauses on it.
func (d *Display) checkJam() {
	err := d.bus.Err()
	if err != nil && !d.jammed {
		d.fail(fmt.Sprintf("CPU halted: %v", err))
	}
	d.jammed = err != nil
}

// Draw draws the game screen.
// Draw is called every frame (typically 1/60[s] for 60Hz display).
func (d *Display) Draw(screen *ebiten.Image) {
	screen.Fill(chassisColor)
	d.drawBezel(screen)

	rawScreen := d.staticImage
	if d.bus.HasCartridge() {
		d.frameImage.WritePixels(d.bus.GetFramePixels())
		d.frameImage.DrawImage(d.scanlineImage, nil)
		rawScreen = d.frameImage
	}

	opGame := &ebiten.DrawImageOptions{}
	opGame.GeoM.Scale(
		float64(gameScreenWidth)/ppu.Width*scalingFactor,
		float64(gameScreenHeight)/ppu.Height*scalingFactor)
	opGame.GeoM.Translate(gameScreenX*scalingFactor, gameScreenY*scalingFactor)
	screen.DrawImage(rawScreen, opGame)

	d.drawControllerHUD(screen)
	d.drawStatus(screen)

	if d.menuBarVisible {
		d.drawMenuBar(screen)
	}
}

// drawBezel draws the TV cabinet around the game screen.
func (d *Display) drawBezel(screen *ebiten.Image) {
	x := float32(gameScreenX * scalingFactor)
	y := float32(gameScreenY * scalingFactor)
	w := float32(gameScreenWidth * scalingFactor)
	h := float32(gameScreenHeight * scalingFactor)
	pad := float32(40)

	vector.DrawFilledRect(screen, x-pad-8, y-pad-8, w+2*pad+16, h+2*pad+16, color.RGBA{30, 30, 30, 255}, false)
	vector.DrawFilledRect(screen, x-pad, y-pad, w+2*pad, h+2*pad, bezelColor, false)
	vector.StrokeRect(screen, x-4, y-4, w+8, h+8, 4, color.RGBA{20, 20, 20, 255}, false)
}

func (d *Display) drawStatus(screen *ebiten.Image) {
	y := int(float32((gameScreenY+gameScreenHeight)*scalingFactor)) + 50
	status := fmt.Sprintf("%s  F5 save  F9 load  P pause  N step  F12 power", d.bus.Region())
	switch {
	case d.jammed:
		status = "HALTED  " + status
	case d.bus.Paused():
		status = "PAUSED  " + status
	}
	ebitenutil.DebugPrintAt(screen, status, int(gameScreenX*scalingFactor), y)
	if d.messageTimer > 0 {
		ebitenutil.DebugPrintAt(screen, d.message, int(gameScreenX*scalingFactor), y+16)
	}
}

func (d *Display) drawMenuBar(screen *ebiten.Image) {
	vector.DrawFilledRect(screen, 0, 0, float32(cabinetWidth*scalingFactor), menuBarHeight, chassisColor, false)
	vector.DrawFilledRect(screen, 0, menuBarHeight, float32(cabinetWidth*scalingFactor), 4, color.RGBA{40, 40, 40, 255}, false)

	cx, cy := ebiten.CursorPosition()
	mouseX, mouseY := float32(cx), float32(cy)
	isMouseDown := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)

	// Power LED, blinking after a reset.
	ledX, ledY := float32(30), float32(25)
	vector.DrawFilledRect(screen, ledX-10, ledY-10, 20, 20, color.RGBA{30, 30, 30, 255}, false)
	if d.resetBlinkTimer == 0 || (d.resetBlinkTimer/4)%2 == 0 {
		vector.DrawFilledCircle(screen, ledX, ledY, 8, color.RGBA{200, 0, 0, 80}, false)
		vector.DrawFilledCircle(screen, ledX, ledY, 5, color.RGBA{255, 0, 0, 180}, false)
		vector.DrawFilledCircle(screen, ledX, ledY, 3, color.RGBA{255, 100, 100, 255}, false)
	} else {
		vector.DrawFilledCircle(screen, ledX, ledY, 3, color.RGBA{100, 0, 0, 255}, false)
	}

	for _, b := range []struct {
		label string
		x     float32
	}{{"POWER", 60}, {"RESET", 150}, {"LOAD", 240}} {
		hover := mouseX >= b.x && mouseX <= b.x+80 && mouseY >= 5 && mouseY <= 45
		drawNESButton(screen, b.label, b.x, 5, 80, 40, hover, hover && isMouseDown)
	}

	logoText := "NESCORE"
	logoImg := ebiten.NewImage(len(logoText)*6, 16)
	ebitenutil.DebugPrintAt(logoImg, logoText, 0, 0)

	logOp := &ebiten.DrawImageOptions{}
	logOp.GeoM.Scale(2.5, 2.5)
	logOp.GeoM.Skew(-0.15, 0)
	logOp.GeoM.Translate(350, 4)
	logOp.ColorScale.ScaleWithColor(nesRed)
	screen.DrawImage(logoImg, logOp)
}

func drawNESButton(screen *ebiten.Image, textStr string, x, y, w, h float32, isHovered, isPressed bool) {
	baseColor := color.RGBA{70, 70, 70, 255}
	lightColor := color.RGBA{120, 120, 120, 255}
	darkColor := color.RGBA{40, 40, 40, 255}

	if isHovered {
		baseColor = color.RGBA{85, 85, 85, 255}
		lightColor = color.RGBA{140, 140, 140, 255}
	}
	if isPressed {
		// Inverted bevel.
		lightColor, darkColor = darkColor, lightColor
	}

	vector.DrawFilledRect(screen, x, y, w, h, baseColor, false)

	border := float32(4)
	vector.DrawFilledRect(screen, x, y, w, border, lightColor, false)
	vector.DrawFilledRect(screen, x, y, border, h, lightColor, false)
	vector.DrawFilledRect(screen, x, y+h-border, w, border, darkColor, false)
	vector.DrawFilledRect(screen, x+w-border, y, border, h, darkColor, false)

	textImg := ebiten.NewImage(len(textStr)*6, 16)
	ebitenutil.DebugPrintAt(textImg, textStr, 0, 0)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(2, 2)

	textW := float32(len(textStr) * 6 * 2)
	textH := float32(16 * 2)
	textX := x + (w-textW)/2
	textY := y + (h-textH)/2 + 4
	if isPressed {
		textX += 2
		textY += 2
	}

	op.GeoM.Translate(float64(textX), float64(textY))
	op.ColorScale.ScaleWithColor(nesRed)
	screen.DrawImage(textImg, op)
}

// Layout takes the outside size (e.g., the window size) and returns the (logical) screen size.
func (d *Display) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	return ScaledWidth(), ScaledHeight()
}

func ScaledWidth() int {
	return int(cabinetWidth * scalingFactor)
}

func ScaledHeight() int {
	return int(cabinetHeight * scalingFactor)
}

// drawControllerHUD draws a controller below the TV that lights up the
// buttons player 1 holds.
func (d *Display) drawControllerHUD(screen *ebiten.Image) {
	hudWidth, hudHeight := float32(300), float32(110)
	x := float32(cabinetWidth*scalingFactor)/2 - hudWidth/2
	y := float32((gameScreenY+gameScreenHeight)*scalingFactor) + 100

	held := func(b controller.Button) bool { return d.currentButtons&b != 0 }

	vector.DrawFilledRect(screen, x, y, hudWidth, hudHeight, color.RGBA{180, 180, 180, 255}, false)
	vector.DrawFilledRect(screen, x+20, y+hudHeight/2-10, hudWidth-40, 20, color.RGBA{30, 30, 30, 255}, false)

	dpadX, dpadY := x+55, y+55
	dpadColor := color.RGBA{20, 20, 20, 255}
	hlColor := color.RGBA{130, 130, 130, 255}

	vector.DrawFilledRect(screen, dpadX-12, dpadY-35, 24, 70, dpadColor, false)
	vector.DrawFilledRect(screen, dpadX-35, dpadY-12, 70, 24, dpadColor, false)

	if held(controller.ButtonUp) {
		vector.DrawFilledRect(screen, dpadX-12, dpadY-35, 24, 25, hlColor, false)
	}
	if held(controller.ButtonDown) {
		vector.DrawFilledRect(screen, dpadX-12, dpadY+10, 24, 25, hlColor, false)
	}
	if held(controller.ButtonLeft) {
		vector.DrawFilledRect(screen, dpadX-35, dpadY-12, 25, 24, hlColor, false)
	}
	if held(controller.ButtonRight) {
		vector.DrawFilledRect(screen, dpadX+10, dpadY-12, 25, 24, hlColor, false)
	}

	selColor, startColor := color.RGBA{30, 30, 30, 255}, color.RGBA{30, 30, 30, 255}
	if held(controller.ButtonSelect) {
		selColor = hlColor
	}
	if held(controller.ButtonStart) {
		startColor = hlColor
	}
	vector.DrawFilledRect(screen, x+120, y+60, 35, 12, selColor, false)
	vector.DrawFilledRect(screen, x+170, y+60, 35, 12, startColor, false)

	bColor, aColor := color.RGBA{200, 0, 0, 255}, color.RGBA{200, 0, 0, 255}
	btnHlColor := color.RGBA{255, 100, 100, 255}
	if held(controller.ButtonB | controller.ButtonTurboB) {
		bColor = btnHlColor
	}
	if held(controller.ButtonA | controller.ButtonTurboA) {
		aColor = btnHlColor
	}
	vector.DrawFilledCircle(screen, x+230, y+70, 18, bColor, false)
	vector.DrawFilledCircle(screen, x+275, y+60, 18, aColor, false)
}
