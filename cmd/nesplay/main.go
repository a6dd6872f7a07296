// Command nesplay runs a ROM without a window. It can play the audio, record
// it to a WAV file, drive the console from a Lua script and save the last
// frame as a PNG.
package main

import (
	"flag"
	"image"
	"image/png"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/meadori/nescore/apu"
	"github.com/meadori/nescore/bus"
	"github.com/meadori/nescore/cartridge"
	"github.com/meadori/nescore/recorder"
	"github.com/meadori/nescore/script"
	"github.com/meadori/nescore/system"
	"golang.org/x/image/draw"
)

func main() {
	romPath := flag.String("rom", "", "Path to the .nes file to run")
	frames := flag.Int("frames", 600, "Number of frames to run after the script, if any")
	pngPath := flag.String("png", "", "Write the last frame to this PNG file")
	scale := flag.Int("scale", 1, "Integer scale factor of the PNG")
	wavPath := flag.String("wav", "", "Record the audio to this WAV file")
	play := flag.Bool("audio", false, "Play the audio, pacing emulation to real time")
	regionName := flag.String("region", "", "Force the region: ntsc, pal or dendy")
	scriptPath := flag.String("script", "", "Lua script to run before the remaining frames")
	genieCodes := flag.String("genie", "", "Comma separated Game Genie codes")
	gameDB := flag.String("gamedb", "", "Extra game database CSV merged over the built-in one")
	rate := flag.Int("rate", apu.DefaultSampleRate, "Audio sample rate in Hz")
	fourScore := flag.Bool("fourscore", false, "Connect a Four Score adapter")
	statePath := flag.String("state", "", "Load this save state before running")
	flag.Parse()

	if *romPath == "" {
		log.Fatalf("Please provide a ROM using -rom <file.nes>")
	}
	if *gameDB != "" {
		db, err := cartridge.LoadGameDB(*gameDB)
		if err != nil {
			log.Fatalf("Error loading game database: %v", err)
		}
		cartridge.DefaultGameDB.Merge(db)
	}

	cart, err := cartridge.New(*romPath)
	if err != nil {
		log.Fatalf("Error loading ROM: %v", err)
	}
	if *regionName != "" {
		if cart.Region, err = system.ParseRegion(*regionName); err != nil {
			log.Fatalf("Error: %v", err)
		}
	}
	log.Printf("Loaded %s", cart)

	b := bus.New()
	b.APU.SetSampleRate(float64(*rate))
	b.LoadCartridge(cart)
	b.SetFourScore(*fourScore)
	if *genieCodes != "" {
		for _, code := range strings.Split(*genieCodes, ",") {
			if err := b.AddGenieCode(code); err != nil {
				log.Fatalf("Error: %v", err)
			}
		}
	}
	if *statePath != "" {
		if err := b.LoadState(*statePath); err != nil {
			log.Fatalf("Error loading state: %v", err)
		}
	}

	var wav *recorder.WAV
	if *wavPath != "" {
		if wav, err = recorder.NewWAV(*wavPath, int(b.APU.SampleRate())); err != nil {
			log.Fatalf("Error: %v", err)
		}
	}

	var ticker *time.Ticker
	if *play {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   int(b.APU.SampleRate()),
			ChannelCount: 2,
			Format:       oto.FormatSignedInt16LE,
		})
		if err != nil {
			log.Fatalf("Error creating audio context: %v", err)
		}
		<-ready
		player := ctx.NewPlayer(apu.Stream{APU: b.APU})
		defer player.Close()
		player.Play()
		ticker = time.NewTicker(time.Duration(float64(time.Second) / b.Region().FrameRate()))
		defer ticker.Stop()
	}

	// runFrame is shared with the script so recording and pacing apply to
	// frames it runs as well.
	runFrame := func() []float32 {
		samples := b.RunFrame()
		if wav != nil {
			if err := wav.Write(samples); err != nil {
				log.Fatalf("Error: %v", err)
			}
		}
		if ticker != nil {
			<-ticker.C
		}
		return samples
	}

	var s *script.Script
	if *scriptPath != "" {
		s = script.New(&frameRunner{Bus: b, run: runFrame})
		defer s.Close()
		if err := s.DoFile(*scriptPath); err != nil {
			log.Fatalf("Error: %v", err)
		}
	}

	for i := 0; i < *frames && !b.Paused(); i++ {
		runFrame()
		if s != nil {
			if err := s.OnFrame(); err != nil {
				log.Fatalf("Error: %v", err)
			}
		}
	}

	if wav != nil {
		if err := wav.Close(); err != nil {
			log.Fatalf("Error: %v", err)
		}
	}
	if *pngPath != "" {
		if err := writePNG(*pngPath, b, *scale); err != nil {
			log.Fatalf("Error writing screenshot: %v", err)
		}
	}
	if err := b.Err(); err != nil {
		log.Printf("Stopped early: %v", err)
	}
}

// frameRunner routes a script's frames through the runner's own frame
// function.
type frameRunner struct {
	*bus.Bus
	run func() []float32
}

func (f *frameRunner) RunFrame() []float32 {
	return f.run()
}

func writePNG(path string, b *bus.Bus, scale int) error {
	var img image.Image = b.Frame()
	if scale > 1 {
		dst := image.NewRGBA(image.Rect(0, 0, img.Bounds().Dx()*scale, img.Bounds().Dy()*scale))
		draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
		img = dst
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
