package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/meadori/nescore/api"
	"github.com/meadori/nescore/apu"
	"github.com/meadori/nescore/bus"
	"github.com/meadori/nescore/cartridge"
	"github.com/meadori/nescore/display"
	"github.com/meadori/nescore/recorder"
	"github.com/meadori/nescore/script"
	"github.com/meadori/nescore/server"
	"github.com/meadori/nescore/system"
)

func main() {
	romPath := flag.String("rom", "", "Path to the .nes file to load at startup")
	regionName := flag.String("region", "", "Force the region: ntsc, pal or dendy")
	port := flag.Int("port", api.DefaultPort, "Port for the gRPC control server, 0 to disable")
	recordPath := flag.String("record", "", "Record player 1's input to this file")
	wavPath := flag.String("wav", "", "Record the audio to this WAV file")
	scriptPath := flag.String("script", "", "Lua script to load")
	gameDB := flag.String("gamedb", "", "Extra game database CSV merged over the built-in one")
	stats := flag.String("stats", "", "Serve runtime statistics on this address, e.g. localhost:12600")
	rate := flag.Int("rate", apu.DefaultSampleRate, "Audio sample rate in Hz")
	fourScore := flag.Bool("fourscore", false, "Connect a Four Score adapter")
	genieCodes := flag.String("genie", "", "Comma separated Game Genie codes")
	flag.Parse()

	if *stats != "" {
		go func() {
			viewer.SetConfiguration(viewer.WithAddr(*stats))
			statsview.New().Start()
		}()
		log.Printf("stats server available at %s/debug/statsview", *stats)
	}

	if *gameDB != "" {
		db, err := cartridge.LoadGameDB(*gameDB)
		if err != nil {
			log.Fatalf("Error loading game database: %v", err)
		}
		cartridge.DefaultGameDB.Merge(db)
	}

	b := bus.New()
	b.APU.SetSampleRate(float64(*rate))
	b.SetFourScore(*fourScore)

	if *romPath != "" {
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
		b.LoadCartridge(cart)
	}

	if *genieCodes != "" {
		for _, code := range strings.Split(*genieCodes, ",") {
			if err := b.AddGenieCode(code); err != nil {
				log.Fatalf("Error: %v", err)
			}
		}
	}

	var opts display.Options

	if *port != 0 {
		srv := server.NewGRPCServer()
		srv.SetBus(b)
		if err := srv.Start(*port); err != nil {
			log.Fatalf("Error starting gRPC server: %v", err)
		}
		defer srv.Stop()
		opts.Server = srv
	}

	if *recordPath != "" {
		f, err := os.Create(*recordPath)
		if err != nil {
			log.Fatalf("Error creating record file: %v", err)
		}
		defer f.Close()
		opts.Record = f
	}

	if *wavPath != "" {
		w, err := recorder.NewWAV(*wavPath, int(b.APU.SampleRate()))
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		defer w.Close()
		opts.WAV = w
	}

	if *scriptPath != "" {
		s := script.New(b)
		defer s.Close()
		if err := s.DoFile(*scriptPath); err != nil {
			log.Fatalf("Error: %v", err)
		}
		opts.Script = s
	}

	d := display.New(b, opts)
	defer d.Close()

	ebiten.SetWindowSize(display.ScaledWidth()/2, display.ScaledHeight()/2)
	ebiten.SetWindowTitle("nescore")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(d); err != nil {
		log.Printf("Error: %v", err)
	}
}
