package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/meadori/nescore/api"
	"github.com/meadori/nescore/recorder"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func main() {
	scriptFile := flag.String("script", "", "Path to the recorded script file to replay")
	addr := flag.String("addr", fmt.Sprintf("localhost:%d", api.DefaultPort), "Emulator address")
	player := flag.Int("player", 1, "Player to replay the input as (1-4)")
	fps := flag.Float64("fps", 60.0988, "Frames per second of the recording")
	flag.Parse()

	if *scriptFile == "" {
		log.Fatalf("Please provide a script file using -script <file.script>")
	}

	file, err := os.Open(*scriptFile)
	if err != nil {
		log.Fatalf("Failed to open script file: %v", err)
	}
	steps, err := recorder.ReadInputScript(file)
	file.Close()
	if err != nil {
		log.Fatalf("Failed to read script file: %v", err)
	}

	log.Printf("Connecting to emulator on %s...", *addr)
	conn, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	client := api.NewClient(conn)
	stream, err := client.StreamInput(context.Background())
	if err != nil {
		log.Fatalf("failed to open stream: %v", err)
	}

	log.Printf("Connected! Starting replay of %s in 2 seconds...\n", *scriptFile)
	time.Sleep(2 * time.Second)

	frame := time.Duration(float64(time.Second) / *fps)
	for _, step := range steps {
		if err := stream.Send(api.NewInput(*player, step.Buttons)); err != nil {
			log.Fatalf("failed to send state: %v", err)
		}
		time.Sleep(time.Duration(step.Frames) * frame)
	}

	if err := stream.CloseSend(); err != nil {
		log.Printf("failed to close stream: %v", err)
	}
	if _, err := stream.Recv(); err != nil {
		log.Printf("stream ended with error: %v", err)
	}

	log.Println("Replay complete. Disconnected.")
}
