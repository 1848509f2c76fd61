package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coveline/calldeck/client"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: calldeck-watch [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Prints live-call updates from a calldeck server to the terminal.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  calldeck-watch\n")
		fmt.Fprintf(os.Stderr, "  calldeck-watch --url ws://prod:8080/ws --token SECRET\n")
	}

	url := flag.String("url", "ws://localhost:8080/ws", "calldeck WebSocket URL")
	token := flag.String("token", "", "optional auth token")
	flag.Parse()

	c := client.New(*url, *token)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	go func() {
		if err := c.Run(ctx); err != nil && ctx.Err() == nil {
			fmt.Fprintf(os.Stderr, "calldeck-watch: %v\n", err)
			os.Exit(1)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case state := <-c.Updates():
			printState(state)
		}
	}
}

func printState(s client.State) {
	if s.Err != "" {
		fmt.Printf("[%s] %s\n", time.Now().Format("15:04:05"), s.Err)
		return
	}
	if !s.Connected {
		fmt.Printf("[%s] disconnected\n", time.Now().Format("15:04:05"))
		return
	}
	fmt.Printf("[%s] %d live call(s)\n", time.Now().Format("15:04:05"), len(s.LiveCalls))
	for _, rec := range s.LiveCalls {
		elapsed := time.Since(rec.StartTime).Truncate(time.Second)
		fmt.Printf("  %-24s %-16s %-12s %s\n", rec.AgentName, rec.PhoneNumber, rec.Status, elapsed)
	}
}
