package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/muli0525/ChineseChessAssistant/internal/engine/uci"
	"github.com/muli0525/ChineseChessAssistant/internal/xiangqi"
)

// enginecheck probes the configured engine binary: spawn, handshake and one
// shallow search from the opening position.
func main() {
	path := os.Getenv("ENGINE_PATH")
	if path == "" {
		log.Fatal("ENGINE_PATH is required")
	}
	depth := 6
	if v := os.Getenv("CHECK_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			depth = n
		}
	}

	client := uci.NewClient(uci.Config{
		StartTimeout:     10 * time.Second,
		HandshakeTimeout: 10 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := client.Start(ctx, path); err != nil {
		log.Fatalf("start error: %v", err)
	}
	defer client.Quit()

	info := client.Handshake(ctx)
	log.Printf("engine ok: name=%q author=%q options=%d", info.Name, info.Author, len(info.Options))

	board := xiangqi.NewBoard()
	board.SetupInitialPosition()
	client.SetPosition(board.EncodeFEN(), nil)

	start := time.Now()
	move := client.Go(ctx, depth)
	if move.Move == "" {
		log.Fatalf("search produced no move at depth %d", depth)
	}
	si := client.LastSearchInfo()
	log.Printf("search ok: bestmove=%s ponder=%s depth=%d nodes=%d elapsed=%s",
		move.Move, move.Ponder, si.Depth, si.Nodes, time.Since(start).Round(time.Millisecond))
}
