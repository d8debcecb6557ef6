// Command dlmallocdemo boots a heap over a single page of hosted WASM
// linear memory and runs a short scripted allocate/free session,
// printing the allocator's stats after each step.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/wasmrtk/dlmalloc/pkg/dlmalloc"
)

func main() {
	pages := flag.Uint("pages", 1, "number of 64KiB pages to host")
	quantum := flag.Uint("quantum", 64, "allocator block quantum")
	flag.Parse()

	ctx := context.Background()
	a, err := dlmalloc.New(ctx, dlmalloc.NewConfig().
		WithMemoryPages(uint32(*pages)).
		WithQuantum(uint32(*quantum)))
	if err != nil {
		log.Fatalf("dlmallocdemo: failed to start allocator: %v", err)
	}
	defer a.Close(ctx)

	sizes := []uint32{128, 64, 256, 32}
	var ptrs []uint32
	for _, size := range sizes {
		p, err := a.Allocate(size)
		if err != nil {
			log.Fatalf("dlmallocdemo: allocate(%d) failed: %v", size, err)
		}
		ptrs = append(ptrs, p)
		printStats(a, fmt.Sprintf("allocate(%d) -> %d", size, p))
	}

	for _, p := range ptrs {
		if err := a.Free(p); err != nil {
			log.Fatalf("dlmallocdemo: free(%d) failed: %v", p, err)
		}
		printStats(a, fmt.Sprintf("free(%d)", p))
	}

	if err := a.CheckInvariants(); err != nil {
		log.Fatalf("dlmallocdemo: invariants violated after session: %v", err)
	}
	fmt.Println("heap invariants hold after full allocate/free session")
}

func printStats(a *dlmalloc.Allocator, step string) {
	stats, err := a.Stats()
	if err != nil {
		log.Fatalf("dlmallocdemo: stats failed: %v", err)
	}
	fmt.Printf("%-28s allocs=%d frees=%d size=%d\n", step, stats.Allocs, stats.Frees, stats.Size)
}
