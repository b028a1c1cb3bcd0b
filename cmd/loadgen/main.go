package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/rl1809/till-simulator/internal/adapter/handler"
)

// Fires concurrent Simulate calls at a till server. Every request replays
// the same log on its own till, so all successful runs must agree, and each
// request ID is sent twice so exactly one copy may succeed.
func main() {
	addr := flag.String("addr", "localhost:50051", "till server gRPC address")
	input := flag.String("input", "testdata/input.txt", "transaction log to replay")
	requests := flag.Int("n", 50, "distinct request IDs")
	flag.Parse()

	data, err := os.ReadFile(*input)
	if err != nil {
		log.Fatalf("failed to read input: %v", err)
	}

	conn, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("failed to dial %s: %v", *addr, err)
	}
	defer conn.Close()
	client := handler.NewTillServiceClient(conn)

	var (
		successCount   atomic.Int32
		duplicateCount atomic.Int32
		failCount      atomic.Int32
		mu             sync.Mutex
		finals         = map[int]int{}
	)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < *requests; i++ {
		requestID := uuid.NewString()
		for copyN := 0; copyN < 2; copyN++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				resp, err := client.Simulate(ctx, &handler.SimulateRequest{RequestID: requestID, Input: string(data)})
				switch {
				case err == nil:
					successCount.Add(1)
					mu.Lock()
					finals[resp.FinalTotal]++
					mu.Unlock()
				case status.Code(err) == codes.AlreadyExists:
					duplicateCount.Add(1)
				default:
					failCount.Add(1)
					log.Printf("request %s: %v", requestID, err)
				}
			}()
		}
	}
	wg.Wait()
	elapsed := time.Since(start)

	fmt.Println("========== LOAD TEST RESULTS ==========")
	fmt.Printf("Request IDs:      %d\n", *requests)
	fmt.Printf("Calls:            %d\n", *requests*2)
	fmt.Printf("Successful:       %d\n", successCount.Load())
	fmt.Printf("Duplicates:       %d\n", duplicateCount.Load())
	fmt.Printf("Failed:           %d\n", failCount.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("=======================================")

	ok := true
	if successCount.Load() != int32(*requests) || duplicateCount.Load() != int32(*requests) {
		fmt.Printf("FAIL: expected %d successes and %d duplicates\n", *requests, *requests)
		ok = false
	}
	if len(finals) > 1 {
		fmt.Printf("FAIL: runs disagree on the final balance: %v\n", finals)
		ok = false
	}
	if !ok {
		os.Exit(1)
	}
	fmt.Println("PASS: one run per request ID, all runs agree")
}
