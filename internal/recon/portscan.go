package recon

import (
	"context"
	"net"
	"slices"
	"strconv"
	"sync"
	"time"
)

const defaultPortConcurrency = 16

// PortScan performs TCP connect scanning of ports on host and returns the open
// ones in ascending order. Closed/filtered ports are silently skipped.
func PortScan(ctx context.Context, host string, ports []int, concurrency int, timeout time.Duration) []int {
	if len(ports) == 0 {
		return nil
	}
	if concurrency <= 0 {
		concurrency = defaultPortConcurrency
	}
	concurrency = min(concurrency, len(ports))

	work := make(chan int, len(ports))
	for _, p := range ports {
		work <- p
	}
	close(work)

	var (
		mu   sync.Mutex
		open []int
	)

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dialer := net.Dialer{Timeout: timeout}

			for port := range work {
				select {
				case <-ctx.Done():
					return
				default:
				}

				conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
				if err != nil {
					continue
				}
				conn.Close()

				mu.Lock()
				open = append(open, port)
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	slices.Sort(open)
	return open
}

// Scanner implements engine.PortScanner.
type Scanner struct {
	Concurrency int
}

func (s *Scanner) Scan(ctx context.Context, host string, ports []int, timeout time.Duration) []int {
	return PortScan(ctx, host, ports, s.Concurrency, timeout)
}
