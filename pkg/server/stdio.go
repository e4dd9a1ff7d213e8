package server

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/oasbridge/bridge/pkg/protocol"
)

// stdioMaxLine bounds a single line of stdio input; large enough for any
// realistic tools/call payload.
const stdioMaxLine = 10 << 20

// ServeStdio implements the stdio transport (§5.8): one JSON object per
// input line, one response object per line on stdout, blank lines ignored.
// It runs until in is exhausted or ctx is cancelled; handlers still in
// flight when in is exhausted have their context cancelled.
func ServeStdio(ctx context.Context, d *protocol.Dispatcher, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), stdioMaxLine)

	var writeMu sync.Mutex
	var wg sync.WaitGroup
	defer wg.Wait()

	// Deferred after wg.Wait, so it runs first on return.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		wg.Add(1)
		go func(line string) {
			defer wg.Done()
			resp := d.Handle(ctx, []byte(line))
			if resp == nil {
				return
			}
			writeMu.Lock()
			defer writeMu.Unlock()
			_, _ = out.Write(resp)
			_, _ = out.Write([]byte("\n"))
		}(line)
	}

	return scanner.Err()
}
