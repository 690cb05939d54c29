package sim

import (
	"fmt"

	"github.com/canxin121/riscv-fuzz-test/htif"
	"github.com/canxin121/riscv-fuzz-test/trace"
)

// ParseOutput decodes a simulator's raw stdout and, when a listing path is
// given, attaches instruction traces to every exception dump. Decoding never
// fails; a tracer failure returns the decoded output alongside the error so
// callers can keep the untraced result.
func ParseOutput(raw []byte, listingPath string) (*htif.ExecutionOutput, error) {
	output := htif.Parse(raw)
	if listingPath == "" {
		return output, nil
	}

	tracer, err := trace.New(listingPath)
	if err != nil {
		return output, fmt.Errorf("attach traces: %w", err)
	}
	tracer.TraceAll(output.ExceptionDumps)
	return output, nil
}
