package scalebench

import "context"

// aggregate produces one Sample for a set of materialized inputs.
//
// Single-primary mode delegates to the collector once: a sole input compiles
// standalone, multiple inputs compile with the last one primary.
//
// Sum-multi mode simulates the cumulative cost of a real multi-unit build,
// where every unit is compiled as primary against all peers: the collector
// runs once per input with that input primary, and per-metric values are
// summed across invocations (unseen key inserts, seen key adds).
func aggregate(ctx context.Context, c Collector, inputs []string, sumMulti bool) (Sample, error) {
	if !sumMulti {
		if len(inputs) == 1 {
			return c.Collect(ctx, inputs, Standalone())
		}
		return c.Collect(ctx, inputs, PrimaryFile(len(inputs)-1))
	}

	cumulative := Sample{}
	for i := range inputs {
		sample, err := c.Collect(ctx, inputs, PrimaryFile(i))
		if err != nil {
			return nil, err
		}
		for k, v := range sample {
			cumulative[k] += v
		}
	}
	return cumulative, nil
}
