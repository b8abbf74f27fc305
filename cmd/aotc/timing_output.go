package main

import (
	"fmt"
	"io"
	"time"

	"aotc/internal/driver"
)

var timedStages = []driver.Stage{
	driver.StageResolve,
	driver.StageRoots,
	driver.StageScan,
	driver.StageCompile,
	driver.StageVerify,
	driver.StageEmit,
}

func printStageTimings(out io.Writer, timings driver.Timings) {
	if out == nil {
		return
	}
	for _, stage := range timedStages {
		if !timings.Has(stage) {
			continue
		}
		fmt.Fprintf(out, "%-8s %7.1f ms\n", stage, toMillis(timings.Duration(stage)))
	}
	fmt.Fprintf(out, "%-8s %7.1f ms\n", "total", toMillis(timings.Sum(timedStages...)))
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
