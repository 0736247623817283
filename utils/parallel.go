package utils

import (
	"context"
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// ParallelFactor controls the max level of parallelization. This might be useful
// to set in tests where too much parallelism actually slows tests down in
// aggregate.
var ParallelFactor = runtime.GOMAXPROCS(0)

func init() {
	if ParallelFactor <= 0 {
		ParallelFactor = 1
	}
}

type (
	// MemberWorkFunc runs for each work item (member) of a group.
	MemberWorkFunc func(memberNum, workNum int) error
	// GroupWorkFunc runs to determine what work members should do, if any.
	GroupWorkFunc func(groupNum, groupSize, from, to int) MemberWorkFunc
)

// GroupWorkParallel splits totalSize work items into at most ParallelFactor contiguous groups and runs
// each group on its own goroutine. Items within a group run in order. The context is checked between
// items; a cancelled context or a member error stops that group. Panics are captured and returned as errors.
func GroupWorkParallel(ctx context.Context, totalSize int, groupWork GroupWorkFunc) error {
	if totalSize <= 0 {
		return nil
	}
	numGroups := ParallelFactor
	if totalSize < numGroups {
		numGroups = totalSize
	}
	groupSize := totalSize / numGroups
	extra := totalSize % numGroups

	var (
		wait   sync.WaitGroup
		errMu  sync.Mutex
		allErr error
	)
	storeError := func(err error) {
		errMu.Lock()
		defer errMu.Unlock()
		allErr = multierr.Combine(allErr, err)
	}

	wait.Add(numGroups)
	for groupNum := 0; groupNum < numGroups; groupNum++ {
		from := groupSize * groupNum
		to := from + groupSize
		thisGroupSize := groupSize
		if groupNum == numGroups-1 {
			to += extra
			thisGroupSize += extra
		}
		groupNum := groupNum
		runGroup := func() {
			memberWork := groupWork(groupNum, thisGroupSize, from, to)
			if memberWork == nil {
				return
			}
			memberNum := 0
			for workNum := from; workNum < to; workNum++ {
				if err := ctx.Err(); err != nil {
					storeError(err)
					return
				}
				if err := memberWork(memberNum, workNum); err != nil {
					storeError(err)
					return
				}
				memberNum++
			}
		}
		// wait.Done runs exactly once: after runGroup returns, or from the panic callback.
		utils.PanicCapturingGoWithCallback(func() {
			runGroup()
			wait.Done()
		}, func(err interface{}) {
			storeError(errors.Errorf("got panic running group %d in parallel: %v", groupNum, err))
			wait.Done()
		})
	}
	wait.Wait()
	return allErr
}
