package scheduler

import (
	"fmt"
	"reflect"

	"github.com/dagflow/dagflow/internal/dag"
	flowerrors "github.com/dagflow/dagflow/internal/errors"
	"github.com/dagflow/dagflow/internal/task"
)

// expandFanOut turns a dynamic fan-out barrier's resolved source value into
// one child dag.Node per element. The source must be a slice or array;
// anything else is a DynamicExpansionError. counterStart seeds BuildCounter for
// the new nodes so they sort after every build-time-declared node.
func expandFanOut(barrier *dag.Node, source any, maxDynamic int, counterStart int) ([]*dag.Node, error) {
	v := reflect.ValueOf(source)
	if source == nil || (v.Kind() != reflect.Slice && v.Kind() != reflect.Array) {
		return nil, flowerrors.NewDynamicExpansionError(barrier.ID, "fan-out source did not resolve to a list")
	}

	n := v.Len()
	if n > maxDynamic {
		return nil, flowerrors.NewDynamicExpansionError(barrier.ID, fmt.Sprintf("expansion of %d item(s) exceeds the configured limit of %d", n, maxDynamic))
	}

	children := make([]*dag.Node, 0, n)
	for i := 0; i < n; i++ {
		item := v.Index(i).Interface()
		children = append(children, &dag.Node{
			ID:           fmt.Sprintf("%s/%d", barrier.ID, i),
			Kind:         dag.KindTask,
			Label:        barrier.ChildTask.Name,
			BuildCounter: counterStart + i,
			Def:          barrier.ChildTask,
			Args:         []task.Arg{task.Literal{Value: item}},
		})
	}
	return children, nil
}
