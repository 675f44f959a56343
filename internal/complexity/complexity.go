// Package complexity walks a query-state selection tree computing a
// weighted cost score; recursion reached through fragment spreads is cut
// off by the depth limit.
package complexity

import (
	"encoding/json"
	"math"

	"querysculptor/internal/apperr"
	"querysculptor/internal/querystate"
	"querysculptor/internal/validate"
)

const (
	maxDepth      = 12
	maxFieldCount = 200
	maxScore      = 2500

	depthWarnRatio = 0.8
	scoreWarnRatio = 0.7

	fragmentSpreadScore = 2
)

// Result is the outcome of walking a selection tree: the aggregate
// metrics, any limit-exceeding errors (each subtree that exceeded a
// limit was pruned from further descent), and any threshold warnings.
type Result struct {
	MaxDepth   int
	FieldCount int
	Score      float64
	Errors     []*apperr.Error
	Warnings   []string
}

// Analyze walks state's queryStructure with a per-path visited set
// (entered on descend, left on ascend). Each hop through a fragment
// spread extends the path, so a fragment that spreads itself is not
// caught by that set; it is stopped by the depth limit instead, which
// records a LIMIT error and prunes the subtree.
func Analyze(state *querystate.QueryState) *Result {
	r := &Result{}
	visiting := map[string]bool{}
	walk(state, state.QueryStructure, "", 0, r, visiting)
	if float64(r.MaxDepth) > maxDepth*depthWarnRatio && r.MaxDepth <= maxDepth {
		r.Warnings = append(r.Warnings, depthWarning(r.MaxDepth))
	}
	if r.Score > maxScore*scoreWarnRatio && r.Score <= maxScore {
		r.Warnings = append(r.Warnings, scoreWarning(r.Score))
	}
	return r
}

func walk(state *querystate.QueryState, node *querystate.FieldNode, path string, depth int, r *Result, visiting map[string]bool) {
	if path != "" {
		if visiting[path] {
			return
		}
		visiting[path] = true
		defer delete(visiting, path)
	}
	if depth > r.MaxDepth {
		r.MaxDepth = depth
	}
	if depth > maxDepth {
		r.Errors = append(r.Errors, apperr.Newf(apperr.Limit, "Query depth %d > %d exceeds maximum allowed depth.", depth, maxDepth).WithPath(path))
		return
	}

	for _, spreadName := range node.FragmentSpreads {
		r.FieldCount++
		r.Score += fragmentSpreadScore
		frag, ok := state.Fragments[spreadName]
		if !ok {
			continue
		}
		spreadPath := path + "...>" + spreadName
		for _, key := range frag.Fields.Keys() {
			child, _ := frag.Fields.Get(key)
			walk(state, child, spreadPath+"."+key, depth+1, r, visiting)
		}
	}

	for _, inline := range node.InlineFragments {
		for _, key := range inline.Selections.Keys() {
			child, _ := inline.Selections.Get(key)
			walk(state, child, path+".on:"+inline.OnType+"."+key, depth+1, r, visiting)
		}
	}

	for _, key := range node.Fields.Keys() {
		child, _ := node.Fields.Get(key)
		childPath := key
		if path != "" {
			childPath = path + "." + key
		}
		r.FieldCount++
		if r.FieldCount > maxFieldCount {
			r.Errors = append(r.Errors, apperr.Newf(apperr.Limit, "Query field count exceeds maximum of %d.", maxFieldCount).WithPath(childPath))
			continue
		}
		r.Score += fieldScore(child, depth+1)
		walk(state, child, childPath, depth+1, r, visiting)
	}
}

func fieldScore(node *querystate.FieldNode, depth int) float64 {
	score := 1.0
	score += 0.5 * float64(node.Args.Len())
	for _, key := range node.Args.Keys() {
		if !validate.IsPaginationArg(key) {
			continue
		}
		arg, _ := node.Args.Get(key)
		n, ok := numericArgValue(arg)
		if ok && n > 100 {
			score += math.Log10(n) * 2
		}
	}
	score += 0.3 * float64(len(node.Directives))
	return score * math.Pow(1.2, float64(depth))
}

func numericArgValue(a *querystate.ArgValue) (float64, bool) {
	var raw json.RawMessage
	switch a.Kind() {
	case querystate.KindTyped:
		raw = a.Typed.Value
	case querystate.KindRaw:
		raw = a.Raw
	default:
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	return f, true
}

func depthWarning(depth int) string {
	return apperr.Newf(apperr.Limit, "Query depth %d is approaching the maximum of %d.", depth, maxDepth).Error()
}

func scoreWarning(score float64) string {
	return apperr.Newf(apperr.Limit, "Query complexity score %.1f is approaching the maximum of %d.", score, maxScore).Error()
}
