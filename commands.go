package mumps

import (
	"context"
	"strings"
)

func (in *Interpreter) execWrite(cmd *Command, ctx context.Context) (ctrl, Value) {
	for _, arg := range cmd.WriteArgs {
		switch arg.Kind {
		case WriteReset:
			in.output = in.output[:0]
			in.column = 0
		case WriteNewline:
			in.output = append(in.output, '\n')
			in.column = 0
		case WritePad:
			target := int(toNum(in.evalExpr(arg.Value, ctx)))
			for in.column < target {
				in.output = append(in.output, ' ')
				in.column++
			}
		case WriteExprArg:
			s := toStr(in.evalExpr(arg.Value, ctx))
			in.output = append(in.output, s...)
			in.column += len(s)
		}
		if in.halted {
			return ctrlHalt, nil
		}
	}
	return ctrlContinue, nil
}

// execDo either calls a named tag as a statement (discarding any return
// value) or, for a bare `do`, runs its indented block. A Quit from that
// block ends the block, not whatever called it.
func (in *Interpreter) execDo(cmd *Command, ctx context.Context) (ctrl, Value) {
	if cmd.DoCall != nil {
		_, res := in.invokeCall(cmd.DoCall, ctx)
		if in.halted {
			return ctrlHalt, nil
		}
		_ = res
		return ctrlContinue, nil
	}
	res, val := in.runScoped(cmd.Body, ctx)
	if res == ctrlHalt {
		return ctrlHalt, val
	}
	return ctrlContinue, nil
}

func (in *Interpreter) execIf(cmd *Command, ctx context.Context) (ctrl, Value) {
	pass := true
	for _, cond := range cmd.IfConds {
		if !toBool(in.evalExpr(cond, ctx)) {
			pass = false
			break
		}
		if in.halted {
			return ctrlHalt, nil
		}
	}
	global := in.env.global()
	if pass {
		global.set(specialTest, NumberValue(1))
		return in.runScoped(cmd.Body, ctx)
	}
	global.set(specialTest, NumberValue(0))
	return ctrlContinue, nil
}

func (in *Interpreter) execElse(cmd *Command, ctx context.Context) (ctrl, Value) {
	testVal, _ := in.env.global().get(specialTest)
	if toBool(testVal) {
		return ctrlContinue, nil
	}
	return in.runScoped(cmd.Body, ctx)
}

func (in *Interpreter) execFor(cmd *Command, ctx context.Context) (ctrl, Value) {
	if cmd.ForParams == nil {
		// argument-less form: repeat the body until it Quits.
		for {
			if in.checkBudget(ctx, cmd.Pos) {
				return ctrlHalt, nil
			}
			res, val := in.runScoped(cmd.Body, ctx)
			if res == ctrlHalt {
				return ctrlHalt, val
			}
			if res == ctrlQuit {
				return ctrlContinue, nil
			}
		}
	}

	depth := len(in.env.frames)
	defer in.truncateEnv(depth)

	for _, fp := range cmd.ForParams {
		ref := in.resolveBaseRefForWrite(cmd.ForVar)
		start := toNum(in.evalExpr(fp.Start, ctx))
		ref.Write(NumberValue(start))

		if fp.Step == nil {
			res, val := in.runScoped(cmd.Body, ctx)
			if res == ctrlHalt {
				return ctrlHalt, val
			}
			continue
		}
		step := toNum(in.evalExpr(fp.Step, ctx))
		var limit float64
		hasLimit := fp.Limit != nil
		if hasLimit {
			limit = toNum(in.evalExpr(fp.Limit, ctx))
		}

		quit := false
		for {
			if in.checkBudget(ctx, fp.Start.exprPos()) {
				return ctrlHalt, nil
			}
			cur, _ := ref.rawRead()
			curNum := toNum(cur)
			if hasLimit {
				if (step >= 0 && curNum > limit) || (step < 0 && curNum < limit) {
					break
				}
			}
			res, val := in.runScoped(cmd.Body, ctx)
			if res == ctrlHalt {
				return ctrlHalt, val
			}
			if res == ctrlQuit {
				quit = true
				break
			}
			ref.Write(NumberValue(curNum + step))
			if !hasLimit && in.halted {
				break
			}
		}
		if quit {
			return ctrlContinue, nil
		}
	}
	return ctrlContinue, nil
}

func (in *Interpreter) execSet(cmd *Command, ctx context.Context) (ctrl, Value) {
	for _, t := range cmd.SetTargets {
		val := in.evalExpr(t.Value, ctx)
		if in.halted {
			return ctrlHalt, nil
		}
		if t.Extract != nil {
			in.execExtractAssign(t.Extract, val, ctx)
		} else {
			ref := in.resolveForWrite(t.Var, ctx)
			if in.halted {
				return ctrlHalt, nil
			}
			ref.Write(val)
		}
		if in.halted {
			return ctrlHalt, nil
		}
	}
	return ctrlContinue, nil
}

// execExtractAssign implements `set $E(var,start[,end])=expr`: splice
// the assigned string into var's current string form over [start-1, end)
// (1-based, inclusive on both ends per the $E builtin's own semantics).
func (in *Interpreter) execExtractAssign(et *ExtractTarget, val Value, ctx context.Context) {
	ref := in.resolveForWrite(et.Var, ctx)
	if in.halted {
		return
	}
	cur, _ := ref.rawRead()
	s := toStr(cur)
	start := 1
	if et.Start != nil {
		start = int(toNum(in.evalExpr(et.Start, ctx)))
	}
	end := start
	if et.End != nil {
		end = int(toNum(in.evalExpr(et.End, ctx)))
	} else if et.Start == nil {
		end = len(s)
	}
	if start < 1 {
		start = 1
	}
	if end > len(s) {
		end = len(s)
	}
	if start > len(s)+1 {
		start = len(s) + 1
	}
	if end < start-1 {
		end = start - 1
	}
	replacement := toStr(val)
	var sb strings.Builder
	sb.WriteString(s[:start-1])
	sb.WriteString(replacement)
	if end >= start-1 && end < len(s) {
		sb.WriteString(s[end:])
	}
	ref.Write(StringValue(sb.String()))
}

func (in *Interpreter) execNew(cmd *Command) (ctrl, Value) {
	if len(cmd.NewNames) == 0 {
		return ctrlContinue, nil
	}
	frame := newEnvironment()
	for _, name := range cmd.NewNames {
		frame.set(name, StringValue(""))
	}
	in.env.push(frame)
	return ctrlContinue, nil
}

func (in *Interpreter) execKill(cmd *Command, ctx context.Context) (ctrl, Value) {
	if len(cmd.KillTargets) == 0 {
		in.env.resetLocals()
		return ctrlContinue, nil
	}
	for _, v := range cmd.KillTargets {
		if ref, ok := in.resolveForKill(v, ctx); ok {
			ref.Delete()
		}
	}
	return ctrlContinue, nil
}

func (in *Interpreter) execMerge(cmd *Command, ctx context.Context) (ctrl, Value) {
	if sameOrOverlapping(cmd.MergeDst, cmd.MergeSrc, in, ctx) {
		in.runtimeError(cmd.Pos, "merge of overlapping variables")
		return ctrlHalt, nil
	}
	srcRef := in.resolveForWrite(cmd.MergeSrc, ctx)
	if in.halted {
		return ctrlHalt, nil
	}
	srcVal, _ := srcRef.rawRead()
	dstRef := in.resolveForWrite(cmd.MergeDst, ctx)
	if in.halted {
		return ctrlHalt, nil
	}

	srcNode, isArr := srcVal.(*ArrayNode)
	if !isArr {
		return ctrlContinue, nil
	}
	dstNode := in.ensureArrayNode(dstRef)
	mergeChildren(dstNode, srcNode)
	return ctrlContinue, nil
}

func mergeChildren(dst, src *ArrayNode) {
	for _, key := range src.children.Keys() {
		v, _ := src.children.Get(key)
		if srcChild, isArr := v.(*ArrayNode); isArr {
			existing, has := dst.children.Get(key)
			var dstChild *ArrayNode
			if has {
				if dc, ok := existing.(*ArrayNode); ok {
					dstChild = dc
				} else {
					dstChild = newArrayNode(existing)
					dst.children.Put(key, dstChild)
				}
			} else {
				dstChild = newArrayNode(srcChild.self)
				dst.children.Put(key, dstChild)
			}
			if srcChild.self != nil {
				dstChild.self = srcChild.self
			}
			mergeChildren(dstChild, srcChild)
		} else {
			dst.children.Put(key, v)
		}
	}
}

// sameOrOverlapping implements the merge overlap rule: dst and src
// reject when they name the same root variable and one's subscript path
// is a prefix of the other's, evaluated with the same subscript values
// both sides would actually use.
func sameOrOverlapping(dst, src *VarRef, in *Interpreter, ctx context.Context) bool {
	if dst.Name != src.Name {
		return false
	}
	dstKeys := evalKeys(dst.Subscripts, in, ctx)
	srcKeys := evalKeys(src.Subscripts, in, ctx)
	shorter, longer := dstKeys, srcKeys
	if len(longer) < len(shorter) {
		shorter, longer = longer, shorter
	}
	for i, k := range shorter {
		if k != longer[i] {
			return false
		}
	}
	return true
}

func evalKeys(subs []Expr, in *Interpreter, ctx context.Context) []string {
	keys := make([]string, len(subs))
	for i, e := range subs {
		keys[i] = toStr(in.evalExpr(e, ctx))
	}
	return keys
}
