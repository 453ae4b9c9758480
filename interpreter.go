package mumps

import (
	"context"
	"math/rand"
	"time"
)

// ctrl is the result every command evaluator returns: whether execution
// should continue with the next command, unwind the innermost block, or
// terminate the whole program.
type ctrl int

const (
	ctrlContinue ctrl = iota
	ctrlQuit
	ctrlHalt
)

// NativeArg is one evaluated argument passed to a host-registered native
// function. Ref is non-nil for a by-reference (`.name`) argument, giving
// the native the same read/write access a called tag's parameter would
// have; otherwise Value holds the already-evaluated scalar/array.
type NativeArg struct {
	Value Value
	Ref   *Reference
}

// NativeFunc is a host-provided function reachable from M source by
// name, exactly like a tag call but implemented in Go.
type NativeFunc func(args []NativeArg) (Value, error)

// Interpreter walks a parsed TopLevel tree, maintaining an environment
// stack and an output buffer.
type Interpreter struct {
	cfg     *Config
	top     *TopLevel
	env     *EnvironmentStack
	natives map[string]NativeFunc
	diags   *diagnosticSink
	rng     *rand.Rand

	output  []byte
	column  int
	steps   int
	halted  bool
}

// New creates an Interpreter with no program loaded yet; call Evaluate
// or EvaluateContext to parse and run source.
func New(cfg *Config) *Interpreter {
	cfg = cfg.withDefaults()
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.Logger == nil {
		cfg.Logger = NewLogger(cfg.Debug)
		if cfg.Debug {
			cfg.Logger.EnableAllCategories()
		}
	}
	return &Interpreter{
		cfg:     cfg,
		env:     newEnvironmentStack(),
		natives: map[string]NativeFunc{},
		rng:     rng,
	}
}

// RegisterNative makes fn callable from M source under name, using the
// same call syntax as a user-defined tag.
func (in *Interpreter) RegisterNative(name string, fn NativeFunc) {
	in.natives[name] = fn
}

// Result is what Evaluate returns: the accumulated output and any
// diagnostics from parsing or execution.
type Result struct {
	Output string
	Errors []Diagnostic
}

// Evaluate parses and runs source from a clean interpreter state,
// equivalent to EvaluateContext with context.Background().
func (in *Interpreter) Evaluate(source string) Result {
	return in.EvaluateContext(context.Background(), source)
}

// EvaluateContext parses source, then executes it starting at the top of
// the flat command sequence. Execution stops early if ctx is canceled;
// this is reported the same way a step-budget overrun is, as a runtime
// diagnostic followed by Halt, since the language itself exposes no
// cancellation.
func (in *Interpreter) EvaluateContext(ctx context.Context, source string) Result {
	top, parseDiags := Parse(source)
	in.top = top
	in.diags = &diagnosticSink{diags: append([]Diagnostic{}, parseDiags...)}
	in.env = newEnvironmentStack()
	in.output = in.output[:0]
	in.column = 0
	in.steps = 0
	in.halted = false

	in.callTagFrom(0, ctx)

	return Result{Output: string(in.output), Errors: in.diags.diags}
}

func (in *Interpreter) runtimeError(pos Position, format string, args ...interface{}) {
	in.diags.add(pos, format, args...)
	in.cfg.Logger.PositionError(pos, format, args...)
	in.halted = true
}

func (in *Interpreter) checkBudget(ctx context.Context, pos Position) bool {
	if in.halted {
		return true
	}
	if ctx.Err() != nil {
		in.runtimeError(pos, "execution canceled")
		return true
	}
	in.steps++
	if in.cfg.MaxSteps > 0 && in.steps > in.cfg.MaxSteps {
		in.runtimeError(pos, "step budget exceeded")
		return true
	}
	return false
}

// callTagFrom runs commands from index i in the flat top-level sequence
// until it runs off the end, a Quit unwinds it, or Halt propagates.
// Fallthrough between tags with no intervening Quit/Halt is the point of
// walking the flat sequence rather than a per-tag slice.
func (in *Interpreter) callTagFrom(i int, ctx context.Context) (ctrl, Value) {
	depth := len(in.env.frames)
	defer in.truncateEnv(depth)

	children := in.top.Children
	for i < len(children) {
		if in.checkBudget(ctx, children[i].Pos) {
			return ctrlHalt, nil
		}
		res, val := in.execCommand(children[i], ctx)
		if in.halted {
			return ctrlHalt, val
		}
		if res != ctrlContinue {
			return res, val
		}
		i++
	}
	return ctrlContinue, nil
}

// runSeq executes an in-line body (if/else/for's same-line commands) and
// passes through whatever control result the last command produced: it
// is not a scope boundary of its own.
func (in *Interpreter) runSeq(cmds []*Command, ctx context.Context) (ctrl, Value) {
	for _, c := range cmds {
		if in.checkBudget(ctx, c.Pos) {
			return ctrlHalt, nil
		}
		res, val := in.execCommand(c, ctx)
		if in.halted {
			return ctrlHalt, val
		}
		if res != ctrlContinue {
			return res, val
		}
	}
	return ctrlContinue, nil
}

// runScoped runs cmds as a full block: environment frames pushed by
// `new` within cmds are popped again when the block exits by any path.
func (in *Interpreter) runScoped(cmds []*Command, ctx context.Context) (ctrl, Value) {
	depth := len(in.env.frames)
	defer in.truncateEnv(depth)
	return in.runSeq(cmds, ctx)
}

func (in *Interpreter) truncateEnv(depth int) {
	if len(in.env.frames) > depth {
		in.env.frames = in.env.frames[:depth]
	}
}

func (in *Interpreter) execCommand(cmd *Command, ctx context.Context) (ctrl, Value) {
	in.cfg.Logger.Trace(CatEval, "(%d:%d) dispatching command kind %d", cmd.Pos.Line, cmd.Pos.Column, cmd.Kind)
	if cmd.Post != nil {
		if !toBool(in.evalExpr(cmd.Post, ctx)) {
			return ctrlContinue, nil
		}
	}
	switch cmd.Kind {
	case CmdWrite:
		return in.execWrite(cmd, ctx)
	case CmdQuit:
		if cmd.QuitExpr != nil {
			return ctrlQuit, in.evalExpr(cmd.QuitExpr, ctx)
		}
		return ctrlQuit, nil
	case CmdDo:
		return in.execDo(cmd, ctx)
	case CmdIf:
		return in.execIf(cmd, ctx)
	case CmdElse:
		return in.execElse(cmd, ctx)
	case CmdFor:
		return in.execFor(cmd, ctx)
	case CmdSet:
		return in.execSet(cmd, ctx)
	case CmdNew:
		return in.execNew(cmd)
	case CmdKill:
		return in.execKill(cmd, ctx)
	case CmdMerge:
		return in.execMerge(cmd, ctx)
	case CmdHalt:
		return ctrlHalt, nil
	}
	in.runtimeError(cmd.Pos, "unimplemented command")
	return ctrlHalt, nil
}

// --- variable resolution ---

// readBaseRaw looks up name in the environment stack for reading,
// following any indirect reference chain it finds.
func (in *Interpreter) readBaseRaw(name string) Value {
	frame := in.env.findFrameForRead(name)
	if frame == nil {
		in.cfg.Logger.Trace(CatVar, "read of undefined %q yields \"\"", name)
		return StringValue("")
	}
	v, _ := frame.get(name)
	return in.chaseIndirect(v)
}

func (in *Interpreter) chaseIndirect(v Value) Value {
	chased := 0
	for {
		ir, ok := v.(*IndirectRef)
		if !ok {
			return v
		}
		chased++
		if chased > in.cfg.MaxIndirectChase {
			in.runtimeError(Position{}, "indirect reference chain exceeded limit")
			return StringValue("")
		}
		val, _ := ir.target.rawRead()
		v = val
	}
}

// readVar evaluates a variable reference (with or without subscripts) to
// its current Value.
func (in *Interpreter) readVar(v *VarRef, ctx context.Context) Value {
	base := in.readBaseRaw(v.Name)
	if len(v.Subscripts) == 0 {
		return base
	}
	cur, ok := base.(*ArrayNode)
	for i, subExpr := range v.Subscripts {
		if !ok || cur == nil {
			return StringValue("")
		}
		key := toStr(in.evalExpr(subExpr, ctx))
		child, exists := cur.children.Get(key)
		if !exists {
			return StringValue("")
		}
		if i == len(v.Subscripts)-1 {
			return child
		}
		cur, ok = child.(*ArrayNode)
	}
	return StringValue("")
}

// resolveBaseRefForWrite finds the concrete (frame, name) or (array,
// key) storage location that name ultimately addresses, chasing any
// indirect reference stored there. Subscripts, if any, are resolved
// against whatever this returns.
func (in *Interpreter) resolveBaseRefForWrite(name string) Reference {
	frame := in.env.findFrameForWrite(name)
	ref := envReference(frame, name)
	chased := 0
	for {
		v, ok := ref.rawRead()
		if !ok {
			return ref
		}
		ir, isIndirect := v.(*IndirectRef)
		if !isIndirect {
			return ref
		}
		chased++
		if chased > in.cfg.MaxIndirectChase {
			in.runtimeError(Position{}, "indirect reference chain exceeded limit")
			return ref
		}
		ref = ir.target
	}
}

// ensureArrayNode makes sure ref currently holds an *ArrayNode, creating
// one (or promoting a scalar into one as its self-value) if not.
func (in *Interpreter) ensureArrayNode(ref Reference) *ArrayNode {
	v, ok := ref.rawRead()
	if ok {
		if an, isArr := v.(*ArrayNode); isArr {
			return an
		}
		an := newArrayNode(v)
		ref.Write(an)
		return an
	}
	an := newArrayNode(nil)
	ref.Write(an)
	return an
}

// resolveForWrite resolves v to a Reference, auto-vivifying array nodes
// along the way as needed.
func (in *Interpreter) resolveForWrite(v *VarRef, ctx context.Context) Reference {
	baseRef := in.resolveBaseRefForWrite(v.Name)
	if len(v.Subscripts) == 0 {
		return baseRef
	}
	cur := in.ensureArrayNode(baseRef)
	for i, subExpr := range v.Subscripts {
		key := toStr(in.evalExpr(subExpr, ctx))
		if key == "" {
			in.runtimeError(subExpr.exprPos(), "the empty string is not a valid subscript")
			return baseRef
		}
		if i == len(v.Subscripts)-1 {
			return arrayReference(cur, key)
		}
		child, exists := cur.children.Get(key)
		var childNode *ArrayNode
		if exists {
			if an, isArr := child.(*ArrayNode); isArr {
				childNode = an
			} else {
				childNode = newArrayNode(child)
				cur.children.Put(key, childNode)
			}
		} else {
			childNode = newArrayNode(nil)
			cur.children.Put(key, childNode)
		}
		cur = childNode
	}
	return baseRef
}

// resolveForKill resolves v to a Reference without ever creating storage
// along the way; ok is false when there is nothing to delete.
func (in *Interpreter) resolveForKill(v *VarRef, ctx context.Context) (Reference, bool) {
	baseRef := in.resolveBaseRefForWrite(v.Name)
	if len(v.Subscripts) == 0 {
		return baseRef, true
	}
	val, ok := baseRef.rawRead()
	if !ok {
		return Reference{}, false
	}
	cur, isArr := val.(*ArrayNode)
	for i, subExpr := range v.Subscripts {
		if !isArr || cur == nil {
			return Reference{}, false
		}
		key := toStr(in.evalExpr(subExpr, ctx))
		if i == len(v.Subscripts)-1 {
			return arrayReference(cur, key), true
		}
		child, exists := cur.children.Get(key)
		if !exists {
			return Reference{}, false
		}
		cur, isArr = child.(*ArrayNode)
	}
	return Reference{}, false
}

// navigateExisting walks subscripts against an already-resolved base
// value without creating anything, returning the node the LAST subscript
// would index into (i.e. the parent of the final key) -- used by $O.
func (in *Interpreter) navigateExisting(base Value, subs []Expr, ctx context.Context) (*ArrayNode, bool) {
	cur, ok := base.(*ArrayNode)
	if !ok {
		return nil, false
	}
	for _, subExpr := range subs {
		key := toStr(in.evalExpr(subExpr, ctx))
		child, exists := cur.children.Get(key)
		if !exists {
			return nil, false
		}
		cur, ok = child.(*ArrayNode)
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
