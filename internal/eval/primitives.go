// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package eval

import (
	"math/rand"
	"os"
	"time"

	"lisp/internal/diag"
	"lisp/internal/heap"
	"lisp/internal/value"
)

type builtinFunc func(ip *Interp, scope, args value.Value) value.Value

// installPrimitives allocates one Builtin object per primitive in the
// closed set (§4.3: "the set is closed") and binds each into the
// global environment under its interned name, in the same order the
// names were pre-interned in internWellKnown.
func (ip *Interp) installPrimitives() {
	table := []struct {
		name string
		fn   builtinFunc
	}{
		{"+", primAdd},
		{"-", primSub},
		{"<", primLess},
		{"eq", primEq},
		{"cons", primCons},
		{"car", primCar},
		{"cdr", primCdr},
		{"list", primList},
		{"if", primIf},
		{"progn", primProgn},
		{"quote", primQuote},
		{"lambda", primLambda},
		{"define", primDefine},
		{"defvar", primDefine},
		{"defun", primDefun},
		{"defmacro", primDefmacro},
		{"macroexpand", primMacroexpand},
		{"apply", primApply},
		{"eval", primEval},
		{"print", primPrint},
		{"write-char", primWriteChar},
		{"rand", primRand},
		{"sleep", primSleep},
		{"load", primLoad},
		{"exit", primExit},
		{"freeze", primFreeze},
		{"compile", primCompile},
		{"debug", primDebug},
	}

	ip.builtins = make([]builtinFunc, len(table))
	for i, e := range table {
		ip.builtins[i] = e.fn
		sym := ip.Intern(e.name)
		b := ip.gc.AllocBuiltin(i)
		ip.bind(ip.globalEnv, sym, b)
	}
}

// evalArgs evaluates every expression in the raw cons list args
// against scope, left to right (§5: "evaluation order is left-to-right
// within argument lists"), returning the results as a slice. Results
// are accumulated into a tracked cons list as they're produced, not a
// Go slice: every builtin goes through this helper, and a Go slice of
// heap Values isn't a root the collector can fix up, so an earlier
// result would go stale the instant a later argument's own evaluation
// allocates.
func (ip *Interp) evalArgs(scope, args value.Value) []value.Value {
	arena := ip.gc.Arena()
	n := ip.listLen(args)

	f := ip.gc.PushFrame()
	defer f.Pop()
	f.Track(&scope)
	a := args
	f.Track(&a)
	acc := value.Nil // built in reverse as each result is evaluated
	f.Track(&acc)

	for a != value.Nil {
		val := ip.Eval(scope, arena.Car(a.Addr()))
		acc = ip.gc.AllocCons(val, acc)
		a = arena.Cdr(a.Addr())
	}

	// Every Eval above has already happened; unreversing acc into a
	// slice below is pure reads, so it's safe without further tracking.
	out := make([]value.Value, n)
	for i := n - 1; i >= 0 && acc != value.Nil; i-- {
		out[i] = arena.Car(acc.Addr())
		acc = arena.Cdr(acc.Addr())
	}
	return out
}

// evalArgsList is evalArgs's sibling for callers (primList) that want
// the evaluated arguments back as a cons list: it conses the forward
// pass directly rather than evaluating through evalArgs and then
// re-consing a finished Go slice, which would just reintroduce the
// same staleness hazard evalArgs itself exists to avoid (re-consing
// allocates, and an unread slice element isn't a root).
func (ip *Interp) evalArgsList(scope, args value.Value) value.Value {
	arena := ip.gc.Arena()

	f := ip.gc.PushFrame()
	defer f.Pop()
	f.Track(&scope)
	a := args
	f.Track(&a)
	acc := value.Nil // built in reverse as each result is evaluated
	f.Track(&acc)

	for a != value.Nil {
		val := ip.Eval(scope, arena.Car(a.Addr()))
		acc = ip.gc.AllocCons(val, acc)
		a = arena.Cdr(a.Addr())
	}

	result := value.Nil
	f.Track(&result)
	for acc != value.Nil {
		result = ip.gc.AllocCons(arena.Car(acc.Addr()), result)
		acc = arena.Cdr(acc.Addr())
	}
	return result
}

func (ip *Interp) wantNumber(v value.Value, who string) (int64, bool) {
	if !v.IsNumber() {
		ip.errorf(diag.KindType, "%s: not a number", who)
		return 0, false
	}
	return v.Int(), true
}

func (ip *Interp) wantCons(v value.Value, who string) bool {
	if v.Tag() != value.TagCons {
		ip.errorf(diag.KindType, "%s: not a pair", who)
		return false
	}
	return true
}

func (ip *Interp) wantArity(who string, got, want int) bool {
	if got != want {
		ip.errorf(diag.KindArity, "%s: expects %d args, got %d", who, want, got)
		return false
	}
	return true
}

func (ip *Interp) wantArityAtLeast(who string, got, min int) bool {
	if got < min {
		ip.errorf(diag.KindArity, "%s: expects at least %d args, got %d", who, min, got)
		return false
	}
	return true
}

// --- arithmetic & comparison ---

func primAdd(ip *Interp, scope, args value.Value) value.Value {
	vs := ip.evalArgs(scope, args)
	if !ip.wantArityAtLeast("+", len(vs), 1) {
		return value.Nil
	}
	var sum int64
	for _, v := range vs {
		n, ok := ip.wantNumber(v, "+")
		if !ok {
			return value.Nil
		}
		sum += n // wraps per the documented overflow policy, SPEC_FULL §9.x
	}
	return value.Number(sum)
}

func primSub(ip *Interp, scope, args value.Value) value.Value {
	vs := ip.evalArgs(scope, args)
	if !ip.wantArityAtLeast("-", len(vs), 1) {
		return value.Nil
	}
	first, ok := ip.wantNumber(vs[0], "-")
	if !ok {
		return value.Nil
	}
	if len(vs) == 1 {
		return value.Number(-first)
	}
	acc := first
	for _, v := range vs[1:] {
		n, ok := ip.wantNumber(v, "-")
		if !ok {
			return value.Nil
		}
		acc -= n
	}
	return value.Number(acc)
}

func primLess(ip *Interp, scope, args value.Value) value.Value {
	vs := ip.evalArgs(scope, args)
	if !ip.wantArity("<", len(vs), 2) {
		return value.Nil
	}
	a, ok1 := ip.wantNumber(vs[0], "<")
	b, ok2 := ip.wantNumber(vs[1], "<")
	if !ok1 || !ok2 {
		return value.Nil
	}
	return value.Bool(a < b)
}

func primEq(ip *Interp, scope, args value.Value) value.Value {
	vs := ip.evalArgs(scope, args)
	if !ip.wantArity("eq", len(vs), 2) {
		return value.Nil
	}
	a, b := vs[0], vs[1]
	if a.IsNumber() && b.IsNumber() {
		return value.Bool(a.Int() == b.Int())
	}
	if a.Tag() == value.TagSymbol && b.Tag() == value.TagSymbol {
		// interned, so pointer identity already implies name equality,
		// but comparing names directly matches the spec's wording and
		// stays correct even if a caller somehow held an un-interned
		// symbol.
		return value.Bool(ip.symbolName(a) == ip.symbolName(b))
	}
	return value.Bool(a == b) // pointer identity
}

// --- pairs and lists ---

func primCons(ip *Interp, scope, args value.Value) value.Value {
	vs := ip.evalArgs(scope, args)
	if !ip.wantArity("cons", len(vs), 2) {
		return value.Nil
	}
	return ip.gc.AllocCons(vs[0], vs[1])
}

func primCar(ip *Interp, scope, args value.Value) value.Value {
	vs := ip.evalArgs(scope, args)
	if !ip.wantArity("car", len(vs), 1) {
		return value.Nil
	}
	if !ip.wantCons(vs[0], "car") {
		return value.Nil
	}
	return ip.gc.Arena().Car(vs[0].Addr())
}

func primCdr(ip *Interp, scope, args value.Value) value.Value {
	vs := ip.evalArgs(scope, args)
	if !ip.wantArity("cdr", len(vs), 1) {
		return value.Nil
	}
	if !ip.wantCons(vs[0], "cdr") {
		return value.Nil
	}
	return ip.gc.Arena().Cdr(vs[0].Addr())
}

func primList(ip *Interp, scope, args value.Value) value.Value {
	return ip.evalArgsList(scope, args)
}

// --- control ---

// primIf reads its three sub-expressions off the args cons list
// directly rather than through a buffered listToSlice: the not-taken
// branch has to survive the condition's own evaluation (which can
// allocate and collect), and a Go slice element isn't a root the
// collector fixes up.
func primIf(ip *Interp, scope, args value.Value) value.Value {
	if !ip.wantArity("if", ip.listLen(args), 3) {
		return value.Nil
	}
	arena := ip.gc.Arena()

	f := ip.gc.PushFrame()
	defer f.Pop()
	f.Track(&scope)
	a := args
	f.Track(&a)

	condExpr := arena.Car(a.Addr())
	a = arena.Cdr(a.Addr())
	thenExpr := arena.Car(a.Addr())
	f.Track(&thenExpr)
	a = arena.Cdr(a.Addr())
	elseExpr := arena.Car(a.Addr())
	f.Track(&elseExpr)

	if ip.Eval(scope, condExpr).Truthy() {
		return ip.park(thenExpr, scope)
	}
	return ip.park(elseExpr, scope)
}

// primProgn walks args as a cons list, evaluating every element but
// the last against a tracked cursor (not a listToSlice snapshot): each
// Eval can allocate, and an unread element still sitting in a plain Go
// slice would go stale across it.
func primProgn(ip *Interp, scope, args value.Value) value.Value {
	if args == value.Nil {
		return value.Nil
	}
	arena := ip.gc.Arena()

	f := ip.gc.PushFrame()
	defer f.Pop()
	f.Track(&scope)
	a := args
	f.Track(&a)

	for arena.Cdr(a.Addr()) != value.Nil {
		ip.Eval(scope, arena.Car(a.Addr()))
		a = arena.Cdr(a.Addr())
	}
	return ip.park(arena.Car(a.Addr()), scope)
}

func primQuote(ip *Interp, scope, args value.Value) value.Value {
	parts := ip.listToSlice(args)
	if !ip.wantArity("quote", len(parts), 1) {
		return value.Nil
	}
	return parts[0]
}

// --- binding forms ---

func primLambda(ip *Interp, scope, args value.Value) value.Value {
	parts := ip.listToSlice(args)
	if !ip.wantArity("lambda", len(parts), 2) {
		return value.Nil
	}
	return ip.gc.AllocLambda(parts[0], parts[1], scope)
}

func primDefine(ip *Interp, scope, args value.Value) value.Value {
	parts := ip.listToSlice(args)
	if !ip.wantArity("define", len(parts), 2) {
		return value.Nil
	}
	name := parts[0]
	if name.Tag() != value.TagSymbol {
		ip.errorf(diag.KindType, "define: name must be a symbol")
		return value.Nil
	}

	// name must survive the value expression's own evaluation below.
	f := ip.gc.PushFrame()
	defer f.Pop()
	f.Track(&scope)
	f.Track(&name)

	val := ip.Eval(scope, parts[1])
	ip.bind(scope, name, val)
	return val
}

func primDefun(ip *Interp, scope, args value.Value) value.Value {
	parts := ip.listToSlice(args)
	if !ip.wantArity("defun", len(parts), 3) {
		return value.Nil
	}
	name, params, body := parts[0], parts[1], parts[2]
	if name.Tag() != value.TagSymbol {
		ip.errorf(diag.KindType, "defun: name must be a symbol")
		return value.Nil
	}

	// name must survive AllocLambda's own allocation below.
	f := ip.gc.PushFrame()
	defer f.Pop()
	f.Track(&scope)
	f.Track(&name)

	fn := ip.gc.AllocLambda(params, body, scope)
	ip.bind(scope, name, fn)
	return fn
}

func primDefmacro(ip *Interp, scope, args value.Value) value.Value {
	parts := ip.listToSlice(args)
	if !ip.wantArity("defmacro", len(parts), 3) {
		return value.Nil
	}
	name, params, body := parts[0], parts[1], parts[2]
	if name.Tag() != value.TagSymbol {
		ip.errorf(diag.KindType, "defmacro: name must be a symbol")
		return value.Nil
	}

	// name must survive AllocMacro's own allocation below.
	f := ip.gc.PushFrame()
	defer f.Pop()
	f.Track(&scope)
	f.Track(&name)

	m := ip.gc.AllocMacro(params, body, scope)
	ip.bind(scope, name, m)
	return m
}

func primMacroexpand(ip *Interp, scope, args value.Value) value.Value {
	parts := ip.listToSlice(args)
	if !ip.wantArity("macroexpand", len(parts), 2) {
		return value.Nil
	}

	f := ip.gc.PushFrame()
	defer f.Pop()
	f.Track(&scope)
	expr, rawArg := parts[0], parts[1] // rawArg is unevaluated, per "expand without evaluating"
	f.Track(&expr)
	f.Track(&rawArg)

	m := ip.Eval(scope, expr)
	f.Track(&m)
	if m.Tag() != value.TagMacro {
		ip.errorf(diag.KindType, "macroexpand: not a macro")
		return value.Nil
	}

	arena := ip.gc.Arena()
	captured := arena.CapturedEnv(m.Addr())
	parent := captured
	if parent == value.Nil {
		parent = scope
	}
	nParams := ip.listLen(arena.Params(m.Addr()))
	if !ip.wantArity("macroexpand", 1, nParams) {
		return value.Nil
	}

	expandScope := ip.newScope(parent)
	f.Track(&expandScope)
	actuals := ip.gc.AllocCons(rawArg, value.Nil)
	f.Track(&actuals)
	ip.bindParams(expandScope, arena.Params(m.Addr()), actuals)
	return ip.Eval(expandScope, arena.Body(m.Addr()))
}

func primApply(ip *Interp, scope, args value.Value) value.Value {
	parts := ip.listToSlice(args)
	if !ip.wantArity("apply", len(parts), 2) {
		return value.Nil
	}

	f := ip.gc.PushFrame()
	defer f.Pop()
	f.Track(&scope)
	fnExpr, argListExpr := parts[0], parts[1]
	f.Track(&fnExpr)
	f.Track(&argListExpr)

	fn := ip.Eval(scope, fnExpr)
	f.Track(&fn)
	argList := ip.Eval(scope, argListExpr)
	quoted := ip.quoteEach(argList)
	return ip.apply(scope, fn, quoted)
}

// quoteEach wraps every already-evaluated element of a proper list in
// `(quote x)` so apply's raw-args contract (re-evaluate expressions
// against the caller's scope) sees the already-computed values as
// literals instead of evaluating them a second time. It walks list
// via a tracked cursor and builds the wrapped result as a tracked,
// reversed accumulator instead of round-tripping through a Go slice:
// an unread slice element isn't a root, and every iteration here
// allocates (three Cons per element: two for `(quote x)`, one for the
// accumulator, plus the final unreversing pass).
func (ip *Interp) quoteEach(list value.Value) value.Value {
	arena := ip.gc.Arena()

	f := ip.gc.PushFrame()
	defer f.Pop()
	quoteSym := ip.Intern("quote")
	f.Track(&quoteSym)
	l := list
	f.Track(&l)
	acc := value.Nil // built in reverse
	f.Track(&acc)

	for l != value.Nil {
		v := arena.Car(l.Addr())
		wrapped := ip.gc.AllocCons(quoteSym, ip.gc.AllocCons(v, value.Nil))
		acc = ip.gc.AllocCons(wrapped, acc)
		l = arena.Cdr(l.Addr())
	}

	result := value.Nil
	f.Track(&result)
	for acc != value.Nil {
		result = ip.gc.AllocCons(arena.Car(acc.Addr()), result)
		acc = arena.Cdr(acc.Addr())
	}
	return result
}

func primEval(ip *Interp, scope, args value.Value) value.Value {
	parts := ip.listToSlice(args)
	if !ip.wantArity("eval", len(parts), 1) {
		return value.Nil
	}
	expr := ip.Eval(scope, parts[0])
	return ip.Eval(scope, expr)
}

// --- I/O ---

func primPrint(ip *Interp, scope, args value.Value) value.Value {
	vs := ip.evalArgs(scope, args)
	var last value.Value = value.Nil
	for _, v := range vs {
		os.Stdout.WriteString(ip.printValue(v))
		os.Stdout.WriteString(" ")
		last = v
	}
	os.Stdout.WriteString("\n")
	return last
}

func primWriteChar(ip *Interp, scope, args value.Value) value.Value {
	vs := ip.evalArgs(scope, args)
	for _, v := range vs {
		n, ok := ip.wantNumber(v, "write-char")
		if !ok {
			return value.Nil
		}
		os.Stdout.Write([]byte{byte(n)})
	}
	return value.Nil
}

func primRand(ip *Interp, scope, args value.Value) value.Value {
	if !ip.wantArity("rand", ip.listLen(args), 0) {
		return value.Nil
	}
	return value.Number(rand.Int63())
}

func primSleep(ip *Interp, scope, args value.Value) value.Value {
	vs := ip.evalArgs(scope, args)
	if !ip.wantArity("sleep", len(vs), 1) {
		return value.Nil
	}
	ms, ok := ip.wantNumber(vs[0], "sleep")
	if !ok {
		return value.Nil
	}
	time.Sleep(time.Duration(ms) * time.Millisecond)
	return value.Nil
}

func primLoad(ip *Interp, scope, args value.Value) value.Value {
	vs := ip.evalArgs(scope, args)
	if !ip.wantArity("load", len(vs), 1) {
		return value.Nil
	}
	if vs[0].Tag() != value.TagSymbol {
		ip.errorf(diag.KindType, "load: file name must be a symbol")
		return value.Nil
	}
	name := ip.symbolName(vs[0])
	f, err := os.Open(name)
	if err != nil {
		ip.errorf(diag.KindIO, "load: %v", err)
		return value.Nil
	}
	defer f.Close()
	return ip.LoadFile(scope, f)
}

func primExit(ip *Interp, scope, args value.Value) value.Value {
	ip.shutdown = true
	return value.Nil
}

// --- JIT controls ---

func primFreeze(ip *Interp, scope, args value.Value) value.Value {
	return ip.compileNames(scope, args, heap.SymbolsResolved)
}

func primCompile(ip *Interp, scope, args value.Value) value.Value {
	return ip.compileNames(scope, args, heap.Compiled)
}

func primDebug(ip *Interp, scope, args value.Value) value.Value {
	vs := ip.evalArgs(scope, args)
	if !ip.wantArity("debug", len(vs), 1) {
		return value.Nil
	}
	ip.debug = vs[0].Truthy()
	return value.Bool(ip.debug)
}
