package mumps

import "testing"

func run(t *testing.T, source string) Result {
	t.Helper()
	in := New(nil)
	return in.Evaluate(source)
}

func TestLeftToRightPrecedence(t *testing.T) {
	res := run(t, ` w 3+4*3`)
	if res.Output != "21" {
		t.Errorf("got %q, want %q", res.Output, "21")
	}
}

func TestArithmeticOperators(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{` w 5/2`, "2.5"},
		{` w 5\2`, "2"},
		{` w 5#2`, "1"},
		{` w -5#2`, "-1"},
	}
	for _, c := range cases {
		res := run(t, c.src)
		if res.Output != c.want {
			t.Errorf("%s: got %q, want %q", c.src, res.Output, c.want)
		}
	}
}

func TestForLoopThreeParamSweep(t *testing.T) {
	res := run(t, ` f i=1:1:5 w !,"i: ",i`)
	want := "\ni: 1\ni: 2\ni: 3\ni: 4\ni: 5"
	if res.Output != want {
		t.Errorf("got %q, want %q", res.Output, want)
	}
	if len(res.Errors) != 0 {
		t.Errorf("unexpected errors: %v", res.Errors)
	}
}

func TestForLoopArgumentless(t *testing.T) {
	res := run(t, ` s n=0
 f  s n=n+1 w n q:n=3`)
	if res.Output != "123" {
		t.Errorf("got %q, want %q", res.Output, "123")
	}
}

func TestArrayCollationIteration(t *testing.T) {
	res := run(t, ` s arr(1)="a",arr(2)="c",arr(10)="b"
 s k=""
 f  s k=$O(arr(k)) w arr(k) q:k=""`)
	if res.Output != "acb" {
		t.Errorf("got %q, want %q", res.Output, "acb")
	}
}

func TestMergeNonOverlapping(t *testing.T) {
	res := run(t, ` s dst("a")="1",dst("b")="2",dst("c")="3"
 s src("c")="4",src("d")="5"
 m dst=src
 w dst("a"),dst("b"),dst("c"),dst("d")`)
	if res.Output != "1245" {
		t.Errorf("got %q, want %q", res.Output, "1245")
	}
}

func TestMergeOverlappingIsRejected(t *testing.T) {
	res := run(t, ` s a(1)=1
 m a=a(1)`)
	if len(res.Errors) == 0 {
		t.Errorf("expected an error for overlapping merge, got none; output=%q", res.Output)
	}
}

func TestExtractAssignment(t *testing.T) {
	res := run(t, ` s string="Hello, world!"
 s $E(string,3,5)="110"
 w string`)
	if res.Output != "He110, world!" {
		t.Errorf("got %q, want %q", res.Output, "He110, world!")
	}
}

func TestExtractIdentity(t *testing.T) {
	res := run(t, ` s str="Hello, world!"
 w $E(str,1,$L(str))`)
	if res.Output != "Hello, world!" {
		t.Errorf("got %q, want %q", res.Output, "Hello, world!")
	}
}

func TestSelectFirstTrueBranch(t *testing.T) {
	res := run(t, ` w $S(0:"a",1&1:"b",1!1:"c")`)
	if res.Output != "b" {
		t.Errorf("got %q, want %q", res.Output, "b")
	}
}

func TestSelectAllFalseHalts(t *testing.T) {
	res := run(t, ` w $S(0:"a",0:"b")`)
	if len(res.Errors) == 0 {
		t.Errorf("expected an error when every $select condition is false")
	}
}

func TestCommandPrefixParsing(t *testing.T) {
	res := run(t, ` wRIte !,"Hello, world"`)
	if res.Output != "\nHello, world" {
		t.Errorf("got %q, want %q", res.Output, "\nHello, world")
	}
}

func TestFindEmptyNeedleAlwaysMatchesAtOne(t *testing.T) {
	res := run(t, ` w $F("anything","",7)`)
	if res.Output != "1" {
		t.Errorf("got %q, want %q", res.Output, "1")
	}
}

func TestFindLocatesSubstring(t *testing.T) {
	res := run(t, ` w $F("hello","ll")`)
	if res.Output != "5" {
		t.Errorf("got %q, want %q", res.Output, "5")
	}
}

func TestKillRemovesSubscript(t *testing.T) {
	res := run(t, ` s v(1)="a",v(2)="b"
 k v(1)
 w $O(v(""))`)
	if res.Output != "2" {
		t.Errorf("got %q, want %q", res.Output, "2")
	}
}

func TestQuitFromDoBlockIsAbsorbed(t *testing.T) {
	res := run(t, ` d
 . w "a"
 . q
 . w "b"
 w "c"`)
	if res.Output != "ac" {
		t.Errorf("got %q, want %q", res.Output, "ac")
	}
}

func TestQuitFromIfBodyEndsEnclosingFor(t *testing.T) {
	res := run(t, ` f i=1:1:5 i i=3 w i q
 w "done"`)
	// the for-sweep absorbs the Quit that escapes its i=3 iteration's
	// if-body and stops the sweep, then falls through to the next line.
	if res.Output != "3done" {
		t.Errorf("got %q, want %q", res.Output, "3done")
	}
}

func TestTagCallAndReturn(t *testing.T) {
	res := run(t, ` w $$double(5)
 q
double(n)
 q n*2`)
	if res.Output != "10" {
		t.Errorf("got %q, want %q", res.Output, "10")
	}
}

func TestByReferenceTagArgument(t *testing.T) {
	res := run(t, ` s x=1
 d bump(.x)
 w x
 q
bump(n)
 s n=n+1
 q`)
	if res.Output != "2" {
		t.Errorf("got %q, want %q", res.Output, "2")
	}
}

func TestNewInsideParameterizedForSweepIsScopedPerIteration(t *testing.T) {
	res := run(t, ` s z="outer"
 f i=1:1:3 n:i=2 z s z=i
 w "after=",z`)
	if res.Output != "after=3" {
		t.Errorf("got %q, want %q", res.Output, "after=3")
	}
}

func TestReferenceArgumentToUndefinedVariableIsRuntimeError(t *testing.T) {
	res := run(t, ` d bump(.nope)
 q
bump(n)
 q`)
	if len(res.Errors) == 0 {
		t.Errorf("expected a runtime error for a reference argument to an undefined variable")
	}
}

func TestNewScopesNameToItsBlock(t *testing.T) {
	res := run(t, ` s v="outer"
 d
 . n v
 . s v="inner"
 . w v
 w v`)
	if res.Output != "innerouter" {
		t.Errorf("got %q, want %q", res.Output, "innerouter")
	}
}

func TestUnknownCommandNameRequiresLeadingWhitespace(t *testing.T) {
	res := run(t, "w 1")
	if len(res.Errors) == 0 {
		t.Fatalf("expected a parse error, got none; output=%q", res.Output)
	}
	got := res.Errors[0]
	if got.Line != 0 || got.Column != 2 {
		t.Errorf("got position (%d,%d), want (0,2)", got.Line, got.Column)
	}
}

func TestCommandArgumentsRejectInnerWhitespace(t *testing.T) {
	res := run(t, ` w 3 + 4`)
	if len(res.Errors) == 0 {
		t.Fatalf("expected a parse error, got none; output=%q", res.Output)
	}
	got := res.Errors[0]
	if got.Line != 0 || got.Column != 4 {
		t.Errorf("got position (%d,%d), want (0,4)", got.Line, got.Column)
	}
}

func TestHaltStopsExecutionImmediately(t *testing.T) {
	res := run(t, ` w "a"
 h
 w "b"`)
	if res.Output != "a" {
		t.Errorf("got %q, want %q", res.Output, "a")
	}
}

func TestQuitDoubleSpaceSeparatesFromNextCommand(t *testing.T) {
	res := run(t, ` q:0  w "reached"`)
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if res.Output != "reached" {
		t.Errorf("got %q, want %q", res.Output, "reached")
	}
}

func TestHaltInsideCalledTagPropagatesOutOfExpression(t *testing.T) {
	res := run(t, ` w "a",$$stop(),"b"
 w "c"
 q
stop()
 h`)
	if res.Output != "a" {
		t.Errorf("got %q, want %q", res.Output, "a")
	}
}

func TestOrderOnNonVariableIsParseError(t *testing.T) {
	res := run(t, ` w $O("literal")`)
	if len(res.Errors) == 0 {
		t.Fatalf("expected a parse error for a non-variable $order argument, got none; output=%q", res.Output)
	}
	if res.Output != "" {
		t.Errorf("$O on a non-variable should evaluate to the empty string, got output %q", res.Output)
	}
}

func TestOrderOnUnsubscriptedVariableIsParseError(t *testing.T) {
	res := run(t, ` w $O(v)`)
	if len(res.Errors) == 0 {
		t.Errorf("expected a parse error for an unsubscripted $order argument")
	}
}

func TestCommentOnlyLineIsSkipped(t *testing.T) {
	res := run(t, ` ; a note about what follows
 w "a"
 ; another note
 w "b"`)
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if res.Output != "ab" {
		t.Errorf("got %q, want %q", res.Output, "ab")
	}
}

func TestTrailingCommentAfterCommand(t *testing.T) {
	res := run(t, ` s x=1 ; note
 w x`)
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if res.Output != "1" {
		t.Errorf("got %q, want %q", res.Output, "1")
	}
}

func TestCommentOnlyLineInsideDoBlock(t *testing.T) {
	res := run(t, ` d
 . w "a"
 . ; explains nothing
 . w "b"
 w "c"`)
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if res.Output != "abc" {
		t.Errorf("got %q, want %q", res.Output, "abc")
	}
}

func TestMergeDistinguishesCaseInVariableNames(t *testing.T) {
	res := run(t, ` s ABC=1
 s abc(1)=2
 m ABC=abc
 w ABC(1)`)
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if res.Output != "2" {
		t.Errorf("got %q, want %q", res.Output, "2")
	}
}

func TestEmptyStringSubscriptOnWriteIsRuntimeError(t *testing.T) {
	res := run(t, ` s v("")="x"`)
	if len(res.Errors) == 0 {
		t.Errorf("expected a runtime error for an empty-string subscript on write")
	}
}

func TestEmptyStringSubscriptDoesNotBreakOrderIdiom(t *testing.T) {
	res := run(t, ` s arr(1)="a",arr(2)="b"
 s k=""
 f  s k=$O(arr(k)) w arr(k) q:k=""`)
	if res.Output != "ab" {
		t.Errorf("got %q, want %q", res.Output, "ab")
	}
}

func TestRegisteredNativeFunctionIsCallable(t *testing.T) {
	in := New(nil)
	in.RegisterNative("double", func(args []NativeArg) (Value, error) {
		return NumberValue(toNum(args[0].Value) * 2), nil
	})
	res := in.Evaluate(` w $$double(21)`)
	if res.Output != "42" {
		t.Errorf("got %q, want %q", res.Output, "42")
	}
}
